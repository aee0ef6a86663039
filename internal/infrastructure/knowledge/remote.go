package knowledge

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"ComplianceReview/internal/config"
	"ComplianceReview/internal/domain"
	"ComplianceReview/internal/errors"
	"ComplianceReview/internal/infrastructure/httpapi"
	"ComplianceReview/internal/ports"
)

const maxQueryTopics = 5

// RemoteIndex queries a hosted full-text index of executive orders.
type RemoteIndex struct {
	api   *httpapi.Client
	index string
	ready bool
}

var _ ports.SearchIndex = (*RemoteIndex)(nil)

// NewRemoteIndex builds the client; without endpoint and key it reports
// configuration absent on every call.
func NewRemoteIndex(cfg config.SearchConfig) *RemoteIndex {
	return &RemoteIndex{
		api:   httpapi.NewClient(cfg.Endpoint, 10*time.Second, httpapi.WithHeader("api-key", cfg.APIKey)),
		index: cfg.Index,
		ready: cfg.Endpoint != "" && cfg.APIKey != "" && cfg.Index != "",
	}
}

// Name identifies the channel in the audit trail.
func (r *RemoteIndex) Name() string { return "search_index" }

type searchRequest struct {
	Search     string `json:"search"`
	Top        int    `json:"top"`
	SearchMode string `json:"searchMode"`
	Select     string `json:"select"`
}

type searchResponse struct {
	Value []struct {
		Score    float64 `json:"@search.score"`
		ID       string  `json:"id"`
		Title    string  `json:"title"`
		Content  string  `json:"content"`
		EONumber string  `json:"eo_number"`
	} `json:"value"`
}

// Search sends the leading topics (or query when there are none) as an
// any-term query.
func (r *RemoteIndex) Search(ctx context.Context, query string, topics []string, top int) ([]domain.KnowledgeDocument, error) {
	if !r.ready {
		return nil, errors.NotConfigured(r.Name(), "search.endpoint and search.apiKey")
	}

	if len(topics) > maxQueryTopics {
		topics = topics[:maxQueryTopics]
	}
	text := strings.Join(topics, " ")
	if text == "" {
		text = query
	}

	path := fmt.Sprintf("/indexes/%s/docs/search?api-version=2023-11-01", url.PathEscape(r.index))
	var resp searchResponse
	err := r.api.PostJSON(ctx, path, searchRequest{
		Search:     text,
		Top:        top,
		SearchMode: "any",
		Select:     "id,title,content,eo_number",
	}, &resp)
	if err != nil {
		return nil, errors.Wrapf(err, "search index %s", r.index)
	}

	docs := make([]domain.KnowledgeDocument, 0, len(resp.Value))
	for _, v := range resp.Value {
		docs = append(docs, domain.KnowledgeDocument{
			ID:           v.ID,
			Number:       v.EONumber,
			Title:        v.Title,
			Content:      v.Content,
			Relevance:    v.Score * 100,
			Requirements: Requirements(v.Content),
		})
	}
	return docs, nil
}
