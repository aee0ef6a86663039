// Package docintel extracts text, tables and form fields through a remote
// layout-analysis service.
package docintel

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"ComplianceReview/internal/config"
	"ComplianceReview/internal/domain"
	"ComplianceReview/internal/errors"
	"ComplianceReview/internal/infrastructure/httpapi"
	"ComplianceReview/internal/infrastructure/parser"
	"ComplianceReview/internal/logging"
	"ComplianceReview/internal/ports"
)

const Method = "document_intelligence"

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".html": "text/html",
	".htm":  "text/html",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".tiff": "image/tiff",
}

// Client implements ports.Extractor against the layout-analysis API.
type Client struct {
	api    *httpapi.Client
	ready  bool
	logger *zap.SugaredLogger
	clock  func() time.Time
}

var _ ports.Extractor = (*Client)(nil)

// NewClient builds the extractor; an empty endpoint or key leaves it
// unconfigured so the chain skips it.
func NewClient(cfg config.ExtractionConfig, log *zap.SugaredLogger) *Client {
	if log == nil {
		log = logging.Nop()
	}
	return &Client{
		api:    httpapi.NewClient(cfg.Endpoint, cfg.Timeout, httpapi.WithHeader("Ocp-Apim-Subscription-Key", cfg.APIKey)),
		ready:  cfg.Endpoint != "" && cfg.APIKey != "",
		logger: log,
		clock:  time.Now,
	}
}

// Name identifies the channel in the audit trail.
func (c *Client) Name() string { return "document_intelligence" }

type analyzeResponse struct {
	Content string `json:"content"`
	Pages   []struct {
		PageNumber int `json:"pageNumber"`
	} `json:"pages"`
	Tables []struct {
		RowCount    int `json:"rowCount"`
		ColumnCount int `json:"columnCount"`
		Cells       []struct {
			Content     string `json:"content"`
			RowIndex    int    `json:"rowIndex"`
			ColumnIndex int    `json:"columnIndex"`
		} `json:"cells"`
	} `json:"tables"`
	KeyValuePairs []struct {
		Key struct {
			Content string `json:"content"`
		} `json:"key"`
		Value *struct {
			Content string `json:"content"`
		} `json:"value"`
	} `json:"keyValuePairs"`
}

// Process uploads the document and maps the layout result.
func (c *Client) Process(ctx context.Context, path string) (domain.ExtractionResult, error) {
	if !c.ready {
		return domain.ExtractionResult{}, errors.NotConfigured(c.Name(), "extraction.endpoint and extraction.apiKey")
	}

	info, err := parser.Stat(path)
	if err != nil {
		return domain.ExtractionResult{}, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	contentType, ok := contentTypes[ext]
	if !ok {
		return domain.ExtractionResult{}, errors.Mark(errors.Newf("%s: %q is not supported", c.Name(), ext), errors.ErrUnsupportedFormat)
	}

	f, err := os.Open(path)
	if err != nil {
		return domain.ExtractionResult{}, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	var resp analyzeResponse
	if err := c.api.Post(ctx, "/analyze", contentType, f, &resp); err != nil {
		return domain.ExtractionResult{}, errors.Wrapf(err, "%s analyze %s", c.Name(), filepath.Base(path))
	}

	tables := make([]domain.Table, 0, len(resp.Tables))
	for _, t := range resp.Tables {
		table := domain.Table{RowCount: t.RowCount, ColumnCount: t.ColumnCount}
		for _, cell := range t.Cells {
			table.Cells = append(table.Cells, domain.TableCell{Content: cell.Content, Row: cell.RowIndex, Column: cell.ColumnIndex})
		}
		tables = append(tables, table)
	}

	var pairs []domain.KeyValue
	for _, kv := range resp.KeyValuePairs {
		if kv.Value == nil {
			continue
		}
		pairs = append(pairs, domain.KeyValue{Key: strings.TrimSpace(kv.Key.Content), Value: strings.TrimSpace(kv.Value.Content)})
	}

	c.logger.Debugw("document analyzed", "path", path, "pages", len(resp.Pages), "tables", len(tables), "pairs", len(pairs))
	meta := parser.Describe(path, info, pairs, c.clock())
	return parser.Build(resp.Content, len(resp.Pages), tables, pairs, Method, meta), nil
}
