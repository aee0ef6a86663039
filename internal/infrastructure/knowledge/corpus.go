// Package knowledge retrieves executive-order texts that are relevant to a
// proposal, from a local directory or a remote search index.
package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"ComplianceReview/internal/domain"
	"ComplianceReview/internal/errors"
	"ComplianceReview/internal/logging"
	"ComplianceReview/internal/ports"
)

const (
	topicWeight = 10
	termWeight  = 2

	maxRequirements      = 5
	minRequirementLength = 30
)

var complianceTerms = []string{
	"shall", "must", "required", "requirement", "compliance",
	"eligible", "eligibility", "condition", "standard", "regulation",
}

var requirementKeywords = []string{"shall", "must", "required", "requirement", "ensure"}

// Corpus is an in-memory set of regulation files named <number>_<title>.txt.
type Corpus struct {
	docs   []domain.KnowledgeDocument
	logger *zap.SugaredLogger
}

var _ ports.SearchIndex = (*Corpus)(nil)

// LoadCorpus reads every .txt file in dir. A missing directory yields an empty
// corpus; unreadable files are skipped.
func LoadCorpus(dir string, log *zap.SugaredLogger) (*Corpus, error) {
	if log == nil {
		log = logging.Nop()
	}
	c := &Corpus{logger: log}

	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, errors.Wrapf(err, "glob %s", dir)
	}
	if len(paths) == 0 {
		log.Warnw("knowledge base is empty", "dir", dir)
		return c, nil
	}
	sort.Strings(paths)

	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			log.Warnw("skip unreadable regulation", "path", p, "error", err)
			continue
		}
		number, title := parseName(p)
		c.docs = append(c.docs, domain.KnowledgeDocument{
			ID:      strings.TrimSuffix(filepath.Base(p), ".txt"),
			Number:  number,
			Title:   title,
			Content: string(raw),
		})
	}

	log.Infow("knowledge base loaded", "dir", dir, "documents", len(c.docs))
	return c, nil
}

// NewCorpus builds a corpus from documents already in memory.
func NewCorpus(docs []domain.KnowledgeDocument) *Corpus {
	return &Corpus{docs: docs, logger: logging.Nop()}
}

// Name identifies the channel in the audit trail.
func (c *Corpus) Name() string { return "local_corpus" }

// Len reports the number of loaded documents.
func (c *Corpus) Len() int { return len(c.docs) }

// Search scores every document: each topic found in the text adds 10 and each
// compliance term adds 2. Documents scoring zero are dropped. When topics is
// empty the words of query are used as topics.
func (c *Corpus) Search(ctx context.Context, query string, topics []string, top int) ([]domain.KnowledgeDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(topics) == 0 {
		topics = strings.Fields(query)
	}

	var results []domain.KnowledgeDocument
	for _, doc := range c.docs {
		content := strings.ToLower(doc.Content)
		relevance := 0
		var matched []string

		for _, t := range topics {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" && strings.Contains(content, t) {
				relevance += topicWeight
				matched = append(matched, t)
			}
		}
		for _, term := range complianceTerms {
			if strings.Contains(content, term) {
				relevance += termWeight
			}
		}
		if relevance == 0 {
			continue
		}

		hit := doc
		hit.Relevance = float64(relevance)
		hit.MatchedTopics = matched
		hit.Requirements = Requirements(doc.Content)
		results = append(results, hit)
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Relevance > results[j].Relevance })
	if top > 0 && len(results) > top {
		results = results[:top]
	}
	return results, nil
}

// Requirements returns up to five sentences of at least 30 characters that
// state an obligation.
func Requirements(text string) []string {
	var reqs []string
	for _, sentence := range strings.Split(text, ".") {
		sentence = strings.Join(strings.Fields(sentence), " ")
		if len(sentence) <= minRequirementLength {
			continue
		}
		lower := strings.ToLower(sentence)
		for _, kw := range requirementKeywords {
			if strings.Contains(lower, kw) {
				reqs = append(reqs, sentence+".")
				break
			}
		}
		if len(reqs) == maxRequirements {
			break
		}
	}
	return reqs
}

// parseName splits "14151_Ending_Radical_Programs.txt" into number and title.
func parseName(path string) (string, string) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	number, title, found := strings.Cut(stem, "_")
	if !found {
		return number, ""
	}
	return number, strings.ReplaceAll(title, "_", " ")
}
