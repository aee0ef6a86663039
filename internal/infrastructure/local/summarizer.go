// Package local holds the last-resort channels that work without any remote
// service: an extractive summarizer and a requirement-coverage analyzer.
package local

import (
	"context"
	"strings"

	"ComplianceReview/internal/domain"
	"ComplianceReview/internal/heuristic"
	"ComplianceReview/internal/ports"
)

const (
	MethodExtractive = "local_extractive"

	minParagraphLength = 50
	summaryParagraphs  = 3
	summaryFallback    = 500
	maxClauses         = 5
)

var clauseKeywords = []string{"compliance", "requirement", "objective", "budget", "timeline", "deliverable"}

// Summarizer builds an extractive summary from the leading paragraphs.
type Summarizer struct{}

var _ ports.Summarizer = Summarizer{}

// Name identifies the channel in the audit trail.
func (Summarizer) Name() string { return "local_summarizer" }

// Summarize never fails except on cancellation.
func (Summarizer) Summarize(ctx context.Context, text string, _ domain.DocumentMetadata) (domain.SummaryResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.SummaryResult{}, err
	}

	var paragraphs []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); len(line) > minParagraphLength {
			paragraphs = append(paragraphs, line)
		}
	}

	var summary string
	if len(paragraphs) > 0 {
		summary = strings.Join(paragraphs[:min(summaryParagraphs, len(paragraphs))], "\n\n")
	} else {
		r := []rune(strings.TrimSpace(text))
		summary = string(r[:min(summaryFallback, len(r))])
	}

	var clauses []string
	for _, p := range paragraphs {
		lower := strings.ToLower(p)
		for _, kw := range clauseKeywords {
			if strings.Contains(lower, kw) {
				clauses = append(clauses, p)
				break
			}
		}
		if len(clauses) == maxClauses {
			break
		}
	}

	return domain.SummaryResult{
		ExecutiveSummary: summary,
		KeyClauses:       clauses,
		KeyTopics:        heuristic.Topics(text),
		Method:           MethodExtractive,
	}, nil
}
