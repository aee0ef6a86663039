package llm

import (
	"context"
	"fmt"
	"strings"

	"ComplianceReview/internal/domain"
	"ComplianceReview/internal/errors"
	"ComplianceReview/internal/heuristic"
	"ComplianceReview/internal/ports"
)

const (
	Method = "llm"

	maxPromptChars = 24000
	maxClauses     = 5
)

const summarySystem = "You are an expert grant proposal analyst. Provide clear, concise, and comprehensive summaries."

const clausesSystem = "You are an expert at identifying critical clauses in legal and grant documents."

// Summarizer implements ports.Summarizer with two generator calls: one for
// the executive summary and one for risky clauses.
type Summarizer struct {
	gen ports.Generator
}

var _ ports.Summarizer = (*Summarizer)(nil)

// NewSummarizer wraps a generator.
func NewSummarizer(gen ports.Generator) *Summarizer {
	return &Summarizer{gen: gen}
}

// Name identifies the channel in the audit trail.
func (s *Summarizer) Name() string { return "llm_summarizer" }

// Summarize asks the model for a summary and for clauses that may pose
// compliance risks. Topics are taken from the summary.
func (s *Summarizer) Summarize(ctx context.Context, text string, meta domain.DocumentMetadata) (domain.SummaryResult, error) {
	if s.gen == nil {
		return domain.SummaryResult{}, errors.NotConfigured(s.Name(), "llm")
	}

	body := clip(text)
	summary, err := s.gen.Complete(ctx, summarySystem, fmt.Sprintf(`Analyze this grant proposal (%s) and provide:
1. A concise executive summary (3-4 sentences)
2. Key objectives (bullet points)
3. Budget highlights
4. Timeline/deliverables
5. Critical compliance requirements mentioned

Grant Proposal:
%s`, meta.FileName, body))
	if err != nil {
		return domain.SummaryResult{}, errors.Wrap(err, "summary")
	}

	clausesText, err := s.gen.Complete(ctx, clausesSystem, `Extract the specific clauses, phrases or requirements from this grant proposal that may pose compliance risks.
List each clause verbatim where possible, separated by a blank line, most important first.

Grant Proposal:
`+body)
	if err != nil {
		return domain.SummaryResult{}, errors.Wrap(err, "key clauses")
	}

	return domain.SummaryResult{
		ExecutiveSummary: strings.TrimSpace(summary),
		KeyClauses:       splitClauses(clausesText),
		KeyTopics:        heuristic.Topics(summary),
		Method:           Method,
	}, nil
}

func splitClauses(text string) []string {
	var clauses []string
	for _, part := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if part = strings.TrimSpace(part); part != "" {
			clauses = append(clauses, part)
			if len(clauses) == maxClauses {
				break
			}
		}
	}
	return clauses
}

func clip(text string) string {
	if r := []rune(text); len(r) > maxPromptChars {
		return string(r[:maxPromptChars])
	}
	return text
}
