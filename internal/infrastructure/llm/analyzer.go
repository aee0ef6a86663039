package llm

import (
	"context"
	"fmt"
	"strings"

	"ComplianceReview/internal/errors"
	"ComplianceReview/internal/ports"
)

const analystSystem = `You are a legal compliance analyst specializing in grant proposal review.

Analyze grant proposals for compliance with the executive orders provided as context.
Identify compliance issues, quote the sections that apply, explain how the proposal
aligns or conflicts with each requirement and flag ambiguous areas for human review.
Cite executive orders as "Executive Order NNNNN".

Output Format:
- Overall Compliance Status: [Compliant/Non-Compliant/Requires Review]
- Confidence Score: [0-100]
- Key Findings: [Bullet points]
- Relevant Executive Orders: [List with citations]
- Concerns: [Any issues identified]
- Recommendations: [Actions needed]`

// Analyzer implements ports.ComplianceAnalyzer on top of a generator. The
// reply is returned verbatim; structure is recovered downstream.
type Analyzer struct {
	gen ports.Generator
}

var _ ports.ComplianceAnalyzer = (*Analyzer)(nil)

// NewAnalyzer wraps a generator.
func NewAnalyzer(gen ports.Generator) *Analyzer {
	return &Analyzer{gen: gen}
}

// Name identifies the channel in the audit trail.
func (a *Analyzer) Name() string { return "llm_analyzer" }

// Analyze sends the proposal together with its metadata, summary and the
// retrieved regulations.
func (a *Analyzer) Analyze(ctx context.Context, text string, actx ports.AnalysisContext) (string, error) {
	if a.gen == nil {
		return "", errors.NotConfigured(a.Name(), "llm")
	}

	out, err := a.gen.Complete(ctx, analystSystem, analysisPrompt(text, actx))
	if err != nil {
		return "", errors.Wrap(err, "compliance analysis")
	}
	return out, nil
}

func analysisPrompt(text string, actx ports.AnalysisContext) string {
	var b strings.Builder
	b.WriteString("Analyze the following grant proposal for compliance with executive orders.\n\n")

	fmt.Fprintf(&b, "DOCUMENT: %s\n", actx.FileName)
	if m := actx.Metadata; m.Applicant != "" || m.Deadline != "" || m.BudgetAmount != "" {
		fmt.Fprintf(&b, "Applicant: %s\nDeadline: %s\nBudget: %s\n", m.Applicant, m.Deadline, m.BudgetAmount)
	}
	if s := actx.Summary.ExecutiveSummary; s != "" {
		fmt.Fprintf(&b, "\nEXECUTIVE SUMMARY:\n%s\n", s)
	}
	if len(actx.Summary.KeyClauses) > 0 {
		b.WriteString("\nKEY CLAUSES:\n")
		for _, c := range actx.Summary.KeyClauses {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}

	if len(actx.Knowledge) > 0 {
		b.WriteString("\nRELEVANT EXECUTIVE ORDERS:\n")
		for _, doc := range actx.Knowledge {
			fmt.Fprintf(&b, "\nExecutive Order %s", doc.Number)
			if doc.Title != "" {
				fmt.Fprintf(&b, " - %s", doc.Title)
			}
			b.WriteString("\n")
			for _, req := range doc.Requirements {
				fmt.Fprintf(&b, "  * %s\n", req)
			}
		}
	} else {
		b.WriteString("\nNo executive orders were retrieved; rely on general knowledge and flag uncertainty.\n")
	}

	fmt.Fprintf(&b, "\nGRANT PROPOSAL:\n%s\n", clip(text))
	return b.String()
}
