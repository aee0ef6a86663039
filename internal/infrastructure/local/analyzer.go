package local

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"ComplianceReview/internal/domain"
	"ComplianceReview/internal/ports"
)

const (
	minTermLength = 6

	addressedRatio = 0.3
	partialRatio   = 0.1

	compliantCutoff = 80.0
	reviewCutoff    = 60.0

	noKnowledgeConfidence = 40
	maxConfidence         = 85
)

type coverage int

const (
	notAddressed coverage = iota
	partiallyAddressed
	addressed
)

// check is one requirement of one regulation. Only its position is rendered;
// requirement text stays out of the analysis that is parsed for status markers.
type check struct {
	regulation string
	index      int
	total      int
	coverage   coverage
}

// Analyzer checks how many words of each retrieved requirement the proposal
// repeats and writes the result in the same layout a human analyst would.
type Analyzer struct{}

var _ ports.ComplianceAnalyzer = Analyzer{}

// Name identifies the channel in the audit trail.
func (Analyzer) Name() string { return "local_rules" }

// Analyze never fails except on cancellation.
func (Analyzer) Analyze(ctx context.Context, text string, actx ports.AnalysisContext) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	proposal := strings.ToLower(text)
	var checks []check
	for _, doc := range actx.Knowledge {
		for i, req := range doc.Requirements {
			checks = append(checks, check{
				regulation: doc.Number,
				index:      i + 1,
				total:      len(doc.Requirements),
				coverage:   assess(req, proposal),
			})
		}
	}

	return render(actx.Knowledge, checks), nil
}

func assess(requirement, proposal string) coverage {
	var terms []string
	for _, w := range strings.FieldsFunc(strings.ToLower(requirement), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	}) {
		if len(w) >= minTermLength {
			terms = append(terms, w)
		}
	}
	if len(terms) == 0 {
		return notAddressed
	}

	hits := 0
	for _, t := range terms {
		if strings.Contains(proposal, t) {
			hits++
		}
	}
	switch ratio := float64(hits) / float64(len(terms)); {
	case ratio > addressedRatio:
		return addressed
	case ratio > partialRatio:
		return partiallyAddressed
	default:
		return notAddressed
	}
}

func render(knowledge []domain.KnowledgeDocument, checks []check) string {
	var b strings.Builder

	if len(checks) == 0 {
		b.WriteString("Overall Compliance Status: Requires Review\n")
		fmt.Fprintf(&b, "Confidence Score: %d\n", noKnowledgeConfidence)
		b.WriteString("Key Findings:\n- No executive order requirements were available to check this proposal against.\n")
		b.WriteString("Recommendations:\n- Route the proposal to an attorney for manual review.\n")
		return b.String()
	}

	earned, gaps, partial := 0, 0, 0
	for _, c := range checks {
		switch c.coverage {
		case addressed:
			earned += 10
		case partiallyAddressed:
			earned += 5
			partial++
		default:
			gaps++
		}
	}
	score := float64(earned) / float64(10*len(checks)) * 100

	status := "Non-Compliant"
	switch {
	case score >= compliantCutoff:
		status = "Compliant"
	case score >= reviewCutoff:
		status = "Requires Review"
	}
	confidence := int(math.Min(maxConfidence, float64(50+5*len(checks))))

	fmt.Fprintf(&b, "Overall Compliance Status: %s\n", status)
	fmt.Fprintf(&b, "Confidence Score: %d\n", confidence)
	b.WriteString("Key Findings:\n")
	fmt.Fprintf(&b, "- %d of %d requirements addressed, %d partially (coverage %.2f%%).\n",
		len(checks)-gaps-partial, len(checks), partial, score)

	b.WriteString("Relevant Executive Orders:\n")
	seen := map[string]bool{}
	for _, doc := range knowledge {
		if len(doc.Requirements) == 0 || seen[doc.Number] {
			continue
		}
		seen[doc.Number] = true
		fmt.Fprintf(&b, "- Executive Order %s", doc.Number)
		if doc.Title != "" && !strings.Contains(strings.ToLower(doc.Title), "compliant") {
			fmt.Fprintf(&b, " - %s", doc.Title)
		}
		b.WriteString("\n")
	}

	if gaps+partial > 0 {
		b.WriteString("Concerns:\n")
		for _, c := range checks {
			switch c.coverage {
			case notAddressed:
				fmt.Fprintf(&b, "- Requirement %d of %d in Executive Order %s is not addressed in the proposal.\n", c.index, c.total, c.regulation)
			case partiallyAddressed:
				fmt.Fprintf(&b, "- Requirement %d of %d in Executive Order %s is only partially addressed.\n", c.index, c.total, c.regulation)
			}
		}
	}

	b.WriteString("Recommendations:\n")
	if gaps > 0 {
		fmt.Fprintf(&b, "- Resolve %d unaddressed requirements before submission.\n", gaps)
	}
	if partial > 0 {
		fmt.Fprintf(&b, "- Strengthen %d partially addressed requirements.\n", partial)
	}
	if score < compliantCutoff {
		b.WriteString("- Consult legal counsel before proceeding.\n")
	} else {
		b.WriteString("- No blocking gaps found by automated requirement matching.\n")
	}
	return b.String()
}
