// Package heuristic turns free-text compliance analysis into structured fields.
package heuristic

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"ComplianceReview/internal/domain"
)

const (
	// DefaultConfidence is used when the analysis states no confidence score.
	DefaultConfidence = 70
	// MaxRequirementLength bounds the context captured per regulation.
	MaxRequirementLength = 300
	maxTitleLength       = 100
)

var (
	// "non-compliant" contains "compliant", so it is checked first.
	nonCompliantMarkers = []string{"non-compliant", "non compliant", "noncompliant"}
	compliantMarker     = "compliant"

	confidencePattern = regexp.MustCompile(`(?i)confidence\s*score[\s*:\-\[(]*(\d+)`)
	regulationPattern = regexp.MustCompile(`(?i)\b(?:executive\s+order|e\.o\.|eo)[\s#:]*(\d{5})\b`)
	titlePattern      = regexp.MustCompile(`^[\s*]*[-–—:]\s*([^\n(]+)`)
)

// Findings are the fields recovered from an analysis text.
type Findings struct {
	Status                domain.ComplianceStatus
	ConfidenceScore       int
	ReferencedRegulations []domain.Regulation
}

// Extract parses status, confidence and referenced regulations from raw.
func Extract(raw string) Findings {
	return Findings{
		Status:                Status(raw),
		ConfidenceScore:       Confidence(raw),
		ReferencedRegulations: Regulations(raw),
	}
}

// Status applies marker precedence: non-compliant, then compliant, else review.
func Status(raw string) domain.ComplianceStatus {
	lower := strings.ToLower(raw)
	for _, m := range nonCompliantMarkers {
		if strings.Contains(lower, m) {
			return domain.StatusNonCompliant
		}
	}
	if strings.Contains(lower, compliantMarker) {
		return domain.StatusCompliant
	}
	return domain.StatusRequiresReview
}

// Confidence returns the first integer after a "confidence score" marker,
// clamped to [0,100], or DefaultConfidence.
func Confidence(raw string) int {
	m := confidencePattern.FindStringSubmatch(raw)
	if m == nil {
		return DefaultConfidence
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		// Only overflow can fail here: the group is all digits.
		return 100
	}
	return clamp(v, 0, 100)
}

// Regulations returns referenced regulations in order of first appearance,
// deduplicated by id.
func Regulations(raw string) []domain.Regulation {
	matches := regulationPattern.FindAllStringSubmatchIndex(raw, -1)
	seen := make(map[string]bool, len(matches))
	regs := make([]domain.Regulation, 0, len(matches))

	for _, m := range matches {
		id := raw[m[2]:m[3]]
		if seen[id] {
			continue
		}
		seen[id] = true

		title := "Executive Order " + id
		if t := titlePattern.FindStringSubmatch(raw[m[1]:]); t != nil {
			if s := strings.Trim(strings.TrimSpace(t[1]), "*"); s != "" {
				title = truncate(s, maxTitleLength)
			}
		}

		regs = append(regs, domain.Regulation{
			ID:              id,
			Name:            "EO " + id,
			Title:           title,
			KeyRequirements: []string{sentenceFrom(raw, m[0], m[1])},
		})
	}
	return regs
}

// sentenceFrom returns raw[start:] up to the end of the first sentence that
// ends after pos, bounded by MaxRequirementLength.
func sentenceFrom(raw string, start, pos int) string {
	end := len(raw)
	rest := raw[pos:]
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		if c == '\n' && i+1 < len(rest) && rest[i+1] == '\n' {
			end = pos + i
			break
		}
		if (c == '.' || c == '!' || c == '?') && (i+1 == len(rest) || rest[i+1] == ' ' || rest[i+1] == '\n') {
			end = pos + i + 1
			break
		}
	}
	return truncate(strings.Join(strings.Fields(raw[start:end]), " "), MaxRequirementLength)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
