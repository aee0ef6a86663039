// Package scoring computes the composite risk assessment. Every function is pure:
// the same inputs always produce the same assessment and nothing here fails.
package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"

	"ComplianceReview/internal/domain"
)

// Assess computes sub-scores, level, factors and recommendations.
func Assess(p Policy, c domain.ComplianceResult, s domain.SummaryResult, e domain.ExtractionResult, now time.Time) domain.RiskAssessment {
	compliance, cFactors := ComplianceRisk(p, c)
	quality, qFactors := QualityRisk(p, s, e)
	completeness, kFactors := CompletenessRisk(p, c, s)

	overall := clampScore(p.Weights.Compliance*compliance + p.Weights.Quality*quality + p.Weights.Completeness*completeness)
	overall = round2(overall)
	level := Level(p, overall)

	factors := make([]domain.RiskFactor, 0, len(cFactors)+len(qFactors)+len(kFactors))
	factors = append(factors, cFactors...)
	factors = append(factors, qFactors...)
	factors = append(factors, kFactors...)

	return domain.RiskAssessment{
		OverallScore: overall,
		Level:        level,
		SubScores: domain.SubScores{
			Compliance:   round2(compliance),
			Quality:      round2(quality),
			Completeness: round2(completeness),
		},
		Factors:              factors,
		Recommendations:      Recommendations(level, c.Status, factors),
		RequiresNotification: overall < p.Notify,
		Confidence:           AssessmentConfidence(overall),
		Thresholds:           p.Thresholds,
		CalculatedAt:         now,
	}
}

// ComplianceRisk weights the compliance score by the analyzer's confidence.
func ComplianceRisk(p Policy, c domain.ComplianceResult) (float64, []domain.RiskFactor) {
	score := clampScore(c.ComplianceScore)
	confidence := clampScore(float64(c.ConfidenceScore))
	risk := score * (confidence / 100)

	var factors []domain.RiskFactor
	switch c.Status {
	case domain.StatusNonCompliant:
		factors = append(factors, domain.RiskFactor{
			Name:        "Compliance Violations",
			Severity:    domain.SeverityHigh,
			Description: "Analysis reports the document as non-compliant",
		})
	case domain.StatusRequiresReview:
		factors = append(factors, domain.RiskFactor{
			Name:        "Compliance Undetermined",
			Severity:    domain.SeverityMedium,
			Description: "Analysis could not determine compliance and flagged the document for review",
		})
	}

	if score < p.Thresholds.MediumHigh {
		factors = append(factors, domain.RiskFactor{
			Name:        "Low Compliance Score",
			Severity:    domain.SeverityHigh,
			Description: fmt.Sprintf("Compliance score of %.0f%% is below acceptable threshold", score),
		})
	}

	if c.ConfidenceScore < p.Confidence.LowCutoff {
		risk *= p.Confidence.LowMultiplier
		factors = append(factors, domain.RiskFactor{
			Name:        "Low Analysis Confidence",
			Severity:    domain.SeverityMedium,
			Description: fmt.Sprintf("Compliance analysis confidence of %d%% suggests uncertainty - requires human review", c.ConfidenceScore),
		})
	}

	return risk, factors
}

// QualityRisk deducts for short documents and thin topic coverage.
func QualityRisk(p Policy, s domain.SummaryResult, e domain.ExtractionResult) (float64, []domain.RiskFactor) {
	q := p.Quality
	score := 100.0
	var factors []domain.RiskFactor

	switch {
	case e.WordCount < q.MinWords:
		score -= q.MinWordsPenalty
		factors = append(factors, domain.RiskFactor{
			Name:        "Insufficient Content",
			Severity:    domain.SeverityHigh,
			Description: fmt.Sprintf("Document has only %d words (minimum recommended: %d)", e.WordCount, q.MinWords),
		})
	case e.WordCount < q.GoodWords:
		score -= q.GoodWordsPenalty
		factors = append(factors, domain.RiskFactor{
			Name:        "Limited Content",
			Severity:    domain.SeverityMedium,
			Description: fmt.Sprintf("Document has only %d words (recommended: %d+)", e.WordCount, q.GoodWords),
		})
	}

	if e.PageCount < q.MinPages {
		score -= q.MinPagesPenalty
		factors = append(factors, domain.RiskFactor{
			Name:        "Short Document",
			Severity:    domain.SeverityMedium,
			Description: fmt.Sprintf("Document has only %d page(s)", e.PageCount),
		})
	}

	if topics := countDistinct(s.KeyTopics); topics < q.MinTopics {
		score -= q.MinTopicsPenalty
		factors = append(factors, domain.RiskFactor{
			Name:        "Limited Topic Coverage",
			Severity:    domain.SeverityMedium,
			Description: fmt.Sprintf("Only %d key topics identified", topics),
		})
	}

	return math.Max(0, score), factors
}

// CompletenessRisk deducts for missing clauses and regulation coverage.
func CompletenessRisk(p Policy, c domain.ComplianceResult, s domain.SummaryResult) (float64, []domain.RiskFactor) {
	k := p.Completeness
	score := 100.0
	var factors []domain.RiskFactor

	if len(s.KeyClauses) < k.MinClauses {
		score -= k.MinClausesPenalty
		factors = append(factors, domain.RiskFactor{
			Name:        "Missing Key Clauses",
			Severity:    domain.SeverityHigh,
			Description: fmt.Sprintf("Only %d key clauses identified (expected: %d+)", len(s.KeyClauses), k.MinClauses),
		})
	}

	switch len(c.ReferencedRegulations) {
	case 0:
		score -= k.NoRegulationsPenalty
		factors = append(factors, domain.RiskFactor{
			Name:        "No Relevant Regulations",
			Severity:    domain.SeverityHigh,
			Description: "No relevant regulations found for this document",
		})
	case 1:
		score -= k.OneRegulationPenalty
		factors = append(factors, domain.RiskFactor{
			Name:        "Limited Regulation Coverage",
			Severity:    domain.SeverityMedium,
			Description: "Only one relevant regulation identified",
		})
	}

	return math.Max(0, score), factors
}

// Level maps a score to its risk level. Every score maps to exactly one level.
func Level(p Policy, score float64) domain.RiskLevel {
	switch {
	case score >= p.Thresholds.Low:
		return domain.RiskLow
	case score >= p.Thresholds.Medium:
		return domain.RiskMedium
	case score >= p.Thresholds.MediumHigh:
		return domain.RiskMediumHigh
	default:
		return domain.RiskHigh
	}
}

// AssessmentConfidence is higher the further the score sits from the midpoint.
func AssessmentConfidence(score float64) float64 {
	return round2(math.Min(100, 50+math.Abs(score-50)))
}

// Recommendations derives reviewer actions from the level and factors.
func Recommendations(level domain.RiskLevel, status domain.ComplianceStatus, factors []domain.RiskFactor) []domain.Recommendation {
	var recs []domain.Recommendation

	switch level {
	case domain.RiskHigh:
		recs = append(recs,
			domain.Recommendation{
				Priority:    domain.SeverityCritical,
				Action:      "Immediate Legal Review Required",
				Description: "This document requires immediate attorney review before proceeding.",
			},
			domain.Recommendation{
				Priority:    domain.SeverityCritical,
				Action:      "Address Compliance Issues",
				Description: "All compliance violations must be resolved before submission.",
			})
	case domain.RiskMediumHigh:
		recs = append(recs, domain.Recommendation{
			Priority:    domain.SeverityHigh,
			Action:      "Legal Review Recommended",
			Description: "Attorney review strongly recommended before submission.",
		})
	case domain.RiskMedium:
		recs = append(recs, domain.Recommendation{
			Priority:    domain.SeverityMedium,
			Action:      "Supervisory Review",
			Description: "Department supervisor should review before final submission.",
		})
	}

	high := 0
	for _, f := range factors {
		if f.Severity == domain.SeverityHigh {
			high++
		}
	}
	if high > 0 {
		recs = append(recs, domain.Recommendation{
			Priority:    domain.SeverityHigh,
			Action:      "Address High-Severity Issues",
			Description: fmt.Sprintf("%d high-severity issues require attention.", high),
		})
	}

	if status == domain.StatusNonCompliant {
		recs = append(recs, domain.Recommendation{
			Priority:    domain.SeverityHigh,
			Action:      "Revise Document for Compliance",
			Description: "Revise the document to address identified compliance violations.",
		})
	}

	return recs
}

// ComplianceScore derives how compliant a document is from the analysis status
// and weighted indicator keywords in its text, bounded to [0,100].
func ComplianceScore(p Policy, status domain.ComplianceStatus, raw string, regulations int) float64 {
	a := p.Adjustment

	var score float64
	switch status {
	case domain.StatusCompliant:
		score = a.CompliantBase
	case domain.StatusNonCompliant:
		score = a.NonCompliantBase
	default:
		score = a.ReviewBase
	}

	lower := strings.ToLower(raw)
	for _, k := range a.Penalties {
		n := strings.Count(lower, strings.ToLower(k.Term))
		if a.PenaltyCap > 0 && n > a.PenaltyCap {
			n = a.PenaltyCap
		}
		score += float64(n) * k.Weight
	}
	for _, k := range a.Bonuses {
		if strings.Contains(lower, strings.ToLower(k.Term)) {
			score += k.Weight
		}
	}

	switch {
	case regulations == 0:
		score += a.NoRegulationsAdj
	case a.ManyRegulations > 0 && regulations >= a.ManyRegulations:
		score += a.ManyRegulationsAdj
	}

	return round2(clampScore(score))
}

// OverallStatus is the reviewer disposition of a scored document.
func OverallStatus(level domain.RiskLevel, status domain.ComplianceStatus) domain.OverallStatus {
	switch {
	case level == domain.RiskHigh || status == domain.StatusNonCompliant:
		return domain.RequiresLegalReview
	case level == domain.RiskMedium || level == domain.RiskMediumHigh:
		return domain.RequiresReview
	default:
		return domain.ApprovedWithConditions
	}
}

func countDistinct(items []string) int {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		seen[strings.ToLower(strings.TrimSpace(it))] = struct{}{}
	}
	return len(seen)
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
