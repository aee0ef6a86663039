package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ComplianceReview/internal/domain"
)

func TestSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level domain.RiskLevel
		want  string
	}{
		{domain.RiskHigh, "[URGENT] Grant Proposal Review Required - a.pdf (Risk: 42.0%)"},
		{domain.RiskMediumHigh, "[PRIORITY] Grant Proposal Review Required - a.pdf (Risk: 42.0%)"},
		{domain.RiskMedium, "Grant Proposal Review Required - a.pdf (Risk: 42.0%)"},
		{domain.RiskLow, "Grant Proposal Review Required - a.pdf (Risk: 42.0%)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Subject("a.pdf", tt.level, 42), tt.level)
	}
}

func TestPriority(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "high", Priority(domain.RiskHigh))
	assert.Equal(t, "high", Priority(domain.RiskMediumHigh))
	assert.Equal(t, "normal", Priority(domain.RiskMedium))
	assert.Equal(t, "low", Priority(domain.RiskLow))
	assert.Equal(t, "low", Priority(""))
}

func TestComposeEscapesAndListsRecommendations(t *testing.T) {
	t.Parallel()

	risk := domain.RiskAssessment{
		OverallScore: 55,
		Level:        domain.RiskHigh,
		Factors:      []domain.RiskFactor{{Name: "Non-compliance", Severity: domain.SeverityCritical, Description: "fails EO review"}},
		Recommendations: []domain.Recommendation{
			{Priority: domain.SeverityCritical, Action: "Legal review", Description: "Escalate to counsel"},
			{Priority: domain.SeverityHigh, Action: "Clarify budget", Description: "Budget lacks detail"},
		},
	}
	compliance := domain.ComplianceResult{Status: domain.StatusNonCompliant, ComplianceScore: 20, ConfidenceScore: 80}
	extraction := domain.ExtractionResult{Metadata: domain.DocumentMetadata{FileName: "<b>proposal</b>.pdf"}}
	recipients := []string{"legal@example.org"}

	msg := Compose(risk, compliance, domain.SummaryResult{}, extraction, recipients, fixedNow)

	assert.Equal(t, "high", msg.Priority)
	assert.Equal(t, "<b>proposal</b>.pdf", msg.Document)
	assert.Equal(t, recipients, msg.To)
	assert.Contains(t, msg.HTMLBody, "&lt;b&gt;proposal&lt;/b&gt;.pdf")
	assert.NotContains(t, msg.HTMLBody, "<b>proposal</b>")
	assert.Contains(t, msg.HTMLBody, "#dc3545")

	assert.Contains(t, msg.TextBody, "Document: <b>proposal</b>.pdf")
	assert.Contains(t, msg.TextBody, "Risk Score: 55.0%")
	assert.Contains(t, msg.TextBody, "- Status: NON COMPLIANT")
	assert.Contains(t, msg.TextBody, "1. [CRITICAL] Legal review")
	assert.Contains(t, msg.TextBody, "2. [HIGH] Clarify budget")
	assert.Contains(t, msg.TextBody, "No summary available")
	assert.Contains(t, msg.TextBody, "Processed: 2025-03-01 09:30:00")

	recipients[0] = "changed@example.org"
	assert.Equal(t, "legal@example.org", msg.To[0])
}

func TestComposeDefaults(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("é", maxSummaryRunes+20)
	msg := Compose(domain.RiskAssessment{Level: domain.RiskLow}, domain.ComplianceResult{},
		domain.SummaryResult{ExecutiveSummary: long}, domain.ExtractionResult{}, nil, fixedNow)

	assert.Equal(t, "Unknown Document", msg.Document)
	require.Contains(t, msg.TextBody, strings.Repeat("é", maxSummaryRunes)+"...")
	assert.NotContains(t, msg.TextBody, strings.Repeat("é", maxSummaryRunes+1))
	assert.NotContains(t, msg.TextBody, "RECOMMENDATIONS:")
}

func TestDedupe(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"Grants", "Equity"}, dedupe([]string{" Grants", "grants ", "", "Equity"}))
	assert.Nil(t, dedupe(nil))
}
