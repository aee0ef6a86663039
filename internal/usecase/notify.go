package usecase

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	texttemplate "text/template"
	"time"

	"ComplianceReview/internal/domain"
	"ComplianceReview/internal/ports"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const maxSummaryRunes = 500

var funcs = map[string]any{
	"pct":   func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"upper": func(v any) string { return strings.ToUpper(fmt.Sprint(v)) },
	"inc":   func(i int) int { return i + 1 },
}

var (
	htmlBody = template.Must(template.New("notification.html.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/notification.html.tmpl"))
	textBody = texttemplate.Must(texttemplate.New("notification.txt.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/notification.txt.tmpl"))
)

var levelColors = map[domain.RiskLevel]template.CSS{
	domain.RiskHigh:       "#dc3545",
	domain.RiskMediumHigh: "#fd7e14",
	domain.RiskMedium:     "#ffc107",
	domain.RiskLow:        "#28a745",
}

type notificationView struct {
	FileName   string
	Level      string
	Status     string
	Color      template.CSS
	Summary    string
	Processed  string
	Risk       domain.RiskAssessment
	Compliance domain.ComplianceResult
	Extraction domain.ExtractionResult
}

// Compose renders the reviewer notification for a scored submission.
func Compose(risk domain.RiskAssessment, compliance domain.ComplianceResult, summary domain.SummaryResult,
	extraction domain.ExtractionResult, recipients []string, now time.Time) ports.Message {
	fileName := extraction.Metadata.FileName
	if fileName == "" {
		fileName = "Unknown Document"
	}

	color, ok := levelColors[risk.Level]
	if !ok {
		color = "#6c757d"
	}
	view := notificationView{
		FileName:   fileName,
		Level:      strings.ToUpper(string(risk.Level)),
		Status:     strings.ToUpper(strings.ReplaceAll(string(compliance.Status), "_", " ")),
		Color:      color,
		Summary:    excerpt(summary.ExecutiveSummary),
		Processed:  now.Format("2006-01-02 15:04:05"),
		Risk:       risk,
		Compliance: compliance,
		Extraction: extraction,
	}

	return ports.Message{
		To:       append([]string(nil), recipients...),
		Subject:  Subject(fileName, risk.Level, risk.OverallScore),
		HTMLBody: render(htmlBody, view),
		TextBody: render(textBody, view),
		Priority: Priority(risk.Level),
		Document: fileName,
	}
}

// Subject prefixes the review request with the urgency of level.
func Subject(fileName string, level domain.RiskLevel, score float64) string {
	urgency := ""
	switch level {
	case domain.RiskHigh:
		urgency = "[URGENT] "
	case domain.RiskMediumHigh:
		urgency = "[PRIORITY] "
	}
	return fmt.Sprintf("%sGrant Proposal Review Required - %s (Risk: %.1f%%)", urgency, fileName, score)
}

// Priority maps the risk level onto mail priority.
func Priority(level domain.RiskLevel) string {
	switch level {
	case domain.RiskHigh, domain.RiskMediumHigh:
		return "high"
	case domain.RiskMedium:
		return "normal"
	default:
		return "low"
	}
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "No summary available"
	}
	r := []rune(s)
	if len(r) <= maxSummaryRunes {
		return s
	}
	return string(r[:maxSummaryRunes]) + "..."
}

type executor interface {
	Execute(w io.Writer, data any) error
}

func render(t executor, view notificationView) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, view); err != nil {
		// Templates are parsed at init and only read fields of view.
		panic(fmt.Sprintf("render notification: %v", err))
	}
	return buf.String()
}
