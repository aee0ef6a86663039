package domain

import "time"

// ComplianceStatus is the tri-state outcome of compliance analysis.
type ComplianceStatus string

const (
	StatusCompliant      ComplianceStatus = "compliant"
	StatusNonCompliant   ComplianceStatus = "non_compliant"
	StatusRequiresReview ComplianceStatus = "requires_review"
)

// Regulation is a regulation referenced by the analysis text.
type Regulation struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Title           string   `json:"title"`
	KeyRequirements []string `json:"key_requirements"`
}

// ComplianceResult is the structured outcome of the compliance stage.
type ComplianceResult struct {
	Status                ComplianceStatus `json:"status"`
	ComplianceScore       float64          `json:"compliance_score"`
	ConfidenceScore       int              `json:"confidence_score"`
	ReferencedRegulations []Regulation     `json:"referenced_regulations"`
	RawAnalysisText       string           `json:"raw_analysis_text"`
	Method                string           `json:"method"`
}

// RiskLevel partitions [0,100].
type RiskLevel string

const (
	RiskLow        RiskLevel = "low"
	RiskMedium     RiskLevel = "medium"
	RiskMediumHigh RiskLevel = "medium-high"
	RiskHigh       RiskLevel = "high"
)

// Severity of a single risk factor or priority of a recommendation.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
)

// SubScores are the weighted components of the composite score.
type SubScores struct {
	Compliance   float64 `json:"compliance"`
	Quality      float64 `json:"quality"`
	Completeness float64 `json:"completeness"`
}

// RiskFactor explains one deduction.
type RiskFactor struct {
	Name        string   `json:"name"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

// Recommendation is a reviewer action derived from the assessment.
type Recommendation struct {
	Priority    Severity `json:"priority"`
	Action      string   `json:"action"`
	Description string   `json:"description"`
}

// Thresholds records the level cut-offs in effect when the score was computed.
type Thresholds struct {
	Low        float64 `json:"low" yaml:"low" toml:"low"`
	Medium     float64 `json:"medium" yaml:"medium" toml:"medium"`
	MediumHigh float64 `json:"medium_high" yaml:"mediumHigh" toml:"mediumHigh"`
}

// RiskAssessment is the composite output of the scoring stage. Higher is safer.
type RiskAssessment struct {
	OverallScore         float64          `json:"overall_score"`
	Level                RiskLevel        `json:"level"`
	SubScores            SubScores        `json:"sub_scores"`
	Factors              []RiskFactor     `json:"factors"`
	Recommendations      []Recommendation `json:"recommendations"`
	RequiresNotification bool             `json:"requires_notification"`
	Confidence           float64          `json:"confidence"`
	Thresholds           Thresholds       `json:"thresholds"`
	CalculatedAt         time.Time        `json:"calculated_at"`
}

// DeliveryStatus of a notification.
type DeliveryStatus string

const (
	DeliverySent      DeliveryStatus = "sent"
	DeliverySimulated DeliveryStatus = "simulated"
	DeliverySkipped   DeliveryStatus = "skipped"
)

// NotificationRecord is the audit record of the notification stage.
type NotificationRecord struct {
	Channel   string         `json:"channel"`
	Status    DeliveryStatus `json:"status"`
	MessageID string         `json:"message_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Reason    string         `json:"reason,omitempty"`
}
