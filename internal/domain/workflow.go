package domain

import (
	"sync"
	"time"

	"ComplianceReview/internal/errors"
)

// State enumerates pipeline milestones.
type State string

const (
	StatePending     State = "pending"
	StateExtracting  State = "extracting"
	StateSummarizing State = "summarizing"
	StateAnalyzing   State = "analyzing"
	StateScoring     State = "scoring"
	StateNotifying   State = "notifying"
	StateCompleted   State = "completed"
	StateFailed      State = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// stateOrder is the only legal forward path; failed is reachable from any
// non-terminal state.
var stateOrder = []State{
	StatePending,
	StateExtracting,
	StateSummarizing,
	StateAnalyzing,
	StateScoring,
	StateNotifying,
	StateCompleted,
}

func nextState(s State) State {
	for i, st := range stateOrder {
		if st == s && i+1 < len(stateOrder) {
			return stateOrder[i+1]
		}
	}
	return ""
}

// StageName identifies one of the five pipeline stages.
type StageName string

const (
	StageExtraction    StageName = "extraction"
	StageSummarization StageName = "summarization"
	StageCompliance    StageName = "compliance"
	StageRiskScoring   StageName = "risk_scoring"
	StageNotification  StageName = "notification"
)

// Stages lists the stages in execution order.
var Stages = []StageName{
	StageExtraction,
	StageSummarization,
	StageCompliance,
	StageRiskScoring,
	StageNotification,
}

// StageFor returns the state the pipeline is in while running stage.
func StageFor(state State) (StageName, bool) {
	switch state {
	case StateExtracting:
		return StageExtraction, true
	case StateSummarizing:
		return StageSummarization, true
	case StateAnalyzing:
		return StageCompliance, true
	case StateScoring:
		return StageRiskScoring, true
	case StateNotifying:
		return StageNotification, true
	}
	return "", false
}

// StageStatus is the status of a single stage.
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "running"
	StageCompleted StageStatus = "completed"
	StageSkipped   StageStatus = "skipped"
	StageFailed    StageStatus = "failed"
)

// StageRecord captures per-stage status and timing.
type StageRecord struct {
	Status      StageStatus `json:"status"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// OverallStatus is the reviewer-facing disposition of a completed run.
type OverallStatus string

const (
	ApprovedWithConditions OverallStatus = "approved_with_conditions"
	RequiresReview         OverallStatus = "requires_review"
	RequiresLegalReview    OverallStatus = "requires_legal_review"
)

// Errors raised by PipelineContext misuse. They indicate orchestrator bugs, not
// collaborator failures.
var (
	ErrResultSealed      = errors.New("stage result already written")
	ErrInvalidTransition = errors.New("invalid pipeline state transition")
)

// PipelineContext is the append-only accumulator of one submission. It is owned
// by a single run; the mutex only guards status reads from other goroutines.
type PipelineContext struct {
	mu    sync.RWMutex
	clock func() time.Time

	submissionID string
	sourcePath   string
	state        State
	stages       map[StageName]StageRecord
	failedStage  StageName
	err          string
	startedAt    time.Time
	completedAt  *time.Time

	extraction    *ExtractionResult
	summary       *SummaryResult
	compliance    *ComplianceResult
	risk          *RiskAssessment
	notification  *NotificationRecord
	overallStatus OverallStatus
	resolutions   []Resolution
}

// NewPipelineContext creates a pending context. clock may be nil.
func NewPipelineContext(submissionID, sourcePath string, clock func() time.Time) *PipelineContext {
	if clock == nil {
		clock = time.Now
	}
	stages := make(map[StageName]StageRecord, len(Stages))
	for _, s := range Stages {
		stages[s] = StageRecord{Status: StagePending}
	}
	return &PipelineContext{
		clock:        clock,
		submissionID: submissionID,
		sourcePath:   sourcePath,
		state:        StatePending,
		stages:       stages,
		startedAt:    clock(),
	}
}

// SubmissionID returns the submission identifier.
func (c *PipelineContext) SubmissionID() string { return c.submissionID }

// SourcePath returns the submitted document path.
func (c *PipelineContext) SourcePath() string { return c.sourcePath }

// State returns the current state.
func (c *PipelineContext) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Advance moves to the next state in the fixed order, closing the stage that
// was running and opening the next one.
func (c *PipelineContext) Advance() (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Terminal() {
		return c.state, errors.Wrapf(ErrInvalidTransition, "advance from %s", c.state)
	}

	now := c.clock()
	if stage, ok := StageFor(c.state); ok {
		rec := c.stages[stage]
		if rec.Status == StageRunning {
			rec.Status = StageCompleted
		}
		rec.CompletedAt = &now
		c.stages[stage] = rec
	}

	c.state = nextState(c.state)
	if stage, ok := StageFor(c.state); ok {
		c.stages[stage] = StageRecord{Status: StageRunning, StartedAt: &now}
	}
	if c.state == StateCompleted {
		c.completedAt = &now
	}
	return c.state, nil
}

// Skip marks the running stage as skipped with a reason.
func (c *PipelineContext) Skip(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if stage, ok := StageFor(c.state); ok {
		rec := c.stages[stage]
		rec.Status = StageSkipped
		rec.Error = reason
		c.stages[stage] = rec
	}
}

// Fail moves the context to failed, recording the stage that was running.
// Completed outputs are retained.
func (c *PipelineContext) Fail(cause error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Terminal() {
		return errors.Wrapf(ErrInvalidTransition, "fail from %s", c.state)
	}

	now := c.clock()
	if stage, ok := StageFor(c.state); ok {
		rec := c.stages[stage]
		rec.Status = StageFailed
		rec.CompletedAt = &now
		if cause != nil {
			rec.Error = cause.Error()
		}
		c.stages[stage] = rec
		c.failedStage = stage
	}
	if cause != nil {
		c.err = cause.Error()
	}
	c.state = StateFailed
	c.completedAt = &now
	return nil
}

// FailedStage returns the stage that was running when the context failed.
func (c *PipelineContext) FailedStage() StageName {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.failedStage
}

// SetExtraction writes the extraction result once.
func (c *PipelineContext) SetExtraction(r ExtractionResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.extraction != nil {
		return errors.Wrap(ErrResultSealed, string(StageExtraction))
	}
	c.extraction = &r
	return nil
}

// SetSummary writes the summary once.
func (c *PipelineContext) SetSummary(r SummaryResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.summary != nil {
		return errors.Wrap(ErrResultSealed, string(StageSummarization))
	}
	c.summary = &r
	return nil
}

// SetCompliance writes the compliance result once.
func (c *PipelineContext) SetCompliance(r ComplianceResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.compliance != nil {
		return errors.Wrap(ErrResultSealed, string(StageCompliance))
	}
	c.compliance = &r
	return nil
}

// SetRisk writes the risk assessment and derived overall status once.
func (c *PipelineContext) SetRisk(r RiskAssessment, overall OverallStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.risk != nil {
		return errors.Wrap(ErrResultSealed, string(StageRiskScoring))
	}
	c.risk = &r
	c.overallStatus = overall
	return nil
}

// SetNotification writes the notification record once.
func (c *PipelineContext) SetNotification(r NotificationRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.notification != nil {
		return errors.Wrap(ErrResultSealed, string(StageNotification))
	}
	c.notification = &r
	return nil
}

// AddResolution appends a fallback audit entry.
func (c *PipelineContext) AddResolution(r Resolution) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolutions = append(c.resolutions, r)
}

// Extraction returns a copy of the extraction result, or nil before it ran.
func (c *PipelineContext) Extraction() *ExtractionResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clonePtr(c.extraction, ExtractionResult.Clone)
}

// Summary returns a copy of the summary, or nil before it ran.
func (c *PipelineContext) Summary() *SummaryResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clonePtr(c.summary, SummaryResult.Clone)
}

// Compliance returns a copy of the compliance result, or nil before it ran.
func (c *PipelineContext) Compliance() *ComplianceResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clonePtr(c.compliance, ComplianceResult.Clone)
}

// Risk returns a copy of the risk assessment, or nil before it ran.
func (c *PipelineContext) Risk() *RiskAssessment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clonePtr(c.risk, RiskAssessment.Clone)
}

// Snapshot renders the context as a serializable WorkflowResult.
func (c *PipelineContext) Snapshot() WorkflowResult {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stages := make(map[StageName]StageRecord, len(c.stages))
	for k, v := range c.stages {
		stages[k] = v.clone()
	}
	var resolutions []Resolution
	for _, r := range c.resolutions {
		resolutions = append(resolutions, r.Clone())
	}

	res := WorkflowResult{
		SubmissionID: c.submissionID,
		SourcePath:   c.sourcePath,
		State:        c.state,
		FailedStage:  c.failedStage,
		Error:        c.err,
		Stages:       stages,
		Extraction:   clonePtr(c.extraction, ExtractionResult.Clone),
		Summary:      clonePtr(c.summary, SummaryResult.Clone),
		Compliance:   clonePtr(c.compliance, ComplianceResult.Clone),
		Risk:         clonePtr(c.risk, RiskAssessment.Clone),
		Notification: clonePtr(c.notification, func(n NotificationRecord) NotificationRecord { return n }),
		Resolutions:  resolutions,
		StartedAt:    c.startedAt,
		CompletedAt:  cloneTime(c.completedAt),
	}
	if c.state == StateCompleted {
		res.OverallStatus = c.overallStatus
	}
	if c.notification != nil && c.notification.Status != DeliverySkipped {
		res.NotificationSent = true
	}
	return res
}

// WorkflowResult is the serializable record of one pipeline run.
type WorkflowResult struct {
	SubmissionID     string                    `json:"submission_id"`
	SourcePath       string                    `json:"source_path"`
	State            State                     `json:"state"`
	OverallStatus    OverallStatus             `json:"overall_status,omitempty"`
	FailedStage      StageName                 `json:"failed_stage,omitempty"`
	Error            string                    `json:"error,omitempty"`
	Stages           map[StageName]StageRecord `json:"stages"`
	Extraction       *ExtractionResult         `json:"extraction,omitempty"`
	Summary          *SummaryResult            `json:"summary,omitempty"`
	Compliance       *ComplianceResult         `json:"compliance,omitempty"`
	Risk             *RiskAssessment           `json:"risk,omitempty"`
	Notification     *NotificationRecord       `json:"notification,omitempty"`
	NotificationSent bool                      `json:"notification_sent"`
	Resolutions      []Resolution              `json:"resolutions,omitempty"`
	StartedAt        time.Time                 `json:"started_at"`
	CompletedAt      *time.Time                `json:"completed_at,omitempty"`
}
