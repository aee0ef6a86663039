package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ComplianceReview/internal/errors"
)

func fixedClock() func() time.Time {
	t0 := time.Date(2025, time.November, 8, 9, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return t0.Add(time.Duration(n) * time.Second)
	}
}

func TestAdvanceFollowsFixedOrder(t *testing.T) {
	pc := NewPipelineContext("sub-1", "proposal.txt", fixedClock())
	require.Equal(t, StatePending, pc.State())

	want := []State{StateExtracting, StateSummarizing, StateAnalyzing, StateScoring, StateNotifying, StateCompleted}
	for _, w := range want {
		got, err := pc.Advance()
		require.NoError(t, err)
		assert.Equal(t, w, got)
	}

	_, err := pc.Advance()
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	snap := pc.Snapshot()
	for _, stage := range Stages {
		assert.Equal(t, StageCompleted, snap.Stages[stage].Status, stage)
		assert.NotNil(t, snap.Stages[stage].StartedAt, stage)
		assert.NotNil(t, snap.Stages[stage].CompletedAt, stage)
	}
	assert.NotNil(t, snap.CompletedAt)
}

func TestFailRetainsCompletedOutputs(t *testing.T) {
	pc := NewPipelineContext("sub-2", "proposal.txt", fixedClock())
	_, _ = pc.Advance()
	require.NoError(t, pc.SetExtraction(ExtractionResult{Text: "hello", WordCount: 1}))
	_, _ = pc.Advance()

	require.NoError(t, pc.Fail(errors.New("summarizer chain exhausted")))
	assert.Equal(t, StateFailed, pc.State())
	assert.Equal(t, StageSummarization, pc.FailedStage())

	snap := pc.Snapshot()
	require.NotNil(t, snap.Extraction)
	assert.Equal(t, "hello", snap.Extraction.Text)
	assert.Equal(t, StageCompleted, snap.Stages[StageExtraction].Status)
	assert.Equal(t, StageFailed, snap.Stages[StageSummarization].Status)
	assert.Equal(t, StagePending, snap.Stages[StageCompliance].Status)
	assert.Empty(t, snap.OverallStatus)
	assert.Contains(t, snap.Error, "summarizer")

	assert.True(t, errors.Is(pc.Fail(nil), ErrInvalidTransition))
	_, err := pc.Advance()
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestResultsAreWriteOnce(t *testing.T) {
	pc := NewPipelineContext("sub-3", "proposal.txt", nil)

	require.NoError(t, pc.SetSummary(SummaryResult{ExecutiveSummary: "first"}))
	err := pc.SetSummary(SummaryResult{ExecutiveSummary: "second"})
	assert.True(t, errors.Is(err, ErrResultSealed))
	assert.Equal(t, "first", pc.Summary().ExecutiveSummary)

	// Callers get copies; mutating them never reaches the context.
	s := pc.Summary()
	s.ExecutiveSummary = "mutated"
	assert.Equal(t, "first", pc.Summary().ExecutiveSummary)

	require.NoError(t, pc.SetRisk(RiskAssessment{OverallScore: 90}, ApprovedWithConditions))
	assert.True(t, errors.Is(pc.SetRisk(RiskAssessment{}, RequiresReview), ErrResultSealed))
	require.NoError(t, pc.SetNotification(NotificationRecord{Status: DeliverySkipped}))
	assert.True(t, errors.Is(pc.SetNotification(NotificationRecord{}), ErrResultSealed))
	require.NoError(t, pc.SetCompliance(ComplianceResult{}))
	assert.True(t, errors.Is(pc.SetCompliance(ComplianceResult{}), ErrResultSealed))
	require.NoError(t, pc.SetExtraction(ExtractionResult{}))
	assert.True(t, errors.Is(pc.SetExtraction(ExtractionResult{}), ErrResultSealed))
}

func TestSkipMarksRunningStage(t *testing.T) {
	pc := NewPipelineContext("sub-4", "proposal.txt", fixedClock())
	for pc.State() != StateNotifying {
		_, err := pc.Advance()
		require.NoError(t, err)
	}
	pc.Skip("not required")
	_, err := pc.Advance()
	require.NoError(t, err)

	snap := pc.Snapshot()
	assert.Equal(t, StageSkipped, snap.Stages[StageNotification].Status)
	assert.Equal(t, "not required", snap.Stages[StageNotification].Error)
}

func TestSnapshotIsDetachedFromContext(t *testing.T) {
	pc := NewPipelineContext("sub-5", "proposal.txt", fixedClock())
	_, _ = pc.Advance()
	require.NoError(t, pc.SetExtraction(ExtractionResult{
		Text:          "hello",
		Tables:        []Table{{RowCount: 1, Cells: []TableCell{{Content: "Staff"}}}},
		KeyValuePairs: []KeyValue{{Key: "Budget", Value: "$10"}},
	}))
	_, _ = pc.Advance()
	require.NoError(t, pc.SetSummary(SummaryResult{KeyTopics: []string{"equity"}, KeyClauses: []string{"budget"}}))
	_, _ = pc.Advance()
	require.NoError(t, pc.SetCompliance(ComplianceResult{
		Status:                StatusRequiresReview,
		ReferencedRegulations: []Regulation{{ID: "14173", KeyRequirements: []string{"certify"}}},
	}))
	_, _ = pc.Advance()
	require.NoError(t, pc.SetRisk(RiskAssessment{Factors: []RiskFactor{{Name: "Limited Content"}}}, RequiresReview))
	pc.AddResolution(Resolution{Capability: "extraction", Attempts: []Attempt{{Channel: "local_parser", Attempt: 1}}})

	snap := pc.Snapshot()
	snap.Extraction.Text = "changed"
	snap.Extraction.Tables[0].Cells[0].Content = "changed"
	snap.Extraction.KeyValuePairs[0].Value = "changed"
	snap.Summary.KeyTopics[0] = "changed"
	snap.Compliance.ReferencedRegulations[0].KeyRequirements[0] = "changed"
	snap.Risk.Factors[0].Name = "changed"
	snap.Resolutions[0].Attempts[0].Channel = "changed"
	*snap.Stages[StageExtraction].StartedAt = time.Time{}

	got := pc.Extraction()
	got.KeyValuePairs[0].Key = "changed"
	pc.Summary().KeyClauses[0] = "changed"

	again := pc.Snapshot()
	assert.Equal(t, "hello", again.Extraction.Text)
	assert.Equal(t, "Staff", again.Extraction.Tables[0].Cells[0].Content)
	assert.Equal(t, KeyValue{Key: "Budget", Value: "$10"}, again.Extraction.KeyValuePairs[0])
	assert.Equal(t, []string{"equity"}, again.Summary.KeyTopics)
	assert.Equal(t, []string{"budget"}, again.Summary.KeyClauses)
	assert.Equal(t, []string{"certify"}, again.Compliance.ReferencedRegulations[0].KeyRequirements)
	assert.Equal(t, "Limited Content", again.Risk.Factors[0].Name)
	assert.Equal(t, "local_parser", again.Resolutions[0].Attempts[0].Channel)
	assert.False(t, again.Stages[StageExtraction].StartedAt.IsZero())
}

func TestWorkflowResultRoundTrip(t *testing.T) {
	pc := NewPipelineContext("sub-5", "proposal.txt", fixedClock())
	for pc.State() != StateScoring {
		_, _ = pc.Advance()
	}
	require.NoError(t, pc.SetRisk(RiskAssessment{
		OverallScore: 52.6,
		Level:        RiskHigh,
		SubScores:    SubScores{Compliance: 21, Quality: 100, Completeness: 100},
	}, RequiresLegalReview))
	pc.AddResolution(Resolution{Capability: "notification", Channel: "log", Attempts: []Attempt{{Channel: "graph", Attempt: 1, Class: "transient"}}})
	_, _ = pc.Advance()
	_, _ = pc.Advance()

	original := pc.Snapshot()
	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded WorkflowResult
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, original.Risk.SubScores, decoded.Risk.SubScores)
	assert.Equal(t, original.State, decoded.State)
	assert.Equal(t, original.OverallStatus, decoded.OverallStatus)
	require.Len(t, decoded.Stages, len(original.Stages))
	for stage, rec := range original.Stages {
		assert.Equal(t, rec.Status, decoded.Stages[stage].Status, stage)
	}
	assert.Equal(t, original.Resolutions, decoded.Resolutions)
}

func TestKnowledgeDocumentName(t *testing.T) {
	assert.Equal(t, "14151: Ending Radical Programs", KnowledgeDocument{Number: "14151", Title: "Ending Radical Programs"}.Name())
	assert.Equal(t, "EO 14173", KnowledgeDocument{Number: "14173"}.Name())
}
