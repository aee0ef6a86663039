package domain

import (
	"slices"
	"time"
)

// Clone returns a copy that shares no slices with r.
func (r ExtractionResult) Clone() ExtractionResult {
	if r.Tables != nil {
		tables := make([]Table, len(r.Tables))
		for i, t := range r.Tables {
			t.Cells = slices.Clone(t.Cells)
			tables[i] = t
		}
		r.Tables = tables
	}
	r.KeyValuePairs = slices.Clone(r.KeyValuePairs)
	return r
}

// Clone returns a copy that shares no slices with r.
func (r SummaryResult) Clone() SummaryResult {
	r.KeyClauses = slices.Clone(r.KeyClauses)
	r.KeyTopics = slices.Clone(r.KeyTopics)
	return r
}

// Clone returns a copy that shares no slices with r.
func (r ComplianceResult) Clone() ComplianceResult {
	if r.ReferencedRegulations != nil {
		regs := make([]Regulation, len(r.ReferencedRegulations))
		for i, reg := range r.ReferencedRegulations {
			reg.KeyRequirements = slices.Clone(reg.KeyRequirements)
			regs[i] = reg
		}
		r.ReferencedRegulations = regs
	}
	return r
}

// Clone returns a copy that shares no slices with r.
func (r RiskAssessment) Clone() RiskAssessment {
	r.Factors = slices.Clone(r.Factors)
	r.Recommendations = slices.Clone(r.Recommendations)
	return r
}

// Clone returns a copy that shares no slices with r.
func (r Resolution) Clone() Resolution {
	r.Attempts = slices.Clone(r.Attempts)
	return r
}

func clonePtr[T any](v *T, clone func(T) T) *T {
	if v == nil {
		return nil
	}
	c := clone(*v)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func (r StageRecord) clone() StageRecord {
	r.StartedAt = cloneTime(r.StartedAt)
	r.CompletedAt = cloneTime(r.CompletedAt)
	return r
}
