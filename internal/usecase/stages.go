package usecase

import (
	"context"
	"strings"

	"ComplianceReview/internal/domain"
	"ComplianceReview/internal/fallback"
	"ComplianceReview/internal/heuristic"
	"ComplianceReview/internal/ports"
	"ComplianceReview/internal/scoring"
)

// Capability names recorded in the resolution audit trail.
const (
	CapabilityExtraction   = "extraction"
	CapabilitySummary      = "summarization"
	CapabilitySearch       = "knowledge_search"
	CapabilityCompliance   = "compliance_analysis"
	CapabilityNotification = "notification"
)

const maxQueryChars = 500

func (p *Pipeline) extract(ctx context.Context, pc *domain.PipelineContext) error {
	path := pc.SourcePath()
	chain := make([]fallback.Channel[domain.ExtractionResult], 0, len(p.extractors))
	for _, ex := range p.extractors {
		ex := ex
		chain = append(chain, fallback.Channel[domain.ExtractionResult]{
			Name: ex.Name(),
			Call: func(ctx context.Context) (domain.ExtractionResult, error) { return ex.Process(ctx, path) },
		})
	}

	res, resolution, err := fallback.Resolve(ctx, p.resolver, CapabilityExtraction, chain)
	pc.AddResolution(resolution)
	if err != nil {
		return err
	}
	return pc.SetExtraction(res)
}

func (p *Pipeline) summarize(ctx context.Context, pc *domain.PipelineContext) error {
	ext := pc.Extraction()
	chain := make([]fallback.Channel[domain.SummaryResult], 0, len(p.summarizers))
	for _, s := range p.summarizers {
		s := s
		chain = append(chain, fallback.Channel[domain.SummaryResult]{
			Name: s.Name(),
			Call: func(ctx context.Context) (domain.SummaryResult, error) {
				return s.Summarize(ctx, ext.Text, ext.Metadata)
			},
		})
	}

	res, resolution, err := fallback.Resolve(ctx, p.resolver, CapabilitySummary, chain)
	pc.AddResolution(resolution)
	if err != nil {
		return err
	}
	res.KeyTopics = dedupe(res.KeyTopics)
	return pc.SetSummary(res)
}

// analyze retrieves knowledge-base context, runs the analyzer chain and turns
// its free text into a ComplianceResult.
func (p *Pipeline) analyze(ctx context.Context, pc *domain.PipelineContext) error {
	ext := pc.Extraction()
	sum := pc.Summary()

	knowledge, err := p.searchKnowledge(ctx, pc, *sum)
	if err != nil {
		return err
	}

	actx := ports.AnalysisContext{
		FileName:  ext.Metadata.FileName,
		Metadata:  ext.Metadata,
		Summary:   *sum,
		Knowledge: knowledge,
	}
	chain := make([]fallback.Channel[string], 0, len(p.analyzers))
	for _, a := range p.analyzers {
		a := a
		chain = append(chain, fallback.Channel[string]{
			Name: a.Name(),
			Call: func(ctx context.Context) (string, error) { return a.Analyze(ctx, ext.Text, actx) },
		})
	}

	raw, resolution, err := fallback.Resolve(ctx, p.resolver, CapabilityCompliance, chain)
	pc.AddResolution(resolution)
	if err != nil {
		return err
	}

	f := heuristic.Extract(raw)
	return pc.SetCompliance(domain.ComplianceResult{
		Status:                f.Status,
		ComplianceScore:       scoring.ComplianceScore(p.policy, f.Status, raw, len(f.ReferencedRegulations)),
		ConfidenceScore:       f.ConfidenceScore,
		ReferencedRegulations: f.ReferencedRegulations,
		RawAnalysisText:       raw,
		Method:                resolution.Channel,
	})
}

// searchKnowledge resolves the knowledge-base chain. An exhausted chain leaves
// the analysis without context rather than failing the stage; only
// cancellation is returned.
func (p *Pipeline) searchKnowledge(ctx context.Context, pc *domain.PipelineContext, sum domain.SummaryResult) ([]domain.KnowledgeDocument, error) {
	if len(p.indexes) == 0 {
		return nil, nil
	}

	query := knowledgeQuery(sum)
	chain := make([]fallback.Channel[[]domain.KnowledgeDocument], 0, len(p.indexes))
	for _, idx := range p.indexes {
		idx := idx
		chain = append(chain, fallback.Channel[[]domain.KnowledgeDocument]{
			Name: idx.Name(),
			Call: func(ctx context.Context) ([]domain.KnowledgeDocument, error) {
				return idx.Search(ctx, query, sum.KeyTopics, p.searchTop)
			},
		})
	}

	docs, resolution, err := fallback.Resolve(ctx, p.resolver, CapabilitySearch, chain)
	pc.AddResolution(resolution)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		p.log.Warnw("knowledge search unavailable, analyzing without regulations",
			"submission_id", pc.SubmissionID(),
			"error", err,
		)
		return nil, nil
	}
	return docs, nil
}

func knowledgeQuery(sum domain.SummaryResult) string {
	q := strings.TrimSpace(sum.ExecutiveSummary)
	if r := []rune(q); len(r) > maxQueryChars {
		q = string(r[:maxQueryChars])
	}
	return q
}

func (p *Pipeline) score(_ context.Context, pc *domain.PipelineContext) error {
	c, s, e := pc.Compliance(), pc.Summary(), pc.Extraction()
	risk := scoring.Assess(p.policy, *c, *s, *e, p.clock())
	return pc.SetRisk(risk, scoring.OverallStatus(risk.Level, c.Status))
}

// Skip reasons recorded on the notification stage.
const (
	ReasonDisabled    = "disabled"
	ReasonNotRequired = "not required"
)

func (p *Pipeline) notify(ctx context.Context, pc *domain.PipelineContext, opts Options) error {
	risk := pc.Risk()

	reason := ""
	switch {
	case !opts.Notify:
		reason = ReasonDisabled
	case !risk.RequiresNotification:
		reason = ReasonNotRequired
	}
	if reason != "" {
		pc.Skip(reason)
		return pc.SetNotification(domain.NotificationRecord{
			Status:    domain.DeliverySkipped,
			Timestamp: p.clock(),
			Reason:    reason,
		})
	}

	msg := Compose(*risk, *pc.Compliance(), *pc.Summary(), *pc.Extraction(), p.recipients, p.clock())
	msg.From = p.sender

	chain := make([]fallback.Channel[domain.NotificationRecord], 0, len(p.notifiers))
	for _, n := range p.notifiers {
		n := n
		chain = append(chain, fallback.Channel[domain.NotificationRecord]{
			Name: n.Name(),
			Call: func(ctx context.Context) (domain.NotificationRecord, error) { return n.Send(ctx, msg) },
		})
	}

	rec, resolution, err := fallback.Resolve(ctx, p.resolver, CapabilityNotification, chain)
	pc.AddResolution(resolution)
	if err != nil {
		return err
	}
	if rec.Channel == "" {
		rec.Channel = resolution.Channel
	}
	return pc.SetNotification(rec)
}

func dedupe(items []string) []string {
	if items == nil {
		return nil
	}
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		key := strings.ToLower(strings.TrimSpace(it))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(it))
	}
	return out
}
