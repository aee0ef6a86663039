package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ComplianceReview/internal/domain"
	"ComplianceReview/internal/errors"
	"ComplianceReview/internal/fallback"
	"ComplianceReview/internal/logging"
	"ComplianceReview/internal/ports"
	"ComplianceReview/internal/scoring"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
// Every channel list is ordered by preference.
type PipelineDeps struct {
	Extractors  []ports.Extractor
	Summarizers []ports.Summarizer
	Indexes     []ports.SearchIndex
	Analyzers   []ports.ComplianceAnalyzer
	Notifiers   []ports.NotificationChannel
	Repository  ports.AuditRepository

	Resolver   *fallback.Resolver
	Policy     scoring.Policy
	Recipients []string
	Sender     string
	SearchTop  int

	Logger *zap.SugaredLogger
	Clock  func() time.Time
}

// Pipeline implements the five-stage review workflow.
type Pipeline struct {
	extractors  []ports.Extractor
	summarizers []ports.Summarizer
	indexes     []ports.SearchIndex
	analyzers   []ports.ComplianceAnalyzer
	notifiers   []ports.NotificationChannel
	repository  ports.AuditRepository

	resolver   *fallback.Resolver
	policy     scoring.Policy
	recipients []string
	sender     string
	searchTop  int

	log   *zap.SugaredLogger
	clock func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		extractors:  deps.Extractors,
		summarizers: deps.Summarizers,
		indexes:     deps.Indexes,
		analyzers:   deps.Analyzers,
		notifiers:   deps.Notifiers,
		repository:  deps.Repository,
		resolver:    deps.Resolver,
		policy:      deps.Policy,
		recipients:  deps.Recipients,
		sender:      deps.Sender,
		searchTop:   deps.SearchTop,
		log:         deps.Logger,
		clock:       deps.Clock,
	}
	if p.log == nil {
		p.log = logging.Nop()
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	if p.resolver == nil {
		p.resolver = fallback.NewResolver(fallback.DefaultPolicy(), p.log)
	}
	if p.policy.Weights == (scoring.Weights{}) {
		p.policy = scoring.DefaultPolicy()
	}
	if p.searchTop <= 0 {
		p.searchTop = 5
	}
	return p
}

// Options tune a single submission.
type Options struct {
	// Notify enables the notification stage. When false the stage is recorded
	// as skipped.
	Notify bool
}

// Run is a submission in flight.
type Run struct {
	pc     *domain.PipelineContext
	cancel context.CancelFunc
	done   chan struct{}

	result *domain.WorkflowResult
	err    error
}

// SubmissionID identifies the run.
func (r *Run) SubmissionID() string { return r.pc.SubmissionID() }

// State returns the current pipeline state.
func (r *Run) State() domain.State { return r.pc.State() }

// Done is closed when the run reaches a terminal state.
func (r *Run) Done() <-chan struct{} { return r.done }

// Cancel aborts the run at its next external call.
func (r *Run) Cancel() { r.cancel() }

// Wait blocks until the run finishes. The result is returned even when the
// run failed; it then holds every output completed before the failure.
func (r *Run) Wait() (*domain.WorkflowResult, error) {
	<-r.done
	return r.result, r.err
}

// Submit runs a submission to completion.
func (p *Pipeline) Submit(ctx context.Context, path string, opts Options) (*domain.WorkflowResult, error) {
	return p.Start(ctx, path, opts).Wait()
}

// Start launches a submission on its own goroutine.
func (p *Pipeline) Start(ctx context.Context, path string, opts Options) *Run {
	ctx, cancel := context.WithCancel(ctx)
	run := &Run{
		pc:     domain.NewPipelineContext(uuid.NewString(), path, p.clock),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(run.done)
		defer cancel()
		run.result, run.err = p.execute(ctx, run.pc, opts)
	}()
	return run
}

type stageFunc func(ctx context.Context, pc *domain.PipelineContext) error

func (p *Pipeline) execute(ctx context.Context, pc *domain.PipelineContext, opts Options) (*domain.WorkflowResult, error) {
	log := p.log.With("submission_id", pc.SubmissionID(), "path", pc.SourcePath())
	log.Infow("submission started")

	stages := []stageFunc{
		p.extract,
		p.summarize,
		p.analyze,
		p.score,
		func(ctx context.Context, pc *domain.PipelineContext) error { return p.notify(ctx, pc, opts) },
	}

	for _, run := range stages {
		state, err := pc.Advance()
		if err != nil {
			return p.finish(ctx, log, pc, err)
		}
		stage, _ := domain.StageFor(state)
		log.Debugw("stage started", "stage", stage)

		if err := run(ctx, pc); err != nil {
			stageErr := errors.Unrecoverable(string(stage), err)
			if failErr := pc.Fail(stageErr); failErr != nil {
				log.Errorw("cannot mark run failed", "error", failErr)
			}
			log.Errorw("stage failed", "stage", stage, "error", err)
			return p.finish(ctx, log, pc, stageErr)
		}
	}

	if _, err := pc.Advance(); err != nil {
		return p.finish(ctx, log, pc, err)
	}
	return p.finish(ctx, log, pc, nil)
}

// finish snapshots the context and writes the audit record. Audit failures
// are logged only.
func (p *Pipeline) finish(ctx context.Context, log *zap.SugaredLogger, pc *domain.PipelineContext, runErr error) (*domain.WorkflowResult, error) {
	res := pc.Snapshot()

	if p.repository != nil {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := p.repository.Save(saveCtx, auditKey(pc), res); err != nil {
			log.Warnw("audit save failed", "error", err)
		}
	}

	if runErr != nil {
		return &res, runErr
	}
	fields := []any{"overall_status", res.OverallStatus}
	if res.Risk != nil {
		fields = append(fields, "score", res.Risk.OverallScore, "level", res.Risk.Level)
	}
	log.Infow("submission completed", fields...)
	return &res, nil
}

// auditKey prefers the content digest so re-submissions of the same document
// overwrite one record; unreadable files fall back to the submission id.
func auditKey(pc *domain.PipelineContext) string {
	if d, err := FileDigest(pc.SourcePath()); err == nil {
		return d
	}
	return pc.SubmissionID()
}

// FileDigest returns the hex SHA-256 of the file at path.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "read %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Summary renders a human-readable report of a workflow result.
func Summary(res *domain.WorkflowResult) string {
	if res == nil {
		return ""
	}

	var b strings.Builder
	line := strings.Repeat("=", 40)

	if res.State != domain.StateCompleted {
		fmt.Fprintf(&b, "Workflow Status: %s\n", res.State)
		if res.FailedStage != "" {
			fmt.Fprintf(&b, "Failed Stage: %s\n", res.FailedStage)
		}
		if res.Error != "" {
			fmt.Fprintf(&b, "Error: %s\n", res.Error)
		}
		return b.String()
	}

	fmt.Fprintf(&b, "%s\nGRANT PROPOSAL COMPLIANCE SUMMARY\n%s\n\n", line, line)
	if e := res.Extraction; e != nil {
		fmt.Fprintf(&b, "Document: %s\nWord Count: %d\nPage Count: %d\nExtraction: %s\n\n",
			e.Metadata.FileName, e.WordCount, e.PageCount, e.Method)
	}
	if r := res.Risk; r != nil {
		fmt.Fprintf(&b, "RISK ASSESSMENT\n---------------\nOverall Score: %.1f%%\nRisk Level: %s\nConfidence: %.1f%%\n\n",
			r.OverallScore, strings.ToUpper(string(r.Level)), r.Confidence)
	}
	if c := res.Compliance; c != nil {
		fmt.Fprintf(&b, "COMPLIANCE STATUS\n-----------------\nCompliance Score: %.1f%%\nStatus: %s\nRelevant EOs: %d\nAnalysis: %s\n\n",
			c.ComplianceScore, humanize(string(c.Status)), len(c.ReferencedRegulations), c.Method)
	}
	fmt.Fprintf(&b, "OVERALL STATUS\n--------------\n%s\n\n", humanize(string(res.OverallStatus)))

	b.WriteString("NOTIFICATION\n------------\n")
	switch n := res.Notification; {
	case n == nil:
		b.WriteString("Not attempted\n")
	case n.Status == domain.DeliverySkipped:
		fmt.Fprintf(&b, "Skipped (%s)\n", n.Reason)
	default:
		fmt.Fprintf(&b, "%s via %s (%s)\n", strings.ToUpper(string(n.Status)), n.Channel, n.MessageID)
	}
	b.WriteString(line + "\n")
	return b.String()
}

func humanize(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, "_", " "))
}
