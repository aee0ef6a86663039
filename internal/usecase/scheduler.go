package usecase

import (
	"context"

	"go.uber.org/zap"

	"ComplianceReview/internal/logging"
	"ComplianceReview/internal/ports"
)

// Scheduler feeds documents reported by the inbox watcher into the pipeline.
// Documents whose content digest is already in the audit trail are skipped.
type Scheduler struct {
	driver     ports.Watcher
	pipeline   *Pipeline
	repository ports.AuditRepository
	opts       Options
	log        *zap.SugaredLogger
}

// NewScheduler returns a helper to start/stop the inbox daemon.
func NewScheduler(driver ports.Watcher, pipeline *Pipeline, repository ports.AuditRepository, opts Options, log *zap.SugaredLogger) *Scheduler {
	if log == nil {
		log = logging.Nop()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, repository: repository, opts: opts, log: log}
}

// Start registers the pipeline with the provided watcher.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(path string) {
		s.Process(ctx, path)
	}

	return s.driver.Start(ctx, job)
}

// Process reviews one document unless it was reviewed before. It reports
// whether the pipeline ran.
func (s *Scheduler) Process(ctx context.Context, path string) bool {
	digest, err := FileDigest(path)
	if err != nil {
		s.log.Warnw("cannot fingerprint document", "path", path, "error", err)
		return false
	}

	if s.repository != nil {
		seen, err := s.repository.AlreadyProcessed(ctx, []string{digest})
		if err != nil {
			s.log.Warnw("cannot check audit trail, reviewing anyway", "path", path, "error", err)
		} else if seen[digest] {
			s.log.Infow("document already reviewed, skipping", "path", path, "digest", digest)
			return false
		}
	}

	res, err := s.pipeline.Submit(ctx, path, s.opts)
	if err != nil {
		s.log.Errorw("review failed", "path", path, "error", err)
		return true
	}
	s.log.Infow("review finished",
		"path", path,
		"submission_id", res.SubmissionID,
		"overall_status", res.OverallStatus,
		"notified", res.NotificationSent,
	)
	return true
}

// Stop gracefully tears down the underlying watcher.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
