package app

import (
	"context"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"ComplianceReview/internal/config"
	"ComplianceReview/internal/domain"
	"ComplianceReview/internal/errors"
	"ComplianceReview/internal/fallback"
	"ComplianceReview/internal/infrastructure/docintel"
	"ComplianceReview/internal/infrastructure/knowledge"
	"ComplianceReview/internal/infrastructure/llm"
	"ComplianceReview/internal/infrastructure/local"
	"ComplianceReview/internal/infrastructure/notify"
	"ComplianceReview/internal/infrastructure/parser"
	"ComplianceReview/internal/infrastructure/scheduler"
	"ComplianceReview/internal/infrastructure/storage"
	"ComplianceReview/internal/infrastructure/telegram"
	"ComplianceReview/internal/logging"
	"ComplianceReview/internal/ports"
	"ComplianceReview/internal/registry"
	"ComplianceReview/internal/usecase"
)

const logChannel = "log"

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	log        *zap.SugaredLogger
	pipeline   *usecase.Pipeline
	scheduler  *usecase.Scheduler
	repository *storage.Repository
	indexes    []ports.SearchIndex
}

// New builds the application: every capability gets its remote channel first
// and its local fallback last.
func New(ctx context.Context, cfg config.Config, baseLogger *zap.SugaredLogger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.JSON)
	}

	repo, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, errors.Wrap(err, "open audit storage")
	}

	corpus, err := knowledge.LoadCorpus(cfg.Knowledge.Dir, baseLogger.With("component", "knowledge.corpus"))
	if err != nil {
		_ = repo.Close()
		return nil, errors.Wrap(err, "load knowledge base")
	}

	notifiers, err := notificationChain(cfg, baseLogger)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	gen := llm.NewChatGPTClient(cfg.LLM)
	indexes := []ports.SearchIndex{knowledge.NewRemoteIndex(cfg.Search), corpus}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Extractors: []ports.Extractor{
			docintel.NewClient(cfg.Extraction, baseLogger.With("component", "extraction.docintel")),
			parser.NewLocalExtractor(baseLogger.With("component", "extraction.local")),
		},
		Summarizers: []ports.Summarizer{llm.NewSummarizer(gen), local.Summarizer{}},
		Indexes:     indexes,
		Analyzers:   []ports.ComplianceAnalyzer{llm.NewAnalyzer(gen), local.Analyzer{}},
		Notifiers:   notifiers,
		Repository:  repo,
		Resolver: fallback.NewResolver(fallback.Policy{
			MaxAttempts: cfg.Pipeline.MaxAttempts,
			Backoff:     cfg.Pipeline.Backoff,
		}, baseLogger.With("component", "resolver")),
		Policy:     cfg.Scoring,
		Recipients: cfg.Notifications.Recipients,
		Sender:     cfg.Notifications.Sender,
		SearchTop:  cfg.Search.Top,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	watcher := scheduler.NewInboxWatcher(cfg.Watcher, baseLogger.With("component", "watcher"))
	sched := usecase.NewScheduler(watcher, pipeline, repo,
		usecase.Options{Notify: cfg.Pipeline.Notify},
		baseLogger.With("component", "scheduler"),
	)

	return &Application{
		cfg:        cfg,
		log:        baseLogger,
		pipeline:   pipeline,
		scheduler:  sched,
		repository: repo,
		indexes:    indexes,
	}, nil
}

// notificationChain orders the delivery channels as configured. The log sink
// is always last, wherever the config lists it, so a run never fails for lack
// of a mail relay and never stops before a configured relay.
func notificationChain(cfg config.Config, log *zap.SugaredLogger) ([]ports.NotificationChannel, error) {
	n := cfg.Notifications
	reg := registry.New[ports.NotificationChannel](
		notify.NewGraphMailer(n.Graph, n.Sender),
		notify.NewSMTPMailer(n.SMTP, n.Sender),
		telegram.NewNotifier(n.Telegram),
		notify.NewLogSink(log.With("component", "notify.log")),
	)

	names := make([]string, 0, len(n.Channels)+1)
	for _, name := range n.Channels {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == logChannel {
			continue
		}
		names = append(names, name)
	}
	names = append(names, logChannel)

	chain, err := reg.Chain(names)
	if err != nil {
		return nil, errors.Wrap(err, "notification channels")
	}
	return chain, nil
}

// Submit reviews one document.
func (a *Application) Submit(ctx context.Context, path string, notifyReviewers bool) (*domain.WorkflowResult, error) {
	return a.pipeline.Submit(ctx, path, usecase.Options{Notify: notifyReviewers})
}

// Watch runs the inbox daemon until ctx is canceled.
func (a *Application) Watch(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return errors.Wrap(err, "start inbox watcher")
	}
	a.log.Infow("watching inbox", "dir", a.cfg.Watcher.Inbox, "extensions", a.cfg.Watcher.Extensions)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	return a.scheduler.Stop(stopCtx)
}

// SearchKnowledge queries the regulation knowledge base the same way the
// compliance stage does.
func (a *Application) SearchKnowledge(ctx context.Context, query string, top int) ([]domain.KnowledgeDocument, domain.Resolution, error) {
	if top <= 0 {
		top = a.cfg.Search.Top
	}
	topics := strings.Fields(query)

	chain := make([]fallback.Channel[[]domain.KnowledgeDocument], 0, len(a.indexes))
	for _, idx := range a.indexes {
		idx := idx
		chain = append(chain, fallback.Channel[[]domain.KnowledgeDocument]{
			Name: idx.Name(),
			Call: func(ctx context.Context) ([]domain.KnowledgeDocument, error) {
				return idx.Search(ctx, query, topics, top)
			},
		})
	}
	resolver := fallback.NewResolver(fallback.Policy{
		MaxAttempts: a.cfg.Pipeline.MaxAttempts,
		Backoff:     a.cfg.Pipeline.Backoff,
	}, a.log.With("component", "resolver"))
	return fallback.Resolve(ctx, resolver, usecase.CapabilitySearch, chain)
}

// Show loads the audit record of a document. key is either a path to the
// document or its content digest.
func (a *Application) Show(ctx context.Context, key string) (domain.WorkflowResult, error) {
	if info, err := os.Stat(key); err == nil && !info.IsDir() {
		digest, err := usecase.FileDigest(key)
		if err != nil {
			return domain.WorkflowResult{}, err
		}
		key = digest
	}
	return a.repository.Load(ctx, key)
}

// Close releases the audit database.
func (a *Application) Close() error {
	_ = a.log.Sync()
	return a.repository.Close()
}
