package ports

import (
	"context"

	"ComplianceReview/internal/domain"
)

// Channel is implemented by every collaborator that can sit in a fallback chain.
// Name is recorded in the audit trail.
type Channel interface {
	Name() string
}

// Extractor turns a submitted file into text and layout metadata.
// Fails with errors.ErrNotFound, errors.ErrUnsupportedFormat or a service error.
type Extractor interface {
	Channel
	Process(ctx context.Context, path string) (domain.ExtractionResult, error)
}

// Summarizer produces the executive summary, key clauses and topics.
type Summarizer interface {
	Channel
	Summarize(ctx context.Context, text string, meta domain.DocumentMetadata) (domain.SummaryResult, error)
}

// AnalysisContext is what the compliance analyzer may use beyond the raw text.
type AnalysisContext struct {
	FileName  string
	Metadata  domain.DocumentMetadata
	Summary   domain.SummaryResult
	Knowledge []domain.KnowledgeDocument
}

// ComplianceAnalyzer returns free-text analysis of a document against the
// regulations in AnalysisContext.Knowledge.
type ComplianceAnalyzer interface {
	Channel
	Analyze(ctx context.Context, text string, actx AnalysisContext) (string, error)
}

// SearchIndex queries a regulation knowledge base.
type SearchIndex interface {
	Channel
	Search(ctx context.Context, query string, topics []string, top int) ([]domain.KnowledgeDocument, error)
}

// Message is a rendered notification ready for delivery.
type Message struct {
	To       []string
	From     string
	Subject  string
	HTMLBody string
	TextBody string
	Priority string
	Document string
}

// NotificationChannel delivers a rendered message. Fails with configuration,
// transient or permission errors.
type NotificationChannel interface {
	Channel
	Send(ctx context.Context, msg Message) (domain.NotificationRecord, error)
}

// Generator is an opaque text-generation backend (chat completion).
type Generator interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// AuditRepository persists finished workflow results.
type AuditRepository interface {
	Save(ctx context.Context, digest string, result domain.WorkflowResult) error
	AlreadyProcessed(ctx context.Context, digests []string) (map[string]bool, error)
}

// Watcher emits paths of newly arrived documents.
type Watcher interface {
	Start(ctx context.Context, job func(path string)) error
	Stop(ctx context.Context) error
}
