package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ComplianceReview/internal/domain"
	"ComplianceReview/internal/ports"
)

// LogSink writes the notification to the log instead of delivering it. It is
// the end of every notification chain and never fails.
type LogSink struct {
	log   *zap.SugaredLogger
	clock func() time.Time
}

var _ ports.NotificationChannel = (*LogSink)(nil)

// NewLogSink builds the sink.
func NewLogSink(log *zap.SugaredLogger) *LogSink {
	return &LogSink{log: log, clock: time.Now}
}

// Name identifies the channel in the audit trail.
func (s *LogSink) Name() string { return "log" }

// Send records the message and reports it as simulated.
func (s *LogSink) Send(_ context.Context, msg ports.Message) (domain.NotificationRecord, error) {
	id := "log-" + uuid.NewString()
	s.log.Infow("notification simulated",
		"message_id", id,
		"to", msg.To,
		"subject", msg.Subject,
		"priority", msg.Priority,
		"document", msg.Document,
	)
	return domain.NotificationRecord{
		Channel:   s.Name(),
		Status:    domain.DeliverySimulated,
		MessageID: id,
		Timestamp: s.clock(),
	}, nil
}
