package telegram

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"ComplianceReview/internal/config"
	"ComplianceReview/internal/domain"
	"ComplianceReview/internal/errors"
	"ComplianceReview/internal/infrastructure/httpapi"
	"ComplianceReview/internal/ports"
)

const apiBase = "https://api.telegram.org"

// Notifier sends review alerts to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	client   *httpapi.Client
	clock    func() time.Time
}

var _ ports.NotificationChannel = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(cfg config.TelegramConfig) *Notifier {
	return newNotifier(cfg, apiBase)
}

func newNotifier(cfg config.TelegramConfig, base string) *Notifier {
	return &Notifier{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		client:   httpapi.NewClient(base, 5*time.Second),
		clock:    time.Now,
	}
}

// Name identifies the channel in the audit trail.
func (n *Notifier) Name() string { return "telegram" }

type sendResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
	Description string `json:"description"`
}

// Send posts the plain-text rendition of msg to the chat.
func (n *Notifier) Send(ctx context.Context, msg ports.Message) (domain.NotificationRecord, error) {
	if n.botToken == "" || n.chatID == "" {
		return domain.NotificationRecord{}, errors.NotConfigured(n.Name(), "notifications.telegram.botToken and chatId")
	}

	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text(msg))
	if msg.Priority == "low" {
		form.Set("disable_notification", "true")
	}

	var resp sendResponse
	path := fmt.Sprintf("/bot%s/sendMessage", n.botToken)
	if err := n.client.Post(ctx, path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), &resp); err != nil {
		// The token is part of the URL; keep it out of the error.
		return domain.NotificationRecord{}, errors.Wrap(redact(err, n.botToken), "telegram sendMessage")
	}
	if !resp.OK {
		return domain.NotificationRecord{}, errors.Rejected(errors.Newf("telegram sendMessage: %s", resp.Description))
	}

	return domain.NotificationRecord{
		Channel:   n.Name(),
		Status:    domain.DeliverySent,
		MessageID: fmt.Sprintf("telegram-%d", resp.Result.MessageID),
		Timestamp: n.clock(),
	}, nil
}

func text(msg ports.Message) string {
	body := msg.TextBody
	if body == "" {
		body = msg.HTMLBody
	}
	return msg.Subject + "\n\n" + body
}

func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	clean := errors.New(strings.ReplaceAll(err.Error(), token, "***"))
	for _, mark := range []error{errors.ErrTransient, errors.ErrPermission, errors.ErrRejected, errors.ErrNotFound} {
		if errors.Is(err, mark) {
			return errors.Mark(clean, mark)
		}
	}
	return clean
}
