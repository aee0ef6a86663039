// Package notify delivers rendered review notifications by e-mail or, as a
// last resort, to the log.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ComplianceReview/internal/config"
	"ComplianceReview/internal/domain"
	"ComplianceReview/internal/errors"
	"ComplianceReview/internal/infrastructure/httpapi"
	"ComplianceReview/internal/ports"
)

const graphScope = "https://graph.microsoft.com/.default"

// GraphMailer sends mail through the Graph sendMail endpoint using client
// credentials. Tokens are cached until shortly before they expire.
type GraphMailer struct {
	cfg    config.GraphConfig
	sender string
	mail   *httpapi.Client
	auth   *httpapi.Client
	clock  func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

var _ ports.NotificationChannel = (*GraphMailer)(nil)

// NewGraphMailer builds the channel; sender is the mailbox messages are sent as.
func NewGraphMailer(cfg config.GraphConfig, sender string) *GraphMailer {
	return &GraphMailer{
		cfg:    cfg,
		sender: sender,
		mail:   httpapi.NewClient(cfg.Endpoint, 15*time.Second),
		auth:   httpapi.NewClient(cfg.TokenURL, 15*time.Second),
		clock:  time.Now,
	}
}

// Name identifies the channel in the audit trail.
func (g *GraphMailer) Name() string { return "graph" }

type graphAddress struct {
	EmailAddress struct {
		Address string `json:"address"`
	} `json:"emailAddress"`
}

type graphMessage struct {
	Message struct {
		Subject string `json:"subject"`
		Body    struct {
			ContentType string `json:"contentType"`
			Content     string `json:"content"`
		} `json:"body"`
		ToRecipients []graphAddress `json:"toRecipients"`
		Importance   string         `json:"importance"`
	} `json:"message"`
	SaveToSentItems bool `json:"saveToSentItems"`
}

// Send posts the HTML body to every recipient.
func (g *GraphMailer) Send(ctx context.Context, msg ports.Message) (domain.NotificationRecord, error) {
	switch {
	case g.cfg.TenantID == "" || g.cfg.ClientID == "" || g.cfg.ClientSecret == "":
		return domain.NotificationRecord{}, errors.NotConfigured(g.Name(), "notifications.graph credentials")
	case g.sender == "":
		return domain.NotificationRecord{}, errors.NotConfigured(g.Name(), "notifications.sender")
	case len(msg.To) == 0:
		return domain.NotificationRecord{}, errors.NotConfigured(g.Name(), "notifications.recipients")
	}

	token, err := g.accessToken(ctx)
	if err != nil {
		return domain.NotificationRecord{}, errors.Wrap(err, "graph token")
	}

	var body graphMessage
	body.Message.Subject = msg.Subject
	body.Message.Body.ContentType = "HTML"
	body.Message.Body.Content = msg.HTMLBody
	body.Message.Importance = importance(msg.Priority)
	for _, to := range msg.To {
		var a graphAddress
		a.EmailAddress.Address = to
		body.Message.ToRecipients = append(body.Message.ToRecipients, a)
	}

	req, err := httpapi.NewJSONRequest(ctx, http.MethodPost, g.mail.BaseURL()+"/users/"+url.PathEscape(g.sender)+"/sendMail", body)
	if err != nil {
		return domain.NotificationRecord{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	if err := g.mail.Do(ctx, req, nil); err != nil {
		if errors.Is(err, errors.ErrPermission) {
			g.resetToken()
		}
		return domain.NotificationRecord{}, errors.Wrapf(err, "graph sendMail as %s", g.sender)
	}

	return domain.NotificationRecord{
		Channel:   g.Name(),
		Status:    domain.DeliverySent,
		MessageID: "graph-" + uuid.NewString(),
		Timestamp: g.clock(),
	}, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (g *GraphMailer) accessToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.token != "" && g.clock().Before(g.expires) {
		return g.token, nil
	}

	form := url.Values{}
	form.Set("client_id", g.cfg.ClientID)
	form.Set("client_secret", g.cfg.ClientSecret)
	form.Set("scope", graphScope)
	form.Set("grant_type", "client_credentials")

	var resp tokenResponse
	path := fmt.Sprintf("/%s/oauth2/v2.0/token", url.PathEscape(g.cfg.TenantID))
	if err := g.auth.Post(ctx, path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), &resp); err != nil {
		// A rejected credential request is a permission problem, not a bad payload.
		if errors.Is(err, errors.ErrRejected) {
			return "", errors.Permission(err)
		}
		return "", err
	}
	if resp.AccessToken == "" {
		return "", errors.Permission(errors.New("token endpoint returned no access token"))
	}

	g.token = resp.AccessToken
	g.expires = g.clock().Add(time.Duration(resp.ExpiresIn)*time.Second - time.Minute)
	return g.token, nil
}

func (g *GraphMailer) resetToken() {
	g.mu.Lock()
	g.token = ""
	g.mu.Unlock()
}

func importance(priority string) string {
	switch priority {
	case "high":
		return "high"
	case "low":
		return "low"
	default:
		return "normal"
	}
}
