package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"ComplianceReview/internal/config"
	"ComplianceReview/internal/domain"
	"ComplianceReview/internal/errors"
	"ComplianceReview/internal/ports"
)

// SMTPMailer relays messages through a submission server. STARTTLS is used
// whenever the server offers it.
type SMTPMailer struct {
	cfg     config.SMTPConfig
	sender  string
	timeout time.Duration
	tls     *tls.Config
	clock   func() time.Time
}

var _ ports.NotificationChannel = (*SMTPMailer)(nil)

// NewSMTPMailer builds the channel.
func NewSMTPMailer(cfg config.SMTPConfig, sender string) *SMTPMailer {
	return &SMTPMailer{
		cfg:     cfg,
		sender:  sender,
		timeout: 15 * time.Second,
		tls:     &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12},
		clock:   time.Now,
	}
}

// Name identifies the channel in the audit trail.
func (m *SMTPMailer) Name() string { return "smtp" }

// Send delivers one multipart/alternative message to all recipients.
func (m *SMTPMailer) Send(ctx context.Context, msg ports.Message) (domain.NotificationRecord, error) {
	switch {
	case m.cfg.Host == "":
		return domain.NotificationRecord{}, errors.NotConfigured(m.Name(), "notifications.smtp.host")
	case m.sender == "":
		return domain.NotificationRecord{}, errors.NotConfigured(m.Name(), "notifications.sender")
	case len(msg.To) == 0:
		return domain.NotificationRecord{}, errors.NotConfigured(m.Name(), "notifications.recipients")
	}

	id := uuid.NewString()
	body, err := m.compose(msg, id)
	if err != nil {
		return domain.NotificationRecord{}, errors.Wrap(err, "compose message")
	}
	if err := m.deliver(ctx, msg.To, body); err != nil {
		return domain.NotificationRecord{}, errors.Wrapf(err, "smtp %s", m.addr())
	}

	return domain.NotificationRecord{
		Channel:   m.Name(),
		Status:    domain.DeliverySent,
		MessageID: id,
		Timestamp: m.clock(),
	}, nil
}

func (m *SMTPMailer) addr() string {
	port := m.cfg.Port
	if port == 0 {
		port = 587
	}
	return net.JoinHostPort(m.cfg.Host, strconv.Itoa(port))
}

func (m *SMTPMailer) deliver(ctx context.Context, to []string, body []byte) error {
	dialer := net.Dialer{Timeout: m.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", m.addr())
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Transient(err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(m.timeout))
	}

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return classifySMTP(err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(m.tls); err != nil {
			return classifySMTP(err)
		}
	}
	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := c.Auth(auth); err != nil {
			return errors.Permission(err)
		}
	}

	if err := c.Mail(m.sender); err != nil {
		return classifySMTP(err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return classifySMTP(err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return classifySMTP(err)
	}
	if _, err := w.Write(body); err != nil {
		return errors.Transient(err)
	}
	if err := w.Close(); err != nil {
		return classifySMTP(err)
	}
	return classifySMTP(c.Quit())
}

// classifySMTP maps reply codes onto the failure taxonomy.
func classifySMTP(err error) error {
	if err == nil {
		return nil
	}
	var proto *textproto.Error
	if !errors.As(err, &proto) {
		return errors.Transient(err)
	}
	switch {
	case proto.Code == 530 || proto.Code == 535:
		return errors.Permission(err)
	case proto.Code >= 400 && proto.Code < 500:
		return errors.Transient(err)
	default:
		return errors.Rejected(err)
	}
}

func (m *SMTPMailer) compose(msg ports.Message, id string) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := textproto.MIMEHeader{}
	hdr.Set("From", m.sender)
	hdr.Set("To", strings.Join(msg.To, ", "))
	hdr.Set("Subject", msg.Subject)
	hdr.Set("Date", m.clock().Format(time.RFC1123Z))
	hdr.Set("Message-ID", fmt.Sprintf("<%s@%s>", id, m.cfg.Host))
	hdr.Set("MIME-Version", "1.0")
	hdr.Set("X-Priority", xPriority(msg.Priority))
	hdr.Set("Content-Type", "multipart/alternative; boundary="+mw.Boundary())

	var head bytes.Buffer
	for _, k := range []string{"From", "To", "Subject", "Date", "Message-ID", "MIME-Version", "X-Priority", "Content-Type"} {
		fmt.Fprintf(&head, "%s: %s\r\n", k, hdr.Get(k))
	}
	head.WriteString("\r\n")

	for _, part := range []struct{ kind, content string }{
		{"text/plain", msg.TextBody},
		{"text/html", msg.HTMLBody},
	} {
		if part.content == "" {
			continue
		}
		pw, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.kind + "; charset=UTF-8"},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, err
		}
		qp := quotedprintable.NewWriter(pw)
		if _, err := qp.Write([]byte(part.content)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	return append(head.Bytes(), buf.Bytes()...), nil
}

func xPriority(priority string) string {
	switch priority {
	case "high":
		return "1"
	case "low":
		return "5"
	default:
		return "3"
	}
}
