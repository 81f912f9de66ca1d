package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"morningbrief/render"
	"morningbrief/throttle"
	"morningbrief/types"
)

// MailerConfig configures SMTP delivery
type MailerConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	To         []string
	Subject    string
	MaxRetries int
	// Backoff is the wait before the first retry; it doubles on each retry
	Backoff time.Duration
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends the briefing as an HTML email over SMTP
type Mailer struct {
	cfg    MailerConfig
	logger *slog.Logger
	send   sendFunc
	sleep  func(context.Context, time.Duration) error
}

// NewMailer returns an SMTP mailer
func NewMailer(cfg MailerConfig, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.Backoff == 0 {
		cfg.Backoff = 2 * time.Second
	}
	return &Mailer{cfg: cfg, logger: logger, send: smtp.SendMail, sleep: throttle.Sleep}
}

func (m *Mailer) Name() string { return "email" }

// Deliver sends the email, retrying with exponential backoff.
func (m *Mailer) Deliver(ctx context.Context, b *types.Briefing) error {
	html, err := render.HTML(b)
	if err != nil {
		return fmt.Errorf("failed to render briefing: %w", err)
	}
	msg := m.message(render.Subject(b, m.cfg.Subject), html)
	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	var lastErr error
	wait := m.cfg.Backoff
	for i := 0; i < m.cfg.MaxRetries; i++ {
		if i > 0 {
			m.logger.Info("retrying email send", "wait", wait, "attempt", i+1)
			if err := m.sleep(ctx, wait); err != nil {
				return fmt.Errorf("email send cancelled: %w", lastErr)
			}
			wait *= 2
		}

		err := m.send(addr, auth, m.cfg.From, m.cfg.To, msg)
		if err == nil {
			m.logger.Info("email sent", "to", strings.Join(m.cfg.To, ","), "attempts", i+1)
			return nil
		}
		lastErr = err
		m.logger.Warn("email send failed", "attempt", i+1, "max", m.cfg.MaxRetries, "error", err)
	}
	return fmt.Errorf("failed to send email after %d attempts: %w", m.cfg.MaxRetries, lastErr)
}

func (m *Mailer) message(subject string, html []byte) []byte {
	var msg strings.Builder
	msg.WriteString("From: " + m.cfg.From + "\r\n")
	msg.WriteString("To: " + strings.Join(m.cfg.To, ", ") + "\r\n")
	msg.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.Write(html)
	return []byte(msg.String())
}

// SplitAddresses splits a comma separated recipient list
func SplitAddresses(s string) []string {
	var out []string
	for _, addr := range strings.Split(s, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
