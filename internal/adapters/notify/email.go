package notify

import (
	"context"
	"fmt"
	"time"

	gomail "gopkg.in/mail.v2"

	"github.com/yu-lin0312/news-collector/internal/domain"
	"github.com/yu-lin0312/news-collector/internal/infra/metrics"
)

// EmailConfig параметры SMTP.
type EmailConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
	To   []string
}

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Email отправляет брифинг письмом с HTML и текстовой версией.
type Email struct {
	cfg    EmailConfig
	dialer mailDialer
}

var _ domain.Notifier = (*Email)(nil)

// NewEmail создаёт уведомитель поверх SMTP.
func NewEmail(cfg EmailConfig) *Email {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
	dialer.Timeout = 10 * time.Second
	return &Email{cfg: cfg, dialer: dialer}
}

// Message собирает письмо.
func (e *Email) Message(b domain.Briefing) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", e.cfg.From)
	m.SetHeader("To", e.cfg.To...)
	m.SetHeader("Subject", Subject(b))
	m.SetBody("text/plain", FormatText(b))
	m.AddAlternative("text/html", FormatEmailHTML(b))
	return m
}

// Notify реализует domain.Notifier.
func (e *Email) Notify(ctx context.Context, b domain.Briefing) error {
	if len(b.Items) == 0 || len(e.cfg.To) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := e.dialer.DialAndSend(e.Message(b))
	metrics.ObserveNetworkRequest("smtp", "send", e.cfg.Host, start, err)
	if err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
