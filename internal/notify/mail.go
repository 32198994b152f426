package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	gomail "gopkg.in/mail.v2"

	"yardcraft/internal/domain"
)

// MailConfig holds SMTP settings.
type MailConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	// AppURL is linked from the emails.
	AppURL string
}

type sendFunc func(m *gomail.Message) error

// Mailer emails the account owner when a redesign is ready and when the
// monthly limit is hit. Progress events are ignored.
type Mailer struct {
	cfg    MailConfig
	logger zerolog.Logger
	send   sendFunc
	wg     sync.WaitGroup
}

func NewMailer(cfg MailConfig, logger zerolog.Logger) *Mailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	send := func(msg *gomail.Message) error {
		return dialer.DialAndSend(msg)
	}
	return &Mailer{cfg: cfg, logger: logger, send: send}
}

func (m *Mailer) Progress(context.Context, domain.ProgressEvent) {}

func (m *Mailer) Completed(ctx context.Context, acc domain.Account, rec *domain.RedesignRecord) {
	if acc.Email == "" {
		return
	}
	body := fmt.Sprintf("Your %s redesign is ready.\n\nView it here: %s\n\nSee all your designs at %s/history",
		styleNames(rec.Styles), rec.RedesignedURL, strings.TrimRight(m.cfg.AppURL, "/"))
	m.deliver(acc.Email, "Your yard redesign is ready", body)
}

func (m *Mailer) LimitReached(ctx context.Context, acc domain.Account, status domain.LimitStatus) {
	if acc.Email == "" {
		return
	}
	body := fmt.Sprintf("You have used all %d redesigns of your current plan. Your allowance resets on %s.\n\nUpgrade at %s/pricing for more redesigns.",
		status.Limit, status.ResetsAt.Format("January 2, 2006"), strings.TrimRight(m.cfg.AppURL, "/"))
	m.deliver(acc.Email, "You've reached your monthly redesign limit", body)
}

// deliver sends in the background so request latency doesn't include SMTP.
func (m *Mailer) deliver(to, subject, body string) {
	message := gomail.NewMessage()
	message.SetHeader("From", m.cfg.FromEmail)
	message.SetHeader("To", to)
	message.SetHeader("Subject", subject)
	message.SetBody("text/plain", body)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.send(message); err != nil {
			m.logger.Error().Err(err).Str("to", to).Str("subject", subject).Msg("email delivery failed")
			return
		}
		m.logger.Info().Str("to", to).Str("subject", subject).Msg("email sent")
	}()
}

// Wait blocks until queued emails are sent.
func (m *Mailer) Wait() {
	m.wg.Wait()
}

func styleNames(styles []domain.Style) string {
	names := make([]string, 0, len(styles))
	for _, id := range styles {
		if info, ok := domain.LookupStyle(id); ok {
			names = append(names, info.Name)
			continue
		}
		names = append(names, string(id))
	}
	return strings.Join(names, " + ")
}
