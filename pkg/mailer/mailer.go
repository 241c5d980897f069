package mailer

import (
	"github.com/cenkalti/backoff/v4"
	"github.com/findadoctor/api/internal/config"
	"github.com/go-gomail/gomail"
)

// Sender delivers HTML email. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send delivers a single message, retrying transient SMTP failures a
// few times with exponential backoff. Delivery is idempotent from the
// caller's point of view; duplicates are possible on retry after a
// partial failure and are acceptable for notification mail.
func (m *Mailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	op := func() error {
		return m.dialer.DialAndSend(msg)
	}
	return backoff.Retry(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3))
}
