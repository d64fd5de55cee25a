// Package email delivers the transactional mails of the booking API: the
// signup welcome and the password-reset link.
package email

import (
	"crypto/tls"
	"fmt"
	"net/url"

	"github.com/dajohi/goemail"

	"github.com/gotours/tour-booking-api/internal/config"
)

// Mailer wraps an SMTP client sending from a preset address.  With no SMTP
// host configured the mailer is disabled and every send is a no-op, so the
// API stays usable in development.
type Mailer struct {
	smtp     *goemail.SMTP
	from     string
	fromName string
	disabled bool
}

// New builds a Mailer from the SMTP_* configuration.
func New(cfg config.Config) (*Mailer, error) {
	if cfg.SMTPHost == "" {
		return &Mailer{disabled: true}, nil
	}
	host := fmt.Sprintf("smtps://%s:%s@%s:%s",
		url.QueryEscape(cfg.SMTPUser), url.QueryEscape(cfg.SMTPPass),
		cfg.SMTPHost, cfg.SMTPPort)
	u, err := url.Parse(host)
	if err != nil {
		return nil, err
	}
	smtp, err := goemail.NewSMTP(u.String(), &tls.Config{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return nil, err
	}
	return &Mailer{
		smtp:     smtp,
		from:     cfg.MailFrom,
		fromName: cfg.MailFromName,
	}, nil
}

// Enabled reports whether outbound email is configured.
func (m *Mailer) Enabled() bool { return !m.disabled }

func (m *Mailer) send(to, subject, body string) error {
	if m.disabled {
		return nil
	}
	msg := goemail.NewMessage(m.from, subject, body)
	msg.SetName(m.fromName)
	msg.AddTo(to)
	return m.smtp.Send(msg)
}

// SendWelcome greets a new account after signup.
func (m *Mailer) SendWelcome(to, name, accountURL string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nWelcome to GoTours, we're glad to have you!\n\n"+
			"Manage your account here: %s\n", name, accountURL)
	return m.send(to, "Welcome to the GoTours family!", body)
}

// SendPasswordReset delivers the plaintext reset token link.  The link is
// valid for ten minutes.
func (m *Mailer) SendPasswordReset(to, name, resetURL string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nForgot your password? Submit a PATCH request with your new "+
			"password and passwordConfirm to:\n%s\n\n"+
			"The link is valid for only 10 minutes.\n"+
			"If you didn't forget your password, please ignore this email.\n",
		name, resetURL)
	return m.send(to, "Your password reset token (valid for 10 minutes)", body)
}
