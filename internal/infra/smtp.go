package infra

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"

	"github.com/lbc354/sgp/internal/config"
)

// Mailer wraps SMTP configuration for sending HTML notification emails.
// Delivery is synchronous and best-effort: callers log failures and surface
// them as warnings, never as request errors.
type Mailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
	enabled  bool
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.EmailFrom,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		enabled:  cfg.SendEmails,
	}
}

// Enabled reports whether outbound email is turned on (SEND_EMAILS).
func (m *Mailer) Enabled() bool { return m.enabled }

// Send delivers a single HTML email. The plain-text alternative is the
// subject line; every notification carries its content in HTML.
func (m *Mailer) Send(to, subject, htmlBody string) error {
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(subject)
	e.HTML = []byte(htmlBody)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return e.Send(m.addr, auth)
}
