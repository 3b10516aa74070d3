package infra

import (
	"bytes"
	"fmt"
	"net/smtp"
	"time"

	"stockledger/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for sending reports as PDF attachments.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	breaker  *relayBreaker
}

// Five straight failures park the relay for a minute; two good trial sends
// bring it back.
const (
	relayTrip     = 5
	relayHeal     = 2
	relayCooldown = time.Minute
)

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		breaker:  newRelayBreaker(relayTrip, relayHeal, relayCooldown),
	}
}

// Configured reports whether an SMTP host was provided.
func (m *Mailer) Configured() bool { return m.host != "" }

// RelayState reports the relay breaker position for health output.
func (m *Mailer) RelayState() string { return m.breaker.state() }

// SendReport mails one PDF attachment. While the relay breaker is open it
// returns ErrRelayUnavailable without dialing.
func (m *Mailer) SendReport(to, subject, body, fileName string, pdf []byte) error {
	if !m.Configured() {
		return fmt.Errorf("mailer: SMTP_HOST not configured")
	}
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)
	if len(pdf) > 0 {
		if _, err := e.Attach(bytes.NewReader(pdf), fileName, "application/pdf"); err != nil {
			return fmt.Errorf("mailer: attach PDF: %w", err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return m.breaker.do(func() error {
		return e.Send(m.addr, auth)
	})
}
