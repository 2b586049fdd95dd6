// Package mailer delivers transactional mail, currently just OTP codes.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"

	"quarry/internal/config"
	"quarry/internal/middleware"
)

// Mailer sends a one-time passcode to a recipient.
type Mailer interface {
	SendOTP(ctx context.Context, to, name, code string) error
}

// SMTPMailer delivers mail through a plain SMTP relay.
type SMTPMailer struct {
	host string
	port string
	user string
	pass string
	from string
}

// LogMailer writes the mail to the structured log instead of sending it.
// Used in development and whenever no SMTP host is configured.
type LogMailer struct{}

// New picks the delivery backend from configuration.
func New(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		return &LogMailer{}
	}
	from := cfg.MailFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &SMTPMailer{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: from,
	}
}

func (m *SMTPMailer) SendOTP(ctx context.Context, to, name, code string) error {
	subject := "Your verification code"
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nYour verification code is %s. It expires in 10 minutes.\r\n",
		name, code,
	)
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.from, to, subject, body,
	))

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	addr := m.host + ":" + m.port
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send OTP mail: %w", err)
	}
	return nil
}

func (m *LogMailer) SendOTP(ctx context.Context, to, name, code string) error {
	middleware.Logger.InfoContext(ctx, "OTP mail (log delivery)",
		"to", to,
		"code", code,
	)
	return nil
}
