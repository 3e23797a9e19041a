package config

import (
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail/v2"
)

// Mailer delivers HTML mail. The development backend uses it to tell a
// student their submission was reviewed.
type Mailer interface {
	Send(to []string, subject, html string) error
}

// SMTPMailer sends through the SMTP relay in SMTPConfig.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewMailer returns an SMTP mailer, or nil when SMTP is not configured.
func NewMailer(cfg SMTPConfig) Mailer {
	if cfg.Host == "" || cfg.From == "" {
		return nil
	}
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(to []string, subject, html string) error {
	if len(to) == 0 {
		return nil
	}
	if m.cfg.Host == "" || m.cfg.From == "" {
		return fmt.Errorf("smtp not configured (SMTP_HOST/SMTP_FROM)")
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	port := m.cfg.Port
	if port == 0 {
		port = 587
	}
	d := mail.NewDialer(m.cfg.Host, port, m.cfg.User, m.cfg.Pass)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         m.cfg.Host,
		InsecureSkipVerify: m.cfg.SkipTLSVerify,
	}

	return d.DialAndSend(msg)
}
