package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

type SMTPConfig struct {
	Host     string `conf:"host" yaml:"host" json:"host"`
	Port     int    `conf:"port" yaml:"port" json:"port"`
	Username string `conf:"username" yaml:"username" json:"username"`
	Password string `conf:"password" yaml:"password" json:"password"`
	From     string `conf:"from" yaml:"from" json:"from"`
}

// SMTPSender delivers notifications as plain text mail.
type SMTPSender struct {
	config SMTPConfig
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(config SMTPConfig) *SMTPSender {
	return &SMTPSender{
		config: config,
		send:   smtp.SendMail,
	}
}

func (s *SMTPSender) Name() string {
	return "smtp"
}

func (s *SMTPSender) Send(ctx context.Context, event Event) error {
	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	msg := buildMessage(s.config.From, event.RecipientEmail, event.Subject(), event.Body())

	if err := s.send(addr, auth, s.config.From, []string{event.RecipientEmail}, msg); err != nil {
		return fmt.Errorf("notify: smtp send to %s: %w", event.RecipientEmail, err)
	}

	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)

	return []byte(b.String())
}
