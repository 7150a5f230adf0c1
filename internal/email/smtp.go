// Package email sends internal alert mail when a lead asks for a callback or
// clears qualification. Recipients are the sales team, never the lead.
package email

import (
	"context"
	"fmt"
	"net"
	"time"

	"leadfunnel_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// Sender delivers alert emails.
type Sender interface {
	SendCallbackAlert(ctx context.Context, data CallbackAlertData) error
	SendQualifiedAlert(ctx context.Context, data QualifiedAlertData) error
}

// SMTPSender implements Sender over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
	toEmail   string
}

// NewSMTPSender builds a sender from config. Returns nil when email alerts
// are disabled or not fully configured.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	if !cfg.GetEmailEnabled() || cfg.GetSMTPHost() == "" || cfg.GetEmailAlertAddress() == "" {
		return nil
	}
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromEmail: cfg.GetEmailFromAddress(),
		toEmail:   cfg.GetEmailAlertAddress(),
	}
}

func (s *SMTPSender) send(ctx context.Context, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(s.toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// SendCallbackAlert mails the team that a lead wants to be called.
func (s *SMTPSender) SendCallbackAlert(ctx context.Context, data CallbackAlertData) error {
	if s == nil {
		return nil
	}
	content, err := renderEmailTemplate("callback_alert.html", data)
	if err != nil {
		return err
	}
	return s.send(ctx, subjectCallbackAlert, content)
}

// SendQualifiedAlert mails the team that a lead passed the budget gate.
func (s *SMTPSender) SendQualifiedAlert(ctx context.Context, data QualifiedAlertData) error {
	if s == nil {
		return nil
	}
	content, err := renderEmailTemplate("qualified_alert.html", data)
	if err != nil {
		return err
	}
	return s.send(ctx, subjectQualifiedAlert, content)
}
