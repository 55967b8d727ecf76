package notify

import (
	"context"
	"fmt"

	"github.com/iliyamo/crowdsafe/internal/config"
	"github.com/wneessen/go-mail"
)

// SMTPMailer sends plain-text email through one SMTP relay. Recipients are
// placed in Bcc so contacts do not see each other's addresses.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

// NewSMTPMailer returns a mailer for cfg.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendEmail(ctx context.Context, to []string, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(m.cfg.From); err != nil {
		return fmt.Errorf("to address: %w", err)
	}
	if err := msg.Bcc(to...); err != nil {
		return fmt.Errorf("recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(m.cfg.Host, m.options()...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

func (m *SMTPMailer) options() []mail.Option {
	opts := []mail.Option{mail.WithPort(m.cfg.Port)}
	switch {
	case m.cfg.SSL:
		opts = append(opts, mail.WithSSL())
	case m.cfg.TLS:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	return opts
}
