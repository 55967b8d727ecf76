// Package notify delivers alert notices to emergency contacts over email
// and SMS. Each channel is optional; an unconfigured channel logs the
// notice it would have sent and skips it without failing the send.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/iliyamo/crowdsafe/internal/config"
	"github.com/iliyamo/crowdsafe/internal/log"
	"github.com/iliyamo/crowdsafe/internal/metrics"
	"github.com/rs/zerolog"
)

// Channel names used in logs and metrics.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// ErrChannelUnavailable is logged for a channel with no configuration. It is
// never returned to callers.
var ErrChannelUnavailable = errors.New("notification channel not configured")

// TransportError wraps a delivery failure of one channel.
type TransportError struct {
	Channel   string
	Recipient string
	Err       error
}

func (e *TransportError) Error() string {
	if e.Recipient != "" {
		return fmt.Sprintf("%s to %s: %v", e.Channel, e.Recipient, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Channel, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Notice is one alert rendered for out-of-band delivery.
type Notice struct {
	AlertID uint64
	EventID uint64
	Subject string
	Body    string
	Emails  []string
	Phones  []string
}

// EmailSender sends one message to a list of recipients.
type EmailSender interface {
	SendEmail(ctx context.Context, to []string, subject, body string) error
}

// SMSSender sends one text message to a single number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Gateway fans a notice out to the configured channels. A nil sender
// marks its channel as unconfigured.
type Gateway struct {
	email EmailSender
	sms   SMSSender
	log   zerolog.Logger
}

// NewGateway builds a gateway from explicit senders.
func NewGateway(email EmailSender, sms SMSSender) *Gateway {
	return &Gateway{email: email, sms: sms, log: log.WithComponent("notify")}
}

// NewGatewayFromConfig wires the SMTP and Twilio senders that are configured.
func NewGatewayFromConfig(cfg config.NotifyConfig) *Gateway {
	var email EmailSender
	var sms SMSSender
	if cfg.SMTP.Configured() {
		email = NewSMTPMailer(cfg.SMTP)
	}
	if cfg.Twilio.Configured() {
		sms = NewTwilioSMS(cfg.Twilio)
	}
	return NewGateway(email, sms)
}

// Notify sends the notice by email and SMS concurrently. A failure on one
// channel never stops the other; the returned error joins every failure.
func (g *Gateway) Notify(ctx context.Context, n Notice) error {
	var (
		wg       sync.WaitGroup
		emailErr error
		smsErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		emailErr = g.SendEmail(ctx, n.Emails, n.Subject, n.Body)
	}()
	go func() {
		defer wg.Done()
		smsErr = g.SendSMS(ctx, n.Phones, n.Body)
	}()
	wg.Wait()
	return errors.Join(emailErr, smsErr)
}

// SendEmail sends one message to all non-empty addresses. No addresses is a
// no-op.
func (g *Gateway) SendEmail(ctx context.Context, to []string, subject, body string) error {
	to = compact(to)
	if len(to) == 0 {
		return nil
	}
	if g.email == nil {
		g.log.Info().Err(ErrChannelUnavailable).Strs("recipients", to).Str("subject", subject).Msg("email disabled, notice not sent")
		metrics.NotificationsTotal.WithLabelValues(ChannelEmail, "disabled").Inc()
		return nil
	}
	if err := g.email.SendEmail(ctx, to, subject, body); err != nil {
		g.log.Error().Err(err).Strs("recipients", to).Msg("email delivery failed")
		metrics.NotificationsTotal.WithLabelValues(ChannelEmail, "failed").Inc()
		return &TransportError{Channel: ChannelEmail, Err: err}
	}
	metrics.NotificationsTotal.WithLabelValues(ChannelEmail, "sent").Inc()
	return nil
}

// SendSMS texts every non-empty number. Numbers are attempted independently.
func (g *Gateway) SendSMS(ctx context.Context, to []string, body string) error {
	to = compact(to)
	if len(to) == 0 {
		return nil
	}
	if g.sms == nil {
		g.log.Info().Err(ErrChannelUnavailable).Strs("recipients", to).Msg("sms disabled, notice not sent")
		metrics.NotificationsTotal.WithLabelValues(ChannelSMS, "disabled").Inc()
		return nil
	}
	var errs []error
	for _, number := range to {
		if err := g.sms.SendSMS(ctx, number, body); err != nil {
			g.log.Error().Err(err).Str("recipient", number).Msg("sms delivery failed")
			metrics.NotificationsTotal.WithLabelValues(ChannelSMS, "failed").Inc()
			errs = append(errs, &TransportError{Channel: ChannelSMS, Recipient: number, Err: err})
			continue
		}
		metrics.NotificationsTotal.WithLabelValues(ChannelSMS, "sent").Inc()
	}
	return errors.Join(errs...)
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
