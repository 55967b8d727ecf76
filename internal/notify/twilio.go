package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/iliyamo/crowdsafe/internal/config"
)

// TwilioSMS sends text messages through the Twilio Messages REST API.
type TwilioSMS struct {
	client *resty.Client
	sid    string
	from   string
}

// NewTwilioSMS returns an SMS sender for cfg. BaseURL may point at a test server.
func NewTwilioSMS(cfg config.TwilioConfig) *TwilioSMS {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken).
		SetTimeout(10 * time.Second)
	return &TwilioSMS{client: client, sid: cfg.AccountSID, from: cfg.FromNumber}
}

func (t *TwilioSMS) SendSMS(ctx context.Context, to, body string) error {
	resp, err := t.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"To":   to,
			"From": t.from,
			"Body": body,
		}).
		Post(fmt.Sprintf("/2010-04-01/Accounts/%s/Messages.json", t.sid))
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("twilio returned %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
