package config

import "os"

// SMTPConfig configures outbound email.  Email is disabled when Host is
// empty.  MAIL_SERVER is accepted as an alias of SMTP_HOST.
type SMTPConfig struct {
    Host     string
    Port     int
    Username string
    Password string
    From     string
    TLS      bool // STARTTLS
    SSL      bool // implicit TLS
}

// Configured reports whether email delivery is possible.
func (c SMTPConfig) Configured() bool { return c.Host != "" }

// TwilioConfig configures outbound SMS.  SMS is disabled unless the
// account sid, auth token and sender number are all set.
type TwilioConfig struct {
    AccountSID string
    AuthToken  string
    FromNumber string
    BaseURL    string
}

// Configured reports whether SMS delivery is possible.
func (c TwilioConfig) Configured() bool {
    return c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != ""
}

// NotifyConfig groups the notification gateways.
type NotifyConfig struct {
    SMTP   SMTPConfig
    Twilio TwilioConfig
}

// LoadNotifyConfig reads SMTP_* and TWILIO_* variables.
func LoadNotifyConfig() NotifyConfig {
    host := os.Getenv("SMTP_HOST")
    if host == "" {
        host = os.Getenv("MAIL_SERVER")
    }
    return NotifyConfig{
        SMTP: SMTPConfig{
            Host:     host,
            Port:     envInt("SMTP_PORT", 587),
            Username: os.Getenv("SMTP_USERNAME"),
            Password: os.Getenv("SMTP_PASSWORD"),
            From:     envStr("SMTP_FROM", "alerts@crowdsafe.local"),
            TLS:      envBool("SMTP_TLS", true),
            SSL:      envBool("SMTP_SSL", false),
        },
        Twilio: TwilioConfig{
            AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
            AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
            FromNumber: os.Getenv("TWILIO_FROM_NUMBER"),
            BaseURL:    envStr("TWILIO_BASE_URL", "https://api.twilio.com"),
        },
    }
}
