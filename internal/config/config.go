package config

import (
	"fmt"
	"strings"

	"github.com/Netflix/go-env"
)

const (
	SenderSimulated = "simulated"
	SenderWebhook   = "webhook"
	SenderSES       = "ses"
)

type Config struct {
	DatabaseDSN       string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL       string `env:"RABBITMQ_URL,required=true"`
	RedisURL          string `env:"REDIS_URL,required=true"`
	APIPort           int    `env:"API_PORT,default=8080"`
	LogLevel          string `env:"LOG_LEVEL,default=info"`
	WorkerConcurrency int    `env:"WORKER_CONCURRENCY,default=8"`
	SendRatePerSec    int    `env:"SEND_RATE_PER_SEC,default=10"`
	LockTTLSec        int    `env:"LOCK_TTL_SEC,default=30"`

	SenderKind       string `env:"SENDER_KIND,default=simulated"`
	WebhookSenderURL string `env:"WEBHOOK_SENDER_URL"`
	SESRegion        string `env:"SES_REGION"`
	SESAccessKey     string `env:"SES_ACCESS_KEY"`
	SESSecretKey     string `env:"SES_SECRET_KEY"`
	SESFrom          string `env:"SES_FROM"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIModel   string `env:"OPENAI_MODEL"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	PlansFile             string `env:"PLANS_FILE"`
	UnlimitedTenantEmails string `env:"UNLIMITED_TENANT_EMAILS"`

	WarmupScanIntervalSec int `env:"WARMUP_SCAN_INTERVAL_SEC,default=3600"`
	DomainRampBase        int `env:"DOMAIN_RAMP_BASE,default=10"`
	DomainRampStep        int `env:"DOMAIN_RAMP_STEP,default=5"`
	DomainRampLength      int `env:"DOMAIN_RAMP_LENGTH,default=15"`
	MailboxRampLength     int `env:"MAILBOX_RAMP_LENGTH,default=30"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.SenderKind = strings.ToLower(strings.TrimSpace(cfg.SenderKind))
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.SenderKind {
	case SenderSimulated:
	case SenderWebhook:
		if c.WebhookSenderURL == "" {
			return fmt.Errorf("WEBHOOK_SENDER_URL is required when SENDER_KIND=%s", SenderWebhook)
		}
	case SenderSES:
		if c.SESRegion == "" || c.SESFrom == "" {
			return fmt.Errorf("SES_REGION and SES_FROM are required when SENDER_KIND=%s", SenderSES)
		}
	default:
		return fmt.Errorf("unsupported SENDER_KIND %q", c.SenderKind)
	}
	return nil
}

// UnlimitedEmails splits UNLIMITED_TENANT_EMAILS into trimmed, lowercased
// addresses.
func (c *Config) UnlimitedEmails() []string {
	var out []string
	for _, raw := range strings.Split(c.UnlimitedTenantEmails, ",") {
		if email := strings.ToLower(strings.TrimSpace(raw)); email != "" {
			out = append(out, email)
		}
	}
	return out
}
