package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const AppName = "tribithub-portal"

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port        string   `env:"PORT" envDefault:"3000"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	SiteURL     string   `env:"SITE_URL" envDefault:"http://localhost:3000"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`

	PostgresDSN string `env:"POSTGRES_DSN"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	MongoURI string `env:"MONGO_URI"`
	MongoDB  string `env:"MONGO_DB" envDefault:"tribithub"`

	// Identity provider: "gotrue" talks to a hosted Supabase-compatible auth
	// service, "local" keeps accounts in Postgres.
	IdentityDriver     string        `env:"IDENTITY_DRIVER" envDefault:"gotrue"`
	SupabaseURL        string        `env:"SUPABASE_URL"`
	SupabaseServiceKey string        `env:"SUPABASE_SERVICE_KEY"`
	JWTSecret          string        `env:"JWT_SECRET"`
	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	MailDriver      string `env:"MAIL_DRIVER" envDefault:"sendgrid"`
	MailFromName    string `env:"MAIL_FROM_NAME" envDefault:"TribitHub"`
	MailFromAddress string `env:"MAIL_FROM_ADDRESS" envDefault:"message@tribit.top"`
	SendGridAPIKey  string `env:"SENDGRID_API_KEY"`
	SendGridSandbox bool   `env:"SENDGRID_SANDBOX" envDefault:"false"`
	SMTPHost        string `env:"SMTP_HOST"`
	SMTPPort        int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername    string `env:"SMTP_USERNAME"`
	SMTPPassword    string `env:"SMTP_PASSWORD"`

	StorageDriver     string `env:"STORAGE_DRIVER" envDefault:"s3"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3Bucket          string `env:"S3_BUCKET_NAME"`
	S3Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	S3UseSSL          bool   `env:"S3_USE_SSL" envDefault:"true"`
	S3PublicURL       string `env:"S3_PUBLIC_URL"`

	CodeTTL           time.Duration `env:"CODE_TTL" envDefault:"15m"`
	CodeRequestLimit  int           `env:"CODE_REQUEST_LIMIT" envDefault:"5"`
	CodeRequestWindow time.Duration `env:"CODE_REQUEST_WINDOW" envDefault:"15m"`
	CleanupSchedule   string        `env:"CLEANUP_SCHEDULE" envDefault:"0 3 * * *"`
	// MagicLinkTTL is only quoted in the mail; the provider enforces expiry.
	MagicLinkTTL time.Duration `env:"MAGIC_LINK_TTL" envDefault:"15m"`

	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every driver has the settings it needs.
func (c *Config) Validate() error {
	var errs []error
	if c.PostgresDSN == "" {
		errs = append(errs, errors.New("missing POSTGRES_DSN"))
	}

	switch c.IdentityDriver {
	case "gotrue":
		if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
			errs = append(errs, errors.New("gotrue identity driver requires SUPABASE_URL and SUPABASE_SERVICE_KEY"))
		}
	case "local":
		if c.JWTSecret == "" {
			errs = append(errs, errors.New("local identity driver requires JWT_SECRET"))
		}
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("local identity driver requires REDIS_ADDR"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown IDENTITY_DRIVER %q", c.IdentityDriver))
	}

	switch c.MailDriver {
	case "sendgrid":
		if c.SendGridAPIKey == "" {
			errs = append(errs, errors.New("sendgrid mail driver requires SENDGRID_API_KEY"))
		}
	case "smtp":
		if c.SMTPHost == "" {
			errs = append(errs, errors.New("smtp mail driver requires SMTP_HOST"))
		}
	case "log":
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_DRIVER %q", c.MailDriver))
	}

	switch c.StorageDriver {
	case "s3", "minio":
		if c.S3Endpoint == "" || c.S3AccessKeyID == "" || c.S3SecretAccessKey == "" || c.S3Bucket == "" {
			errs = append(errs, errors.New("object storage requires S3_ENDPOINT, S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY and S3_BUCKET_NAME"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}

	if c.CodeTTL <= 0 {
		errs = append(errs, errors.New("CODE_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// PublicObjectBase is the URL prefix uploaded objects are served from.
// Without an explicit S3_PUBLIC_URL it is the path-style bucket URL on the
// endpoint.
func (c *Config) PublicObjectBase() string {
	if c.S3PublicURL != "" {
		return strings.TrimRight(c.S3PublicURL, "/")
	}
	return c.EndpointURL() + "/" + c.S3Bucket
}

// EndpointHost strips any scheme from S3_ENDPOINT; minio-go wants a bare host.
func (c *Config) EndpointHost() string {
	ep := strings.TrimPrefix(c.S3Endpoint, "https://")
	ep = strings.TrimPrefix(ep, "http://")
	return strings.TrimRight(ep, "/")
}

// EndpointURL returns S3_ENDPOINT with a scheme, as the AWS SDK expects.
func (c *Config) EndpointURL() string {
	if strings.HasPrefix(c.S3Endpoint, "http://") || strings.HasPrefix(c.S3Endpoint, "https://") {
		return strings.TrimRight(c.S3Endpoint, "/")
	}
	if c.S3UseSSL {
		return "https://" + c.EndpointHost()
	}
	return "http://" + c.EndpointHost()
}
