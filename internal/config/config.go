// Package config holds the process configuration for the property alert
// pipeline. Configuration is read once at startup and treated as immutable.
//
// Values resolve in priority order:
//
//	OS Environment -> .env file -> AWS SSM Parameter Store
//
// A missing required value or a malformed one fails startup.
package config

import (
	"time"

	"propertyalerts/internal/types"
)

// SecretString is the redacted secret type used for credentials.
type SecretString = types.SecretString

// Config is the top-level configuration. Components receive only the
// sub-struct they need.
type Config struct {
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"property-alerts"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Database      DatabaseConfig
	AWS           AWSConfig
	Email         EmailConfig
	Pipeline      PipelineConfig
	Cache         CacheConfig
	Security      SecurityConfig
	Observability ObservabilityConfig
	Feature       FeatureConfig

	// Build is injected via ldflags, not the environment.
	Build BuildInfo
}

// ServerConfig holds the HTTP listener and public URLs.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`
	// SiteURL is the marketplace front end used to build property links
	// (no trailing slash).
	SiteURL        string        `envconfig:"SITE_URL" validate:"required,url"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"55s"`
}

// DatabaseConfig holds the Postgres connection and pool tuning.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required"`

	MaxConns          int32         `envconfig:"DB_MAX_CONNS" default:"10" validate:"gte=1"`
	MinConns          int32         `envconfig:"DB_MIN_CONNS" default:"1" validate:"gte=0"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
	MigrateOnStart    bool          `envconfig:"DB_MIGRATE_ON_START" default:"false"`
}

// AWSConfig holds the region and resource identifiers.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`
	// TriggerQueueURL receives ProcessTrigger messages. Empty disables
	// publishing on requeue.
	TriggerQueueURL string `envconfig:"SQS_ALERT_TRIGGER" validate:"omitempty,url"`
	// EndpointURL points the SDK at LocalStack. Empty in deployed envs.
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// EmailConfig holds the transport choice and sender identity.
type EmailConfig struct {
	Provider       string       `envconfig:"EMAIL_PROVIDER" default:"sendgrid" validate:"oneof=sendgrid ses stub"`
	SendGridAPIKey SecretString `envconfig:"SENDGRID_API_KEY" validate:"required_if=Provider sendgrid"`
	FromAddress    string       `envconfig:"EMAIL_FROM_ADDRESS" default:"alerts@example.com" validate:"email"`
	FromName       string       `envconfig:"EMAIL_FROM_NAME" default:"Property Alerts"`
	// Templates maps template name to provider template ID, e.g.
	// {"property_alert": "d-123", "off_market_alert": "d-456"}.
	Templates        string `envconfig:"EMAIL_TEMPLATES_JSON" default:"{}" validate:"json"`
	ConfigurationSet string `envconfig:"SES_CONFIGURATION_SET"`
}

// PipelineConfig tunes the batch processor.
type PipelineConfig struct {
	BatchSize        int           `envconfig:"PIPELINE_BATCH_SIZE" default:"10" validate:"gte=1,lte=50"`
	MatchConcurrency int           `envconfig:"PIPELINE_MATCH_CONCURRENCY" default:"1" validate:"gte=1,lte=32"`
	SkipDuplicates   bool          `envconfig:"PIPELINE_SKIP_DUPLICATE_ALERTS" default:"false"`
	StaleAfter       time.Duration `envconfig:"PIPELINE_STALE_AFTER" default:"15m"`
	Schedule         string        `envconfig:"PIPELINE_SCHEDULE" default:"@every 1m"`
}

// CacheConfig holds the optional Redis used for rate limiting.
type CacheConfig struct {
	RedisURL SecretString `envconfig:"REDIS_URL"`
	// ProcessRateLimit is the number of process invocations allowed per
	// minute per client. Zero disables the limiter.
	ProcessRateLimit int `envconfig:"PROCESS_RATE_LIMIT" default:"0" validate:"gte=0"`
}

// SecurityConfig holds CORS settings.
type SecurityConfig struct {
	CorsAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// ObservabilityConfig holds metrics settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"PropertyAlerts"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"false"`
}

// FeatureConfig holds kill switches.
type FeatureConfig struct {
	// EnableEmail routes sends to the stub provider when false.
	EnableEmail bool `envconfig:"FEATURE_ENABLE_EMAIL" default:"true"`
}

// BuildInfo is build metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// IsLocal reports whether the process runs outside AWS.
func (c *Config) IsLocal() bool {
	return c.Environment == localEnv
}
