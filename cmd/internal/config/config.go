package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
	"github.com/spf13/viper"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DatabaseDriver string `mapstructure:"DATABASE_DRIVER"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`

	AuthMode      string `mapstructure:"AUTH_MODE"`
	JWTSecret     string `mapstructure:"JWT_SECRET"`
	JWTIssuer     string `mapstructure:"JWT_ISSUER"`
	CognitoRegion string `mapstructure:"COGNITO_REGION"`

	QueueBackend     string `mapstructure:"QUEUE_BACKEND"`
	QueueBuffer      int    `mapstructure:"QUEUE_BUFFER"`
	QueueMaxAttempts int    `mapstructure:"QUEUE_MAX_ATTEMPTS"`
	RedisAddr        string `mapstructure:"REDIS_ADDR"`
	RedisPassword    string `mapstructure:"REDIS_PASSWORD"`
	RedisDB          int    `mapstructure:"REDIS_DB"`
	RedisQueuePrefix string `mapstructure:"REDIS_QUEUE_PREFIX"`
	KafkaBrokers     string `mapstructure:"KAFKA_BROKERS"`
	KafkaGroupID     string `mapstructure:"KAFKA_GROUP_ID"`

	SMTPHost string `mapstructure:"SMTP_HOST"`
	SMTPPort int    `mapstructure:"SMTP_PORT"`
	SMTPUser string `mapstructure:"SMTP_USER"`
	SMTPPass string `mapstructure:"SMTP_PASS"`
	MailFrom string `mapstructure:"MAIL_FROM"`

	Locale       string `mapstructure:"LOCALE"`
	Timezone     string `mapstructure:"TIMEZONE"`
	FilesBaseURL string `mapstructure:"FILES_BASE_URL"`
	CORSOrigins  string `mapstructure:"CORS_ORIGINS"`

	OTelEnabled     bool    `mapstructure:"OTEL_ENABLED"`
	OTelEndpoint    string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelSampleRatio float64 `mapstructure:"OTEL_SAMPLING_RATIO"`
}

var defaults = map[string]any{
	"PORT":                        "6060",
	"ENV":                         "development",
	"LOG_LEVEL":                   "info",
	"DATABASE_DRIVER":             "sqlite",
	"DATABASE_URL":                "./database.db",
	"AUTH_MODE":                   "jwt",
	"JWT_SECRET":                  "",
	"JWT_ISSUER":                  "",
	"COGNITO_REGION":              "",
	"QUEUE_BACKEND":               "inline",
	"QUEUE_BUFFER":                256,
	"QUEUE_MAX_ATTEMPTS":          3,
	"REDIS_ADDR":                  "localhost:6379",
	"REDIS_PASSWORD":              "",
	"REDIS_DB":                    0,
	"REDIS_QUEUE_PREFIX":          "bq:",
	"KAFKA_BROKERS":               "localhost:9092",
	"KAFKA_GROUP_ID":              "slotbook-worker",
	"SMTP_HOST":                   "localhost",
	"SMTP_PORT":                   1025,
	"SMTP_USER":                   "",
	"SMTP_PASS":                   "",
	"MAIL_FROM":                   "Slotbook <noreply@slotbook.local>",
	"LOCALE":                      "en-US",
	"TIMEZONE":                    "UTC",
	"FILES_BASE_URL":              "",
	"CORS_ORIGINS":                "*",
	"OTEL_ENABLED":                false,
	"OTEL_EXPORTER_OTLP_ENDPOINT": "localhost:4317",
	"OTEL_SAMPLING_RATIO":         1.0,
}

// Load reads .env (when present) into the environment and builds the
// configuration from environment variables on top of the defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warnf("no .env file loaded: %v", err)
	}
	return FromViper(viper.New())
}

func FromViper(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
		_ = v.BindEnv(key)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be sqlite or postgres, got %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	switch c.AuthMode {
	case "jwt":
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_MODE=jwt")
		}
	case "cognito":
		if c.CognitoRegion == "" {
			return fmt.Errorf("COGNITO_REGION is required when AUTH_MODE=cognito")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be jwt or cognito, got %q", c.AuthMode)
	}

	switch c.QueueBackend {
	case "inline", "redis", "kafka":
	default:
		return fmt.Errorf("QUEUE_BACKEND must be inline, redis or kafka, got %q", c.QueueBackend)
	}
	if c.QueueBuffer <= 0 {
		return fmt.Errorf("QUEUE_BUFFER must be positive")
	}
	if c.QueueMaxAttempts <= 0 {
		return fmt.Errorf("QUEUE_MAX_ATTEMPTS must be positive")
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c *Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// GommonLevel maps LOG_LEVEL onto gommon levels, defaulting to INFO.
func (c *Config) GommonLevel() log.Lvl {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}
