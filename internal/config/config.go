package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	JWT         JWTConfig       `mapstructure:"jwt"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Minio       MinioConfig     `mapstructure:"minio"`
	Stripe      StripeConfig    `mapstructure:"stripe"`
	App         AppConfig       `mapstructure:"app"`
	Log         LogConfig       `mapstructure:"log"`
	RateLimit   RateLimitConfig `mapstructure:"ratelimit"`
	Jobs        JobsConfig      `mapstructure:"jobs"`
}

type ServerConfig struct {
	Port      string `mapstructure:"port"`
	StaticDir string `mapstructure:"staticdir"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"maxconns"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
}

type StripeConfig struct {
	APIKey        string `mapstructure:"api_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	PriceID       string `mapstructure:"price_id"`
}

type AppConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type RateLimitConfig struct {
	// Requests per second per client IP on the registration and login routes.
	AuthRPS   float64 `mapstructure:"auth_rps"`
	AuthBurst int     `mapstructure:"auth_burst"`
}

type JobsConfig struct {
	TrialSweepInterval time.Duration `mapstructure:"trial_sweep_interval"`
}

var ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")

var defaults = map[string]interface{}{
	"environment":               "development",
	"server.port":               "8000",
	"server.staticdir":          "static",
	"database.url":              "",
	"database.maxconns":         0,
	"jwt.secret":                "",
	"jwt.ttl":                   30 * time.Minute,
	"redis.addr":                "localhost:6379",
	"redis.password":            "",
	"redis.db":                  0,
	"minio.endpoint":            "localhost:9000",
	"minio.access_key":          "minioadmin",
	"minio.secret_key":          "minioadmin",
	"minio.use_ssl":             false,
	"minio.bucket":              "student-photos",
	"stripe.api_key":            "",
	"stripe.webhook_secret":     "",
	"stripe.price_id":           "",
	"app.base_url":              "http://localhost:8000",
	"log.level":                 "info",
	"ratelimit.auth_rps":        1.0,
	"ratelimit.auth_burst":      5,
	"jobs.trial_sweep_interval": time.Hour,
}

// Load reads configuration from the environment and, when configFile is not
// empty, from that file. Keys map to environment variables by upper-casing
// and replacing dots with underscores, so database.url is DATABASE_URL.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The bare PORT variable is what most hosting platforms set.
	if err := v.BindEnv("server.port", "PORT", "SERVER_PORT"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("server.staticdir", "STATIC_DIR"); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return ErrMissingDatabaseURL
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// CheckoutSuccessURL and CheckoutCancelURL are the billing redirect targets.
func (c *Config) CheckoutSuccessURL() string {
	return c.App.BaseURL + "?payment_success=true"
}

func (c *Config) CheckoutCancelURL() string {
	return c.App.BaseURL + "?payment_canceled=true"
}
