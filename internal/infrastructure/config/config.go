package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variable overrides
const EnvPrefix = "STOCKSYNC"

// Config holds all configuration for the application
type Config struct {
	App         AppConfig
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Log         LogConfig
	Telemetry   TelemetryConfig
	Auth        AuthConfig
	Scheduler   SchedulerConfig
	Marketplace MarketplaceConfig
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name string
	Env  string `validate:"oneof=development testing staging production"`
	Port string `validate:"numeric"`
	// DefaultCell is the storage cell decremented for marketplace orders
	DefaultCell string `validate:"required"`
	// PublicURL is the externally reachable base URL used for webhook callbacks
	PublicURL string `validate:"omitempty,url"`
}

// HTTPConfig holds HTTP server settings
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxBodySize    int64 `validate:"gt=0"`
	TrustedProxies []string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int `validate:"gt=0,lte=65535"`
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds redis settings. The run lock falls back to an in-process
// lock when redis is disabled.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int `validate:"gt=0,lte=65535"`
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"` // debug, info, warn, error
	Format string `validate:"oneof=json console"`          // json, console
	Output string                                          // stdout, stderr, or file path
}

// TelemetryConfig holds tracing and metrics settings
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
	MetricsEnabled    bool
	// LogsEnabled exports zap entries over OTLP next to the local output
	LogsEnabled       bool
	DBSlowQueryThresh time.Duration
}

// AuthConfig holds credentials for the operator API and webhook receivers
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	TokenTTL  time.Duration
	// WebhookSecret is the shared token marketplaces send back on callbacks
	WebhookSecret string
}

// SchedulerConfig controls the periodic reconciliation loop
type SchedulerConfig struct {
	Enabled bool
	// Interval between runs
	Interval time.Duration
	// RunTimeout is the wall-clock budget of one run
	RunTimeout time.Duration
	// Lookback is used for platforms with no stored cursor
	Lookback time.Duration
}

// MarketplaceConfig holds per-platform credentials and shared HTTP settings
type MarketplaceConfig struct {
	HTTP MarketplaceHTTPConfig
	WB   WBConfig
	Ozon OzonConfig
	YM   YMConfig
}

// MarketplaceHTTPConfig holds outbound request settings shared by all adapters
type MarketplaceHTTPConfig struct {
	Timeout       time.Duration
	MaxAttempts   int `validate:"gte=1,lte=5"`
	Backoff       time.Duration
	RatePerSecond float64 `validate:"gt=0"`
	Burst         int     `validate:"gte=1"`
}

// WBConfig holds Wildberries credentials
type WBConfig struct {
	Token          string
	WarehouseID    string
	MarketplaceURL string
	SuppliersURL   string
	ContentURL     string
}

// OzonConfig holds Ozon Seller credentials
type OzonConfig struct {
	ClientID    string
	APIKey      string
	WarehouseID string
	BaseURL     string
}

// YMConfig holds Yandex Market credentials
type YMConfig struct {
	Token      string
	CampaignID string
	BaseURL    string
}

// Load loads configuration from .env, TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with STOCKSYNC_ prefix (e.g., STOCKSYNC_MARKETPLACE_OZON_API_KEY)
// 2. .env file in the working directory
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/stocksync")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:        v.GetString("app.name"),
			Env:         v.GetString("app.env"),
			Port:        v.GetString("app.port"),
			DefaultCell: v.GetString("app.default_cell"),
			PublicURL:   v.GetString("app.public_url"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
		Auth: AuthConfig{
			JWTSecret:     v.GetString("auth.jwt_secret"),
			Issuer:        v.GetString("auth.issuer"),
			TokenTTL:      v.GetDuration("auth.token_ttl"),
			WebhookSecret: v.GetString("auth.webhook_secret"),
		},
		Scheduler: SchedulerConfig{
			Enabled:    v.GetBool("scheduler.enabled"),
			Interval:   v.GetDuration("scheduler.interval"),
			RunTimeout: v.GetDuration("scheduler.run_timeout"),
			Lookback:   v.GetDuration("scheduler.lookback"),
		},
		Marketplace: MarketplaceConfig{
			HTTP: MarketplaceHTTPConfig{
				Timeout:       v.GetDuration("marketplace.http.timeout"),
				MaxAttempts:   v.GetInt("marketplace.http.max_attempts"),
				Backoff:       v.GetDuration("marketplace.http.backoff"),
				RatePerSecond: v.GetFloat64("marketplace.http.rate_per_second"),
				Burst:         v.GetInt("marketplace.http.burst"),
			},
			WB: WBConfig{
				Token:          v.GetString("marketplace.wb.token"),
				WarehouseID:    v.GetString("marketplace.wb.warehouse_id"),
				MarketplaceURL: v.GetString("marketplace.wb.marketplace_url"),
				SuppliersURL:   v.GetString("marketplace.wb.suppliers_url"),
				ContentURL:     v.GetString("marketplace.wb.content_url"),
			},
			Ozon: OzonConfig{
				ClientID:    v.GetString("marketplace.ozon.client_id"),
				APIKey:      v.GetString("marketplace.ozon.api_key"),
				WarehouseID: v.GetString("marketplace.ozon.warehouse_id"),
				BaseURL:     v.GetString("marketplace.ozon.base_url"),
			},
			YM: YMConfig{
				Token:      v.GetString("marketplace.ym.token"),
				CampaignID: v.GetString("marketplace.ym.campaign_id"),
				BaseURL:    v.GetString("marketplace.ym.base_url"),
			},
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "stocksync"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.DefaultCell == "" {
		cfg.App.DefaultCell = "A1"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 120 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 2 << 20 // 2MB
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "stocksync"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "stocksync"
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "stocksync"
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 12 * time.Hour
	}
	if cfg.Scheduler.Interval == 0 {
		cfg.Scheduler.Interval = 15 * time.Minute
	}
	if cfg.Scheduler.RunTimeout == 0 {
		cfg.Scheduler.RunTimeout = 5 * time.Minute
	}
	if cfg.Scheduler.Lookback == 0 {
		cfg.Scheduler.Lookback = 24 * time.Hour
	}
	if cfg.Marketplace.HTTP.Timeout == 0 {
		cfg.Marketplace.HTTP.Timeout = 20 * time.Second
	}
	if cfg.Marketplace.HTTP.MaxAttempts == 0 {
		cfg.Marketplace.HTTP.MaxAttempts = 3
	}
	if cfg.Marketplace.HTTP.Backoff == 0 {
		cfg.Marketplace.HTTP.Backoff = 500 * time.Millisecond
	}
	if cfg.Marketplace.HTTP.RatePerSecond == 0 {
		cfg.Marketplace.HTTP.RatePerSecond = 5
	}
	if cfg.Marketplace.HTTP.Burst == 0 {
		cfg.Marketplace.HTTP.Burst = 5
	}
	if cfg.Marketplace.WB.MarketplaceURL == "" {
		cfg.Marketplace.WB.MarketplaceURL = "https://marketplace-api.wildberries.ru"
	}
	if cfg.Marketplace.WB.SuppliersURL == "" {
		cfg.Marketplace.WB.SuppliersURL = "https://suppliers-api.wildberries.ru"
	}
	if cfg.Marketplace.WB.ContentURL == "" {
		cfg.Marketplace.WB.ContentURL = "https://content-api.wildberries.ru"
	}
	if cfg.Marketplace.Ozon.BaseURL == "" {
		cfg.Marketplace.Ozon.BaseURL = "https://api-seller.ozon.ru"
	}
	if cfg.Marketplace.YM.BaseURL == "" {
		cfg.Marketplace.YM.BaseURL = "https://api.partner.market.yandex.ru"
	}
}

var structValidator = validator.New()

// validate performs validation on the configuration
func (c *Config) validate() error {
	if err := structValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Scheduler.Interval < 0 || c.Scheduler.RunTimeout < 0 {
		return fmt.Errorf("scheduler.interval and scheduler.run_timeout cannot be negative")
	}
	if c.Scheduler.Enabled && c.Scheduler.RunTimeout > c.Scheduler.Interval {
		return fmt.Errorf("scheduler.run_timeout (%s) cannot exceed scheduler.interval (%s)",
			c.Scheduler.RunTimeout, c.Scheduler.Interval)
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	if c.App.Env == "production" {
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("auth.jwt_secret must be at least 32 characters in production")
		}
		if c.Auth.WebhookSecret == "" {
			return fmt.Errorf("auth.webhook_secret is required in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
