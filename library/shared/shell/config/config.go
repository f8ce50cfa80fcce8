package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// Database drivers selectable with DB_DRIVER.
const (
	DriverPGX   = "pgx"
	DriverSQLDB = "sqldb"
	DriverSQLX  = "sqlx"
)

// ErrInvalidConfig is joined to every configuration error returned by Load.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete service configuration.
type Config struct {
	Env      string
	LogLevel slog.Level
	HTTP     HTTPConfig
	Database DatabaseConfig
	Redis    RedisConfig
	OTel     OTelConfig
	Sweep    SweepConfig
	Policy   circulation.Policy
}

// HTTPConfig configures the HTTP API.
type HTTPConfig struct {
	Addr           string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// DatabaseConfig configures the PostgreSQL connection. ReplicaDSN is optional and only used with DriverPGX.
type DatabaseConfig struct {
	Driver      string
	DSN         string
	ReplicaDSN  string
	MaxConns    int
	TablePrefix string
}

// RedisConfig configures notification publishing. An empty Addr disables Redis and notifications are only logged.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// Enabled reports whether notifications are published to Redis.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// OTelConfig configures the OpenTelemetry exporters.
type OTelConfig struct {
	Enabled        bool
	ServiceName    string
	TraceEndpoint  string
	MetricEndpoint string
	MetricInterval time.Duration
}

// SweepConfig configures the expiry and overdue sweeper.
type SweepConfig struct {
	Interval  time.Duration
	BatchSize int
}

// Load reads the given env files (".env" when none are given), skipping missing ones,
// and parses the configuration from the environment.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, errors.Join(ErrInvalidConfig, fmt.Errorf("load %s: %w", file, err))
		}
	}

	return FromEnv()
}

// FromEnv parses the configuration from the environment without reading env files.
func FromEnv() (Config, error) {
	p := envParser{}
	defaults := circulation.DefaultPolicy()

	cfg := Config{
		Env:      p.string("ENV", "development"),
		LogLevel: p.logLevel("LOG_LEVEL", slog.LevelInfo),
		HTTP: HTTPConfig{
			Addr:           p.string("LISTEN_ADDR", ":8080"),
			AllowedOrigins: p.list("ALLOWED_ORIGINS"),
			RateLimitRPS:   p.float("RATE_RPS", 50),
			RateLimitBurst: p.int("RATE_BURST", 100),
		},
		Database: DatabaseConfig{
			Driver:      p.string("DB_DRIVER", DriverPGX),
			DSN:         p.string("DATABASE_URL", ""),
			ReplicaDSN:  p.string("DATABASE_REPLICA_URL", ""),
			MaxConns:    p.int("DB_MAX_CONNS", 20),
			TablePrefix: p.string("DB_TABLE_PREFIX", ""),
		},
		Redis: RedisConfig{
			Addr:     p.string("REDIS_ADDR", ""),
			Password: p.string("REDIS_PASSWORD", ""),
			DB:       p.int("REDIS_DB", 0),
			Channel:  p.string("NOTIFY_CHANNEL", "circulation:notifications"),
		},
		OTel: OTelConfig{
			Enabled:        p.bool("OTEL_ENABLED", false),
			ServiceName:    p.string("OTEL_SERVICE_NAME", "circulationd"),
			TraceEndpoint:  p.string("OTEL_TRACE_ENDPOINT", "localhost:4317"),
			MetricEndpoint: p.string("OTEL_METRIC_ENDPOINT", "localhost:4317"),
			MetricInterval: p.duration("OTEL_METRIC_INTERVAL", 5*time.Second),
		},
		Sweep: SweepConfig{
			Interval:  p.duration("SWEEP_INTERVAL", time.Minute),
			BatchSize: p.int("SWEEP_BATCH_SIZE", 100),
		},
		Policy: circulation.Policy{
			MaxRenewals:        p.int("MAX_RENEWALS", defaults.MaxRenewals),
			ExtensionDays:      p.int("EXTENSION_DAYS", defaults.ExtensionDays),
			MaxBorrowDays:      p.int("MAX_BORROW_DAYS", defaults.MaxBorrowDays),
			MaxRequestSpanDays: p.int("MAX_REQUEST_SPAN_DAYS", defaults.MaxRequestSpanDays),
			PickupWindow:       p.duration("PICKUP_WINDOW", defaults.PickupWindow),
		},
	}

	if err := errors.Join(p.errs...); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the cross-field rules of the configuration.
func (c Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverPGX, DriverSQLDB, DriverSQLX:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be one of %s, %s, %s", DriverPGX, DriverSQLDB, DriverSQLX))
	}

	if c.Database.ReplicaDSN != "" && c.Database.Driver != DriverPGX {
		errs = append(errs, errors.New("DATABASE_REPLICA_URL requires DB_DRIVER=pgx"))
	}

	if c.Database.MaxConns <= 0 {
		errs = append(errs, errors.New("DB_MAX_CONNS must be > 0"))
	}

	if c.HTTP.RateLimitRPS <= 0 {
		errs = append(errs, errors.New("RATE_RPS must be > 0"))
	}

	if c.HTTP.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("RATE_BURST must be > 0"))
	}

	if c.Sweep.Interval <= 0 {
		errs = append(errs, errors.New("SWEEP_INTERVAL must be > 0"))
	}

	if c.Sweep.BatchSize <= 0 {
		errs = append(errs, errors.New("SWEEP_BATCH_SIZE must be > 0"))
	}

	if err := c.Policy.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return nil
	}

	return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
}

// envParser collects parse errors so that Load reports every malformed variable at once.
type envParser struct {
	errs []error
}

func (p *envParser) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)

	return v, ok && v != ""
}

func (p *envParser) string(key, def string) string {
	if v, ok := p.lookup(key); ok {
		return v
	}

	return def
}

func (p *envParser) list(key string) []string {
	v, ok := p.lookup(key)
	if !ok {
		return nil
	}

	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}

func (p *envParser) int(key string, def int) int {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}

	return i
}

func (p *envParser) float(key string, def float64) float64 {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}

	return f
}

func (p *envParser) bool(key string, def bool) bool {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}

	return b
}

func (p *envParser) duration(key string, def time.Duration) time.Duration {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}

	return d
}

func (p *envParser) logLevel(key string, def slog.Level) slog.Level {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}

	return level
}
