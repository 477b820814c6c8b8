// Package config holds the service settings and their validation.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/poiesic/ledgermatch/ai"
	"github.com/poiesic/ledgermatch/fuzzy"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrInvalidConfig wraps every validation failure returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds server, data and ranking settings.
type Config struct {
	// APIHost is the interface the HTTP server binds to.
	APIHost string `validate:"required"`

	// APIPort is the HTTP listen port.
	APIPort int `validate:"min=1,max=65535"`

	// UsersPath is the CSV file users are loaded from.
	UsersPath string

	// TransactionsPath is the CSV file transactions are loaded from.
	TransactionsPath string

	// SimilarityThreshold is the minimum transformed similarity a search result must exceed.
	SimilarityThreshold float64 `validate:"gte=0,lte=1"`

	LogLevel string `validate:"oneof=debug info warn error"`

	// EnableCaching turns on the persistent embedding cache.
	EnableCaching bool

	// CacheTTL bounds how long cached embeddings live. Zero keeps them forever.
	CacheTTL time.Duration `validate:"gte=0"`

	// DBPath is the BadgerDB directory. Empty runs in memory.
	DBPath string

	// MatchMetric selects the edit-distance ratio used by the fuzzy tiers.
	MatchMetric string `validate:"oneof=indel levenshtein"`

	// ProviderTimeout bounds every embedding provider call.
	ProviderTimeout time.Duration `validate:"gt=0"`

	// ResultPrecision is the number of decimals scores are rounded to. -1 disables rounding.
	ResultPrecision int `validate:"gte=-1,lte=15"`

	// Embedding configures the embedding backend.
	Embedding *ai.Config `validate:"required"`
}

// Option is a functional option for configuring a Config.
type Option func(*Config)

// WithAPIHost sets the bind host.
func WithAPIHost(host string) Option {
	return func(c *Config) {
		c.APIHost = host
	}
}

// WithAPIPort sets the listen port.
func WithAPIPort(port int) Option {
	return func(c *Config) {
		c.APIPort = port
	}
}

// WithDataPaths sets the users and transactions CSV paths.
func WithDataPaths(users, transactions string) Option {
	return func(c *Config) {
		c.UsersPath = users
		c.TransactionsPath = transactions
	}
}

// WithSimilarityThreshold sets the search threshold.
func WithSimilarityThreshold(t float64) Option {
	return func(c *Config) {
		c.SimilarityThreshold = t
	}
}

// WithLogLevel sets the log level name.
func WithLogLevel(level string) Option {
	return func(c *Config) {
		c.LogLevel = level
	}
}

// WithCaching enables or disables the embedding cache and sets its TTL.
func WithCaching(enabled bool, ttl time.Duration) Option {
	return func(c *Config) {
		c.EnableCaching = enabled
		c.CacheTTL = ttl
	}
}

// WithDBPath sets the database directory.
func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

// WithMatchMetric sets the fuzzy ratio metric.
func WithMatchMetric(metric string) Option {
	return func(c *Config) {
		c.MatchMetric = metric
	}
}

// WithProviderTimeout sets the per-call embedding timeout.
func WithProviderTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.ProviderTimeout = d
	}
}

// WithResultPrecision sets the number of decimals scores are rounded to.
func WithResultPrecision(decimals int) Option {
	return func(c *Config) {
		c.ResultPrecision = decimals
	}
}

// WithEmbedding replaces the embedding configuration.
func WithEmbedding(cfg *ai.Config) Option {
	return func(c *Config) {
		c.Embedding = cfg
	}
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		APIHost:             "0.0.0.0",
		APIPort:             8000,
		UsersPath:           "data/users.csv",
		TransactionsPath:    "data/transactions.csv",
		SimilarityThreshold: 0.3,
		LogLevel:            "info",
		EnableCaching:       true,
		CacheTTL:            3600 * time.Second,
		MatchMetric:         fuzzy.MetricIndel,
		ProviderTimeout:     30 * time.Second,
		ResultPrecision:     2,
		Embedding:           ai.DefaultConfig(),
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
func NewConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize puts the configuration in canonical form.
func (c *Config) Normalize() {
	c.APIHost = strings.TrimSpace(c.APIHost)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "warning" {
		c.LogLevel = "warn"
	}
	c.MatchMetric = strings.ToLower(strings.TrimSpace(c.MatchMetric))
	if c.MatchMetric == "" {
		c.MatchMetric = fuzzy.MetricIndel
	}
	if c.Embedding != nil {
		c.Embedding.Normalize()
	}
}

// Validate normalizes the configuration and checks it, including the embedding settings.
func (c *Config) Validate() error {
	c.Normalize()

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, describe(err))
	}
	if err := c.Embedding.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.APIHost, strconv.Itoa(c.APIPort))
}

// Level maps LogLevel to a slog.Level, defaulting to info.
func (c *Config) Level() slog.Level {
	return ParseLevel(c.LogLevel)
}

// ParseLevel maps a level name to a slog.Level. Unknown names map to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed rule '%s' (param '%s', got '%v')", fe.StructField(), fe.Tag(), fe.Param(), fe.Value()))
	}
	return strings.Join(parts, "; ")
}
