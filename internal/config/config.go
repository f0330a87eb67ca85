package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress        string
	DatabaseURI       string
	RedisAddress      string
	RedisPassword     string
	RedisDB           int
	KafkaBrokers      []string
	EventsTopic       string
	JWTSecret         string
	TokenTTL          time.Duration
	ShutdownTimeout   time.Duration
	SubmissionTimeout time.Duration
	CartTTL           time.Duration
	RelayPollInterval time.Duration
	RelayBatchSize    int
	RelayWorkers      int
	LogLevel          slog.Level
}

const (
	defaultRunAddress        = ":8080"
	defaultRedisAddress      = "localhost:6379"
	defaultEventsTopic       = "storefront.orders"
	defaultJWTSecret         = "change-me-in-production"
	defaultTokenTTL          = 24 * time.Hour
	defaultShutdownTimeout   = 10 * time.Second
	defaultSubmissionTimeout = 30 * time.Second
	defaultCartTTL           = 30 * 24 * time.Hour
	defaultRelayPollInterval = 2 * time.Second
	defaultRelayBatchSize    = 50
	defaultRelayWorkers      = 2
)

// Load reads an optional .env file, then parses configuration from flags and
// environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:        getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:       getString(lookup, "DATABASE_URI", ""),
		RedisAddress:      getString(lookup, "REDIS_ADDRESS", defaultRedisAddress),
		RedisPassword:     getString(lookup, "REDIS_PASSWORD", ""),
		RedisDB:           getInt(lookup, "REDIS_DB", 0),
		EventsTopic:       getString(lookup, "EVENTS_TOPIC", defaultEventsTopic),
		JWTSecret:         getString(lookup, "JWT_SECRET", defaultJWTSecret),
		TokenTTL:          getDuration(lookup, "TOKEN_TTL", defaultTokenTTL),
		ShutdownTimeout:   getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		SubmissionTimeout: getDuration(lookup, "SUBMISSION_TIMEOUT", defaultSubmissionTimeout),
		CartTTL:           getDuration(lookup, "CART_TTL", defaultCartTTL),
		RelayPollInterval: getDuration(lookup, "RELAY_POLL_INTERVAL", defaultRelayPollInterval),
		RelayBatchSize:    getInt(lookup, "RELAY_BATCH_SIZE", defaultRelayBatchSize),
		RelayWorkers:      getInt(lookup, "RELAY_WORKERS", defaultRelayWorkers),
	}

	flags := flag.NewFlagSet("storefront", flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	var (
		kafkaBrokers         = getString(lookup, "KAFKA_BROKERS", "")
		logLevel             = getString(lookup, "LOG_LEVEL", "info")
		shutdownTimeoutStr   = cfg.ShutdownTimeout.String()
		submissionTimeoutStr = cfg.SubmissionTimeout.String()
		relayIntervalStr     = cfg.RelayPollInterval.String()
	)

	flags.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	flags.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	flags.StringVar(&cfg.RedisAddress, "redis", cfg.RedisAddress, "Redis address for carts and checkout sessions")
	flags.StringVar(&kafkaBrokers, "kafka", kafkaBrokers, "Comma separated Kafka brokers, empty disables publishing")
	flags.StringVar(&cfg.EventsTopic, "topic", cfg.EventsTopic, "Kafka topic for order events")
	flags.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing auth tokens")
	flags.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	flags.StringVar(&submissionTimeoutStr, "submission-timeout", submissionTimeoutStr, "Bound after which an unresolved order submission becomes retry eligible")
	flags.StringVar(&relayIntervalStr, "relay-interval", relayIntervalStr, "Interval between outbox polls")
	flags.IntVar(&cfg.RelayBatchSize, "relay-batch", cfg.RelayBatchSize, "Maximum events per outbox poll")
	flags.IntVar(&cfg.RelayWorkers, "relay-workers", cfg.RelayWorkers, "Number of concurrent event publishers")
	flags.StringVar(&logLevel, "log-level", logLevel, "Log level: debug, info, warn, error")

	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.SubmissionTimeout, err = time.ParseDuration(submissionTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid submission timeout: %w", err)
	}

	if cfg.RelayPollInterval, err = time.ParseDuration(relayIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid relay interval: %w", err)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	cfg.KafkaBrokers = splitList(kafkaBrokers)

	if secretFile, ok := lookup("JWT_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = strings.TrimSpace(string(content))
	}

	if cfg.RelayWorkers <= 0 {
		cfg.RelayWorkers = defaultRelayWorkers
	}

	if cfg.RelayBatchSize <= 0 {
		cfg.RelayBatchSize = defaultRelayBatchSize
	}

	if cfg.RelayPollInterval <= 0 {
		cfg.RelayPollInterval = defaultRelayPollInterval
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.SubmissionTimeout <= 0 {
		cfg.SubmissionTimeout = defaultSubmissionTimeout
	}

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	if cfg.CartTTL <= 0 {
		cfg.CartTTL = defaultCartTTL
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.RedisAddress == "" {
		return nil, fmt.Errorf("redis address must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
