package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress        string
	DatabaseURI       string
	BackendAddress    string
	BackendToken      string
	RedisAddress      string
	AuthCookieName    string
	OrderRecheckDelay time.Duration
	PollInterval      time.Duration
	WorkerPoolSize    int
	MaxOrdersBatch    int
	ShutdownTimeout   time.Duration
}

const (
	defaultRunAddress        = ":8080"
	defaultRedisAddress      = "localhost:6379"
	defaultAuthCookieName    = "dominate_token"
	defaultOrderRecheckDelay = time.Minute
	defaultPollInterval      = 30 * time.Second
	defaultWorkerPoolSize    = 4
	defaultMaxOrdersBatch    = 32
	defaultShutdownTimeout   = 10 * time.Second
)

// Load parses configuration from flags and environment variables. A local
// .env file is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:        getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:       getString(lookup, "DATABASE_URI", ""),
		BackendAddress:    getString(lookup, "BACKEND_ADDRESS", ""),
		BackendToken:      getString(lookup, "BACKEND_TOKEN", ""),
		RedisAddress:      getString(lookup, "REDIS_ADDRESS", defaultRedisAddress),
		AuthCookieName:    getString(lookup, "AUTH_COOKIE_NAME", defaultAuthCookieName),
		OrderRecheckDelay: getDuration(lookup, "ORDER_RECHECK_DELAY", defaultOrderRecheckDelay),
		PollInterval:      getDuration(lookup, "POLL_INTERVAL", defaultPollInterval),
		WorkerPoolSize:    getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		MaxOrdersBatch:    getInt(lookup, "POLL_BATCH_SIZE", defaultMaxOrdersBatch),
		ShutdownTimeout:   getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("payportal", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		recheckDelayStr    = cfg.OrderRecheckDelay.String()
		pollIntervalStr    = cfg.PollInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.BackendAddress, "b", cfg.BackendAddress, "Portal backend base URL")
	fs.StringVar(&cfg.RedisAddress, "redis", cfg.RedisAddress, "Redis address for payment topics")
	fs.StringVar(&cfg.AuthCookieName, "auth-cookie", cfg.AuthCookieName, "Cookie carrying the bearer token")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent settlement workers")
	fs.StringVar(&recheckDelayStr, "recheck-delay", recheckDelayStr, "Deferred order re-check delay per view")
	fs.StringVar(&pollIntervalStr, "poll-interval", pollIntervalStr, "Interval between settlement sweeps")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.IntVar(&cfg.MaxOrdersBatch, "poll-batch", cfg.MaxOrdersBatch, "Maximum orders per settlement sweep")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.OrderRecheckDelay, err = time.ParseDuration(recheckDelayStr); err != nil {
		return nil, fmt.Errorf("invalid recheck delay: %w", err)
	}

	if cfg.PollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid poll interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if tokenFile, ok := lookup("BACKEND_TOKEN_FILE"); ok && tokenFile != "" {
		content, err := os.ReadFile(tokenFile)
		if err != nil {
			return nil, fmt.Errorf("read backend token file: %w", err)
		}
		cfg.BackendToken = string(content)
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.MaxOrdersBatch <= 0 {
		cfg.MaxOrdersBatch = defaultMaxOrdersBatch
	}

	if cfg.OrderRecheckDelay <= 0 {
		cfg.OrderRecheckDelay = defaultOrderRecheckDelay
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.AuthCookieName == "" {
		cfg.AuthCookieName = defaultAuthCookieName
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.BackendAddress == "" {
		return nil, fmt.Errorf("backend address must be provided")
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
