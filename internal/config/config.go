// Package config reads service settings from flags, falling back to
// environment variables (optionally loaded from a .env file).
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/rl1809/vote-score/internal/adapter/storage"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreMySQL  = "mysql"
)

type Config struct {
	HTTPAddr        string
	GRPCAddr        string
	Store           string
	RedisAddr       string
	RedisKey        string
	MySQLDSN        string
	LogLevel        string
	LogFormat       string
	JournalWorkers  int
	JournalQueue    int
	ShutdownTimeout time.Duration
}

// LoadDotEnv loads the given files (".env" when none) into the process
// environment. Missing files are not an error; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load parses args over defaults taken from getenv.
func Load(name string, args []string, getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	journalWorkers, err := strconv.Atoi(env("JOURNAL_WORKERS", "4"))
	if err != nil {
		return nil, fmt.Errorf("JOURNAL_WORKERS: %w", err)
	}
	journalQueue, err := strconv.Atoi(env("JOURNAL_QUEUE_SIZE", "1024"))
	if err != nil {
		return nil, fmt.Errorf("JOURNAL_QUEUE_SIZE: %w", err)
	}
	shutdownTimeout, err := time.ParseDuration(env("SHUTDOWN_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
	}

	httpAddr := ":8080"
	if port := getenv("PORT"); port != "" {
		httpAddr = ":" + port
	}

	var c Config
	fset := flag.NewFlagSet(name, flag.ContinueOnError)
	fset.SetOutput(io.Discard)
	fset.StringVar(&c.HTTPAddr, "http-addr", env("HTTP_ADDR", httpAddr), "HTTP listen address")
	fset.StringVar(&c.GRPCAddr, "grpc-addr", env("GRPC_ADDR", ":50051"), "gRPC listen address, empty disables gRPC")
	fset.StringVar(&c.Store, "store", env("STORE", StoreMemory), "memory|redis|mysql")
	fset.StringVar(&c.RedisAddr, "redis", env("REDIS_ADDR", "localhost:6379"), "addr:port of redis")
	fset.StringVar(&c.RedisKey, "redis-key", env("REDIS_KEY", storage.DefaultRedisKey), "hash key holding the score")
	fset.StringVar(&c.MySQLDSN, "mysql-dsn", env("MYSQL_DSN", ""), "mysql DSN, also enables the vote journal")
	fset.StringVar(&c.LogLevel, "log-level", env("LOG_LEVEL", "info"), "debug|info|warn|error")
	fset.StringVar(&c.LogFormat, "log-format", env("LOG_FORMAT", "json"), "json|console")
	fset.IntVar(&c.JournalWorkers, "journal-workers", journalWorkers, "number of vote journal workers")
	fset.IntVar(&c.JournalQueue, "journal-queue", journalQueue, "vote journal queue size, 0 disables")
	fset.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", shutdownTimeout, "graceful shutdown timeout")

	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreRedis:
	case StoreMySQL:
		if c.MySQLDSN == "" {
			return errors.New("store=mysql requires a mysql DSN")
		}
	default:
		return fmt.Errorf("unknown store: %q", c.Store)
	}

	if c.HTTPAddr == "" {
		return errors.New("http address must be set")
	}
	if c.JournalWorkers < 0 || c.JournalQueue < 0 {
		return errors.New("journal workers and queue size must not be negative")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	return nil
}

// JournalEnabled reports whether applied votes should be persisted to MySQL.
func (c *Config) JournalEnabled() bool {
	return c.MySQLDSN != "" && c.JournalWorkers > 0 && c.JournalQueue > 0
}
