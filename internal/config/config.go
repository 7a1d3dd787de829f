package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string
	GRPCAddr string

	MySQLDSN             string
	MySQLMaxOpenConns    int
	MySQLMaxIdleConns    int
	MySQLConnMaxLifetime time.Duration
	Migrate              bool

	RedisAddr     string
	RedisPoolSize int

	KafkaBrokers []string
	EventsTopic  string

	IdempotencyTTL  time.Duration
	CartMaxItems    int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	LogLevel        slog.Level
}

// Load reads the process environment once at startup.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom builds a Config from getenv. The first malformed value is reported.
func LoadFrom(getenv func(string) string) (Config, error) {
	r := reader{getenv: getenv}

	cfg := Config{
		HTTPAddr: r.str("HTTP_ADDR", ":8080"),
		GRPCAddr: r.str("GRPC_ADDR", ":50051"),

		MySQLDSN:             r.str("MYSQL_DSN", "root:root@tcp(localhost:3306)/marketplace?parseTime=true"),
		MySQLMaxOpenConns:    r.integer("MYSQL_MAX_OPEN_CONNS", 50),
		MySQLMaxIdleConns:    r.integer("MYSQL_MAX_IDLE_CONNS", 25),
		MySQLConnMaxLifetime: r.duration("MYSQL_CONN_MAX_LIFETIME", 5*time.Minute),
		Migrate:              r.boolean("MIGRATE", true),

		RedisAddr:     r.str("REDIS_ADDR", "localhost:6379"),
		RedisPoolSize: r.integer("REDIS_POOL_SIZE", 100),

		KafkaBrokers: r.list("KAFKA_BROKERS"),
		EventsTopic:  r.str("EVENTS_TOPIC", "marketplace.orders"),

		IdempotencyTTL:  r.duration("IDEMPOTENCY_TTL", 24*time.Hour),
		CartMaxItems:    r.integer("CART_MAX_ITEMS", 50),
		RequestTimeout:  r.duration("REQUEST_TIMEOUT", 5*time.Second),
		ShutdownTimeout: r.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:        r.level("LOG_LEVEL", slog.LevelInfo),
	}
	if r.err != nil {
		return Config{}, r.err
	}
	return cfg, nil
}

type reader struct {
	getenv func(string) string
	err    error
}

func (r *reader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *reader) fail(key, v string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("config %s=%q: %w", key, v, err)
	}
}

func (r *reader) integer(key string, def int) int {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	if n < 0 {
		r.fail(key, v, fmt.Errorf("must not be negative"))
		return def
	}
	return n
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return d
}

func (r *reader) boolean(key string, def bool) bool {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return b
}

func (r *reader) level(key string, def slog.Level) slog.Level {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		r.fail(key, v, err)
		return def
	}
	return l
}

func (r *reader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(r.getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
