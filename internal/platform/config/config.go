package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full process configuration, read once at startup.
type Config struct {
	Server   Server
	Backend  BackendConfig
	Lookup   LookupConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
	Pipeline PipelineConfig
	Log      LogConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr string
	// RegulatedMode drops operator IP addresses from the submission journal.
	RegulatedMode bool
	ReadTimeout   time.Duration
	// WriteTimeout must cover a full registration fan-out with base64 captures.
	WriteTimeout time.Duration
}

// BackendConfig points at the upstream records backend.
type BackendConfig struct {
	URL     string
	Timeout time.Duration
	// LookupPathTemplate is formatted with the lookup name, e.g. "/lookups/%s".
	LookupPathTemplate string
	// ServiceToken authenticates lookup fetches made outside an operator request.
	ServiceToken string
	LookupRetries int
}

type LookupConfig struct {
	TTL time.Duration
}

// RedisConfig enables the shared lookup tier when URL is set.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig enables the Postgres submission journal when URL is set.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// KafkaConfig enables the Kafka audit publisher when Brokers is non-empty.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

type PipelineConfig struct {
	FanoutLimit int
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var errs []string
	durationVar := func(key string, def time.Duration) time.Duration {
		d, err := getEnvDuration(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return d
	}
	intVar := func(key string, def int) int {
		n, err := getEnvInt(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return n
	}

	cfg := Config{
		Server: Server{
			Addr:          getEnv("REGISTRAR_ADDR", ":8080"),
			RegulatedMode: getEnv("REGULATED_MODE", "false") == "true",
			ReadTimeout:   durationVar("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:  durationVar("SERVER_WRITE_TIMEOUT", 90*time.Second),
		},
		Backend: BackendConfig{
			URL:                strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8000"), "/"),
			Timeout:            durationVar("BACKEND_TIMEOUT", 30*time.Second),
			LookupPathTemplate: getEnv("LOOKUP_PATH_TEMPLATE", "/lookups/%s"),
			ServiceToken:       os.Getenv("BACKEND_SERVICE_TOKEN"),
			LookupRetries:      intVar("LOOKUP_RETRIES", 2),
		},
		Lookup: LookupConfig{
			TTL: durationVar("LOOKUP_TTL", 10*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intVar("REDIS_POOL_SIZE", 10),
			MinIdleConns: intVar("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationVar("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationVar("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationVar("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    intVar("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    intVar("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: durationVar("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: getEnv("AUDIT_TOPIC", "registrar.audit"),
		},
		Pipeline: PipelineConfig{
			FanoutLimit: intVar("FANOUT_LIMIT", 16),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if !strings.Contains(cfg.Backend.LookupPathTemplate, "%s") {
		errs = append(errs, "LOOKUP_PATH_TEMPLATE must contain %s")
	}
	if cfg.Server.WriteTimeout <= cfg.Backend.Timeout {
		errs = append(errs, "SERVER_WRITE_TIMEOUT must exceed BACKEND_TIMEOUT")
	}
	if cfg.Pipeline.FanoutLimit < 1 {
		errs = append(errs, "FANOUT_LIMIT must be at least 1")
	}
	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %q is not an integer", key, v)
	}
	return n, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %q is not a duration", key, v)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
