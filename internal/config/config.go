package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	Contracts ContractsConfig `yaml:"contracts"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type ServerConfig struct {
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	CORSOrigins     []string `yaml:"cors_origins"`
	RequestTimeout  Duration `yaml:"request_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

type TransportConfig struct {
	// Mode is "http" or "stdio".
	Mode string `yaml:"mode"`
}

type DBConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	// DSN is the Postgres connection string. When empty it is read from the
	// OS keyring under KeyringService/KeyringUser.
	DSN            string `yaml:"dsn"`
	KeyringService string `yaml:"keyring_service"`
	KeyringUser    string `yaml:"keyring_user"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// Format is "text", "json" or "logfmt".
	Format string `yaml:"format"`
	// Path enables a rotating log file instead of stderr.
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
	// Mode is "apikey" or "jwt".
	Mode      string   `yaml:"mode"`
	JWTSecret string   `yaml:"jwt_secret"`
	JWTIssuer string   `yaml:"jwt_issuer"`
	TokenTTL  Duration `yaml:"token_ttl"`
	// DefaultUser is the acting user when auth is disabled.
	DefaultUser string `yaml:"default_user"`
}

type CalendarConfig struct {
	// Timezone is an IANA name; weeks start on Sunday in this zone.
	Timezone string `yaml:"timezone"`
}

type ContractsConfig struct {
	AllowSolo bool `yaml:"allow_solo"`
}

type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
	// Backend is "memory" or "redis".
	Backend   string `yaml:"backend"`
	RedisAddr string `yaml:"redis_addr"`
}

type TelemetryConfig struct {
	// OTLPEndpoint enables metric export over OTLP/gRPC.
	OTLPEndpoint string   `yaml:"otlp_endpoint"`
	Interval     Duration `yaml:"interval"`
}

type SchedulerConfig struct {
	// Interval between generation sweeps over active contracts; 0 disables.
	Interval Duration `yaml:"interval"`
}

// Duration is a time.Duration that reads as "90s" or "5m" in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			RequestTimeout:  Duration(30 * time.Second),
			ShutdownTimeout: Duration(5 * time.Second),
		},
		Transport: TransportConfig{Mode: "http"},
		DB: DBConfig{
			Driver:         "sqlite",
			Path:           "accord.db",
			KeyringService: "accord",
			KeyringUser:    "postgres-dsn",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Auth: AuthConfig{
			Mode:        "apikey",
			JWTIssuer:   "accord",
			TokenTTL:    Duration(30 * 24 * time.Hour),
			DefaultUser: "local",
		},
		Calendar: CalendarConfig{Timezone: "UTC"},
		RateLimit: RateLimitConfig{
			RPS:     10,
			Burst:   20,
			Backend: "memory",
		},
		Telemetry: TelemetryConfig{Interval: Duration(time.Minute)},
		Scheduler: SchedulerConfig{Interval: Duration(time.Hour)},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("ACCORD_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	str("ACCORD_SERVER_HOST", &cfg.Server.Host)
	str("ACCORD_TRANSPORT_MODE", &cfg.Transport.Mode)
	str("ACCORD_DB_DRIVER", &cfg.DB.Driver)
	str("ACCORD_DB_PATH", &cfg.DB.Path)
	str("ACCORD_DB_DSN", &cfg.DB.DSN)
	str("ACCORD_LOG_LEVEL", &cfg.Log.Level)
	str("ACCORD_LOG_FORMAT", &cfg.Log.Format)
	str("ACCORD_LOG_PATH", &cfg.Log.Path)
	str("ACCORD_AUTH_MODE", &cfg.Auth.Mode)
	str("ACCORD_JWT_SECRET", &cfg.Auth.JWTSecret)
	str("ACCORD_TIMEZONE", &cfg.Calendar.Timezone)
	str("ACCORD_RATE_LIMIT_BACKEND", &cfg.RateLimit.Backend)
	str("ACCORD_REDIS_ADDR", &cfg.RateLimit.RedisAddr)
	str("ACCORD_OTLP_ENDPOINT", &cfg.Telemetry.OTLPEndpoint)

	if v := os.Getenv("ACCORD_SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ACCORD_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("ACCORD_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = strings.Split(v, ",")
	}
	for name, dst := range map[string]*bool{
		"ACCORD_AUTH_ENABLED":       &cfg.Auth.Enabled,
		"ACCORD_ALLOW_SOLO":         &cfg.Contracts.AllowSolo,
		"ACCORD_RATE_LIMIT_ENABLED": &cfg.RateLimit.Enabled,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		*dst = b
	}
	if v := os.Getenv("ACCORD_SCHEDULER_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid ACCORD_SCHEDULER_INTERVAL: %w", err)
		}
		cfg.Scheduler.Interval = Duration(d)
	}
	return nil
}

// Validate rejects unknown enum values and inconsistent settings.
func (c Config) Validate() error {
	var errs []error
	oneOf := func(field, value string, allowed ...string) {
		for _, a := range allowed {
			if value == a {
				return
			}
		}
		errs = append(errs, fmt.Errorf("%s must be one of %s, got %q", field, strings.Join(allowed, ", "), value))
	}

	oneOf("transport.mode", c.Transport.Mode, "http", "stdio")
	oneOf("db.driver", c.DB.Driver, "sqlite", "postgres")
	oneOf("log.level", c.Log.Level, "debug", "info", "warn", "error")
	oneOf("log.format", c.Log.Format, "text", "json", "logfmt")
	oneOf("auth.mode", c.Auth.Mode, "apikey", "jwt")
	oneOf("rate_limit.backend", c.RateLimit.Backend, "memory", "redis")

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Auth.Enabled && c.Auth.Mode == "jwt" && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required in jwt mode"))
	}
	if c.RateLimit.Enabled && c.RateLimit.Backend == "redis" && c.RateLimit.RedisAddr == "" {
		errs = append(errs, errors.New("rate_limit.redis_addr is required for the redis backend"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1) {
		errs = append(errs, errors.New("rate_limit.rps and rate_limit.burst must be positive"))
	}
	if _, err := time.LoadLocation(c.Calendar.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("calendar.timezone: %w", err))
	}
	return errors.Join(errs...)
}

// Location returns the configured calendar time zone.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Calendar.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
