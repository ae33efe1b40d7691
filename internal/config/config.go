// Package config handles application configuration.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	App      AppConfig       `mapstructure:"app"`
	Server   ServerConfig    `mapstructure:"server"`
	Database DatabaseConfig  `mapstructure:"database"`
	Redis    RedisConfig     `mapstructure:"redis"`
	Password PasswordConfig  `mapstructure:"password"`
	Rate     RateLimitConfig `mapstructure:"rate"`
	Stats    StatsConfig     `mapstructure:"stats"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn warning error"`
}

// IsDevelopment returns true if the app is running in development mode.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development" || a.Env == "dev"
}

// IsProduction returns true if the app is running in production mode.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production" || a.Env == "prod"
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"min=0,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// Address returns the server address in host:port format.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"min=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"min=1,max=65535"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min=0"`
	PoolSize int    `mapstructure:"pool_size" validate:"min=1"`
}

// PasswordConfig holds the defaults applied to generation requests.
type PasswordConfig struct {
	DefaultLength  int  `mapstructure:"default_length" validate:"min=8,max=64"`
	DefaultUpper   bool `mapstructure:"default_upper"`
	DefaultLower   bool `mapstructure:"default_lower"`
	DefaultDigits  bool `mapstructure:"default_digits"`
	DefaultSymbols bool `mapstructure:"default_symbols"`
	MaxCount       int  `mapstructure:"max_count" validate:"min=1,max=1000"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Backend      string        `mapstructure:"backend" validate:"oneof=memory redis"`
	Requests     int           `mapstructure:"requests" validate:"min=1"`
	Window       time.Duration `mapstructure:"window" validate:"gt=0"`
	TrustProxy   bool          `mapstructure:"trust_proxy"`
	APIKeyHeader string        `mapstructure:"api_key_header"`
}

// StatsConfig holds usage statistics configuration.
type StatsConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	FlushInterval time.Duration `mapstructure:"flush_interval" validate:"gt=0"`
	BatchSize     int           `mapstructure:"batch_size" validate:"min=1"`
}

// setting binds a config key to its environment variable and default.
type setting struct {
	key string
	env string
	def interface{}
}

var settings = []setting{
	{"app.env", "APP_ENV", "development"},
	{"app.log_level", "LOG_LEVEL", "info"},

	{"server.host", "SERVER_HOST", "0.0.0.0"},
	{"server.port", "SERVER_PORT", 8080},
	{"server.read_timeout", "SERVER_READ_TIMEOUT", 5 * time.Second},
	{"server.write_timeout", "SERVER_WRITE_TIMEOUT", 10 * time.Second},
	{"server.shutdown_timeout", "SERVER_SHUTDOWN_TIMEOUT", 30 * time.Second},

	{"database.host", "DB_HOST", "localhost"},
	{"database.port", "DB_PORT", 5432},
	{"database.user", "DB_USER", "passgen"},
	{"database.password", "DB_PASSWORD", ""},
	{"database.name", "DB_NAME", "passgen"},
	{"database.sslmode", "DB_SSLMODE", "disable"},
	{"database.max_open_conns", "DB_MAX_OPEN_CONNS", 25},
	{"database.max_idle_conns", "DB_MAX_IDLE_CONNS", 5},
	{"database.conn_max_lifetime", "DB_CONN_MAX_LIFETIME", 5 * time.Minute},

	{"redis.host", "REDIS_HOST", ""},
	{"redis.port", "REDIS_PORT", 6379},
	{"redis.password", "REDIS_PASSWORD", ""},
	{"redis.db", "REDIS_DB", 0},
	{"redis.pool_size", "REDIS_POOL_SIZE", 10},

	{"password.default_length", "PASSWORD_DEFAULT_LENGTH", 8},
	{"password.default_upper", "PASSWORD_DEFAULT_UPPER", true},
	{"password.default_lower", "PASSWORD_DEFAULT_LOWER", true},
	{"password.default_digits", "PASSWORD_DEFAULT_DIGITS", true},
	{"password.default_symbols", "PASSWORD_DEFAULT_SYMBOLS", false},
	{"password.max_count", "PASSWORD_MAX_COUNT", 100},

	{"rate.enabled", "RATE_LIMIT_ENABLED", true},
	{"rate.backend", "RATE_LIMIT_BACKEND", "memory"},
	{"rate.requests", "RATE_LIMIT_REQUESTS", 100},
	{"rate.window", "RATE_LIMIT_WINDOW", time.Minute},
	{"rate.trust_proxy", "RATE_LIMIT_TRUST_PROXY", false},
	{"rate.api_key_header", "RATE_LIMIT_API_KEY_HEADER", ""},

	{"stats.enabled", "STATS_ENABLED", true},
	{"stats.flush_interval", "STATS_FLUSH_INTERVAL", 10 * time.Second},
	{"stats.batch_size", "STATS_BATCH_SIZE", 100},
}

var validate = validator.New()

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. An empty cfgFile looks for
// passgen.yaml in the working directory and carries on without it.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	for _, s := range settings {
		v.SetDefault(s.key, s.def)
		if err := v.BindEnv(s.key, s.env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", s.env, err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("passgen")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field ranges and the password defaults.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	p := c.Password
	if !p.DefaultUpper && !p.DefaultLower && !p.DefaultDigits && !p.DefaultSymbols {
		return errors.New("invalid configuration: at least one default charset must be enabled")
	}
	return nil
}

// DatabaseEnabled returns true if database configuration is provided.
func (c *Config) DatabaseEnabled() bool {
	return c.Database.Host != "" && c.Database.Password != ""
}

// RedisEnabled returns true if Redis configuration is provided.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}
