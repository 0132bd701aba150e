package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Oracle      OracleConfig   `mapstructure:"oracle"`
	Chain       ChainConfig    `mapstructure:"chain"`
	Workers     WorkerConfig   `mapstructure:"workers"`
}

// DatabaseConfig configures the postgres-backed durable store
type DatabaseConfig struct {
	URL             string `mapstructure:"url"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	// InMemory swaps the postgres store for the embedded one.
	// Single-device deployments run without a database.
	InMemory bool `mapstructure:"in_memory"`
}

// RedisConfig configures the oracle balance cache
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// Disabled swaps redis for the in-process cache
	Disabled bool `mapstructure:"disabled"`
}

// OracleConfig configures the balance oracle adapter
type OracleConfig struct {
	// CacheTTLSeconds bounds how stale a cached balance read may be
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
	// RequestTimeoutSeconds bounds each chain balance call before the
	// zero-balance fallback applies
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
	// LegacyIdentities and PresetIdentities select the fixed demo wallet
	// sets instead of the live derived path
	LegacyIdentities []string `mapstructure:"legacy_identities"`
	PresetIdentities []string `mapstructure:"preset_identities"`
}

// ChainConfig configures the outbound chain balance client
type ChainConfig struct {
	RPCURL             string `mapstructure:"rpc_url"`
	SecondaryTokenHash string `mapstructure:"secondary_token_hash"`
	TimeoutSeconds     int    `mapstructure:"timeout_seconds"`
	RequestsPerSecond  int    `mapstructure:"requests_per_second"`
}

// WorkerConfig configures the background accrual sweep
type WorkerConfig struct {
	// AccrualSchedule is a cron expression; empty disables the worker
	AccrualSchedule string `mapstructure:"accrual_schedule"`
}

// Load reads configuration from config.yaml, .env and the environment
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Build database URL if not provided
	if config.Database.URL == "" {
		config.Database.URL = fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s?sslmode=%s",
			config.Database.User,
			config.Database.Password,
			config.Database.Host,
			config.Database.Port,
			config.Database.Name,
			config.Database.SSLMode,
		)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "stackfolio_service")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 300)
	viper.SetDefault("database.in_memory", false)

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.disabled", false)

	viper.SetDefault("oracle.cache_ttl_seconds", 30)
	viper.SetDefault("oracle.request_timeout_seconds", 10)

	viper.SetDefault("chain.timeout_seconds", 10)
	viper.SetDefault("chain.requests_per_second", 5)

	viper.SetDefault("workers.accrual_schedule", "0 * * * *")
}

func validate(cfg *Config) error {
	if cfg.Environment != "development" && cfg.Environment != "staging" && cfg.Environment != "production" {
		return fmt.Errorf("invalid environment: %s", cfg.Environment)
	}
	if !cfg.Database.InMemory && cfg.Database.URL == "" {
		return fmt.Errorf("database URL is required unless database.in_memory is set")
	}
	if cfg.Oracle.CacheTTLSeconds < 0 {
		return fmt.Errorf("oracle cache TTL cannot be negative")
	}
	if cfg.Oracle.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("oracle request timeout must be positive")
	}
	return nil
}
