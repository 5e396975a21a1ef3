package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Charge    ChargeConfig    `mapstructure:"charge"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ChargeConfig holds the platform fee schedule and charge floor. Amounts
// are integer minor-currency units (cents).
type ChargeConfig struct {
	FeeRateBps      int64  `mapstructure:"fee_rate_bps"` // 250 = 2.5%
	FeeFixed        int64  `mapstructure:"fee_fixed"`
	MinAmount       int64  `mapstructure:"min_amount"`
	DefaultCurrency string `mapstructure:"default_currency"`
	CountryCode     string `mapstructure:"country_code"`
}

// SimulatorConfig controls sandbox settlement behavior.
type SimulatorConfig struct {
	Delay       time.Duration `mapstructure:"delay"`
	SuccessRate float64       `mapstructure:"success_rate"`
}

// ReconcileConfig controls the stale-PENDING sweep.
type ReconcileConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	PendingCutoff time.Duration `mapstructure:"pending_cutoff"`
}

// WebhookConfig controls merchant webhook delivery.
type WebhookConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: PG_ (Pesa Gateway).
// Nested keys use underscore: PG_DATABASE_HOST, PG_CHARGE_FEE_FIXED, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "pesa_gateway")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("charge.fee_rate_bps", 250)
	v.SetDefault("charge.fee_fixed", 2000)
	v.SetDefault("charge.min_amount", 100)
	v.SetDefault("charge.default_currency", "KES")
	v.SetDefault("charge.country_code", "254")
	v.SetDefault("simulator.delay", "3s")
	v.SetDefault("simulator.success_rate", 0.8)
	v.SetDefault("reconcile.interval", "1m")
	v.SetDefault("reconcile.pending_cutoff", "15m")
	v.SetDefault("webhook.timeout", "10s")
	v.SetDefault("webhook.poll_interval", "5s")
	v.SetDefault("webhook.max_attempts", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: PG_CHARGE_MIN_AMOUNT -> charge.min_amount
	v.SetEnvPrefix("PG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required — env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
