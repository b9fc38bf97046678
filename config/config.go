package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for the simulator.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Session  SessionConfig  `mapstructure:"session"`
	Quotes   QuotesConfig   `mapstructure:"quotes"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

type AppConfig struct {
	Port        string `mapstructure:"port"`
	Env         string `mapstructure:"env"`
	InitialCash string `mapstructure:"initial_cash"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SessionConfig struct {
	Secret       string        `mapstructure:"secret"`
	TTL          time.Duration `mapstructure:"ttl"`
	CookieName   string        `mapstructure:"cookie_name"`
	SecureCookie bool          `mapstructure:"secure_cookie"`
}

type QuotesConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// KafkaConfig configures the trade event feed. No brokers means no feed.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type LoggerConfig struct {
	Level string `mapstructure:"level"`
	Env   string `mapstructure:"env"`
}

// StartingCash parses App.InitialCash.
func (c *Config) StartingCash() decimal.Decimal {
	d, err := decimal.NewFromString(c.App.InitialCash)
	if err != nil {
		return decimal.NewFromInt(10000)
	}
	return d
}

// LoadConfig reads configuration from a .env file, environment variables and defaults.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, relying on System Env Vars")
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnv(v, "app.port", "app.env", "app.initial_cash")
	bindEnv(v, "database.url", "database.max_conns")
	bindEnv(v, "redis.addr", "redis.password", "redis.db")
	bindEnv(v, "session.secret", "session.ttl", "session.cookie_name", "session.secure_cookie")
	bindEnv(v, "quotes.api_key", "quotes.base_url", "quotes.timeout", "quotes.cache_ttl")
	bindEnv(v, "kafka.brokers", "kafka.topic")
	bindEnv(v, "logger.level")

	// The original deployment exported these names directly.
	_ = v.BindEnv("database.url", "DATABASE_URL")
	_ = v.BindEnv("quotes.api_key", "QUOTES_API_KEY", "API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	cfg.Logger.Env = cfg.App.Env
	cfg.Database.URL = normalizeDatabaseURL(cfg.Database.URL)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", ":8080")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.initial_cash", "10000")

	v.SetDefault("database.max_conns", 10)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.cookie_name", "session")
	v.SetDefault("session.secure_cookie", false)

	v.SetDefault("quotes.base_url", "https://www.alphavantage.co/query")
	v.SetDefault("quotes.timeout", 5*time.Second)
	v.SetDefault("quotes.cache_ttl", time.Duration(0))

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "trades")

	v.SetDefault("logger.level", "info")
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database url not set")
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("session secret not set")
	}
	if c.Quotes.APIKey == "" {
		return fmt.Errorf("API_KEY not set")
	}
	if _, err := decimal.NewFromString(c.App.InitialCash); err != nil {
		return fmt.Errorf("invalid initial cash %q: %w", c.App.InitialCash, err)
	}
	return nil
}

// normalizeDatabaseURL rewrites the legacy postgres:// scheme some hosts still hand out.
func normalizeDatabaseURL(uri string) string {
	if strings.HasPrefix(uri, "postgres://") {
		return "postgresql://" + strings.TrimPrefix(uri, "postgres://")
	}
	return uri
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}
