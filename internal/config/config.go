package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Store     StoreConfig     `mapstructure:"store"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	DB        DBConfig        `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Razorpay  RazorpayConfig  `mapstructure:"razorpay"`
	Checkout  CheckoutConfig  `mapstructure:"checkout"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type HTTPConfig struct {
	Port               string        `mapstructure:"port"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	MaxRequestBodySize int64         `mapstructure:"max_body_size"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"` // mongo | memory
}

type MongoConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"db_name"`
}

type DBConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Name           string `mapstructure:"name"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type RazorpayConfig struct {
	KeyID     string        `mapstructure:"key_id"`
	KeySecret string        `mapstructure:"key_secret"`
	BaseURL   string        `mapstructure:"base_url"`
	Currency  string        `mapstructure:"currency"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type CheckoutConfig struct {
	CallbackWindow time.Duration `mapstructure:"callback_window"`
	LockTTL        time.Duration `mapstructure:"lock_ttl"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

var defaults = map[string]any{
	"http.port":                "8080",
	"http.request_timeout":     30 * time.Second,
	"http.shutdown_timeout":    10 * time.Second,
	"http.max_body_size":       int64(1 << 20),
	"store.driver":             "mongo",
	"mongo.uri":                "mongodb://localhost:27017/?replicaSet=rs0",
	"mongo.db_name":            "storefront",
	"db.host":                  "localhost",
	"db.port":                  5432,
	"db.user":                  "storefront",
	"db.password":              "storefront",
	"db.name":                  "storefront",
	"db.migrations_path":       "internal/ledger/migrations",
	"redis.addr":               "localhost:6379",
	"redis.password":           "",
	"redis.db":                 0,
	"kafka.brokers":            []string{},
	"kafka.topic":              "order-events",
	"razorpay.key_id":          "",
	"razorpay.key_secret":      "",
	"razorpay.base_url":        "https://api.razorpay.com",
	"razorpay.currency":        "INR",
	"razorpay.timeout":         10 * time.Second,
	"checkout.callback_window": 15 * time.Minute,
	"checkout.lock_ttl":        30 * time.Second,
	"auth.jwt_secret":          "",
	"log.level":                "info",
	"log.format":               "json",
	"ratelimit.rps":            5.0,
	"ratelimit.burst":          10,
}

// Load reads config.yaml (optional) and environment variables.
// Nested keys map to env names with dots replaced by underscores, e.g. MONGO_URI.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "mongo", "memory":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Checkout.CallbackWindow <= 0 {
		return errors.New("checkout.callback_window must be positive")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	return nil
}
