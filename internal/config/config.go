// Package config loads the storefront settings from the environment, with an optional
// config file underneath.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	RowStorePostgres = "postgres"
	RowStoreMongo    = "mongo"
)

type Config struct {
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	HTTPPort        string        `mapstructure:"HTTP_PORT"`
	GRPCPort        string        `mapstructure:"GRPC_PORT"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         int    `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	MigrationsPath string `mapstructure:"MIGRATIONS_PATH"`

	CatalogDBPath         string        `mapstructure:"CATALOG_DB_PATH"`
	CatalogMigrationsPath string        `mapstructure:"CATALOG_MIGRATIONS_PATH"`
	CatalogCacheTTL       time.Duration `mapstructure:"CATALOG_CACHE_TTL"`

	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TTL"`

	CartRowStore string `mapstructure:"CART_ROW_STORE"`
	MongoURI     string `mapstructure:"MONGO_URI"`
	MongoDBName  string `mapstructure:"MONGO_DB_NAME"`

	KafkaBrokers      []string `mapstructure:"KAFKA_BROKERS"`
	NotificationTopic string   `mapstructure:"NOTIFICATION_TOPIC"`

	PayPalBaseURL        string        `mapstructure:"PAYPAL_BASE_URL"`
	PayPalClientID       string        `mapstructure:"PAYPAL_CLIENT_ID"`
	PayPalClientSecret   string        `mapstructure:"PAYPAL_CLIENT_SECRET"`
	PayPalTimeout        time.Duration `mapstructure:"PAYPAL_TIMEOUT"`
	PayPalConversionRate string        `mapstructure:"PAYPAL_CONVERSION_RATE"`
	PayPalCurrency       string        `mapstructure:"PAYPAL_CURRENCY"`

	ShippingFlatRate string `mapstructure:"SHIPPING_FLAT_RATE"`

	SinpePhone           string   `mapstructure:"SINPE_PHONE"`
	SinpeBanks           []string `mapstructure:"SINPE_BANKS"`
	SinpeMessageTemplate string   `mapstructure:"SINPE_MESSAGE_TEMPLATE"`

	JWTSecret string `mapstructure:"JWT_SECRET"`
	JWTIssuer string `mapstructure:"JWT_ISSUER"`

	PaymentRateLimit float64 `mapstructure:"PAYMENT_RATE_LIMIT"`
	PaymentRateBurst int     `mapstructure:"PAYMENT_RATE_BURST"`

	TaskTimeout time.Duration `mapstructure:"TASK_TIMEOUT"`
}

var defaults = map[string]any{
	"ENV":       "development",
	"LOG_LEVEL": "info",

	"HTTP_PORT":        "8080",
	"GRPC_PORT":        "50060",
	"REQUEST_TIMEOUT":  30 * time.Second,
	"SHUTDOWN_TIMEOUT": 10 * time.Second,

	"DB_HOST":         "localhost",
	"DB_PORT":         5432,
	"DB_USER":         "postgres",
	"DB_PASSWORD":     "postgres",
	"DB_NAME":         "ecommerce",
	"MIGRATIONS_PATH": "./internal/repository/migrations",

	"CATALOG_DB_PATH":         "./data/products.db",
	"CATALOG_MIGRATIONS_PATH": "./internal/catalog/migrations",
	"CATALOG_CACHE_TTL":       5 * time.Minute,

	"REDIS_ADDR":     "localhost:6379",
	"REDIS_PASSWORD": "",
	"SESSION_TTL":    24 * time.Hour,

	"CART_ROW_STORE": RowStorePostgres,
	"MONGO_URI":      "mongodb://localhost:27017",
	"MONGO_DB_NAME":  "cartdb",

	"KAFKA_BROKERS":      "localhost:9092",
	"NOTIFICATION_TOPIC": "order-confirmations",

	"PAYPAL_BASE_URL":        "https://api-m.sandbox.paypal.com",
	"PAYPAL_CLIENT_ID":       "",
	"PAYPAL_CLIENT_SECRET":   "",
	"PAYPAL_TIMEOUT":         10 * time.Second,
	"PAYPAL_CONVERSION_RATE": "520",
	"PAYPAL_CURRENCY":        "USD",

	"SHIPPING_FLAT_RATE": "3200",

	"SINPE_PHONE":            "",
	"SINPE_BANKS":            "BAC,BCR,BN,Scotiabank,Davivienda,Promerica,Lafise",
	"SINPE_MESSAGE_TEMPLATE": "Pedido {order}",

	"JWT_SECRET": "",
	"JWT_ISSUER": "",

	"PAYMENT_RATE_LIMIT": 2.0,
	"PAYMENT_RATE_BURST": 5,

	"TASK_TIMEOUT": 30 * time.Second,
}

// Load reads defaults, then CONFIG_FILE (if set) or ./config.yaml (if present), then the
// environment.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.KafkaBrokers = splitList(cfg.KafkaBrokers)
	cfg.SinpeBanks = splitList(cfg.SinpeBanks)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.CartRowStore {
	case RowStorePostgres, RowStoreMongo:
	default:
		return fmt.Errorf("CART_ROW_STORE must be %q or %q, got %q", RowStorePostgres, RowStoreMongo, c.CartRowStore)
	}
	if _, err := c.ConversionRate(); err != nil {
		return err
	}
	if _, err := c.ShippingRate(); err != nil {
		return err
	}
	return nil
}

// ConversionRate is how many colones buy one unit of the gateway currency.
func (c *Config) ConversionRate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.PayPalConversionRate)
	if err != nil || !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("PAYPAL_CONVERSION_RATE must be a positive number, got %q", c.PayPalConversionRate)
	}
	return rate, nil
}

func (c *Config) ShippingRate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.ShippingFlatRate)
	if err != nil || rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("SHIPPING_FLAT_RATE must be a non-negative number, got %q", c.ShippingFlatRate)
	}
	return rate, nil
}

// splitList accepts both yaml lists and comma separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
