package config

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/Alturino/storefront/internal/log"
)

type Application struct {
	Env            string        `mapstructure:"env"             json:"env"`
	Host           string        `mapstructure:"host"            json:"host"`
	SecretKey      string        `mapstructure:"secret_key"      json:"-"`
	Port           int           `mapstructure:"port"            json:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout"`
}

type Database struct {
	Name           string `mapstructure:"name"            json:"name"`
	Host           string `mapstructure:"host"            json:"host"`
	MigrationPath  string `mapstructure:"migration_path"  json:"migration_path"`
	Password       string `mapstructure:"password"        json:"-"`
	TimeZone       string `mapstructure:"timezone"        json:"timezone"`
	Username       string `mapstructure:"username"        json:"username"`
	MaxConnections int32  `mapstructure:"max_connections" json:"max_connections"`
	MinConnections int32  `mapstructure:"min_connections" json:"min_connections"`
	Port           uint16 `mapstructure:"port"            json:"port"`
}

type Cache struct {
	Host     string        `mapstructure:"host"     json:"host"`
	Password string        `mapstructure:"password" json:"-"`
	Database int           `mapstructure:"database" json:"database"`
	Port     uint16        `mapstructure:"port"     json:"port"`
	CartTTL  time.Duration `mapstructure:"cart_ttl" json:"cart_ttl"`
}

type Otel struct {
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`
}

type Pricing struct {
	Currency      string  `mapstructure:"currency"       json:"currency"`
	TaxPercentage float64 `mapstructure:"tax_percentage" json:"tax_percentage"`
}

type Smtp struct {
	Host     string        `mapstructure:"host"     json:"host"`
	Username string        `mapstructure:"username" json:"username"`
	Password string        `mapstructure:"password" json:"-"`
	From     string        `mapstructure:"from"     json:"from"`
	Port     int           `mapstructure:"port"     json:"port"`
	Timeout  time.Duration `mapstructure:"timeout"  json:"timeout"`
}

type RateLimit struct {
	Capacity int           `mapstructure:"capacity" json:"capacity"`
	Window   time.Duration `mapstructure:"window"   json:"window"`
}

type Config struct {
	Database    `mapstructure:"db"          json:"db"`
	Cache       `mapstructure:"cache"       json:"cache"`
	Application `mapstructure:"application" json:"application"`
	Otel        `mapstructure:"otel"        json:"otel"`
	Pricing     `mapstructure:"pricing"     json:"pricing"`
	Smtp        `mapstructure:"smtp"        json:"smtp"`
	RateLimit   `mapstructure:"rate_limit"  json:"rate_limit"`
}

var (
	once   sync.Once
	config *Config
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("application.env", "production")
	v.SetDefault("application.host", "0.0.0.0")
	v.SetDefault("application.port", 8080)
	v.SetDefault("application.request_timeout", 10*time.Second)
	v.SetDefault("db.max_connections", 10)
	v.SetDefault("db.min_connections", 2)
	v.SetDefault("db.migration_path", "file://cart/migrations")
	v.SetDefault("cache.cart_ttl", 5*time.Minute)
	v.SetDefault("otel.host", "otel-collector")
	v.SetDefault("otel.port", 4317)
	v.SetDefault("pricing.currency", "USD")
	v.SetDefault("pricing.tax_percentage", 0)
	v.SetDefault("smtp.timeout", 10*time.Second)
	v.SetDefault("rate_limit.capacity", 10)
	v.SetDefault("rate_limit.window", time.Minute)
}

func InitConfig(c context.Context, filename string) *Config {
	once.Do(func() {
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "main InitConfig").
			Str(log.KeyProcess, "init config").
			Str("filename", filename).
			Logger()

		v := viper.New()
		v.SetConfigName(filename)
		v.AddConfigPath("./env")
		v.SetConfigType("yaml")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
		setDefaults(v)

		logger = logger.With().Str(log.KeyProcess, "reading config").Logger()
		logger.Info().Msg("reading config")
		err := v.ReadInConfig()
		if err != nil {
			err = fmt.Errorf("error when reading config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("read config")

		logger = logger.With().Str(log.KeyProcess, "unmarshaling config").Logger()
		logger.Info().Msg("unmarshaling config")
		cfg := Config{}
		err = v.Unmarshal(&cfg)
		if err != nil {
			err = fmt.Errorf("error unmarshaling config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		config = &cfg
		logger.Info().Any(log.KeyConfig, cfg).Msg("unmarshaled config")
	})
	return config
}
