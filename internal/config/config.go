package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "ADV"

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

type HTTPConfig struct {
	Port               int           `mapstructure:"port" validate:"min=1,max=65535"`
	Timeout            time.Duration `mapstructure:"timeout" validate:"gt=0"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" validate:"oneof=mysql postgres sqlite"`
	Host            string        `mapstructure:"host" validate:"required_unless=Driver sqlite"`
	Port            int           `mapstructure:"port" validate:"required_unless=Driver sqlite"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name" validate:"required_unless=Driver sqlite"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	Path            string        `mapstructure:"path" validate:"required_if=Driver sqlite"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel" validate:"required_if=Enabled true"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	ServiceName string `mapstructure:"service_name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
}

type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.timeout", "10s")
	v.SetDefault("http.cors_allowed_origins", []string{"*"})

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "app")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "advertisements")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.path", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.conn_max_lifetime", "5m")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "advertisement.events")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "127.0.0.1:4318")
	v.SetDefault("tracing.service_name", "advertisement-service")
	v.SetDefault("tracing.environment", "development")
	v.SetDefault("tracing.version", "dev")

	v.SetDefault("logger.level", "info")
}

// LoadConfig reads path (or ./config.yaml when path is empty and the file exists)
// and lets ADV_* environment variables override any key, e.g. ADV_DATABASE_HOST.
func LoadConfig(path string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func MustLoadConfig() *Config {
	config, err := LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Could not load configuration: %v", err)
	}
	return config
}

func (c DatabaseConfig) DSN() string {
	switch c.Driver {
	case "postgres":
		return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
			url.QueryEscape(c.User),
			url.QueryEscape(c.Password),
			net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
			c.Name,
			c.SSLMode)
	case "sqlite":
		return c.Path
	default:
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&time_zone=%%27%%2B00%%3A00%%27",
			c.User,
			c.Password,
			net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
			c.Name)
	}
}
