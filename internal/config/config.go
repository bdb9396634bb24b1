package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Earthdata EarthdataConfig `mapstructure:"earthdata"`
	Forecast  ForecastConfig  `mapstructure:"forecast"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// EarthdataConfig holds remote archive access configuration
type EarthdataConfig struct {
	Username   string        `mapstructure:"username"`
	Password   string        `mapstructure:"password"`
	TokenURL   string        `mapstructure:"token_url"`
	SearchURL  string        `mapstructure:"search_url"`
	SeriesURL  string        `mapstructure:"series_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// ForecastConfig holds model selection defaults
type ForecastConfig struct {
	MaxP          int     `mapstructure:"max_p"`
	MaxD          int     `mapstructure:"max_d"`
	MaxQ          int     `mapstructure:"max_q"`
	HorizonDays   int     `mapstructure:"horizon_days"`
	TrainFraction float64 `mapstructure:"train_fraction"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig reads configuration from config.yaml (optional) and
// FORECAST_-prefixed environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	v.SetEnvPrefix("FORECAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional; env vars and defaults are enough
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.database", "temperature_forecast")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.conn_max_idle_time", 1*time.Minute)

	v.SetDefault("earthdata.token_url", "https://urs.earthdata.nasa.gov/api/users/tokens")
	v.SetDefault("earthdata.search_url", "https://cmr.earthdata.nasa.gov/search/granules.json")
	v.SetDefault("earthdata.series_url", "https://api.giovanni.earthdata.nasa.gov/timeseries")
	v.SetDefault("earthdata.timeout", 60*time.Second)
	v.SetDefault("earthdata.max_retries", 3)

	v.SetDefault("forecast.max_p", 3)
	v.SetDefault("forecast.max_d", 1)
	v.SetDefault("forecast.max_q", 3)
	v.SetDefault("forecast.horizon_days", 7)
	v.SetDefault("forecast.train_fraction", 0.85)

	v.SetDefault("logging.level", "info")
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Forecast.MaxP < 0 || c.Forecast.MaxD < 0 || c.Forecast.MaxQ < 0 {
		return fmt.Errorf("forecast order maxima must be non-negative")
	}

	if c.Forecast.HorizonDays < 1 {
		return fmt.Errorf("forecast horizon must be at least 1 day")
	}

	if c.Forecast.TrainFraction <= 0 || c.Forecast.TrainFraction >= 1 {
		return fmt.Errorf("train fraction must be in (0, 1), got %v", c.Forecast.TrainFraction)
	}

	return nil
}
