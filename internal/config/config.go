package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Model    ModelConfig
	Fetch    FetchConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type LoggerConfig struct {
	Level  string
	Format string
}

type ModelConfig struct {
	Path         string
	MaxBytes     int64
	Subgraph     int
	ReportFormat string
}

type FetchConfig struct {
	Timeout time.Duration
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"model":     "MODEL_PATH",
	"format":    "REPORT_FORMAT",
	"subgraph":  "MODEL_SUBGRAPH",
	"max-bytes": "MODEL_MAX_BYTES",
	"log-level": "LOGGER_LEVEL",
}

// Load reads configuration from the environment. Flags present in fs take
// precedence over env; fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "model_inspector")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")
	v.SetDefault("MODEL_PATH", "model.tflite")
	v.SetDefault("MODEL_MAX_BYTES", int64(256<<20))
	v.SetDefault("MODEL_SUBGRAPH", 0)
	v.SetDefault("REPORT_FORMAT", "text")
	v.SetDefault("FETCH_TIMEOUT", "60s")

	// Env
	v.AutomaticEnv()

	// Flags
	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	lifetime, err := time.ParseDuration(v.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		lifetime = 30 * time.Minute
	}
	fetchTimeout, err := time.ParseDuration(v.GetString("FETCH_TIMEOUT"))
	if err != nil {
		fetchTimeout = 60 * time.Second
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: lifetime,
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
		Model: ModelConfig{
			Path:         v.GetString("MODEL_PATH"),
			MaxBytes:     v.GetInt64("MODEL_MAX_BYTES"),
			Subgraph:     v.GetInt("MODEL_SUBGRAPH"),
			ReportFormat: v.GetString("REPORT_FORMAT"),
		},
		Fetch: FetchConfig{
			Timeout: fetchTimeout,
		},
	}

	return cfg, nil
}
