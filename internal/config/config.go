package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mcdev12/liveauction/internal/database"
	"gopkg.in/yaml.v3"
)

// Config is the full server configuration. Values load from an optional
// YAML file, then environment variables override field by field.
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Database database.Config `yaml:"database"`
	NATS     NATSConfig      `yaml:"nats"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// NATSConfig holds the change feed connection settings.
type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// Load builds the configuration. path may be empty; a missing file is not
// an error, environment variables alone are enough to run.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Database: database.NewConfigFromEnv(),
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			SubjectPrefix: "auction",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		c.NATS.URL = v
	}
	if v := os.Getenv("NATS_SUBJECT_PREFIX"); v != "" {
		c.NATS.SubjectPrefix = v
	}
	// DB_* variables are read in database.NewConfigFromEnv; a YAML
	// database section only wins for fields the environment leaves unset.
	envDB := database.NewConfigFromEnv()
	if os.Getenv("DB_HOST") != "" {
		c.Database.Host = envDB.Host
	}
	if os.Getenv("DB_PORT") != "" {
		c.Database.Port = envDB.Port
	}
	if os.Getenv("DB_USER") != "" {
		c.Database.User = envDB.User
	}
	if os.Getenv("DB_PASSWORD") != "" {
		c.Database.Password = envDB.Password
	}
	if os.Getenv("DB_NAME") != "" {
		c.Database.Database = envDB.Database
	}
	if os.Getenv("DB_SSLMODE") != "" {
		c.Database.SSLMode = envDB.SSLMode
	}
}
