package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Media     MediaConfig     `yaml:"media"`
	Summary   SummaryConfig   `yaml:"summary"`
	Grants    GrantConfig     `yaml:"grants"`
	Rooms     RoomConfig      `yaml:"rooms"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// TransportConfig selects how the service is exposed: "http" serves the REST
// API plus the MCP endpoint, "stdio" runs the MCP server over stdin/stdout.
type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// MediaConfig points at the LiveKit-compatible room service. The key pair is
// shared between grant signing and the server API client.
type MediaConfig struct {
	URL       string `yaml:"url"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
}

type SummaryConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type GrantConfig struct {
	DefaultTTL time.Duration `yaml:"default_ttl"`
	MaxTTL     time.Duration `yaml:"max_ttl"`
}

type RoomConfig struct {
	EmptyTimeout time.Duration `yaml:"empty_timeout"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		DB: DBConfig{
			Path: "warmline.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Media: MediaConfig{
			URL: "http://localhost:7880",
		},
		Summary: SummaryConfig{
			BaseURL: "https://api.openai.com",
			Model:   "gpt-4o-mini",
			Timeout: 30 * time.Second,
		},
		Grants: GrantConfig{
			DefaultTTL: time.Hour,
			MaxTTL:     6 * time.Hour,
		},
		Rooms: RoomConfig{
			EmptyTimeout: 10 * time.Minute,
		},
	}

	if path := os.Getenv("WARMLINE_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("WARMLINE_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("WARMLINE_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid WARMLINE_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if mode := os.Getenv("WARMLINE_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if dbPath := os.Getenv("WARMLINE_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("WARMLINE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if token := os.Getenv("WARMLINE_AUTH_TOKEN"); token != "" {
		cfg.Auth.Enabled = true
		cfg.Auth.Token = token
	}
	if url := os.Getenv("WARMLINE_MEDIA_URL"); url != "" {
		cfg.Media.URL = url
	}
	if key := os.Getenv("WARMLINE_MEDIA_API_KEY"); key != "" {
		cfg.Media.APIKey = key
	}
	if secret := os.Getenv("WARMLINE_MEDIA_API_SECRET"); secret != "" {
		cfg.Media.APISecret = secret
	}
	if url := os.Getenv("WARMLINE_SUMMARY_BASE_URL"); url != "" {
		cfg.Summary.BaseURL = url
	}
	if key := os.Getenv("WARMLINE_SUMMARY_API_KEY"); key != "" {
		cfg.Summary.APIKey = key
	}
	if model := os.Getenv("WARMLINE_SUMMARY_MODEL"); model != "" {
		cfg.Summary.Model = model
	}
	if timeoutStr := os.Getenv("WARMLINE_SUMMARY_TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid WARMLINE_SUMMARY_TIMEOUT: %w", err)
		}
		cfg.Summary.Timeout = timeout
	}
	if ttlStr := os.Getenv("WARMLINE_GRANT_TTL"); ttlStr != "" {
		ttl, err := time.ParseDuration(ttlStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid WARMLINE_GRANT_TTL: %w", err)
		}
		cfg.Grants.DefaultTTL = ttl
	}
	if ttlStr := os.Getenv("WARMLINE_GRANT_MAX_TTL"); ttlStr != "" {
		ttl, err := time.ParseDuration(ttlStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid WARMLINE_GRANT_MAX_TTL: %w", err)
		}
		cfg.Grants.MaxTTL = ttl
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
