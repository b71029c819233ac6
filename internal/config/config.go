package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config defines gridvolt server configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"GRIDVOLT_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr string `yaml:"addr"`
		DB   int    `yaml:"db"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret     string `yaml:"jwtSecret" env:"GRIDVOLT_JWT_SECRET"`
		TokenTTLHours int    `yaml:"tokenTtlHours" env:"GRIDVOLT_TOKEN_TTL_HOURS"`
	} `yaml:"auth"`
	WebSocket struct {
		PingIntervalSeconds int `yaml:"pingIntervalSeconds" env:"GRIDVOLT_PING_INTERVAL"`
		WriteTimeoutSeconds int `yaml:"writeTimeoutSeconds" env:"GRIDVOLT_WRITE_TIMEOUT"`
	} `yaml:"websocket"`
	Gateway struct {
		HeartbeatIntervalSeconds int `yaml:"heartbeatIntervalSeconds" env:"GRIDVOLT_HEARTBEAT_INTERVAL"`
	} `yaml:"gateway"`
}

// Load reads config from file and environment and validates required fields.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.WebSocket.PingIntervalSeconds = 30
	cfg.WebSocket.WriteTimeoutSeconds = 15
	cfg.Gateway.HeartbeatIntervalSeconds = 300
	cfg.Auth.TokenTTLHours = 24

	if err := load(cfg, "GRIDVOLT"); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database DSN is required")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("config: JWT secret is required")
	}

	return cfg, nil
}

// HTTPAddress returns :port style address.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// PingInterval returns websocket ping interval.
func (c *Config) PingInterval() time.Duration {
	if c.WebSocket.PingIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.WebSocket.PingIntervalSeconds) * time.Second
}

// WriteTimeout returns websocket write timeout.
func (c *Config) WriteTimeout() time.Duration {
	if c.WebSocket.WriteTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.WebSocket.WriteTimeoutSeconds) * time.Second
}

// HeartbeatInterval is the interval advertised to charge points in
// BootNotification responses, in seconds.
func (c *Config) HeartbeatInterval() int {
	if c.Gateway.HeartbeatIntervalSeconds <= 0 {
		return 300
	}
	return c.Gateway.HeartbeatIntervalSeconds
}

// TokenTTL returns JWT lifetime.
func (c *Config) TokenTTL() time.Duration {
	if c.Auth.TokenTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}
