// Package config carries the tunables of the server: listen address, read
// timeout, and the body spool threshold. Values start from Default and can
// be overlaid from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Host and Port form the listen address.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// ReadTimeoutMS bounds every single read on a connection. A read that
	// exceeds it aborts the connection without a response.
	ReadTimeoutMS int `yaml:"read_timeout_ms"`
	// ReadBufferSize sizes the buffered reader over each connection.
	ReadBufferSize int `yaml:"read_buffer_size"`
	// SpoolThreshold is the in-memory limit of a request body spool;
	// larger bodies spill to a temporary file.
	SpoolThreshold int `yaml:"spool_threshold"`
	// ServerName is the value of the injected Server response header.
	ServerName string `yaml:"server_name"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

func Default() *Config {
	return &Config{
		Host:           "127.0.0.1",
		Port:           8000,
		ReadTimeoutMS:  10_000,
		ReadBufferSize: 8 << 10,
		SpoolThreshold: 1 << 20, // 1MB
		ServerName:     "flint",
		LogLevel:       "info",
	}
}

// ReadTimeout returns the per-read timeout as a duration.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMS) * time.Millisecond
}

// Load returns Default overlaid with the YAML file at path.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
