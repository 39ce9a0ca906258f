/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ssargent/dbckit/pkg/codec"
	"github.com/ssargent/dbckit/pkg/logging"
	"gopkg.in/yaml.v3"
)

// Config represents the dbc configuration
type Config struct {
	SchemaDir string  `yaml:"schema_dir"`
	DataDir   string  `yaml:"data_dir"`
	Server    Server  `yaml:"server"`
	Codec     Codec   `yaml:"codec"`
	Logging   Logging `yaml:"logging"`
}

// Server contains the HTTP table server configuration
type Server struct {
	Bind        string   `yaml:"bind"`
	Port        int      `yaml:"port"`
	APIKey      string   `yaml:"api_key"`
	CORSOrigins []string `yaml:"cors_origins,omitempty"`
}

// Codec overrides the string policies declared by schemas. Empty values
// leave the schema's choice in place.
type Codec struct {
	StringPolicy    string `yaml:"string_policy,omitempty"`
	LocalizedPolicy string `yaml:"localized_policy,omitempty"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		SchemaDir: "./schemas",
		DataDir:   "./data",
		Server: Server{
			Bind: "127.0.0.1",
			Port: 8080,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// Addr is the listen address of the table server.
func (s Server) Addr() string {
	return net.JoinHostPort(s.Bind, strconv.Itoa(s.Port))
}

// Policies parses the override policies. A nil result means no override.
func (c Codec) Policies() (str, loc *codec.StringPolicy, err error) {
	parse := func(name, v string) (*codec.StringPolicy, error) {
		if v == "" {
			return nil, nil
		}
		p, err := codec.ParseStringPolicy(v)
		if err != nil {
			return nil, fmt.Errorf("codec.%s: %w", name, err)
		}
		return &p, nil
	}
	if str, err = parse("string_policy", c.StringPolicy); err != nil {
		return nil, nil, err
	}
	if loc, err = parse("localized_policy", c.LocalizedPolicy); err != nil {
		return nil, nil, err
	}
	return str, loc, nil
}

// Validate checks values that would otherwise fail late, at serve or
// encode time.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if _, _, err := c.Codec.Policies(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}
	return nil
}

// LoadConfig loads configuration from the specified path
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file holds the server API key.
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a default configuration with a freshly generated
// server API key.
func BootstrapConfig(configPath, dataDir, schemaDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}
	if schemaDir != "" {
		config.SchemaDir = schemaDir
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Server.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./dbc.yaml"
	}

	return filepath.Join(homeDir, ".config", "dbc", "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
