/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/keycodec/pkg/hex"
	"github.com/ssargent/keycodec/pkg/keyspec"
)

// Config represents the keycodec configuration
type Config struct {
	DataDir  string   `yaml:"data_dir"`
	Security Security `yaml:"security"`
	Logging  Logging  `yaml:"logging"`
	Index    Index    `yaml:"index"`
	Storage  Storage  `yaml:"storage"`
}

// Security contains key material used by the hmac and hkdf commands
type Security struct {
	HMACKey string `yaml:"hmac_key"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// Index contains secondary index configuration
type Index struct {
	Order int `yaml:"order"`
}

// Storage contains record store configuration
type Storage struct {
	Sync   bool   `yaml:"sync"`
	Schema string `yaml:"schema"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Security: Security{
			HMACKey: "auto",
		},
		Logging: Logging{
			Level: "info",
		},
		Index: Index{
			Order: 32,
		},
		Storage: Storage{
			Sync:   false,
			Schema: "id:ksuid",
		},
	}
}

// Validate checks the fields that are parsed later on.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return errors.Wrap(err, "logging.level")
	}
	if c.Index.Order < 3 {
		return errors.Newf("index.order must be at least 3, got %d", c.Index.Order)
	}
	if _, err := keyspec.Parse(c.Storage.Schema); err != nil {
		return errors.Wrap(err, "storage.schema")
	}
	return nil
}

// KeySpec parses the configured storage schema.
func (c *Config) KeySpec() (*keyspec.Spec, error) {
	return keyspec.Parse(c.Storage.Schema)
}

// NewLogger builds a production zap logger at the configured level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, errors.Wrap(err, "logging.level")
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc.Build()
}

// LoadConfig loads configuration from the specified path
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.Newf("config file does not exist: %s", configPath)
	}

	// Validate path to prevent directory traversal
	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, errors.Wrap(err, "invalid config path")
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	// Start from the defaults so that omitted sections keep working values
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	// Write with secure permissions (0600)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key,
// rendered as lowercase hex
func GenerateSecureKey(length int) (string, error) {
	key := make([]byte, length)
	if _, err := rand.Read(key); err != nil {
		return "", errors.Wrap(err, "failed to generate secure key")
	}
	return hex.EncodeToString(key), nil
}

// BootstrapConfig creates a new configuration with a generated key and saves it
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	hmacKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate hmac key")
	}
	config.Security.HMACKey = hmacKey

	// Save the configuration
	if err := SaveConfig(config, configPath); err != nil {
		return nil, errors.Wrap(err, "failed to save bootstrap config")
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./keycodec.yaml"
	}

	// For Linux/macOS, use ~/.config/keycodec/config.yaml
	configDir := filepath.Join(homeDir, ".config", "keycodec")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
