// Package config loads and persists the botctl configuration file.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starrain-dev/botctl/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "botctl.json"

	// DefaultControllerURL is the controller address a fresh install talks to.
	DefaultControllerURL = "http://127.0.0.1:8080"
)

// Config represents the complete botctl.json configuration.
type Config struct {
	// ControllerURL is the HTTP base URL of the bot controller.
	ControllerURL string `json:"controllerUrl,omitempty"`

	// WebSocketURL overrides the derived control channel endpoint.
	WebSocketURL string `json:"websocketUrl,omitempty"`

	// RequestTimeout is the general control call deadline (e.g. "15s").
	RequestTimeout string `json:"requestTimeout,omitempty"`

	// LoginTimeout is the login call deadline (e.g. "5s").
	LoginTimeout string `json:"loginTimeout,omitempty"`

	// ReconnectDelay is the wait between a transient channel closure and
	// the next handshake (e.g. "3s").
	ReconnectDelay string `json:"reconnectDelay,omitempty"`

	// CredentialFile is where the bearer credential is cached between
	// invocations. Defaults next to the config file.
	CredentialFile string `json:"credentialFile,omitempty"`

	// Archive contains log archival settings.
	Archive ArchiveConfig `json:"archive,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ArchiveConfig contains S3 log archival settings.
type ArchiveConfig struct {
	// Bucket is the S3 bucket log batches are archived to.
	Bucket string `json:"bucket,omitempty"`

	// Region is the bucket's AWS region.
	Region string `json:"region,omitempty"`

	// Prefix is the object key prefix (default "botlogs/").
	Prefix string `json:"prefix,omitempty"`
}

// Default creates a Config with default values.
func Default() *Config {
	return &Config{
		ControllerURL:  DefaultControllerURL,
		RequestTimeout: "15s",
		LoginTimeout:   "5s",
		ReconnectDelay: "3s",
		Archive: ArchiveConfig{
			Prefix: "botlogs/",
		},
	}
}

// Load reads configuration from dir, or from the user config directory when
// dir has no config file. Missing files are not an error: defaults apply.
func Load(dir string) (*Config, error) {
	paths := []string{filepath.Join(dir, ConfigFileName)}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "botctl", ConfigFileName))
	}
	for _, path := range paths {
		cfg, err := LoadFile(path)
		if err == nil {
			return cfg, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return Default(), nil
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.CodeConfig).
			WithDetail("not valid JSON: " + path).
			WithCause(err)
	}
	cfg.configPath = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Path returns where the configuration was loaded from, or "" for defaults.
func (c *Config) Path() string {
	return c.configPath
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.ControllerURL == "" {
		return errors.New(errors.CodeConfig).WithDetail("controllerUrl must not be empty")
	}
	if !strings.HasPrefix(c.ControllerURL, "http://") && !strings.HasPrefix(c.ControllerURL, "https://") {
		return errors.New(errors.CodeConfig).WithDetail("controllerUrl must start with http:// or https://")
	}
	for name, value := range map[string]string{
		"requestTimeout": c.RequestTimeout,
		"loginTimeout":   c.LoginTimeout,
		"reconnectDelay": c.ReconnectDelay,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return errors.New(errors.CodeConfig).
				WithDetail(name + " is not a duration: " + value).
				WithCause(err)
		}
	}
	return nil
}

// Duration parses one of the duration fields, falling back to def when the
// field is empty or unparseable (Validate rejects unparseable values at load
// time; the fallback covers hand-built configs).
func Duration(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}
