package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.slacksync/config.toml.
type Config struct {
	DefaultSession string `toml:"default_session"`
}

// SessionConfig is the per-session config.toml: the token plus connection
// tuning for one workspace.
type SessionConfig struct {
	Token      string `toml:"token"`
	APIBaseURL string `toml:"api_base_url"`

	// Liveness probing. A zero timeout disables the staleness check.
	PingIntervalSec int `toml:"ping_interval_sec"`
	PingTimeoutSec  int `toml:"ping_timeout_sec"`

	Reconnect           bool `toml:"reconnect"`
	MaxReconnectWaitSec int  `toml:"max_reconnect_wait_sec"`

	// Handshake flags.
	SimpleLatest bool `toml:"simple_latest"`
	NoUnreads    bool `toml:"no_unreads"`
	MPIMAware    bool `toml:"mpim_aware"`
}

// Load reads config from the given path. Returns zero config and error if
// file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	return save(path, cfg)
}

// LoadSession reads a per-session config file.
func LoadSession(path string) (*SessionConfig, error) {
	var cfg SessionConfig
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveSession writes a per-session config file.
func SaveSession(path string, cfg *SessionConfig) error {
	return save(path, cfg)
}

func save(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(v)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
