package shipmate

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the top-level configuration for shipmate.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Channel ChannelConfig `toml:"channel"`
	Sync    SyncConfig    `toml:"sync"`
	Player  PlayerConfig  `toml:"player"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig identifies the media server and this device.
type ServerConfig struct {
	URL       string `toml:"url"`
	Token     string `toml:"token"`
	DeviceID  string `toml:"device_id"`
	UserID    string `toml:"user_id"`
	TimeoutMS int64  `toml:"timeout_ms"`
}

// ChannelConfig tunes the command channel.
type ChannelConfig struct {
	PingIntervalMS   int64 `toml:"ping_interval_ms"`
	PongDeadlineMS   int64 `toml:"pong_deadline_ms"`
	BackoffInitialMS int64 `toml:"backoff_initial_ms"`
	BackoffMaxMS     int64 `toml:"backoff_max_ms"`
	MaxAttempts      int   `toml:"max_attempts"`
}

// SyncConfig tunes the sync adapter.
type SyncConfig struct {
	ToleranceMS int64 `toml:"tolerance_ms"`
}

// PlayerConfig configures local playback.
type PlayerConfig struct {
	Pipeline string  `toml:"pipeline"`
	Device   string  `toml:"device"`
	Volume   float64 `toml:"volume"`
}

// LoadConfig loads a config file from path. Environment variables from a
// .env file (if present) and the SHIPMATE_* variables override file values.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path required")
	}

	var cfg Config
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// A config file is optional; env vars may carry everything.
	case err != nil:
		return Config{}, err
	case info.IsDir():
		return Config{}, errors.New("config path is a directory")
	default:
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	_ = godotenv.Load()
	applyEnv(&cfg)
	return cfg, nil
}

// DefaultConfigPath returns the default config location.
func DefaultConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "shipmate", "config.toml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "shipmate", "config.toml"), nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SHIPMATE_SERVER_URL"); v != "" {
		cfg.Server.URL = v
	}
	if v := os.Getenv("SHIPMATE_TOKEN"); v != "" {
		cfg.Server.Token = v
	}
	if v := os.Getenv("SHIPMATE_DEVICE_ID"); v != "" {
		cfg.Server.DeviceID = v
	}
	if v := os.Getenv("SHIPMATE_USER_ID"); v != "" {
		cfg.Server.UserID = v
	}
	if v := os.Getenv("SHIPMATE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Timeout returns the control API timeout.
func (c ServerConfig) Timeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Tolerance returns the sync drift tolerance.
func (c SyncConfig) Tolerance() time.Duration {
	if c.ToleranceMS <= 0 {
		return 0
	}
	return time.Duration(c.ToleranceMS) * time.Millisecond
}
