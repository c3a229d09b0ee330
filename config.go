package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds user settings read from ~/.colorpick/config.json.
// A zero FrameIntervalMS keeps the exact 60fps poll interval, which is not a
// whole number of milliseconds.
type Config struct {
	Backend         Backend `json:"backend"`
	PreviewWidth    float64 `json:"preview_width"`
	FrameIntervalMS int     `json:"frame_interval_ms"`
	MaxRetries      int     `json:"max_retries"`
	DeadlineMS      int     `json:"deadline_ms"`
	LogFile         string  `json:"log_file"`
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() Config {
	return Config{
		Backend:      BackendAuto,
		PreviewWidth: defaultPreviewWidth,
	}
}

// configDir overrides the default config directory for testing.
// When empty, the user's home directory is used.
var configDir string

func configPath() (string, error) {
	if configDir != "" {
		return filepath.Join(configDir, "config.json"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".colorpick", "config.json"), nil
}

// LoadConfig reads the config file over the defaults. A missing file is
// not an error. COLORPICK_LOG overrides the log file.
func LoadConfig() (Config, error) {
	cfg, err := readConfig()
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("COLORPICK_LOG"); v != "" {
		cfg.LogFile = v
	}
	return cfg, cfg.validate()
}

// readConfig returns the file contents over the defaults, without
// environment overrides.
func readConfig() (Config, error) {
	cfg := DefaultConfig()

	path, err := configPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, err
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return DefaultConfig(), fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	return cfg, nil
}

// SavePreviewWidth stores w as the preview width for the next session. The
// rest of the file is kept as written; a file that does not parse is left
// alone.
func SavePreviewWidth(w float64) error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}
	cfg.PreviewWidth = w
	return SaveConfig(cfg)
}

// SaveConfig writes cfg, creating the config directory with 0700 if needed.
func SaveConfig(cfg Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func (c Config) validate() error {
	switch c.Backend {
	case "", BackendAuto, BackendX11, BackendPortable, BackendFFmpeg, BackendPipeWire:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.MaxRetries < 0 || c.DeadlineMS < 0 || c.FrameIntervalMS < 0 {
		return fmt.Errorf("retry settings must not be negative")
	}
	return nil
}

// ScreenCapture builds the screen capture source described by c.
func (c Config) ScreenCapture() ScreenCapture {
	return ScreenCapture{
		Open:       OpenDisplay(c.Backend),
		Interval:   time.Duration(c.FrameIntervalMS) * time.Millisecond,
		MaxRetries: c.MaxRetries,
		Deadline:   time.Duration(c.DeadlineMS) * time.Millisecond,
	}
}
