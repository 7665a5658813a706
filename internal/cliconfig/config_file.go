package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config for TOML. Numeric and boolean fields are pointers
// so that an explicit zero in the file is distinguishable from an absent key.
type FileConfig struct {
	LogLevel       string `toml:"log_level"`
	LogOutput      string `toml:"log_output"`
	Environment    string `toml:"environment"`
	PluginDir      string `toml:"plugin_dir"`
	WatchPlugins   *bool  `toml:"watch_plugins"`
	MaxHistorySize *int   `toml:"max_history_size"`
	Precision      *int   `toml:"precision"`
	MaxInputValue  string `toml:"max_input_value"`
	Prompt         string `toml:"prompt"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.abacus/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".abacus", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) {
	s := newConfigSetter(changed)

	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-output", fc.LogOutput, &cfg.LogOutput)
	s.setString("env", fc.Environment, &cfg.Environment)
	s.setString("plugin-dir", fc.PluginDir, &cfg.PluginDir)
	s.setString("max-input", fc.MaxInputValue, &cfg.MaxInputValue)
	s.setString("prompt", fc.Prompt, &cfg.Prompt)

	s.setInt("max-history", fc.MaxHistorySize, &cfg.MaxHistorySize)
	s.setInt("precision", fc.Precision, &cfg.Precision)

	s.setBool("watch", fc.WatchPlugins, &cfg.WatchPlugins)
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
