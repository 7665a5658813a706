package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (ABACUS_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("log-level", os.Getenv("ABACUS_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-output", os.Getenv("ABACUS_LOG_OUTPUT"), &cfg.LogOutput)
	s.setString("env", os.Getenv("ABACUS_ENVIRONMENT"), &cfg.Environment)
	s.setString("plugin-dir", os.Getenv("ABACUS_PLUGIN_DIR"), &cfg.PluginDir)
	s.setString("max-input", os.Getenv("ABACUS_MAX_INPUT_VALUE"), &cfg.MaxInputValue)
	s.setString("prompt", os.Getenv("ABACUS_PROMPT"), &cfg.Prompt)

	if err := s.setIntFromString("max-history", os.Getenv("ABACUS_MAX_HISTORY_SIZE"), &cfg.MaxHistorySize); err != nil {
		return err
	}
	if err := s.setIntFromString("precision", os.Getenv("ABACUS_PRECISION"), &cfg.Precision); err != nil {
		return err
	}

	s.setBoolFromString("watch", os.Getenv("ABACUS_WATCH_PLUGINS"), &cfg.WatchPlugins)

	return nil
}
