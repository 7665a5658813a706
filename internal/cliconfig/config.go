package cliconfig

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/bft-labs/abacus/internal/domain"
	"github.com/bft-labs/abacus/pkg/log"
	"github.com/bft-labs/abacus/pkg/operation"
)

// Defaults for Config.
const (
	DefaultEnvironment    = "development"
	DefaultMaxHistorySize = 50
	DefaultPrompt         = ">>> "
)

// Config holds CLI configuration for abacus.
type Config struct {
	LogLevel    string
	LogOutput   string
	Environment string

	PluginDir    string
	WatchPlugins bool

	MaxHistorySize int
	Precision      int
	MaxInputValue  string

	Prompt string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		LogLevel:       log.DefaultLevel,
		Environment:    DefaultEnvironment,
		MaxHistorySize: DefaultMaxHistorySize,
		Precision:      int(operation.DefaultPrecision),
		Prompt:         DefaultPrompt,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	if c.Precision < 0 {
		return fmt.Errorf("%w: precision must not be negative", domain.ErrInvalidConfig)
	}
	if c.MaxHistorySize < 0 {
		return fmt.Errorf("%w: max history size must not be negative", domain.ErrInvalidConfig)
	}
	if _, err := c.MaxInput(); err != nil {
		return err
	}
	return nil
}

// MaxInput parses MaxInputValue. An empty value means unbounded and yields nil.
func (c Config) MaxInput() (*decimal.Decimal, error) {
	if c.MaxInputValue == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(c.MaxInputValue)
	if err != nil {
		return nil, fmt.Errorf("%w: max input value %q is not a number", domain.ErrInvalidConfig, c.MaxInputValue)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: max input value must not be negative", domain.ErrInvalidConfig)
	}
	return &d, nil
}

// LogOptions returns the logger options described by the configuration.
func (c Config) LogOptions() log.Options {
	return log.Options{
		Level:       c.LogLevel,
		Output:      c.LogOutput,
		Environment: c.Environment,
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value from a pointer if not nil and flag not changed.
// Zero is a meaningful value for precision and history size, so absence is
// signalled by nil rather than by the zero value.
func (s *configSetter) setInt(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
