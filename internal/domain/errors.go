package domain

import "errors"

// Domain errors represent error conditions in the abacus session.
// They can be checked with errors.Is; none of them terminates the REPL.
var (
	// ErrInvalidNumber is returned when an argument is not a decimal literal.
	ErrInvalidNumber = errors.New("abacus: invalid number")

	// ErrInputTooLarge is returned when an operand exceeds the configured maximum.
	ErrInputTooLarge = errors.New("abacus: input exceeds maximum")

	// ErrUsage is returned when a command receives the wrong number of arguments
	// or a line cannot be tokenized.
	ErrUsage = errors.New("abacus: usage")

	// ErrUnknownCommand is returned when no command is registered under a name.
	ErrUnknownCommand = errors.New("abacus: no such command")

	// ErrPluginLoad is returned when a plugin source cannot be loaded.
	ErrPluginLoad = errors.New("abacus: plugin load failed")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("abacus: invalid configuration")

	// ErrTerminated is returned when a session that has terminated is used again.
	ErrTerminated = errors.New("abacus: session terminated")

	// ErrInvalidTransition is returned for a session state change the state
	// machine does not allow.
	ErrInvalidTransition = errors.New("abacus: invalid state transition")
)
