// Package command defines the capability every abacus command implements and
// the shared environment commands run in.
package command

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/bft-labs/abacus/internal/domain"
	"github.com/bft-labs/abacus/pkg/history"
	"github.com/bft-labs/abacus/pkg/log"
	"github.com/bft-labs/abacus/pkg/operation"
)

// Command is a user-facing operation invoked with the tokens that followed
// its name on the input line.
//
// Execute reports user-level problems (bad numbers, division by zero) on the
// session output and returns nil. A returned error is printed by the
// dispatcher; *UsageError is the usual one.
type Command interface {
	Execute(args ...string) error
}

// Named is implemented by commands whose registry name does not come from
// their Go type, such as commands defined by plugin scripts. TypeName returns
// the declared type name ("DoubleCommand"), from which the registry derives
// the command name.
type Named interface {
	TypeName() string
}

// Lister enumerates registered command names in sorted order.
type Lister interface {
	Names() []string
}

// Env is the session state shared with commands. One Env belongs to one
// session and is only touched from the session goroutine.
type Env struct {
	History  *history.Store
	Library  *operation.Library
	Registry Lister
	Out      io.Writer
	Logger   log.Logger

	// MaxInput bounds the absolute value of operands. Nil means unbounded.
	MaxInput *decimal.Decimal

	// MaxHistory is the advisory history size; exceeding it only logs.
	MaxHistory int

	overMax bool
}

// Printf writes a line of user-facing output.
func (e *Env) Printf(format string, args ...interface{}) {
	fmt.Fprintf(e.Out, format+"\n", args...)
}

// PrintCommands writes the sorted command list and the help footer.
func (e *Env) PrintCommands() {
	e.Printf("\nAvailable commands:")
	for _, name := range e.Registry.Names() {
		e.Printf(" - %s", name)
	}
	e.Printf("Type 'help' to show commands, 'exit' to quit.\n")
}

// Append records r in the history and logs a warning the first time the
// history grows beyond MaxHistory.
func (e *Env) Append(r history.Record) {
	e.History.Append(r)
	n := e.History.Len()
	switch {
	case e.MaxHistory <= 0 || n <= e.MaxHistory:
		e.overMax = false
	case !e.overMax:
		e.overMax = true
		e.Log().Warn("history exceeds suggested maximum",
			log.Int("size", n),
			log.Int("max", e.MaxHistory))
	}
}

// Log returns the session logger, or a no-op logger when none is set.
func (e *Env) Log() log.Logger {
	if e.Logger == nil {
		return log.NewNoopLogger()
	}
	return e.Logger
}

// ParseOperand parses a decimal literal and checks it against MaxInput.
func (e *Env) ParseOperand(s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrInvalidNumber, s)
	}
	if e.MaxInput != nil && v.Abs().GreaterThan(*e.MaxInput) {
		return decimal.Zero, fmt.Errorf("%w: %s > %s", domain.ErrInputTooLarge, v.Abs(), e.MaxInput)
	}
	return v, nil
}

// UsageError reports a command invoked with the wrong arguments.
type UsageError struct {
	Usage string
	Got   int
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("usage: %s (got %d argument%s)", e.Usage, e.Got, plural(e.Got))
}

func (e *UsageError) Unwrap() error {
	return domain.ErrUsage
}

// CheckArity returns a *UsageError unless len(args) == want.
func CheckArity(usage string, want int, args []string) error {
	if len(args) != want {
		return &UsageError{Usage: usage, Got: len(args)}
	}
	return nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
