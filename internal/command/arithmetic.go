package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bft-labs/abacus/internal/domain"
	"github.com/bft-labs/abacus/pkg/history"
	"github.com/bft-labs/abacus/pkg/log"
	"github.com/bft-labs/abacus/pkg/operation"
)

// Arithmetic runs one operation from the library, records it and prints the
// result. Plugin command types embed it:
//
//	type AddCommand struct{ *command.Arithmetic }
//
// Arithmetic itself is the base type and is never registered.
type Arithmetic struct {
	env   *Env
	kind  operation.Kind
	name  string
	fixed []decimal.Decimal
}

// NewArithmetic creates the base for a command running kind.
func NewArithmetic(env *Env, kind operation.Kind) *Arithmetic {
	return &Arithmetic{env: env, kind: kind, name: kind.String()}
}

// WithFixed returns a copy that supplies the trailing operands itself, so the
// command takes fewer arguments. name replaces the name shown in usage.
func (a *Arithmetic) WithFixed(name string, operands ...decimal.Decimal) *Arithmetic {
	c := *a
	c.name = name
	c.fixed = append([]decimal.Decimal(nil), operands...)
	return &c
}

// Kind returns the operation the command runs.
func (a *Arithmetic) Kind() operation.Kind {
	return a.kind
}

// Arity returns the number of arguments the command expects.
func (a *Arithmetic) Arity() int {
	return a.kind.Arity() - len(a.fixed)
}

// Usage returns the usage line, e.g. "divide a b".
func (a *Arithmetic) Usage() string {
	params := []string{"a", "b"}[:a.Arity()]
	if a.kind == operation.Root && len(a.fixed) == 0 {
		params = []string{"a", "n"}
	}
	return strings.TrimSpace(a.name + " " + strings.Join(params, " "))
}

// Execute parses the operands, evaluates the operation and records it.
// Parse and domain errors are reported on the session output.
func (a *Arithmetic) Execute(args ...string) error {
	if err := CheckArity(a.Usage(), a.Arity(), args); err != nil {
		return err
	}

	operands := make([]decimal.Decimal, 0, a.kind.Arity())
	for _, s := range args {
		v, err := a.env.ParseOperand(s)
		if err != nil {
			a.report(err, s)
			return nil
		}
		operands = append(operands, v)
	}
	operands = append(operands, a.fixed...)

	left, right := operands[0], operands[0]
	if len(operands) > 1 {
		right = operands[1]
	}

	rec, err := history.NewRecord(a.env.Library, a.kind, left, right)
	if err != nil {
		if operation.IsDomainError(err) {
			a.report(err, strings.Join(args, " "))
			return nil
		}
		return fmt.Errorf("%s: %w", a.name, err)
	}

	a.env.Append(rec)
	a.env.Printf("%s", rec)
	a.env.Log().Debug("calculation recorded",
		log.String("command", a.name),
		log.Stringer("result", rec.Result()))
	return nil
}

func (a *Arithmetic) report(err error, arg string) {
	a.env.Log().Debug("calculation rejected",
		log.String("command", a.name),
		log.String("input", arg),
		log.Err(err))

	switch {
	case errors.Is(err, domain.ErrInvalidNumber):
		a.env.Printf("Invalid number: %s is not a valid number.", arg)
	case errors.Is(err, domain.ErrInputTooLarge):
		a.env.Printf("Input exceeds maximum: %s (max %s)", arg, a.env.MaxInput)
	default:
		a.env.Printf("Error: %v", err)
	}
}
