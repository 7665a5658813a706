// Package arithmetic provides the four basic operations plus modulus and
// integer division as abacus commands.
package arithmetic

import (
	"github.com/bft-labs/abacus/internal/command"
	"github.com/bft-labs/abacus/internal/registry"
	"github.com/bft-labs/abacus/pkg/operation"
)

// AddCommand prints and records a + b.
type AddCommand struct{ *command.Arithmetic }

// SubtractCommand prints and records a - b.
type SubtractCommand struct{ *command.Arithmetic }

// MultiplyCommand prints and records a * b.
type MultiplyCommand struct{ *command.Arithmetic }

// DivideCommand prints and records a / b.
type DivideCommand struct{ *command.Arithmetic }

// ModulusCommand prints and records a % b; the sign follows a.
type ModulusCommand struct{ *command.Arithmetic }

// IntDivideCommand prints and records a // b, truncated toward zero.
type IntDivideCommand struct{ *command.Arithmetic }

// Source returns the plugin source for the arithmetic commands.
func Source() registry.Source {
	return registry.SourceFunc("arithmetic", func(env *command.Env) ([]command.Command, error) {
		return []command.Command{
			&AddCommand{command.NewArithmetic(env, operation.Add)},
			&SubtractCommand{command.NewArithmetic(env, operation.Subtract)},
			&MultiplyCommand{command.NewArithmetic(env, operation.Multiply)},
			&DivideCommand{command.NewArithmetic(env, operation.Divide)},
			&ModulusCommand{command.NewArithmetic(env, operation.Modulus)},
			&IntDivideCommand{command.NewArithmetic(env, operation.IntDivide)},
		}, nil
	})
}
