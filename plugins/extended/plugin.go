// Package extended provides square, power, root, percent and absolute
// difference commands.
package extended

import (
	"github.com/bft-labs/abacus/internal/command"
	"github.com/bft-labs/abacus/internal/registry"
	"github.com/bft-labs/abacus/pkg/operation"
)

// SquareCommand prints and records a².
type SquareCommand struct{ *command.Arithmetic }

// PowerCommand prints and records a ^ b.
type PowerCommand struct{ *command.Arithmetic }

// RootCommand prints and records the n-th root of a.
type RootCommand struct{ *command.Arithmetic }

// PercentCommand prints and records a as a percentage of b.
type PercentCommand struct{ *command.Arithmetic }

// AbsDiffCommand prints and records |a - b|.
type AbsDiffCommand struct{ *command.Arithmetic }

// Source returns the plugin source for the extended commands.
func Source() registry.Source {
	return registry.SourceFunc("extended", func(env *command.Env) ([]command.Command, error) {
		return []command.Command{
			&SquareCommand{command.NewArithmetic(env, operation.Square)},
			&PowerCommand{command.NewArithmetic(env, operation.Power)},
			&RootCommand{command.NewArithmetic(env, operation.Root)},
			&PercentCommand{command.NewArithmetic(env, operation.Percent)},
			&AbsDiffCommand{command.NewArithmetic(env, operation.AbsDiff)},
		}, nil
	})
}
