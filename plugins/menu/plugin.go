// Package menu provides the command that lists every registered command.
package menu

import (
	"errors"

	"github.com/bft-labs/abacus/internal/command"
	"github.com/bft-labs/abacus/internal/registry"
)

// MenuCommand prints the registered command names.
type MenuCommand struct {
	env *command.Env
}

// Execute prints the command list. It takes no arguments.
func (c *MenuCommand) Execute(args ...string) error {
	if err := command.CheckArity("menu", 0, args); err != nil {
		return err
	}
	c.env.PrintCommands()
	return nil
}

// Source returns the plugin source for the menu command. The command reads
// names from env.Registry, so the session must set it before discovery.
func Source() registry.Source {
	return registry.SourceFunc("menu", func(env *command.Env) ([]command.Command, error) {
		if env.Registry == nil {
			return nil, errors.New("menu requires a registry")
		}
		return []command.Command{&MenuCommand{env: env}}, nil
	})
}
