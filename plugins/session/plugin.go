// Package session provides commands that act on the session itself: exit and
// the history commands (history, last, undo, redo, clear).
package session

import (
	"github.com/bft-labs/abacus/internal/command"
	"github.com/bft-labs/abacus/internal/registry"
	"github.com/bft-labs/abacus/pkg/log"
)

// ExitCommand says goodbye. The REPL stops after running it.
type ExitCommand struct{ env *command.Env }

func (c *ExitCommand) Execute(args ...string) error {
	c.env.Log().Info("exit command received", log.Int("history_size", c.env.History.Len()))
	c.env.Printf("Exiting...")
	return nil
}

// HistoryCommand lists the executed calculations, oldest first.
type HistoryCommand struct{ env *command.Env }

func (c *HistoryCommand) Execute(args ...string) error {
	if err := command.CheckArity("history", 0, args); err != nil {
		return err
	}
	records := c.env.History.All()
	if len(records) == 0 {
		c.env.Printf("History is empty")
		return nil
	}
	for i, r := range records {
		c.env.Printf("%d. %s", i+1, r)
	}
	return nil
}

// LastCommand prints the most recent calculation.
type LastCommand struct{ env *command.Env }

func (c *LastCommand) Execute(args ...string) error {
	if err := command.CheckArity("last", 0, args); err != nil {
		return err
	}
	r, ok := c.env.History.Last()
	if !ok {
		c.env.Printf("History is empty")
		return nil
	}
	c.env.Printf("%s", r)
	return nil
}

// UndoCommand moves the most recent calculation to the redo list.
type UndoCommand struct{ env *command.Env }

func (c *UndoCommand) Execute(args ...string) error {
	if err := command.CheckArity("undo", 0, args); err != nil {
		return err
	}
	r, ok := c.env.History.Undo()
	if !ok {
		c.env.Printf("Nothing to undo")
		return nil
	}
	c.env.Printf("Undid: %s", r)
	return nil
}

// RedoCommand restores the most recently undone calculation.
type RedoCommand struct{ env *command.Env }

func (c *RedoCommand) Execute(args ...string) error {
	if err := command.CheckArity("redo", 0, args); err != nil {
		return err
	}
	r, ok := c.env.History.Redo()
	if !ok {
		c.env.Printf("Nothing to redo")
		return nil
	}
	c.env.Printf("Redid: %s", r)
	return nil
}

// ClearCommand empties the history, including the redo list.
type ClearCommand struct{ env *command.Env }

func (c *ClearCommand) Execute(args ...string) error {
	if err := command.CheckArity("clear", 0, args); err != nil {
		return err
	}
	c.env.History.Clear()
	c.env.Printf("History cleared")
	return nil
}

// Source returns the plugin source for the session commands.
func Source() registry.Source {
	return registry.SourceFunc("session", func(env *command.Env) ([]command.Command, error) {
		return []command.Command{
			&ExitCommand{env: env},
			&HistoryCommand{env: env},
			&LastCommand{env: env},
			&UndoCommand{env: env},
			&RedoCommand{env: env},
			&ClearCommand{env: env},
		}, nil
	})
}
