package registry

import (
	"fmt"
	"sort"

	"github.com/bft-labs/abacus/internal/command"
	"github.com/bft-labs/abacus/internal/domain"
	"github.com/bft-labs/abacus/pkg/log"
)

// Source is one plugin unit that yields commands.
type Source interface {
	// Name identifies the source in diagnostics.
	Name() string

	// Load builds the source's commands against env.
	Load(env *command.Env) ([]command.Command, error)
}

// SourceFunc adapts a function to Source.
func SourceFunc(name string, load func(env *command.Env) ([]command.Command, error)) Source {
	return funcSource{name: name, load: load}
}

type funcSource struct {
	name string
	load func(env *command.Env) ([]command.Command, error)
}

func (s funcSource) Name() string { return s.name }

func (s funcSource) Load(env *command.Env) ([]command.Command, error) { return s.load(env) }

// Registration records which source contributed a command name.
type Registration struct {
	Source string
	Name   string
}

// Failure records a source that could not be loaded.
type Failure struct {
	Source string
	Err    error
}

func (f Failure) Error() string {
	return fmt.Sprintf("plugin %s: %v", f.Source, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Result summarises a discovery run.
type Result struct {
	Registered []Registration
	Failures   []Failure
}

// Names returns the registered names in registration order.
func (r Result) Names() []string {
	names := make([]string, len(r.Registered))
	for i, reg := range r.Registered {
		names[i] = reg.Name
	}
	return names
}

// Registry maps command names to commands.
type Registry struct {
	commands map[string]command.Command
	logger   log.Logger
}

// New creates an empty registry.
func New(logger log.Logger) *Registry {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Registry{
		commands: make(map[string]command.Command),
		logger:   logger,
	}
}

// Register inserts or replaces the command stored under name.
func (r *Registry) Register(name string, cmd command.Command) {
	if _, exists := r.commands[name]; exists {
		r.logger.Warn("command replaced by later registration", log.String("command", name))
	}
	r.commands[name] = cmd
}

// Unregister removes name from the registry.
func (r *Registry) Unregister(name string) {
	delete(r.commands, name)
}

// Lookup returns the command registered under name.
func (r *Registry) Lookup(name string) (command.Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Names returns all registered names in alphabetical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	return len(r.commands)
}

// Discover loads every source and registers the commands they yield.
// Failing sources are isolated: they are reported in the result and logged,
// and discovery continues with the next source.
func (r *Registry) Discover(env *command.Env, sources ...Source) Result {
	var res Result
	for _, src := range sources {
		cmds, err := load(src, env)
		if err != nil {
			f := Failure{Source: src.Name(), Err: fmt.Errorf("%w: %w", domain.ErrPluginLoad, err)}
			res.Failures = append(res.Failures, f)
			r.logger.Error("error loading plugin", log.String("plugin", src.Name()), log.Err(err))
			continue
		}

		for _, cmd := range cmds {
			name := NameOf(cmd)
			if name == "" {
				r.logger.Warn("skipping unnamed command", log.String("plugin", src.Name()))
				continue
			}
			r.Register(name, cmd)
			res.Registered = append(res.Registered, Registration{Source: src.Name(), Name: name})
			r.logger.Debug("registered command", log.String("command", name), log.String("plugin", src.Name()))
		}
	}
	return res
}

// load runs src.Load, converting a panic into an error.
func load(src Source, env *command.Env) (cmds []command.Command, err error) {
	defer func() {
		if p := recover(); p != nil {
			cmds = nil
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return src.Load(env)
}
