// Package app wires configuration, logging, plugin discovery and the REPL
// into a runnable calculator.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/bft-labs/abacus/internal/cliconfig"
	"github.com/bft-labs/abacus/internal/command"
	"github.com/bft-labs/abacus/internal/registry"
	"github.com/bft-labs/abacus/internal/repl"
	"github.com/bft-labs/abacus/pkg/history"
	"github.com/bft-labs/abacus/pkg/log"
	"github.com/bft-labs/abacus/pkg/operation"
	"github.com/bft-labs/abacus/plugins/arithmetic"
	"github.com/bft-labs/abacus/plugins/extended"
	"github.com/bft-labs/abacus/plugins/menu"
	"github.com/bft-labs/abacus/plugins/script"
	"github.com/bft-labs/abacus/plugins/session"
	"github.com/bft-labs/abacus/plugins/watcher"
)

// builtinSources lists the plugin sources compiled into the binary, in
// discovery order.
var builtinSources = []func() registry.Source{
	arithmetic.Source,
	extended.Source,
	menu.Source,
	session.Source,
}

// App is one calculator session with its registry, history and plugins.
type App struct {
	cfg      cliconfig.Config
	logger   log.Logger
	env      *command.Env
	registry *registry.Registry
	in       io.Reader
	observer repl.Observer
	watcher  *watcher.Watcher

	// builtins holds the compiled-in commands so that a scripted command
	// shadowing one can be undone on reload.
	builtins map[string]command.Command
	scripted []string
	closers  []io.Closer
}

type options struct {
	logger   log.Logger
	in       io.Reader
	out      io.Writer
	observer repl.Observer
}

// Option configures optional behavior of an App.
type Option func(*options)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithInput sets the REPL input. Defaults to os.Stdin.
func WithInput(r io.Reader) Option {
	return func(o *options) {
		o.in = r
	}
}

// WithOutput sets where results and diagnostics are written. Defaults to
// os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// WithObserver registers an observer for REPL state changes.
func WithObserver(obs repl.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// New validates cfg, builds the command environment and discovers the
// built-in and scripted plugins. Plugin failures are logged, not returned.
func New(cfg cliconfig.Config, opts ...Option) (*App, error) {
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	maxInput, err := cfg.MaxInput()
	if err != nil {
		return nil, err
	}

	o := options{in: os.Stdin, out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewNoopLogger()
	}

	reg := registry.New(o.logger)
	env := &command.Env{
		History:    history.NewStore(),
		Library:    operation.NewLibrary(int32(cfg.Precision)),
		Registry:   reg,
		Out:        o.out,
		Logger:     o.logger,
		MaxInput:   maxInput,
		MaxHistory: cfg.MaxHistorySize,
	}

	a := &App{
		cfg:      cfg,
		logger:   o.logger,
		env:      env,
		registry: reg,
		in:       o.in,
		observer: o.observer,
		builtins: make(map[string]command.Command),
	}

	sources := make([]registry.Source, 0, len(builtinSources))
	for _, src := range builtinSources {
		sources = append(sources, src())
	}
	res := reg.Discover(env, sources...)
	for _, name := range res.Names() {
		cmd, _ := reg.Lookup(name)
		a.builtins[name] = cmd
	}
	a.logDiscovery("builtin", res)

	a.loadScripts()

	if cfg.WatchPlugins && cfg.PluginDir != "" {
		a.watcher = watcher.New(cfg.PluginDir, watcher.DefaultConfig(), o.logger)
	}

	return a, nil
}

// Commands returns the registered command names in sorted order.
func (a *App) Commands() []string {
	return a.registry.Names()
}

// Run starts the interactive session and blocks until it terminates.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	var changes <-chan struct{}
	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err != nil {
			a.logger.Warn("plugin watcher disabled", log.Err(err))
		} else {
			defer a.watcher.Stop()
			changes = a.watcher.Changes()
		}
	}

	s := repl.New(a.registry, a.env,
		repl.WithInput(a.in),
		repl.WithPrompt(a.cfg.Prompt),
		repl.WithLogger(a.logger),
		repl.WithObserver(a.observer),
		repl.WithReload(changes, a.Reload),
	)
	err := s.Run(ctx)
	a.logger.Info("session ended", log.Int("history_size", a.env.History.Len()))
	return err
}

// Eval dispatches a single command line without the welcome banner. It
// returns the dispatch error, which has already been reported on the output.
func (a *App) Eval(line string) error {
	s := repl.New(a.registry, a.env,
		repl.WithLogger(a.logger),
		repl.WithObserver(a.observer),
	)
	if err := s.Start(false); err != nil {
		return err
	}
	return s.Handle(line)
}

// Reload drops the scripted commands and rediscovers the plugin directory.
// Built-in commands shadowed by a removed script are restored. It must run on
// the session goroutine.
func (a *App) Reload() {
	a.logger.Info("reloading scripted plugins", log.String("dir", a.cfg.PluginDir))
	a.unloadScripts()
	a.loadScripts()
}

// Close releases resources held by scripted commands.
func (a *App) Close() error {
	a.closeScripts()
	return nil
}

func (a *App) loadScripts() {
	if a.cfg.PluginDir == "" {
		return
	}
	sources, err := script.Sources(a.cfg.PluginDir, a.logger)
	if err != nil {
		a.logger.Error("error reading plugin directory", log.String("dir", a.cfg.PluginDir), log.Err(err))
		return
	}

	tracked := make([]registry.Source, len(sources))
	for i, src := range sources {
		tracked[i] = a.track(src)
	}
	res := a.registry.Discover(a.env, tracked...)
	a.scripted = res.Names()
	a.logDiscovery("script", res)
}

// track wraps src so that loaded commands holding resources are closed on
// reload, including ones later replaced by a same-named command.
func (a *App) track(src registry.Source) registry.Source {
	return registry.SourceFunc(src.Name(), func(env *command.Env) ([]command.Command, error) {
		cmds, err := src.Load(env)
		for _, cmd := range cmds {
			if c, ok := cmd.(io.Closer); ok {
				a.closers = append(a.closers, c)
			}
		}
		return cmds, err
	})
}

func (a *App) unloadScripts() {
	for _, name := range a.scripted {
		a.registry.Unregister(name)
		if cmd, ok := a.builtins[name]; ok {
			a.registry.Register(name, cmd)
		}
	}
	a.scripted = nil
	a.closeScripts()
}

func (a *App) closeScripts() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("close scripted command", log.Err(err))
		}
	}
	a.closers = nil
}

func (a *App) logDiscovery(kind string, res registry.Result) {
	failed := make([]string, len(res.Failures))
	for i, f := range res.Failures {
		failed[i] = f.Source
	}
	a.logger.Info("plugin discovery complete",
		log.String("kind", kind),
		log.Int("registered", len(res.Registered)),
		log.Int("failed", len(res.Failures)),
		log.Strings("failed_plugins", failed),
	)
}

// validateModuleVersions checks that all module versions are compatible.
// Returns an error if any module version is below its minimum compatible version.
func validateModuleVersions() error {
	modules := map[string]struct {
		version    string
		minVersion string
	}{
		"operation": {operation.Version, operation.MinCompatibleVersion},
		"history":   {history.Version, history.MinCompatibleVersion},
		"log":       {log.Version, log.MinCompatibleVersion},
	}

	for name, m := range modules {
		if !isVersionCompatible(m.version, m.minVersion) {
			return fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, m.version, m.minVersion)
		}
	}

	return nil
}

// isVersionCompatible checks if version >= minVersion using semantic versioning.
// Assumes versions are in format "major.minor.patch".
func isVersionCompatible(version, minVersion string) bool {
	var vMajor, vMinor, vPatch int
	var mMajor, mMinor, mPatch int

	_, _ = fmt.Sscanf(version, "%d.%d.%d", &vMajor, &vMinor, &vPatch)
	_, _ = fmt.Sscanf(minVersion, "%d.%d.%d", &mMajor, &mMinor, &mPatch)

	if vMajor != mMajor {
		return vMajor > mMajor
	}
	if vMinor != mMinor {
		return vMinor > mMinor
	}
	return vPatch >= mPatch
}
