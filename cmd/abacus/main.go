package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/abacus/internal/app"
	"github.com/bft-labs/abacus/internal/cliconfig"
	"github.com/bft-labs/abacus/pkg/log"
)

const helpDescription = `
An interactive calculator whose commands come from plugins.

Highlights:
  - Arithmetic, powers, roots and percentages on arbitrary-precision decimals.
  - History with undo and redo.
  - Add commands by dropping TOML, YAML or Lua files into a plugin directory;
    with --watch they are picked up while the session runs.
  - Configure via file, env (ABACUS_*), or flags.
`

var exampleUsage = strings.TrimSpace(`
  abacus
  abacus --plugin-dir ~/.abacus/plugins --watch
  abacus eval divide 10 4
  abacus commands --plugin-dir ./plugins
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	// setup resolves the configuration, builds the logger and the app, and
	// runs fn with a context cancelled on SIGINT or SIGTERM.
	setup := func(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
		cfgFile := cfgPath
		if cfgFile == "" {
			cfgFile = cliconfig.DefaultConfigPath()
		}

		// Build set of changed flags
		changed := map[string]bool{}
		cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

		if cfgPath != "" && !cliconfig.FileExists(cfgPath) {
			return fmt.Errorf("config file %s not found", cfgPath)
		}
		if cfgFile != "" && cliconfig.FileExists(cfgFile) {
			fc, err := cliconfig.LoadFileConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cliconfig.ApplyFileConfig(&cfg, fc, changed)
		}

		// Environment overrides the file; flags override both.
		if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, closer, err := log.New(cfg.LogOptions())
		if err != nil {
			return err
		}
		defer closer.Close()

		logger.Info("configuration",
			log.String("environment", cfg.Environment),
			log.Any("config", cfg))

		a, err := app.New(cfg, app.WithLogger(logger), app.WithOutput(cmd.OutOrStdout()))
		if err != nil {
			return fmt.Errorf("create app: %w", err)
		}
		defer a.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		go func() {
			select {
			case <-sigCh:
				logger.Info("received signal, stopping...")
				// A second signal gets the default handling and kills a
				// command that does not return.
				signal.Stop(sigCh)
				cancel()
			case <-ctx.Done():
			}
		}()

		return fn(ctx, a)
	}

	root := &cobra.Command{
		Use:          "abacus",
		Short:        "Interactive plugin-driven calculator",
		Long:         strings.TrimSpace(helpDescription),
		Example:      exampleUsage,
		Version:      fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd, func(ctx context.Context, a *app.App) error {
				return a.Run(ctx)
			})
		},
	}

	eval := &cobra.Command{
		Use:   "eval <command> [args...]",
		Short: "Run a single command and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd, func(_ context.Context, a *app.App) error {
				if err := a.Eval(joinArgs(args)); err != nil {
					// Already reported on stdout by the dispatcher.
					cmd.SilenceErrors = true
					return err
				}
				return nil
			})
		},
	}

	commands := &cobra.Command{
		Use:   "commands",
		Short: "List the available commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd, func(_ context.Context, a *app.App) error {
				for _, name := range a.Commands() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			})
		},
	}

	root.AddCommand(eval, commands)

	// Flags
	flags := root.PersistentFlags()
	flags.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.abacus/config.toml)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (trace, debug, info, warn, error)")
	flags.StringVar(&cfg.LogOutput, "log-output", cfg.LogOutput, "log file path (default: stderr)")
	flags.StringVar(&cfg.Environment, "env", cfg.Environment, "environment name attached to log entries")
	flags.StringVar(&cfg.PluginDir, "plugin-dir", cfg.PluginDir, "directory of scripted plugin files (.toml, .yaml, .lua)")
	flags.BoolVar(&cfg.WatchPlugins, "watch", cfg.WatchPlugins, "reload scripted plugins when the plugin directory changes")
	flags.IntVar(&cfg.MaxHistorySize, "max-history", cfg.MaxHistorySize, "history size above which a warning is logged (0 disables)")
	flags.IntVar(&cfg.Precision, "precision", cfg.Precision, "decimal places kept by division, percent and root")
	flags.StringVar(&cfg.MaxInputValue, "max-input", cfg.MaxInputValue, "largest accepted absolute operand value (default: unbounded)")
	flags.StringVar(&cfg.Prompt, "prompt", cfg.Prompt, "REPL prompt")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// joinArgs rebuilds a command line from shell arguments, quoting the ones
// the tokenizer would otherwise split.
func joinArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, " \t\n\"'\\#") {
			a = "'" + strings.ReplaceAll(a, "'", `'"'"'`) + "'"
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}
