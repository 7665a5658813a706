// Package repl implements the read-dispatch loop of an abacus session.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/shlex"

	"github.com/bft-labs/abacus/internal/command"
	"github.com/bft-labs/abacus/internal/domain"
	"github.com/bft-labs/abacus/internal/registry"
	"github.com/bft-labs/abacus/pkg/log"
)

// DefaultPrompt is printed before each line of input.
const DefaultPrompt = ">>> "

// DefaultMaxLineLength is the longest input line, in bytes, that Run accepts.
const DefaultMaxLineLength = 1 << 20

const (
	exitCommand = "exit"
	helpCommand = "help"
	helpAlias   = "?"
)

// Session reads command lines, resolves them against the registry and runs
// them. All registry and history access happens on the goroutine that calls
// Run or Handle.
type Session struct {
	registry *registry.Registry
	env      *command.Env
	logger   log.Logger
	observer Observer

	in      io.Reader
	prompt  string
	maxLine int

	reloads  <-chan struct{}
	onReload func()

	state State
}

// Option configures optional behavior of a Session.
type Option func(*Session)

// WithInput sets the line source. Defaults to os.Stdin.
func WithInput(r io.Reader) Option {
	return func(s *Session) {
		s.in = r
	}
}

// WithPrompt sets the prompt printed before each line.
func WithPrompt(prompt string) Option {
	return func(s *Session) {
		s.prompt = prompt
	}
}

// WithMaxLineLength sets the longest accepted input line. Longer lines are
// discarded with a usage diagnostic.
func WithMaxLineLength(n int) Option {
	return func(s *Session) {
		s.maxLine = n
	}
}

// WithLogger sets the session logger. Defaults to the environment's logger.
func WithLogger(logger log.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithObserver registers an observer for state changes.
func WithObserver(o Observer) Option {
	return func(s *Session) {
		s.observer = o
	}
}

// WithReload makes Run call fn whenever changes delivers a value. fn runs on
// the session goroutine between commands.
func WithReload(changes <-chan struct{}, fn func()) Option {
	return func(s *Session) {
		s.reloads = changes
		s.onReload = fn
	}
}

// New creates a session in StateIdle. Output goes to env.Out.
func New(reg *registry.Registry, env *command.Env, opts ...Option) *Session {
	s := &Session{
		registry: reg,
		env:      env,
		in:       os.Stdin,
		prompt:   DefaultPrompt,
		maxLine:  DefaultMaxLineLength,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = env.Log()
	}
	return s
}

// State returns the current session state.
func (s *Session) State() State {
	return s.state
}

// Start moves the session from Idle to AwaitingInput. With welcome set it
// prints the banner and the command list first.
func (s *Session) Start(welcome bool) error {
	if welcome {
		s.env.Printf("Welcome to Calculator!")
		s.env.PrintCommands()
	}
	return s.transitionTo(StateAwaitingInput, "session started")
}

// Run starts the session and processes input until exit, end of input or
// context cancellation.
func (s *Session) Run(ctx context.Context) error {
	if err := s.Start(true); err != nil {
		return err
	}
	s.logger.Info("starting REPL interface")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan input)
	readErr := make(chan error, 1)
	go readLines(ctx, s.in, s.maxLine, lines, readErr)

	needPrompt := true
	for {
		if needPrompt {
			fmt.Fprint(s.env.Out, s.prompt)
		}
		needPrompt = true

		select {
		case <-ctx.Done():
			s.logger.Info("interrupt received")
			s.env.Printf("\nExiting...")
			return s.transitionTo(StateTerminated, "interrupted")

		case <-s.reloads:
			needPrompt = false
			if s.onReload != nil {
				s.onReload()
			}

		case in, ok := <-lines:
			if !ok {
				s.env.Printf("\nExiting...")
				if err := s.transitionTo(StateTerminated, "end of input"); err != nil {
					return err
				}
				return <-readErr
			}
			if in.err != nil {
				s.logger.Warn("input line rejected", log.Err(in.err))
				s.env.Printf("Error: %v", in.err)
				continue
			}
			_ = s.Handle(in.line)
			if s.state == StateTerminated {
				return nil
			}
		}
	}
}

// Handle processes one input line. Diagnostics are printed on the session
// output; the returned error is the same problem for callers that need it
// (nil for blank lines, help, exit and successful commands).
func (s *Session) Handle(line string) error {
	if s.state == StateTerminated {
		return domain.ErrTerminated
	}

	line = strings.TrimSpace(line)
	s.logger.Debug("user input", log.String("line", line))
	if line == "" {
		return nil
	}

	tokens, err := shlex.Split(line)
	if err != nil {
		err = fmt.Errorf("%w: %v", domain.ErrUsage, err)
		s.env.Printf("Error: %v", err)
		return err
	}
	if len(tokens) == 0 {
		return nil
	}
	name, args := strings.ToLower(tokens[0]), tokens[1:]

	switch name {
	case exitCommand:
		s.exit(args)
		return nil
	case helpCommand, helpAlias:
		s.env.PrintCommands()
		return nil
	}

	if err := s.transitionTo(StateDispatching, name); err != nil {
		return err
	}
	err = s.dispatch(name, args)
	if terr := s.transitionTo(StateAwaitingInput, "dispatch complete"); terr != nil {
		return terr
	}
	return err
}

// dispatch looks up and runs one command, reporting any error it returns.
func (s *Session) dispatch(name string, args []string) error {
	cmd, ok := s.registry.Lookup(name)
	if !ok {
		s.env.Printf("No such command: %s", name)
		return fmt.Errorf("%w: %s", domain.ErrUnknownCommand, name)
	}

	if err := execute(cmd, args); err != nil {
		var usage *command.UsageError
		if errors.As(err, &usage) {
			s.logger.Debug("usage error", log.String("command", name), log.Err(err))
		} else {
			s.logger.Error("command failed", log.String("command", name), log.Err(err))
		}
		s.env.Printf("Error: %v", err)
		return err
	}
	return nil
}

// exit runs the registered exit command, if any, and terminates.
func (s *Session) exit(args []string) {
	s.logger.Info("exit command received")
	if cmd, ok := s.registry.Lookup(exitCommand); ok {
		if err := execute(cmd, args); err != nil {
			s.logger.Warn("exit command failed", log.Err(err))
		}
	} else {
		s.env.Printf("Exiting...")
	}
	if err := s.transitionTo(StateTerminated, "exit"); err != nil {
		s.logger.Error("terminate session", log.Err(err))
	}
}

// execute runs cmd, converting a panic into an error so the loop survives.
func execute(cmd command.Command, args []string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("command panicked: %v", p)
		}
	}()
	return cmd.Execute(args...)
}

// input is one line read by readLines, or the reason it was rejected.
type input struct {
	line string
	err  error
}

// readLines feeds lines from r until EOF, a read error or cancellation.
// It closes lines when done and reports the read error, if any, on errc.
func readLines(ctx context.Context, r io.Reader, limit int, lines chan<- input, errc chan<- error) {
	defer close(lines)
	br := bufio.NewReader(r)
	for {
		line, err := readLine(br, limit)
		if err != nil && !errors.Is(err, domain.ErrUsage) {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			errc <- err
			return
		}
		select {
		case lines <- input{line: line, err: err}:
		case <-ctx.Done():
			errc <- nil
			return
		}
	}
}

// readLine reads one line without its terminator. A line longer than limit
// bytes is consumed and reported as a usage error.
func readLine(br *bufio.Reader, limit int) (string, error) {
	var (
		buf     []byte
		n       int
		started bool
	)
	for {
		frag, more, err := br.ReadLine()
		if err != nil {
			if started {
				// Final line without a terminator.
				break
			}
			return "", err
		}
		started = true
		n += len(frag)
		if n <= limit {
			buf = append(buf, frag...)
		} else {
			buf = nil
		}
		if !more {
			break
		}
	}
	if n > limit {
		return "", fmt.Errorf("%w: line of %d bytes exceeds the %d byte limit", domain.ErrUsage, n, limit)
	}
	return string(buf), nil
}
