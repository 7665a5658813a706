package repl

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bft-labs/abacus/internal/command"
	"github.com/bft-labs/abacus/internal/domain"
	"github.com/bft-labs/abacus/internal/registry"
	"github.com/bft-labs/abacus/pkg/history"
	"github.com/bft-labs/abacus/pkg/operation"
	"github.com/bft-labs/abacus/plugins/arithmetic"
	"github.com/bft-labs/abacus/plugins/extended"
	"github.com/bft-labs/abacus/plugins/menu"
	"github.com/bft-labs/abacus/plugins/session"
)

// recordingObserver tracks state changes.
type recordingObserver struct {
	events []stateChange
}

type stateChange struct {
	previous State
	current  State
}

func (o *recordingObserver) OnStateChange(previous, current State, reason string) {
	o.events = append(o.events, stateChange{previous, current})
}

type fixture struct {
	env *command.Env
	reg *registry.Registry
	out *bytes.Buffer
}

func newFixture(t *testing.T, sources ...registry.Source) *fixture {
	t.Helper()
	out := &bytes.Buffer{}
	reg := registry.New(nil)
	env := &command.Env{
		History:  history.NewStore(),
		Library:  operation.NewLibrary(operation.DefaultPrecision),
		Registry: reg,
		Out:      out,
	}
	if len(sources) == 0 {
		sources = []registry.Source{arithmetic.Source(), extended.Source(), menu.Source(), session.Source()}
	}
	if res := reg.Discover(env, sources...); len(res.Failures) != 0 {
		t.Fatalf("discover: %v", res.Failures)
	}
	return &fixture{env: env, reg: reg, out: out}
}

func (f *fixture) started(t *testing.T, opts ...Option) *Session {
	t.Helper()
	s := New(f.reg, f.env, opts...)
	if err := s.Start(false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "Idle"},
		{StateAwaitingInput, "AwaitingInput"},
		{StateDispatching, "Dispatching"},
		{StateTerminated, "Terminated"},
		{State(42), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestSession_Handle_Calculations(t *testing.T) {
	tests := []struct {
		line       string
		wantOut    string
		historyLen int
	}{
		{"add 2 3", "2 + 3 = 5", 1},
		{"ADD 2 3", "2 + 3 = 5", 1},
		{"square 5", "5² = 25", 1},
		{"divide 10 0", "division by zero", 0},
		{"add x 3", "Invalid number: x is not a valid number.", 0},
		{"root 27 3", "3√27 = 3", 1},
		{"int_divide 7 2", "7 // 2 = 3", 1},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			f := newFixture(t)
			s := f.started(t)

			if err := s.Handle(tt.line); err != nil {
				t.Fatalf("Handle(%q): %v", tt.line, err)
			}
			if !strings.Contains(f.out.String(), tt.wantOut) {
				t.Errorf("output %q does not contain %q", f.out.String(), tt.wantOut)
			}
			if got := f.env.History.Len(); got != tt.historyLen {
				t.Errorf("history length = %d, want %d", got, tt.historyLen)
			}
			if s.State() != StateAwaitingInput {
				t.Errorf("state = %v, want AwaitingInput", s.State())
			}
		})
	}
}

func TestSession_Handle_UnknownCommand(t *testing.T) {
	f := newFixture(t)
	s := f.started(t)

	err := s.Handle("frobnicate 1 2")
	if !errors.Is(err, domain.ErrUnknownCommand) {
		t.Errorf("Handle error = %v, want ErrUnknownCommand", err)
	}
	if !strings.Contains(f.out.String(), "No such command: frobnicate") {
		t.Errorf("output = %q", f.out.String())
	}
	if s.State() != StateAwaitingInput {
		t.Errorf("state = %v, want AwaitingInput", s.State())
	}
}

func TestSession_Handle_UsageError(t *testing.T) {
	f := newFixture(t)
	s := f.started(t)

	err := s.Handle("add 1")
	var usage *command.UsageError
	if !errors.As(err, &usage) {
		t.Fatalf("Handle error = %v, want *UsageError", err)
	}
	if !errors.Is(err, domain.ErrUsage) {
		t.Errorf("usage error does not wrap ErrUsage")
	}
	if !strings.Contains(f.out.String(), "Error: usage: add a b (got 1 argument)") {
		t.Errorf("output = %q", f.out.String())
	}
	if f.env.History.Len() != 0 {
		t.Errorf("history length = %d, want 0", f.env.History.Len())
	}
}

func TestSession_Handle_BlankAndHelp(t *testing.T) {
	f := newFixture(t)
	s := f.started(t)

	for _, line := range []string{"", "   ", "\t"} {
		if err := s.Handle(line); err != nil {
			t.Errorf("Handle(%q) = %v", line, err)
		}
	}
	if f.out.Len() != 0 {
		t.Errorf("blank lines produced output %q", f.out.String())
	}

	if err := s.Handle("help"); err != nil {
		t.Fatalf("Handle(help): %v", err)
	}
	out := f.out.String()
	for _, want := range []string{"Available commands:", " - add", " - undo", "Type 'help' to show commands, 'exit' to quit."} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing %q:\n%s", want, out)
		}
	}
}

func TestSession_Handle_MalformedQuoting(t *testing.T) {
	f := newFixture(t)
	s := f.started(t)

	err := s.Handle(`add "2 3`)
	if !errors.Is(err, domain.ErrUsage) {
		t.Errorf("Handle error = %v, want ErrUsage", err)
	}
	if s.State() != StateAwaitingInput {
		t.Errorf("state = %v, want AwaitingInput", s.State())
	}
}

func TestSession_Handle_Comments(t *testing.T) {
	f := newFixture(t)
	s := f.started(t)

	if err := s.Handle("# a note"); err != nil {
		t.Errorf("Handle(comment) = %v", err)
	}
	if err := s.Handle("add 2 3 # sum"); err != nil {
		t.Fatalf("Handle with trailing comment: %v", err)
	}
	if got := f.out.String(); got != "2 + 3 = 5\n" {
		t.Errorf("output = %q, want 2 + 3 = 5", got)
	}

	var usage *command.UsageError
	if err := s.Handle("add 2 #3"); !errors.As(err, &usage) {
		t.Errorf("Handle(add 2 #3) = %v, want usage error", err)
	}
}

func TestSession_Handle_Exit(t *testing.T) {
	f := newFixture(t)
	s := f.started(t)

	if err := s.Handle("exit"); err != nil {
		t.Fatalf("Handle(exit): %v", err)
	}
	if s.State() != StateTerminated {
		t.Errorf("state = %v, want Terminated", s.State())
	}
	if !strings.Contains(f.out.String(), "Exiting...") {
		t.Errorf("output = %q", f.out.String())
	}
	if err := s.Handle("add 1 2"); !errors.Is(err, domain.ErrTerminated) {
		t.Errorf("Handle after exit = %v, want ErrTerminated", err)
	}
}

func TestSession_Handle_ExitWithoutExitCommand(t *testing.T) {
	f := newFixture(t, arithmetic.Source())
	s := f.started(t)

	if err := s.Handle("EXIT"); err != nil {
		t.Fatalf("Handle(EXIT): %v", err)
	}
	if s.State() != StateTerminated {
		t.Errorf("state = %v, want Terminated", s.State())
	}
	if got := strings.Count(f.out.String(), "Exiting..."); got != 1 {
		t.Errorf("Exiting printed %d times", got)
	}
}

type panickingCommand struct{}

func (panickingCommand) Execute(args ...string) error { panic("boom") }

func TestSession_Handle_RecoversPanics(t *testing.T) {
	f := newFixture(t)
	f.reg.Register("explode", panickingCommand{})
	s := f.started(t)

	err := s.Handle("explode")
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("Handle error = %v, want panic error", err)
	}
	if s.State() != StateAwaitingInput {
		t.Errorf("state = %v, want AwaitingInput", s.State())
	}
	if err := s.Handle("add 1 1"); err != nil {
		t.Errorf("session unusable after panic: %v", err)
	}
}

func TestSession_Handle_FailedPluginDoesNotAffectOthers(t *testing.T) {
	broken := registry.SourceFunc("broken", func(env *command.Env) ([]command.Command, error) {
		return nil, errors.New("syntax error")
	})

	out := &bytes.Buffer{}
	reg := registry.New(nil)
	env := &command.Env{
		History:  history.NewStore(),
		Library:  operation.NewLibrary(operation.DefaultPrecision),
		Registry: reg,
		Out:      out,
	}
	res := reg.Discover(env, broken, arithmetic.Source())
	if len(res.Failures) != 1 {
		t.Fatalf("failures = %v, want one", res.Failures)
	}

	s := New(reg, env)
	if err := s.Start(false); err != nil {
		t.Fatal(err)
	}
	if err := s.Handle("multiply 4 5"); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(out.String(), "4 * 5 = 20") {
		t.Errorf("output = %q", out.String())
	}
}

func TestSession_HistoryCommands(t *testing.T) {
	f := newFixture(t)
	s := f.started(t)

	for _, line := range []string{"add 1 2", "multiply 3 4", "undo", "history", "redo", "last"} {
		if err := s.Handle(line); err != nil {
			t.Fatalf("Handle(%q): %v", line, err)
		}
	}

	want := []string{
		"1 + 2 = 3",
		"3 * 4 = 12",
		"Undid: 3 * 4 = 12",
		"1. 1 + 2 = 3",
		"Redid: 3 * 4 = 12",
		"3 * 4 = 12",
	}
	got := strings.Split(strings.TrimSpace(f.out.String()), "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_StateTransitions(t *testing.T) {
	f := newFixture(t)
	obs := &recordingObserver{}
	s := New(f.reg, f.env, WithObserver(obs))

	if s.State() != StateIdle {
		t.Fatalf("initial state = %v, want Idle", s.State())
	}
	if err := s.Handle("add 1 2"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("Handle before Start = %v, want ErrInvalidTransition", err)
	}

	if err := s.Start(false); err != nil {
		t.Fatal(err)
	}
	if err := s.Handle("add 1 2"); err != nil {
		t.Fatal(err)
	}
	if err := s.Handle("exit"); err != nil {
		t.Fatal(err)
	}

	want := []stateChange{
		{StateIdle, StateAwaitingInput},
		{StateAwaitingInput, StateDispatching},
		{StateDispatching, StateAwaitingInput},
		{StateAwaitingInput, StateTerminated},
	}
	if diff := cmp.Diff(want, obs.events, cmp.AllowUnexported(stateChange{})); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_Run_Script(t *testing.T) {
	f := newFixture(t)
	in := strings.NewReader("add 2 3\n\nsquare 5\nexit\nadd 9 9\n")
	s := New(f.reg, f.env, WithInput(in), WithPrompt("> "))

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	out := f.out.String()
	for _, want := range []string{"Welcome to Calculator!", "> ", "2 + 3 = 5", "5² = 25", "Exiting..."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "9 + 9") {
		t.Error("input after exit was processed")
	}
	if f.env.History.Len() != 2 {
		t.Errorf("history length = %d, want 2", f.env.History.Len())
	}
	if s.State() != StateTerminated {
		t.Errorf("state = %v, want Terminated", s.State())
	}
}

func TestSession_Run_EndOfInput(t *testing.T) {
	f := newFixture(t)
	s := New(f.reg, f.env, WithInput(strings.NewReader("add 1 1\n")))

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.State() != StateTerminated {
		t.Errorf("state = %v, want Terminated", s.State())
	}
	if !strings.HasSuffix(f.out.String(), "\nExiting...\n") {
		t.Errorf("output does not end with exit notice: %q", f.out.String())
	}
}

func TestSession_Run_ContextCancel(t *testing.T) {
	f := newFixture(t)
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	s := New(f.reg, f.env, WithInput(pr))

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	if _, err := io.WriteString(pw, "add 4 4\n"); err != nil {
		t.Fatal(err)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if s.State() != StateTerminated {
		t.Errorf("state = %v, want Terminated", s.State())
	}
}

func TestSession_Run_Reload(t *testing.T) {
	f := newFixture(t)
	pr, pw := io.Pipe()

	changes := make(chan struct{}, 1)
	reloaded := make(chan struct{})
	reload := func() {
		f.reg.Register("double", &command.Arithmetic{})
		close(reloaded)
	}
	s := New(f.reg, f.env, WithInput(pr), WithReload(changes, reload))

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	changes <- struct{}{}
	select {
	case <-reloaded:
	case <-time.After(2 * time.Second):
		t.Fatal("reload not called")
	}

	if _, err := io.WriteString(pw, "exit\n"); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after exit")
	}
	pw.Close()

	if _, ok := f.reg.Lookup("double"); !ok {
		t.Error("reload did not register command")
	}
}

func TestSession_Run_LongLines(t *testing.T) {
	long := "add " + strings.Repeat("1", 70000) + " 1\n"
	tests := []struct {
		name        string
		limit       int
		wantHistory int
		wantOut     string
	}{
		{"within default limit", DefaultMaxLineLength, 2, "1 = 1" + strings.Repeat("1", 69998) + "2"},
		{"over limit", 64, 1, "Error: abacus: usage: line of 70006 bytes exceeds the 64 byte limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := strings.NewReader(long + "add 2 3\nexit\n")
			s := New(f.reg, f.env, WithInput(in), WithMaxLineLength(tt.limit))

			if err := s.Run(context.Background()); err != nil {
				t.Fatalf("Run: %v", err)
			}
			out := f.out.String()
			for _, want := range []string{tt.wantOut, "2 + 3 = 5"} {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q", want)
				}
			}
			if f.env.History.Len() != tt.wantHistory {
				t.Errorf("history length = %d, want %d", f.env.History.Len(), tt.wantHistory)
			}
		})
	}
}

func TestReadLine(t *testing.T) {
	br := bufio.NewReaderSize(strings.NewReader("short\r\n0123456789abcdefghij\n\nlast"), 16)

	want := []struct {
		line    string
		tooLong bool
	}{
		{"short", false},
		{"", true},
		{"", false},
		{"last", false},
	}
	for i, w := range want {
		line, err := readLine(br, 12)
		if w.tooLong {
			if !errors.Is(err, domain.ErrUsage) {
				t.Errorf("line %d: error = %v, want ErrUsage", i, err)
			}
			continue
		}
		if err != nil || line != w.line {
			t.Errorf("line %d = %q, %v; want %q", i, line, err, w.line)
		}
	}
	if _, err := readLine(br, 12); !errors.Is(err, io.EOF) {
		t.Errorf("after last line: error = %v, want EOF", err)
	}
}

func TestReadLines_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	lines := make(chan input)
	errc := make(chan error, 1)
	go readLines(ctx, strings.NewReader("exit\nadd 1 2\nadd 3 4\n"), DefaultMaxLineLength, lines, errc)

	if in := <-lines; in.line != "exit" {
		t.Fatalf("first line = %q, want exit", in.line)
	}
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("readLines: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("readLines still blocked after cancel")
	}
}
