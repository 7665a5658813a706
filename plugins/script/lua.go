package script

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	lua "github.com/yuin/gopher-lua"

	"github.com/bft-labs/abacus/internal/command"
	"github.com/bft-labs/abacus/internal/domain"
	"github.com/bft-labs/abacus/internal/registry"
	"github.com/bft-labs/abacus/pkg/log"
)

// Lua globals read from a script.
const (
	luaCommandGlobal = "command"
	luaArityGlobal   = "arity"
	luaSymbolGlobal  = "symbol"
	luaCalculateFunc = "calculate"
)

// DefaultExecutionTimeout bounds a single run of a script, whether loading
// it or calling calculate.
const DefaultExecutionTimeout = 5 * time.Second

// ErrScriptTimeout is returned when a script runs past its execution timeout.
var ErrScriptTimeout = errors.New("script execution timed out")

// executionTimeout is the limit applied to Lua runs.
var executionTimeout = DefaultExecutionTimeout

// LuaCommand runs a calculate function defined by a Lua script.
//
// Lua numbers are float64, so operands lose precision beyond what a float64
// holds. Scripted results are printed but not recorded in the history, which
// only holds library operations.
type LuaCommand struct {
	env      *command.Env
	typeName string
	name     string
	symbol   string
	arity    int
	state    *lua.LState
	fn       *lua.LFunction
}

// TypeName returns the command global declared by the script.
func (c *LuaCommand) TypeName() string {
	return c.typeName
}

// Close releases the Lua state.
func (c *LuaCommand) Close() error {
	c.state.Close()
	return nil
}

// Usage returns the usage line, e.g. "cube a".
func (c *LuaCommand) Usage() string {
	return strings.TrimSpace(c.name + " " + strings.Join([]string{"a", "b"}[:c.arity], " "))
}

// Execute calls the script's calculate function with the parsed operands.
func (c *LuaCommand) Execute(args ...string) error {
	if err := command.CheckArity(c.Usage(), c.arity, args); err != nil {
		return err
	}

	operands := make([]decimal.Decimal, 0, len(args))
	params := make([]lua.LValue, 0, len(args))
	for _, s := range args {
		v, err := c.env.ParseOperand(s)
		if err != nil {
			if errors.Is(err, domain.ErrInputTooLarge) {
				c.env.Printf("Input exceeds maximum: %s (max %s)", s, c.env.MaxInput)
			} else {
				c.env.Printf("Invalid number: %s is not a valid number.", s)
			}
			return nil
		}
		f, _ := v.Float64()
		operands = append(operands, v)
		params = append(params, lua.LNumber(f))
	}

	result, err := c.call(params)
	if err != nil {
		c.env.Log().Warn("script command failed", log.String("command", c.name), log.Err(err))
		c.env.Printf("Error: %v", err)
		return nil
	}

	if c.arity == 1 {
		c.env.Printf("%s(%s) = %s", c.symbol, operands[0], result)
	} else {
		c.env.Printf("%s %s %s = %s", operands[0], c.symbol, operands[1], result)
	}
	return nil
}

func (c *LuaCommand) call(params []lua.LValue) (decimal.Decimal, error) {
	err := withTimeout(c.state, func() error {
		return c.state.CallByParam(lua.P{Fn: c.fn, NRet: 1, Protect: true}, params...)
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("script %s: %w", c.name, err)
	}
	ret := c.state.Get(-1)
	c.state.Pop(1)

	switch v := ret.(type) {
	case lua.LNumber:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, fmt.Errorf("script %s: result is not finite", c.name)
		}
		return decimal.NewFromFloat(f), nil
	case lua.LString:
		d, err := decimal.NewFromString(string(v))
		if err != nil {
			return decimal.Zero, fmt.Errorf("script %s: result %q is not a number", c.name, string(v))
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("script %s: calculate returned %s", c.name, ret.Type())
	}
}

func loadLua(path string, env *command.Env) ([]command.Command, error) {
	L := newLuaState()
	cmd, err := buildLuaCommand(L, path, env)
	if err != nil {
		L.Close()
		return nil, err
	}
	return []command.Command{cmd}, nil
}

func buildLuaCommand(L *lua.LState, path string, env *command.Env) (*LuaCommand, error) {
	if err := withTimeout(L, func() error { return L.DoFile(path) }); err != nil {
		return nil, fmt.Errorf("run %s: %w", path, err)
	}

	typeName, ok := L.GetGlobal(luaCommandGlobal).(lua.LString)
	if !ok || typeName == "" {
		return nil, fmt.Errorf("%s: global %q must be a non-empty string", path, luaCommandGlobal)
	}
	name := registry.DeriveName(string(typeName))
	if name == "" {
		return nil, fmt.Errorf("%s: command %q derives an empty command name", path, typeName)
	}

	fn, ok := L.GetGlobal(luaCalculateFunc).(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("%s: function %q is not defined", path, luaCalculateFunc)
	}

	arity := 2
	switch v := L.GetGlobal(luaArityGlobal).(type) {
	case lua.LNumber:
		arity = int(v)
	case *lua.LNilType:
		if !fn.IsG && fn.Proto != nil {
			arity = int(fn.Proto.NumParameters)
		}
	default:
		return nil, fmt.Errorf("%s: global %q must be a number", path, luaArityGlobal)
	}
	if arity != 1 && arity != 2 {
		return nil, fmt.Errorf("%s: arity must be 1 or 2, got %d", path, arity)
	}

	symbol := name
	if s, ok := L.GetGlobal(luaSymbolGlobal).(lua.LString); ok && s != "" {
		symbol = string(s)
	}

	return &LuaCommand{
		env:      env,
		typeName: string(typeName),
		name:     name,
		symbol:   symbol,
		arity:    arity,
		state:    L,
		fn:       fn,
	}, nil
}

// withTimeout runs fn with a deadline on L. A run cut short reports
// ErrScriptTimeout instead of the interpreter's error.
func withTimeout(L *lua.LState, fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), executionTimeout)
	defer cancel()
	L.SetContext(ctx)
	defer L.RemoveContext()

	err := fn()
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w after %s", ErrScriptTimeout, executionTimeout)
	}
	return err
}

// newLuaState opens only the base, table, string and math libraries and
// removes the base functions that load code from disk or strings.
func newLuaState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}
