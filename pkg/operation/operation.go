package operation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind identifies an arithmetic operation.
type Kind int

const (
	Invalid Kind = iota
	Add
	Subtract
	Multiply
	Divide
	Square
	Power
	Modulus
	Root
	IntDivide
	Percent
	AbsDiff
)

// computeFunc applies an operation using the library's precision.
type computeFunc func(l *Library, a, b decimal.Decimal) (decimal.Decimal, error)

// formatFunc renders a finished calculation for display.
type formatFunc func(a, b, result string) string

type kindInfo struct {
	name    string
	symbol  string
	arity   int
	compute computeFunc
	format  formatFunc
}

func infix(symbol string) formatFunc {
	return func(a, b, result string) string {
		return fmt.Sprintf("%s %s %s = %s", a, symbol, b, result)
	}
}

var kinds = map[Kind]kindInfo{
	Add:      {name: "add", symbol: "+", arity: 2, compute: add, format: infix("+")},
	Subtract: {name: "subtract", symbol: "-", arity: 2, compute: subtract, format: infix("-")},
	Multiply: {name: "multiply", symbol: "*", arity: 2, compute: multiply, format: infix("*")},
	Divide:   {name: "divide", symbol: "/", arity: 2, compute: divide, format: infix("/")},
	Square: {name: "square", symbol: "²", arity: 1, compute: square, format: func(a, _, result string) string {
		return fmt.Sprintf("%s² = %s", a, result)
	}},
	Power:   {name: "power", symbol: "^", arity: 2, compute: power, format: infix("^")},
	Modulus: {name: "modulus", symbol: "%", arity: 2, compute: modulus, format: infix("%")},
	Root: {name: "root", symbol: "√", arity: 2, compute: root, format: func(a, b, result string) string {
		return fmt.Sprintf("%s√%s = %s", b, a, result)
	}},
	IntDivide: {name: "int_divide", symbol: "//", arity: 2, compute: intDivide, format: infix("//")},
	Percent: {name: "percent", symbol: "%", arity: 2, compute: percent, format: func(a, b, result string) string {
		return fmt.Sprintf("%s / %s = %s%%", a, b, result)
	}},
	AbsDiff: {name: "abs_diff", symbol: "|-|", arity: 2, compute: absDiff, format: func(a, b, result string) string {
		return fmt.Sprintf("|%s - %s| = %s", a, b, result)
	}},
}

// Kinds returns every known operation in declaration order.
func Kinds() []Kind {
	return []Kind{Add, Subtract, Multiply, Divide, Square, Power, Modulus, Root, IntDivide, Percent, AbsDiff}
}

// Parse resolves an operation by its command name (e.g. "int_divide").
func Parse(name string) (Kind, error) {
	for k, info := range kinds {
		if info.name == name {
			return k, nil
		}
	}
	return Invalid, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
}

// Valid reports whether k is a known operation.
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// String returns the command name of the operation.
func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return "invalid"
}

// Symbol returns the display symbol of the operation.
func (k Kind) Symbol() string {
	if info, ok := kinds[k]; ok {
		return info.symbol
	}
	return "?"
}

// Arity returns the number of operands the operation takes.
func (k Kind) Arity() int {
	return kinds[k].arity
}

// Format renders "a OP b = result" for the operation.
func (k Kind) Format(a, b, result decimal.Decimal) string {
	info, ok := kinds[k]
	if !ok {
		return fmt.Sprintf("%s ? %s = %s", a, b, result)
	}
	return info.format(a.String(), b.String(), result.String())
}
