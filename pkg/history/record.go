package history

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bft-labs/abacus/pkg/operation"
)

// Record is one executed calculation. Operands and operation are fixed at
// construction; the zero value is an empty record with an invalid operation.
type Record struct {
	left   decimal.Decimal
	right  decimal.Decimal
	op     operation.Kind
	result decimal.Decimal
}

// NewRecord evaluates op(left, right) with lib and returns the resulting
// record. For unary operations right is stored equal to left.
// Returns the library's domain error when the operation has no result.
func NewRecord(lib *operation.Library, op operation.Kind, left, right decimal.Decimal) (Record, error) {
	if op.Arity() == 1 {
		right = left
	}
	result, err := lib.Apply(op, left, right)
	if err != nil {
		return Record{}, err
	}
	return Record{left: left, right: right, op: op, result: result}, nil
}

// Left returns the first operand.
func (r Record) Left() decimal.Decimal { return r.left }

// Right returns the second operand (equal to Left for unary operations).
func (r Record) Right() decimal.Decimal { return r.right }

// Operation returns the operation tag.
func (r Record) Operation() operation.Kind { return r.op }

// Result returns the result computed when the record was created.
func (r Record) Result() decimal.Decimal { return r.result }

// Recompute re-derives the result with lib without modifying the record.
func (r Record) Recompute(lib *operation.Library) (decimal.Decimal, error) {
	return lib.Apply(r.op, r.left, r.right)
}

// Equal reports whether both records hold the same operation, operands and
// result.
func (r Record) Equal(o Record) bool {
	return r.op == o.op &&
		r.left.Equal(o.left) &&
		r.right.Equal(o.right) &&
		r.result.Equal(o.result)
}

// String renders the record as "a OP b = result".
func (r Record) String() string {
	return r.op.Format(r.left, r.right, r.result)
}

// GoString is used by %#v.
func (r Record) GoString() string {
	return fmt.Sprintf("history.Record{%s(%s, %s) = %s}", r.op, r.left, r.right, r.result)
}
