// Package operation is the arithmetic library behind abacus commands.
//
// Every operation is identified by a [Kind] tag. A Kind carries its command
// name, display symbol, arity and compute function together, so records can
// store the tag instead of a function value and still be printed or
// recomputed later.
//
// # Usage
//
//	lib := operation.NewLibrary(operation.DefaultPrecision)
//	r, err := lib.Apply(operation.Divide, a, b)
//	if errors.Is(err, operation.ErrDivisionByZero) {
//	    ...
//	}
//
// Operands and results are github.com/shopspring/decimal values. Division,
// percent and root results are rounded to the library precision (decimal
// places); all other operations are exact.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package operation
