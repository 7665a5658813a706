package operation

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// DefaultPrecision is the number of decimal places kept by inexact operations.
const DefaultPrecision int32 = 28

// maxRootIterations bounds Newton's method in nthRoot.
const maxRootIterations = 200

// maxNewtonDegree is the largest root degree solved with Newton's method.
// Larger degrees go through exp(ln(a)/n).
const maxNewtonDegree = 1 << 20

// MaxPowerDigits bounds the magnitude of a power: results with more integer
// digits than this are reported as ErrUndefined.
const MaxPowerDigits = 10000

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Library evaluates operations at a fixed precision.
// The zero value is not usable; create one with NewLibrary.
type Library struct {
	precision int32
}

// NewLibrary creates a library rounding inexact results to precision decimal
// places. A negative precision falls back to DefaultPrecision.
func NewLibrary(precision int32) *Library {
	if precision < 0 {
		precision = DefaultPrecision
	}
	return &Library{precision: precision}
}

// Precision returns the number of decimal places kept by inexact operations.
func (l *Library) Precision() int32 {
	return l.precision
}

// Apply computes k(a, b). Unary operations ignore b.
func (l *Library) Apply(k Kind, a, b decimal.Decimal) (decimal.Decimal, error) {
	info, ok := kinds[k]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %d", ErrUnknownOperation, int(k))
	}
	return info.compute(l, a, b)
}

func add(_ *Library, a, b decimal.Decimal) (decimal.Decimal, error) {
	return a.Add(b), nil
}

func subtract(_ *Library, a, b decimal.Decimal) (decimal.Decimal, error) {
	return a.Sub(b), nil
}

func multiply(_ *Library, a, b decimal.Decimal) (decimal.Decimal, error) {
	return a.Mul(b), nil
}

func divide(l *Library, a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, ErrDivisionByZero
	}
	return a.DivRound(b, l.precision), nil
}

func square(_ *Library, a, _ decimal.Decimal) (decimal.Decimal, error) {
	return a.Mul(a), nil
}

func power(l *Library, a, b decimal.Decimal) (decimal.Decimal, error) {
	if !a.IsZero() && !a.Abs().Equal(one) {
		// mag is infinite when b is outside the float64 range.
		bf, _ := b.Float64()
		mag := bf * log10Abs(a)
		switch {
		case mag > MaxPowerDigits:
			return decimal.Zero, fmt.Errorf("%w: %s ^ %s has more than %d digits", ErrUndefined, a, b, MaxPowerDigits)
		case mag < -float64(l.precision)-1:
			return decimal.Zero, nil
		}
	}

	// Integral exponents are multiplied out at a working precision.
	if !a.IsZero() && b.IsInteger() && b.BigInt().IsInt64() {
		work := l.precision + 10
		n := b.IntPart()
		if n >= 0 {
			return intPow(a, n, work).Round(l.precision), nil
		}
		inv := one.DivRound(a, work)
		return intPow(inv, -n, work).Round(l.precision), nil
	}

	r, err := a.PowWithPrecision(b, l.precision)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrUndefined, err)
	}
	return r, nil
}

func modulus(_ *Library, a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, ErrModulusByZero
	}
	// Sign follows the dividend.
	return a.Mod(b), nil
}

func intDivide(_ *Library, a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, ErrDivisionByZero
	}
	// Quotient truncated toward zero.
	q, _ := a.QuoRem(b, 0)
	return q, nil
}

func percent(l *Library, a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, ErrDivisionByZero
	}
	return a.Mul(hundred).DivRound(b, l.precision), nil
}

func absDiff(_ *Library, a, b decimal.Decimal) (decimal.Decimal, error) {
	return a.Sub(b).Abs(), nil
}

// root computes the n-th root of a. Integral degrees use Newton's method so
// exact roots such as 3√27 come out exact; other degrees fall back to a^(1/n).
func root(l *Library, a, n decimal.Decimal) (decimal.Decimal, error) {
	if n.IsZero() {
		return decimal.Zero, ErrInvalidRootDegree
	}
	if !n.IsInteger() {
		exp := one.DivRound(n, l.precision+10)
		return power(l, a, exp)
	}
	if !n.BigInt().IsInt64() {
		return decimal.Zero, fmt.Errorf("%w: root degree %s out of range", ErrUndefined, n)
	}
	degree := n.IntPart()
	if degree < 0 {
		r, err := root(l, a, decimal.NewFromInt(-degree))
		if err != nil {
			return decimal.Zero, err
		}
		if r.IsZero() {
			return decimal.Zero, fmt.Errorf("%w: zero to a negative root", ErrUndefined)
		}
		return one.DivRound(r, l.precision), nil
	}
	if a.IsNegative() {
		if degree%2 == 0 {
			return decimal.Zero, fmt.Errorf("%w: even root of a negative number", ErrUndefined)
		}
		r, err := nthRoot(a.Neg(), degree, l.precision)
		return r.Neg(), err
	}
	return nthRoot(a, degree, l.precision)
}

// nthRoot solves x^n = a with a >= 0 and n >= 1.
func nthRoot(a decimal.Decimal, n int64, precision int32) (decimal.Decimal, error) {
	if a.IsZero() || n == 1 {
		return a, nil
	}
	work := precision + 10

	if n > maxNewtonDegree {
		exp := one.DivRound(decimal.NewFromInt(n), work)
		r, err := a.PowWithPrecision(exp, work)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrUndefined, err)
		}
		return r.Round(precision), nil
	}

	x := rootGuess(a, n)
	nd := decimal.NewFromInt(n)
	nm1 := decimal.NewFromInt(n - 1)
	for i := 0; i < maxRootIterations; i++ {
		xp := intPow(x, n-1, work)
		next := nm1.Mul(x).Add(a.DivRound(xp, work)).DivRound(nd, work)
		if next.Equal(x) {
			break
		}
		x = next
	}
	return x.Round(precision), nil
}

// rootGuess estimates a^(1/n) for a > 0 from its decimal magnitude, which
// stays accurate where a itself is outside the float64 range.
func rootGuess(a decimal.Decimal, n int64) decimal.Decimal {
	l := log10Abs(a) / float64(n)
	whole := math.Floor(l)
	return decimal.NewFromFloat(math.Pow(10, l-whole)).Shift(int32(whole))
}

// log10Abs returns log10(|a|) for a != 0, computed from the leading digits
// of the coefficient and the exponent.
func log10Abs(a decimal.Decimal) float64 {
	digits := a.Coefficient()
	digits.Abs(digits)
	coef := digits.String()
	lead := coef
	if len(lead) > 15 {
		lead = lead[:15]
	}
	m, _ := strconv.ParseFloat(lead, 64)
	return math.Log10(m) + float64(len(coef)-len(lead)) + float64(a.Exponent())
}

// intPow computes x^n by repeated squaring, rounding each product to places.
func intPow(x decimal.Decimal, n int64, places int32) decimal.Decimal {
	result := decimal.NewFromInt(1)
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(x).Round(places)
		}
		n >>= 1
		if n > 0 {
			x = x.Mul(x).Round(places)
		}
	}
	return result
}
