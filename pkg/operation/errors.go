package operation

import "errors"

// Domain errors returned by Library.Apply. Callers report them to the user;
// none of them is fatal.
var (
	// ErrDivisionByZero is returned by divide, int_divide and percent when the
	// divisor is zero.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrModulusByZero is returned by modulus when the divisor is zero.
	ErrModulusByZero = errors.New("modulus by zero")

	// ErrInvalidRootDegree is returned by root when the degree is zero.
	ErrInvalidRootDegree = errors.New("root degree cannot be zero")

	// ErrUndefined is returned when the result has no finite decimal value,
	// e.g. 0^-1 or an even root of a negative number.
	ErrUndefined = errors.New("result is undefined")

	// ErrUnknownOperation is returned for a Kind outside the known set.
	ErrUnknownOperation = errors.New("unknown operation")
)

// IsDomainError reports whether err is one of the arithmetic domain errors.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrDivisionByZero) ||
		errors.Is(err, ErrModulusByZero) ||
		errors.Is(err, ErrInvalidRootDegree) ||
		errors.Is(err, ErrUndefined)
}
