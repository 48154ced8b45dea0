// Package errors provides structured error types for the xloper codec.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the element path, the Go and variant type names, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindCoercion).
//		Path("[2]", "[0]").
//		VarType("str").
//		Detail("cannot read %q as a number", "abc").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TypeMismatch(errors.PhaseCoerce, nil, "float64", "bool")
//	err := errors.Ragged(errors.PhaseEncode, 1, 3, 2)
//
// Conversion entry points wrap whatever fails beneath them with OpError, so the
// message names the function that was called:
//
//	DecodeMatrixLong at [1][2]: [coerce] coercion: Go type int64, variant type str - ...
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
