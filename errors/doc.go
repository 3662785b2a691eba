// Package errors provides structured error types for the OASIS codec.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error class).
// The four kinds mirror how a session reacts to them:
//
//	structural   magic mismatch, truncated record, bad enum tag (always fatal)
//	conformance  deviations rejected only under strict conformance
//	reference    dangling reference numbers, self placement (always fatal)
//	resource     read or write failures, wrapping the underlying cause
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindReference).
//		Record("PLACEMENT").
//		Offset(1042).
//		Detail("cellname reference %d undefined", 7).
//		Build()
//
// Or use the convenience constructors:
//
//	err := errors.Structural(errors.PhaseScan, off, "truncated record")
//	err := errors.Resource(errors.PhaseIO, cause, "write output")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
