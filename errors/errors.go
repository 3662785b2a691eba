package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseScan     Phase = "scan"     // primitive field decoding
	PhaseDecode   Phase = "decode"   // record parsing into events
	PhaseEncode   Phase = "encode"   // events to records
	PhaseExtract  Phase = "extract"  // selective cell extraction
	PhaseValidate Phase = "validate" // END record signature
	PhaseIO       Phase = "io"       // file access
)

// Kind categorizes the error
type Kind string

const (
	// KindStructural covers magic mismatch, truncated records and
	// out-of-range enum tags. Always fatal.
	KindStructural Kind = "structural"
	// KindConformance covers deviations that only strict conformance rejects.
	KindConformance Kind = "conformance"
	// KindReference covers dangling reference numbers and self placement.
	KindReference Kind = "reference"
	// KindResource covers failures of the underlying reader or writer.
	KindResource Kind = "resource"
)

// NoOffset marks an error without a file position.
const NoOffset int64 = -1

// Error is the structured error type used throughout the codec
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Record string
	Detail string
	Offset int64
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Record != "" {
		b.WriteString(" in ")
		b.WriteString(e.Record)
	}

	if e.Offset >= 0 {
		fmt.Fprintf(&b, " at offset %d", e.Offset)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: NoOffset,
		},
	}
}

// Record sets the name of the record being processed
func (b *Builder) Record(name string) *Builder {
	b.err.Record = name
	return b
}

// Offset sets the file offset of the offending record
func (b *Builder) Offset(off int64) *Builder {
	b.err.Offset = off
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the four error classes

// Structural creates a structural error
func Structural(phase Phase, offset int64, format string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindStructural,
		Offset: offset,
		Detail: fmt.Sprintf(format, args...),
	}
}

// Conformance creates a conformance error
func Conformance(phase Phase, offset int64, format string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindConformance,
		Offset: offset,
		Detail: fmt.Sprintf(format, args...),
	}
}

// Reference creates a reference error
func Reference(phase Phase, offset int64, format string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindReference,
		Offset: offset,
		Detail: fmt.Sprintf(format, args...),
	}
}

// Resource wraps an I/O failure
func Resource(phase Phase, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindResource,
		Offset: NoOffset,
		Detail: detail,
		Cause:  cause,
	}
}

// InvalidEnum creates an out-of-range enum tag error
func InvalidEnum(phase Phase, offset int64, value any, enumType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindStructural,
		Offset: offset,
		Detail: fmt.Sprintf("invalid %s %v", enumType, value),
		Value:  value,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Offset: NoOffset,
		Detail: detail,
		Cause:  cause,
	}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func isKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsStructural reports whether err is a structural error
func IsStructural(err error) bool { return isKind(err, KindStructural) }

// IsConformance reports whether err is a conformance error
func IsConformance(err error) bool { return isKind(err, KindConformance) }

// IsReference reports whether err is a reference error
func IsReference(err error) bool { return isKind(err, KindReference) }

// IsResource reports whether err is a resource error
func IsResource(err error) bool { return isKind(err, KindResource) }
