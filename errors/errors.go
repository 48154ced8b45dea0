package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseEncode Phase = "encode" // Go to variant
	PhaseDecode Phase = "decode" // variant to Go
	PhaseCoerce Phase = "coerce" // host coercion primitive
	PhaseLayout Phase = "layout" // variant to/from host memory
	PhaseHost   Phase = "host"   // host bookkeeping
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch   Kind = "type_mismatch"
	KindUnexpectedType Kind = "unexpected_type"
	KindCoercion       Kind = "coercion"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindInvalidData    Kind = "invalid_data"
	KindUnsupported    Kind = "unsupported"
	KindAllocation     Kind = "allocation"
	KindOverflow       Kind = "overflow"
	KindRagged         Kind = "ragged"
	KindNilPointer     Kind = "nil_pointer"
	KindDoubleRelease  Kind = "double_release"
	KindInvalidInput   Kind = "invalid_input"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	GoType  string
	VarType string
	Detail  string
	Path    []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, ""))
	}

	if e.GoType != "" || e.VarType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.VarType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", variant type ")
			b.WriteString(e.VarType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("variant type ")
			b.WriteString(e.VarType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.VarType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
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
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the element path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// VarType sets the variant type name
func (b *Builder) VarType(t string) *Builder {
	b.err.VarType = t
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

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, varType string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindTypeMismatch,
		Path:    path,
		GoType:  goType,
		VarType: varType,
	}
}

// UnexpectedType creates an error for a variant tag a conversion does not accept
func UnexpectedType(phase Phase, varType string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindUnexpectedType,
		VarType: varType,
		Detail:  "unexpected datatype",
	}
}

// Coercion wraps a failure reported by the host's coercion primitive
func Coercion(from, to string, cause error) *Error {
	return &Error{
		Phase:  PhaseCoerce,
		Kind:   KindCoercion,
		Detail: fmt.Sprintf("coerce %s to %s", from, to),
		Cause:  cause,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, what string, n int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %s of %d", what, n),
		Value:  n,
	}
}

// Ragged creates an error for a matrix whose rows differ in length
func Ragged(phase Phase, row, got, want int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRagged,
		Path:   []string{fmt.Sprintf("[%d]", row)},
		Detail: fmt.Sprintf("row has %d columns, first row has %d", got, want),
		Value:  got,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Detail: fmt.Sprintf("nil %s", what),
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		GoType: targetType,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:  value,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// DoubleRelease creates an error for a host value released more than once
func DoubleRelease(handle uint32) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindDoubleRelease,
		Detail: fmt.Sprintf("handle %d already released", handle),
		Value:  handle,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// OpError records the conversion entry point a failure surfaced through.
// Its message is the entry point name followed by the original message.
type OpError struct {
	Err  error
	Op   string
	Path []string
}

// Op wraps err with the name of the failing entry point. A nil err stays nil.
func Op(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}

// OpAt is Op with the element path where the failure happened.
func OpAt(op string, err error, path ...string) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err, Path: path}
}

func (e *OpError) Error() string {
	if len(e.Path) == 0 {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " at " + strings.Join(e.Path, "") + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *OpError) Unwrap() error {
	return e.Err
}

// Index formats a vector element position for a path.
func Index(i int) string {
	return fmt.Sprintf("[%d]", i)
}

// Cell formats a matrix element position for a path.
func Cell(r, c int) string {
	return fmt.Sprintf("[%d][%d]", r, c)
}
