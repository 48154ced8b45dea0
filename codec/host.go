package codec

import (
	"github.com/wippyai/xloper/variant"
)

// Coercer is the host's type-coercion primitive. It returns a new value of
// base type to, or of any value type when to is variant.TypeValue. The
// result belongs to the host and must be handed back to Release.
type Coercer interface {
	Coerce(src *variant.Value, to variant.Type) (variant.Value, error)
}

// Releaser is the host's release primitive for values Coerce returned.
type Releaser interface {
	Release(v *variant.Value) error
}

// Host bundles the primitives the codec borrows from the spreadsheet host.
type Host interface {
	Coercer
	Releaser
}

// Allocator provides the buffers of encoded results.
type Allocator interface {
	// Text returns a zeroed buffer of n bytes.
	Text(n int) ([]byte, error)
	// Array returns n zero values.
	Array(n int) ([]variant.Value, error)
	// Free releases v's own buffer. Elements are freed separately.
	Free(v *variant.Value)
}

// HeapAllocator allocates on the Go heap and leaves freeing to the garbage
// collector.
type HeapAllocator struct{}

func (HeapAllocator) Text(n int) ([]byte, error) {
	return make([]byte, n), nil
}

func (HeapAllocator) Array(n int) ([]variant.Value, error) {
	return make([]variant.Value, n), nil
}

func (HeapAllocator) Free(*variant.Value) {}

var _ Allocator = HeapAllocator{}
