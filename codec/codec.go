package codec

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/xloper/errors"
	"github.com/wippyai/xloper/variant"
)

// Placeholder text for collections that are not expanded.
const (
	PlaceholderVector = "VECTOR"
	PlaceholderMatrix = "MATRIX"
)

// Codec converts between Go values and variants. It is stateless apart from
// its configuration and safe for concurrent use when its Host and Allocator
// are.
type Codec struct {
	host   Host
	alloc  Allocator
	expand bool
}

// Option configures a Codec.
type Option func(*Codec)

// WithAllocator sets the allocator for encoded buffers.
func WithAllocator(a Allocator) Option {
	return func(c *Codec) {
		if a != nil {
			c.alloc = a
		}
	}
}

// WithExpand controls whether EncodeAny expands vector and matrix shapes
// into multi values (the default) or collapses them to placeholder text.
func WithExpand(expand bool) Option {
	return func(c *Codec) {
		c.expand = expand
	}
}

// New creates a codec over host. A nil host is allowed for callers that
// never need coercion; conversions that do then fail.
func New(host Host, opts ...Option) *Codec {
	c := &Codec{
		host:   host,
		alloc:  HeapAllocator{},
		expand: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Expand reports whether EncodeAny expands collections.
func (c *Codec) Expand() bool {
	return c.expand
}

// Free releases a value returned by an Encode method and resets it. Buffers
// marked BitDLLFree go back to the Allocator, values marked BitXLFree go back
// to the host. Values without either bit are left alone.
func (c *Codec) Free(v *variant.Value) error {
	if v == nil {
		return nil
	}
	var err error
	switch {
	case v.Type.XLFree():
		if c.host == nil {
			err = errors.NilPointer(errors.PhaseHost, "host")
			break
		}
		err = c.host.Release(v)
	case v.Type.DLLFree():
		if v.Type.Is(variant.TypeMulti) {
			for i := range v.Array {
				err = multierr.Append(err, c.Free(&v.Array[i]))
			}
		}
		c.alloc.Free(v)
	}
	*v = variant.Value{}
	return err
}

// coerce runs the host's coercion primitive on behalf of a conversion to
// goType. The result must go through releaseTemp.
func (c *Codec) coerce(v *variant.Value, to variant.Type, goType string) (variant.Value, error) {
	if c.host == nil {
		return variant.Value{}, errors.NilPointer(errors.PhaseCoerce, "host")
	}
	out, err := c.host.Coerce(v, to)
	if err != nil {
		return variant.Value{}, errors.Coercion(v.Type.Base().String(), to.String(), err)
	}
	if to != variant.TypeValue && !out.Type.Is(to) {
		mismatch := errors.TypeMismatch(errors.PhaseCoerce, nil, goType, out.Type.String())
		mismatch.Detail = fmt.Sprintf("host returned %s for a coercion to %s", out.Type.Base(), to)
		return variant.Value{}, c.releaseTemp(&out, mismatch)
	}
	Logger().Debug("coerced",
		zap.Stringer("from", v.Type),
		zap.Stringer("to", out.Type))
	return out, nil
}

// releaseTemp hands a coercion temporary back to the host and joins any
// release failure to err.
func (c *Codec) releaseTemp(tmp *variant.Value, err error) error {
	if rerr := c.host.Release(tmp); rerr != nil {
		Logger().Warn("release coercion temporary",
			zap.Stringer("type", tmp.Type),
			zap.Error(rerr))
		err = multierr.Append(err, rerr)
	}
	*tmp = variant.Value{}
	return err
}

func isMissing(v *variant.Value) bool {
	return v == nil || v.Type.IsMissing()
}

func allocErr(what string, n int, cause error) error {
	return errors.New(errors.PhaseEncode, errors.KindAllocation).
		Detail("failed to allocate %s of %d", what, n).
		Value(n).
		Cause(cause).
		Build()
}
