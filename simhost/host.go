package simhost

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/xloper/errors"
	"github.com/wippyai/xloper/resource"
	"github.com/wippyai/xloper/variant"
)

// Host simulates the spreadsheet host's coercion and release primitives.
// It is safe for concurrent use.
type Host struct {
	table    *resource.Table
	logger   *zap.Logger
	coerced  atomic.Int64
	released atomic.Int64
}

// allocation is the host's record of a value it handed out. The host keeps
// the payload alive until the value is released or the host is closed.
type allocation struct {
	value   variant.Value
	dropped bool
}

// Drop releases the payload the host was keeping.
func (a *allocation) Drop() {
	a.value = variant.Value{}
	a.dropped = true
}

var _ resource.Dropper = (*allocation)(nil)

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the host's logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithObserver subscribes o to the host's allocation events.
func WithObserver(o resource.Observer) Option {
	return func(h *Host) {
		h.table.Subscribe(o)
	}
}

// New creates a host with an empty allocation table.
func New(opts ...Option) *Host {
	h := &Host{
		table:  resource.NewTable(),
		logger: Logger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Stats reports how many values were handed out and taken back.
type Stats struct {
	Coerced  int64
	Released int64
}

// Stats returns the host's allocation counters.
func (h *Host) Stats() Stats {
	return Stats{
		Coerced:  h.coerced.Load(),
		Released: h.released.Load(),
	}
}

// Outstanding returns the number of coerced values not yet released.
func (h *Host) Outstanding() int {
	return h.table.Len()
}

// Live returns the handles of coerced values not yet released.
func (h *Host) Live() []resource.Handle {
	return h.table.Handles()
}

// Coerce converts src to base type to, or copies it when to is
// variant.TypeValue. The result carries variant.BitXLFree and must be
// handed to Release exactly once. src is never modified.
func (h *Host) Coerce(src *variant.Value, to variant.Type) (variant.Value, error) {
	if src == nil {
		return variant.Value{}, errors.NilPointer(errors.PhaseCoerce, "source value")
	}

	out, err := coerce(src, to.Base())
	if err != nil {
		h.logger.Debug("coercion failed",
			zap.Stringer("from", src.Type),
			zap.Stringer("to", to),
			zap.Error(err))
		return variant.Value{}, err
	}

	handle := h.table.Insert(uint32(out.Type.Base()), &allocation{value: out})
	if handle == 0 {
		return variant.Value{}, errors.New(errors.PhaseHost, errors.KindInvalidInput).
			Detail("host is closed").
			Build()
	}
	out.Type |= variant.BitXLFree
	out.Handle = uint32(handle)
	h.coerced.Add(1)

	h.logger.Debug("coerced",
		zap.Stringer("from", src.Type),
		zap.Stringer("to", out.Type),
		zap.Uint32("handle", out.Handle))
	return out, nil
}

// Release takes back a value Coerce returned. Values the host did not
// allocate, values already released and values whose tag no longer matches
// what the host allocated under their handle are rejected.
func (h *Host) Release(v *variant.Value) error {
	if v == nil {
		return errors.NilPointer(errors.PhaseHost, "value")
	}
	if v.Handle == 0 || !v.Type.XLFree() {
		return errors.InvalidInput(errors.PhaseHost, "value was not allocated by the host")
	}

	handle := resource.Handle(v.Handle)
	if _, ok := h.table.GetTyped(handle, uint32(v.Type.Base())); !ok {
		if rec, live := h.table.Get(handle); live {
			allocated := rec.(*allocation).value.Type
			h.logger.Warn("release with mismatched tag",
				zap.Uint32("handle", v.Handle),
				zap.Stringer("allocated", allocated),
				zap.Stringer("released", v.Type))
			return errors.New(errors.PhaseHost, errors.KindTypeMismatch).
				VarType(v.Type.String()).
				Value(v.Handle).
				Detail("handle %d was allocated as %s", v.Handle, allocated.Base()).
				Build()
		}
		h.logger.Warn("double release", zap.Uint32("handle", v.Handle))
		return errors.DoubleRelease(v.Handle)
	}
	if _, ok := h.table.Remove(handle); !ok {
		h.logger.Warn("double release", zap.Uint32("handle", v.Handle))
		return errors.DoubleRelease(v.Handle)
	}
	h.released.Add(1)

	h.logger.Debug("released",
		zap.Stringer("type", v.Type),
		zap.Uint32("handle", v.Handle))
	return nil
}

// Close drops all outstanding values and rejects further coercions. It
// logs the values that were never released.
func (h *Host) Close() error {
	if n := h.table.Len(); n > 0 {
		h.logger.Warn("closing host with outstanding values",
			zap.Int("count", n))
	}
	return h.table.Close()
}
