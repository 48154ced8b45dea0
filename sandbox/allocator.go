package sandbox

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/xloper"
	"github.com/wippyai/xloper/abi"
	"github.com/wippyai/xloper/errors"
)

const (
	pageSize = 65536
	// heapBase keeps address 0 free as the null pointer.
	heapBase = 8
)

// ErrMemoryLimit is the cause of an allocation that would grow memory past
// its page limit.
var ErrMemoryLimit = stderrors.New("memory limit reached")

// BumpAllocator hands out memory from the top of the used region, growing
// the linear memory when it runs out. Freeing the topmost block moves the
// top back down; once nothing is live the whole region is reused.
type BumpAllocator struct {
	mem  api.Memory
	live map[uint32]uint32
	next uint32
	peak uint32
	mu   sync.Mutex
}

var _ xloper.Allocator = (*BumpAllocator)(nil)

func newBumpAllocator(mem api.Memory) *BumpAllocator {
	return &BumpAllocator{
		mem:  mem,
		live: make(map[uint32]uint32),
		next: heapBase,
		peak: heapBase,
	}
}

// Alloc returns size bytes aligned to align.
func (a *BumpAllocator) Alloc(size, align uint32) (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if align == 0 {
		align = 1
	}
	ptr := abi.AlignTo(a.next, align)
	end := uint64(ptr) + uint64(size)
	if end > 0xFFFFFFFF {
		return 0, errors.AllocationFailed(errors.PhaseLayout, "bytes", int(size))
	}

	if cur := uint64(a.mem.Size()); end > cur {
		delta := uint32((end - cur + pageSize - 1) / pageSize)
		prev, ok := a.mem.Grow(delta)
		if !ok {
			Logger().Warn("memory limit reached",
				zap.Uint32("size", size),
				zap.Uint32("pages", uint32(cur/pageSize)),
				zap.Uint32("delta", delta))
			return 0, errors.Wrap(errors.PhaseLayout, errors.KindAllocation, ErrMemoryLimit,
				fmt.Sprintf("cannot grow memory by %d pages for %d bytes", delta, size))
		}
		Logger().Debug("memory grown",
			zap.Uint32("from_pages", prev),
			zap.Uint32("to_pages", prev+delta))
	}

	a.next = uint32(end)
	a.peak = max(a.peak, a.next)
	a.live[ptr] = size
	return ptr, nil
}

// Free releases a block. Unknown pointers are ignored.
func (a *BumpAllocator) Free(ptr, size, _ uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	got, ok := a.live[ptr]
	if !ok {
		Logger().Debug("free of unknown block", zap.Uint32("ptr", ptr))
		return
	}
	if got != size {
		Logger().Debug("free with mismatched size",
			zap.Uint32("ptr", ptr),
			zap.Uint32("size", size),
			zap.Uint32("allocated", got))
	}
	delete(a.live, ptr)

	switch {
	case len(a.live) == 0:
		a.next = heapBase
	case ptr+got == a.next:
		a.next = ptr
	}
}

// Live returns the number of blocks not yet freed.
func (a *BumpAllocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// Peak returns the highest address ever handed out.
func (a *BumpAllocator) Peak() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.peak
}
