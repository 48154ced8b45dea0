package abi

import (
	"sync"
)

// allocation is one buffer a store obtained from its Allocator.
type allocation struct {
	ptr   uint32
	size  uint32
	align uint32
}

// AllocationList records the buffers a store allocated so a failed store
// can hand all of them back.
type AllocationList struct {
	allocs []allocation
}

// Lists that grew past maxPooledCap are left to the garbage collector.
const maxPooledCap = 128

var listPool = sync.Pool{
	New: func() any {
		return &AllocationList{allocs: make([]allocation, 0, 8)}
	},
}

// NewAllocationList returns an empty list. Call Release when done with it.
func NewAllocationList() *AllocationList {
	return listPool.Get().(*AllocationList)
}

// Add records a buffer. A null ptr is recorded but never freed.
func (al *AllocationList) Add(ptr, size, align uint32) {
	al.allocs = append(al.allocs, allocation{ptr: ptr, size: size, align: align})
}

// Free hands the recorded buffers back to alloc, newest first, and empties
// the list.
func (al *AllocationList) Free(alloc Allocator) {
	if alloc != nil {
		for i := len(al.allocs) - 1; i >= 0; i-- {
			if a := al.allocs[i]; a.ptr != 0 {
				alloc.Free(a.ptr, a.size, a.align)
			}
		}
	}
	al.allocs = al.allocs[:0]
}

// Release returns the list to the pool. The list must not be used after.
func (al *AllocationList) Release() {
	if cap(al.allocs) > maxPooledCap {
		return
	}
	al.allocs = al.allocs[:0]
	listPool.Put(al)
}
