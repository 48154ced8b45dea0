package abi

import (
	"github.com/wippyai/xloper"
)

type Memory = xloper.Memory
type Allocator = xloper.Allocator
type MemorySizer = xloper.MemorySizer

const (
	// VariantSize is the size of one XLOPER.
	VariantSize = 16
	// VariantAlign is the alignment of an XLOPER.
	VariantAlign = 8
	// TypeOffset is the offset of the xltype field.
	TypeOffset = 8

	multiRowsOffset = 4
	multiColsOffset = 6

	fpRowsOffset  = 0
	fpColsOffset  = 2
	fpArrayOffset = 8
	fpAlign       = 8

	textAlign = 1
)

// AlignTo rounds ptr up to a multiple of align, which must be a power of two.
func AlignTo(ptr, align uint32) uint32 {
	if align <= 1 {
		return ptr
	}
	return (ptr + align - 1) &^ (align - 1)
}

// FPSize returns the byte size of an FP with n elements.
func FPSize(n int) uint32 {
	return fpArrayOffset + uint32(n)*8
}

// arraySize returns the byte size of a multi payload with n elements, or
// false when it does not fit a 32-bit address space.
func arraySize(n uint64) (uint32, bool) {
	size := n * VariantSize
	if size > 0xFFFFFFFF {
		return 0, false
	}
	return uint32(size), true
}
