package abi

import (
	"fmt"
	"math"

	"github.com/wippyai/xloper/errors"
	"github.com/wippyai/xloper/variant"
)

// StoreFP allocates and writes fp, returning its address. On failure
// nothing stays allocated.
func StoreFP(mem Memory, alloc Allocator, fp *variant.FP) (uint32, error) {
	if fp == nil {
		return 0, errors.Op("StoreFP", errors.NilPointer(errors.PhaseLayout, "fp"))
	}
	n := int(fp.Rows) * int(fp.Cols)
	if len(fp.Array) < n {
		return 0, errors.Op("StoreFP", errors.InvalidData(errors.PhaseLayout, nil,
			fmt.Sprintf("%dx%d array holds %d elements", fp.Rows, fp.Cols, len(fp.Array))))
	}

	size := FPSize(n)
	addr, err := alloc.Alloc(size, fpAlign)
	if err != nil {
		return 0, errors.Op("StoreFP", allocErr("fp", int(size), err))
	}
	if err := storeFP(mem, addr, fp, n); err != nil {
		alloc.Free(addr, size, fpAlign)
		return 0, errors.Op("StoreFP", err)
	}
	return addr, nil
}

func storeFP(mem Memory, addr uint32, fp *variant.FP, n int) error {
	if err := mem.WriteU16(addr+fpRowsOffset, fp.Rows); err != nil {
		return memErr(mem, "write", addr, err)
	}
	if err := mem.WriteU16(addr+fpColsOffset, fp.Cols); err != nil {
		return memErr(mem, "write", addr+fpColsOffset, err)
	}
	for i := 0; i < n; i++ {
		off := addr + fpArrayOffset + uint32(i)*8
		if err := mem.WriteU64(off, math.Float64bits(fp.Array[i])); err != nil {
			return memErr(mem, "write", off, err)
		}
	}
	return nil
}

// LoadFP reads the FP at addr.
func LoadFP(mem Memory, addr uint32) (variant.FP, error) {
	var fp variant.FP
	var err error
	if fp.Rows, err = mem.ReadU16(addr + fpRowsOffset); err != nil {
		return variant.FP{}, errors.Op("LoadFP", memErr(mem, "read", addr, err))
	}
	if fp.Cols, err = mem.ReadU16(addr + fpColsOffset); err != nil {
		return variant.FP{}, errors.Op("LoadFP", memErr(mem, "read", addr+fpColsOffset, err))
	}

	n := int(fp.Rows) * int(fp.Cols)
	fp.Array = make([]float64, n)
	for i := range fp.Array {
		off := addr + fpArrayOffset + uint32(i)*8
		bits, err := mem.ReadU64(off)
		if err != nil {
			return variant.FP{}, errors.Op("LoadFP", memErr(mem, "read", off, err))
		}
		fp.Array[i] = math.Float64frombits(bits)
	}
	return fp, nil
}

// FreeFP releases an FP allocated by StoreFP.
func FreeFP(mem Memory, alloc Allocator, addr uint32) error {
	rows, err := mem.ReadU16(addr + fpRowsOffset)
	if err != nil {
		return errors.Op("FreeFP", memErr(mem, "read", addr, err))
	}
	cols, err := mem.ReadU16(addr + fpColsOffset)
	if err != nil {
		return errors.Op("FreeFP", memErr(mem, "read", addr+fpColsOffset, err))
	}
	alloc.Free(addr, FPSize(int(rows)*int(cols)), fpAlign)
	return nil
}
