package abi

import (
	"go.uber.org/multierr"

	"github.com/wippyai/xloper/errors"
	"github.com/wippyai/xloper/variant"
)

// FreeAt releases the text and array buffers Store allocated for the slot
// at addr and clears the slot. The slot itself stays allocated.
func FreeAt(mem Memory, alloc Allocator, addr uint32) error {
	return errors.Op("Free", freeAt(mem, alloc, addr, true))
}

// Free is FreeAt followed by freeing the slot, for slots from StoreNew.
func Free(mem Memory, alloc Allocator, addr uint32) error {
	if err := FreeAt(mem, alloc, addr); err != nil {
		return err
	}
	alloc.Free(addr, VariantSize, VariantAlign)
	return nil
}

func freeAt(mem Memory, alloc Allocator, addr uint32, top bool) error {
	raw, err := mem.ReadU16(addr + TypeOffset)
	if err != nil {
		return memErr(mem, "read", addr+TypeOffset, err)
	}

	switch variant.Type(raw).Base() {
	case variant.TypeStr:
		ptr, err := mem.ReadU32(addr)
		if err != nil {
			return memErr(mem, "read", addr, err)
		}
		if ptr != 0 {
			n, err := mem.ReadU8(ptr)
			if err != nil {
				return memErr(mem, "read", ptr, err)
			}
			alloc.Free(ptr, uint32(n)+1, textAlign)
		}
	case variant.TypeMulti:
		if top {
			if err := freeMulti(mem, alloc, addr); err != nil {
				return err
			}
		}
	}

	if err := mem.Write(addr, zeroSlot[:]); err != nil {
		return memErr(mem, "write", addr, err)
	}
	return nil
}

func freeMulti(mem Memory, alloc Allocator, addr uint32) error {
	ptr, err := mem.ReadU32(addr)
	if err != nil {
		return memErr(mem, "read", addr, err)
	}
	rows, err := mem.ReadU16(addr + multiRowsOffset)
	if err != nil {
		return memErr(mem, "read", addr+multiRowsOffset, err)
	}
	cols, err := mem.ReadU16(addr + multiColsOffset)
	if err != nil {
		return memErr(mem, "read", addr+multiColsOffset, err)
	}
	n := int(rows) * int(cols)
	if ptr == 0 || n == 0 {
		return nil
	}

	// Keep going past a bad element so the rest is still released.
	var errs error
	for i := 0; i < n; i++ {
		if err := freeAt(mem, alloc, ptr+uint32(i)*VariantSize, false); err != nil {
			errs = multierr.Append(errs, atIndex(err, i))
		}
	}
	size, _ := arraySize(uint64(n))
	alloc.Free(ptr, size, VariantAlign)
	return errs
}
