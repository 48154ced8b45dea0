package abi

import (
	stderrors "errors"
	"fmt"
	"math"

	"github.com/wippyai/xloper/errors"
	"github.com/wippyai/xloper/variant"
)

var zeroSlot [VariantSize]byte

// StoreNew allocates a slot for v and stores it there. On failure nothing
// stays allocated.
func StoreNew(mem Memory, alloc Allocator, v *variant.Value) (uint32, error) {
	list := NewAllocationList()
	defer list.Release()

	addr, err := alloc.Alloc(VariantSize, VariantAlign)
	if err != nil {
		return 0, errors.Op("Store", allocErr("variant", VariantSize, err))
	}
	list.Add(addr, VariantSize, VariantAlign)

	if err := Store(mem, alloc, addr, v, list); err != nil {
		list.Free(alloc)
		return 0, err
	}
	return addr, nil
}

// Store writes v into the slot at addr. Text and array buffers are
// allocated through alloc and recorded in list; on error the caller frees
// list. Arrays do not nest, and reference types have no layout here.
func Store(mem Memory, alloc Allocator, addr uint32, v *variant.Value, list *AllocationList) error {
	if v == nil {
		return errors.Op("Store", errors.NilPointer(errors.PhaseLayout, "value"))
	}
	if addr == 0 || addr%VariantAlign != 0 {
		return errors.Op("Store", errors.InvalidInput(errors.PhaseLayout,
			fmt.Sprintf("slot address %d is not %d-byte aligned", addr, VariantAlign)))
	}
	return errors.Op("Store", store(mem, alloc, addr, v, list, true))
}

func store(mem Memory, alloc Allocator, addr uint32, v *variant.Value, list *AllocationList, top bool) error {
	if err := mem.Write(addr, zeroSlot[:]); err != nil {
		return memErr(mem, "write", addr, err)
	}

	var err error
	switch v.Type.Base() {
	case variant.TypeNum:
		err = mem.WriteU64(addr, math.Float64bits(v.Num))
	case variant.TypeBool:
		var b uint16
		if v.Bool {
			b = 1
		}
		err = mem.WriteU16(addr, b)
	case variant.TypeErr:
		err = mem.WriteU16(addr, uint16(v.Err))
	case variant.TypeInt:
		err = mem.WriteU16(addr, uint16(v.Int))
	case variant.TypeStr:
		var ptr uint32
		ptr, err = storeText(mem, alloc, v.Text(), list)
		if err != nil {
			return err
		}
		err = mem.WriteU32(addr, ptr)
	case variant.TypeMulti:
		if !top {
			return errors.Unsupported(errors.PhaseLayout, "nested multi")
		}
		if err := storeMulti(mem, alloc, addr, v, list); err != nil {
			return err
		}
	case variant.TypeMissing, variant.TypeNil:
	default:
		return errors.Unsupported(errors.PhaseLayout, "layout of "+v.Type.Base().String())
	}
	if err != nil {
		return memErr(mem, "write", addr, err)
	}

	if err := mem.WriteU16(addr+TypeOffset, uint16(v.Type)); err != nil {
		return memErr(mem, "write", addr+TypeOffset, err)
	}
	return nil
}

func storeText(mem Memory, alloc Allocator, s string, list *AllocationList) (uint32, error) {
	size := uint32(len(s) + 1)
	ptr, err := alloc.Alloc(size, textAlign)
	if err != nil {
		return 0, allocErr("text", int(size), err)
	}
	list.Add(ptr, size, textAlign)

	buf := make([]byte, size)
	buf[0] = byte(len(s))
	copy(buf[1:], s)
	if err := mem.Write(ptr, buf); err != nil {
		return 0, memErr(mem, "write", ptr, err)
	}
	return ptr, nil
}

func storeMulti(mem Memory, alloc Allocator, addr uint32, v *variant.Value, list *AllocationList) error {
	n := v.Len()
	if len(v.Array) < n {
		return errors.InvalidData(errors.PhaseLayout, nil,
			fmt.Sprintf("%dx%d array holds %d elements", v.Rows, v.Cols, len(v.Array)))
	}

	var ptr uint32
	if n > 0 {
		size, ok := arraySize(uint64(n))
		if !ok {
			return errors.Overflow(errors.PhaseLayout, nil, n, "32-bit address space")
		}
		var err error
		ptr, err = alloc.Alloc(size, VariantAlign)
		if err != nil {
			return allocErr("array", int(size), err)
		}
		list.Add(ptr, size, VariantAlign)

		for i := 0; i < n; i++ {
			if err := store(mem, alloc, ptr+uint32(i)*VariantSize, &v.Array[i], list, false); err != nil {
				return atIndex(err, i)
			}
		}
	}

	if err := mem.WriteU32(addr, ptr); err != nil {
		return memErr(mem, "write", addr, err)
	}
	if err := mem.WriteU16(addr+multiRowsOffset, v.Rows); err != nil {
		return memErr(mem, "write", addr+multiRowsOffset, err)
	}
	if err := mem.WriteU16(addr+multiColsOffset, v.Cols); err != nil {
		return memErr(mem, "write", addr+multiColsOffset, err)
	}
	return nil
}

// atIndex prefixes a structured error's path with an array position.
func atIndex(err error, i int) error {
	var e *errors.Error
	if !stderrors.As(err, &e) {
		return err
	}
	cp := *e
	cp.Path = append([]string{errors.Index(i)}, e.Path...)
	return &cp
}

// memErr reports a failed memory access. Memories that know their size get
// the bounds in the message.
func memErr(mem Memory, op string, addr uint32, cause error) error {
	if s, ok := mem.(MemorySizer); ok {
		e := errors.OutOfBounds(errors.PhaseLayout, nil, int(addr), int(s.Size()))
		e.Detail = op + " " + e.Detail
		e.Cause = cause
		return e
	}
	return errors.New(errors.PhaseLayout, errors.KindOutOfBounds).
		Detail("%s at %d", op, addr).
		Value(addr).
		Cause(cause).
		Build()
}

func allocErr(what string, n int, cause error) error {
	return errors.New(errors.PhaseLayout, errors.KindAllocation).
		Detail("failed to allocate %s of %d bytes", what, n).
		Value(n).
		Cause(cause).
		Build()
}
