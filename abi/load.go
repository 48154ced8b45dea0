package abi

import (
	"fmt"
	"math"

	"github.com/wippyai/xloper/errors"
	"github.com/wippyai/xloper/variant"
)

// Load reads the variant in the slot at addr. Text and array payloads are
// copied out of memory, so the result stays valid after the memory is
// freed. Ownership bits are kept on the tag.
func Load(mem Memory, addr uint32) (variant.Value, error) {
	v, err := load(mem, addr, true)
	return v, errors.Op("Load", err)
}

func load(mem Memory, addr uint32, top bool) (variant.Value, error) {
	raw, err := mem.ReadU16(addr + TypeOffset)
	if err != nil {
		return variant.Value{}, memErr(mem, "read", addr+TypeOffset, err)
	}
	v := variant.Value{Type: variant.Type(raw)}

	switch v.Type.Base() {
	case variant.TypeNum:
		bits, err := mem.ReadU64(addr)
		if err != nil {
			return variant.Value{}, memErr(mem, "read", addr, err)
		}
		v.Num = math.Float64frombits(bits)
	case variant.TypeBool, variant.TypeErr, variant.TypeInt:
		w, err := mem.ReadU16(addr)
		if err != nil {
			return variant.Value{}, memErr(mem, "read", addr, err)
		}
		switch v.Type.Base() {
		case variant.TypeBool:
			v.Bool = w != 0
		case variant.TypeErr:
			v.Err = variant.ErrCode(w)
		default:
			v.Int = int16(w)
		}
	case variant.TypeStr:
		ptr, err := mem.ReadU32(addr)
		if err != nil {
			return variant.Value{}, memErr(mem, "read", addr, err)
		}
		if ptr == 0 {
			break
		}
		s, err := loadText(mem, ptr)
		if err != nil {
			return variant.Value{}, err
		}
		v.Str = variant.Counted(s)
	case variant.TypeMulti:
		if !top {
			return variant.Value{}, errors.InvalidData(errors.PhaseLayout, nil, "nested multi")
		}
		if err := loadMulti(mem, addr, &v); err != nil {
			return variant.Value{}, err
		}
	case variant.TypeMissing, variant.TypeNil:
	default:
		return variant.Value{}, errors.Unsupported(errors.PhaseLayout, "layout of "+v.Type.Base().String())
	}
	return v, nil
}

func loadText(mem Memory, ptr uint32) (string, error) {
	n, err := mem.ReadU8(ptr)
	if err != nil {
		return "", memErr(mem, "read", ptr, err)
	}
	if n == 0 {
		return "", nil
	}
	data, err := mem.Read(ptr+1, uint32(n))
	if err != nil {
		return "", memErr(mem, "read", ptr+1, err)
	}
	return string(data), nil
}

func loadMulti(mem Memory, addr uint32, v *variant.Value) error {
	ptr, err := mem.ReadU32(addr)
	if err != nil {
		return memErr(mem, "read", addr, err)
	}
	if v.Rows, err = mem.ReadU16(addr + multiRowsOffset); err != nil {
		return memErr(mem, "read", addr+multiRowsOffset, err)
	}
	if v.Cols, err = mem.ReadU16(addr + multiColsOffset); err != nil {
		return memErr(mem, "read", addr+multiColsOffset, err)
	}

	n := v.Len()
	if n == 0 {
		v.Array = []variant.Value{}
		return nil
	}
	if ptr == 0 {
		return errors.InvalidData(errors.PhaseLayout, nil,
			fmt.Sprintf("%dx%d array has a null pointer", v.Rows, v.Cols))
	}
	if _, ok := arraySize(uint64(n)); !ok {
		return errors.Overflow(errors.PhaseLayout, nil, n, "32-bit address space")
	}

	v.Array = make([]variant.Value, n)
	for i := range v.Array {
		e, err := load(mem, ptr+uint32(i)*VariantSize, false)
		if err != nil {
			return atIndex(err, i)
		}
		v.Array[i] = e
	}
	return nil
}
