package abi

import (
	"encoding/binary"
	stderrors "errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/wippyai/xloper/errors"
	"github.com/wippyai/xloper/variant"
)

// mockMemory implements Memory over a byte slice
type mockMemory struct {
	data []byte
}

func newMockMemory(size int) *mockMemory {
	return &mockMemory{data: make([]byte, size)}
}

func (m *mockMemory) check(offset, length uint32) error {
	if uint64(offset)+uint64(length) > uint64(len(m.data)) {
		return fmt.Errorf("out of bounds: offset=%d, length=%d", offset, length)
	}
	return nil
}

func (m *mockMemory) Read(offset uint32, length uint32) ([]byte, error) {
	if err := m.check(offset, length); err != nil {
		return nil, err
	}
	return m.data[offset : offset+length], nil
}

func (m *mockMemory) Write(offset uint32, data []byte) error {
	if err := m.check(offset, uint32(len(data))); err != nil {
		return err
	}
	copy(m.data[offset:], data)
	return nil
}

func (m *mockMemory) ReadU8(offset uint32) (uint8, error) {
	if err := m.check(offset, 1); err != nil {
		return 0, err
	}
	return m.data[offset], nil
}

func (m *mockMemory) ReadU16(offset uint32) (uint16, error) {
	if err := m.check(offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(m.data[offset:]), nil
}

func (m *mockMemory) ReadU32(offset uint32) (uint32, error) {
	if err := m.check(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m.data[offset:]), nil
}

func (m *mockMemory) ReadU64(offset uint32) (uint64, error) {
	if err := m.check(offset, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(m.data[offset:]), nil
}

func (m *mockMemory) WriteU8(offset uint32, value uint8) error {
	return m.Write(offset, []byte{value})
}

func (m *mockMemory) WriteU16(offset uint32, value uint16) error {
	if err := m.check(offset, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(m.data[offset:], value)
	return nil
}

func (m *mockMemory) WriteU32(offset uint32, value uint32) error {
	if err := m.check(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.data[offset:], value)
	return nil
}

func (m *mockMemory) WriteU64(offset uint32, value uint64) error {
	if err := m.check(offset, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(m.data[offset:], value)
	return nil
}

// mockAllocator is a bump allocator that tracks live allocations
type mockAllocator struct {
	live    map[uint32]uint32
	next    uint32
	limit   uint32
	failAt  int // 1-based allocation number to fail; 0 never fails
	count   int
	badFree int
}

func newMockAllocator(limit uint32) *mockAllocator {
	return &mockAllocator{live: make(map[uint32]uint32), next: 8, limit: limit}
}

func (a *mockAllocator) Alloc(size, align uint32) (uint32, error) {
	a.count++
	if a.failAt > 0 && a.count == a.failAt {
		return 0, stderrors.New("allocation refused")
	}
	ptr := AlignTo(a.next, align)
	if ptr+size > a.limit {
		return 0, stderrors.New("out of memory")
	}
	a.next = ptr + size
	a.live[ptr] = size
	return ptr, nil
}

func (a *mockAllocator) Free(ptr, size, _ uint32) {
	if got, ok := a.live[ptr]; !ok || got != size {
		a.badFree++
		return
	}
	delete(a.live, ptr)
}

func TestAlignTo(t *testing.T) {
	tests := []struct{ ptr, align, want uint32 }{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 4, 12},
		{13, 1, 13},
		{13, 0, 13},
	}
	for _, tt := range tests {
		if got := AlignTo(tt.ptr, tt.align); got != tt.want {
			t.Errorf("AlignTo(%d, %d) = %d, want %d", tt.ptr, tt.align, got, tt.want)
		}
	}
}

func TestStore_ScalarLayout(t *testing.T) {
	mem := newMockMemory(256)
	alloc := newMockAllocator(256)

	tests := []struct {
		name    string
		v       variant.Value
		payload []byte
	}{
		{"num", variant.Num(1.5), binary.LittleEndian.AppendUint64(nil, math.Float64bits(1.5))},
		{"bool", variant.Bool(true), []byte{1, 0, 0, 0, 0, 0, 0, 0}},
		{"err", variant.Err(variant.ErrNA), []byte{42, 0, 0, 0, 0, 0, 0, 0}},
		{"int", variant.Int(-2), []byte{0xfe, 0xff, 0, 0, 0, 0, 0, 0}},
		{"missing", variant.Missing(), make([]byte, 8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := StoreNew(mem, alloc, &tt.v)
			if err != nil {
				t.Fatal(err)
			}
			if addr%VariantAlign != 0 {
				t.Errorf("slot %d is not aligned", addr)
			}
			slot, _ := mem.Read(addr, VariantSize)
			if got := slot[:8]; string(got) != string(tt.payload) {
				t.Errorf("payload = % x, want % x", got, tt.payload)
			}
			if tag := binary.LittleEndian.Uint16(slot[TypeOffset:]); tag != uint16(tt.v.Type) {
				t.Errorf("xltype = 0x%04x, want 0x%04x", tag, uint16(tt.v.Type))
			}

			back, err := Load(mem, addr)
			if err != nil {
				t.Fatal(err)
			}
			if back.String() != tt.v.String() || back.Type != tt.v.Type {
				t.Errorf("Load = %v (%s), want %v", back, back.Type, tt.v)
			}
			if err := Free(mem, alloc, addr); err != nil {
				t.Fatal(err)
			}
		})
	}
	if len(alloc.live) != 0 || alloc.badFree != 0 {
		t.Errorf("live=%v badFree=%d", alloc.live, alloc.badFree)
	}
}

func TestStore_TextLayout(t *testing.T) {
	mem := newMockMemory(1024)
	alloc := newMockAllocator(1024)

	v := variant.Value{Type: variant.TypeStr | variant.BitDLLFree, Str: variant.Counted("hello")}
	addr, err := StoreNew(mem, alloc, &v)
	if err != nil {
		t.Fatal(err)
	}

	ptr, _ := mem.ReadU32(addr)
	buf, _ := mem.Read(ptr, 6)
	if buf[0] != 5 || string(buf[1:]) != "hello" {
		t.Errorf("counted buffer = %q", buf)
	}
	tag, _ := mem.ReadU16(addr + TypeOffset)
	if variant.Type(tag) != variant.TypeStr|variant.BitDLLFree {
		t.Errorf("xltype = %s", variant.Type(tag))
	}

	back, err := Load(mem, addr)
	if err != nil {
		t.Fatal(err)
	}
	if back.Text() != "hello" {
		t.Errorf("Text() = %q", back.Text())
	}

	if err := Free(mem, alloc, addr); err != nil {
		t.Fatal(err)
	}
	if len(alloc.live) != 0 {
		t.Errorf("live = %v", alloc.live)
	}
}

func TestStore_MultiLayout(t *testing.T) {
	mem := newMockMemory(4096)
	alloc := newMockAllocator(4096)

	v := variant.Multi(2, 3,
		variant.Num(1), variant.Str("a"), variant.Bool(true),
		variant.Err(variant.ErrDiv0), variant.Nil(), variant.Str(strings.Repeat("z", 255)))
	addr, err := StoreNew(mem, alloc, &v)
	if err != nil {
		t.Fatal(err)
	}

	rows, _ := mem.ReadU16(addr + 4)
	cols, _ := mem.ReadU16(addr + 6)
	if rows != 2 || cols != 3 {
		t.Errorf("shape = %dx%d", rows, cols)
	}
	arr, _ := mem.ReadU32(addr)
	if arr%VariantAlign != 0 {
		t.Errorf("array %d is not aligned", arr)
	}
	// Row-major: element [1][0] is the fourth slot.
	tag, _ := mem.ReadU16(arr + 3*VariantSize + TypeOffset)
	if variant.Type(tag) != variant.TypeErr {
		t.Errorf("element 3 tag = %s", variant.Type(tag))
	}

	back, err := Load(mem, addr)
	if err != nil {
		t.Fatal(err)
	}
	if back.String() != v.String() {
		t.Errorf("Load = %s\nwant %s", back, v)
	}

	if err := Free(mem, alloc, addr); err != nil {
		t.Fatal(err)
	}
	if len(alloc.live) != 0 || alloc.badFree != 0 {
		t.Errorf("live=%v badFree=%d", alloc.live, alloc.badFree)
	}
}

func TestStore_EmptyMulti(t *testing.T) {
	mem := newMockMemory(256)
	alloc := newMockAllocator(256)

	v := variant.Multi(0, 0)
	addr, err := StoreNew(mem, alloc, &v)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Load(mem, addr)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Type.Is(variant.TypeMulti) || back.Len() != 0 {
		t.Errorf("Load = %v", back)
	}
	if err := Free(mem, alloc, addr); err != nil {
		t.Fatal(err)
	}
}

func TestStore_Rollback(t *testing.T) {
	v := variant.Multi(1, 3, variant.Str("a"), variant.Str("b"), variant.Str("c"))

	for failAt := 1; failAt <= 5; failAt++ {
		t.Run(fmt.Sprintf("fail at %d", failAt), func(t *testing.T) {
			mem := newMockMemory(1024)
			alloc := newMockAllocator(1024)
			alloc.failAt = failAt

			_, err := StoreNew(mem, alloc, &v)
			if err == nil {
				t.Fatal("expected error")
			}
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindAllocation}) {
				t.Errorf("err = %v", err)
			}
			if len(alloc.live) != 0 || alloc.badFree != 0 {
				t.Errorf("live=%v badFree=%d", alloc.live, alloc.badFree)
			}
		})
	}
}

func TestStore_Errors(t *testing.T) {
	mem := newMockMemory(256)
	alloc := newMockAllocator(256)
	list := NewAllocationList()
	defer list.Release()

	tests := []struct {
		name string
		v    *variant.Value
		addr uint32
		kind errors.Kind
	}{
		{"nil value", nil, 8, errors.KindNilPointer},
		{"unaligned", &variant.Value{Type: variant.TypeNum}, 12, errors.KindInvalidInput},
		{"null slot", &variant.Value{Type: variant.TypeNum}, 0, errors.KindInvalidInput},
		{"reference", &variant.Value{Type: variant.TypeRef}, 8, errors.KindUnsupported},
		{"nested multi", &variant.Value{Type: variant.TypeMulti, Rows: 1, Cols: 1,
			Array: []variant.Value{variant.Multi(0, 0)}}, 8, errors.KindUnsupported},
		{"short array", &variant.Value{Type: variant.TypeMulti, Rows: 2, Cols: 2}, 8, errors.KindInvalidData},
		{"out of bounds", &variant.Value{Type: variant.TypeNum}, 248, errors.KindOutOfBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Store(mem, alloc, tt.addr, tt.v, list)
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLayout, Kind: tt.kind}) {
				t.Fatalf("err = %v, want %s", err, tt.kind)
			}
			if !strings.HasPrefix(err.Error(), "Store: ") {
				t.Errorf("err = %q", err.Error())
			}
		})
	}
	list.Free(alloc)
}

func TestLoad_Errors(t *testing.T) {
	mem := newMockMemory(64)

	_ = mem.WriteU16(8+TypeOffset, uint16(variant.TypeSRef))
	_, err := Load(mem, 8)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindUnsupported}) {
		t.Errorf("sref: %v", err)
	}

	_ = mem.WriteU16(32+TypeOffset, uint16(variant.TypeMulti))
	_ = mem.WriteU16(32+4, 1)
	_ = mem.WriteU16(32+6, 1)
	_, err = Load(mem, 32)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindInvalidData}) {
		t.Errorf("null array: %v", err)
	}

	_, err = Load(mem, 60)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindOutOfBounds}) {
		t.Errorf("out of bounds: %v", err)
	}
	if err == nil || strings.Contains(err.Error(), "(length ") {
		t.Errorf("unsized memory reported bounds: %v", err)
	}

	sized := &sizedMemory{newMockMemory(64)}
	_, err = Load(sized, 60)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindOutOfBounds}) {
		t.Fatalf("sized out of bounds: %v", err)
	}
	if !strings.Contains(err.Error(), "read index 68 out of bounds (length 64)") {
		t.Errorf("err = %q", err.Error())
	}
}

// sizedMemory adds MemorySizer to mockMemory.
type sizedMemory struct {
	*mockMemory
}

func (m *sizedMemory) Size() uint32 {
	return uint32(len(m.data))
}

func TestFP_Layout(t *testing.T) {
	mem := newMockMemory(512)
	alloc := newMockAllocator(512)

	fp := &variant.FP{Rows: 2, Cols: 2, Array: []float64{1, 2.5, -3, 4}}
	addr, err := StoreFP(mem, alloc, fp)
	if err != nil {
		t.Fatal(err)
	}
	if rows, _ := mem.ReadU16(addr); rows != 2 {
		t.Errorf("rows = %d", rows)
	}
	if bits, _ := mem.ReadU64(addr + 8 + 8); math.Float64frombits(bits) != 2.5 {
		t.Errorf("array[1] = %v", math.Float64frombits(bits))
	}

	back, err := LoadFP(mem, addr)
	if err != nil {
		t.Fatal(err)
	}
	if back.Rows != 2 || back.Cols != 2 || len(back.Array) != 4 || back.Array[2] != -3 {
		t.Errorf("LoadFP = %+v", back)
	}

	if err := FreeFP(mem, alloc, addr); err != nil {
		t.Fatal(err)
	}
	if len(alloc.live) != 0 || alloc.badFree != 0 {
		t.Errorf("live=%v badFree=%d", alloc.live, alloc.badFree)
	}

	_, err = StoreFP(mem, alloc, &variant.FP{Rows: 3, Cols: 1, Array: []float64{1}})
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindInvalidData}) {
		t.Errorf("short FP: %v", err)
	}
	_, err = StoreFP(mem, alloc, nil)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindNilPointer}) {
		t.Errorf("nil FP: %v", err)
	}
}

func TestAllocationList(t *testing.T) {
	alloc := newMockAllocator(256)
	list := NewAllocationList()
	defer list.Release()

	for i := 0; i < 3; i++ {
		ptr, _ := alloc.Alloc(16, 8)
		list.Add(ptr, 16, 8)
	}
	list.Add(0, 4, 4)
	if len(list.allocs) != 4 {
		t.Fatalf("recorded %d allocations, want 4", len(list.allocs))
	}

	list.Free(alloc)
	if len(alloc.live) != 0 || alloc.badFree != 0 {
		t.Errorf("live=%v badFree=%d", alloc.live, alloc.badFree)
	}
	if len(list.allocs) != 0 {
		t.Errorf("list not emptied: %d left", len(list.allocs))
	}

	list.Free(alloc)
	if alloc.badFree != 0 {
		t.Errorf("second Free freed again: badFree=%d", alloc.badFree)
	}
}
