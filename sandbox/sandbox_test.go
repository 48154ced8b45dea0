package sandbox

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/wippyai/xloper/abi"
	"github.com/wippyai/xloper/codec"
	"github.com/wippyai/xloper/errors"
	"github.com/wippyai/xloper/variant"
)

func newSandbox(t *testing.T, opts ...Option) *Sandbox {
	t.Helper()
	ctx := context.Background()
	sb, err := New(ctx, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = sb.Close(ctx) })
	return sb
}

func TestMemoryModule(t *testing.T) {
	want := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x05, 0x03, 0x01, 0x00, 0x01,
		0x07, 0x0a, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	}
	if got := memoryModule(1, 0); string(got) != string(want) {
		t.Errorf("memoryModule(1, 0) = % x", got)
	}

	bounded := memoryModule(2, 300)
	// limits: flag 1, min 2, max 300 as LEB128 (ac 02)
	if bounded[10] != 0x01 || bounded[11] != 0x01 || bounded[12] != 0x02 ||
		bounded[13] != 0xac || bounded[14] != 0x02 {
		t.Errorf("bounded limits = % x", bounded[8:15])
	}
}

func TestNew(t *testing.T) {
	sb := newSandbox(t, WithInitialPages(2), WithMemoryLimitPages(4))
	if got := sb.Memory().Size(); got != 2*pageSize {
		t.Errorf("Size = %d, want %d", got, 2*pageSize)
	}

	_, err := New(context.Background(), WithInitialPages(8), WithMemoryLimitPages(4))
	if err == nil {
		t.Error("expected error for initial pages above the limit")
	}
}

func TestMemory_Bounds(t *testing.T) {
	sb := newSandbox(t)
	mem := sb.Memory()

	if err := mem.WriteU64(pageSize-8, 42); err != nil {
		t.Fatal(err)
	}
	if v, err := mem.ReadU64(pageSize - 8); err != nil || v != 42 {
		t.Errorf("ReadU64 = %d, %v", v, err)
	}
	if err := mem.WriteU16(pageSize-1, 1); err == nil {
		t.Error("write across the end should fail")
	}
	if _, err := mem.Read(pageSize, 1); err == nil {
		t.Error("read past the end should fail")
	}
}

func TestAllocator_GrowAndLimit(t *testing.T) {
	sb := newSandbox(t, WithMemoryLimitPages(2))
	alloc := sb.Allocator()

	a, err := alloc.Alloc(100, 8)
	if err != nil {
		t.Fatal(err)
	}
	if a < heapBase || a%8 != 0 {
		t.Errorf("first block at %d", a)
	}

	b, err := alloc.Alloc(pageSize, 8)
	if err != nil {
		t.Fatalf("Alloc across a page: %v", err)
	}
	if sb.Memory().Size() != 2*pageSize {
		t.Errorf("memory did not grow: %d", sb.Memory().Size())
	}

	_, err = alloc.Alloc(pageSize, 8)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindAllocation}) {
		t.Fatalf("Alloc past the limit = %v", err)
	}
	if !stderrors.Is(err, ErrMemoryLimit) {
		t.Errorf("Alloc past the limit does not wrap ErrMemoryLimit: %v", err)
	}

	alloc.Free(b, pageSize, 8)
	alloc.Free(a, 100, 8)
	if alloc.Live() != 0 {
		t.Errorf("Live = %d", alloc.Live())
	}
	if again, _ := alloc.Alloc(16, 8); again != heapBase {
		t.Errorf("region not reused: got %d", again)
	}
}

func TestAbiRoundTrip(t *testing.T) {
	sb := newSandbox(t)
	c := codec.New(nil)

	enc, err := c.EncodeMatrixString([][]string{{"a", "bb"}, {"ccc", ""}})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Free(&enc)

	addr, err := abi.StoreNew(sb.Memory(), sb.Allocator(), &enc)
	if err != nil {
		t.Fatal(err)
	}
	back, err := abi.Load(sb.Memory(), addr)
	if err != nil {
		t.Fatal(err)
	}
	if back.String() != enc.String() || back.Type != enc.Type {
		t.Errorf("Load = %s (%s), want %s", back, back.Type, enc)
	}

	got, err := c.DecodeMatrixString(&back)
	if err != nil {
		t.Fatal(err)
	}
	if got[1][0] != "ccc" || got[0][1] != "bb" {
		t.Errorf("decoded %q", got)
	}

	if err := abi.Free(sb.Memory(), sb.Allocator(), addr); err != nil {
		t.Fatal(err)
	}
	if n := sb.Allocator().Live(); n != 0 {
		t.Errorf("%d blocks still live", n)
	}
}

func TestAbiRoundTrip_FP(t *testing.T) {
	sb := newSandbox(t)

	fp := &variant.FP{Rows: 1, Cols: 3, Array: []float64{0.5, 1.5, 2.5}}
	addr, err := abi.StoreFP(sb.Memory(), sb.Allocator(), fp)
	if err != nil {
		t.Fatal(err)
	}
	back, err := abi.LoadFP(sb.Memory(), addr)
	if err != nil {
		t.Fatal(err)
	}
	if got := codec.DecodeFPVectorDouble(&back); len(got) != 3 || got[2] != 2.5 {
		t.Errorf("decoded %v", got)
	}
	if err := abi.FreeFP(sb.Memory(), sb.Allocator(), addr); err != nil {
		t.Fatal(err)
	}
	if n := sb.Allocator().Live(); n != 0 {
		t.Errorf("%d blocks still live", n)
	}
}
