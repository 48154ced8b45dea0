package codec

import (
	"strings"
	"testing"

	"github.com/wippyai/xloper/dynamic"
	"github.com/wippyai/xloper/errors"
	"github.com/wippyai/xloper/variant"
)

func opaque(v *variant.Value) dynamic.Opaque {
	return dynamic.Opaque{V: v}
}

func TestEncodeString(t *testing.T) {
	c := New(nil)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"short", "hello", "hello"},
		{"exact limit", strings.Repeat("a", variant.MaxStrLen), strings.Repeat("a", variant.MaxStrLen)},
		{"over limit", strings.Repeat("b", variant.MaxStrLen+1), strings.Repeat("b", variant.MaxStrLen)},
		{"far over limit", strings.Repeat("c", 1000), strings.Repeat("c", variant.MaxStrLen)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := c.EncodeString(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if v.Type != variant.TypeStr|variant.BitDLLFree {
				t.Errorf("Type = %s", v.Type)
			}
			if got := v.Text(); got != tt.want {
				t.Errorf("Text() has length %d, want %d", len(got), len(tt.want))
			}
			if int(v.Str[0]) != len(tt.want) {
				t.Errorf("length prefix = %d", v.Str[0])
			}
		})
	}
}

func TestEncodeString_AllocationFailure(t *testing.T) {
	c := New(nil, WithAllocator(&trackingAllocator{failTextAt: 1}))
	_, err := c.EncodeString("x")
	assertOp(t, err, "EncodeString: ")
	assertKind(t, err, errors.PhaseEncode, errors.KindAllocation)
}

func TestEncodeScalars(t *testing.T) {
	c := New(nil)

	tests := []struct {
		name string
		got  variant.Value
		want variant.Value
	}{
		{"int", c.EncodeInt(-12), variant.Num(-12)},
		{"long", c.EncodeLong(1 << 40), variant.Num(1 << 40)},
		{"double", c.EncodeDouble(2.5), variant.Num(2.5)},
		{"bool", c.EncodeBool(true), variant.Bool(true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.String() != tt.want.String() || tt.got.Type != tt.want.Type {
				t.Errorf("got %v (%s), want %v", tt.got, tt.got.Type, tt.want)
			}
		})
	}
}

func TestEncode_EmptyIsDegenerate(t *testing.T) {
	alloc := &trackingAllocator{}
	c := New(nil, WithAllocator(alloc))

	encoders := map[string]func() (variant.Value, error){
		"EncodeVectorLong":        func() (variant.Value, error) { return c.EncodeVectorLong(nil) },
		"EncodeVectorDouble":      func() (variant.Value, error) { return c.EncodeVectorDouble([]float64{}) },
		"EncodeVectorBool":        func() (variant.Value, error) { return c.EncodeVectorBool(nil) },
		"EncodeVectorString":      func() (variant.Value, error) { return c.EncodeVectorString([]string{}) },
		"EncodeVectorAny":         func() (variant.Value, error) { return c.EncodeVectorAny(nil) },
		"EncodeMatrixLong":        func() (variant.Value, error) { return c.EncodeMatrixLong(nil) },
		"EncodeMatrixDouble":      func() (variant.Value, error) { return c.EncodeMatrixDouble([][]float64{}) },
		"EncodeMatrixBool":        func() (variant.Value, error) { return c.EncodeMatrixBool([][]bool{{}}) },
		"EncodeMatrixString":      func() (variant.Value, error) { return c.EncodeMatrixString([][]string{{}, {}}) },
		"EncodeMatrixAny":         func() (variant.Value, error) { return c.EncodeMatrixAny(nil) },
		"EncodeAny(LongVector{})": func() (variant.Value, error) { return c.EncodeAny(dynamic.LongVector{}) },
		"EncodeAny(AnyMatrix{})":  func() (variant.Value, error) { return c.EncodeAny(dynamic.AnyMatrix{}) },
	}

	for name, enc := range encoders {
		t.Run(name, func(t *testing.T) {
			v, err := enc()
			if err != nil {
				t.Fatal(err)
			}
			if v.Type != variant.TypeNum || v.Num != 0 {
				t.Errorf("got %v (%s), want num(0)", v, v.Type)
			}
		})
	}
	if alloc.arrays != 0 || alloc.texts != 0 {
		t.Errorf("empty collections allocated: arrays=%d texts=%d", alloc.arrays, alloc.texts)
	}
}

func TestEncodeVector(t *testing.T) {
	c := New(nil)

	v, err := c.EncodeVectorLong([]int64{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if v.Type != variant.TypeMulti|variant.BitDLLFree {
		t.Errorf("Type = %s", v.Type)
	}
	if v.Rows != 3 || v.Cols != 1 {
		t.Errorf("shape = %dx%d, want 3x1", v.Rows, v.Cols)
	}
	if got := v.String(); got != "multi[3x1]{num(1); num(2); num(3)}" {
		t.Errorf("got %s", got)
	}

	s, err := c.EncodeVectorString([]string{"x", strings.Repeat("y", 300)})
	if err != nil {
		t.Fatal(err)
	}
	if s.Array[0].Type != variant.TypeStr|variant.BitDLLFree {
		t.Errorf("element type = %s", s.Array[0].Type)
	}
	if n := len(s.Array[1].Text()); n != variant.MaxStrLen {
		t.Errorf("element text length = %d", n)
	}
}

func TestEncodeMatrix_RowMajor(t *testing.T) {
	c := New(nil)

	v, err := c.EncodeMatrixLong([][]int64{{1, 2, 3}, {4, 5, 6}})
	if err != nil {
		t.Fatal(err)
	}
	if v.Rows != 2 || v.Cols != 3 {
		t.Fatalf("shape = %dx%d, want 2x3", v.Rows, v.Cols)
	}
	for i := 0; i < 6; i++ {
		if v.Array[i].Num != float64(i+1) {
			t.Errorf("Array[%d] = %v, want %d", i, v.Array[i], i+1)
		}
	}
	if v.At(1, 0).Num != 4 {
		t.Errorf("At(1,0) = %v", v.At(1, 0))
	}

	b, err := c.EncodeMatrixBool([][]bool{{true, false}})
	if err != nil {
		t.Fatal(err)
	}
	if got := b.String(); got != "multi[1x2]{bool(true), bool(false)}" {
		t.Errorf("got %s", got)
	}
}

func TestEncodeMatrix_Ragged(t *testing.T) {
	alloc := &trackingAllocator{}
	c := New(nil, WithAllocator(alloc))

	_, err := c.EncodeMatrixDouble([][]float64{{1, 2}, {3, 4}, {5}})
	assertOp(t, err, "EncodeMatrixDouble: ")
	assertKind(t, err, errors.PhaseEncode, errors.KindRagged)
	if !strings.Contains(err.Error(), "[2]") {
		t.Errorf("error does not name the ragged row: %v", err)
	}
	if alloc.arrays != 0 {
		t.Error("ragged input allocated an array")
	}
}

func TestEncodeVector_Overflow(t *testing.T) {
	c := New(nil)
	_, err := c.EncodeVectorBool(make([]bool, variant.MaxDim+1))
	assertOp(t, err, "EncodeVectorBool: ")
	assertKind(t, err, errors.PhaseEncode, errors.KindOverflow)
}

func TestEncode_AllocationRollback(t *testing.T) {
	alloc := &trackingAllocator{failTextAt: 3}
	c := New(nil, WithAllocator(alloc))

	_, err := c.EncodeVectorString([]string{"a", "b", "c", "d"})
	assertOp(t, err, "EncodeVectorString at [2]: ")
	assertKind(t, err, errors.PhaseEncode, errors.KindAllocation)
	if alloc.live() != 0 {
		t.Errorf("%d buffers leaked (texts=%d arrays=%d frees=%d)",
			alloc.live(), alloc.texts, alloc.arrays, alloc.frees)
	}

	alloc = &trackingAllocator{failTextAt: 4}
	c = New(nil, WithAllocator(alloc))
	_, err = c.EncodeMatrixString([][]string{{"a", "b"}, {"c", "d"}})
	assertOp(t, err, "EncodeMatrixString at [1][1]: ")
	if alloc.live() != 0 {
		t.Errorf("%d buffers leaked", alloc.live())
	}

	_, err = New(nil, WithAllocator(&trackingAllocator{failArray: true})).EncodeVectorLong([]int64{1})
	assertOp(t, err, "EncodeVectorLong: ")
	assertKind(t, err, errors.PhaseEncode, errors.KindAllocation)
}

func TestEncodeAny_Dispatch(t *testing.T) {
	c, _ := newSim(t)
	num := variant.Num(7)

	tests := []struct {
		name string
		in   dynamic.Value
		want variant.Type
	}{
		{"int", dynamic.Int(3), variant.TypeNum},
		{"long", dynamic.Long(3), variant.TypeNum},
		{"double", dynamic.Double(3.5), variant.TypeNum},
		{"bool", dynamic.Bool(true), variant.TypeBool},
		{"string", dynamic.String("s"), variant.TypeStr},
		{"opaque", opaque(&num), variant.TypeNum},
		{"vector<long>", dynamic.LongVector{1, 2}, variant.TypeMulti},
		{"vector<double>", dynamic.DoubleVector{1}, variant.TypeMulti},
		{"vector<bool>", dynamic.BoolVector{true}, variant.TypeMulti},
		{"vector<string>", dynamic.StringVector{"a"}, variant.TypeMulti},
		{"vector<any>", dynamic.AnyVector{dynamic.Long(1)}, variant.TypeMulti},
		{"matrix<long>", dynamic.LongMatrix{{1}}, variant.TypeMulti},
		{"matrix<double>", dynamic.DoubleMatrix{{1, 2}}, variant.TypeMulti},
		{"matrix<bool>", dynamic.BoolMatrix{{true}}, variant.TypeMulti},
		{"matrix<string>", dynamic.StringMatrix{{"a"}}, variant.TypeMulti},
		{"matrix<any>", dynamic.AnyMatrix{{dynamic.String("a")}}, variant.TypeMulti},
		{"unsupported", dynamic.Unsupported{Go: struct{}{}}, variant.TypeErr},
		{"empty any", nil, variant.TypeErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := c.EncodeAny(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if !v.Type.Is(tt.want) {
				t.Errorf("Type = %s, want %s", v.Type, tt.want)
			}
			if tt.want == variant.TypeErr && v.Err != variant.ErrValue {
				t.Errorf("Err = %s, want #VALUE!", v.Err)
			}
			if err := c.Free(&v); err != nil {
				t.Errorf("Free: %v", err)
			}
		})
	}
}

func TestEncodeAny_Opaque(t *testing.T) {
	c, host := newSim(t)
	src := variant.Str("borrowed")

	v, err := c.EncodeAny(opaque(&src))
	if err != nil {
		t.Fatal(err)
	}
	if !v.Type.XLFree() || v.Text() != "borrowed" {
		t.Errorf("got %v (%s)", v, v.Type)
	}
	if src.Type != variant.TypeStr {
		t.Error("source value was modified")
	}
	if err := c.Free(&v); err != nil {
		t.Fatal(err)
	}
	if s := host.Stats(); s.Coerced != 1 || s.Released != 1 {
		t.Errorf("Stats = %+v", s)
	}

	_, err = c.EncodeAny(dynamic.Opaque{})
	assertOp(t, err, "EncodeAny: ")
	assertKind(t, err, errors.PhaseEncode, errors.KindNilPointer)

	ref := variant.Value{Type: variant.TypeRef}
	_, err = c.EncodeAny(opaque(&ref))
	assertKind(t, err, errors.PhaseCoerce, errors.KindCoercion)
}

func TestEncodeAny_NoExpand(t *testing.T) {
	host := newSimHost(t)
	c := New(host, WithExpand(false))

	tests := []struct {
		name string
		in   dynamic.Value
		want string
	}{
		{"vector", dynamic.LongVector{1, 2}, `str("VECTOR")`},
		{"any vector", dynamic.AnyVector{dynamic.Bool(true)}, `str("VECTOR")`},
		{"matrix", dynamic.DoubleMatrix{{1}}, `str("MATRIX")`},
		{"scalar", dynamic.Double(1.5), "num(1.5)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := c.EncodeAny(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if got := v.String(); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
			_ = c.Free(&v)
		})
	}
}

func TestEncodeAny_NoExpandOpaqueArray(t *testing.T) {
	host := newSimHost(t)
	c := New(host, WithExpand(false))
	arr := variant.Multi(1, 2, variant.Num(1), variant.Num(2))

	v, err := c.EncodeAny(opaque(&arr))
	if err != nil {
		t.Fatal(err)
	}
	if !v.Type.XLFree() || !v.Type.Is(variant.TypeMulti) {
		t.Fatalf("type = %s, want host-owned multi", v.Type)
	}
	if got, want := v.String(), "multi[1x2]{num(1), num(2)}"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if err := c.Free(&v); err != nil {
		t.Fatal(err)
	}

	elems, err := c.EncodeVectorAny([]dynamic.Value{opaque(&arr)})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := elems.String(), `multi[1x1]{str("MATRIX")}`; got != want {
		t.Errorf("element: got %s, want %s", got, want)
	}
	if err := c.Free(&elems); err != nil {
		t.Fatal(err)
	}
	if s := host.Stats(); s.Coerced != 2 || s.Released != 2 {
		t.Errorf("Stats = %+v", s)
	}
}

func TestEncodeVectorAny_NestedCollapse(t *testing.T) {
	c, _ := newSim(t)
	arr := variant.Multi(1, 1, variant.Num(9))

	v, err := c.EncodeVectorAny([]dynamic.Value{
		dynamic.Long(1),
		dynamic.String("x"),
		dynamic.LongVector{1, 2},
		dynamic.AnyMatrix{{dynamic.Long(1)}},
		opaque(&arr),
		dynamic.Unsupported{Go: 1i},
		nil,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := `multi[7x1]{num(1); str("x"); str("VECTOR"); str("MATRIX"); str("MATRIX"); err(#VALUE!); err(#VALUE!)}`
	if got := v.String(); got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
	if err := c.Free(&v); err != nil {
		t.Fatal(err)
	}
}

func TestEncodeVectorAny_ElementFailureReleases(t *testing.T) {
	c, host := newSim(t)
	ok := variant.Num(1)
	ref := variant.Value{Type: variant.TypeSRef}

	_, err := c.EncodeMatrixAny([][]dynamic.Value{
		{opaque(&ok), dynamic.String("a")},
		{opaque(&ok), opaque(&ref)},
	})
	assertOp(t, err, "EncodeMatrixAny at [1][1]: ")
	if s := host.Stats(); s.Coerced != 2 || s.Released != 2 {
		t.Errorf("Stats = %+v, want two coercions released once each", s)
	}
}
