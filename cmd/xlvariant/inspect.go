package main

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/wippyai/xloper/abi"
	"github.com/wippyai/xloper/codec"
	"github.com/wippyai/xloper/dynamic"
	"github.com/wippyai/xloper/sandbox"
	"github.com/wippyai/xloper/simhost"
	"github.com/wippyai/xloper/variant"
)

// decodeTargets are the shapes -as accepts, in display order.
var decodeTargets = []string{
	"any", "long", "double", "bool", "string",
	"vector<long>", "vector<double>", "vector<bool>", "vector<string>", "vector<any>",
	"matrix<long>", "matrix<double>", "matrix<bool>", "matrix<string>", "matrix<any>",
}

type options struct {
	value  string
	as     string
	expand bool
	layout bool
}

type layoutRow struct {
	label string
	bytes []byte
	addr  uint32
}

type report struct {
	kind        dynamic.Kind
	encoded     string
	decoded     string
	decodeErr   error
	layout      []layoutRow
	stats       simhost.Stats
	outstanding int
}

// inspect encodes a JSON value the way an add-in would return it, optionally
// lays it out in linear memory, then decodes it back as the requested shape.
func inspect(ctx context.Context, opts options) (*report, error) {
	var pv structpb.Value
	if err := protojson.Unmarshal([]byte(opts.value), &pv); err != nil {
		return nil, fmt.Errorf("parse value: %w", err)
	}
	dv := dynamic.FromProto(&pv)

	host := simhost.New()
	defer host.Close()
	c := codec.New(host, codec.WithExpand(opts.expand))

	v, err := c.EncodeAny(dv)
	if err != nil {
		return nil, err
	}
	defer c.Free(&v)

	r := &report{
		kind:    dynamic.KindOf(dv),
		encoded: v.String(),
	}

	target := &v
	if opts.layout {
		rows, loaded, err := dumpLayout(ctx, &v)
		if err != nil {
			return nil, fmt.Errorf("layout: %w", err)
		}
		r.layout = rows
		// Decode what came back out of memory, not the Go-side value.
		target = &loaded
	}

	out, err := decodeAs(c, target, opts.as)
	if err != nil {
		r.decodeErr = err
	} else if r.decoded, err = toJSON(out); err != nil {
		r.decodeErr = err
	}

	r.stats = host.Stats()
	r.outstanding = host.Outstanding()
	return r, nil
}

func decodeAs(c *codec.Codec, v *variant.Value, as string) (dynamic.Value, error) {
	switch as {
	case "", "any":
		if v.Type.Is(variant.TypeMulti) {
			m, err := c.DecodeMatrixAny(v)
			return dynamic.AnyMatrix(m), err
		}
		return c.DecodeAny(v)
	case "long":
		x, err := c.DecodeLong(v, 0)
		return dynamic.Long(x), err
	case "double":
		x, err := c.DecodeDouble(v, 0)
		return dynamic.Double(x), err
	case "bool":
		x, err := c.DecodeBool(v, false)
		return dynamic.Bool(x), err
	case "string":
		x, err := c.DecodeString(v, "")
		return dynamic.String(x), err
	case "vector<long>":
		x, err := c.DecodeVectorLong(v)
		return dynamic.LongVector(x), err
	case "vector<double>":
		x, err := c.DecodeVectorDouble(v)
		return dynamic.DoubleVector(x), err
	case "vector<bool>":
		x, err := c.DecodeVectorBool(v)
		return dynamic.BoolVector(x), err
	case "vector<string>":
		x, err := c.DecodeVectorString(v)
		return dynamic.StringVector(x), err
	case "vector<any>":
		x, err := c.DecodeVectorAny(v)
		return dynamic.AnyVector(x), err
	case "matrix<long>":
		x, err := c.DecodeMatrixLong(v)
		return dynamic.LongMatrix(x), err
	case "matrix<double>":
		x, err := c.DecodeMatrixDouble(v)
		return dynamic.DoubleMatrix(x), err
	case "matrix<bool>":
		x, err := c.DecodeMatrixBool(v)
		return dynamic.BoolMatrix(x), err
	case "matrix<string>":
		x, err := c.DecodeMatrixString(v)
		return dynamic.StringMatrix(x), err
	case "matrix<any>":
		x, err := c.DecodeMatrixAny(v)
		return dynamic.AnyMatrix(x), err
	default:
		return nil, fmt.Errorf("unknown shape %q (want one of %s)", as, strings.Join(decodeTargets, ", "))
	}
}

func toJSON(v dynamic.Value) (string, error) {
	if v == nil {
		return "null", nil
	}
	pv, err := dynamic.ToProto(v)
	if err != nil {
		return "", err
	}
	b, err := protojson.Marshal(pv)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// dumpLayout stores v in a fresh sandbox and returns the raw bytes of every
// block it occupies, plus the value loaded back from memory.
func dumpLayout(ctx context.Context, v *variant.Value) ([]layoutRow, variant.Value, error) {
	sb, err := sandbox.New(ctx, sandbox.WithMemoryLimitPages(64))
	if err != nil {
		return nil, variant.Value{}, err
	}
	defer sb.Close(ctx)
	mem, alloc := sb.Memory(), sb.Allocator()

	addr, err := abi.StoreNew(mem, alloc, v)
	if err != nil {
		return nil, variant.Value{}, err
	}
	defer abi.Free(mem, alloc, addr)

	var rows []layoutRow
	add := func(label string, at, n uint32) error {
		b, err := mem.Read(at, n)
		if err != nil {
			return err
		}
		rows = append(rows, layoutRow{label: label, addr: at, bytes: append([]byte(nil), b...)})
		return nil
	}

	if err := add("xloper", addr, abi.VariantSize); err != nil {
		return nil, variant.Value{}, err
	}
	if err := dumpPayload(mem, addr, "", add); err != nil {
		return nil, variant.Value{}, err
	}
	if v.Type.Is(variant.TypeMulti) && v.Len() > 0 {
		arr, err := mem.ReadU32(addr)
		if err != nil {
			return nil, variant.Value{}, err
		}
		for i := 0; i < v.Len(); i++ {
			at := arr + uint32(i)*abi.VariantSize
			label := fmt.Sprintf("[%d][%d]", i/int(v.Cols), i%int(v.Cols))
			if err := add(label, at, abi.VariantSize); err != nil {
				return nil, variant.Value{}, err
			}
			if err := dumpPayload(mem, at, label, add); err != nil {
				return nil, variant.Value{}, err
			}
		}
	}

	loaded, err := abi.Load(mem, addr)
	if err != nil {
		return nil, variant.Value{}, err
	}
	return rows, loaded, nil
}

func dumpPayload(mem *sandbox.Memory, at uint32, label string, add func(string, uint32, uint32) error) error {
	tag, err := mem.ReadU16(at + abi.TypeOffset)
	if err != nil {
		return err
	}
	if !variant.Type(tag).Is(variant.TypeStr) {
		return nil
	}
	ptr, err := mem.ReadU32(at)
	if err != nil || ptr == 0 {
		return err
	}
	n, err := mem.ReadU8(ptr)
	if err != nil {
		return err
	}
	return add(label+" text", ptr, uint32(n)+1)
}
