package codec

import (
	"go.uber.org/zap"

	"github.com/wippyai/xloper/dynamic"
	"github.com/wippyai/xloper/errors"
	"github.com/wippyai/xloper/variant"
)

// EncodeString encodes s as owned text, cut to variant.MaxStrLen bytes.
func (c *Codec) EncodeString(s string) (variant.Value, error) {
	n := min(len(s), variant.MaxStrLen)
	buf, err := c.alloc.Text(n + 1)
	if err != nil {
		return variant.Value{}, errors.Op("EncodeString", allocErr("text", n+1, err))
	}
	buf[0] = byte(n)
	copy(buf[1:], s[:n])
	return variant.Value{Type: variant.TypeStr | variant.BitDLLFree, Str: buf}, nil
}

// EncodeInt encodes x as a number.
func (c *Codec) EncodeInt(x int32) variant.Value {
	return variant.Num(float64(x))
}

// EncodeLong encodes x as a number. Magnitudes above 2^53 lose precision.
func (c *Codec) EncodeLong(x int64) variant.Value {
	return variant.Num(float64(x))
}

// EncodeDouble encodes x as a number.
func (c *Codec) EncodeDouble(x float64) variant.Value {
	return variant.Num(x)
}

// EncodeBool encodes b as a boolean.
func (c *Codec) EncodeBool(b bool) variant.Value {
	return variant.Bool(b)
}

// EncodeVectorLong encodes v as a column of numbers.
func (c *Codec) EncodeVectorLong(v []int64) (variant.Value, error) {
	return encodeVector(c, "EncodeVectorLong", v, func(x int64) (variant.Value, error) {
		return variant.Num(float64(x)), nil
	})
}

// EncodeVectorDouble encodes v as a column of numbers.
func (c *Codec) EncodeVectorDouble(v []float64) (variant.Value, error) {
	return encodeVector(c, "EncodeVectorDouble", v, func(x float64) (variant.Value, error) {
		return variant.Num(x), nil
	})
}

// EncodeVectorBool encodes v as a column of booleans.
func (c *Codec) EncodeVectorBool(v []bool) (variant.Value, error) {
	return encodeVector(c, "EncodeVectorBool", v, func(x bool) (variant.Value, error) {
		return variant.Bool(x), nil
	})
}

// EncodeVectorString encodes v as a column of owned text values.
func (c *Codec) EncodeVectorString(v []string) (variant.Value, error) {
	return encodeVector(c, "EncodeVectorString", v, c.EncodeString)
}

// EncodeVectorAny encodes each element by the EncodeAny rules, collapsing
// nested collections to placeholder text.
func (c *Codec) EncodeVectorAny(v []dynamic.Value) (variant.Value, error) {
	return encodeVector(c, "EncodeVectorAny", v, c.encodeElement)
}

// EncodeMatrixLong encodes vv as a row-major array of numbers.
func (c *Codec) EncodeMatrixLong(vv [][]int64) (variant.Value, error) {
	return encodeMatrix(c, "EncodeMatrixLong", vv, func(x int64) (variant.Value, error) {
		return variant.Num(float64(x)), nil
	})
}

// EncodeMatrixDouble encodes vv as a row-major array of numbers.
func (c *Codec) EncodeMatrixDouble(vv [][]float64) (variant.Value, error) {
	return encodeMatrix(c, "EncodeMatrixDouble", vv, func(x float64) (variant.Value, error) {
		return variant.Num(x), nil
	})
}

// EncodeMatrixBool encodes vv as a row-major array of booleans.
func (c *Codec) EncodeMatrixBool(vv [][]bool) (variant.Value, error) {
	return encodeMatrix(c, "EncodeMatrixBool", vv, func(x bool) (variant.Value, error) {
		return variant.Bool(x), nil
	})
}

// EncodeMatrixString encodes vv as a row-major array of owned text values.
func (c *Codec) EncodeMatrixString(vv [][]string) (variant.Value, error) {
	return encodeMatrix(c, "EncodeMatrixString", vv, c.EncodeString)
}

// EncodeMatrixAny encodes each element by the EncodeAny rules, collapsing
// nested collections to placeholder text.
func (c *Codec) EncodeMatrixAny(vv [][]dynamic.Value) (variant.Value, error) {
	return encodeMatrix(c, "EncodeMatrixAny", vv, c.encodeElement)
}

// EncodeAny encodes a dynamic value according to its shape. Opaque values
// are normalized by the host's coercion primitive and the result is owned by
// the host; Free routes it back there.
func (c *Codec) EncodeAny(v dynamic.Value) (variant.Value, error) {
	out, err := c.encodeAny(v, false)
	return out, errors.Op("EncodeAny", err)
}

func (c *Codec) encodeElement(v dynamic.Value) (variant.Value, error) {
	return c.encodeAny(v, true)
}

// encodeAny encodes v at the top level or, when element is set, as one
// element of an array. Elements never expand.
func (c *Codec) encodeAny(v dynamic.Value, element bool) (variant.Value, error) {
	expand := c.expand && !element
	switch x := v.(type) {
	case dynamic.Opaque:
		return c.encodeOpaque(x, element)
	case dynamic.Int:
		return c.EncodeInt(int32(x)), nil
	case dynamic.Long:
		return c.EncodeLong(int64(x)), nil
	case dynamic.Double:
		return c.EncodeDouble(float64(x)), nil
	case dynamic.Bool:
		return c.EncodeBool(bool(x)), nil
	case dynamic.String:
		return c.EncodeString(string(x))
	case dynamic.LongVector:
		if !expand {
			return c.EncodeString(PlaceholderVector)
		}
		return c.EncodeVectorLong(x)
	case dynamic.DoubleVector:
		if !expand {
			return c.EncodeString(PlaceholderVector)
		}
		return c.EncodeVectorDouble(x)
	case dynamic.BoolVector:
		if !expand {
			return c.EncodeString(PlaceholderVector)
		}
		return c.EncodeVectorBool(x)
	case dynamic.StringVector:
		if !expand {
			return c.EncodeString(PlaceholderVector)
		}
		return c.EncodeVectorString(x)
	case dynamic.AnyVector:
		if !expand {
			return c.EncodeString(PlaceholderVector)
		}
		return c.EncodeVectorAny(x)
	case dynamic.LongMatrix:
		if !expand {
			return c.EncodeString(PlaceholderMatrix)
		}
		return c.EncodeMatrixLong(x)
	case dynamic.DoubleMatrix:
		if !expand {
			return c.EncodeString(PlaceholderMatrix)
		}
		return c.EncodeMatrixDouble(x)
	case dynamic.BoolMatrix:
		if !expand {
			return c.EncodeString(PlaceholderMatrix)
		}
		return c.EncodeMatrixBool(x)
	case dynamic.StringMatrix:
		if !expand {
			return c.EncodeString(PlaceholderMatrix)
		}
		return c.EncodeMatrixString(x)
	case dynamic.AnyMatrix:
		if !expand {
			return c.EncodeString(PlaceholderMatrix)
		}
		return c.EncodeMatrixAny(x)
	default:
		Logger().Debug("unsupported dynamic shape",
			zap.Stringer("kind", dynamic.KindOf(v)))
		return variant.Err(variant.ErrValue), nil
	}
}

// encodeOpaque forwards x to the host. An array element cannot hold a multi
// result, so there it is released and replaced by placeholder text.
func (c *Codec) encodeOpaque(x dynamic.Opaque, element bool) (variant.Value, error) {
	if x.V == nil {
		return variant.Value{}, errors.NilPointer(errors.PhaseEncode, "opaque variant")
	}
	out, err := c.coerce(x.V, variant.TypeValue, "dynamic.Opaque")
	if err != nil {
		return variant.Value{}, err
	}
	if element && out.Type.Is(variant.TypeMulti) {
		if err := c.releaseTemp(&out, nil); err != nil {
			return variant.Value{}, err
		}
		return c.EncodeString(PlaceholderMatrix)
	}
	return out, nil
}

func (c *Codec) degenerate(op string) variant.Value {
	Logger().Debug("empty collection encoded as num(0)", zap.String("op", op))
	return variant.Num(0)
}

func encodeVector[T any](c *Codec, op string, v []T, elem func(T) (variant.Value, error)) (variant.Value, error) {
	if len(v) == 0 {
		return c.degenerate(op), nil
	}
	if len(v) > variant.MaxDim {
		return variant.Value{}, errors.Op(op, errors.Overflow(errors.PhaseEncode, nil, len(v), "rows"))
	}

	arr, err := c.alloc.Array(len(v))
	if err != nil {
		return variant.Value{}, errors.Op(op, allocErr("array", len(v), err))
	}
	out := variant.Value{
		Type:  variant.TypeMulti | variant.BitDLLFree,
		Rows:  uint16(len(v)),
		Cols:  1,
		Array: arr,
	}

	for i, x := range v {
		e, err := elem(x)
		if err != nil {
			_ = c.Free(&out)
			return variant.Value{}, errors.OpAt(op, err, errors.Index(i))
		}
		arr[i] = e
	}
	return out, nil
}

func encodeMatrix[T any](c *Codec, op string, vv [][]T, elem func(T) (variant.Value, error)) (variant.Value, error) {
	if len(vv) == 0 || len(vv[0]) == 0 {
		return c.degenerate(op), nil
	}

	cols := len(vv[0])
	for i, row := range vv {
		if len(row) != cols {
			return variant.Value{}, errors.Op(op, errors.Ragged(errors.PhaseEncode, i, len(row), cols))
		}
	}
	if len(vv) > variant.MaxDim {
		return variant.Value{}, errors.Op(op, errors.Overflow(errors.PhaseEncode, nil, len(vv), "rows"))
	}
	if cols > variant.MaxDim {
		return variant.Value{}, errors.Op(op, errors.Overflow(errors.PhaseEncode, nil, cols, "columns"))
	}

	n := len(vv) * cols
	arr, err := c.alloc.Array(n)
	if err != nil {
		return variant.Value{}, errors.Op(op, allocErr("array", n, err))
	}
	out := variant.Value{
		Type:  variant.TypeMulti | variant.BitDLLFree,
		Rows:  uint16(len(vv)),
		Cols:  uint16(cols),
		Array: arr,
	}

	for i, row := range vv {
		for j, x := range row {
			e, err := elem(x)
			if err != nil {
				_ = c.Free(&out)
				return variant.Value{}, errors.OpAt(op, err, errors.Cell(i, j))
			}
			arr[i*cols+j] = e
		}
	}
	return out, nil
}
