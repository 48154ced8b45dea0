package codec

import (
	"math"

	"go.uber.org/multierr"

	"github.com/wippyai/xloper/dynamic"
	"github.com/wippyai/xloper/errors"
	"github.com/wippyai/xloper/variant"
)

// DecodeLong reads an integer. Numbers are truncated toward zero; other
// values are coerced by the host and rounded half away from zero, as the
// host's own integer coercion does. Missing input yields def.
func (c *Codec) DecodeLong(v *variant.Value, def int64) (int64, error) {
	x, err := c.decodeLong(v, def)
	return x, errors.Op("DecodeLong", err)
}

func (c *Codec) decodeLong(v *variant.Value, def int64) (x int64, err error) {
	if isMissing(v) {
		return def, nil
	}
	switch v.Type.Base() {
	case variant.TypeNum:
		return numToLong(v.Num)
	case variant.TypeInt:
		return int64(v.Int), nil
	}

	tmp, err := c.coerce(v, variant.TypeNum, "int64")
	if err != nil {
		return 0, err
	}
	defer func() { err = c.releaseTemp(&tmp, err) }()
	return numToLong(math.Round(tmp.Num))
}

// DecodeDouble reads a number. Missing input yields def.
func (c *Codec) DecodeDouble(v *variant.Value, def float64) (float64, error) {
	x, err := c.decodeDouble(v, def)
	return x, errors.Op("DecodeDouble", err)
}

func (c *Codec) decodeDouble(v *variant.Value, def float64) (x float64, err error) {
	if isMissing(v) {
		return def, nil
	}
	switch v.Type.Base() {
	case variant.TypeNum:
		return v.Num, nil
	case variant.TypeInt:
		return float64(v.Int), nil
	}

	tmp, err := c.coerce(v, variant.TypeNum, "float64")
	if err != nil {
		return 0, err
	}
	defer func() { err = c.releaseTemp(&tmp, err) }()
	return tmp.Num, nil
}

// DecodeBool reads a boolean. Missing input yields def.
func (c *Codec) DecodeBool(v *variant.Value, def bool) (bool, error) {
	x, err := c.decodeBool(v, def)
	return x, errors.Op("DecodeBool", err)
}

func (c *Codec) decodeBool(v *variant.Value, def bool) (x bool, err error) {
	if isMissing(v) {
		return def, nil
	}
	if v.Type.Is(variant.TypeBool) {
		return v.Bool, nil
	}

	tmp, err := c.coerce(v, variant.TypeBool, "bool")
	if err != nil {
		return false, err
	}
	defer func() { err = c.releaseTemp(&tmp, err) }()
	return tmp.Bool, nil
}

// DecodeString reads text. Missing input yields def.
func (c *Codec) DecodeString(v *variant.Value, def string) (string, error) {
	x, err := c.decodeString(v, def)
	return x, errors.Op("DecodeString", err)
}

func (c *Codec) decodeString(v *variant.Value, def string) (x string, err error) {
	if isMissing(v) {
		return def, nil
	}
	if v.Type.Is(variant.TypeStr) {
		return v.Text(), nil
	}

	tmp, err := c.coerce(v, variant.TypeStr, "string")
	if err != nil {
		return "", err
	}
	defer func() { err = c.releaseTemp(&tmp, err) }()
	return tmp.Text(), nil
}

// DecodeAny reads a scalar without coercion: numbers become dynamic.Double,
// ints dynamic.Long, booleans dynamic.Bool and text dynamic.String. Missing
// input yields the empty any (nil). Any other tag is an error.
func (c *Codec) DecodeAny(v *variant.Value) (dynamic.Value, error) {
	if isMissing(v) {
		return nil, nil
	}
	switch v.Type.Base() {
	case variant.TypeNum:
		return dynamic.Double(v.Num), nil
	case variant.TypeInt:
		return dynamic.Long(v.Int), nil
	case variant.TypeBool:
		return dynamic.Bool(v.Bool), nil
	case variant.TypeStr:
		return dynamic.String(v.Text()), nil
	default:
		return nil, errors.Op("DecodeAny", errors.UnexpectedType(errors.PhaseDecode, v.Type.Base().String()))
	}
}

// DecodeVectorLong reads a vector of integers with the DecodeLong rules.
func (c *Codec) DecodeVectorLong(v *variant.Value) ([]int64, error) {
	return decodeVector(c, "DecodeVectorLong", v, func(e *variant.Value) (int64, error) {
		return c.DecodeLong(e, 0)
	})
}

// DecodeVectorDouble reads a vector of numbers.
func (c *Codec) DecodeVectorDouble(v *variant.Value) ([]float64, error) {
	return decodeVector(c, "DecodeVectorDouble", v, func(e *variant.Value) (float64, error) {
		return c.DecodeDouble(e, 0)
	})
}

// DecodeVectorBool reads a vector of booleans.
func (c *Codec) DecodeVectorBool(v *variant.Value) ([]bool, error) {
	return decodeVector(c, "DecodeVectorBool", v, func(e *variant.Value) (bool, error) {
		return c.DecodeBool(e, false)
	})
}

// DecodeVectorString reads a vector of text values.
func (c *Codec) DecodeVectorString(v *variant.Value) ([]string, error) {
	return decodeVector(c, "DecodeVectorString", v, func(e *variant.Value) (string, error) {
		return c.DecodeString(e, "")
	})
}

// DecodeVectorAny reads a vector of scalars without coercing the elements.
func (c *Codec) DecodeVectorAny(v *variant.Value) ([]dynamic.Value, error) {
	return decodeVector(c, "DecodeVectorAny", v, c.DecodeAny)
}

// DecodeMatrixLong reads a row-major matrix of integers.
func (c *Codec) DecodeMatrixLong(v *variant.Value) ([][]int64, error) {
	return decodeMatrix(c, "DecodeMatrixLong", v, func(e *variant.Value) (int64, error) {
		return c.DecodeLong(e, 0)
	})
}

// DecodeMatrixDouble reads a row-major matrix of numbers.
func (c *Codec) DecodeMatrixDouble(v *variant.Value) ([][]float64, error) {
	return decodeMatrix(c, "DecodeMatrixDouble", v, func(e *variant.Value) (float64, error) {
		return c.DecodeDouble(e, 0)
	})
}

// DecodeMatrixBool reads a row-major matrix of booleans.
func (c *Codec) DecodeMatrixBool(v *variant.Value) ([][]bool, error) {
	return decodeMatrix(c, "DecodeMatrixBool", v, func(e *variant.Value) (bool, error) {
		return c.DecodeBool(e, false)
	})
}

// DecodeMatrixString reads a row-major matrix of text values.
func (c *Codec) DecodeMatrixString(v *variant.Value) ([][]string, error) {
	return decodeMatrix(c, "DecodeMatrixString", v, func(e *variant.Value) (string, error) {
		return c.DecodeString(e, "")
	})
}

// DecodeMatrixAny reads a row-major matrix of scalars without coercing the elements.
func (c *Codec) DecodeMatrixAny(v *variant.Value) ([][]dynamic.Value, error) {
	return decodeMatrix(c, "DecodeMatrixAny", v, c.DecodeAny)
}

// acquireMulti returns v when it already is a multi value, otherwise one
// host-coerced temporary covering the whole input. The returned release
// func must run exactly once.
func (c *Codec) acquireMulti(v *variant.Value) (*variant.Value, func(error) error, error) {
	if v.Type.Is(variant.TypeMulti) {
		return v, func(err error) error { return err }, nil
	}
	tmp, err := c.coerce(v, variant.TypeMulti, "collection")
	if err != nil {
		return nil, nil, err
	}
	return &tmp, func(err error) error { return c.releaseTemp(&tmp, err) }, nil
}

func checkMulti(m *variant.Value) error {
	if len(m.Array) < m.Len() {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Path(errors.Index(len(m.Array))).
			VarType(m.Type.String()).
			Detail("%dx%d array holds %d elements", m.Rows, m.Cols, len(m.Array)).
			Build()
	}
	return nil
}

func decodeVector[T any](c *Codec, op string, v *variant.Value, elem func(*variant.Value) (T, error)) (out []T, err error) {
	if isMissing(v) {
		return []T{}, nil
	}

	m, release, err := c.acquireMulti(v)
	if err != nil {
		return nil, errors.Op(op, err)
	}
	defer func() {
		if rerr := release(nil); rerr != nil {
			err = multierr.Append(err, errors.Op(op, rerr))
			out = nil
		}
	}()

	if err := checkMulti(m); err != nil {
		return nil, errors.Op(op, err)
	}

	out = make([]T, m.Len())
	for i := range out {
		x, err := elem(&m.Array[i])
		if err != nil {
			return nil, errors.OpAt(op, err, errors.Index(i))
		}
		out[i] = x
	}
	return out, nil
}

func decodeMatrix[T any](c *Codec, op string, v *variant.Value, elem func(*variant.Value) (T, error)) (out [][]T, err error) {
	if isMissing(v) {
		return [][]T{}, nil
	}

	m, release, err := c.acquireMulti(v)
	if err != nil {
		return nil, errors.Op(op, err)
	}
	defer func() {
		if rerr := release(nil); rerr != nil {
			err = multierr.Append(err, errors.Op(op, rerr))
			out = nil
		}
	}()

	if err := checkMulti(m); err != nil {
		return nil, errors.Op(op, err)
	}

	rows, cols := int(m.Rows), int(m.Cols)
	out = make([][]T, rows)
	for r := 0; r < rows; r++ {
		row := make([]T, cols)
		for col := 0; col < cols; col++ {
			x, err := elem(m.At(r, col))
			if err != nil {
				return nil, errors.OpAt(op, err, errors.Cell(r, col))
			}
			row[col] = x
		}
		out[r] = row
	}
	return out, nil
}

// numToLong truncates toward zero and rejects values outside int64.
func numToLong(x float64) (int64, error) {
	if math.IsNaN(x) || x < -(1<<63) || x >= 1<<63 {
		return 0, errors.Overflow(errors.PhaseDecode, nil, x, "int64")
	}
	return int64(x), nil
}
