package simhost

import (
	"math"
	"strconv"
	"strings"

	"github.com/wippyai/xloper/errors"
	"github.com/wippyai/xloper/variant"
)

func coerce(src *variant.Value, to variant.Type) (variant.Value, error) {
	from := src.Type.Base()

	switch from {
	case variant.TypeRef, variant.TypeSRef, variant.TypeFlow:
		return variant.Value{}, errors.Unsupported(errors.PhaseCoerce, "coercion from "+from.String())
	}

	switch to {
	case variant.TypeValue:
		return clone(src), nil
	case variant.TypeMulti:
		if from == variant.TypeMulti {
			return clone(src), nil
		}
		return variant.Multi(1, 1, clone(src)), nil
	}

	if from == variant.TypeMulti {
		if src.Len() == 0 || len(src.Array) == 0 {
			return variant.Value{}, errors.InvalidData(errors.PhaseCoerce, nil, "empty array")
		}
		return coerce(&src.Array[0], to)
	}
	if from == variant.TypeErr {
		return variant.Value{}, failed(src, to, src.Err.String())
	}

	switch to {
	case variant.TypeNum:
		return toNum(src)
	case variant.TypeInt:
		return toInt(src)
	case variant.TypeBool:
		return toBool(src)
	case variant.TypeStr:
		return toStr(src)
	default:
		return variant.Value{}, errors.Unsupported(errors.PhaseCoerce, "coercion to "+to.String())
	}
}

func toNum(src *variant.Value) (variant.Value, error) {
	switch src.Type.Base() {
	case variant.TypeNum:
		return variant.Num(src.Num), nil
	case variant.TypeInt:
		return variant.Num(float64(src.Int)), nil
	case variant.TypeBool:
		if src.Bool {
			return variant.Num(1), nil
		}
		return variant.Num(0), nil
	case variant.TypeStr:
		x, err := strconv.ParseFloat(strings.TrimSpace(src.Text()), 64)
		if err != nil {
			return variant.Value{}, failed(src, variant.TypeNum, "not a number")
		}
		return variant.Num(x), nil
	case variant.TypeMissing, variant.TypeNil:
		return variant.Num(0), nil
	}
	return variant.Value{}, failed(src, variant.TypeNum, "")
}

func toInt(src *variant.Value) (variant.Value, error) {
	n, err := toNum(src)
	if err != nil {
		return variant.Value{}, err
	}
	x := math.Round(n.Num)
	if math.IsNaN(x) || x < math.MinInt16 || x > math.MaxInt16 {
		return variant.Value{}, errors.Overflow(errors.PhaseCoerce, nil, n.Num, "int16")
	}
	return variant.Int(int16(x)), nil
}

func toBool(src *variant.Value) (variant.Value, error) {
	switch src.Type.Base() {
	case variant.TypeBool:
		return variant.Bool(src.Bool), nil
	case variant.TypeNum:
		return variant.Bool(src.Num != 0), nil
	case variant.TypeInt:
		return variant.Bool(src.Int != 0), nil
	case variant.TypeStr:
		switch strings.ToUpper(strings.TrimSpace(src.Text())) {
		case "TRUE":
			return variant.Bool(true), nil
		case "FALSE":
			return variant.Bool(false), nil
		}
		return variant.Value{}, failed(src, variant.TypeBool, "not a boolean")
	case variant.TypeMissing, variant.TypeNil:
		return variant.Bool(false), nil
	}
	return variant.Value{}, failed(src, variant.TypeBool, "")
}

func toStr(src *variant.Value) (variant.Value, error) {
	switch src.Type.Base() {
	case variant.TypeStr:
		return variant.Str(src.Text()), nil
	case variant.TypeNum:
		return variant.Str(strconv.FormatFloat(src.Num, 'G', 15, 64)), nil
	case variant.TypeInt:
		return variant.Str(strconv.Itoa(int(src.Int))), nil
	case variant.TypeBool:
		if src.Bool {
			return variant.Str("TRUE"), nil
		}
		return variant.Str("FALSE"), nil
	case variant.TypeMissing, variant.TypeNil:
		return variant.Str(""), nil
	}
	return variant.Value{}, failed(src, variant.TypeStr, "")
}

// clone deep-copies v without its ownership bits.
func clone(v *variant.Value) variant.Value {
	out := *v
	out.Type = v.Type.Base()
	out.Handle = 0
	if v.Str != nil {
		out.Str = append([]byte(nil), v.Str...)
	}
	if v.Array != nil {
		out.Array = make([]variant.Value, len(v.Array))
		for i := range v.Array {
			out.Array[i] = clone(&v.Array[i])
		}
	}
	return out
}

func failed(src *variant.Value, to variant.Type, detail string) error {
	b := errors.New(errors.PhaseCoerce, errors.KindCoercion).
		VarType(src.Type.Base().String()).
		Value(src.String())
	if detail != "" {
		b.Detail("cannot convert to %s: %s", to, detail)
	} else {
		b.Detail("cannot convert to %s", to)
	}
	return b.Build()
}
