package dynamic

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/wippyai/xloper/errors"
	"github.com/wippyai/xloper/variant"
)

// FromProto converts a google.protobuf.Value. Lists whose elements are all
// lists become matrices, other lists become vectors; a list whose elements
// share one scalar type gets the typed shape. Null converts to the empty any
// and structs become Unsupported.
func FromProto(pv *structpb.Value) Value {
	if pv == nil {
		return nil
	}
	switch k := pv.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil
	case *structpb.Value_NumberValue:
		return Double(k.NumberValue)
	case *structpb.Value_StringValue:
		return String(k.StringValue)
	case *structpb.Value_BoolValue:
		return Bool(k.BoolValue)
	case *structpb.Value_ListValue:
		return fromProtoList(k.ListValue.GetValues())
	case *structpb.Value_StructValue:
		return Unsupported{Go: k.StructValue.AsMap()}
	default:
		return Unsupported{Go: pv}
	}
}

func fromProtoList(items []*structpb.Value) Value {
	if len(items) > 0 && allLists(items) {
		rows := make([][]*structpb.Value, len(items))
		var cells []*structpb.Value
		for i, it := range items {
			rows[i] = it.GetListValue().GetValues()
			cells = append(cells, rows[i]...)
		}
		switch scalarKind(cells) {
		case KindDouble:
			out := make(DoubleMatrix, len(rows))
			for i, row := range rows {
				out[i] = make([]float64, len(row))
				for j, c := range row {
					out[i][j] = c.GetNumberValue()
				}
			}
			return out
		case KindString:
			out := make(StringMatrix, len(rows))
			for i, row := range rows {
				out[i] = make([]string, len(row))
				for j, c := range row {
					out[i][j] = c.GetStringValue()
				}
			}
			return out
		case KindBool:
			out := make(BoolMatrix, len(rows))
			for i, row := range rows {
				out[i] = make([]bool, len(row))
				for j, c := range row {
					out[i][j] = c.GetBoolValue()
				}
			}
			return out
		}
		out := make(AnyMatrix, len(rows))
		for i, row := range rows {
			out[i] = make([]Value, len(row))
			for j, c := range row {
				out[i][j] = FromProto(c)
			}
		}
		return out
	}

	switch scalarKind(items) {
	case KindDouble:
		out := make(DoubleVector, len(items))
		for i, it := range items {
			out[i] = it.GetNumberValue()
		}
		return out
	case KindString:
		out := make(StringVector, len(items))
		for i, it := range items {
			out[i] = it.GetStringValue()
		}
		return out
	case KindBool:
		out := make(BoolVector, len(items))
		for i, it := range items {
			out[i] = it.GetBoolValue()
		}
		return out
	}
	out := make(AnyVector, len(items))
	for i, it := range items {
		out[i] = FromProto(it)
	}
	return out
}

func allLists(items []*structpb.Value) bool {
	for _, it := range items {
		if _, ok := it.GetKind().(*structpb.Value_ListValue); !ok {
			return false
		}
	}
	return true
}

// scalarKind returns the shared scalar kind of items, or KindUnsupported
// when they are empty or mixed.
func scalarKind(items []*structpb.Value) Kind {
	kind := KindUnsupported
	for _, it := range items {
		var k Kind
		switch it.GetKind().(type) {
		case *structpb.Value_NumberValue:
			k = KindDouble
		case *structpb.Value_StringValue:
			k = KindString
		case *structpb.Value_BoolValue:
			k = KindBool
		default:
			return KindUnsupported
		}
		if kind != KindUnsupported && k != kind {
			return KindUnsupported
		}
		kind = k
	}
	return kind
}

// ToProto converts v to a google.protobuf.Value. Unsupported shapes fail.
func ToProto(v Value) (*structpb.Value, error) {
	switch x := v.(type) {
	case nil:
		return structpb.NewNullValue(), nil
	case Int:
		return structpb.NewNumberValue(float64(x)), nil
	case Long:
		return structpb.NewNumberValue(float64(x)), nil
	case Double:
		return structpb.NewNumberValue(float64(x)), nil
	case Bool:
		return structpb.NewBoolValue(bool(x)), nil
	case String:
		return structpb.NewStringValue(string(x)), nil
	case Opaque:
		if x.V == nil {
			return nil, errors.NilPointer(errors.PhaseEncode, "opaque variant")
		}
		return variantToProto(x.V), nil
	case LongVector:
		return listOf(len(x), func(i int) *structpb.Value { return structpb.NewNumberValue(float64(x[i])) }), nil
	case DoubleVector:
		return listOf(len(x), func(i int) *structpb.Value { return structpb.NewNumberValue(x[i]) }), nil
	case BoolVector:
		return listOf(len(x), func(i int) *structpb.Value { return structpb.NewBoolValue(x[i]) }), nil
	case StringVector:
		return listOf(len(x), func(i int) *structpb.Value { return structpb.NewStringValue(x[i]) }), nil
	case AnyVector:
		return anyList(x)
	case LongMatrix:
		return listOf(len(x), func(i int) *structpb.Value {
			return listOf(len(x[i]), func(j int) *structpb.Value { return structpb.NewNumberValue(float64(x[i][j])) })
		}), nil
	case DoubleMatrix:
		return listOf(len(x), func(i int) *structpb.Value {
			return listOf(len(x[i]), func(j int) *structpb.Value { return structpb.NewNumberValue(x[i][j]) })
		}), nil
	case BoolMatrix:
		return listOf(len(x), func(i int) *structpb.Value {
			return listOf(len(x[i]), func(j int) *structpb.Value { return structpb.NewBoolValue(x[i][j]) })
		}), nil
	case StringMatrix:
		return listOf(len(x), func(i int) *structpb.Value {
			return listOf(len(x[i]), func(j int) *structpb.Value { return structpb.NewStringValue(x[i][j]) })
		}), nil
	case AnyMatrix:
		rows := make([]*structpb.Value, len(x))
		for i, row := range x {
			r, err := anyList(row)
			if err != nil {
				return nil, err
			}
			rows[i] = r
		}
		return structpb.NewListValue(&structpb.ListValue{Values: rows}), nil
	case Unsupported:
		return nil, errors.Unsupported(errors.PhaseEncode, fmt.Sprintf("no protobuf form for %T", x.Go))
	default:
		return nil, errors.Unsupported(errors.PhaseEncode, fmt.Sprintf("unknown shape %T", v))
	}
}

func listOf(n int, at func(i int) *structpb.Value) *structpb.Value {
	vals := make([]*structpb.Value, n)
	for i := range vals {
		vals[i] = at(i)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: vals})
}

func anyList(items []Value) (*structpb.Value, error) {
	vals := make([]*structpb.Value, len(items))
	for i, it := range items {
		pv, err := ToProto(it)
		if err != nil {
			return nil, err
		}
		vals[i] = pv
	}
	return structpb.NewListValue(&structpb.ListValue{Values: vals}), nil
}

// variantToProto maps errors to their display text and arrays to nested lists.
func variantToProto(v *variant.Value) *structpb.Value {
	switch v.Type.Base() {
	case variant.TypeNum:
		return structpb.NewNumberValue(v.Num)
	case variant.TypeInt:
		return structpb.NewNumberValue(float64(v.Int))
	case variant.TypeBool:
		return structpb.NewBoolValue(v.Bool)
	case variant.TypeStr:
		return structpb.NewStringValue(v.Text())
	case variant.TypeErr:
		return structpb.NewStringValue(v.Err.String())
	case variant.TypeMulti:
		if len(v.Array) < v.Len() {
			return structpb.NewNullValue()
		}
		return listOf(int(v.Rows), func(r int) *structpb.Value {
			return listOf(int(v.Cols), func(c int) *structpb.Value { return variantToProto(v.At(r, c)) })
		})
	default:
		return structpb.NewNullValue()
	}
}
