package dynamic

import (
	"fmt"

	"github.com/wippyai/xloper/variant"
)

// Kind names a shape.
type Kind uint8

const (
	KindUnsupported Kind = iota
	KindInt
	KindLong
	KindDouble
	KindBool
	KindString
	KindOpaque
	KindLongVector
	KindDoubleVector
	KindBoolVector
	KindStringVector
	KindAnyVector
	KindLongMatrix
	KindDoubleMatrix
	KindBoolMatrix
	KindStringMatrix
	KindAnyMatrix
)

var kindNames = [...]string{
	KindUnsupported:  "unsupported",
	KindInt:          "int",
	KindLong:         "long",
	KindDouble:       "double",
	KindBool:         "bool",
	KindString:       "string",
	KindOpaque:       "opaque",
	KindLongVector:   "vector<long>",
	KindDoubleVector: "vector<double>",
	KindBoolVector:   "vector<bool>",
	KindStringVector: "vector<string>",
	KindAnyVector:    "vector<any>",
	KindLongMatrix:   "matrix<long>",
	KindDoubleMatrix: "matrix<double>",
	KindBoolMatrix:   "matrix<bool>",
	KindStringMatrix: "matrix<string>",
	KindAnyMatrix:    "matrix<any>",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsVector reports whether k is one of the vector shapes.
func (k Kind) IsVector() bool {
	return k >= KindLongVector && k <= KindAnyVector
}

// IsMatrix reports whether k is one of the matrix shapes.
func (k Kind) IsMatrix() bool {
	return k >= KindLongMatrix && k <= KindAnyMatrix
}

// Value is one of the shapes defined in this package.
type Value interface {
	Kind() Kind
	sealed()
}

type (
	Int    int32
	Long   int64
	Double float64
	Bool   bool
	String string

	// Opaque forwards a variant the caller already holds. It is borrowed.
	Opaque struct{ V *variant.Value }

	LongVector   []int64
	DoubleVector []float64
	BoolVector   []bool
	StringVector []string
	AnyVector    []Value

	LongMatrix   [][]int64
	DoubleMatrix [][]float64
	BoolMatrix   [][]bool
	StringMatrix [][]string
	AnyMatrix    [][]Value

	// Unsupported carries a Go value that no shape covers.
	Unsupported struct{ Go any }
)

func (Int) Kind() Kind          { return KindInt }
func (Long) Kind() Kind         { return KindLong }
func (Double) Kind() Kind       { return KindDouble }
func (Bool) Kind() Kind         { return KindBool }
func (String) Kind() Kind       { return KindString }
func (Opaque) Kind() Kind       { return KindOpaque }
func (LongVector) Kind() Kind   { return KindLongVector }
func (DoubleVector) Kind() Kind { return KindDoubleVector }
func (BoolVector) Kind() Kind   { return KindBoolVector }
func (StringVector) Kind() Kind { return KindStringVector }
func (AnyVector) Kind() Kind    { return KindAnyVector }
func (LongMatrix) Kind() Kind   { return KindLongMatrix }
func (DoubleMatrix) Kind() Kind { return KindDoubleMatrix }
func (BoolMatrix) Kind() Kind   { return KindBoolMatrix }
func (StringMatrix) Kind() Kind { return KindStringMatrix }
func (AnyMatrix) Kind() Kind    { return KindAnyMatrix }
func (Unsupported) Kind() Kind  { return KindUnsupported }

func (Int) sealed()          {}
func (Long) sealed()         {}
func (Double) sealed()       {}
func (Bool) sealed()         {}
func (String) sealed()       {}
func (Opaque) sealed()       {}
func (LongVector) sealed()   {}
func (DoubleVector) sealed() {}
func (BoolVector) sealed()   {}
func (StringVector) sealed() {}
func (AnyVector) sealed()    {}
func (LongMatrix) sealed()   {}
func (DoubleMatrix) sealed() {}
func (BoolMatrix) sealed()   {}
func (StringMatrix) sealed() {}
func (AnyMatrix) sealed()    {}
func (Unsupported) sealed()  {}

// KindOf returns the kind of v, or KindUnsupported for the empty any.
func KindOf(v Value) Kind {
	if v == nil {
		return KindUnsupported
	}
	return v.Kind()
}

// Of wraps a native Go value in its shape. Values already of a shape are
// returned unchanged, nil stays nil, and anything else becomes Unsupported.
func Of(x any) Value {
	switch v := x.(type) {
	case nil:
		return nil
	case Value:
		return v
	case int:
		return Long(v)
	case int32:
		return Int(v)
	case int64:
		return Long(v)
	case float32:
		return Double(v)
	case float64:
		return Double(v)
	case bool:
		return Bool(v)
	case string:
		return String(v)
	case *variant.Value:
		return Opaque{V: v}
	case []int64:
		return LongVector(v)
	case []float64:
		return DoubleVector(v)
	case []bool:
		return BoolVector(v)
	case []string:
		return StringVector(v)
	case []Value:
		return AnyVector(v)
	case []any:
		out := make(AnyVector, len(v))
		for i, e := range v {
			out[i] = Of(e)
		}
		return out
	case [][]int64:
		return LongMatrix(v)
	case [][]float64:
		return DoubleMatrix(v)
	case [][]bool:
		return BoolMatrix(v)
	case [][]string:
		return StringMatrix(v)
	case [][]Value:
		return AnyMatrix(v)
	case [][]any:
		out := make(AnyMatrix, len(v))
		for i, row := range v {
			out[i] = make([]Value, len(row))
			for j, e := range row {
				out[i][j] = Of(e)
			}
		}
		return out
	default:
		return Unsupported{Go: x}
	}
}
