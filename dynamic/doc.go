// Package dynamic defines the closed set of Go shapes that can travel through
// a single "any" conversion.
//
//	Shape          Go type
//	──────────────────────────────
//	Int            int32
//	Long           int64
//	Double         float64
//	Bool           bool
//	String         string
//	Opaque         *variant.Value (borrowed)
//	LongVector     []int64        LongMatrix     [][]int64
//	DoubleVector   []float64      DoubleMatrix   [][]float64
//	BoolVector     []bool         BoolMatrix     [][]bool
//	StringVector   []string       StringMatrix   [][]string
//	AnyVector      []Value        AnyMatrix      [][]Value
//	Unsupported    any value no other shape covers
//
// Value is sealed: only this package defines shapes, so a type switch over
// them is exhaustive. A nil Value is the empty any, which is what decoding an
// omitted argument yields.
//
// Of adapts ordinary Go values, and FromProto/ToProto bridge to
// google.protobuf.Value for JSON and RPC transports.
package dynamic
