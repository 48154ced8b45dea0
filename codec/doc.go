// Package codec converts between Go values and spreadsheet variants.
//
//	┌────────────────────────────────────────────────────────────────┐
//	│ Go scalar / []T / [][]T / dynamic.Value ←→ [Codec] ←→ variant │
//	└────────────────────────────────────────────────────────────────┘
//
// # Encoding
//
// Encode* methods build variants the caller owns. Text and array results carry
// variant.BitDLLFree and must be passed to Codec.Free exactly once. Empty
// vectors, empty matrices and matrices whose first row is empty encode to
// num(0), the host's degenerate form for an empty array. Matrices must be
// rectangular; ragged input is rejected. Text is cut to variant.MaxStrLen bytes.
//
// EncodeAny dispatches over the closed dynamic shapes. Vector and matrix
// shapes are expanded to multi values unless the codec was built with
// WithExpand(false), in which case they become the text "VECTOR" or "MATRIX".
// Elements of vector<any> and matrix<any> are always collapsed that way since
// arrays do not nest. Shapes the host has no form for encode to err(#VALUE!).
//
// # Decoding
//
// Decode* methods borrow their input and never mutate it. A missing or nil
// variant decodes to the caller's default (scalars) or an empty container
// (vectors and matrices). Values of another tag go through the host's
// coercion primitive; every temporary it returns is released before the call
// returns, on success and failure alike. DecodeAny never coerces.
//
// # Capabilities
//
// The codec holds no ambient state. The host's coercion and release
// primitives arrive as a Host, and buffers for encoded results come from an
// Allocator (HeapAllocator by default):
//
//	c := codec.New(host, codec.WithExpand(false))
//	v, err := c.EncodeMatrixDouble(rows)
//	if err != nil {
//	    return err
//	}
//	defer c.Free(&v)
//
// # Errors
//
// Every entry point wraps failures in errors.OpError so the message starts
// with the entry point's name and, for element failures, the position:
//
//	DecodeMatrixLong at [1][0]: DecodeLong: [coerce] coercion: coerce str to num (caused by: ...)
package codec
