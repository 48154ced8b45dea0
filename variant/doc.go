// Package variant models the spreadsheet host's native variant (XLOPER).
//
// A Value is a tagged union. The tag values and ownership bits match the
// host ABI exactly so that values can be laid out bit-for-bit in host memory
// (see package abi):
//
//	Tag         Value    Payload
//	────────────────────────────────────────────
//	num         0x0001   Num (float64)
//	str         0x0002   Str (counted bytes)
//	bool        0x0004   Bool
//	ref         0x0008   (not modelled)
//	err         0x0010   Err (ErrCode)
//	flow        0x0020   (not modelled)
//	multi       0x0040   Rows, Cols, Array
//	missing     0x0080   -
//	nil         0x0100   -
//	sref        0x0400   (not modelled)
//	int         0x0800   Int (int16)
//
// # Ownership
//
// Two bits on the tag describe who releases a value's buffers:
//
//	BitXLFree   0x1000   allocated by the host, release through the host
//	BitDLLFree  0x4000   allocated by the codec, the caller frees it
//
// Values passed into the codec are borrowed and never mutated.
//
// # Text
//
// Text payloads are counted buffers: Str[0] holds the length and the
// characters follow. The length never exceeds MaxStrLen.
//
// # Arrays
//
// Multi values store Rows*Cols elements in row-major order. Elements are
// scalars; arrays do not nest.
package variant
