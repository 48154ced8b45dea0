// Package abi lays variants out in a linear memory exactly as a 32-bit
// spreadsheet host reads them.
//
// # XLOPER
//
// A variant occupies 16 bytes, aligned to 8:
//
//	Offset  Size  Field
//	──────────────────────────────────────────────
//	0       8     payload (see below)
//	8       2     xltype, including ownership bits
//	10      6     padding
//
// The payload depends on the tag:
//
//	num     f64 at 0
//	bool    u16 at 0 (0 or 1)
//	err     u16 at 0
//	int     i16 at 0
//	str     u32 pointer at 0 to a counted buffer (length byte, then text)
//	multi   u32 pointer at 0 to rows*columns XLOPERs, u16 rows at 4,
//	        u16 columns at 6
//
// # FP
//
// The fixed-size numeric array is untagged:
//
//	0   u16 rows
//	2   u16 columns
//	8   f64 array, rows*columns elements, row-major
//
// Store and StoreFP allocate every buffer they need through the Allocator
// and record it in an AllocationList, so a failed store can be rolled back.
// FreeAt and FreeFP release what a successful store allocated.
package abi
