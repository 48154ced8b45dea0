// Package xloper converts between Go values and the spreadsheet host's native
// variant (XLOPER).
//
// A spreadsheet add-in receives its arguments as tagged variants and hands
// its results back the same way. This module does the marshaling in both
// directions, for scalars, vectors, matrices and a closed dynamic "any"
// union, and keeps track of who owns every buffer along the way.
//
// # Architecture Overview
//
// The module is organized into several packages with distinct responsibilities:
//
//	xloper/              Root package with Memory and Allocator interfaces
//	├── variant/         Variant tags, error codes, Value and FP
//	├── dynamic/         Closed union of dynamic shapes, protobuf bridge
//	├── codec/           Encoder and decoder between Go values and variants
//	├── errors/          Structured error types for debugging
//	├── resource/        Handle table for host-owned allocations
//	├── simhost/         In-process host with spreadsheet coercion rules
//	├── abi/             Bit-exact 32-bit layout of variants in linear memory
//	├── sandbox/         wazero-backed linear memory and allocator
//	└── cmd/xlvariant/   Inspect how a JSON value encodes
//
// # Quick Start
//
// Decode arguments and encode a result:
//
//	host := simhost.New()
//	c := codec.New(host)
//
//	n, err := c.DecodeLong(arg, 10) // 10 if the argument was omitted
//	if err != nil {
//	    return err
//	}
//
//	out, err := c.EncodeVectorDouble(results)
//	if err != nil {
//	    return err
//	}
//	defer c.Free(&out)
//
// # Host Capabilities
//
// The codec does not coerce values itself. It borrows the host's coercion
// and release primitives through codec.Host:
//
//	type Host interface {
//	    Coerce(src *variant.Value, to variant.Type) (variant.Value, error)
//	    Release(v *variant.Value) error
//	}
//
// Every value Coerce returns is released exactly once, on success and on
// every error path.
//
// # Ownership
//
// Encoded text and arrays carry variant.BitDLLFree and go back through
// Codec.Free. Values the host allocated carry variant.BitXLFree and go back
// through the host. Inputs are borrowed and never modified.
//
// # Linear Memory
//
// Package abi lays variants out exactly as a 32-bit host expects them, in
// any memory implementing Memory and Allocator:
//
//	sb, err := sandbox.New(ctx)
//	defer sb.Close(ctx)
//
//	addr, err := abi.StoreNew(sb.Memory(), sb.Allocator(), &out)
//	v, err := abi.Load(sb.Memory(), addr)
//
// # Error Handling
//
// Errors are structured with phase, kind and element path:
//
//	var opErr *errors.OpError
//	if stderrors.As(err, &opErr) {
//	    fmt.Println(opErr.Op)   // e.g. "DecodeMatrixLong"
//	    fmt.Println(opErr.Path) // e.g. [[1][2]]
//	}
package xloper
