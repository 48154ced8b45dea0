// Package sandbox provides a real WebAssembly linear memory to lay variants
// out in.
//
// A Sandbox instantiates a minimal module in wazero whose only export is its
// memory, and pairs it with a host-side bump allocator. Both implement the
// root package's Memory and Allocator interfaces, so package abi can store
// and load variants exactly where a 32-bit guest would see them:
//
//	sb, err := sandbox.New(ctx, sandbox.WithMemoryLimitPages(16))
//	if err != nil {
//	    return err
//	}
//	defer sb.Close(ctx)
//
//	addr, err := abi.StoreNew(sb.Memory(), sb.Allocator(), &v)
//
// The allocator grows the memory a page at a time up to the configured
// limit and hands out no address below 8, so 0 stays a null pointer.
package sandbox
