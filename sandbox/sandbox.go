package sandbox

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

const memoryExport = "memory"

// Config holds configuration for sandbox creation
type Config struct {
	// MemoryLimitPages sets the maximum memory in pages (64KB each).
	// 0 means the wazero default (65536 pages = 4GB).
	MemoryLimitPages uint32

	// InitialPages sets the memory size at instantiation. 0 means 1.
	InitialPages uint32
}

// Option configures a Sandbox.
type Option func(*Config)

// WithMemoryLimitPages caps the memory at n pages.
func WithMemoryLimitPages(n uint32) Option {
	return func(c *Config) {
		c.MemoryLimitPages = n
	}
}

// WithInitialPages sets the initial memory size in pages.
func WithInitialPages(n uint32) Option {
	return func(c *Config) {
		c.InitialPages = n
	}
}

// Sandbox owns a wazero runtime with one memory-only module.
type Sandbox struct {
	runtime wazero.Runtime
	module  api.Module
	memory  *Memory
	alloc   *BumpAllocator
}

// New instantiates the memory module.
func New(ctx context.Context, opts ...Option) (*Sandbox, error) {
	cfg := Config{InitialPages: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.InitialPages == 0 {
		cfg.InitialPages = 1
	}
	if cfg.MemoryLimitPages > 0 && cfg.InitialPages > cfg.MemoryLimitPages {
		return nil, fmt.Errorf("initial pages %d exceed limit %d", cfg.InitialPages, cfg.MemoryLimitPages)
	}

	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	mod, err := runtime.InstantiateWithConfig(ctx,
		memoryModule(cfg.InitialPages, cfg.MemoryLimitPages),
		wazero.NewModuleConfig().WithName("xloper"))
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, fmt.Errorf("instantiate memory module: %w", err)
	}

	mem := mod.ExportedMemory(memoryExport)
	if mem == nil {
		_ = runtime.Close(ctx)
		return nil, fmt.Errorf("module does not export %q", memoryExport)
	}

	Logger().Debug("sandbox ready",
		zap.Uint32("pages", mem.Size()/pageSize),
		zap.Uint32("limit_pages", cfg.MemoryLimitPages))

	return &Sandbox{
		runtime: runtime,
		module:  mod,
		memory:  &Memory{mem: mem},
		alloc:   newBumpAllocator(mem),
	}, nil
}

// Memory returns the sandbox's linear memory.
func (s *Sandbox) Memory() *Memory {
	return s.memory
}

// Allocator returns the allocator over the sandbox's memory.
func (s *Sandbox) Allocator() *BumpAllocator {
	return s.alloc
}

// Close releases the module and the runtime.
func (s *Sandbox) Close(ctx context.Context) error {
	if s.alloc != nil {
		if n := s.alloc.Live(); n > 0 {
			Logger().Debug("closing sandbox with live blocks", zap.Int("count", n))
		}
	}
	return s.runtime.Close(ctx)
}

// memoryModule builds a module whose only content is one exported memory.
func memoryModule(initial, limit uint32) []byte {
	limits := []byte{0x00}
	limits = appendULEB(limits, initial)
	if limit > 0 {
		limits[0] = 0x01
		limits = appendULEB(limits, limit)
	}

	bin := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	// memory section: one memory
	memSec := append([]byte{0x01}, limits...)
	bin = append(bin, 0x05)
	bin = appendULEB(bin, uint32(len(memSec)))
	bin = append(bin, memSec...)

	// export section: "memory" -> memory 0
	expSec := []byte{0x01, byte(len(memoryExport))}
	expSec = append(expSec, memoryExport...)
	expSec = append(expSec, 0x02, 0x00)
	bin = append(bin, 0x07)
	bin = appendULEB(bin, uint32(len(expSec)))
	bin = append(bin, expSec...)

	return bin
}

func appendULEB(b []byte, v uint32) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			c |= 0x80
		}
		b = append(b, c)
		if v == 0 {
			return b
		}
	}
}
