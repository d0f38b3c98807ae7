package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
)

// Engine owns a wazero runtime shared by every guest it compiles. Host
// API modules are instantiated into the runtime on demand, one per
// namespace version guests actually request.
type Engine struct {
	runtime    wazero.Runtime
	hostInitMu sync.Mutex
}

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32

	// DisableDebugInfo skips DWARF parsing during compilation. Guest
	// stack traces lose source locations but large binaries compile faster.
	DisableDebugInfo bool

	// CloseOnContextDone interrupts a running guest call when the
	// invocation context is cancelled or times out.
	CloseOnContextDone bool
}

// NewEngine creates a new wazero-based engine
func NewEngine(ctx context.Context) (*Engine, error) {
	return NewEngineWithConfig(ctx, nil)
}

// NewEngineWithConfig creates a new engine with custom configuration
func NewEngineWithConfig(ctx context.Context, cfg *Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()

	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.DisableDebugInfo {
			runtimeCfg = runtimeCfg.WithDebugInfoEnabled(false)
		}
		if cfg.CloseOnContextDone {
			runtimeCfg = runtimeCfg.WithCloseOnContextDone(true)
		}
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	return &Engine{runtime: runtime}, nil
}

// ensureHostModule instantiates the host API module under the given
// name unless the runtime already has one. Guests may request different
// compatible versions of the namespace; each distinct name gets its own
// instance backed by the same handlers.
func (e *Engine) ensureHostModule(ctx context.Context, name string) error {
	e.hostInitMu.Lock()
	defer e.hostInitMu.Unlock()

	if e.runtime.Module(name) != nil {
		return nil
	}

	builder := e.runtime.NewHostModuleBuilder(name)
	for _, fn := range hostFuncs {
		builder = builder.NewFunctionBuilder().
			WithGoModuleFunction(fn.handler, flattenTypes(hostSignatures[fn.name]), nil).
			Export(fn.name)
	}

	if _, err := builder.Instantiate(ctx); err != nil {
		// If another path instantiated the module concurrently in the
		// same runtime, treat it as success.
		if e.runtime.Module(name) == nil {
			return fmt.Errorf("instantiate host module %q: %w", name, err)
		}
	}

	debugf("host module %q ready", name)
	return nil
}

// Close releases the underlying runtime and every module instantiated
// in it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}
