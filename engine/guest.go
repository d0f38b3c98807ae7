package engine

import (
	"context"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/frontierhq/canvas-host/canvas"
	"github.com/frontierhq/canvas-host/errors"
)

// IsComponent reports whether data carries the component-model layer
// marker instead of core wasm's version 1.
func IsComponent(data []byte) bool {
	if len(data) < 8 {
		return false
	}
	if data[0] != 0x00 || data[1] != 0x61 || data[2] != 0x73 || data[3] != 0x6D {
		return false
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	return version > 1
}

// requiredExports lists the guest entry points in validation order.
var requiredExports = []string{
	ExportInit,
	ExportResize,
	ExportPointerDown,
	ExportPointerUp,
	ExportPointerMove,
	ExportKeyDown,
	ExportKeyUp,
	ExportFrame,
}

// CompiledGuest is a compiled guest whose imports and exports have been
// validated against the canvas ABI. It can be instantiated any number
// of times.
type CompiledGuest struct {
	engine     *Engine
	source     string
	compiled   wazero.CompiledModule
	namespaces []string
}

// Compile compiles wasmBytes and validates it against the canvas ABI.
// source names the binary's origin for error reporting.
func (e *Engine) Compile(ctx context.Context, source string, wasmBytes []byte) (*CompiledGuest, error) {
	if IsComponent(wasmBytes) {
		return nil, errors.UnsupportedBinary(source, "component-model binary; guests must target core wasm")
	}

	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.InvalidBinary(source, err)
	}

	g := &CompiledGuest{engine: e, source: source, compiled: compiled}
	if err := g.validateImports(); err != nil {
		_ = compiled.Close(ctx)
		return nil, err
	}
	if err := g.validateExports(); err != nil {
		_ = compiled.Close(ctx)
		return nil, err
	}

	debugf("compiled guest %q, namespaces %v", source, g.namespaces)
	return g, nil
}

// Source returns the name the guest was compiled under.
func (g *CompiledGuest) Source() string { return g.source }

// Close releases the compiled module. Live instances are unaffected.
func (g *CompiledGuest) Close(ctx context.Context) error {
	return g.compiled.Close(ctx)
}

// validateImports checks that every function the guest imports is a
// host API function under a namespace version this host satisfies, and
// records the distinct namespace names so Instantiate can materialize
// them.
func (g *CompiledGuest) validateImports() error {
	hostVersion, _ := ParseVersion(HostAPIVersion)

	var missing []string
	namespaces := make(map[string]bool)

	for _, def := range g.compiled.ImportedFunctions() {
		modName, funcName, _ := def.Import()

		base, requested := splitNamespaceVersion(modName)
		if base != HostNamespaceBase {
			missing = append(missing, modName+"#"+funcName)
			continue
		}
		if requested != nil && !hostVersion.Compatible(*requested) {
			return errors.IncompatibleVersion(g.source, requested.String(), HostAPIVersion)
		}
		if _, ok := hostSignatures[funcName]; !ok {
			missing = append(missing, modName+"#"+funcName)
			continue
		}
		namespaces[modName] = true
	}

	if len(missing) > 0 {
		return errors.New(errors.StageInstantiate, errors.KindMissingImport).
			Source(g.source).
			Cause(errors.NewMissingImportsError(missing)).
			Build()
	}

	g.namespaces = make([]string, 0, len(namespaces))
	for name := range namespaces {
		g.namespaces = append(g.namespaces, name)
	}
	sort.Strings(g.namespaces)
	return nil
}

// validateExports checks for the eight entry points, the memory export
// and an allocator. All entry points are reported together when several
// are absent.
func (g *CompiledGuest) validateExports() error {
	funcs := g.compiled.ExportedFunctions()

	var missing []string
	for _, name := range requiredExports {
		if _, ok := funcs[name]; !ok {
			missing = append(missing, name)
		}
	}
	switch len(missing) {
	case 0:
	case 1:
		return errors.MissingExport(g.source, missing[0])
	default:
		return errors.New(errors.StageInstantiate, errors.KindMissingExport).
			Source(g.source).
			Cause(&errors.MissingExportsError{Exports: missing}).
			Build()
	}

	if _, ok := funcs[ExportCabiRealloc]; !ok {
		if _, ok := funcs[ExportAlloc]; !ok {
			return errors.MissingExport(g.source, ExportCabiRealloc)
		}
	}

	if _, ok := g.compiled.ExportedMemories()[ExportMemory]; !ok {
		return errors.MissingExport(g.source, ExportMemory)
	}
	return nil
}

// Instantiate links the guest against the host API and starts it. Every
// namespace name the guest imports is materialized first; the guest
// module itself is instantiated anonymously so instances never collide
// in the runtime's name registry.
func (g *CompiledGuest) Instantiate(ctx context.Context) (*Instance, error) {
	for _, name := range g.namespaces {
		if err := g.engine.ensureHostModule(ctx, name); err != nil {
			return nil, errors.LinkFailed(g.source, err)
		}
	}

	module, err := g.engine.runtime.InstantiateModule(ctx, g.compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return nil, errors.LinkFailed(g.source, err)
	}

	inst := &Instance{
		guest:    g,
		module:   module,
		entries:  make(map[string]api.Function, len(requiredExports)),
		stackBuf: make([]uint64, 16),
	}
	for _, name := range requiredExports {
		inst.entries[name] = module.ExportedFunction(name)
	}

	// Cache the allocator - standard cabi_realloc first, then the
	// simple fallback. Validation guaranteed one of them exports.
	defs := module.ExportedFunctionDefinitions()
	if def, ok := defs[ExportCabiRealloc]; ok {
		inst.allocFn = module.ExportedFunction(ExportCabiRealloc)
		inst.simpleAlloc = len(def.ParamTypes()) < 4
	} else if def, ok := defs[ExportAlloc]; ok {
		inst.allocFn = module.ExportedFunction(ExportAlloc)
		inst.simpleAlloc = len(def.ParamTypes()) < 4
	}

	return inst, nil
}

// Instance is a live guest. The typed entry point wrappers lower host
// values onto the core ABI stack. An Instance is not safe for
// concurrent calls.
type Instance struct {
	guest       *CompiledGuest
	module      api.Module
	entries     map[string]api.Function
	allocFn     api.Function
	simpleAlloc bool
	stackBuf    []uint64
}

// Init calls the guest's init entry point.
func (inst *Instance) Init(ctx context.Context, size canvas.LogicalSize) error {
	return inst.callSize(ctx, ExportInit, size)
}

// Resize calls the guest's resize entry point.
func (inst *Instance) Resize(ctx context.Context, size canvas.LogicalSize) error {
	return inst.callSize(ctx, ExportResize, size)
}

// PointerDown calls the guest's pointer-down entry point.
func (inst *Instance) PointerDown(ctx context.Context, ev canvas.PointerEvent) error {
	return inst.callPointer(ctx, ExportPointerDown, ev)
}

// PointerUp calls the guest's pointer-up entry point.
func (inst *Instance) PointerUp(ctx context.Context, ev canvas.PointerEvent) error {
	return inst.callPointer(ctx, ExportPointerUp, ev)
}

// PointerMove calls the guest's pointer-move entry point.
func (inst *Instance) PointerMove(ctx context.Context, ev canvas.PointerEvent) error {
	return inst.callPointer(ctx, ExportPointerMove, ev)
}

// KeyDown calls the guest's key-down entry point.
func (inst *Instance) KeyDown(ctx context.Context, ev canvas.KeyEvent) error {
	return inst.callKey(ctx, ExportKeyDown, ev)
}

// KeyUp calls the guest's key-up entry point.
func (inst *Instance) KeyUp(ctx context.Context, ev canvas.KeyEvent) error {
	return inst.callKey(ctx, ExportKeyUp, ev)
}

// Frame calls the guest's frame entry point with the elapsed time in
// milliseconds.
func (inst *Instance) Frame(ctx context.Context, deltaMS float32) error {
	stack := inst.stackBuf[:1]
	stack[0] = api.EncodeF32(deltaMS)
	return inst.entries[ExportFrame].CallWithStack(ctx, stack)
}

// Close tears the instance down. The compiled guest stays valid for
// further instantiations.
func (inst *Instance) Close(ctx context.Context) error {
	return inst.module.Close(ctx)
}

func (inst *Instance) callSize(ctx context.Context, name string, size canvas.LogicalSize) error {
	stack := inst.stackBuf[:3]
	stack[0] = api.EncodeF32(size.Width)
	stack[1] = api.EncodeF32(size.Height)
	stack[2] = api.EncodeF32(size.ScaleFactor)
	return inst.entries[name].CallWithStack(ctx, stack)
}

func (inst *Instance) callPointer(ctx context.Context, name string, ev canvas.PointerEvent) error {
	stack := inst.stackBuf[:10]
	stack[0] = uint64(uint32(ev.Kind))
	stack[1] = api.EncodeF32(ev.Position.X)
	stack[2] = api.EncodeF32(ev.Position.Y)
	stack[3] = encodeBool(ev.Buttons.Primary)
	stack[4] = encodeBool(ev.Buttons.Secondary)
	stack[5] = encodeBool(ev.Modifiers.Shift)
	stack[6] = encodeBool(ev.Modifiers.Ctrl)
	stack[7] = encodeBool(ev.Modifiers.Alt)
	stack[8] = encodeBool(ev.Modifiers.Meta)
	stack[9] = ev.PointerID
	return inst.entries[name].CallWithStack(ctx, stack)
}

func (inst *Instance) callKey(ctx context.Context, name string, ev canvas.KeyEvent) error {
	keyPtr, keyLen, err := inst.lowerString(ctx, ev.Key)
	if err != nil {
		return err
	}
	codePtr, codeLen, err := inst.lowerString(ctx, ev.Code)
	if err != nil {
		return err
	}

	stack := inst.stackBuf[:9]
	stack[0] = uint64(keyPtr)
	stack[1] = uint64(keyLen)
	stack[2] = uint64(codePtr)
	stack[3] = uint64(codeLen)
	stack[4] = encodeBool(ev.Modifiers.Shift)
	stack[5] = encodeBool(ev.Modifiers.Ctrl)
	stack[6] = encodeBool(ev.Modifiers.Alt)
	stack[7] = encodeBool(ev.Modifiers.Meta)
	stack[8] = encodeBool(ev.IsRepeat)
	return inst.entries[name].CallWithStack(ctx, stack)
}

// lowerString copies s into guest memory and returns its (ptr, len).
// Empty strings lower to (0, 0) without touching the allocator.
func (inst *Instance) lowerString(ctx context.Context, s string) (uint32, uint32, error) {
	if len(s) == 0 {
		return 0, 0, nil
	}

	ptr, err := inst.alloc(ctx, uint32(len(s)))
	if err != nil {
		return 0, 0, fmt.Errorf("allocate %d bytes in guest: %w", len(s), err)
	}
	if !inst.module.Memory().Write(ptr, []byte(s)) {
		return 0, 0, fmt.Errorf("write %d bytes at 0x%x: out of range", len(s), ptr)
	}
	return ptr, uint32(len(s)), nil
}

func (inst *Instance) alloc(ctx context.Context, size uint32) (uint32, error) {
	if inst.simpleAlloc {
		stack := inst.stackBuf[:1]
		stack[0] = uint64(size)
		if err := inst.allocFn.CallWithStack(ctx, stack); err != nil {
			return 0, err
		}
		return uint32(stack[0]), nil
	}

	stack := inst.stackBuf[:4]
	stack[0] = 0
	stack[1] = 0
	stack[2] = 1
	stack[3] = uint64(size)
	if err := inst.allocFn.CallWithStack(ctx, stack); err != nil {
		return 0, err
	}
	return uint32(stack[0]), nil
}

func encodeBool(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
