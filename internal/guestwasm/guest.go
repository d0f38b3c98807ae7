// Package guestwasm assembles small core wasm canvas guests in memory.
// Tests and the demo mode build guests with it instead of shipping
// prebuilt binaries: a Builder fills entry point bodies with host API
// calls and Build returns the encoded module.
package guestwasm

import (
	"fmt"

	"github.com/frontierhq/canvas-host/canvas"
)

// DefaultNamespace is the versioned host API namespace guests import
// from unless overridden.
const DefaultNamespace = "canvas:host/api@0.1.0"

// dataBase is where interned strings start in guest memory. The zero
// address stays unused so (0, 0) keeps meaning "no string".
const dataBase = 16

type importSpec struct {
	name   string
	params []byte
}

// hostImports lists the host API in the index order guest code sees:
// clear=0, fill-rect=1, draw-text=2, request-frame=3, log=4.
var hostImports = []importSpec{
	{"clear", []byte{valF32, valF32, valF32, valF32}},
	{"fill-rect", []byte{valF32, valF32, valF32, valF32, valF32, valF32, valF32, valF32}},
	{"draw-text", []byte{valI32, valI32, valF32, valF32, valF32, valF32, valF32, valF32, valF32}},
	{"request-frame", nil},
	{"log", []byte{valI32, valI32, valI32}},
}

// EntryPoints lists the guest exports in definition order.
var EntryPoints = []string{
	"init",
	"resize",
	"pointer-down",
	"pointer-up",
	"pointer-move",
	"key-down",
	"key-up",
	"frame",
}

var (
	sigSize    = []byte{valF32, valF32, valF32}
	sigPointer = []byte{valI32, valF32, valF32, valI32, valI32, valI32, valI32, valI32, valI32, valI64}
	sigKey     = []byte{valI32, valI32, valI32, valI32, valI32, valI32, valI32, valI32, valI32}
)

var entrySignatures = map[string][]byte{
	"init":         sigSize,
	"resize":       sigSize,
	"pointer-down": sigPointer,
	"pointer-up":   sigPointer,
	"pointer-move": sigPointer,
	"key-down":     sigKey,
	"key-up":       sigKey,
	"frame":        {valF32},
}

type extraImport struct {
	module string
	name   string
}

// Builder accumulates a guest module. The zero Builder is not usable;
// construct with New or NewWithNamespace.
type Builder struct {
	namespace   string
	extra       []extraImport
	handlers    map[string]*Code
	globals     []int32
	data        []byte
	omitExports map[string]bool
	simpleAlloc bool
	noAlloc     bool
	noMemory    bool
}

// New returns a builder importing the host API from DefaultNamespace.
func New() *Builder {
	return NewWithNamespace(DefaultNamespace)
}

// NewWithNamespace returns a builder importing the host API from the
// given module name.
func NewWithNamespace(namespace string) *Builder {
	return &Builder{
		namespace:   namespace,
		handlers:    make(map[string]*Code),
		omitExports: make(map[string]bool),
	}
}

// Handler returns the body of the named entry point, creating an empty
// one on first use. Entries never touched export an empty body.
func (b *Builder) Handler(name string) *Code {
	if _, ok := entrySignatures[name]; !ok {
		panic(fmt.Sprintf("guestwasm: unknown entry point %q", name))
	}
	c, ok := b.handlers[name]
	if !ok {
		c = &Code{builder: b}
		b.handlers[name] = c
	}
	return c
}

// OmitExport drops the named export from the module, leaving the
// function itself in place.
func (b *Builder) OmitExport(name string) *Builder {
	b.omitExports[name] = true
	return b
}

// OmitMemory drops the memory export. The memory itself stays defined
// so data segments remain valid.
func (b *Builder) OmitMemory() *Builder {
	b.noMemory = true
	return b
}

// UseSimpleAlloc exports the allocator as "alloc" taking only a size,
// instead of the four-argument cabi_realloc.
func (b *Builder) UseSimpleAlloc() *Builder {
	b.simpleAlloc = true
	return b
}

// OmitAllocator drops the allocator export entirely.
func (b *Builder) OmitAllocator() *Builder {
	b.noAlloc = true
	return b
}

// ImportExtra adds an import of a nullary function after the host API
// imports, for exercising unknown-import handling.
func (b *Builder) ImportExtra(module, name string) *Builder {
	b.extra = append(b.extra, extraImport{module: module, name: name})
	return b
}

// AddGlobalI32 defines a mutable i32 global with the given initial
// value and returns its index. Index 0 belongs to the bump pointer.
func (b *Builder) AddGlobalI32(init int32) uint32 {
	b.globals = append(b.globals, init)
	return uint32(len(b.globals))
}

// intern places s in the data segment and returns its location.
func (b *Builder) intern(s string) (ptr, length uint32) {
	ptr = dataBase + uint32(len(b.data))
	b.data = append(b.data, s...)
	return ptr, uint32(len(s))
}

func (b *Builder) hostIndex(name string) uint32 {
	for i, imp := range hostImports {
		if imp.name == name {
			return uint32(i)
		}
	}
	panic(fmt.Sprintf("guestwasm: unknown host function %q", name))
}

// Build encodes the module.
func (b *Builder) Build() []byte {
	out := &buffer{}
	out.writeBytes([]byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}) // magic + version

	numImports := uint32(len(hostImports) + len(b.extra))

	// Type section. One entry per import, per entry point, plus the
	// allocator; type index i describes function index i.
	types := &buffer{}
	types.writeU32(numImports + uint32(len(EntryPoints)) + 1)
	for _, imp := range hostImports {
		writeFuncType(types, imp.params, nil)
	}
	for range b.extra {
		writeFuncType(types, nil, nil)
	}
	for _, name := range EntryPoints {
		writeFuncType(types, entrySignatures[name], nil)
	}
	if b.simpleAlloc {
		writeFuncType(types, []byte{valI32}, []byte{valI32})
	} else {
		writeFuncType(types, []byte{valI32, valI32, valI32, valI32}, []byte{valI32})
	}
	out.writeSection(sectionType, types)

	// Import section.
	imports := &buffer{}
	imports.writeU32(numImports)
	for i, imp := range hostImports {
		imports.writeName(b.namespace)
		imports.writeName(imp.name)
		imports.appendByte(kindFunc)
		imports.writeU32(uint32(i))
	}
	for i, imp := range b.extra {
		imports.writeName(imp.module)
		imports.writeName(imp.name)
		imports.appendByte(kindFunc)
		imports.writeU32(uint32(len(hostImports) + i))
	}
	out.writeSection(sectionImport, imports)

	// Function section: the entry points then the allocator.
	funcs := &buffer{}
	funcs.writeU32(uint32(len(EntryPoints)) + 1)
	for i := range EntryPoints {
		funcs.writeU32(numImports + uint32(i))
	}
	funcs.writeU32(numImports + uint32(len(EntryPoints)))
	out.writeSection(sectionFunc, funcs)

	// Memory section: one page, growable.
	mem := &buffer{}
	mem.writeU32(1)
	mem.appendByte(0x00)
	mem.writeU32(1)
	out.writeSection(sectionMemory, mem)

	// Global section: the bump pointer then user globals. The heap
	// starts past the data segment.
	heapBase := uint32(1024)
	if end := dataBase + uint32(len(b.data)); end > heapBase {
		heapBase = (end + 1023) &^ 1023
	}
	globals := &buffer{}
	globals.writeU32(uint32(len(b.globals)) + 1)
	writeGlobalI32(globals, int32(heapBase))
	for _, init := range b.globals {
		writeGlobalI32(globals, init)
	}
	out.writeSection(sectionGlobal, globals)

	// Export section.
	type export struct {
		name string
		kind byte
		idx  uint32
	}
	var exps []export
	if !b.noMemory {
		exps = append(exps, export{"memory", kindMemory, 0})
	}
	for i, name := range EntryPoints {
		if b.omitExports[name] {
			continue
		}
		exps = append(exps, export{name, kindFunc, numImports + uint32(i)})
	}
	if !b.noAlloc {
		name := "cabi_realloc"
		if b.simpleAlloc {
			name = "alloc"
		}
		exps = append(exps, export{name, kindFunc, numImports + uint32(len(EntryPoints))})
	}
	exports := &buffer{}
	exports.writeU32(uint32(len(exps)))
	for _, e := range exps {
		exports.writeName(e.name)
		exports.appendByte(e.kind)
		exports.writeU32(e.idx)
	}
	out.writeSection(sectionExport, exports)

	// Code section. Entry bodies carry whatever their handlers wrote;
	// the allocator bumps global 0 and returns the old value.
	code := &buffer{}
	code.writeU32(uint32(len(EntryPoints)) + 1)
	for _, name := range EntryPoints {
		body := &buffer{}
		body.writeU32(0)
		if c, ok := b.handlers[name]; ok {
			body.writeBytes(c.buf.bytes)
		}
		body.appendByte(opEnd)
		code.writeU32(uint32(len(body.bytes)))
		code.writeBytes(body.bytes)
	}
	sizeLocal := uint32(3)
	if b.simpleAlloc {
		sizeLocal = 0
	}
	alloc := &buffer{}
	alloc.writeU32(0)
	alloc.appendByte(opGlobalGet)
	alloc.writeU32(0)
	alloc.appendByte(opGlobalGet)
	alloc.writeU32(0)
	alloc.appendByte(opLocalGet)
	alloc.writeU32(sizeLocal)
	alloc.appendByte(opI32Add)
	alloc.appendByte(opGlobalSet)
	alloc.writeU32(0)
	alloc.appendByte(opEnd)
	code.writeU32(uint32(len(alloc.bytes)))
	code.writeBytes(alloc.bytes)
	out.writeSection(sectionCode, code)

	// Data section, only when strings were interned.
	if len(b.data) > 0 {
		data := &buffer{}
		data.writeU32(1)
		data.appendByte(0x00) // active, memory 0
		data.appendByte(opI32Const)
		data.writeI32(dataBase)
		data.appendByte(opEnd)
		data.writeU32(uint32(len(b.data)))
		data.writeBytes(b.data)
		out.writeSection(sectionData, data)
	}

	return out.bytes
}

func writeFuncType(buf *buffer, params, results []byte) {
	buf.appendByte(funcTypeMarker)
	buf.writeU32(uint32(len(params)))
	buf.writeBytes(params)
	buf.writeU32(uint32(len(results)))
	buf.writeBytes(results)
}

func writeGlobalI32(buf *buffer, init int32) {
	buf.appendByte(valI32)
	buf.appendByte(0x01) // mutable
	buf.appendByte(opI32Const)
	buf.writeI32(init)
	buf.appendByte(opEnd)
}

// ComponentHeader returns the preamble of a component-model binary,
// enough to trip the unsupported-binary check.
func ComponentHeader() []byte {
	return []byte{0x00, 0x61, 0x73, 0x6D, 0x0d, 0x00, 0x01, 0x00}
}

// Code accumulates one entry point's instruction stream. Methods
// chain; each appends instructions in order.
type Code struct {
	builder *Builder
	buf     buffer
}

// Unreachable emits a trapping instruction.
func (c *Code) Unreachable() *Code {
	c.buf.appendByte(opUnreachable)
	return c
}

// I32Const pushes a constant i32.
func (c *Code) I32Const(v int32) *Code {
	c.buf.appendByte(opI32Const)
	c.buf.writeI32(v)
	return c
}

// I64Const pushes a constant i64.
func (c *Code) I64Const(v int64) *Code {
	c.buf.appendByte(opI64Const)
	c.buf.writeI64(v)
	return c
}

// F32Const pushes a constant f32.
func (c *Code) F32Const(v float32) *Code {
	c.buf.appendByte(opF32Const)
	c.buf.writeF32(v)
	return c
}

// LocalGet pushes a local.
func (c *Code) LocalGet(i uint32) *Code {
	c.buf.appendByte(opLocalGet)
	c.buf.writeU32(i)
	return c
}

// GlobalGet pushes a global.
func (c *Code) GlobalGet(i uint32) *Code {
	c.buf.appendByte(opGlobalGet)
	c.buf.writeU32(i)
	return c
}

// GlobalSet pops into a global.
func (c *Code) GlobalSet(i uint32) *Code {
	c.buf.appendByte(opGlobalSet)
	c.buf.writeU32(i)
	return c
}

// I32Add pops two i32s and pushes their sum.
func (c *Code) I32Add() *Code {
	c.buf.appendByte(opI32Add)
	return c
}

// F32Mul pops two f32s and pushes their product.
func (c *Code) F32Mul() *Code {
	c.buf.appendByte(opF32Mul)
	return c
}

// F32ConvertI32S converts the top i32 to f32.
func (c *Code) F32ConvertI32S() *Code {
	c.buf.appendByte(opF32ConvertI32S)
	return c
}

// CallHost calls the named host function. Arguments must already be on
// the stack.
func (c *Code) CallHost(name string) *Code {
	c.buf.appendByte(opCall)
	c.buf.writeU32(c.builder.hostIndex(name))
	return c
}

// Clear emits a clear call with a constant color.
func (c *Code) Clear(r, g, bl, a float32) *Code {
	return c.F32Const(r).F32Const(g).F32Const(bl).F32Const(a).CallHost("clear")
}

// FillRect emits a fill-rect call with constant geometry and color.
func (c *Code) FillRect(x, y, w, h, r, g, bl, a float32) *Code {
	return c.F32Const(x).F32Const(y).F32Const(w).F32Const(h).
		F32Const(r).F32Const(g).F32Const(bl).F32Const(a).
		CallHost("fill-rect")
}

// DrawText interns text in the data segment and emits a draw-text call.
func (c *Code) DrawText(text string, x, y, size, r, g, bl, a float32) *Code {
	ptr, length := c.builder.intern(text)
	return c.I32Const(int32(ptr)).I32Const(int32(length)).
		F32Const(x).F32Const(y).F32Const(size).
		F32Const(r).F32Const(g).F32Const(bl).F32Const(a).
		CallHost("draw-text")
}

// DrawTextRaw emits a draw-text call with an arbitrary (ptr, len) pair.
func (c *Code) DrawTextRaw(ptr, length uint32, x, y, size, r, g, bl, a float32) *Code {
	return c.I32Const(int32(ptr)).I32Const(int32(length)).
		F32Const(x).F32Const(y).F32Const(size).
		F32Const(r).F32Const(g).F32Const(bl).F32Const(a).
		CallHost("draw-text")
}

// RequestFrame emits a request-frame call.
func (c *Code) RequestFrame() *Code {
	return c.CallHost("request-frame")
}

// Log interns message and emits a log call at the given level.
func (c *Code) Log(level canvas.LogLevel, message string) *Code {
	ptr, length := c.builder.intern(message)
	return c.I32Const(int32(level)).I32Const(int32(ptr)).I32Const(int32(length)).
		CallHost("log")
}
