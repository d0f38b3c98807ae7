package engine

import (
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
)

// Host API namespace. Guests import the surface functions from a
// versioned instance name such as "canvas:host/api@0.1.0". Unversioned
// imports ("canvas:host/api") are accepted without a compatibility check.
const (
	HostNamespaceBase = "canvas:host/api"
	HostAPIVersion    = "0.1.0"
	HostNamespace     = HostNamespaceBase + "@" + HostAPIVersion
)

// Host function names exported to guests.
const (
	HostClear        = "clear"
	HostFillRect     = "fill-rect"
	HostDrawText     = "draw-text"
	HostRequestFrame = "request-frame"
	HostLog          = "log"
)

// Guest entry point names. Every guest must export all of them.
const (
	ExportInit        = "init"
	ExportResize      = "resize"
	ExportPointerDown = "pointer-down"
	ExportPointerUp   = "pointer-up"
	ExportPointerMove = "pointer-move"
	ExportKeyDown     = "key-down"
	ExportKeyUp       = "key-up"
	ExportFrame       = "frame"
)

// Auxiliary guest exports. The memory export is mandatory; for the
// allocator either ExportCabiRealloc or ExportAlloc satisfies the check,
// with cabi_realloc preferred when both are present.
const (
	ExportMemory      = "memory"
	ExportCabiRealloc = "cabi_realloc"
	ExportAlloc       = "alloc"
)

var sizeParams = []wit.Type{wit.F32{}, wit.F32{}, wit.F32{}}

var pointerParams = []wit.Type{
	wit.U8{},  // kind
	wit.F32{}, wit.F32{}, // position
	wit.Bool{}, wit.Bool{}, // buttons: primary, secondary
	wit.Bool{}, wit.Bool{}, wit.Bool{}, wit.Bool{}, // modifiers: shift, ctrl, alt, meta
	wit.U64{}, // pointer id
}

var keyParams = []wit.Type{
	wit.String{}, // key
	wit.String{}, // code
	wit.Bool{}, wit.Bool{}, wit.Bool{}, wit.Bool{}, // modifiers
	wit.Bool{}, // repeat
}

// hostSignatures holds the WIT parameter types of each host function.
// None of them return values.
var hostSignatures = map[string][]wit.Type{
	HostClear:        {wit.F32{}, wit.F32{}, wit.F32{}, wit.F32{}},
	HostFillRect:     {wit.F32{}, wit.F32{}, wit.F32{}, wit.F32{}, wit.F32{}, wit.F32{}, wit.F32{}, wit.F32{}},
	HostDrawText:     {wit.String{}, wit.F32{}, wit.F32{}, wit.F32{}, wit.F32{}, wit.F32{}, wit.F32{}, wit.F32{}},
	HostRequestFrame: {},
	HostLog:          {wit.U8{}, wit.String{}},
}

// guestSignatures holds the WIT parameter types of each guest entry
// point. None of them return values.
var guestSignatures = map[string][]wit.Type{
	ExportInit:        sizeParams,
	ExportResize:      sizeParams,
	ExportPointerDown: pointerParams,
	ExportPointerUp:   pointerParams,
	ExportPointerMove: pointerParams,
	ExportKeyDown:     keyParams,
	ExportKeyUp:       keyParams,
	ExportFrame:       {wit.F32{}},
}

// flattenTypes lowers WIT parameter types onto core wasm value types
// following the canonical ABI: small integers, booleans and chars
// widen to i32, strings become a (ptr, len) pair of i32s.
func flattenTypes(types []wit.Type) []api.ValueType {
	flat := make([]api.ValueType, 0, len(types))
	for _, t := range types {
		switch t.(type) {
		case wit.Bool, wit.U8, wit.U16, wit.U32, wit.S8, wit.S16, wit.S32, wit.Char:
			flat = append(flat, api.ValueTypeI32)
		case wit.U64, wit.S64:
			flat = append(flat, api.ValueTypeI64)
		case wit.F32:
			flat = append(flat, api.ValueTypeF32)
		case wit.F64:
			flat = append(flat, api.ValueTypeF64)
		case wit.String:
			flat = append(flat, api.ValueTypeI32, api.ValueTypeI32)
		default:
			flat = append(flat, api.ValueTypeI32)
		}
	}
	return flat
}
