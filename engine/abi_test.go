package engine

import (
	"testing"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
)

func TestFlattenTypes(t *testing.T) {
	tests := []struct {
		name  string
		types []wit.Type
		want  []api.ValueType
	}{
		{
			name:  "empty",
			types: nil,
			want:  []api.ValueType{},
		},
		{
			name:  "small integers widen to i32",
			types: []wit.Type{wit.Bool{}, wit.U8{}, wit.U16{}, wit.U32{}, wit.S8{}, wit.S16{}, wit.S32{}, wit.Char{}},
			want: []api.ValueType{
				api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32,
				api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32,
			},
		},
		{
			name:  "wide integers",
			types: []wit.Type{wit.U64{}, wit.S64{}},
			want:  []api.ValueType{api.ValueTypeI64, api.ValueTypeI64},
		},
		{
			name:  "floats",
			types: []wit.Type{wit.F32{}, wit.F64{}},
			want:  []api.ValueType{api.ValueTypeF32, api.ValueTypeF64},
		},
		{
			name:  "string becomes ptr and len",
			types: []wit.Type{wit.String{}},
			want:  []api.ValueType{api.ValueTypeI32, api.ValueTypeI32},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := flattenTypes(tt.types)
			if len(got) != len(tt.want) {
				t.Fatalf("flattenTypes() produced %d types, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("flattenTypes()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestHostSignaturesFlatten(t *testing.T) {
	// Core stack widths of the five host functions.
	wantWidths := map[string]int{
		HostClear:        4,
		HostFillRect:     8,
		HostDrawText:     9, // ptr+len then 7 floats
		HostRequestFrame: 0,
		HostLog:          3, // level then ptr+len
	}

	for name, width := range wantWidths {
		sig, ok := hostSignatures[name]
		if !ok {
			t.Fatalf("hostSignatures missing %q", name)
		}
		if got := len(flattenTypes(sig)); got != width {
			t.Errorf("host %q flattens to %d values, want %d", name, got, width)
		}
	}

	if len(hostSignatures) != len(wantWidths) {
		t.Errorf("hostSignatures has %d entries, want %d", len(hostSignatures), len(wantWidths))
	}
	if len(hostFuncs) != len(wantWidths) {
		t.Errorf("hostFuncs has %d entries, want %d", len(hostFuncs), len(wantWidths))
	}
}

func TestGuestSignaturesFlatten(t *testing.T) {
	wantWidths := map[string]int{
		ExportInit:        3,
		ExportResize:      3,
		ExportPointerDown: 10,
		ExportPointerUp:   10,
		ExportPointerMove: 10,
		ExportKeyDown:     9, // two (ptr, len) pairs then 5 flags
		ExportKeyUp:       9,
		ExportFrame:       1,
	}

	for name, width := range wantWidths {
		sig, ok := guestSignatures[name]
		if !ok {
			t.Fatalf("guestSignatures missing %q", name)
		}
		if got := len(flattenTypes(sig)); got != width {
			t.Errorf("guest %q flattens to %d values, want %d", name, got, width)
		}
	}

	for _, name := range requiredExports {
		if _, ok := guestSignatures[name]; !ok {
			t.Errorf("requiredExports lists %q but guestSignatures has no entry", name)
		}
	}
}
