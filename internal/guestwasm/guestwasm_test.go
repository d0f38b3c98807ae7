package guestwasm

import (
	"context"
	"testing"

	"github.com/tetratelabs/wazero"

	"github.com/frontierhq/canvas-host/canvas"
)

func compile(t *testing.T, bin []byte) wazero.CompiledModule {
	t.Helper()
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	t.Cleanup(func() { r.Close(ctx) })

	cm, err := r.CompileModule(ctx, bin)
	if err != nil {
		t.Fatalf("built module does not compile: %v", err)
	}
	return cm
}

func TestBuildCompiles(t *testing.T) {
	b := New()
	counter := b.AddGlobalI32(0)

	b.Handler("init").
		Log(canvas.LevelInfo, "hello").
		RequestFrame()
	b.Handler("pointer-down").
		GlobalGet(counter).I32Const(1).I32Add().GlobalSet(counter)
	b.Handler("frame").
		Clear(0, 0, 0, 1).
		FillRect(1, 2, 3, 4, 1, 1, 1, 1).
		DrawText("hi", 0, 0, 12, 1, 1, 1, 1)

	cm := compile(t, b.Build())

	funcs := cm.ExportedFunctions()
	for _, name := range EntryPoints {
		if _, ok := funcs[name]; !ok {
			t.Errorf("export %q missing", name)
		}
	}
	if _, ok := funcs["cabi_realloc"]; !ok {
		t.Error("cabi_realloc export missing")
	}
	if _, ok := cm.ExportedMemories()["memory"]; !ok {
		t.Error("memory export missing")
	}
}

func TestDemoGuestCompiles(t *testing.T) {
	compile(t, DemoGuest())
}

func TestBuildOmissions(t *testing.T) {
	t.Run("omit entry", func(t *testing.T) {
		b := New()
		b.OmitExport("frame")
		cm := compile(t, b.Build())
		if _, ok := cm.ExportedFunctions()["frame"]; ok {
			t.Error("frame still exported after OmitExport")
		}
	})

	t.Run("omit memory", func(t *testing.T) {
		b := New()
		b.OmitMemory()
		cm := compile(t, b.Build())
		if len(cm.ExportedMemories()) != 0 {
			t.Error("memory still exported after OmitMemory")
		}
	})

	t.Run("omit allocator", func(t *testing.T) {
		b := New()
		b.OmitAllocator()
		cm := compile(t, b.Build())
		if _, ok := cm.ExportedFunctions()["cabi_realloc"]; ok {
			t.Error("cabi_realloc still exported after OmitAllocator")
		}
	})

	t.Run("simple alloc", func(t *testing.T) {
		b := New()
		b.UseSimpleAlloc()
		cm := compile(t, b.Build())
		funcs := cm.ExportedFunctions()
		if _, ok := funcs["cabi_realloc"]; ok {
			t.Error("cabi_realloc exported alongside simple alloc")
		}
		def, ok := funcs["alloc"]
		if !ok {
			t.Fatal("alloc export missing")
		}
		if got := len(def.ParamTypes()); got != 1 {
			t.Errorf("alloc has %d params, want 1", got)
		}
	})
}

func TestImportNamespaces(t *testing.T) {
	b := NewWithNamespace("test:other/api@9.9.9")
	b.ImportExtra("env", "mystery")
	cm := compile(t, b.Build())

	imports := cm.ImportedFunctions()
	if len(imports) != len(hostImports)+1 {
		t.Fatalf("module has %d imports, want %d", len(imports), len(hostImports)+1)
	}

	sawExtra := false
	for _, def := range imports {
		mod, name, _ := def.Import()
		if mod == "env" && name == "mystery" {
			sawExtra = true
			continue
		}
		if mod != "test:other/api@9.9.9" {
			t.Errorf("import %q under module %q, want custom namespace", name, mod)
		}
	}
	if !sawExtra {
		t.Error("extra import not present")
	}
}

func TestInternPlacement(t *testing.T) {
	b := New()
	ptr1, len1 := b.intern("ab")
	ptr2, len2 := b.intern("cde")

	if ptr1 != dataBase || len1 != 2 {
		t.Errorf("first intern at (%d, %d), want (%d, 2)", ptr1, len1, dataBase)
	}
	if ptr2 != dataBase+2 || len2 != 3 {
		t.Errorf("second intern at (%d, %d), want (%d, 3)", ptr2, len2, dataBase+2)
	}
}

func TestComponentHeader(t *testing.T) {
	h := ComponentHeader()
	if len(h) != 8 {
		t.Fatalf("header is %d bytes, want 8", len(h))
	}
	want := []byte{0x00, 0x61, 0x73, 0x6D}
	for i := range want {
		if h[i] != want[i] {
			t.Fatalf("header magic = % x, want % x", h[:4], want)
		}
	}
	if h[4] <= 1 && h[5] == 0 && h[6] == 0 && h[7] == 0 {
		t.Error("header version does not mark a component layer")
	}
}
