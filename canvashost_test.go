package canvashost

import (
	"context"
	"testing"

	"github.com/frontierhq/canvas-host/internal/guestwasm"
)

func TestNewFromBytes(t *testing.T) {
	ctx := context.Background()

	rt, err := NewFromBytes(ctx, "demo.wasm", guestwasm.DemoGuest(), nil)
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	t.Cleanup(func() { rt.Close(ctx) })

	res, err := rt.CallInit(ctx, LogicalSize{Width: 80, Height: 24, ScaleFactor: 1})
	if err != nil {
		t.Fatalf("CallInit: %v", err)
	}
	if !res.RequestedRedraw {
		t.Error("demo guest did not request its first frame")
	}

	fres, err := rt.CallFrame(ctx, 16.7)
	if err != nil {
		t.Fatalf("CallFrame: %v", err)
	}
	if len(fres.Frame.Commands) == 0 {
		t.Error("demo guest painted nothing")
	}
}

func TestNewFromPathMissing(t *testing.T) {
	if _, err := NewFromPath(context.Background(), "/does/not/exist.wasm", nil); err == nil {
		t.Error("missing path accepted")
	}
}
