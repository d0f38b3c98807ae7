// Package canvashost runs untrusted WebAssembly canvas guests behind a
// narrow, phase-gated host API.
//
// A guest is a core wasm module exporting eight lifecycle entry points
// and importing five drawing and logging functions from the host. The
// host drives the guest one call at a time, collects the draw commands
// it emits during frame calls, and renders them however it likes; the
// bundled canvas-host command renders to a terminal cell grid.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	canvashost/          Root package with convenience constructors
//	├── runtime/         Guest lifecycle: construct, drive calls, hot reload
//	├── engine/          Low-level wazero integration and the host ABI
//	├── canvas/          Value types shared across the host boundary
//	├── surface/         Phase tracking and the per-call capability surface
//	├── render/          Terminal cell-grid rasterizer for frame output
//	├── watch/           File change notification for hot reload
//	├── errors/          Structured errors for load, instantiate, and call
//	└── cmd/canvas-host/ Terminal host application
//
// # Quick Start
//
// Load a guest and drive one frame:
//
//	rt, err := canvashost.NewFromPath(ctx, "guest.wasm", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	size := canvashost.LogicalSize{Width: 80, Height: 24, ScaleFactor: 1}
//	if _, err := rt.CallInit(ctx, size); err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := rt.CallFrame(ctx, 16.7)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, cmd := range res.Frame.Commands {
//	    fmt.Println(cmd)
//	}
//
// # Guest ABI
//
// Guests export init, resize, pointer-down, pointer-up, pointer-move,
// key-down, key-up, and frame, plus a linear memory and an allocator
// (cabi_realloc or alloc). They import clear, fill-rect, draw-text,
// request-frame, and log from the canvas:host/api namespace, optionally
// versioned as canvas:host/api@0.1.0.
//
// Drawing is only honored during frame calls; requesting a frame works
// from any entry point. Out-of-phase calls are dropped with a host-side
// diagnostic and never fail the guest.
//
// # Thread Safety
//
// Runtime is NOT thread-safe and should be driven by a single
// goroutine. Engine may be shared across runtimes; each runtime still
// needs its own goroutine.
package canvashost
