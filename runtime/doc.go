// Package runtime drives the lifecycle of a single canvas guest.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx, runtime.PathSource{Path: "guest.wasm"}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	if _, err := rt.CallInit(ctx, canvas.LogicalSize{Width: 80, Height: 24, ScaleFactor: 1}); err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := rt.CallFrame(ctx, 16.6)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, cmd := range res.Frame.Commands {
//	    fmt.Println(cmd)
//	}
//
// # Lifecycle
//
// Every Call* method wraps one guest entry point in a phase window:
// the surface enters the matching phase, the guest runs, pending
// effects (redraw request, frame output) are drained, and the surface
// returns to idle. Draining happens even when the guest traps, so a
// failed call never leaks partial output into the next one.
//
// # Hot Reload
//
// Reload builds a fresh instance from the source and swaps it in only
// when every stage succeeds; on failure the current instance keeps
// running and the error reports which stage refused. A swapped-in
// guest starts from scratch: globals, memory and the recent log ring
// are new.
//
// # Thread Safety
//
// Runtime is NOT safe for concurrent use. Calls, Reload and Close must
// come from one goroutine, matching the single-threaded driver model.
package runtime
