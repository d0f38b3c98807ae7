package guestwasm

import "github.com/frontierhq/canvas-host/canvas"

// DemoGuest builds the interactive guest the CLI runs when no wasm
// path is given. It renders a title over a dark background and a bar
// that grows with every click or key press. Key presses also echo the
// key name back through the guest log.
func DemoGuest() []byte {
	b := New()
	counter := b.AddGlobalI32(0)

	b.Handler("init").
		Log(canvas.LevelInfo, "demo guest ready").
		RequestFrame()

	b.Handler("resize").RequestFrame()

	b.Handler("pointer-down").
		Log(canvas.LevelDebug, "pointer down").
		GlobalGet(counter).I32Const(1).I32Add().GlobalSet(counter).
		RequestFrame()

	// key-down receives the key string at (local 0, local 1); echo it
	// through the log before bumping the counter.
	b.Handler("key-down").
		I32Const(int32(canvas.LevelDebug)).LocalGet(0).LocalGet(1).CallHost("log").
		GlobalGet(counter).I32Const(1).I32Add().GlobalSet(counter).
		RequestFrame()

	frame := b.Handler("frame")
	frame.Clear(0.07, 0.07, 0.12, 1)
	frame.DrawText("canvas demo", 2, 1, 12, 0.92, 0.92, 0.96, 1)
	frame.DrawText("click or press any key to grow the bar", 2, 3, 8, 0.55, 0.55, 0.68, 1)
	frame.F32Const(2).F32Const(5)
	frame.GlobalGet(counter).F32ConvertI32S().F32Const(2).F32Mul()
	frame.F32Const(1)
	frame.F32Const(0.31).F32Const(0.76).F32Const(0.97).F32Const(1)
	frame.CallHost("fill-rect")

	return b.Build()
}
