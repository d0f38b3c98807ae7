package engine

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/frontierhq/canvas-host/canvas"
	"github.com/frontierhq/canvas-host/surface"
)

type hostFunc struct {
	name    string
	handler api.GoModuleFunc
}

// hostFuncs lists the host API handlers in export order.
var hostFuncs = []hostFunc{
	{HostClear, hostClear},
	{HostFillRect, hostFillRect},
	{HostDrawText, hostDrawText},
	{HostRequestFrame, hostRequestFrame},
	{HostLog, hostLog},
}

// stateFrom resolves the surface bound to the invocation context. Host
// functions are only callable while the runtime drives a guest entry
// point, so a missing state means a stray call; it is logged and dropped.
func stateFrom(ctx context.Context, fname string) (*surface.State, bool) {
	st, ok := surface.StateFromContext(ctx)
	if !ok {
		Logger().Warn("host function called without an active surface",
			zap.String("func", fname),
		)
	}
	return st, ok
}

// readGuestString reads a (ptr, len) pair out of guest memory. Reads
// that fall outside the guest's memory drop the whole host call rather
// than truncating.
func readGuestString(m api.Module, fname string, ptr, length uint32) (string, bool) {
	if length == 0 {
		return "", true
	}
	buf, ok := m.Memory().Read(ptr, length)
	if !ok {
		Logger().Warn("guest passed an out-of-range string; dropping call",
			zap.String("func", fname),
			zap.Uint32("ptr", ptr),
			zap.Uint32("len", length),
		)
		return "", false
	}
	return string(buf), true
}

func hostClear(ctx context.Context, _ api.Module, stack []uint64) {
	st, ok := stateFrom(ctx, HostClear)
	if !ok {
		return
	}
	st.Clear(canvas.Color{
		R: api.DecodeF32(stack[0]),
		G: api.DecodeF32(stack[1]),
		B: api.DecodeF32(stack[2]),
		A: api.DecodeF32(stack[3]),
	})
}

func hostFillRect(ctx context.Context, _ api.Module, stack []uint64) {
	st, ok := stateFrom(ctx, HostFillRect)
	if !ok {
		return
	}
	origin := canvas.Vec2{X: api.DecodeF32(stack[0]), Y: api.DecodeF32(stack[1])}
	size := canvas.Vec2{X: api.DecodeF32(stack[2]), Y: api.DecodeF32(stack[3])}
	st.FillRect(origin, size, canvas.Color{
		R: api.DecodeF32(stack[4]),
		G: api.DecodeF32(stack[5]),
		B: api.DecodeF32(stack[6]),
		A: api.DecodeF32(stack[7]),
	})
}

func hostDrawText(ctx context.Context, m api.Module, stack []uint64) {
	st, ok := stateFrom(ctx, HostDrawText)
	if !ok {
		return
	}
	text, ok := readGuestString(m, HostDrawText, api.DecodeU32(stack[0]), api.DecodeU32(stack[1]))
	if !ok {
		return
	}
	origin := canvas.Vec2{X: api.DecodeF32(stack[2]), Y: api.DecodeF32(stack[3])}
	size := api.DecodeF32(stack[4])
	st.DrawText(text, origin, size, canvas.Color{
		R: api.DecodeF32(stack[5]),
		G: api.DecodeF32(stack[6]),
		B: api.DecodeF32(stack[7]),
		A: api.DecodeF32(stack[8]),
	})
}

func hostRequestFrame(ctx context.Context, _ api.Module, _ []uint64) {
	st, ok := stateFrom(ctx, HostRequestFrame)
	if !ok {
		return
	}
	st.RequestFrame()
}

func hostLog(ctx context.Context, m api.Module, stack []uint64) {
	st, ok := stateFrom(ctx, HostLog)
	if !ok {
		return
	}
	message, ok := readGuestString(m, HostLog, api.DecodeU32(stack[1]), api.DecodeU32(stack[2]))
	if !ok {
		return
	}
	st.Log(canvas.LogLevelFromInt(api.DecodeI32(stack[0])), message)
}
