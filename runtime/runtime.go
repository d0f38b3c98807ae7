package runtime

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/frontierhq/canvas-host/canvas"
	"github.com/frontierhq/canvas-host/engine"
	"github.com/frontierhq/canvas-host/errors"
	"github.com/frontierhq/canvas-host/surface"
)

// Options configures a Runtime.
type Options struct {
	// Logger receives host diagnostics and forwarded guest logs.
	// Nil disables logging.
	Logger *zap.Logger

	// Engine shares an existing engine between runtimes. Nil creates a
	// private one, closed together with the Runtime.
	Engine *engine.Engine

	// EngineConfig tunes the private engine. Ignored when Engine is set.
	EngineConfig *engine.Config
}

// Runtime owns one guest: its engine, its surface and the live
// instance. Not safe for concurrent use.
type Runtime struct {
	engine     *engine.Engine
	ownsEngine bool
	source     Source
	logger     *zap.Logger
	state      *surface.State
	compiled   *engine.CompiledGuest
	instance   *engine.Instance
}

// CallResult carries the observable effects of a non-frame entry point.
type CallResult struct {
	// RequestedRedraw reports whether the guest asked for a frame.
	RequestedRedraw bool
}

// FrameResult carries the observable effects of a frame call.
type FrameResult struct {
	// RequestedRedraw reports whether the guest asked for another frame.
	RequestedRedraw bool

	// Frame is the output produced during the call.
	Frame canvas.FrameOutput
}

// New loads, compiles and instantiates the guest from source. The
// returned Runtime is idle; CallInit starts the guest.
func New(ctx context.Context, source Source, opts *Options) (*Runtime, error) {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Runtime{
		engine: opts.Engine,
		source: source,
		logger: logger,
	}
	if r.engine == nil {
		eng, err := engine.NewEngineWithConfig(ctx, opts.EngineConfig)
		if err != nil {
			return nil, fmt.Errorf("create engine: %w", err)
		}
		r.engine = eng
		r.ownsEngine = true
	}

	r.state = surface.NewState(logger)

	compiled, inst, err := r.build(ctx)
	if err != nil {
		if r.ownsEngine {
			_ = r.engine.Close(ctx)
		}
		return nil, err
	}
	r.compiled, r.instance = compiled, inst

	logger.Info("guest ready", zap.String("source", source.Name()))
	return r, nil
}

// build runs the load, compile and instantiate stages without touching
// the current instance.
func (r *Runtime) build(ctx context.Context) (*engine.CompiledGuest, *engine.Instance, error) {
	data, err := r.source.Load()
	if err != nil {
		return nil, nil, errors.SourceUnavailable(r.source.Name(), err)
	}

	compiled, err := r.engine.Compile(ctx, r.source.Name(), data)
	if err != nil {
		return nil, nil, err
	}

	inst, err := compiled.Instantiate(ctx)
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, nil, err
	}
	return compiled, inst, nil
}

// Reload rebuilds the guest from its source and swaps it in. On error
// the running instance stays untouched and keeps serving calls. The
// swapped-in guest starts from scratch, including an empty log ring;
// the caller drives init and resize again.
func (r *Runtime) Reload(ctx context.Context) error {
	compiled, inst, err := r.build(ctx)
	if err != nil {
		r.logger.Warn("reload failed; keeping current instance",
			zap.String("source", r.source.Name()),
			zap.Error(err),
		)
		return err
	}

	if r.instance != nil {
		_ = r.instance.Close(ctx)
	}
	if r.compiled != nil {
		_ = r.compiled.Close(ctx)
	}
	r.compiled, r.instance = compiled, inst
	r.state = surface.NewState(r.logger)

	r.logger.Info("guest reloaded", zap.String("source", r.source.Name()))
	return nil
}

// CallInit runs the guest's init entry point.
func (r *Runtime) CallInit(ctx context.Context, size canvas.LogicalSize) (CallResult, error) {
	return r.invoke(ctx, surface.PhaseInit, func(ctx context.Context) error {
		return r.instance.Init(ctx, size)
	})
}

// CallResize runs the guest's resize entry point.
func (r *Runtime) CallResize(ctx context.Context, size canvas.LogicalSize) (CallResult, error) {
	return r.invoke(ctx, surface.PhaseResize, func(ctx context.Context) error {
		return r.instance.Resize(ctx, size)
	})
}

// CallPointerDown runs the guest's pointer-down entry point.
func (r *Runtime) CallPointerDown(ctx context.Context, ev canvas.PointerEvent) (CallResult, error) {
	return r.invoke(ctx, surface.PhaseEvent, func(ctx context.Context) error {
		return r.instance.PointerDown(ctx, ev)
	})
}

// CallPointerUp runs the guest's pointer-up entry point.
func (r *Runtime) CallPointerUp(ctx context.Context, ev canvas.PointerEvent) (CallResult, error) {
	return r.invoke(ctx, surface.PhaseEvent, func(ctx context.Context) error {
		return r.instance.PointerUp(ctx, ev)
	})
}

// CallPointerMove runs the guest's pointer-move entry point.
func (r *Runtime) CallPointerMove(ctx context.Context, ev canvas.PointerEvent) (CallResult, error) {
	return r.invoke(ctx, surface.PhaseEvent, func(ctx context.Context) error {
		return r.instance.PointerMove(ctx, ev)
	})
}

// CallKeyDown runs the guest's key-down entry point.
func (r *Runtime) CallKeyDown(ctx context.Context, ev canvas.KeyEvent) (CallResult, error) {
	return r.invoke(ctx, surface.PhaseEvent, func(ctx context.Context) error {
		return r.instance.KeyDown(ctx, ev)
	})
}

// CallKeyUp runs the guest's key-up entry point.
func (r *Runtime) CallKeyUp(ctx context.Context, ev canvas.KeyEvent) (CallResult, error) {
	return r.invoke(ctx, surface.PhaseEvent, func(ctx context.Context) error {
		return r.instance.KeyUp(ctx, ev)
	})
}

// CallFrame runs the guest's frame entry point. deltaMS is the time
// since the previous frame in milliseconds. A trapped frame reports
// failure and its partial output is discarded.
func (r *Runtime) CallFrame(ctx context.Context, deltaMS float32) (FrameResult, error) {
	ctx = surface.WithState(ctx, r.state)

	r.state.EnterPhase(surface.PhaseFrame)
	callErr := r.instance.Frame(ctx, deltaMS)
	redraw := r.state.TakeRedrawRequest()
	frame := r.state.TakeFrameOutput()
	r.state.ExitPhase()

	if callErr != nil {
		return FrameResult{}, errors.GuestCall(surface.PhaseFrame.String(), callErr)
	}
	return FrameResult{RequestedRedraw: redraw, Frame: frame}, nil
}

// RecentLogs returns a copy of the guest's recent log lines, oldest
// first. Reading does not consume them.
func (r *Runtime) RecentLogs() []string {
	return r.state.RecentLogs()
}

// Close releases the instance and, when owned, the engine. The Runtime
// is unusable afterwards.
func (r *Runtime) Close(ctx context.Context) error {
	var firstErr error
	if r.instance != nil {
		if err := r.instance.Close(ctx); err != nil {
			firstErr = err
		}
		r.instance = nil
	}
	if r.compiled != nil {
		if err := r.compiled.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		r.compiled = nil
	}
	if r.ownsEngine {
		if err := r.engine.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// invoke wraps one guest call in a phase window. Pending effects are
// drained before any error propagates, so a trapped call never leaks a
// redraw request into the next one.
func (r *Runtime) invoke(ctx context.Context, phase surface.Phase, call func(context.Context) error) (CallResult, error) {
	ctx = surface.WithState(ctx, r.state)

	r.state.EnterPhase(phase)
	callErr := call(ctx)
	redraw := r.state.TakeRedrawRequest()
	r.state.ExitPhase()

	if callErr != nil {
		return CallResult{}, errors.GuestCall(phase.String(), callErr)
	}
	return CallResult{RequestedRedraw: redraw}, nil
}
