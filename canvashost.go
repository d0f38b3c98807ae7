package canvashost

import (
	"context"

	"github.com/frontierhq/canvas-host/canvas"
	"github.com/frontierhq/canvas-host/engine"
	"github.com/frontierhq/canvas-host/runtime"
)

// HostAPIVersion is the canvas host API version this module provides.
const HostAPIVersion = engine.HostAPIVersion

// Aliases for the types most callers need, so simple hosts can stay on
// a single import.
type (
	Color        = canvas.Color
	Vec2         = canvas.Vec2
	LogicalSize  = canvas.LogicalSize
	PointerEvent = canvas.PointerEvent
	KeyEvent     = canvas.KeyEvent
	DrawCommand  = canvas.DrawCommand
	FrameOutput  = canvas.FrameOutput

	Runtime     = runtime.Runtime
	Options     = runtime.Options
	CallResult  = runtime.CallResult
	FrameResult = runtime.FrameResult
	Source      = runtime.Source
)

// NewFromPath loads the guest binary at path. Reload re-reads the file.
func NewFromPath(ctx context.Context, path string, opts *Options) (*Runtime, error) {
	return runtime.New(ctx, runtime.PathSource{Path: path}, opts)
}

// NewFromBytes loads an in-memory guest binary. label names it in logs
// and errors.
func NewFromBytes(ctx context.Context, label string, data []byte, opts *Options) (*Runtime, error) {
	return runtime.New(ctx, runtime.BytesSource{Label: label, Data: data}, opts)
}
