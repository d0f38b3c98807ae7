// Package canvas defines the value model shared between the host and its
// guests: colors, geometry, input events, log levels, and the draw commands
// a guest emits during a frame.
//
// Everything here is plain data. The types carry no behavior beyond
// formatting; gating and buffering live in the surface package, and the
// wire encoding lives in the engine package.
package canvas
