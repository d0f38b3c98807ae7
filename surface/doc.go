// Package surface implements the host capability surface and the phase
// state machine that gates it.
//
// A State holds everything the host tracks on behalf of one live guest
// instance: the active lifecycle phase, the frame output buffer, the sticky
// redraw flag, and the recent-log ring. Capability methods (Clear, FillRect,
// DrawText, RequestFrame, Log) check the phase and either apply their effect
// or drop the call with a diagnostic; an out-of-phase call never becomes an
// error, because a misbehaving guest must not be able to fault the host by
// drawing at the wrong time.
//
// Phase transitions are driven externally: the runtime enters the target
// phase before each guest call and exits to Idle after it, whatever the
// outcome. Entering Frame resets the output buffer, so no frame ever
// inherits commands from a previous one.
//
// State is handed to host functions through the context
// (WithState/StateFromContext), keeping the engine free of per-instance
// tables. A State is not safe for concurrent use; the runtime's
// single-threaded call discipline is the synchronization.
package surface
