package surface

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/frontierhq/canvas-host/canvas"
)

// RecentLogLimit bounds the recent-log ring.
const RecentLogLimit = 16

// State is the host-side scratch state for one live guest instance. It is
// created fresh on every (re)instantiation and discarded on reload.
// Not safe for concurrent use.
type State struct {
	logger      *zap.Logger
	guestLogger *zap.Logger

	phase           Phase
	clearColor      *canvas.Color
	commands        []canvas.DrawCommand
	redrawRequested bool
	recentLogs      logRing
}

// NewState creates an empty state in the Idle phase. A nil logger disables
// diagnostics.
func NewState(logger *zap.Logger) *State {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &State{
		logger:      logger,
		guestLogger: logger.Named("guest"),
	}
}

// Phase returns the active lifecycle phase.
func (s *State) Phase() Phase {
	return s.phase
}

// EnterPhase activates the target phase for the next guest call. Entering
// Frame resets the frame output buffer first.
func (s *State) EnterPhase(p Phase) {
	if p == PhaseFrame {
		s.clearColor = nil
		s.commands = nil
	}
	s.phase = p
}

// ExitPhase returns to Idle unconditionally.
func (s *State) ExitPhase() {
	s.phase = PhaseIdle
}

// Clear sets the frame's clear color. Last write wins within one frame.
// Outside the Frame phase the call is dropped with a warning.
func (s *State) Clear(color canvas.Color) {
	if !s.phase.allowsDraw() {
		s.warnOutOfPhase("clear the scene")
		return
	}
	s.clearColor = &color
}

// FillRect appends a rectangle-fill command to the frame output.
// Outside the Frame phase the call is dropped with a warning.
func (s *State) FillRect(origin, size canvas.Vec2, color canvas.Color) {
	if !s.phase.allowsDraw() {
		s.warnOutOfPhase("issue fill-rect")
		return
	}
	s.commands = append(s.commands, canvas.FillRect{
		Origin: origin,
		Size:   size,
		Color:  color,
	})
}

// DrawText appends a text command to the frame output.
// Outside the Frame phase the call is dropped with a warning.
func (s *State) DrawText(text string, origin canvas.Vec2, size float32, color canvas.Color) {
	if !s.phase.allowsDraw() {
		s.warnOutOfPhase("draw text")
		return
	}
	s.commands = append(s.commands, canvas.DrawText{
		Text:   text,
		Origin: origin,
		Size:   size,
		Color:  color,
	})
}

// RequestFrame sets the sticky redraw flag. During Idle the request is
// dropped with a debug diagnostic; timer-driven guests may legitimately
// poll before init has run.
func (s *State) RequestFrame() {
	if !s.phase.allowsRequestFrame() {
		s.logger.Debug("guest requested frame while idle; ignoring",
			zap.Stringer("phase", s.phase))
		return
	}
	s.redrawRequested = true
}

// Log records a guest log line in the recent-log ring and forwards it to
// the host logger at matching severity. Log is legal in every phase.
func (s *State) Log(level canvas.LogLevel, message string) {
	s.recentLogs.push(fmt.Sprintf("[%s] %s", level, message))

	switch level {
	case canvas.LevelTrace, canvas.LevelDebug:
		s.guestLogger.Debug(message)
	case canvas.LevelWarn:
		s.guestLogger.Warn(message)
	case canvas.LevelError:
		s.guestLogger.Error(message)
	default:
		s.guestLogger.Info(message)
	}
}

// TakeFrameOutput extracts the accumulated frame and empties the buffer.
// Calling it twice yields an empty frame the second time.
func (s *State) TakeFrameOutput() canvas.FrameOutput {
	out := canvas.FrameOutput{
		ClearColor: s.clearColor,
		Commands:   s.commands,
	}
	s.clearColor = nil
	s.commands = nil
	return out
}

// TakeRedrawRequest consumes the sticky redraw flag.
func (s *State) TakeRedrawRequest() bool {
	requested := s.redrawRequested
	s.redrawRequested = false
	return requested
}

// RecentLogs returns a copy of the recent-log ring, oldest first.
// Non-destructive.
func (s *State) RecentLogs() []string {
	return s.recentLogs.snapshot()
}

func (s *State) warnOutOfPhase(action string) {
	s.logger.Warn(fmt.Sprintf("guest attempted to %s outside of a frame phase", action),
		zap.Stringer("phase", s.phase))
}

// logRing is a fixed-capacity FIFO of formatted guest log lines.
type logRing struct {
	entries []string
}

func (r *logRing) push(line string) {
	if len(r.entries) == RecentLogLimit {
		copy(r.entries, r.entries[1:])
		r.entries = r.entries[:RecentLogLimit-1]
	}
	r.entries = append(r.entries, line)
}

func (r *logRing) snapshot() []string {
	out := make([]string, len(r.entries))
	copy(out, r.entries)
	return out
}
