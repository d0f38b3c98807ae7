package surface

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/frontierhq/canvas-host/canvas"
)

func observedState(t *testing.T) (*State, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return NewState(zap.New(core)), logs
}

var (
	white = canvas.Color{R: 1, G: 1, B: 1, A: 1}
	black = canvas.Color{R: 0, G: 0, B: 0, A: 1}
)

func TestDrawGatingOutsideFrame(t *testing.T) {
	phases := []Phase{PhaseIdle, PhaseInit, PhaseResize, PhaseEvent}
	ops := []struct {
		name string
		call func(s *State)
	}{
		{"clear", func(s *State) { s.Clear(black) }},
		{"fill-rect", func(s *State) { s.FillRect(canvas.Vec2{X: 1, Y: 1}, canvas.Vec2{X: 2, Y: 2}, white) }},
		{"draw-text", func(s *State) { s.DrawText("x", canvas.Vec2{}, 12, white) }},
	}

	for _, phase := range phases {
		for _, op := range ops {
			t.Run(fmt.Sprintf("%s during %s", op.name, phase), func(t *testing.T) {
				st, logs := observedState(t)
				st.EnterPhase(phase)
				op.call(st)
				st.ExitPhase()

				if warns := logs.FilterLevelExact(zapcore.WarnLevel).Len(); warns != 1 {
					t.Errorf("warnings = %d, want exactly 1", warns)
				}

				st.EnterPhase(PhaseFrame)
				st.ExitPhase()
				out := st.TakeFrameOutput()
				if out.ClearColor != nil {
					t.Errorf("clear color leaked from dropped call: %v", *out.ClearColor)
				}
				if len(out.Commands) != 0 {
					t.Errorf("commands leaked from dropped call: %v", out.Commands)
				}
			})
		}
	}
}

func TestDrawDuringFrame(t *testing.T) {
	st, logs := observedState(t)

	st.EnterPhase(PhaseFrame)
	st.Clear(black)
	st.FillRect(canvas.Vec2{X: 10, Y: 10}, canvas.Vec2{X: 5, Y: 5}, white)
	st.DrawText("hi", canvas.Vec2{}, 12, white)
	st.ExitPhase()

	out := st.TakeFrameOutput()
	if out.ClearColor == nil || *out.ClearColor != black {
		t.Fatalf("ClearColor = %v, want %v", out.ClearColor, black)
	}
	if len(out.Commands) != 2 {
		t.Fatalf("commands = %d, want 2", len(out.Commands))
	}
	if _, ok := out.Commands[0].(canvas.FillRect); !ok {
		t.Errorf("command 0 = %T, want FillRect", out.Commands[0])
	}
	if _, ok := out.Commands[1].(canvas.DrawText); !ok {
		t.Errorf("command 1 = %T, want DrawText", out.Commands[1])
	}
	if warns := logs.FilterLevelExact(zapcore.WarnLevel).Len(); warns != 0 {
		t.Errorf("warnings = %d, want 0", warns)
	}
}

func TestCommandOrderPreserved(t *testing.T) {
	st := NewState(nil)
	st.EnterPhase(PhaseFrame)
	for i := 0; i < 5; i++ {
		st.DrawText(fmt.Sprintf("line %d", i), canvas.Vec2{Y: float32(i)}, 10, white)
	}
	st.ExitPhase()

	out := st.TakeFrameOutput()
	if len(out.Commands) != 5 {
		t.Fatalf("commands = %d, want 5", len(out.Commands))
	}
	for i, cmd := range out.Commands {
		text := cmd.(canvas.DrawText).Text
		if want := fmt.Sprintf("line %d", i); text != want {
			t.Errorf("command %d text = %q, want %q", i, text, want)
		}
	}
}

func TestClearLastWriteWins(t *testing.T) {
	st := NewState(nil)
	st.EnterPhase(PhaseFrame)
	st.Clear(canvas.Color{R: 1})
	st.Clear(canvas.Color{G: 1})
	st.Clear(black)
	st.ExitPhase()

	out := st.TakeFrameOutput()
	if out.ClearColor == nil || *out.ClearColor != black {
		t.Errorf("ClearColor = %v, want %v", out.ClearColor, black)
	}
}

func TestEnterFrameResetsBuffer(t *testing.T) {
	st := NewState(nil)

	st.EnterPhase(PhaseFrame)
	st.Clear(black)
	st.FillRect(canvas.Vec2{}, canvas.Vec2{X: 1, Y: 1}, white)
	st.ExitPhase()
	// Previous frame never extracted; the next frame must not inherit it.

	st.EnterPhase(PhaseFrame)
	st.ExitPhase()
	out := st.TakeFrameOutput()
	if out.ClearColor != nil || len(out.Commands) != 0 {
		t.Errorf("frame inherited state: clear=%v commands=%d", out.ClearColor, len(out.Commands))
	}
}

func TestTakeFrameOutputConsumesOnce(t *testing.T) {
	st := NewState(nil)
	st.EnterPhase(PhaseFrame)
	st.Clear(black)
	st.FillRect(canvas.Vec2{}, canvas.Vec2{X: 1, Y: 1}, white)
	st.ExitPhase()

	first := st.TakeFrameOutput()
	if first.ClearColor == nil || len(first.Commands) != 1 {
		t.Fatalf("first take: clear=%v commands=%d", first.ClearColor, len(first.Commands))
	}

	second := st.TakeFrameOutput()
	if second.ClearColor != nil || len(second.Commands) != 0 {
		t.Errorf("second take not empty: clear=%v commands=%d", second.ClearColor, len(second.Commands))
	}
}

func TestRequestFramePerPhase(t *testing.T) {
	allowed := []Phase{PhaseInit, PhaseResize, PhaseEvent, PhaseFrame}
	for _, phase := range allowed {
		t.Run(phase.String(), func(t *testing.T) {
			st, logs := observedState(t)
			st.EnterPhase(phase)
			st.RequestFrame()
			st.ExitPhase()

			if !st.TakeRedrawRequest() {
				t.Errorf("redraw not requested during %s", phase)
			}
			if logs.Len() != 0 {
				t.Errorf("diagnostics = %d, want 0", logs.Len())
			}
		})
	}

	t.Run("idle", func(t *testing.T) {
		st, logs := observedState(t)
		st.RequestFrame()

		if st.TakeRedrawRequest() {
			t.Error("redraw requested during idle should be ignored")
		}
		if debugs := logs.FilterLevelExact(zapcore.DebugLevel).Len(); debugs != 1 {
			t.Errorf("debug diagnostics = %d, want exactly 1", debugs)
		}
		if warns := logs.FilterLevelExact(zapcore.WarnLevel).Len(); warns != 0 {
			t.Errorf("warnings = %d, want 0", warns)
		}
	})
}

func TestRedrawRequestConsumedOnce(t *testing.T) {
	st := NewState(nil)
	st.EnterPhase(PhaseInit)
	st.RequestFrame()
	st.ExitPhase()

	if !st.TakeRedrawRequest() {
		t.Fatal("first take should report the request")
	}
	if st.TakeRedrawRequest() {
		t.Error("second take should be false")
	}
}

func TestLogAlwaysAllowed(t *testing.T) {
	st, logs := observedState(t)

	// Idle is the most restrictive phase; log must still work there.
	st.Log(canvas.LevelInfo, "booting")

	if got := st.RecentLogs(); len(got) != 1 || got[0] != "[INFO] booting" {
		t.Errorf("RecentLogs() = %v, want [\"[INFO] booting\"]", got)
	}
	if warns := logs.FilterLevelExact(zapcore.WarnLevel).Len(); warns != 0 {
		t.Errorf("warnings = %d, want 0", warns)
	}
}

func TestLogForwardsAtMatchingSeverity(t *testing.T) {
	tests := []struct {
		level canvas.LogLevel
		want  zapcore.Level
	}{
		{canvas.LevelTrace, zapcore.DebugLevel},
		{canvas.LevelDebug, zapcore.DebugLevel},
		{canvas.LevelInfo, zapcore.InfoLevel},
		{canvas.LevelWarn, zapcore.WarnLevel},
		{canvas.LevelError, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			st, logs := observedState(t)
			st.Log(tt.level, "message")

			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("entries = %d, want 1", len(entries))
			}
			if entries[0].Level != tt.want {
				t.Errorf("level = %v, want %v", entries[0].Level, tt.want)
			}
			if entries[0].LoggerName != "guest" {
				t.Errorf("logger name = %q, want \"guest\"", entries[0].LoggerName)
			}
			if entries[0].Message != "message" {
				t.Errorf("message = %q, want \"message\"", entries[0].Message)
			}
		})
	}
}

func TestLogRingEviction(t *testing.T) {
	st := NewState(nil)
	for i := 0; i < RecentLogLimit+1; i++ {
		st.Log(canvas.LevelInfo, fmt.Sprintf("entry %d", i))
	}

	got := st.RecentLogs()
	if len(got) != RecentLogLimit {
		t.Fatalf("ring length = %d, want %d", len(got), RecentLogLimit)
	}
	if got[0] != "[INFO] entry 1" {
		t.Errorf("oldest = %q, want \"[INFO] entry 1\" (entry 0 evicted)", got[0])
	}
	if got[len(got)-1] != fmt.Sprintf("[INFO] entry %d", RecentLogLimit) {
		t.Errorf("newest = %q, want entry %d", got[len(got)-1], RecentLogLimit)
	}
}

func TestRecentLogsSnapshotIsolated(t *testing.T) {
	st := NewState(nil)
	st.Log(canvas.LevelWarn, "first")

	snap := st.RecentLogs()
	snap[0] = "mutated"

	if got := st.RecentLogs(); got[0] != "[WARN] first" {
		t.Errorf("ring affected by snapshot mutation: %q", got[0])
	}

	// Snapshot twice; the ring is not drained.
	if got := st.RecentLogs(); len(got) != 1 {
		t.Errorf("ring drained by snapshot: len = %d", len(got))
	}
}

func TestExitPhaseReturnsToIdle(t *testing.T) {
	st := NewState(nil)
	for _, p := range []Phase{PhaseInit, PhaseResize, PhaseEvent, PhaseFrame} {
		st.EnterPhase(p)
		if st.Phase() != p {
			t.Errorf("Phase() = %v after EnterPhase(%v)", st.Phase(), p)
		}
		st.ExitPhase()
		if st.Phase() != PhaseIdle {
			t.Errorf("Phase() = %v after ExitPhase, want idle", st.Phase())
		}
	}
}

func TestStateContextRoundTrip(t *testing.T) {
	st := NewState(nil)
	ctx := WithState(context.Background(), st)

	got, ok := StateFromContext(ctx)
	if !ok {
		t.Fatal("StateFromContext() not found")
	}
	if got != st {
		t.Error("StateFromContext() returned a different state")
	}

	if _, ok := StateFromContext(context.Background()); ok {
		t.Error("StateFromContext() on bare context should report false")
	}
}
