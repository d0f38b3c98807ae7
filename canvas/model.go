package canvas

import "fmt"

// Color is an RGBA color with components in the 0-1 range.
type Color struct {
	R, G, B, A float32
}

// Vec2 is a point or extent in logical pixels.
type Vec2 struct {
	X, Y float32
}

// LogicalSize describes the guest's drawable area in logical pixels plus
// the scale factor mapping logical to physical pixels.
type LogicalSize struct {
	Width       float32
	Height      float32
	ScaleFactor float32
}

// Modifiers carries the keyboard modifier state attached to input events.
type Modifiers struct {
	Shift bool
	Ctrl  bool
	Alt   bool
	Meta  bool
}

// PointerButtons carries the pressed-button state of a pointer device.
type PointerButtons struct {
	Primary   bool
	Secondary bool
}

// PointerKind identifies the class of pointing device behind an event.
type PointerKind uint8

const (
	PointerMouse PointerKind = iota
	PointerTouch
	PointerPen
)

func (k PointerKind) String() string {
	switch k {
	case PointerMouse:
		return "mouse"
	case PointerTouch:
		return "touch"
	case PointerPen:
		return "pen"
	default:
		return fmt.Sprintf("pointer-kind(%d)", uint8(k))
	}
}

// PointerKindFromInt converts a wire discriminant to a PointerKind,
// clamping unknown values to PointerMouse.
func PointerKindFromInt(v int32) PointerKind {
	if v < 0 || v > int32(PointerPen) {
		return PointerMouse
	}
	return PointerKind(v)
}

// PointerEvent is one pointer interaction delivered to the guest.
type PointerEvent struct {
	Kind      PointerKind
	Position  Vec2
	Buttons   PointerButtons
	Modifiers Modifiers
	PointerID uint64
}

// KeyEvent is one keyboard interaction delivered to the guest. Key holds
// the logical key value ("a", "Enter"), Code the physical key ("KeyA").
type KeyEvent struct {
	Key       string
	Code      string
	Modifiers Modifiers
	IsRepeat  bool
}

// LogLevel is the severity a guest attaches to a log message.
type LogLevel uint8

const (
	LevelTrace LogLevel = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the uppercase label used in the recent-log ring.
func (l LogLevel) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", uint8(l))
	}
}

// LogLevelFromInt converts a wire discriminant to a LogLevel, clamping
// out-of-range values to the nearest bound so a version-skewed guest still
// gets its message through.
func LogLevelFromInt(v int32) LogLevel {
	if v < 0 {
		return LevelTrace
	}
	if v > int32(LevelError) {
		return LevelError
	}
	return LogLevel(v)
}
