package canvas

import "fmt"

// DrawCommand is one primitive drawing instruction issued by a guest during
// the Frame phase. The set is closed: FillRect and DrawText are the only
// implementations, and consumers switch over them exhaustively.
type DrawCommand interface {
	fmt.Stringer
	isDrawCommand()
}

// FillRect fills an axis-aligned rectangle.
type FillRect struct {
	Origin Vec2
	Size   Vec2
	Color  Color
}

func (FillRect) isDrawCommand() {}

func (c FillRect) String() string {
	return fmt.Sprintf("FillRect(origin=(%.1f, %.1f), size=(%.1f, %.1f))",
		c.Origin.X, c.Origin.Y, c.Size.X, c.Size.Y)
}

// DrawText places a run of text at an origin with a font size.
type DrawText struct {
	Text   string
	Origin Vec2
	Size   float32
	Color  Color
}

func (DrawText) isDrawCommand() {}

func (c DrawText) String() string {
	return fmt.Sprintf("DrawText(text='%s', origin=(%.1f, %.1f), size=%.1f)",
		c.Text, c.Origin.X, c.Origin.Y, c.Size)
}

// FrameOutput is the result of one Frame-phase call: an optional clear
// color plus the draw commands in issue order. Later commands draw over
// earlier ones. A FrameOutput is produced once, consumed once, and never
// reused across frames.
type FrameOutput struct {
	ClearColor *Color
	Commands   []DrawCommand
}
