package render

import (
	"fmt"

	"github.com/frontierhq/canvas-host/canvas"
)

// RGB is a terminal color. Channels are 0-255.
type RGB struct {
	R, G, B uint8
}

// RGBFromColor converts a canvas color, clamping each channel to [0, 1]
// before scaling. The alpha channel is handled by the compositor, not
// here.
func RGBFromColor(c canvas.Color) RGB {
	return RGB{
		R: channel(c.R),
		G: channel(c.G),
		B: channel(c.B),
	}
}

func channel(v float32) uint8 {
	if v >= 1 {
		return 255
	}
	if v <= 0 {
		return 0
	}
	return uint8(v*255 + 0.5)
}

// Blend alpha-composites src over dst. Full and zero alpha return early
// to save the per-channel math.
func Blend(dst, src RGB, alpha float64) RGB {
	if alpha >= 1.0 {
		return src
	}
	if alpha <= 0.0 {
		return dst
	}

	inv := 1.0 - alpha
	return RGB{
		R: uint8(float64(src.R)*alpha + float64(dst.R)*inv),
		G: uint8(float64(src.G)*alpha + float64(dst.G)*inv),
		B: uint8(float64(src.B)*alpha + float64(dst.B)*inv),
	}
}

// Hex renders the color as #rrggbb for terminal styling.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
