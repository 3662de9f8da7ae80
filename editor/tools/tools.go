// Package tools holds the drawing tool state consumed by the canvas surface.
package tools

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Tool identifies the active drawing tool.
type Tool string

const (
	Brush     Tool = "brush"
	Eraser    Tool = "eraser"
	Line      Tool = "line"
	Rectangle Tool = "rectangle"
)

// Mode is how a tool composites onto the surface.
type Mode int

const (
	ModePaint Mode = iota // source-over with the configured colour
	ModeErase             // destination-out at full opacity
)

const DefaultBrushSize = 5

// Config is the current tool selection. It is plain data: any tool, size or
// colour may be set at any time and applies from the next stroke segment.
type Config struct {
	Tool      Tool
	BrushSize int
	Color     color.RGBA
}

func Default() Config {
	return Config{
		Tool:      Brush,
		BrushSize: DefaultBrushSize,
		Color:     color.RGBA{A: 0xff},
	}
}

// ParseTool accepts the tool names used by the editor UI.
func ParseTool(name string) (Tool, error) {
	switch t := Tool(strings.ToLower(strings.TrimSpace(name))); t {
	case Brush, Eraser, Line, Rectangle:
		return t, nil
	default:
		return "", fmt.Errorf("unknown tool %q", name)
	}
}

// ParseColor parses a "#rrggbb" colour into an opaque RGBA value.
func ParseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// HexColor formats the colour as "#rrggbb".
func (c Config) HexColor() string {
	col, _ := colorful.MakeColor(c.Color)
	return col.Hex()
}

// Mode reports the compositing used for the tool. Line and rectangle are
// accepted selections but paint freehand like the brush.
func (c Config) Mode() Mode {
	if c.Tool == Eraser {
		return ModeErase
	}
	return ModePaint
}
