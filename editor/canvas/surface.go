// Package canvas provides the fixed-size raster surface pattern strokes are painted on.
package canvas

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"pattern-studio/core"
	"pattern-studio/editor/tools"
)

const (
	Width  = 800
	Height = 600
)

// ErrSnapshotSize is returned when a snapshot does not match the surface size.
var ErrSnapshotSize = errors.New("snapshot dimensions do not match the canvas")

// Background is the colour a cleared surface is filled with.
var Background = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

var encoder = png.Encoder{CompressionLevel: png.BestSpeed}

// Surface is the live pixel buffer of one editor. It is not safe for
// concurrent use; the owning editor serialises access.
type Surface struct {
	img      *image.NRGBA
	stroking bool
	last     core.Point
}

// NewSurface returns a blank (white) surface.
func NewSurface() *Surface {
	s := &Surface{img: image.NewNRGBA(image.Rect(0, 0, Width, Height))}
	s.Clear()
	return s
}

// BeginStroke starts a path at p. Calls while a stroke is active are ignored.
func (s *Surface) BeginStroke(p core.Point) {
	if s.stroking {
		return
	}
	s.stroking = true
	s.last = p
}

// ExtendStroke paints the segment from the last point to p with cfg.
// It does nothing when no stroke is active.
func (s *Surface) ExtendStroke(p core.Point, cfg tools.Config) {
	if !s.stroking {
		return
	}
	paintSegment(s.img, s.last, p, cfg)
	s.last = p
}

// EndStroke terminates the current stroke and reports whether one was active.
func (s *Surface) EndStroke() bool {
	if !s.stroking {
		return false
	}
	s.stroking = false
	return true
}

func (s *Surface) Stroking() bool {
	return s.stroking
}

// Clear fills the whole surface with the background colour.
func (s *Surface) Clear() {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)
}

// ExportSnapshot encodes a copy of the current pixels.
func (s *Surface) ExportSnapshot() (core.Snapshot, error) {
	var buf bytes.Buffer
	if err := encoder.Encode(&buf, s.img); err != nil {
		return core.Snapshot{}, fmt.Errorf("encoding canvas: %w", err)
	}
	return core.NewSnapshot(buf.Bytes()), nil
}

// RestoreFrom replaces the surface content with a decoded snapshot. On error
// the surface is left as it was.
func (s *Surface) RestoreFrom(snap core.Snapshot) error {
	img, err := decode(snap)
	if err != nil {
		return err
	}
	if img.Bounds().Dx() != Width || img.Bounds().Dy() != Height {
		return fmt.Errorf("%w: got %dx%d", ErrSnapshotSize, img.Bounds().Dx(), img.Bounds().Dy())
	}
	draw.Draw(s.img, s.img.Bounds(), img, img.Bounds().Min, draw.Src)
	return nil
}

// At returns the pixel at (x, y).
func (s *Surface) At(x, y int) color.NRGBA {
	return s.img.NRGBAAt(x, y)
}

func decode(snap core.Snapshot) (image.Image, error) {
	if snap.IsZero() {
		return nil, fmt.Errorf("decoding snapshot: empty image data")
	}
	img, err := png.Decode(bytes.NewReader(snap.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return img, nil
}
