package canvas

import (
	"image"
	"image/draw"

	"github.com/fogleman/gg"

	"pattern-studio/core"
	"pattern-studio/editor/tools"
)

// paintSegment rasterises one round-capped segment into an alpha mask and
// composites it onto dst according to the tool mode. Only the part of the
// segment that can touch dst is drawn.
func paintSegment(dst *image.NRGBA, from, to core.Point, cfg tools.Config) {
	width := float64(cfg.BrushSize)
	if width <= 0 {
		return
	}

	pad := cfg.BrushSize/2 + 2
	reach := dst.Bounds().Inset(-pad)
	x0, y0, x1, y1, ok := clipSegment(from, to, reach)
	if !ok {
		return
	}

	r := image.Rect(int(x0), int(y0), int(x1), int(y1)).Canon()
	r = image.Rect(r.Min.X-pad, r.Min.Y-pad, r.Max.X+pad+1, r.Max.Y+pad+1).Intersect(dst.Bounds())
	if r.Empty() {
		return
	}

	dc := gg.NewContext(r.Dx(), r.Dy())
	dc.Translate(float64(-r.Min.X), float64(-r.Min.Y))
	dc.SetRGB(1, 1, 1)
	if from == to {
		// A zero-length segment still leaves a round dot.
		dc.DrawCircle(x0, y0, width/2)
		dc.Fill()
	} else {
		dc.SetLineWidth(width)
		dc.SetLineCapRound()
		dc.SetLineJoinRound()
		dc.DrawLine(x0, y0, x1, y1)
		dc.Stroke()
	}
	mask := dc.AsMask()

	switch cfg.Mode() {
	case tools.ModeErase:
		eraseMasked(dst, r, mask)
	default:
		draw.DrawMask(dst, r, image.NewUniform(cfg.Color), image.Point{}, mask, image.Point{}, draw.Over)
	}
}

// eraseMasked applies destination-out: each pixel of r loses alpha in
// proportion to the mask, and pixels outside the mask are left alone.
func eraseMasked(dst *image.NRGBA, r image.Rectangle, mask *image.Alpha) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m := uint32(mask.AlphaAt(x-r.Min.X, y-r.Min.Y).A)
			if m == 0 {
				continue
			}
			i := dst.PixOffset(x, y)
			a := uint32(dst.Pix[i+3]) * (0xff - m) / 0xff
			if a == 0 {
				dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3] = 0, 0, 0, 0
				continue
			}
			dst.Pix[i+3] = uint8(a)
		}
	}
}

// clipSegment clips from-to against r (Liang-Barsky) and reports whether
// any of it is left.
func clipSegment(from, to core.Point, r image.Rectangle) (x0, y0, x1, y1 float64, ok bool) {
	x0, y0 = float64(from.X), float64(from.Y)
	dx, dy := float64(to.X)-x0, float64(to.Y)-y0
	t0, t1 := 0.0, 1.0

	edges := [4][2]float64{
		{-dx, x0 - float64(r.Min.X)},
		{dx, float64(r.Max.X) - x0},
		{-dy, y0 - float64(r.Min.Y)},
		{dy, float64(r.Max.Y) - y0},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return 0, 0, 0, 0, false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return 0, 0, 0, 0, false
			}
			if t < t1 {
				t1 = t
			}
		}
	}
	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}
