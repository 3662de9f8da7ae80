package canvas

import (
	"bytes"
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"pattern-studio/core"
)

const (
	ThumbnailWidth  = 160
	ThumbnailHeight = 120
)

// Thumbnail scales a snapshot down to w x h and re-encodes it.
func Thumbnail(snap core.Snapshot, w, h int) (core.Snapshot, error) {
	if w <= 0 || h <= 0 {
		return core.Snapshot{}, fmt.Errorf("invalid thumbnail size %dx%d", w, h)
	}
	src, err := decode(snap)
	if err != nil {
		return core.Snapshot{}, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	var buf bytes.Buffer
	if err := encoder.Encode(&buf, dst); err != nil {
		return core.Snapshot{}, fmt.Errorf("encoding thumbnail: %w", err)
	}
	return core.NewSnapshot(buf.Bytes()), nil
}
