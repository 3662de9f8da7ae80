package core

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
)

const pngDataURLPrefix = "data:image/png;base64,"

// Point is a pixel coordinate on the drawing surface.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Snapshot is an immutable PNG encoding of the whole drawing surface.
// The zero value is an empty snapshot.
type Snapshot struct {
	data []byte
}

// NewSnapshot copies encoded image bytes into a snapshot.
func NewSnapshot(encoded []byte) Snapshot {
	data := make([]byte, len(encoded))
	copy(data, encoded)
	return Snapshot{data: data}
}

// Bytes returns a copy of the encoded image.
func (s Snapshot) Bytes() []byte {
	data := make([]byte, len(s.data))
	copy(data, s.data)
	return data
}

func (s Snapshot) Len() int {
	return len(s.data)
}

func (s Snapshot) IsZero() bool {
	return len(s.data) == 0
}

func (s Snapshot) Equal(other Snapshot) bool {
	return bytes.Equal(s.data, other.data)
}

// DataURL renders the snapshot the way the pattern records API expects imageData.
func (s Snapshot) DataURL() string {
	return pngDataURLPrefix + base64.StdEncoding.EncodeToString(s.data)
}

// ParseDataURL is the inverse of Snapshot.DataURL.
func ParseDataURL(dataURL string) (Snapshot, error) {
	if !strings.HasPrefix(dataURL, pngDataURLPrefix) {
		return Snapshot{}, fmt.Errorf("image data is not a png data url")
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, pngDataURLPrefix))
	if err != nil {
		return Snapshot{}, fmt.Errorf("decoding image data: %w", err)
	}
	return Snapshot{data: data}, nil
}
