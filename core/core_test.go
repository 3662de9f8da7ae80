package core

import (
	"errors"
	"testing"
)

func TestSnapshotCopiesBytes(t *testing.T) {
	raw := []byte{1, 2, 3}
	snap := NewSnapshot(raw)
	raw[0] = 9

	if snap.Bytes()[0] != 1 {
		t.Error("snapshot aliases the bytes it was built from")
	}

	out := snap.Bytes()
	out[1] = 9
	if snap.Bytes()[1] != 2 {
		t.Error("Bytes() exposes the internal buffer")
	}
}

func TestDataURLRoundTrip(t *testing.T) {
	snap := NewSnapshot([]byte("\x89PNG fake"))

	parsed, err := ParseDataURL(snap.DataURL())
	if err != nil {
		t.Fatalf("ParseDataURL() failed: %v", err)
	}
	if !parsed.Equal(snap) {
		t.Error("parsed snapshot differs")
	}

	if _, err := ParseDataURL("data:image/jpeg;base64,AAAA"); err == nil {
		t.Error("ParseDataURL() accepted a jpeg data url")
	}
	if _, err := ParseDataURL("data:image/png;base64,!!!"); err == nil {
		t.Error("ParseDataURL() accepted invalid base64")
	}
}

func TestNewPatternRecord(t *testing.T) {
	rec := NewPatternRecord(PatternMetadata{Name: "Shirt", FabricType: "linen"}, "img")
	if rec.Name != "Shirt" || rec.FabricType != "linen" || rec.ImageData != "img" {
		t.Errorf("got %+v", rec)
	}
	if rec.Instructions == nil || rec.Materials == nil {
		t.Error("instructions and materials should be empty lists, not null")
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key   string
		valid bool
	}{
		{"01J9ZK8Q4X", true},
		{"summer-dress", true},
		{"", false},
		{".", false},
		{"..", false},
		{"../other-user", false},
		{"a/b", false},
		{`a\b`, false},
	}
	for _, tt := range tests {
		err := ValidateKey(tt.key)
		if tt.valid && err != nil {
			t.Errorf("ValidateKey(%q) = %v, want nil", tt.key, err)
		}
		if !tt.valid && !errors.Is(err, ErrInvalidKey) {
			t.Errorf("ValidateKey(%q) = %v, want ErrInvalidKey", tt.key, err)
		}
	}
}
