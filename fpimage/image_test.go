package fpimage

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func rawPattern() []byte {
	raw := make([]byte, RawSize)
	for i := range raw {
		raw[i] = byte(i*7) ^ byte(i>>8)
	}
	return raw
}

func TestDecode(t *testing.T) {
	raw := make([]byte, RawSize)
	raw[0] = 0xF0
	raw[1] = 0x3C
	raw[RawSize-1] = 0x0F

	img, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if got := img.Bounds(); got != image.Rect(0, 0, Width, Height) {
		t.Fatalf("bounds = %v, want %dx%d", got, Width, Height)
	}

	tests := []struct {
		x, y int
		want uint8
	}{
		{0, 0, 0xFF},
		{1, 0, 0x00},
		{2, 0, 0x33},
		{3, 0, 0xCC},
		{Width - 2, Height - 1, 0x00},
		{Width - 1, Height - 1, 0xFF},
	}
	for _, tt := range tests {
		if got := img.GrayAt(tt.x, tt.y).Y; got != tt.want {
			t.Errorf("pixel (%d,%d) = 0x%02X, want 0x%02X", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestDecodeInvalidSize(t *testing.T) {
	for _, size := range []int{0, 1, RawSize - 1, RawSize + 1} {
		_, err := Decode(make([]byte, size))
		if err == nil {
			t.Errorf("Decode(%d bytes) expected error", size)
			continue
		}
		if !strings.Contains(err.Error(), "invalid raw image size") {
			t.Errorf("Decode(%d bytes) error = %v", size, err)
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	raw := rawPattern()

	img, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	got, err := Encode(img)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Error("Encode(Decode(raw)) does not reproduce raw")
	}
}

func TestEncodeQuantizes(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, Width, Height))
	img.SetGray(0, 0, color.Gray{Y: 0x9F})
	img.SetGray(1, 0, color.Gray{Y: 0x21})

	raw, err := Encode(img)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if raw[0] != 0x92 {
		t.Errorf("raw[0] = 0x%02X, want 0x92", raw[0])
	}
}

func TestEncodeInvalidDimensions(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, Height, Width))
	if _, err := Encode(img); err == nil {
		t.Error("Encode() expected error for rotated image")
	}
}

func TestEncodeOffsetBounds(t *testing.T) {
	img := image.NewGray(image.Rect(10, 20, 10+Width, 20+Height))
	img.SetGray(10, 20, color.Gray{Y: 0xFF})

	raw, err := Encode(img)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if raw[0] != 0xF0 {
		t.Errorf("raw[0] = 0x%02X, want 0xF0", raw[0])
	}
}

func TestPNGFiles(t *testing.T) {
	dir := t.TempDir()
	raw := rawPattern()

	path := filepath.Join(dir, "finger.png")
	if err := SavePNG(path, raw); err != nil {
		t.Fatalf("SavePNG() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Error("PNG round trip changed the image")
	}

	rawPath := filepath.Join(dir, "finger.raw")
	if err := os.WriteFile(rawPath, raw, 0o600); err != nil {
		t.Fatal(err)
	}
	got, err = Load(rawPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Error("raw file read changed the image")
	}
}

func TestReadRawFromShort(t *testing.T) {
	_, err := ReadRawFrom(bytes.NewReader(make([]byte, RawSize-1)))
	if err == nil {
		t.Fatal("ReadRawFrom() expected error for short input")
	}
}

func TestReadPNGInvalid(t *testing.T) {
	_, err := ReadPNG(strings.NewReader("not a png"))
	if err == nil || !strings.Contains(err.Error(), "failed to decode png") {
		t.Errorf("ReadPNG() error = %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Load() expected error for missing file")
	}
}
