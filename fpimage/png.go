package fpimage

import (
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WritePNG decodes raw and writes it to w as a grayscale PNG.
func WritePNG(w io.Writer, raw []byte) error {
	img, err := Decode(raw)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// SavePNG writes raw to path as a grayscale PNG.
//
// Example:
//
//	raw, _ := s.DownloadImage(ctx)
//	if err := fpimage.SavePNG("finger.png", raw); err != nil {
//	    log.Fatal(err)
//	}
func SavePNG(path string, raw []byte) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()

	return WritePNG(f, raw)
}

// LoadPNG reads a PNG from path and packs it into the raw format for
// upload to the module.
func LoadPNG(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadPNG(f)
}

// ReadPNG reads a PNG from r and packs it into the raw format.
func ReadPNG(r io.Reader) ([]byte, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode png: %w", err)
	}
	return Encode(img)
}

// Load reads an image for upload. Files ending in .png are packed from
// grayscale; anything else is read as raw bytes.
func Load(path string) ([]byte, error) {
	if isPNG(path) {
		return LoadPNG(path)
	}
	return ReadRaw(path)
}

func isPNG(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".png")
}
