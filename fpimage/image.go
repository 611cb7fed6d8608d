package fpimage

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
)

// Constants for the raw image format.
const (
	// Width is the image width in pixels
	Width = 256

	// Height is the image height in pixels
	Height = 288

	// RawSize is the size of a raw image: two 4-bit pixels per byte
	RawSize = Width * Height / 2

	// levelScale maps a 4-bit level onto the 8-bit gray range
	levelScale = 0x11
)

// Decode converts a raw image as transferred by the module into an 8-bit
// grayscale image. Each byte holds two pixels, the high nibble first.
//
// Example:
//
//	raw, err := s.DownloadImage(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	img, err := fpimage.Decode(raw)
func Decode(raw []byte) (*image.Gray, error) {
	if len(raw) != RawSize {
		return nil, fmt.Errorf("invalid raw image size: got %d bytes, expected %d", len(raw), RawSize)
	}

	img := image.NewGray(image.Rect(0, 0, Width, Height))
	for i, b := range raw {
		img.Pix[2*i] = (b >> 4) * levelScale
		img.Pix[2*i+1] = (b & 0x0F) * levelScale
	}
	return img, nil
}

// Encode packs img into the module's raw format, keeping the top four bits
// of each gray level. img must be exactly Width by Height pixels.
func Encode(img image.Image) ([]byte, error) {
	bounds := img.Bounds()
	if bounds.Dx() != Width || bounds.Dy() != Height {
		return nil, fmt.Errorf("invalid image dimensions: got %dx%d, expected %dx%d",
			bounds.Dx(), bounds.Dy(), Width, Height)
	}

	raw := make([]byte, RawSize)
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x += 2 {
			hi := grayLevel(img, bounds.Min.X+x, bounds.Min.Y+y)
			lo := grayLevel(img, bounds.Min.X+x+1, bounds.Min.Y+y)
			raw[(y*Width+x)/2] = hi<<4 | lo
		}
	}
	return raw, nil
}

func grayLevel(img image.Image, x, y int) byte {
	return color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y >> 4
}

// ReadRaw reads a raw image from path.
func ReadRaw(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadRawFrom(f)
}

// ReadRawFrom reads exactly one raw image from r.
func ReadRawFrom(r io.Reader) ([]byte, error) {
	raw := make([]byte, RawSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("failed to read raw image: %w", err)
	}
	return raw, nil
}
