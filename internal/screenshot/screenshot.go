// Package screenshot exports framebuffer snapshots as PNG images.
package screenshot

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"github.com/retroenv/retrochip8/internal/display"
	"golang.org/x/image/draw"
)

// Colors used for unset and set pixels.
var (
	Background = color.Gray{Y: 0x00}
	Foreground = color.Gray{Y: 0xFF}
)

// MaxScale is the largest supported scale factor.
const MaxScale = 64

// Image returns the framebuffer as image, every pixel scaled to a square of
// scale×scale image pixels.
func Image(fb *display.Framebuffer, scale int) (*image.Paletted, error) {
	if scale < 1 || scale > MaxScale {
		return nil, fmt.Errorf("invalid scale %d, must be between 1 and %d", scale, MaxScale)
	}

	src := fb.Image(Background, Foreground)
	if scale == 1 {
		return src, nil
	}

	bounds := image.Rect(0, 0, display.Width*scale, display.Height*scale)
	dst := image.NewPaletted(bounds, src.Palette)
	draw.NearestNeighbor.Scale(dst, bounds, src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// Write encodes the scaled framebuffer as PNG.
func Write(w io.Writer, fb *display.Framebuffer, scale int) error {
	img, err := Image(fb, scale)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

// WriteFile writes the scaled framebuffer as PNG file.
func WriteFile(fileName string, fb *display.Framebuffer, scale int) error {
	f, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("creating screenshot file: %w", err)
	}

	if err := Write(f, fb, scale); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing screenshot file: %w", err)
	}
	return nil
}
