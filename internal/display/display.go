// Package display provides the CHIP-8 monochrome framebuffer and sprite compositor.
package display

import (
	"image"
	"image/color"
	"strings"
)

// Screen dimensions of the CHIP-8 display.
const (
	Width  = 64
	Height = 32

	// PackedSize is the size in bytes of a bit packed framebuffer.
	PackedSize = Width * Height / 8

	spriteWidth = 8
)

// Framebuffer is the 64×32 pixel grid of the machine. Copying the value
// creates an independent snapshot.
type Framebuffer struct {
	pixels [Height][Width]bool
}

// Clear sets every pixel to unset.
func (f *Framebuffer) Clear() {
	f.pixels = [Height][Width]bool{}
}

// Pixel returns whether the pixel at the given position is set.
// Positions outside the screen are reported as unset.
func (f *Framebuffer) Pixel(x, y int) bool {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return false
	}
	return f.pixels[y][x]
}

// DrawSprite composites the sprite rows at the given anchor by XOR.
// The anchor wraps around the screen edges, pixels of the sprite that end up
// outside of the screen are clipped. Every sprite byte is one row, most
// significant bit first. It returns true if any pixel was switched from set
// to unset.
func (f *Framebuffer) DrawSprite(x, y uint8, sprite []byte) bool {
	startX := int(x) % Width
	startY := int(y) % Height
	collision := false

	for row, line := range sprite {
		py := startY + row
		if py >= Height {
			break
		}

		for bit := range spriteWidth {
			px := startX + bit
			if px >= Width {
				break
			}
			if line&(0x80>>bit) == 0 {
				continue
			}

			if f.pixels[py][px] {
				collision = true
			}
			f.pixels[py][px] = !f.pixels[py][px]
		}
	}

	return collision
}

// Pack returns the framebuffer as bits, row by row, most significant bit first.
func (f *Framebuffer) Pack() [PackedSize]byte {
	var packed [PackedSize]byte
	for y := range Height {
		for x := range Width {
			if f.pixels[y][x] {
				index := (y*Width + x) / 8
				packed[index] |= 0x80 >> (x % 8)
			}
		}
	}
	return packed
}

// Unpack restores a framebuffer from its packed representation.
func Unpack(packed [PackedSize]byte) Framebuffer {
	var f Framebuffer
	for y := range Height {
		for x := range Width {
			index := (y*Width + x) / 8
			f.pixels[y][x] = packed[index]&(0x80>>(x%8)) != 0
		}
	}
	return f
}

// Image returns a paletted image of the framebuffer using the given colors
// for unset and set pixels.
func (f *Framebuffer) Image(off, on color.Color) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, Width, Height), color.Palette{off, on})
	for y := range Height {
		for x := range Width {
			if f.pixels[y][x] {
				img.SetColorIndex(x, y, 1)
			}
		}
	}
	return img
}

// RGBA writes the framebuffer as 8-bit RGBA pixels into dst, which must have
// a length of at least Width*Height*4.
func (f *Framebuffer) RGBA(dst []byte, off, on color.RGBA) {
	for y := range Height {
		for x := range Width {
			c := off
			if f.pixels[y][x] {
				c = on
			}
			i := (y*Width + x) * 4
			dst[i] = c.R
			dst[i+1] = c.G
			dst[i+2] = c.B
			dst[i+3] = c.A
		}
	}
}

// String renders the framebuffer as text, using '#' for set and '.' for
// unset pixels, one line per row.
func (f *Framebuffer) String() string {
	var sb strings.Builder
	sb.Grow((Width + 1) * Height)

	for y := range Height {
		for x := range Width {
			if f.pixels[y][x] {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
