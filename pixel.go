package main

import (
	"errors"
	"fmt"
	"image"
)

// ErrOutOfBounds is returned when a pixel index or pointer position maps
// outside the image. Callers treat it as a routine no-op.
var ErrOutOfBounds = errors.New("pixel out of bounds")

// Color holds an 8-bit RGBA color value with unmultiplied alpha.
type Color struct {
	R, G, B, A uint8
}

// Black is the color a fresh session starts with.
var Black = Color{A: 255}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R) * uint32(c.A) / 255
	g = uint32(c.G) * uint32(c.A) / 255
	b = uint32(c.B) * uint32(c.A) / 255
	a = uint32(c.A)
	return r * 0x101, g * 0x101, b * 0x101, a * 0x101
}

// PixelBuffer is a tightly packed RGBA image. Pix holds Width*Height pixels
// of 4 bytes each, row-major, alpha unmultiplied.
//
// A buffer is never modified after it is produced; a new capture replaces
// it wholesale.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []byte
}

// NewPixelBuffer validates that pix holds exactly width*height RGBA pixels.
func NewPixelBuffer(width, height int, pix []byte) (PixelBuffer, error) {
	if width < 0 || height < 0 {
		return PixelBuffer{}, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if want := width * height * 4; len(pix) != want {
		return PixelBuffer{}, fmt.Errorf("pixel data is %d bytes, want %d for %dx%d", len(pix), want, width, height)
	}
	return PixelBuffer{Width: width, Height: height, Pix: pix}, nil
}

// Len returns the number of pixels in the buffer.
func (b PixelBuffer) Len() int {
	return b.Width * b.Height
}

// Empty reports whether the buffer holds no pixels.
func (b PixelBuffer) Empty() bool {
	return b.Len() == 0
}

// Image exposes the buffer as an *image.NRGBA sharing the same bytes.
// The result must be treated as read-only.
func (b PixelBuffer) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}
