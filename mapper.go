package main

import (
	"errors"
	"math"
)

// ErrOutsidePreview means the pointer is not over the preview. It is the
// common case of a click elsewhere and is not reported to the operator.
var ErrOutsidePreview = errors.New("pointer outside preview")

// Point is a position in preview coordinates.
type Point struct {
	X, Y float64
}

// DisplayRect is where the (possibly rescaled) image is drawn.
type DisplayRect struct {
	Origin        Point
	Width, Height float64
}

// Contains reports whether p lies inside r, both edges inclusive.
func (r DisplayRect) Contains(p Point) bool {
	return p.X >= r.Origin.X && p.X <= r.Origin.X+r.Width &&
		p.Y >= r.Origin.Y && p.Y <= r.Origin.Y+r.Height
}

// PreviewRect returns the rectangle for an image of the given native size
// drawn at width, with the height following the image's aspect ratio.
func PreviewRect(origin Point, width float64, imgWidth, imgHeight int) DisplayRect {
	if imgWidth <= 0 {
		return DisplayRect{Origin: origin}
	}
	return DisplayRect{
		Origin: origin,
		Width:  width,
		Height: width * float64(imgHeight) / float64(imgWidth),
	}
}

// MapPointer converts a pointer position over r into the index of the
// corresponding pixel of a width x height source image.
//
// The scale is taken from the x axis only; r must preserve the source
// aspect ratio (see PreviewRect).
func MapPointer(p Point, r DisplayRect, width, height int) (PixelIndex, error) {
	if !(r.Width > 0) || !(r.Height > 0) || !r.Contains(p) {
		return 0, ErrOutsidePreview
	}
	if width <= 0 || height <= 0 {
		return 0, ErrOutOfBounds
	}

	scale := float64(width) / r.Width
	fx := math.Floor((p.X - r.Origin.X) * scale)
	fy := math.Floor((p.Y - r.Origin.Y) * scale)

	// NaN fails both comparisons.
	if !(fx >= 0) || !(fy >= 0) {
		return 0, ErrOutOfBounds
	}
	// The inclusive far edge lands one past the last column or row; reject
	// it instead of wrapping into the next row.
	if fx >= float64(width) || fy >= float64(height) {
		return 0, ErrOutOfBounds
	}

	x, y := int(fx), int(fy)
	index := y*width + x
	if uint(index) >= uint(width*height) {
		return 0, ErrOutOfBounds
	}
	return PixelIndex(index), nil
}
