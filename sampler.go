package main

// PixelIndex addresses a pixel in a PixelBuffer as y*Width + x.
type PixelIndex int

// Sample returns the color of pixel i. Indices outside [0, Len()) report
// ErrOutOfBounds; the buffer is never modified.
func (b PixelBuffer) Sample(i PixelIndex) (Color, error) {
	// The unsigned comparison also rejects negative indices.
	if uint(i) >= uint(b.Len()) {
		return Color{}, ErrOutOfBounds
	}
	off := int(i) * 4
	p := b.Pix[off : off+4 : off+4]
	return Color{R: p[0], G: p[1], B: p[2], A: p[3]}, nil
}

// SampleAt returns the color at pixel (x, y).
func (b PixelBuffer) SampleAt(x, y int) (Color, error) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return Color{}, ErrOutOfBounds
	}
	return b.Sample(PixelIndex(y*b.Width + x))
}
