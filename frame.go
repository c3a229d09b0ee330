package main

import (
	"fmt"
	"image"
)

// PixelLayout describes the byte order of one 4-byte pixel in a raw frame.
type PixelLayout int

const (
	// LayoutBGRX is B,G,R,unused. X11 ZPixmap on little-endian servers,
	// ffmpeg bgr0 and GStreamer BGRx all deliver this.
	LayoutBGRX PixelLayout = iota
	// LayoutXRGB is unused,R,G,B (big-endian X servers).
	LayoutXRGB
	// LayoutRGBX is R,G,B,unused (image.RGBA from kbinani/screenshot).
	LayoutRGBX
)

func (l PixelLayout) String() string {
	switch l {
	case LayoutBGRX:
		return "BGRX"
	case LayoutXRGB:
		return "XRGB"
	case LayoutRGBX:
		return "RGBX"
	default:
		return fmt.Sprintf("PixelLayout(%d)", int(l))
	}
}

// offsets returns the positions of R, G and B within a pixel.
func (l PixelLayout) offsets() (r, g, b int, err error) {
	switch l {
	case LayoutBGRX:
		return 2, 1, 0, nil
	case LayoutXRGB:
		return 1, 2, 3, nil
	case LayoutRGBX:
		return 0, 1, 2, nil
	}
	return 0, 0, 0, fmt.Errorf("unsupported pixel layout %v", l)
}

// Frame is a raw display frame. Rows may be padded, so the row stride is
// derived from the data length rather than assumed to be Width*4.
type Frame struct {
	Width  int
	Height int
	Layout PixelLayout
	Data   []byte
}

// Stride returns the number of bytes per row.
func (f Frame) Stride() int {
	if f.Height == 0 {
		return 0
	}
	return len(f.Data) / f.Height
}

// ConvertFrame reorders a raw frame into a tightly packed RGBA PixelBuffer.
// The fourth source byte is discarded and alpha is set to 255.
func ConvertFrame(f Frame) (PixelBuffer, error) {
	if f.Width < 0 || f.Height < 0 {
		return PixelBuffer{}, fmt.Errorf("invalid frame dimensions %dx%d", f.Width, f.Height)
	}
	if f.Width == 0 || f.Height == 0 {
		return PixelBuffer{Width: f.Width, Height: f.Height, Pix: []byte{}}, nil
	}

	ro, gi, bo, err := f.Layout.offsets()
	if err != nil {
		return PixelBuffer{}, err
	}

	stride := f.Stride()
	if stride < f.Width*4 {
		return PixelBuffer{}, fmt.Errorf("frame stride %d too small for width %d", stride, f.Width)
	}

	out := make([]byte, f.Width*f.Height*4)
	o := 0
	for y := 0; y < f.Height; y++ {
		row := f.Data[stride*y : stride*y+f.Width*4]
		for x := 0; x < f.Width; x++ {
			p := row[4*x : 4*x+4]
			out[o] = p[ro]
			out[o+1] = p[gi]
			out[o+2] = p[bo]
			out[o+3] = 255
			o += 4
		}
	}

	return PixelBuffer{Width: f.Width, Height: f.Height, Pix: out}, nil
}

// frameFromRGBA wraps an image.RGBA as an RGBX frame without copying.
func frameFromRGBA(img *image.RGBA) Frame {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 || h == 0 {
		return Frame{Width: w, Height: h, Layout: LayoutRGBX}
	}
	start := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y)
	if start+img.Stride*h > len(img.Pix) {
		// Sub-image whose last row is cut short; repack tightly.
		data := make([]byte, w*4*h)
		for y := 0; y < h; y++ {
			src := start + y*img.Stride
			copy(data[y*w*4:(y+1)*w*4], img.Pix[src:src+w*4])
		}
		return Frame{Width: w, Height: h, Layout: LayoutRGBX, Data: data}
	}
	return Frame{
		Width:  w,
		Height: h,
		Layout: LayoutRGBX,
		Data:   img.Pix[start : start+img.Stride*h],
	}
}
