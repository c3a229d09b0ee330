package main

import (
	"bytes"
	"errors"
	"testing"
)

func TestNewPixelBuffer_LengthMismatch(t *testing.T) {
	if _, err := NewPixelBuffer(2, 2, make([]byte, 15)); err == nil {
		t.Fatal("expected error for short pixel data")
	}
	if _, err := NewPixelBuffer(2, 2, make([]byte, 17)); err == nil {
		t.Fatal("expected error for long pixel data")
	}
	if _, err := NewPixelBuffer(-1, 2, nil); err == nil {
		t.Fatal("expected error for negative width")
	}
}

func TestPixelBuffer_ReadBack(t *testing.T) {
	sizes := [][2]int{{1, 1}, {3, 2}, {7, 5}, {0, 0}, {4, 0}}
	for _, sz := range sizes {
		w, h := sz[0], sz[1]
		pix := make([]byte, w*h*4)
		for i := range pix {
			pix[i] = byte(i*31 + 7)
		}

		buf, err := NewPixelBuffer(w, h, pix)
		if err != nil {
			t.Fatalf("%dx%d: NewPixelBuffer: %v", w, h, err)
		}
		if buf.Len() != w*h {
			t.Fatalf("%dx%d: Len = %d", w, h, buf.Len())
		}

		for i := 0; i < w*h; i++ {
			c, err := buf.Sample(PixelIndex(i))
			if err != nil {
				t.Fatalf("%dx%d: Sample(%d): %v", w, h, i, err)
			}
			got := []byte{c.R, c.G, c.B, c.A}
			if !bytes.Equal(got, pix[4*i:4*i+4]) {
				t.Errorf("%dx%d: pixel %d = %v, want %v", w, h, i, got, pix[4*i:4*i+4])
			}
		}
	}
}

func TestSample_OutOfBounds(t *testing.T) {
	buf := fill(3, 2, Color{R: 1, G: 2, B: 3, A: 4})

	for _, i := range []PixelIndex{6, 7, 1000, -1} {
		if _, err := buf.Sample(i); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Sample(%d): expected ErrOutOfBounds, got %v", i, err)
		}
	}

	c, err := buf.Sample(5)
	if err != nil {
		t.Fatalf("Sample(5): %v", err)
	}
	if c != (Color{R: 1, G: 2, B: 3, A: 4}) {
		t.Errorf("Sample(5) = %+v", c)
	}
}

func TestSample_EmptyBuffer(t *testing.T) {
	var buf PixelBuffer
	if _, err := buf.Sample(0); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestSampleAt(t *testing.T) {
	buf := fill(2, 2, Black)
	buf.Pix[3*4] = 200 // (1,1)

	c, err := buf.SampleAt(1, 1)
	if err != nil {
		t.Fatalf("SampleAt: %v", err)
	}
	if c.R != 200 {
		t.Errorf("expected R=200, got %d", c.R)
	}
	if _, err := buf.SampleAt(2, 0); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("SampleAt(2, 0): expected ErrOutOfBounds, got %v", err)
	}
}

func TestColor_String(t *testing.T) {
	c := Color{R: 255, G: 128, B: 0, A: 255}
	if got := c.String(); got != "#ff8000" {
		t.Errorf("expected #ff8000, got %s", got)
	}
}

func TestPixelBuffer_Image(t *testing.T) {
	buf := fill(3, 2, Color{R: 10, G: 20, B: 30, A: 40})
	img := buf.Image()
	if img.Rect.Dx() != 3 || img.Rect.Dy() != 2 {
		t.Fatalf("unexpected bounds %v", img.Rect)
	}
	got := img.NRGBAAt(2, 1)
	if got.R != 10 || got.G != 20 || got.B != 30 || got.A != 40 {
		t.Errorf("NRGBAAt(2, 1) = %+v", got)
	}
}

// fill returns a width x height buffer where every pixel is c.
func fill(width, height int, c Color) PixelBuffer {
	pix := make([]byte, width*height*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i] = c.R
		pix[i+1] = c.G
		pix[i+2] = c.B
		pix[i+3] = c.A
	}
	return PixelBuffer{Width: width, Height: height, Pix: pix}
}
