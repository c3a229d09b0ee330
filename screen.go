package main

import (
	"context"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// portableDisplay captures display 0 with kbinani/screenshot. It works on
// every platform the library supports and never reports ErrWouldBlock.
type portableDisplay struct {
	bounds image.Rectangle
}

func openPortableDisplay(context.Context) (Display, string, error) {
	x, y, w, h, err := primaryBounds()
	if err != nil {
		return nil, "", err
	}
	return &portableDisplay{bounds: image.Rect(x, y, x+w, y+h)}, "portable", nil
}

func (d *portableDisplay) Frame() (Frame, error) {
	img, err := screenshot.CaptureRect(d.bounds)
	if err != nil {
		return Frame{}, fmt.Errorf("capturing screen: %w", err)
	}
	return frameFromRGBA(img), nil
}

func (d *portableDisplay) Close() error { return nil }
