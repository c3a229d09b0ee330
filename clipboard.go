package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"log"

	"github.com/atotto/clipboard"
	"github.com/disintegration/imaging"
	xclipboard "golang.design/x/clipboard"
)

// ErrClipboardUnavailable covers a clipboard that cannot be opened, holds
// no image, or holds an image that cannot be decoded.
var ErrClipboardUnavailable = errors.New("clipboard image unavailable")

// ClipboardImage is an image payload as supplied by the clipboard:
// tightly packed RGBA with unmultiplied alpha.
type ClipboardImage struct {
	Width  int
	Height int
	Pix    []byte
}

// Clipboard reads the current clipboard image.
type Clipboard interface {
	Image() (ClipboardImage, error)
}

// OpenClipboardFunc opens a clipboard handle.
type OpenClipboardFunc func() (Clipboard, error)

// ClipboardCapture reads an image from the system clipboard.
type ClipboardCapture struct {
	Open OpenClipboardFunc
}

func (c ClipboardCapture) Name() string { return "clipboard" }

// Capture returns the clipboard image as a PixelBuffer. Every failure is
// wrapped in ErrClipboardUnavailable.
func (c ClipboardCapture) Capture(ctx context.Context) (PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return PixelBuffer{}, err
	}

	open := c.Open
	if open == nil {
		open = openSystemClipboard
	}
	cb, err := open()
	if err != nil {
		return PixelBuffer{}, fmt.Errorf("%w: opening clipboard: %w", ErrClipboardUnavailable, err)
	}

	img, err := cb.Image()
	if err != nil {
		return PixelBuffer{}, fmt.Errorf("%w: %w", ErrClipboardUnavailable, err)
	}

	buf, err := NewPixelBuffer(img.Width, img.Height, img.Pix)
	if err != nil {
		return PixelBuffer{}, fmt.Errorf("%w: %w", ErrClipboardUnavailable, err)
	}
	log.Printf("pasted %dx%d image from clipboard", buf.Width, buf.Height)
	return buf, nil
}

// systemClipboard reads PNG image data through golang.design/x/clipboard.
type systemClipboard struct{}

var errNoClipboardImage = errors.New("no image on clipboard")

func openSystemClipboard() (Clipboard, error) {
	if err := xclipboard.Init(); err != nil {
		return nil, err
	}
	return systemClipboard{}, nil
}

func (systemClipboard) Image() (ClipboardImage, error) {
	data := xclipboard.Read(xclipboard.FmtImage)
	if len(data) == 0 {
		return ClipboardImage{}, errNoClipboardImage
	}
	return decodeClipboardImage(data)
}

// decodeClipboardImage decodes encoded image data into unmultiplied RGBA.
func decodeClipboardImage(data []byte) (ClipboardImage, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return ClipboardImage{}, fmt.Errorf("decoding clipboard image: %w", err)
	}
	return clipboardImageFrom(img), nil
}

// clipboardImageFrom converts any image to tightly packed NRGBA, undoing
// alpha premultiplication where the source type carries it.
func clipboardImageFrom(img image.Image) ClipboardImage {
	n := imaging.Clone(img)
	return ClipboardImage{
		Width:  n.Rect.Dx(),
		Height: n.Rect.Dy(),
		Pix:    n.Pix,
	}
}

// CopyColor writes the color's hex string to the clipboard as text.
func CopyColor(c Color) error {
	return clipboard.WriteAll(c.String())
}
