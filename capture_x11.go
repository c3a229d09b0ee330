package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// x11Display reads the root window with a ZPixmap GetImage request. Rows
// come back padded to the server's scanline pad, in the server's byte order.
type x11Display struct {
	conn   *xgb.Conn
	root   xproto.Window
	layout PixelLayout

	x, y, w, h int
}

func openX11Display(context.Context) (Display, string, error) {
	if os.Getenv("DISPLAY") == "" {
		return nil, "", fmt.Errorf("DISPLAY not set")
	}

	x, y, w, h, err := primaryBounds()
	if err != nil {
		return nil, "", err
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return nil, "", fmt.Errorf("connecting to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	layout, err := x11Layout(setup, screen.RootDepth)
	if err != nil {
		conn.Close()
		return nil, "", err
	}

	return &x11Display{
		conn:   conn,
		root:   screen.Root,
		layout: layout,
		x:      x,
		y:      y,
		w:      w,
		h:      h,
	}, "X11", nil
}

// x11Layout picks the pixel layout for the root depth. Only 32 bits per
// pixel formats are supported.
func x11Layout(setup *xproto.SetupInfo, depth byte) (PixelLayout, error) {
	for _, f := range setup.PixmapFormats {
		if f.Depth != depth {
			continue
		}
		if f.BitsPerPixel != 32 {
			return 0, fmt.Errorf("unsupported X11 pixmap format: depth %d, %d bpp", depth, f.BitsPerPixel)
		}
		if setup.ImageByteOrder == xproto.ImageOrderMSBFirst {
			return LayoutXRGB, nil
		}
		return LayoutBGRX, nil
	}
	return 0, fmt.Errorf("no X11 pixmap format for depth %d", depth)
}

func (d *x11Display) Frame() (Frame, error) {
	reply, err := xproto.GetImage(d.conn, xproto.ImageFormatZPixmap, xproto.Drawable(d.root),
		int16(d.x), int16(d.y), uint16(d.w), uint16(d.h), 0xffffffff).Reply()
	if err != nil {
		return Frame{}, fmt.Errorf("GetImage: %w", err)
	}
	return Frame{
		Width:  d.w,
		Height: d.h,
		Layout: d.layout,
		Data:   reply.Data,
	}, nil
}

func (d *x11Display) Close() error {
	d.conn.Close()
	return nil
}
