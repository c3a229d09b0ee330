package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"time"

	"github.com/kbinani/screenshot"
)

// frameInterval is one 60fps frame, the wait between frame polls.
const frameInterval = time.Second / 60

var (
	// ErrWouldBlock is returned by Display.Frame when no frame is ready yet.
	ErrWouldBlock = errors.New("frame not ready")

	// ErrCaptureFatal wraps any display failure other than ErrWouldBlock.
	ErrCaptureFatal = errors.New("screen capture failed")

	// ErrNoPrimaryDisplay is returned when no primary display can be resolved.
	ErrNoPrimaryDisplay = errors.New("no primary display")

	// ErrCaptureTimeout is returned when the retry limit or deadline is hit
	// before a frame becomes ready.
	ErrCaptureTimeout = errors.New("timed out waiting for a frame")
)

// CaptureSource produces a PixelBuffer from somewhere.
type CaptureSource interface {
	Name() string
	Capture(ctx context.Context) (PixelBuffer, error)
}

// Display is a capture handle bound to the primary display.
type Display interface {
	// Frame returns the current frame, or ErrWouldBlock if none is ready.
	Frame() (Frame, error)
	Close() error
}

// OpenDisplayFunc opens a Display and reports the backend name. Backends
// that negotiate with the desktop before the first frame honor ctx.
type OpenDisplayFunc func(ctx context.Context) (Display, string, error)

// ScreenCapture captures the primary display.
type ScreenCapture struct {
	Open OpenDisplayFunc

	// Interval is the wait between polls; zero means one 60fps frame.
	Interval time.Duration
	// MaxRetries bounds the number of not-ready polls; zero is unbounded.
	MaxRetries int
	// Deadline bounds the whole capture; zero is unbounded.
	Deadline time.Duration
}

func (s ScreenCapture) Name() string { return "screen" }

// Capture opens the display, polls until a frame is ready and converts it.
// The display handle is released before returning.
func (s ScreenCapture) Capture(ctx context.Context) (PixelBuffer, error) {
	if s.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Deadline)
		defer cancel()
	}

	open := s.Open
	if open == nil {
		open = OpenDisplay(BackendAuto)
	}
	d, method, err := open(ctx)
	if err != nil {
		if cerr := s.contextErr(ctx); cerr != nil {
			return PixelBuffer{}, cerr
		}
		if errors.Is(err, ErrNoPrimaryDisplay) {
			return PixelBuffer{}, err
		}
		return PixelBuffer{}, fmt.Errorf("%w: opening display: %w", ErrCaptureFatal, err)
	}
	defer d.Close()

	interval := s.interval()
	for retries := 0; ; retries++ {
		f, err := d.Frame()
		if err == nil {
			buf, err := ConvertFrame(f)
			if err != nil {
				return PixelBuffer{}, fmt.Errorf("%w: %s: %w", ErrCaptureFatal, method, err)
			}
			log.Printf("captured %dx%d via %s after %d retries", buf.Width, buf.Height, method, retries)
			return buf, nil
		}
		if !errors.Is(err, ErrWouldBlock) {
			return PixelBuffer{}, fmt.Errorf("%w: %s: %w", ErrCaptureFatal, method, err)
		}
		if s.MaxRetries > 0 && retries >= s.MaxRetries {
			return PixelBuffer{}, fmt.Errorf("%w after %d retries", ErrCaptureTimeout, retries)
		}

		if err := sleepContext(ctx, interval); err != nil {
			return PixelBuffer{}, s.contextErr(ctx)
		}
	}
}

func (s ScreenCapture) interval() time.Duration {
	if s.Interval <= 0 {
		return frameInterval
	}
	return s.Interval
}

// contextErr maps a finished ctx to the capture error: ErrCaptureTimeout
// when the configured deadline ran out, ctx.Err() otherwise.
func (s ScreenCapture) contextErr(ctx context.Context) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && s.Deadline > 0 {
		return fmt.Errorf("%w after %s", ErrCaptureTimeout, s.Deadline)
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Backend names a screen capture implementation.
type Backend string

const (
	BackendAuto     Backend = "auto"
	BackendX11      Backend = "x11"
	BackendPortable Backend = "portable"
	BackendFFmpeg   Backend = "ffmpeg"
	BackendPipeWire Backend = "pipewire"
)

// OpenDisplay returns an OpenDisplayFunc for the given backend.
// BackendAuto tries PipeWire (Wayland only) → X11 → FFmpeg → portable
// and uses the first that opens.
func OpenDisplay(b Backend) OpenDisplayFunc {
	switch b {
	case BackendX11:
		return openX11Display
	case BackendPortable:
		return openPortableDisplay
	case BackendFFmpeg:
		return openFFmpegDisplay
	case BackendPipeWire:
		return openPipeWireDisplay
	}
	return openAutoDisplay
}

func openAutoDisplay(ctx context.Context) (Display, string, error) {
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		d, method, err := openPipeWireDisplay(ctx)
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		if err == nil {
			return d, method, nil
		}
		log.Printf("pipewire unavailable: %v", err)
	}

	d, method, err := openX11Display(ctx)
	if err == nil {
		return d, method, nil
	}
	if errors.Is(err, ErrNoPrimaryDisplay) {
		return nil, "", err
	}
	log.Printf("x11 unavailable: %v", err)

	d, method, err = openFFmpegDisplay(ctx)
	if err == nil {
		return d, method, nil
	}
	log.Printf("ffmpeg unavailable: %v", err)

	return openPortableDisplay(ctx)
}

// hasExecutable reports whether the named program is on PATH.
func hasExecutable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// primaryBounds returns the size of display 0 using kbinani/screenshot.
func primaryBounds() (x, y, w, h int, err error) {
	if screenshot.NumActiveDisplays() == 0 {
		return 0, 0, 0, 0, ErrNoPrimaryDisplay
	}
	b := screenshot.GetDisplayBounds(0)
	if b.Empty() {
		return 0, 0, 0, 0, fmt.Errorf("%w: display 0 has empty bounds", ErrNoPrimaryDisplay)
	}
	return b.Min.X, b.Min.Y, b.Dx(), b.Dy(), nil
}
