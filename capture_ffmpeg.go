package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// streamDisplay serves the latest raw frame read from a child process.
// Frame reports ErrWouldBlock until the first full frame has arrived.
type streamDisplay struct {
	cancel context.CancelFunc
	cmd    *exec.Cmd
	done   chan struct{}

	width, height int
	layout        PixelLayout
	frameSize     int

	mu      sync.Mutex
	frame   []byte
	readErr error
}

func newStreamDisplay(w, h int, layout PixelLayout) *streamDisplay {
	return &streamDisplay{
		done:      make(chan struct{}),
		width:     w,
		height:    h,
		layout:    layout,
		frameSize: w * h * 4,
	}
}

func openFFmpegDisplay(ctx context.Context) (Display, string, error) {
	if !hasExecutable("ffmpeg") {
		return nil, "", fmt.Errorf("ffmpeg not found")
	}

	display := os.Getenv("DISPLAY")
	if display == "" {
		return nil, "", fmt.Errorf("DISPLAY not set")
	}

	x, y, w, h, err := primaryBounds()
	if err != nil {
		return nil, "", err
	}

	// The display never outlives the capture that opened it.
	ctx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-nostdin",
		"-loglevel", "error",
		"-f", "x11grab",
		"-framerate", "30",
		"-video_size", fmt.Sprintf("%dx%d", w, h),
		"-i", fmt.Sprintf("%s.0+%d,%d", display, x, y),
		"-frames:v", "1",
		"-f", "rawvideo",
		"-pix_fmt", "bgr0",
		"pipe:1",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, "", fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, "", fmt.Errorf("starting ffmpeg: %w", err)
	}

	d := newStreamDisplay(w, h, LayoutBGRX)
	d.cancel = cancel
	d.cmd = cmd

	go d.readFrames(stdout)

	return d, "FFmpeg", nil
}

func (d *streamDisplay) readFrames(r io.Reader) {
	defer close(d.done)
	buf := make([]byte, d.frameSize)
	for {
		_, err := io.ReadFull(r, buf)
		if err != nil {
			d.mu.Lock()
			if d.frame == nil {
				d.readErr = err
			}
			d.mu.Unlock()
			return
		}
		d.mu.Lock()
		if d.frame == nil {
			d.frame = make([]byte, d.frameSize)
		}
		copy(d.frame, buf)
		d.mu.Unlock()
	}
}

func (d *streamDisplay) Frame() (Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.frame == nil {
		if d.readErr != nil {
			return Frame{}, fmt.Errorf("stream ended before first frame: %w", d.readErr)
		}
		return Frame{}, ErrWouldBlock
	}
	data := make([]byte, len(d.frame))
	copy(data, d.frame)
	return Frame{Width: d.width, Height: d.height, Layout: d.layout, Data: data}, nil
}

func (d *streamDisplay) Close() error {
	if d.cancel != nil {
		d.cancel()
	}
	<-d.done
	if d.cmd == nil {
		return nil
	}
	// The child is killed by cancel; its exit status is not interesting.
	_ = d.cmd.Wait()
	return nil
}
