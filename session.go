package main

import (
	"errors"
	"log"
	"math"
)

// Phase is the operator-visible state of a session.
type Phase int

const (
	// PhaseIdle: nothing captured yet.
	PhaseIdle Phase = iota
	// PhaseCaptured: an image is held and can be sampled.
	PhaseCaptured
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCaptured:
		return "captured"
	}
	return "unknown"
}

const (
	minPreviewWidth     = 10
	maxPreviewWidth     = 500
	defaultPreviewWidth = 300
)

// Session is the current image and color. Operations return a new Session
// and leave the receiver untouched.
type Session struct {
	Phase        Phase
	Image        PixelBuffer
	Color        Color
	PreviewWidth float64
}

// NewSession returns an idle session with a black current color.
func NewSession(previewWidth float64) Session {
	return Session{
		Phase:        PhaseIdle,
		Color:        Black,
		PreviewWidth: clampWidth(previewWidth),
	}
}

// WithImage replaces the held image.
func (s Session) WithImage(buf PixelBuffer) Session {
	s.Image = buf
	s.Phase = PhaseCaptured
	return s
}

// WithPreviewWidth sets the preview width, clamped to the slider range.
func (s Session) WithPreviewWidth(w float64) Session {
	s.PreviewWidth = clampWidth(w)
	return s
}

// Press samples the pixel under p. ok is false when the press missed the
// image or mapped out of bounds; s is then returned unchanged.
func (s Session) Press(p Point, r DisplayRect) (next Session, ok bool) {
	if s.Phase != PhaseCaptured {
		return s, false
	}
	idx, err := MapPointer(p, r, s.Image.Width, s.Image.Height)
	if err != nil {
		if errors.Is(err, ErrOutOfBounds) {
			log.Printf("press at (%.1f, %.1f) out of bounds", p.X, p.Y)
		}
		return s, false
	}
	c, err := s.Image.Sample(idx)
	if err != nil {
		log.Printf("index %d out of bounds", idx)
		return s, false
	}
	log.Printf("sampled (%d, %d) at scale %g, index %d: %s",
		int(idx)%s.Image.Width, int(idx)/s.Image.Width, float64(s.Image.Width)/r.Width, idx, c)
	s.Color = c
	return s, true
}

func clampWidth(w float64) float64 {
	if w == 0 || math.IsNaN(w) {
		return defaultPreviewWidth
	}
	return math.Max(minPreviewWidth, math.Min(maxPreviewWidth, w))
}
