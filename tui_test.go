package main

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func testModel() model {
	m := newModel(DefaultConfig())
	m.copyColor = func(Color) error { return nil }
	m.saveWidth = func(float64) error { return nil }
	return m
}

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(model)
}

// runCapture executes the capture command for src the way bubbletea would.
func runCapture(t *testing.T, m model, src CaptureSource) model {
	t.Helper()
	msg := captureCmd(context.Background(), src)()
	return update(t, m, msg)
}

func press(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func TestModel_ScreenCaptureThenPress(t *testing.T) {
	m := testModel()
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m.session = m.session.WithPreviewWidth(10)

	frame := solidFrame(10, 10, Color{B: 255})
	// Paint pixel (9, 8) red.
	off := (8*10 + 9) * 4
	frame.Data[off] = 0
	frame.Data[off+2] = 255
	m.screen = ScreenCapture{Open: openFake(&fakeDisplay{frame: frame})}

	m = runCapture(t, m, m.screen)
	if m.session.Phase != PhaseCaptured {
		t.Fatalf("expected captured, got %v (status %q)", m.session.Phase, m.status)
	}
	if m.preview == "" {
		t.Fatal("preview not rendered")
	}

	// Presses outside the preview are ignored.
	m = update(t, m, press(0, 0))
	if m.session.Color != Black {
		t.Errorf("color changed on outside press: %+v", m.session.Color)
	}

	m = update(t, m, press(previewLeft, previewTop))
	if m.session.Color != (Color{B: 255, A: 255}) {
		t.Errorf("expected opaque blue, got %+v", m.session.Color)
	}

	// Each text row covers two image rows at scale 1.
	m = update(t, m, press(previewLeft+9, previewTop+4))
	if m.session.Color != (Color{R: 255, A: 255}) {
		t.Errorf("expected opaque red, got %+v", m.session.Color)
	}

	// Releases do not sample.
	release := press(previewLeft, previewTop)
	release.Action = tea.MouseActionRelease
	m = update(t, m, release)
	if m.session.Color != (Color{R: 255, A: 255}) {
		t.Errorf("color changed on release: %+v", m.session.Color)
	}
}

// gradient returns an image where every pixel has a distinct opaque color.
func gradient(w, h int) PixelBuffer {
	pix := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = uint8(x*30), uint8(y*50), uint8(x+y), 255
		}
	}
	buf, _ := NewPixelBuffer(w, h, pix)
	return buf
}

func TestModel_PressSamplesDrawnPixel(t *testing.T) {
	m := testModel()
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m.session = m.session.WithPreviewWidth(13)
	buf := gradient(7, 5)
	m.session = m.session.WithImage(buf)
	m = m.rerender()

	width := m.previewWidth()
	drawn := PreviewRect(Point{}, float64(width), buf.Width, buf.Height)
	height := int(math.Ceil(drawn.Height))
	if rows := len(strings.Split(m.preview, "\n")); rows != (height+1)/2 {
		t.Fatalf("preview has %d rows, want %d", rows, (height+1)/2)
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			want := previewPixel(buf, drawn, x, y)

			msg := press(previewLeft+x, previewTop+y/2)
			if y%2 == 1 {
				msg.Button = tea.MouseButtonRight
			}
			m.session.Color = Color{}
			got := update(t, m, msg).session.Color
			if got != want {
				t.Errorf("preview (%d, %d): drawn %v, sampled %v", x, y, want, got)
			}
		}
	}
}

func TestModel_LowerHalfPress(t *testing.T) {
	m := testModel()
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m.session = m.session.WithPreviewWidth(10)
	m.session = m.session.WithImage(gradient(10, 10))

	upper := Color{R: 90, G: 0, B: 3, A: 255}
	lower := Color{R: 90, G: 50, B: 4, A: 255}

	m = update(t, m, press(previewLeft+3, previewTop))
	if m.session.Color != upper {
		t.Errorf("left press: got %v, want %v", m.session.Color, upper)
	}

	right := press(previewLeft+3, previewTop)
	right.Button = tea.MouseButtonRight
	m = update(t, m, right)
	if m.session.Color != lower {
		t.Errorf("right press: got %v, want %v", m.session.Color, lower)
	}

	m = update(t, m, press(previewLeft+3, previewTop))
	alt := press(previewLeft+3, previewTop)
	alt.Alt = true
	m = update(t, m, alt)
	if m.session.Color != lower {
		t.Errorf("alt press: got %v, want %v", m.session.Color, lower)
	}

	middle := press(previewLeft+3, previewTop)
	middle.Button = tea.MouseButtonMiddle
	m = update(t, m, middle)
	if m.session.Color != lower {
		t.Errorf("middle press sampled %v", m.session.Color)
	}
}

func TestModel_QuitSavesChangedWidth(t *testing.T) {
	m := testModel()
	var saved []float64
	m.saveWidth = func(w float64) error { saved = append(saved, w); return nil }

	quit := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
	update(t, m, quit)
	if len(saved) != 0 {
		t.Fatalf("unchanged width was saved: %v", saved)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'-'}})
	_, cmd := m.Update(quit)
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	want := float64(defaultPreviewWidth - widthStep)
	if len(saved) != 1 || saved[0] != want {
		t.Errorf("saved %v, want [%g]", saved, want)
	}
}

func TestModel_ClipboardFailureKeepsState(t *testing.T) {
	m := testModel()
	m.session = m.session.WithImage(fill(2, 2, Color{R: 1, G: 2, B: 3, A: 4}))
	m.session.Color = Color{R: 9, G: 8, B: 7, A: 6}
	before := append([]byte(nil), m.session.Image.Pix...)

	m.clipboard = ClipboardCapture{Open: openClipboard(fakeClipboard{err: errNoClipboardImage}, nil)}
	m = runCapture(t, m, m.clipboard)

	if !m.isErr || !strings.Contains(m.status, "Clipboard error") {
		t.Errorf("expected clipboard error status, got %q", m.status)
	}
	if !bytes.Equal(m.session.Image.Pix, before) {
		t.Error("image bytes changed after failed paste")
	}
	if m.session.Color != (Color{R: 9, G: 8, B: 7, A: 6}) {
		t.Errorf("color changed after failed paste: %+v", m.session.Color)
	}
	if m.session.Phase != PhaseCaptured {
		t.Errorf("phase changed to %v", m.session.Phase)
	}
}

func TestModel_CaptureErrorShown(t *testing.T) {
	m := testModel()
	m.capturing = true
	m = update(t, m, captureDoneMsg{source: "screen", err: ErrNoPrimaryDisplay})
	if m.capturing {
		t.Error("still capturing")
	}
	if !m.isErr || !strings.Contains(m.status, "no primary display") {
		t.Errorf("unexpected status %q", m.status)
	}
	if m.session.Phase != PhaseIdle {
		t.Errorf("expected idle, got %v", m.session.Phase)
	}
}

func TestModel_CancelledCapture(t *testing.T) {
	m := testModel()
	m.capturing = true
	m = update(t, m, captureDoneMsg{source: "screen", err: context.Canceled})
	if m.isErr {
		t.Errorf("cancellation should not be an error: %q", m.status)
	}
}

func TestModel_WidthKeys(t *testing.T) {
	m := testModel()
	start := m.session.PreviewWidth

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'+'}})
	if m.session.PreviewWidth != start+widthStep {
		t.Errorf("expected %g, got %g", start+widthStep, m.session.PreviewWidth)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'-'}})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'-'}})
	if m.session.PreviewWidth != start-widthStep {
		t.Errorf("expected %g, got %g", start-widthStep, m.session.PreviewWidth)
	}
}

func TestModel_PreviewLimitedToTerminal(t *testing.T) {
	m := testModel()
	m = update(t, m, tea.WindowSizeMsg{Width: 42, Height: 20})
	if got := m.previewWidth(); got != 40 {
		t.Errorf("expected drawn width 40, got %d", got)
	}
}

func TestModel_CopyColor(t *testing.T) {
	m := testModel()
	var copied Color
	m.copyColor = func(c Color) error { copied = c; return nil }
	m.session.Color = Color{R: 0x12, G: 0x34, B: 0x56, A: 255}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})
	if copied != m.session.Color {
		t.Errorf("copied %+v", copied)
	}
	if !strings.Contains(m.status, "#123456") {
		t.Errorf("unexpected status %q", m.status)
	}

	m.copyColor = func(Color) error { return errors.New("no clipboard") }
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})
	if !m.isErr {
		t.Error("expected copy failure to be reported")
	}
}

func TestModel_HeaderHeight(t *testing.T) {
	m := testModel()
	if got := len(m.header()); got != previewTop {
		t.Fatalf("header has %d lines, preview expects %d", got, previewTop)
	}
	m.session = m.session.WithImage(fill(4, 2, Black))
	m = m.rerender()
	lines := strings.Split(m.View(), "\n")
	if len(lines) <= previewTop || !strings.Contains(lines[previewTop], halfBlock) {
		t.Errorf("preview does not start at line %d", previewTop)
	}
}
