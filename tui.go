package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Screen position of the preview's top-left cell.
const (
	previewLeft = 2
	previewTop  = 8
)

const widthStep = 10

type captureDoneMsg struct {
	source string
	buf    PixelBuffer
	err    error
}

type keyMap struct {
	Screen   key.Binding
	Paste    key.Binding
	Wider    key.Binding
	Narrower key.Binding
	Copy     key.Binding
	Cancel   key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Screen, k.Paste, k.Wider, k.Narrower, k.Copy, k.Cancel, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Screen:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "screen capture")),
	Paste:    key.NewBinding(key.WithKeys("p", "ctrl+v"), key.WithHelp("p", "paste image")),
	Wider:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "wider")),
	Narrower: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "narrower")),
	Copy:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy hex")),
	Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Quit:     key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
}

type model struct {
	session Session

	// savedWidth is the preview width the session started with; a
	// different width on quit is written back with saveWidth.
	savedWidth float64
	saveWidth  func(float64) error

	screen    CaptureSource
	clipboard CaptureSource
	copyColor func(Color) error

	capturing bool
	cancel    context.CancelFunc

	spinner spinner.Model
	help    help.Model
	status  string
	isErr   bool

	termWidth int
	preview   string
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func newModel(cfg Config) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	session := NewSession(cfg.PreviewWidth)
	return model{
		session:    session,
		savedWidth: session.PreviewWidth,
		saveWidth:  SavePreviewWidth,
		screen:     cfg.ScreenCapture(),
		clipboard:  ClipboardCapture{},
		copyColor:  CopyColor,
		spinner:    s,
		help:       help.New(),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func captureCmd(ctx context.Context, src CaptureSource) tea.Cmd {
	return func() tea.Msg {
		buf, err := src.Capture(ctx)
		return captureDoneMsg{source: src.Name(), buf: buf, err: err}
	}
}

func (m model) startCapture(src CaptureSource) (model, tea.Cmd) {
	if m.capturing {
		return m, nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.capturing = true
	m.cancel = cancel
	m.status = ""
	m.isErr = false
	return m, tea.Batch(m.spinner.Tick, captureCmd(ctx, src))
}

// previewWidth is the drawn width: the operator's width limited to the
// terminal.
func (m model) previewWidth() int {
	w := int(m.session.PreviewWidth)
	if m.termWidth > 0 && w > m.termWidth-previewLeft {
		w = m.termWidth - previewLeft
	}
	if w < 1 {
		w = 1
	}
	return w
}

// previewRect is the preview's rectangle in preview coordinates, where a
// text row is two units tall.
func (m model) previewRect() DisplayRect {
	origin := Point{X: previewLeft, Y: previewTop * 2}
	return PreviewRect(origin, float64(m.previewWidth()), m.session.Image.Width, m.session.Image.Height)
}

func (m model) rerender() model {
	m.preview = renderPreview(m.session.Image, m.previewWidth())
	return m
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.help.Width = msg.Width
		return m.rerender(), nil

	case spinner.TickMsg:
		if !m.capturing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case captureDoneMsg:
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		m.capturing = false
		if msg.err != nil {
			switch {
			case errors.Is(msg.err, context.Canceled):
				m.status, m.isErr = "Capture cancelled.", false
			case errors.Is(msg.err, ErrClipboardUnavailable):
				log.Printf("Clipboard error: %v", msg.err)
				m.status, m.isErr = "Clipboard error: "+msg.err.Error(), true
			default:
				log.Printf("Capture error: %v", msg.err)
				m.status, m.isErr = "Capture error: "+msg.err.Error(), true
			}
			return m, nil
		}
		m.session = m.session.WithImage(msg.buf)
		m.status = fmt.Sprintf("Loaded %dx%d image from %s.", msg.buf.Width, msg.buf.Height, msg.source)
		m.isErr = false
		return m.rerender(), nil

	case tea.MouseMsg:
		p, ok := pointerAt(msg)
		if !ok {
			return m, nil
		}
		if next, ok := m.session.Press(p, m.previewRect()); ok {
			m.session = next
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			if m.cancel != nil {
				m.cancel()
			}
			if m.session.PreviewWidth != m.savedWidth {
				if err := m.saveWidth(m.session.PreviewWidth); err != nil {
					log.Printf("saving preview width: %v", err)
				}
			}
			return m, tea.Quit
		case key.Matches(msg, keys.Cancel):
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		case key.Matches(msg, keys.Screen):
			return m.startCapture(m.screen)
		case key.Matches(msg, keys.Paste):
			return m.startCapture(m.clipboard)
		case key.Matches(msg, keys.Wider):
			m.session = m.session.WithPreviewWidth(m.session.PreviewWidth + widthStep)
			return m.rerender(), nil
		case key.Matches(msg, keys.Narrower):
			m.session = m.session.WithPreviewWidth(m.session.PreviewWidth - widthStep)
			return m.rerender(), nil
		case key.Matches(msg, keys.Copy):
			if err := m.copyColor(m.session.Color); err != nil {
				log.Printf("copying color: %v", err)
				m.status, m.isErr = "Copy failed: "+err.Error(), true
			} else {
				m.status, m.isErr = "Copied "+m.session.Color.String()+".", false
			}
			return m, nil
		}
	}

	return m, nil
}

// pointerAt converts a mouse press on cell (col, row) to preview
// coordinates. A left press picks the upper pixel of the cell; a right
// press, or a left press with alt or ctrl held, picks the lower one.
func pointerAt(msg tea.MouseMsg) (Point, bool) {
	if msg.Action != tea.MouseActionPress {
		return Point{}, false
	}
	p := Point{X: float64(msg.X), Y: float64(msg.Y * 2)}
	switch {
	case msg.Button == tea.MouseButtonRight:
		p.Y++
	case msg.Button != tea.MouseButtonLeft:
		return Point{}, false
	case msg.Alt || msg.Ctrl:
		p.Y++
	}
	return p, true
}

// header returns exactly previewTop lines.
func (m model) header() []string {
	rgba, hex, hsl := describeColor(m.session.Color)
	img := m.session.Image
	r := m.previewRect()

	size := labelStyle.Render("  No image. Press s to capture the screen or p to paste.")
	if m.session.Phase == PhaseCaptured {
		size = fmt.Sprintf("  Image %dx%d shown at %gx%g (width %g)",
			img.Width, img.Height, r.Width, r.Height, m.session.PreviewWidth)
	}

	status := ""
	switch {
	case m.capturing:
		status = "  " + m.spinner.View() + " Capturing..."
	case m.isErr:
		status = errStyle.Render("  " + m.status)
	case m.status != "":
		status = statusStyle.Render("  " + m.status)
	}

	sw := strings.Split(swatch(m.session.Color, 10, 2), "\n")
	return []string{
		"",
		titleStyle.Render("  colorpick"),
		size,
		fmt.Sprintf("  Color: %s  %s  %s", rgba, hex, hsl),
		status,
		"  " + sw[0],
		"  " + sw[1],
		"",
	}
}

func (m model) View() string {
	lines := m.header()
	if m.preview != "" {
		for _, l := range strings.Split(m.preview, "\n") {
			lines = append(lines, strings.Repeat(" ", previewLeft)+l)
		}
	}
	lines = append(lines, "", "  "+m.help.View(keys), "")
	return strings.Join(lines, "\n")
}
