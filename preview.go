package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// The terminal preview draws two image rows per text row with an upper
// half block: foreground is the top pixel, background the bottom one.
// Preview coordinates are therefore one unit per column horizontally and
// two units per text row vertically.
const halfBlock = "▀"

// renderPreview draws buf at width preview pixels. Each preview pixel shows
// the source pixel MapPointer resolves for that position, so a press always
// samples the color drawn under it.
func renderPreview(buf PixelBuffer, width int) string {
	if buf.Empty() || width <= 0 {
		return ""
	}
	r := PreviewRect(Point{}, float64(width), buf.Width, buf.Height)
	height := int(math.Ceil(r.Height))
	if height < 1 {
		height = 1
	}

	var sb strings.Builder
	for y := 0; y < height; y += 2 {
		for x := 0; x < width; x++ {
			style := lipgloss.NewStyle().Foreground(termColor(previewPixel(buf, r, x, y)))
			if y+1 < height {
				style = style.Background(termColor(previewPixel(buf, r, x, y+1)))
			}
			sb.WriteString(style.Render(halfBlock))
		}
		if y+2 < height {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// previewPixel returns the source color at preview position (x, y) of r.
func previewPixel(buf PixelBuffer, r DisplayRect, x, y int) Color {
	idx, err := MapPointer(Point{X: r.Origin.X + float64(x), Y: r.Origin.Y + float64(y)}, r, buf.Width, buf.Height)
	if err != nil {
		return Black
	}
	c, err := buf.Sample(idx)
	if err != nil {
		return Black
	}
	return c
}

// termColor is c as an opaque terminal color.
func termColor(c Color) lipgloss.Color {
	cc, _ := colorful.MakeColor(Color{R: c.R, G: c.G, B: c.B, A: 255})
	return lipgloss.Color(cc.Hex())
}

// swatch renders a block filled with c.
func swatch(c Color, w, h int) string {
	line := strings.Repeat(" ", w)
	style := lipgloss.NewStyle().Background(termColor(c))
	rows := make([]string, h)
	for i := range rows {
		rows[i] = style.Render(line)
	}
	return strings.Join(rows, "\n")
}

// describeColor formats c as the RGBA tuple, hex and HSL.
func describeColor(c Color) (rgba, hex, hsl string) {
	cc, _ := colorful.MakeColor(Color{R: c.R, G: c.G, B: c.B, A: 255})
	h, s, l := cc.Hsl()
	return fmt.Sprintf("(%d, %d, %d, %d)", c.R, c.G, c.B, c.A),
		cc.Hex(),
		fmt.Sprintf("hsl(%.0f, %.0f%%, %.0f%%)", h, s*100, l*100)
}
