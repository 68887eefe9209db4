package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/verte-zerg/minipair/internal/model"
	"github.com/verte-zerg/minipair/internal/session"
)

const (
	defaultPlotHeight   = 8
	minPlotWidth        = 10
	axisLabelTop        = "100%"
	axisLabelMid        = "50%"
	axisLabelBottom     = "0%"
	axisSeparator       = " │ "
	terminalWidthBackup = 80
)

// RenderCurve plots per-session accuracy, smoothed over window sessions,
// on a fixed 0-100% axis. Width 0 fills the terminal.
func RenderCurve(w io.Writer, sessions []model.SessionAggregate, window, width, height int, useColor bool) error {
	if len(sessions) < 2 {
		return nil
	}
	values := make([]float64, len(sessions))
	for i, s := range sessions {
		values[i] = float64(session.Percent(s.Correct, s.Attempted))
	}
	values = MovingAverage(values, window)

	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	cells := makeCells(height, width)
	prevX, prevY := -1, -1
	for x, v := range resampleSeries(values, width) {
		px, py := x*2, valueToRow(v, 0, 100, height*4)
		if prevX >= 0 {
			drawLine(prevX, prevY, px, py, func(dx, dy int) {
				setBrailleDot(cells, dx, dy)
			})
		} else {
			setBrailleDot(cells, px, py)
		}
		prevX, prevY = px, py
	}

	if _, err := fmt.Fprintf(w, "Accuracy (moving average of %d)\n", window); err != nil {
		return err
	}
	labels := makeAxisLabels(height)
	last := values[len(values)-1]
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(PercentColor(int(last))))
	for y := 0; y < height; y++ {
		var row strings.Builder
		for x := 0; x < width; x++ {
			row.WriteRune(brailleFromMask(cells[y][x]))
		}
		line := row.String()
		if useColor {
			line = style.Render(line)
		}
		if _, err := fmt.Fprintf(w, "%*s%s%s\n", len(axisLabelTop), labels[y], axisSeparator, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	plotWidth := totalWidth - displayWidth(axisLabelTop) - displayWidth(axisSeparator)
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// ShouldUseColor reports whether w is a color-capable terminal.
func ShouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func makeAxisLabels(height int) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = axisLabelTop
	if height > 2 {
		labels[height/2] = axisLabelMid
	}
	if height > 1 {
		labels[height-1] = axisLabelBottom
	}
	return labels
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return cells
}

func resampleSeries(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	if len(values) > width {
		for i := 0; i < width; i++ {
			start := i * len(values) / width
			end := (i + 1) * len(values) / width
			if end <= start {
				end = start + 1
			}
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
		return out
	}
	if len(values) == 1 || width == 1 {
		for i := range out {
			out[i] = values[0]
		}
		return out
	}
	for i := 0; i < width; i++ {
		pos := float64(i) * float64(len(values)-1) / float64(width-1)
		idx := int(math.Floor(pos))
		if idx >= len(values)-1 {
			out[i] = values[len(values)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = values[idx]*(1-frac) + values[idx+1]*frac
	}
	return out
}

func valueToRow(v, minVal, maxVal float64, height int) int {
	if height <= 1 {
		return 0
	}
	pos := (v - minVal) / (maxVal - minVal)
	row := int(math.Round((1 - pos) * float64(height-1)))
	if row < 0 {
		row = 0
	}
	if row >= height {
		row = height - 1
	}
	return row
}

// drawLine walks a Bresenham line between two dot coordinates.
func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if y < 0 || x < 0 {
		return
	}
	cellY, cellX := y/4, x/2
	if cellY >= len(cells) || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

// Braille dot bits, indexed by [column][row] within a 2x4 cell.
var brailleDots = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func brailleDotMask(x, y int) uint8 {
	return brailleDots[x][y]
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
