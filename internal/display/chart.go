package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/harrison/qatriage/internal/models"
)

// DefaultBarWidth is the width of the longest bar in the group chart.
const DefaultBarWidth = 30

const (
	barFilled = "█"
	barEmpty  = "░"
)

var groupPalette = []color.Attribute{
	color.FgRed,
	color.FgYellow,
	color.FgCyan,
	color.FgMagenta,
	color.FgBlue,
	color.FgGreen,
}

// GroupColor returns the colour of a cluster label. Labels beyond the
// palette wrap around.
func GroupColor(label int) *color.Color {
	if label < 0 {
		label = -label
	}
	return color.New(groupPalette[label%len(groupPalette)])
}

// GroupChart draws one horizontal bar per group, scaled to the largest group.
type GroupChart struct {
	writer      io.Writer
	width       int
	colorOutput bool
}

// NewGroupChart creates a chart writing to w. Non-positive widths use
// DefaultBarWidth.
func NewGroupChart(w io.Writer, width int, colorOutput bool) *GroupChart {
	if width <= 0 {
		width = DefaultBarWidth
	}
	return &GroupChart{writer: w, width: width, colorOutput: colorOutput}
}

// Render writes the chart. Nothing is written for an empty group list.
func (c *GroupChart) Render(groups []models.GroupCount) {
	if len(groups) == 0 {
		return
	}

	maxCount, total, labelWidth := 0, 0, 0
	for _, g := range groups {
		total += g.Count
		if g.Count > maxCount {
			maxCount = g.Count
		}
		if len(g.DisplayLabel) > labelWidth {
			labelWidth = len(g.DisplayLabel)
		}
	}

	fmt.Fprintln(c.writer, "Failures by group:")
	for _, g := range groups {
		filled := barLength(g.Count, maxCount, c.width)
		bar := strings.Repeat(barFilled, filled) + strings.Repeat(barEmpty, c.width-filled)

		col := GroupColor(g.Label)
		if c.colorOutput {
			col.EnableColor()
		} else {
			col.DisableColor()
		}

		fmt.Fprintf(c.writer, "  %-*s  %s  %d (%.1f%%)\n",
			labelWidth, g.DisplayLabel, col.Sprint(bar), g.Count, percent(g.Count, total))
	}
}

// barLength scales count to width. Non-empty groups always get one cell.
func barLength(count, maxCount, width int) int {
	if count <= 0 || maxCount <= 0 {
		return 0
	}
	n := count * width / maxCount
	if n < 1 {
		n = 1
	}
	if n > width {
		n = width
	}
	return n
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}
