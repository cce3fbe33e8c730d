package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/harrison/qatriage/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarLength(t *testing.T) {
	tests := []struct {
		name                   string
		count, maxCount, width int
		want                   int
	}{
		{"largest fills width", 10, 10, 30, 30},
		{"half", 5, 10, 30, 15},
		{"tiny group gets one cell", 1, 1000, 30, 1},
		{"zero count", 0, 10, 30, 0},
		{"zero max", 3, 0, 30, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, barLength(tt.count, tt.maxCount, tt.width))
		})
	}
}

func TestGroupChartRender(t *testing.T) {
	var buf bytes.Buffer
	chart := NewGroupChart(&buf, 10, false)
	chart.Render([]models.GroupCount{
		{Label: 1, DisplayLabel: "Group 2", Count: 2},
		{Label: 0, DisplayLabel: "Group 1", Count: 1},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Failures by group:", lines[0])
	assert.Equal(t, "  Group 2  "+strings.Repeat("█", 10)+"  2 (66.7%)", lines[1])
	assert.Equal(t, "  Group 1  "+strings.Repeat("█", 5)+strings.Repeat("░", 5)+"  1 (33.3%)", lines[2])
}

func TestGroupChartEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewGroupChart(&buf, 0, false).Render(nil)
	assert.Empty(t, buf.String())
}

func TestGroupChartColor(t *testing.T) {
	var buf bytes.Buffer
	NewGroupChart(&buf, 4, true).Render([]models.GroupCount{{Label: 0, DisplayLabel: "Group 1", Count: 1}})
	assert.Contains(t, buf.String(), "\x1b[31m")
}

func TestGroupColorWraps(t *testing.T) {
	a := GroupColor(0)
	b := GroupColor(len(groupPalette))
	a.EnableColor()
	b.EnableColor()
	assert.Equal(t, a.Sprint("x"), b.Sprint("x"))
}
