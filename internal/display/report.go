package display

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/harrison/qatriage/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// DefaultCellWidth wraps long table cells.
const DefaultCellWidth = 60

// NoFailuresMessage is printed when a report has no failed test.
const NoFailuresMessage = "No failures detected"

// Renderer writes an analysis to a terminal or plain writer.
type Renderer struct {
	out         io.Writer
	colorOutput bool
	barWidth    int
	cellWidth   int
}

// NewRenderer creates a Renderer. Colour is enabled when out is a terminal.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{
		out:         out,
		colorOutput: IsTerminal(out),
		barWidth:    DefaultBarWidth,
		cellWidth:   DefaultCellWidth,
	}
}

// SetColor forces colour output on or off.
func (r *Renderer) SetColor(enabled bool) {
	r.colorOutput = enabled
}

// SetCellWidth sets the wrap width of failure table cells (0 = no wrapping).
func (r *Renderer) SetCellWidth(width int) {
	r.cellWidth = width
}

// RenderAnalysis writes the summary, the group chart and the failure tables.
func (r *Renderer) RenderAnalysis(a *models.Analysis) {
	r.RenderSummary(a.Run)

	if !a.HasFailures() {
		r.paint(color.New(color.FgGreen)).Fprintln(r.out, NoFailuresMessage)
		return
	}

	if a.ClusteringSkipped {
		WarnClusteringSkipped(a.SkipReason, len(a.Records)).Display(r.out, r.colorOutput)
	}

	fmt.Fprintln(r.out)
	NewGroupChart(r.out, r.barWidth, r.colorOutput).Render(a.Groups)
	fmt.Fprintln(r.out)
	r.RenderFailures(a)
}

// RenderSummary writes the test counts.
func (r *Renderer) RenderSummary(run models.TestRun) {
	bold := r.paint(color.New(color.Bold))
	bold.Fprintln(r.out, "Test Summary")
	fmt.Fprintf(r.out, "  Total tests: %d\n", run.Total)
	fmt.Fprintf(r.out, "  Passed:      %s\n", r.paint(color.New(color.FgGreen)).Sprint(run.Passed))
	fmt.Fprintf(r.out, "  Failed:      %s\n", r.paint(color.New(color.FgRed)).Sprint(run.Failed))
}

// RenderFailures writes one table per group, groups in first-appearance order.
// Cause and fix columns are shown only when some record carries a diagnosis.
func (r *Renderer) RenderFailures(a *models.Analysis) {
	withDiagnosis := false
	for _, rec := range a.Records {
		if rec.Cause != "" || rec.Fix != "" {
			withDiagnosis = true
			break
		}
	}

	for _, group := range a.GroupedRecords() {
		title := GroupColor(group.Label)
		title.Add(color.Bold)
		r.paint(title).Fprintf(r.out, "%s (%d failures)\n", group.DisplayLabel(), len(group.Records))

		t := table.NewWriter()
		t.SetStyle(table.StyleLight)
		t.Style().Format.Header = text.FormatDefault

		header := table.Row{"#", "Test", "Error"}
		if withDiagnosis {
			header = append(header, "Probable cause", "Suggested fix")
		}
		t.AppendHeader(header)

		for i, rec := range group.Records {
			row := table.Row{i + 1, rec.TestName, rec.SimplifiedMessage}
			if withDiagnosis {
				row = append(row, rec.Cause, rec.Fix)
			}
			t.AppendRow(row)
		}

		if r.cellWidth > 0 {
			configs := make([]table.ColumnConfig, 0, len(header)-1)
			for n := 2; n <= len(header); n++ {
				configs = append(configs, table.ColumnConfig{Number: n, WidthMax: r.cellWidth})
			}
			t.SetColumnConfigs(configs)
		}

		fmt.Fprintln(r.out, t.Render())
		fmt.Fprintln(r.out)
	}
}

func (r *Renderer) paint(c *color.Color) *color.Color {
	if r.colorOutput {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}
