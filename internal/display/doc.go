// Package display renders analysis results for the terminal.
//
// A Renderer writes the run summary, a bar chart of failures per group and
// one table of failures per group:
//
//	r := display.NewRenderer(os.Stdout)
//	r.RenderAnalysis(analysis)
//
// Each group gets its own colour. Colour is used only when the writer is a
// terminal (see IsTerminal) unless forced with Renderer.SetColor.
//
// Warnings are written in yellow with an optional detail list and suggestion:
//
//	display.Warning{
//	    Title:      "Clustering skipped",
//	    Message:    analysis.SkipReason,
//	    Suggestion: "Failures are shown in a single group",
//	}.Display(os.Stderr, true)
package display
