package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/harrison/qatriage/internal/models"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Details    []string // Related items, listed numbered (optional)
	Suggestion string   // Action to take (optional)
}

// Display writes the warning, in yellow when colorOutput is set.
func (w Warning) Display(out io.Writer, colorOutput bool) {
	var b strings.Builder

	b.WriteString("Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	for i, d := range w.Details {
		b.WriteString(fmt.Sprintf("      %d. %s\n", i+1, d))
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion: ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	yellow := color.New(color.FgYellow)
	if colorOutput {
		yellow.EnableColor()
	} else {
		yellow.DisableColor()
	}
	yellow.Fprint(out, b.String())
}

// WarnClusteringSkipped builds the warning shown when every failure was
// placed in a single fallback group.
func WarnClusteringSkipped(reason string, failures int) Warning {
	return Warning{
		Title:      "Clustering skipped",
		Message:    reason,
		Suggestion: fmt.Sprintf("All %d failures are listed in %s", failures, models.GroupDisplayLabel(0)),
	}
}
