package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/harrison/qatriage/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// MarkdownExporter renders a report with a summary, a group table and one
// failure table per group.
type MarkdownExporter struct {
	// SingleLine collapses multi-line cells onto one line instead of
	// emitting <br/> tags.
	SingleLine bool
}

// Export converts the analysis to Markdown.
func (me *MarkdownExporter) Export(a *models.Analysis) (string, error) {
	if err := checkAnalysis(a); err != nil {
		return "", err
	}

	var sb strings.Builder

	sb.WriteString("# Test Failure Analysis\n\n")

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Total Tests**: %d\n", a.Run.Total))
	sb.WriteString(fmt.Sprintf("- **Passed**: %d\n", a.Run.Passed))
	sb.WriteString(fmt.Sprintf("- **Failed**: %d\n", a.Run.Failed))
	sb.WriteString(fmt.Sprintf("- **Failure Messages**: %d\n", len(a.Records)))
	if a.ClusteringSkipped {
		sb.WriteString(fmt.Sprintf("- **Note**: %s\n", a.SkipReason))
	}
	sb.WriteString("\n")

	if !a.HasFailures() {
		sb.WriteString("No failures detected.\n")
		return sb.String(), nil
	}

	sb.WriteString("## Groups\n\n")
	groups := table.NewWriter()
	groups.AppendHeader(table.Row{"Group", "Failures"})
	for _, g := range a.Groups {
		groups.AppendRow(table.Row{g.DisplayLabel, g.Count})
	}
	sb.WriteString(groups.RenderMarkdown())
	sb.WriteString("\n\n")

	sb.WriteString("## Failures\n\n")
	for _, group := range a.GroupedRecords() {
		sb.WriteString(fmt.Sprintf("### %s (%d failures)\n\n", group.DisplayLabel(), len(group.Records)))

		failures := table.NewWriter()
		header := make(table.Row, len(Columns))
		for i, c := range Columns {
			header[i] = c
		}
		failures.AppendHeader(header)
		for _, rec := range group.Records {
			cells := Row(rec)
			row := make(table.Row, len(cells))
			for i, c := range cells {
				row[i] = me.cell(c)
			}
			failures.AppendRow(row)
		}
		sb.WriteString(failures.RenderMarkdown())
		sb.WriteString("\n\n")
	}

	return sb.String(), nil
}

func (me *MarkdownExporter) cell(s string) string {
	if me.SingleLine {
		s = strings.Join(strings.Fields(s), " ")
	} else {
		s = strings.TrimSpace(s)
	}
	return markdownEscaper.Replace(s)
}

// markdownEscaper keeps message text literal. The table writer already
// escapes pipes and newlines.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	`*`, `\*`,
	`_`, `\_`,
	`[`, `\[`,
	`]`, `\]`,
	`<`, `\<`,
	`>`, `\>`,
	`&`, `\&`,
	`~`, `\~`,
)

// HTMLExporter converts the Markdown report to a standalone HTML page.
type HTMLExporter struct {
	// Title overrides the page title.
	Title string
}

// Export converts the analysis to HTML.
func (he *HTMLExporter) Export(a *models.Analysis) (string, error) {
	md := &MarkdownExporter{SingleLine: true}
	source, err := md.Export(a)
	if err != nil {
		return "", err
	}

	converter := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var body bytes.Buffer
	if err := converter.Convert([]byte(source), &body); err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}

	title := he.Title
	if title == "" {
		title = "Test Failure Analysis"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	sb.WriteString(fmt.Sprintf("<title>%s</title>\n", html.EscapeString(title)))
	sb.WriteString("<style>table{border-collapse:collapse}th,td{border:1px solid #ccc;padding:4px 8px;vertical-align:top}</style>\n")
	sb.WriteString("</head>\n<body>\n")
	sb.Write(body.Bytes())
	sb.WriteString("</body>\n</html>\n")

	return sb.String(), nil
}
