// Package export renders an analysis as CSV, JSON, YAML, Markdown or HTML
// and writes export files atomically.
package export

import (
	"fmt"
	"strings"

	"github.com/harrison/qatriage/internal/filelock"
	"github.com/harrison/qatriage/internal/models"
)

// Columns is the tabular export schema, in order.
var Columns = []string{
	"Test",
	"Full error",
	"Simplified error",
	"Probable cause",
	"Suggested fix",
	"Group",
}

// Format identifies an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formats lists the canonical formats.
var Formats = []Format{FormatCSV, FormatJSON, FormatYAML, FormatMarkdown, FormatHTML}

// Exporter renders an analysis into a document.
type Exporter interface {
	Export(a *models.Analysis) (string, error)
}

// ParseFormat resolves a user-supplied format name. "md" and "yml" are
// accepted as aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("invalid format '%s': must be one of csv, json, yaml, markdown, html", name)
}

// Extension returns the file extension used for f, with the leading dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatYAML:
		return ".yaml"
	}
	return "." + string(f)
}

// NewExporter returns the exporter for f.
func NewExporter(f Format) (Exporter, error) {
	switch f {
	case FormatCSV:
		return &CSVExporter{}, nil
	case FormatJSON:
		return &JSONExporter{Pretty: true}, nil
	case FormatYAML:
		return &YAMLExporter{}, nil
	case FormatMarkdown:
		return &MarkdownExporter{}, nil
	case FormatHTML:
		return &HTMLExporter{}, nil
	}
	return nil, fmt.Errorf("unsupported export format %q", f)
}

// Render is a shorthand for NewExporter(f).Export(a).
func Render(f Format, a *models.Analysis) (string, error) {
	exp, err := NewExporter(f)
	if err != nil {
		return "", err
	}
	return exp.Export(a)
}

// WriteFile writes content to path atomically while holding path's lock file.
func WriteFile(path, content string) error {
	if err := filelock.LockAndWrite(path, []byte(content)); err != nil {
		return fmt.Errorf("failed to write export %s: %w", path, err)
	}
	return nil
}

// Row returns the tabular cells of rec in Columns order.
func Row(rec models.FailureRecord) []string {
	return []string{
		rec.TestName,
		rec.RawMessage,
		rec.SimplifiedMessage,
		rec.Cause,
		rec.Fix,
		rec.GroupLabel(),
	}
}

func checkAnalysis(a *models.Analysis) error {
	if a == nil {
		return fmt.Errorf("analysis cannot be nil")
	}
	if err := a.Validate(); err != nil {
		return fmt.Errorf("invalid analysis: %w", err)
	}
	return nil
}
