package export

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/harrison/qatriage/internal/models"
)

// CSVExporter writes a header row followed by one row per failure record.
type CSVExporter struct{}

// Export renders the failure records as CSV.
func (ce *CSVExporter) Export(a *models.Analysis) (string, error) {
	if err := checkAnalysis(a); err != nil {
		return "", err
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(Columns); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, rec := range a.Records {
		if err := w.Write(Row(rec)); err != nil {
			return "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV: %w", err)
	}

	return sb.String(), nil
}
