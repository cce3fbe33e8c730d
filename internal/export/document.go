package export

import (
	"encoding/json"
	"fmt"

	"github.com/harrison/qatriage/internal/models"
	"gopkg.in/yaml.v3"
)

// Document is the structured export of one analysis.
type Document struct {
	Summary  models.TestRun         `json:"summary" yaml:"summary"`
	Clusters int                    `json:"clusters" yaml:"clusters"`
	Skipped  string                 `json:"clustering_skipped,omitempty" yaml:"clustering_skipped,omitempty"`
	Groups   []models.GroupCount    `json:"groups" yaml:"groups"`
	Failures []models.FailureRecord `json:"failures" yaml:"failures"`
}

// NewDocument builds the structured export of a.
func NewDocument(a *models.Analysis) Document {
	doc := Document{
		Summary:  a.Run,
		Clusters: a.Clusters,
		Groups:   a.Groups,
		Failures: a.Records,
	}
	if a.ClusteringSkipped {
		doc.Skipped = a.SkipReason
	}
	if doc.Groups == nil {
		doc.Groups = []models.GroupCount{}
	}
	if doc.Failures == nil {
		doc.Failures = []models.FailureRecord{}
	}
	return doc
}

// JSONExporter renders the analysis as a JSON document.
type JSONExporter struct {
	Pretty bool // Enable pretty printing with indentation
}

// Export converts the analysis to JSON.
func (je *JSONExporter) Export(a *models.Analysis) (string, error) {
	if err := checkAnalysis(a); err != nil {
		return "", err
	}

	var data []byte
	var err error
	if je.Pretty {
		data, err = json.MarshalIndent(NewDocument(a), "", "  ")
	} else {
		data, err = json.Marshal(NewDocument(a))
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return string(data) + "\n", nil
}

// YAMLExporter renders the analysis as a YAML document.
type YAMLExporter struct{}

// Export converts the analysis to YAML.
func (ye *YAMLExporter) Export(a *models.Analysis) (string, error) {
	if err := checkAnalysis(a); err != nil {
		return "", err
	}

	data, err := yaml.Marshal(NewDocument(a))
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	return string(data), nil
}
