package models

import "fmt"

// UnnamedTest is the name used for a test element without a name attribute.
const UnnamedTest = "Unnamed test"

// TestRun holds the test counts of one report.
// Passed + Failed always equals Total.
type TestRun struct {
	Total  int `json:"total_tests" yaml:"total_tests"`
	Passed int `json:"passed_count" yaml:"passed_count"`
	Failed int `json:"failed_count" yaml:"failed_count"`
}

// FailedTest is a test whose own status is FAIL, with its failure messages
// in document order.
type FailedTest struct {
	Name     string   `json:"name" yaml:"name"`
	Messages []string `json:"messages" yaml:"messages"`
}

// FailureRecord is one fully annotated failure message.
type FailureRecord struct {
	TestName          string `json:"test_name" yaml:"test_name"`
	RawMessage        string `json:"raw_message" yaml:"raw_message"`
	SimplifiedMessage string `json:"simplified_message" yaml:"simplified_message"`
	ClusterLabel      int    `json:"cluster_label" yaml:"cluster_label"`
	Cause             string `json:"cause" yaml:"cause"`
	Fix               string `json:"fix" yaml:"fix"`
}

// GroupLabel returns the display label of the record's cluster.
func (r FailureRecord) GroupLabel() string {
	return GroupDisplayLabel(r.ClusterLabel)
}

// GroupCount is the number of records sharing a cluster label.
type GroupCount struct {
	Label        int    `json:"label" yaml:"label"`
	DisplayLabel string `json:"display_label" yaml:"display_label"`
	Count        int    `json:"count" yaml:"count"`
}

// GroupDisplayLabel renders a cluster label as a 1-based group name.
func GroupDisplayLabel(label int) string {
	return fmt.Sprintf("Group %d", label+1)
}

// Analysis is the output of one pipeline run.
type Analysis struct {
	Run     TestRun         `json:"summary" yaml:"summary"`
	Records []FailureRecord `json:"failures" yaml:"failures"`
	Groups  []GroupCount    `json:"groups" yaml:"groups"`

	// Clusters is k, the number of clusters requested from the clusterer.
	Clusters int `json:"clusters" yaml:"clusters"`

	// ClusteringSkipped is set when the corpus had no usable vocabulary and
	// every record was put in the fallback group.
	ClusteringSkipped bool   `json:"clustering_skipped,omitempty" yaml:"clustering_skipped,omitempty"`
	SkipReason        string `json:"skip_reason,omitempty" yaml:"skip_reason,omitempty"`
}

// HasFailures reports whether the run produced any failure record.
func (a *Analysis) HasFailures() bool {
	return a != nil && len(a.Records) > 0
}

// RecordGroup is the ordered list of records sharing one cluster label.
type RecordGroup struct {
	Label   int
	Records []FailureRecord
}

// DisplayLabel returns the 1-based group name.
func (g RecordGroup) DisplayLabel() string {
	return GroupDisplayLabel(g.Label)
}

// GroupedRecords returns the records grouped by cluster label. Groups are
// ordered by the first record carrying the label; records keep their order.
func (a *Analysis) GroupedRecords() []RecordGroup {
	if a == nil {
		return nil
	}

	index := make(map[int]int)
	var groups []RecordGroup
	for _, rec := range a.Records {
		i, ok := index[rec.ClusterLabel]
		if !ok {
			i = len(groups)
			index[rec.ClusterLabel] = i
			groups = append(groups, RecordGroup{Label: rec.ClusterLabel})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}
	return groups
}

// Validate checks the structural invariants of an analysis.
func (a *Analysis) Validate() error {
	if a == nil {
		return fmt.Errorf("analysis cannot be nil")
	}
	if a.Run.Passed+a.Run.Failed != a.Run.Total {
		return fmt.Errorf("passed (%d) + failed (%d) != total (%d)", a.Run.Passed, a.Run.Failed, a.Run.Total)
	}
	if len(a.Records) == 0 {
		return nil
	}
	if a.Clusters < 1 {
		return fmt.Errorf("clusters must be >= 1 when records exist, got %d", a.Clusters)
	}
	for i, rec := range a.Records {
		if rec.ClusterLabel < 0 || rec.ClusterLabel >= a.Clusters {
			return fmt.Errorf("record %d: cluster label %d outside [0, %d)", i, rec.ClusterLabel, a.Clusters)
		}
	}
	return nil
}
