package analysis

import (
	"fmt"

	"github.com/harrison/qatriage/internal/diagnosis"
	"github.com/harrison/qatriage/internal/models"
	"github.com/harrison/qatriage/internal/textnorm"
)

// Failure is one failure message paired with the test it belongs to.
type Failure struct {
	TestName string
	Message  string
}

// Flatten lists the messages of the failed tests test by test, message by
// message. This order is the identity of every FailureRecord.
func Flatten(tests []models.FailedTest) []Failure {
	var out []Failure
	for _, t := range tests {
		for _, m := range t.Messages {
			out = append(out, Failure{TestName: t.Name, Message: m})
		}
	}
	return out
}

// Assemble zips failures with their cluster labels (by position) and their
// diagnosis. A nil diagnoser leaves Cause and Fix empty. It panics if the
// label count does not match, which would be a programming error.
func Assemble(failures []Failure, labels []int, diag *diagnosis.Diagnoser, maxMessageLen int) []models.FailureRecord {
	if len(labels) != len(failures) {
		panic(fmt.Sprintf("analysis: %d labels for %d failures", len(labels), len(failures)))
	}

	records := make([]models.FailureRecord, len(failures))
	for i, f := range failures {
		rec := models.FailureRecord{
			TestName:          f.TestName,
			RawMessage:        f.Message,
			SimplifiedMessage: textnorm.Simplify(f.Message, maxMessageLen),
			ClusterLabel:      labels[i],
		}
		if diag != nil {
			d := diag.Diagnose(f.Message)
			rec.Cause = d.Cause
			rec.Fix = d.Fix
		}
		records[i] = rec
	}
	return records
}

// Aggregate counts the records of each cluster label. Groups are ordered by
// the first record carrying the label.
func Aggregate(records []models.FailureRecord) []models.GroupCount {
	index := make(map[int]int)
	groups := []models.GroupCount{}
	for _, rec := range records {
		i, ok := index[rec.ClusterLabel]
		if !ok {
			i = len(groups)
			index[rec.ClusterLabel] = i
			groups = append(groups, models.GroupCount{
				Label:        rec.ClusterLabel,
				DisplayLabel: models.GroupDisplayLabel(rec.ClusterLabel),
			})
		}
		groups[i].Count++
	}
	return groups
}
