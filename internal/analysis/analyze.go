// Package analysis runs the failure analysis pipeline: report ingestion,
// text normalization, clustering, diagnosis and record assembly.
//
// Analyze is a pure function of the report bytes and Options. Nothing is
// cached or shared between calls.
package analysis

import (
	"github.com/harrison/qatriage/internal/cluster"
	"github.com/harrison/qatriage/internal/diagnosis"
	"github.com/harrison/qatriage/internal/models"
	"github.com/harrison/qatriage/internal/robot"
	"github.com/harrison/qatriage/internal/textnorm"
)

// Logger receives pipeline progress. *logger.ConsoleLogger satisfies it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// Options configures one pipeline run.
type Options struct {
	// MaxClusters bounds the number of failure groups (default 3).
	MaxClusters int

	// MaxMessageLen is the simplified message length limit (default 300).
	MaxMessageLen int

	// Seed makes clustering reproducible (default 42 via DefaultOptions).
	Seed int64

	// SkipDiagnosis leaves Cause and Fix empty.
	SkipDiagnosis bool

	// Diagnoser overrides the default rule set.
	Diagnoser *diagnosis.Diagnoser

	// Logger is optional.
	Logger Logger
}

// DefaultOptions returns the default pipeline configuration.
func DefaultOptions() Options {
	return Options{
		MaxClusters:   cluster.DefaultMaxClusters,
		MaxMessageLen: textnorm.DefaultMaxLen,
		Seed:          cluster.DefaultSeed,
	}
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}

func (o Options) logger() Logger {
	if o.Logger == nil {
		return nopLogger{}
	}
	return o.Logger
}

// Analyze parses an output.xml document and produces the annotated failure
// records. The only error it returns is a *robot.ParseError.
func Analyze(data []byte, opts Options) (*models.Analysis, error) {
	report, err := robot.Parse(data)
	if err != nil {
		return nil, err
	}
	return AnalyzeReport(report, opts), nil
}

// AnalyzeReport runs every stage after ingestion on an already parsed report.
func AnalyzeReport(report *robot.Report, opts Options) *models.Analysis {
	log := opts.logger()
	log.Debugf("report: %d tests, %d failed, %d failure messages",
		report.Run.Total, report.Run.Failed, report.MessageCount())

	failures := Flatten(report.FailedTests)

	analysis := &models.Analysis{
		Run:     report.Run,
		Records: []models.FailureRecord{},
		Groups:  []models.GroupCount{},
	}
	if len(failures) == 0 {
		return analysis
	}

	corpus := make([]string, len(failures))
	for i, f := range failures {
		corpus[i] = textnorm.Normalize(f.Message)
	}

	result := cluster.Cluster(corpus, cluster.Options{
		MaxClusters: opts.MaxClusters,
		Seed:        opts.Seed,
	})
	if result.Skipped {
		log.Warnf("%s; all %d failures placed in %s", result.Reason, len(failures), models.GroupDisplayLabel(0))
	} else {
		log.Debugf("clustered %d failures into %d groups (k=%d)", len(failures), result.ClusterCount(), result.K)
	}

	var diag *diagnosis.Diagnoser
	if !opts.SkipDiagnosis {
		diag = opts.Diagnoser
		if diag == nil {
			diag = diagnosis.New()
		}
	}

	analysis.Records = Assemble(failures, result.Labels, diag, opts.MaxMessageLen)
	analysis.Groups = Aggregate(analysis.Records)
	analysis.Clusters = result.K
	analysis.ClusteringSkipped = result.Skipped
	analysis.SkipReason = result.Reason

	return analysis
}
