package verification

import (
	"errors"
	"fmt"
	"strings"

	"denovo/pipeline/logger"
	c "denovo/pipeline/models/constants"
	s "denovo/pipeline/models/constants/status"
	"denovo/pipeline/models/dtos"
	"denovo/pipeline/models/indexes"

	. "github.com/ahmetb/go-linq"
	"go.uber.org/zap"
)

var ErrInconsistent = errors.New("persisted results are inconsistent")

// Source is the read side of the result store.
type Source interface {
	ListResults() ([]*indexes.EvidenceResult, error)
	ReadAggregate() ([]dtos.SummaryRow, error)
	ReadSkipped() ([]dtos.SkippedRow, error)
	ReadRunSummary() (*dtos.RunSummary, error)
}

// Report holds tallies recomputed purely from what is on disk.
type Report struct {
	Summary       *dtos.RunSummary
	AggregateRows int
	SkippedRows   int
	ResultFiles   int
	Succeeded     int
	Failed        int
	Skipped       int
	Violations    []string
}

func (r *Report) Ok() bool { return len(r.Violations) == 0 }

func (r *Report) addf(format string, args ...interface{}) {
	r.Violations = append(r.Violations, fmt.Sprintf(format, args...))
}

// Verify rebuilds run tallies from the persisted files and cross-checks them.
// The returned error wraps ErrInconsistent when any check fails.
func Verify(src Source) (*Report, error) {
	summary, err := src.ReadRunSummary()
	if err != nil {
		return nil, err
	}
	rows, err := src.ReadAggregate()
	if err != nil {
		return nil, err
	}
	skipped, err := src.ReadSkipped()
	if err != nil {
		return nil, err
	}
	files, err := src.ListResults()
	if err != nil {
		return nil, err
	}

	report := &Report{
		Summary:       summary,
		AggregateRows: len(rows),
		SkippedRows:   len(skipped),
		ResultFiles:   len(files),
	}

	rowsWith := func(st c.Status) int {
		return From(rows).WhereT(func(r dtos.SummaryRow) bool {
			return r.Status == string(st)
		}).Count()
	}
	report.Succeeded = rowsWith(s.Succeeded)
	report.Failed = rowsWith(s.Failed)
	report.Skipped = len(skipped)

	if !summary.Consistent() {
		report.addf("run summary tallies %d+%d+%d do not add up to %d",
			summary.Succeeded, summary.Failed, summary.Skipped, summary.Total)
	}
	if got := len(rows) + len(skipped); got != summary.Total {
		report.addf("aggregate rows (%d) plus skipped rows (%d) != total %d",
			len(rows), len(skipped), summary.Total)
	}
	if other := len(rows) - report.Succeeded - report.Failed; other != 0 {
		report.addf("%d aggregate rows have a status other than succeeded or failed", other)
	}
	if report.Succeeded != summary.Succeeded || report.Failed != summary.Failed || report.Skipped != summary.Skipped {
		report.addf("tables count %d/%d/%d succeeded/failed/skipped, run summary says %d/%d/%d",
			report.Succeeded, report.Failed, report.Skipped,
			summary.Succeeded, summary.Failed, summary.Skipped)
	}

	// every table row must agree with its per-variant file
	byId := map[string]*indexes.EvidenceResult{}
	From(files).ForEachT(func(r *indexes.EvidenceResult) {
		byId[r.Id] = r
	})
	for _, row := range rows {
		r, ok := byId[row.Id]
		switch {
		case !ok:
			report.addf("%s: no result file", row.Id)
		case string(r.Status) != row.Status:
			report.addf("%s: table status %s, file status %s", row.Id, row.Status, r.Status)
		case string(r.Classification) != row.Classification:
			report.addf("%s: table classification %s, file classification %s", row.Id, row.Classification, r.Classification)
		}
	}
	for _, row := range skipped {
		r, ok := byId[row.Id]
		switch {
		case !ok:
			report.addf("%s: no result file", row.Id)
		case r.Status != s.Skipped:
			report.addf("%s: listed as skipped, file status %s", row.Id, r.Status)
		}
	}

	if !report.Ok() {
		logger.Warn("verification failed",
			zap.String("runId", summary.RunId),
			zap.Strings("violations", report.Violations))
		return report, fmt.Errorf("%w: %s", ErrInconsistent, strings.Join(report.Violations, "; "))
	}

	logger.Info("verification passed",
		zap.String("runId", summary.RunId),
		zap.Int("total", summary.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped))
	return report, nil
}
