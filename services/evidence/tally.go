package evidence

import (
	c "denovo/pipeline/models/constants"
	s "denovo/pipeline/models/constants/status"
	"denovo/pipeline/models/dtos"
	"denovo/pipeline/models/indexes"

	. "github.com/ahmetb/go-linq"
)

// FillTallies recounts status and classification totals from results.
func FillTallies(summary *dtos.RunSummary, results []*indexes.EvidenceResult) {
	withStatus := func(st c.Status) int {
		return From(results).WhereT(func(r *indexes.EvidenceResult) bool {
			return r.Status == st
		}).Count()
	}
	summary.Total = len(results)
	summary.Succeeded = withStatus(s.Succeeded)
	summary.Failed = withStatus(s.Failed)
	summary.Skipped = withStatus(s.Skipped)

	summary.Classifications = map[c.Classification]int{}
	From(results).GroupByT(
		func(r *indexes.EvidenceResult) c.Classification { return r.Classification },
		func(r *indexes.EvidenceResult) *indexes.EvidenceResult { return r },
	).ForEachT(func(g Group) {
		summary.Classifications[g.Key.(c.Classification)] = len(g.Group)
	})

	summary.FailedIds = nil
	From(results).WhereT(func(r *indexes.EvidenceResult) bool {
		return r.Status == s.Failed
	}).SelectT(func(r *indexes.EvidenceResult) string {
		return r.Id
	}).ToSlice(&summary.FailedIds)
}
