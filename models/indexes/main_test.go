package indexes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func chromPos(records []VariantRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Key().String()
	}
	return out
}

func TestSortByPositionKeepsContigOrder(t *testing.T) {
	result := &SetDifferenceResult{
		ChildOnly: []VariantRecord{
			{Chrom: "chr1", Pos: 900, Ref: "A", Alt: []string{"G"}},
			{Chrom: "chr2", Pos: 50, Ref: "C", Alt: []string{"T"}},
			{Chrom: "chr1", Pos: 100, Ref: "A", Alt: []string{"C"}},
			{Chrom: "chr10", Pos: 5, Ref: "G", Alt: []string{"A"}},
			{Chrom: "chr2", Pos: 10, Ref: "T", Alt: []string{"G"}},
			{Chrom: "chrUn_GL000220v1", Pos: 1, Ref: "A", Alt: []string{"T"}},
		},
	}
	want := []VariantRecord{
		result.ChildOnly[2], result.ChildOnly[0],
		result.ChildOnly[4], result.ChildOnly[1],
		result.ChildOnly[3], result.ChildOnly[5],
	}

	result.SortByPosition()
	assert.Equal(t, chromPos(want), chromPos(result.ChildOnly))
}

func TestCheckDisjoint(t *testing.T) {
	shared := VariantRecord{Chrom: "chr5", Pos: 1000, Ref: "G", Alt: []string{"T"}}
	result := &SetDifferenceResult{
		ChildOnly:  []VariantRecord{{Chrom: "chr1", Pos: 1, Ref: "A", Alt: []string{"G"}}},
		FatherOnly: []VariantRecord{shared},
	}
	assert.NoError(t, result.CheckDisjoint())

	result.MotherOnly = []VariantRecord{shared}
	assert.Error(t, result.CheckDisjoint())
}
