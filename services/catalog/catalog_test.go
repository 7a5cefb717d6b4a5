package catalog

import (
	"bytes"
	"strings"
	"testing"

	assemblyId "denovo/pipeline/models/constants/assembly-id"
	"denovo/pipeline/models/constants/classification"
	"denovo/pipeline/models/constants/consequence"
	m "denovo/pipeline/models/constants/modality"
	"denovo/pipeline/models/indexes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefault(t *testing.T) {
	cat, err := LoadDefault()
	require.NoError(t, err)

	assert.Equal(t, assemblyId.GRCh38, cat.Assembly())
	assert.Equal(t, 3, cat.Len())

	variants := cat.Variants()
	genes := []string{variants[0].Gene, variants[1].Gene, variants[2].Gene}
	assert.Equal(t, []string{"DBT", "SPTA1", "FH"}, genes)

	for _, v := range variants {
		assert.Equal(t, classification.PriorConflicting, v.Prior(), v.Name)
	}

	fh := variants[2]
	assert.Equal(t, consequence.Intronic, fh.Category())
	assert.Equal(t, "splicing+chromatin", fh.Strategy)
	assert.Contains(t, fh.Modalities(), m.Splicing)
	assert.Equal(t, "FH_chr1_241500602_A_AT", fh.Id())
}

func TestVariantsReturnsCopy(t *testing.T) {
	cat, err := LoadDefault()
	require.NoError(t, err)

	variants := cat.Variants()
	variants[0].Gene = "MUTATED"

	assert.Equal(t, "DBT", cat.Variants()[0].Gene)
}

func TestByGene(t *testing.T) {
	cat, err := LoadDefault()
	require.NoError(t, err)

	t.Run("case insensitive match", func(t *testing.T) {
		sub, err := cat.ByGene("spta1")
		require.NoError(t, err)
		assert.Equal(t, 1, sub.Len())
		assert.Equal(t, "SPTA1", sub.Variants()[0].Gene)
	})

	t.Run("unknown gene", func(t *testing.T) {
		_, err := cat.ByGene("BRCA1")
		assert.Error(t, err)
	})
}

func TestHead(t *testing.T) {
	cat, err := LoadDefault()
	require.NoError(t, err)

	assert.Equal(t, 2, cat.Head(2).Len())
	assert.Equal(t, 3, cat.Head(0).Len())
	assert.Equal(t, 3, cat.Head(10).Len())
}

func TestParseRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name string
		yml  string
	}{
		{"missing gene", "variants:\n  - chromosome: chr1\n    position: 10\n    ref: A\n    alt: T\n"},
		{"bad chromosome", "variants:\n  - gene: X\n    chromosome: chr99\n    position: 10\n    ref: A\n    alt: T\n"},
		{"zero position", "variants:\n  - gene: X\n    chromosome: chr1\n    position: 0\n    ref: A\n    alt: T\n"},
		{"missing alt", "variants:\n  - gene: X\n    chromosome: chr1\n    position: 5\n    ref: A\n"},
		{"unknown assembly", "assembly: mm10\nvariants: []\n"},
		{"not yaml", "variants: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yml))
			assert.Error(t, err)
		})
	}
}

func TestFromRecordsAndWrite(t *testing.T) {
	records := []indexes.VariantRecord{
		{
			Chrom: "chr1", Pos: 241500602, Ref: "A", Alt: []string{"AT"},
			Annotation: indexes.Annotation{
				Gene:            "FH",
				Classification:  "Conflicting_classifications_of_pathogenicity",
				SubmitterCounts: map[string]int{"Pathogenic": 1, "Benign": 2},
				Consequence:     "SO:0001627|intron_variant",
			},
		},
		{
			Chrom: "chr2", Pos: 500, Ref: "C", Alt: []string{"G", "T"},
		},
	}

	cat, err := FromRecords(assemblyId.GRCh38, records)
	require.NoError(t, err)
	require.Equal(t, 2, cat.Len())

	fh := cat.Variants()[0]
	assert.Equal(t, "intronic", fh.Consequence)
	assert.Equal(t, "insertion", fh.Type)
	assert.Equal(t, "Benign(2)|Pathogenic(1)", fh.ClinvarVotes)

	multi := cat.Variants()[1]
	assert.Equal(t, "unknown", multi.Gene)
	assert.Equal(t, "G,T", multi.Alt)
	assert.Equal(t, "complex", multi.Type)
	assert.Equal(t, "expression+chromatin", multi.Strategy)

	var buf bytes.Buffer
	require.NoError(t, cat.Write(&buf))

	reread, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, cat.Variants(), reread.Variants())
}

func TestFromRecordsLeavesOutNonPrimaryContigs(t *testing.T) {
	records := []indexes.VariantRecord{
		{Chrom: "chr1", Pos: 100, Ref: "A", Alt: []string{"G"}},
		{Chrom: "chr1_KI270706v1_random", Pos: 200, Ref: "C", Alt: []string{"T"}},
		{Chrom: "chrUn_GL000220v1", Pos: 300, Ref: "G", Alt: []string{"A"}},
		{Chrom: "chrEBV", Pos: 400, Ref: "T", Alt: []string{"C"}},
		{Chrom: "chrX", Pos: 500, Ref: "A", Alt: []string{"C"}},
	}

	cat, err := FromRecords(assemblyId.GRCh38, records)
	require.NoError(t, err)
	require.Equal(t, 2, cat.Len())
	assert.Equal(t, "chr1", cat.Variants()[0].Chrom)
	assert.Equal(t, "chrX", cat.Variants()[1].Chrom)
}

func TestIdWithLongAlleles(t *testing.T) {
	longRef := "A" + strings.Repeat("CTGA", 80) // 321 bp
	del := CandidateVariant{Gene: "BRCA2", Chrom: "chr13", Pos: 32340300, Ref: longRef, Alt: "A"}

	id := del.Id()
	assert.LessOrEqual(t, len(id), 120)
	assert.True(t, strings.HasPrefix(id, "BRCA2_chr13_32340300_"+longRef[:32]+"_A_"))

	// same prefix, different tail
	other := del
	other.Ref = longRef[:len(longRef)-1] + "T"
	assert.NotEqual(t, id, other.Id())
	assert.Equal(t, id, del.Id())

	short := CandidateVariant{Gene: "FH", Chrom: "1", Pos: 241500602, Ref: "A", Alt: "AT"}
	assert.Equal(t, "FH_chr1_241500602_A_AT", short.Id())
}
