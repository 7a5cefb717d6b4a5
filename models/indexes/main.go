package indexes

import (
	"fmt"
	"sort"
	"strings"
	"time"

	c "denovo/pipeline/models/constants"
)

// VariantKey is the identity of a call within one sample's call set.
type VariantKey struct {
	Chrom string
	Pos   int
	Ref   string
	Alt   string
}

func (k VariantKey) String() string {
	return fmt.Sprintf("%s:%d:%s>%s", k.Chrom, k.Pos, k.Ref, k.Alt)
}

type VariantRecord struct {
	Chrom    string     `json:"chrom"`
	Pos      int        `json:"pos"`
	Id       string     `json:"id"`
	Ref      string     `json:"ref"`
	Alt      []string   `json:"alt"`
	Genotype string     `json:"genotype"`
	Zygosity c.Zygosity `json:"zygosity"`
	Qual     float64    `json:"qual"`
	Depth    int        `json:"depth"` // -1 = not reported

	Annotation Annotation `json:"annotation"`
}

// Annotation holds the ClinVar fields copied onto a call.
type Annotation struct {
	Gene            string                   `json:"gene,omitempty"`
	Diseases        []string                 `json:"diseases,omitempty"`
	Classification  string                   `json:"classification,omitempty"`
	Prior           c.ClinicalClassification `json:"prior,omitempty"`
	SubmitterCounts map[string]int           `json:"submitterCounts,omitempty"`
	Consequence     string                   `json:"consequence,omitempty"`
}

func (v VariantRecord) Key() VariantKey {
	return VariantKey{
		Chrom: v.Chrom,
		Pos:   v.Pos,
		Ref:   v.Ref,
		Alt:   strings.Join(v.Alt, ","),
	}
}

// SetDifferenceResult partitions three call sets into the records private
// to each sample.
type SetDifferenceResult struct {
	ChildOnly  []VariantRecord `json:"childOnly"`
	FatherOnly []VariantRecord `json:"fatherOnly"`
	MotherOnly []VariantRecord `json:"motherOnly"`
}

func (r *SetDifferenceResult) ChildOnlyCount() int  { return len(r.ChildOnly) }
func (r *SetDifferenceResult) FatherOnlyCount() int { return len(r.FatherOnly) }
func (r *SetDifferenceResult) MotherOnlyCount() int { return len(r.MotherOnly) }

// SortByPosition orders every partition by position within contig.
func (r *SetDifferenceResult) SortByPosition() {
	for _, part := range [][]VariantRecord{r.ChildOnly, r.FatherOnly, r.MotherOnly} {
		sortRecords(part)
	}
}

// CheckDisjoint returns an error naming the first key found in more than
// one partition.
func (r *SetDifferenceResult) CheckDisjoint() error {
	seen := map[VariantKey]string{}
	named := []struct {
		name    string
		records []VariantRecord
	}{
		{"child-only", r.ChildOnly},
		{"father-only", r.FatherOnly},
		{"mother-only", r.MotherOnly},
	}
	for _, part := range named {
		for _, rec := range part.records {
			key := rec.Key()
			if other, ok := seen[key]; ok && other != part.name {
				return fmt.Errorf("record %s present in both %s and %s partitions", key, other, part.name)
			}
			seen[key] = part.name
		}
	}
	return nil
}

// sortRecords orders by position within each contig and keeps contigs in
// the order the file lists them (bcftools follows the header), so chr2
// stays ahead of chr10.
func sortRecords(records []VariantRecord) {
	rank := map[string]int{}
	for _, rec := range records {
		if _, ok := rank[rec.Chrom]; !ok {
			rank[rec.Chrom] = len(rank)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		ri, rj := rank[records[i].Chrom], rank[records[j].Chrom]
		if ri != rj {
			return ri < rj
		}
		return records[i].Pos < records[j].Pos
	})
}

type Interval struct {
	Chromosome string `json:"chromosome" mapstructure:"chromosome"`
	Start      int    `json:"start" mapstructure:"start"`
	End        int    `json:"end" mapstructure:"end"`
}

func (i Interval) Size() int {
	return i.End - i.Start
}

type ModalityEvidence struct {
	Modality   c.Modality   `json:"modality"`
	OutputType string       `json:"outputType"`
	Status     c.Status     `json:"status"`
	Delta      float64      `json:"delta"`
	Confidence c.Confidence `json:"confidence"`
	Attempts   int          `json:"attempts"`
	Error      string       `json:"error,omitempty"`

	// summary statistics behind the delta
	ReferenceSignal float64  `json:"referenceSignal"`
	AlternateSignal float64  `json:"alternateSignal"`
	FoldChange      *float64 `json:"foldChange,omitempty"`
	GlobalMaxChange float64  `json:"globalMaxChange"`
	MeanChange      float64  `json:"meanChange"`
	WindowSize      int      `json:"windowSize"`
	VariantIndex    *int     `json:"variantIndex,omitempty"`
}

// EvidenceResult is the persisted verdict for one candidate variant.
type EvidenceResult struct {
	Id       string `json:"id"`
	RunId    string `json:"runId"`
	Name     string `json:"name"`
	Gene     string `json:"gene"`
	Chrom    string `json:"chrom"`
	Pos      int    `json:"pos"`
	Ref      string `json:"ref"`
	Alt      string `json:"alt"`
	Strategy string `json:"strategy"`

	Prior       c.ClinicalClassification `json:"prior"`
	Consequence c.ConsequenceCategory    `json:"consequence"`
	Interval    *Interval                `json:"interval,omitempty"`

	Evidence       map[c.Modality]*ModalityEvidence `json:"evidence"`
	Classification c.Classification                 `json:"classification"`
	Confidence     c.Confidence                     `json:"confidence"`
	Rationale      string                           `json:"rationale"`

	Status     c.Status     `json:"status"`
	SkipReason c.SkipReason `json:"skipReason,omitempty"`
	Error      string       `json:"error,omitempty"`

	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

// Delta returns the modality's delta and whether it was obtained.
func (r *EvidenceResult) Delta(m c.Modality) (float64, bool) {
	ev, ok := r.Evidence[m]
	if !ok || ev == nil || ev.Error != "" {
		return 0, false
	}
	return ev.Delta, true
}

var MAPPING_FIELDS_KEYWORD_IG256 = map[string]interface{}{
	"keyword": map[string]interface{}{
		"type":         "keyword",
		"ignore_above": 256,
	},
}
var MAPPING_TEXT = map[string]interface{}{"type": "text", "fields": MAPPING_FIELDS_KEYWORD_IG256}
var MAPPING_KEYWORD = map[string]interface{}{"type": "keyword"}
var MAPPING_LONG = map[string]interface{}{"type": "long"}
var MAPPING_FLOAT64 = map[string]interface{}{"type": "double"}
var MAPPING_DATE = map[string]interface{}{"type": "date"}

var modalityEvidenceMapping = map[string]interface{}{
	"properties": map[string]interface{}{
		"modality":        MAPPING_KEYWORD,
		"outputType":      MAPPING_KEYWORD,
		"status":          MAPPING_KEYWORD,
		"delta":           MAPPING_FLOAT64,
		"confidence":      MAPPING_KEYWORD,
		"attempts":        MAPPING_LONG,
		"error":           MAPPING_TEXT,
		"referenceSignal": MAPPING_FLOAT64,
		"alternateSignal": MAPPING_FLOAT64,
		"foldChange":      MAPPING_FLOAT64,
		"globalMaxChange": MAPPING_FLOAT64,
		"meanChange":      MAPPING_FLOAT64,
		"windowSize":      MAPPING_LONG,
		"variantIndex":    MAPPING_LONG,
	},
}

var EVIDENCE_INDEX_MAPPING = map[string]interface{}{
	"properties": map[string]interface{}{
		"id":          MAPPING_KEYWORD,
		"runId":       MAPPING_KEYWORD,
		"name":        MAPPING_TEXT,
		"gene":        MAPPING_TEXT,
		"chrom":       MAPPING_TEXT,
		"pos":         MAPPING_LONG,
		"ref":         MAPPING_TEXT,
		"alt":         MAPPING_TEXT,
		"strategy":    MAPPING_KEYWORD,
		"prior":       MAPPING_KEYWORD,
		"consequence": MAPPING_KEYWORD,
		"interval": map[string]interface{}{
			"properties": map[string]interface{}{
				"chromosome": MAPPING_TEXT,
				"start":      MAPPING_LONG,
				"end":        MAPPING_LONG,
			},
		},
		"evidence": map[string]interface{}{
			"properties": map[string]interface{}{
				"expression": modalityEvidenceMapping,
				"splicing":   modalityEvidenceMapping,
				"chromatin":  modalityEvidenceMapping,
			},
		},
		"classification": MAPPING_KEYWORD,
		"confidence":     MAPPING_KEYWORD,
		"rationale":      MAPPING_TEXT,
		"status":         MAPPING_KEYWORD,
		"skipReason":     MAPPING_KEYWORD,
		"error":          MAPPING_TEXT,
		"startedAt":      MAPPING_DATE,
		"completedAt":    MAPPING_DATE,
	},
}
