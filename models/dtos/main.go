package dtos

import (
	"time"

	c "denovo/pipeline/models/constants"
	"denovo/pipeline/models/indexes"
)

// SummaryRow is one line of validation_summary.csv. Deltas are blank when
// the modality was not requested or could not be obtained.
type SummaryRow struct {
	Id                    string `json:"id" csv:"id"`
	Variant               string `json:"variant" csv:"variant"`
	Gene                  string `json:"gene" csv:"gene"`
	Position              string `json:"position" csv:"position"`
	Ref                   string `json:"ref" csv:"ref"`
	Alt                   string `json:"alt" csv:"alt"`
	Strategy              string `json:"strategy" csv:"strategy"`
	ClinvarClassification string `json:"clinvarClassification" csv:"clinvar_classification"`
	Classification        string `json:"classification" csv:"classification"`
	Confidence            string `json:"confidence" csv:"confidence"`
	Status                string `json:"status" csv:"status"`
	ExpressionDelta       string `json:"expressionDelta" csv:"expression_delta"`
	SplicingDelta         string `json:"splicingDelta" csv:"splicing_delta"`
	ChromatinDelta        string `json:"chromatinDelta" csv:"chromatin_delta"`
	KeyEvidence           string `json:"keyEvidence" csv:"key_evidence"`
	Error                 string `json:"error" csv:"error"`
}

type SkippedRow struct {
	Id         string `json:"id" csv:"id"`
	Variant    string `json:"variant" csv:"variant"`
	Gene       string `json:"gene" csv:"gene"`
	Position   string `json:"position" csv:"position"`
	Ref        string `json:"ref" csv:"ref"`
	Alt        string `json:"alt" csv:"alt"`
	SkipReason string `json:"skipReason" csv:"skip_reason"`
}

// RunSummary is persisted as run_summary.json at the end of every run.
type RunSummary struct {
	RunId        string    `json:"runId"`
	StartedAt    time.Time `json:"startedAt"`
	CompletedAt  time.Time `json:"completedAt"`
	Threshold    float64   `json:"threshold"`
	IntervalSize int       `json:"intervalSize"`

	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	Reused    int `json:"reused"`

	Classifications map[c.Classification]int `json:"classifications"`
	FailedIds       []string                 `json:"failedIds,omitempty"`
}

// Consistent reports whether the status tallies add up.
func (s *RunSummary) Consistent() bool {
	return s.Succeeded+s.Failed+s.Skipped == s.Total
}

type ResultsResponse struct {
	Status  int                       `json:"status"`
	Message string                    `json:"message"`
	Count   int                       `json:"count"`
	Results []*indexes.EvidenceResult `json:"results"`
}

type GeneralError struct {
	Message string `json:"message"`
}

type GeneralErrorResponseDto struct {
	Code      int            `json:"code"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Errors    []GeneralError `json:"errors"`
}
