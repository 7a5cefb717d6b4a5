package classification

import (
	"denovo/pipeline/models/constants"
	"strings"
)

// Resolved calls made from functional evidence.
const (
	NotAssessed      constants.Classification = "not_assessed"
	LikelyBenign     constants.Classification = "likely_benign"
	Uncertain        constants.Classification = "uncertain"
	LikelyPathogenic constants.Classification = "likely_pathogenic"
)

// Prior labels taken from ClinVar CLNSIG.
const (
	PriorUnknown          constants.ClinicalClassification = "other"
	PriorBenign           constants.ClinicalClassification = "benign"
	PriorLikelyBenign     constants.ClinicalClassification = "likely_benign"
	PriorUncertain        constants.ClinicalClassification = "uncertain_significance"
	PriorConflicting      constants.ClinicalClassification = "conflicting"
	PriorLikelyPathogenic constants.ClinicalClassification = "likely_pathogenic"
	PriorPathogenic       constants.ClinicalClassification = "pathogenic"
)

// Confidence labels, lowest to highest.
const (
	ConfidenceNone     constants.Confidence = ""
	ConfidenceMinimal  constants.Confidence = "minimal"
	ConfidenceLow      constants.Confidence = "low"
	ConfidenceModerate constants.Confidence = "moderate"
	ConfidenceHigh     constants.Confidence = "high"
)

// ParsePrior normalizes a CLNSIG value such as "Pathogenic/Likely_pathogenic"
// or "Conflicting_classifications_of_pathogenicity". Combined labels resolve
// to the least severe component so "Pathogenic/Likely_pathogenic" stays
// likely_pathogenic.
func ParsePrior(clnsig string) constants.ClinicalClassification {
	text := strings.ToLower(strings.TrimSpace(clnsig))
	if text == "" || text == "." {
		return PriorUnknown
	}
	if strings.HasPrefix(text, "conflicting") {
		return PriorConflicting
	}

	// first component of a multi-valued field wins (e.g. "Benign|drug_response")
	parts := strings.FieldsFunc(text, func(r rune) bool { return r == '|' || r == ',' || r == ';' })
	if len(parts) == 0 {
		return PriorUnknown
	}
	text = parts[0]

	// exact labels first, then combined ones
	switch strings.ReplaceAll(text, " ", "_") {
	case "benign":
		return PriorBenign
	case "likely_benign", "benign/likely_benign":
		return PriorLikelyBenign
	case "uncertain_significance":
		return PriorUncertain
	case "likely_pathogenic", "pathogenic/likely_pathogenic":
		return PriorLikelyPathogenic
	case "pathogenic":
		return PriorPathogenic
	case "conflicting", "conflicting_interpretations_of_pathogenicity":
		return PriorConflicting
	}
	return PriorUnknown
}

// IsPathogenic reports whether a prior label counts toward the pathogenic
// tally. Conflicting labels are reported separately and never counted here.
func IsPathogenic(prior constants.ClinicalClassification) bool {
	return prior == PriorPathogenic || prior == PriorLikelyPathogenic
}
