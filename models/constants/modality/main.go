package modality

import (
	"denovo/pipeline/models/constants"
	"strings"
)

const (
	Expression constants.Modality = "expression"
	Splicing   constants.Modality = "splicing"
	Chromatin  constants.Modality = "chromatin"
)

// All lists modalities in their canonical order.
var All = []constants.Modality{Expression, Splicing, Chromatin}

// OutputType is the service's name for the requested output.
func OutputType(m constants.Modality) string {
	switch m {
	case Expression:
		return "RNA_SEQ"
	case Splicing:
		return "SPLICE_JUNCTIONS"
	case Chromatin:
		return "ATAC"
	default:
		return ""
	}
}

// OutputKey is the key under which the service returns a modality's track.
func OutputKey(m constants.Modality) string {
	return strings.ToLower(OutputType(m))
}

func IsKnown(text string) bool {
	for _, m := range All {
		if string(m) == text {
			return true
		}
	}
	return false
}

// StrategyName renders a modality set as an analysis strategy tag,
// e.g. "expression+splicing".
func StrategyName(ms []constants.Modality) string {
	names := make([]string, 0, len(ms))
	for _, m := range ms {
		names = append(names, string(m))
	}
	return strings.Join(names, "+")
}
