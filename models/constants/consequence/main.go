package consequence

import (
	"denovo/pipeline/models/constants"
	"strings"
)

const (
	Coding   constants.ConsequenceCategory = "coding"
	Intronic constants.ConsequenceCategory = "intronic"
	UTR      constants.ConsequenceCategory = "utr"
	Other    constants.ConsequenceCategory = "other"
)

var codingTerms = []string{
	"missense_variant",
	"synonymous_variant",
	"frameshift_variant",
	"stop_gained",
	"stop_lost",
	"start_lost",
	"inframe_deletion",
	"inframe_insertion",
	"inframe_indel",
	"splice_donor_variant",
	"splice_acceptor_variant",
	"splice_region_variant",
	"initiator_codon_variant",
	"nonsense",
}

// Parse accepts a category name as written in a catalog.
func Parse(text string) constants.ConsequenceCategory {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "coding":
		return Coding
	case "intronic", "intron":
		return Intronic
	case "utr", "3utr", "5utr", "3'utr", "5'utr":
		return UTR
	default:
		return Other
	}
}

// FromSequenceOntology maps a ClinVar MC value ("SO:0001627|intron_variant",
// possibly comma separated) to a category. Coding terms take precedence over
// UTR terms, which take precedence over intronic ones.
func FromSequenceOntology(mc string) constants.ConsequenceCategory {
	text := strings.ToLower(mc)
	for _, term := range codingTerms {
		if strings.Contains(text, term) {
			return Coding
		}
	}
	if strings.Contains(text, "utr_variant") {
		return UTR
	}
	if strings.Contains(text, "intron_variant") {
		return Intronic
	}
	return Other
}
