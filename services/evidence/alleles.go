package evidence

import (
	"strings"

	c "denovo/pipeline/models/constants"
	"denovo/pipeline/models/constants/chromosome"
	s "denovo/pipeline/models/constants/status"
	"denovo/pipeline/models/indexes"
)

// SkipReason decides whether a variant can be sent to the prediction
// service at all. It returns status.NoReason for plain ACGTN alleles.
func SkipReason(ref, alt string) c.SkipReason {
	if strings.Contains(alt, ",") {
		return s.MultiAllelic
	}
	if symbolic(alt) || symbolic(ref) {
		return s.SymbolicAllele
	}
	if !plainBases(ref) || !plainBases(alt) {
		return s.InvalidAllele
	}
	return s.NoReason
}

func symbolic(allele string) bool {
	return strings.HasPrefix(allele, "<") ||
		allele == "*" ||
		strings.ContainsAny(allele, "[]")
}

func plainBases(allele string) bool {
	if allele == "" {
		return false
	}
	for _, b := range strings.ToUpper(allele) {
		switch b {
		case 'A', 'C', 'G', 'T', 'N':
		default:
			return false
		}
	}
	return true
}

// IntervalFor centers a window of the given width on pos. Windows that
// would start before the chromosome are shifted right.
func IntervalFor(chrom string, pos, size int) indexes.Interval {
	start := pos - size/2
	if start < 0 {
		start = 0
	}
	return indexes.Interval{
		Chromosome: chromosome.WithPrefix(chrom),
		Start:      start,
		End:        start + size,
	}
}
