package ploidy

import (
	"denovo/pipeline/models/constants"
	"strings"
)

const (
	Unknown constants.Ploidy = iota

	Haploid
	Diploid
)

func IsKnown(value int) bool {
	return value > int(Unknown) && value <= int(Diploid)
}

// FromGenotype infers ploidy from a VCF GT string ("1", "0/1", "1|1").
func FromGenotype(gt string) constants.Ploidy {
	switch {
	case gt == "":
		return Unknown
	case strings.Count(gt, "|")+strings.Count(gt, "/") == 1:
		return Diploid
	case !strings.Contains(gt, "|") && !strings.Contains(gt, "/"):
		return Haploid
	default:
		// TODO: handle triploid?
		return Unknown
	}
}
