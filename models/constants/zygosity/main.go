package zygosity

import (
	"denovo/pipeline/models/constants"
	p "denovo/pipeline/models/constants/ploidy"
	"strconv"
	"strings"
)

const (
	Unknown constants.Zygosity = iota
	// Diploid or higher
	Heterozygous
	HomozygousReference
	HomozygousAlternate

	// Haploid (deliberately below diploid for sequential id'ing purposes)
	Reference
	Alternate
)

func IsKnown(value int) bool {
	return value > int(Unknown) && value <= int(Alternate)
}

func ZygosityToString(zyg constants.Zygosity) string {
	switch zyg {
	// Haploid
	case Reference:
		return "REFERENCE"
	case Alternate:
		return "ALTERNATE"

	// Diploid or higher
	case Heterozygous:
		return "HETEROZYGOUS"
	case HomozygousReference:
		return "HOMOZYGOUS_REFERENCE"
	case HomozygousAlternate:
		return "HOMOZYGOUS_ALTERNATE"
	default:
		return "UNKNOWN"
	}
}

// FromGenotype derives zygosity from a GT string. Missing calls ('.')
// and unparsable alleles yield Unknown.
func FromGenotype(gt string) constants.Zygosity {
	switch p.FromGenotype(gt) {
	case p.Haploid:
		allele, err := strconv.Atoi(gt)
		if err != nil {
			return Unknown
		}
		if allele == 0 {
			return Reference
		}
		return Alternate

	case p.Diploid:
		sep := "/"
		if strings.Contains(gt, "|") {
			sep = "|"
		}
		splits := strings.Split(gt, sep)

		left, errLeft := strconv.Atoi(splits[0])
		right, errRight := strconv.Atoi(splits[1])
		if errLeft != nil || errRight != nil {
			return Unknown
		}

		switch left == right {
		case true:
			switch left * right {
			case 0:
				return HomozygousReference
			default:
				return HomozygousAlternate
			}
		default:
			return Heterozygous
		}
	}

	return Unknown
}
