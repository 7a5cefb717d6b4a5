package chromosome

import (
	"fmt"
	"strconv"
	"strings"
)

func ValidListOfHumanChromosomes() []string {
	var humChroms []string
	for i := 1; i < 23; i++ {
		humChroms = append(humChroms, fmt.Sprint(i))
	}
	humChroms = append(humChroms, "X")
	humChroms = append(humChroms, "Y")
	humChroms = append(humChroms, "M")
	return humChroms
}

// Strip removes a leading "chr" so "chr1" and "1" compare equal.
func Strip(text string) string {
	if len(text) > 3 && strings.EqualFold(text[:3], "chr") {
		return text[3:]
	}
	return text
}

// WithPrefix returns the UCSC-style name ("chr1", "chrM") expected by the
// prediction service.
func WithPrefix(text string) string {
	stripped := Strip(text)
	if strings.EqualFold(stripped, "MT") {
		stripped = "M"
	}
	return "chr" + stripped
}

func IsValidHumanChromosome(text string) bool {
	text = Strip(text)

	// Check if number can be represented as an int as is non-zero
	chromNumber, _ := strconv.Atoi(text)
	if chromNumber > 0 {
		return chromNumber < 23
	}

	switch strings.ToLower(text) {
	case "x", "y", "m", "mt":
		return true
	}

	return false
}
