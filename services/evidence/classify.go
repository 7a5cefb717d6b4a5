package evidence

import (
	"fmt"
	"math"
	"strings"

	c "denovo/pipeline/models/constants"
	cl "denovo/pipeline/models/constants/classification"
	m "denovo/pipeline/models/constants/modality"
)

const DefaultThreshold = 0.1

// ModalityConfidence grades one delta against the threshold.
func ModalityConfidence(delta, threshold float64) c.Confidence {
	d := math.Abs(delta)
	switch {
	case d >= 2*threshold:
		return cl.ConfidenceHigh
	case d > threshold:
		return cl.ConfidenceModerate
	case d > threshold/2:
		return cl.ConfidenceLow
	default:
		return cl.ConfidenceMinimal
	}
}

// Verdict is the resolved call for a variant.
type Verdict struct {
	Classification c.Classification
	Confidence     c.Confidence
	Rationale      string
}

// Classify resolves a call from the obtained deltas. Only the largest
// |delta| decides between pathogenic and not; the prior only separates
// uncertain from likely benign.
func Classify(deltas map[c.Modality]float64, prior c.ClinicalClassification, threshold float64) Verdict {
	if len(deltas) == 0 {
		return Verdict{
			Classification: cl.NotAssessed,
			Confidence:     cl.ConfidenceNone,
			Rationale:      "no functional evidence obtained",
		}
	}

	var (
		largest  float64
		driver   c.Modality
		findings []string
	)
	for _, mod := range m.All {
		d, ok := deltas[mod]
		if !ok {
			continue
		}
		if abs := math.Abs(d); abs > largest || driver == "" {
			largest, driver = abs, mod
		}
		findings = append(findings, fmt.Sprintf("%s delta %.3f (%s)", mod, d, ModalityConfidence(d, threshold)))
	}
	evidence := strings.Join(findings, "; ")

	switch {
	case largest > threshold:
		conf := cl.ConfidenceModerate
		if largest >= 2*threshold {
			conf = cl.ConfidenceHigh
		}
		return Verdict{
			Classification: cl.LikelyPathogenic,
			Confidence:     conf,
			Rationale: fmt.Sprintf("%s change of %.3f exceeds threshold %.3f; %s",
				driver, largest, threshold, evidence),
		}
	case prior == cl.PriorConflicting:
		return Verdict{
			Classification: cl.Uncertain,
			Confidence:     cl.ConfidenceLow,
			Rationale: fmt.Sprintf("largest change %.3f is below threshold %.3f and ClinVar submitters conflict; %s",
				largest, threshold, evidence),
		}
	default:
		conf := cl.ConfidenceModerate
		if largest > threshold/2 {
			conf = cl.ConfidenceLow
		}
		return Verdict{
			Classification: cl.LikelyBenign,
			Confidence:     conf,
			Rationale: fmt.Sprintf("largest change %.3f is below threshold %.3f; %s",
				largest, threshold, evidence),
		}
	}
}
