package status

import "denovo/pipeline/models/constants"

const (
	Pending   constants.Status = "pending"
	Succeeded constants.Status = "succeeded"
	Failed    constants.Status = "failed"
	Skipped   constants.Status = "skipped"
)

const (
	NoReason       constants.SkipReason = ""
	MultiAllelic   constants.SkipReason = "multi_allelic"
	SymbolicAllele constants.SkipReason = "symbolic_allele"
	InvalidAllele  constants.SkipReason = "invalid_allele"
)
