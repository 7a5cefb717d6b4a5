package constants

/*
	Defines a set of base level
	constants and enums to be used
	throughout the pipeline and its
	associated services.
*/
type AssemblyId string
type Ploidy int
type Zygosity int

type Modality string
type Classification string
type ClinicalClassification string
type Confidence string
type ConsequenceCategory string
type Status string
type SkipReason string
