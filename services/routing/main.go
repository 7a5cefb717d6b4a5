package routing

import (
	c "denovo/pipeline/models/constants"
	"denovo/pipeline/models/constants/consequence"
	m "denovo/pipeline/models/constants/modality"
)

// DefaultModalities are queried for any category without its own entry.
var DefaultModalities = []c.Modality{m.Expression, m.Chromatin}

var routes = map[c.ConsequenceCategory][]c.Modality{
	consequence.Coding:   {m.Expression, m.Splicing},
	consequence.Intronic: {m.Splicing, m.Chromatin},
	consequence.UTR:      {m.Expression, m.Chromatin},
}

// Route returns the modalities to query for a consequence category. It is
// total: unknown categories get DefaultModalities. The returned slice is a
// fresh copy.
func Route(category c.ConsequenceCategory) []c.Modality {
	modalities, ok := routes[category]
	if !ok {
		modalities = DefaultModalities
	}
	out := make([]c.Modality, len(modalities))
	copy(out, modalities)
	return out
}

// Strategy returns the analysis strategy tag for a category.
func Strategy(category c.ConsequenceCategory) string {
	return m.StrategyName(Route(category))
}
