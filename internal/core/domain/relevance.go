package domain

import (
	"math"
	"sort"
)

// CalculateRelevance returns the fraction of entityIngredients present in
// provided, rounded to two decimals. An entity without ingredients scores 0.
func CalculateRelevance(provided, entityIngredients []string) float64 {
	if len(entityIngredients) == 0 {
		return 0
	}
	overlap := len(entityIngredients) - CalculateMissing(provided, entityIngredients)
	return round2(float64(overlap) / float64(len(entityIngredients)))
}

// CalculateMissing counts entity ingredients absent from provided.
func CalculateMissing(provided, entityIngredients []string) int {
	have := make(map[string]struct{}, len(provided))
	for _, p := range provided {
		have[NormalizeIngredient(p)] = struct{}{}
	}
	missing := 0
	for _, e := range entityIngredients {
		if _, ok := have[NormalizeIngredient(e)]; !ok {
			missing++
		}
	}
	return missing
}

// CalculateRelevanceUsingLength returns used/(used+missed) rounded to two
// decimals, or 0 when both counts are zero.
func CalculateRelevanceUsingLength(used, missed int) float64 {
	if used < 0 {
		used = 0
	}
	if missed < 0 {
		missed = 0
	}
	if used+missed == 0 {
		return 0
	}
	return round2(float64(used) / float64(used+missed))
}

// SortByRelevance sorts entities by descending relevance, keeping the
// existing order for ties.
func SortByRelevance(entities []RatedEntity) {
	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].Relevance > entities[j].Relevance
	})
}

// round2 rounds half-up to two decimals.
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
