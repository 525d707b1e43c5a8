package domain

import (
	"sort"
	"time"
)

// Proposal windows per kind.
const (
	DishProposalWindow = 14 * 24 * time.Hour
	MealProposalWindow = 30 * 24 * time.Hour
)

// DefaultProposalWindow returns the trailing window used to build proposals for kind.
func DefaultProposalWindow(kind EntityKind) time.Duration {
	if kind == KindMeal {
		return MealProposalWindow
	}
	return DishProposalWindow
}

// SearchQueryLog records one ingredient search by a user. Rows are append-only.
type SearchQueryLog struct {
	ID          string     `json:"id" bson:"_id"`
	UserID      string     `json:"userId" bson:"userId"`
	Kind        EntityKind `json:"kind" bson:"kind"`
	Ingredients []string   `json:"ingredients" bson:"ingredients"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
}

// FrequencyTable counts how often each ingredient was searched.
type FrequencyTable map[string]int

// BuildFrequencyTable sums ingredient occurrences across logs.
func BuildFrequencyTable(logs []*SearchQueryLog) FrequencyTable {
	table := make(FrequencyTable)
	for _, l := range logs {
		for _, ing := range l.Ingredients {
			table[NormalizeIngredient(ing)]++
		}
	}
	return table
}

// Keys returns the ingredients of the table in sorted order.
func (t FrequencyTable) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Points sums the frequency of each ingredient; unknown ingredients score nothing.
func (t FrequencyTable) Points(ingredients []Ingredient) int {
	points := 0
	for _, ing := range ingredients {
		points += t[NormalizeIngredient(ing.Name)]
	}
	return points
}
