package domain

import (
	"sort"
	"strings"
)

// Ingredient is a recipe component or a search term.
// Name comes from the closed Vocabulary; Unit and Amount are optional.
type Ingredient struct {
	Name   string  `json:"name" bson:"name"`
	Unit   string  `json:"unit,omitempty" bson:"unit,omitempty"`
	Amount float64 `json:"amount,omitempty" bson:"amount,omitempty"`
}

// Vocabulary is the closed set of ingredient names accepted as search terms.
var Vocabulary = newVocabulary(
	"apple", "asparagus", "avocado", "bacon", "banana", "basil", "bean", "beef",
	"bell pepper", "blueberry", "bread", "broccoli", "butter", "cabbage", "carrot",
	"cauliflower", "celery", "cheddar", "cheese", "chicken", "chickpea", "chili",
	"chocolate", "cinnamon", "coconut milk", "cod", "corn", "cream", "cucumber",
	"egg", "eggplant", "feta", "flour", "garlic", "ginger", "ham", "honey", "kale",
	"lamb", "leek", "lemon", "lentil", "lettuce", "lime", "milk", "mozzarella",
	"mushroom", "noodle", "oat", "olive", "olive oil", "onion", "orange", "oregano",
	"paprika", "parmesan", "parsley", "pasta", "pea", "peanut", "pepper", "pork",
	"potato", "pumpkin", "quinoa", "rice", "salmon", "salt", "sausage", "shrimp",
	"soy sauce", "spinach", "strawberry", "sugar", "sweet potato", "thyme", "tofu",
	"tomato", "tuna", "turkey", "vinegar", "walnut", "yogurt", "zucchini",
)

// IngredientVocabulary is a set of normalized ingredient names.
type IngredientVocabulary map[string]struct{}

func newVocabulary(names ...string) IngredientVocabulary {
	v := make(IngredientVocabulary, len(names))
	for _, n := range names {
		v[NormalizeIngredient(n)] = struct{}{}
	}
	return v
}

// Contains reports whether name (after normalization) is in the vocabulary.
func (v IngredientVocabulary) Contains(name string) bool {
	_, ok := v[NormalizeIngredient(name)]
	return ok
}

// Filter normalizes names, drops unknown tokens and duplicates, and keeps input order.
func (v IngredientVocabulary) Filter(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = NormalizeIngredient(n)
		if _, ok := v[n]; !ok {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// FilterIngredients filters ingredient records by name, normalizing the kept names.
func (v IngredientVocabulary) FilterIngredients(in []Ingredient) []Ingredient {
	seen := make(map[string]struct{}, len(in))
	out := make([]Ingredient, 0, len(in))
	for _, ing := range in {
		name := NormalizeIngredient(ing.Name)
		if _, ok := v[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		ing.Name = name
		out = append(out, ing)
	}
	return out
}

// NormalizeIngredient lower-cases and trims an ingredient name.
func NormalizeIngredient(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IngredientNames extracts the names of ingredients.
func IngredientNames(ingredients []Ingredient) []string {
	names := make([]string, len(ingredients))
	for i, ing := range ingredients {
		names[i] = ing.Name
	}
	return names
}

// SplitIngredients parses a comma-separated query parameter.
func SplitIngredients(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CanonicalQuery builds the deterministic cache key fragment for a search:
// ingredients sorted lexicographically and comma-joined, then the type filter.
func CanonicalQuery(ingredients []string, entityType string) string {
	sorted := make([]string, len(ingredients))
	copy(sorted, ingredients)
	sort.Strings(sorted)
	return strings.Join(sorted, ",") + "|type=" + strings.ToLower(strings.TrimSpace(entityType))
}
