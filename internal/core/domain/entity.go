package domain

import "time"

// EntityKind distinguishes dishes from meals. Both kinds share the same
// types and pipeline but live in separate collections and cache namespaces.
type EntityKind string

const (
	KindDish EntityKind = "dish"
	KindMeal EntityKind = "meal"
)

// Valid reports whether k is a known kind.
func (k EntityKind) Valid() bool {
	return k == KindDish || k == KindMeal
}

// ProviderLocal tags entities that come from the local document store.
const ProviderLocal = "local"

// RatedEntity is a search hit ranked against the searcher's ingredients.
// It is never persisted: it is recomputed per query or served from cache.
type RatedEntity struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Image        string       `json:"image,omitempty"`
	Ingredients  []Ingredient `json:"ingredients"`
	Provider     string       `json:"provider"`
	Relevance    float64      `json:"relevance"`
	MissingCount int          `json:"missingCount"`
	Type         string       `json:"type,omitempty"`
}

// RecipeSection is an ordered group of instructions.
type RecipeSection struct {
	Name  string   `json:"name,omitempty" bson:"name,omitempty"`
	Steps []string `json:"steps" bson:"steps"`
}

// DietaryProperties flags dietary suitability.
type DietaryProperties struct {
	Vegetarian bool `json:"vegetarian" bson:"vegetarian"`
	Vegan      bool `json:"vegan" bson:"vegan"`
	GlutenFree bool `json:"glutenFree" bson:"glutenFree"`
	DairyFree  bool `json:"dairyFree" bson:"dairyFree"`
}

// DetailedEntity is the full record of a dish or meal.
type DetailedEntity struct {
	ID          string            `json:"id"`
	Kind        EntityKind        `json:"kind"`
	Title       string            `json:"title"`
	Image       string            `json:"image,omitempty"`
	Description string            `json:"description,omitempty"`
	PrepTime    int               `json:"prepTime"` // minutes
	Ingredients []Ingredient      `json:"ingredients"`
	Recipe      []RecipeSection   `json:"recipe"`
	Properties  DietaryProperties `json:"properties"`
	Source      string            `json:"source,omitempty"`
	Author      string            `json:"author,omitempty"`
	Provider    string            `json:"provider"`
	Type        string            `json:"type,omitempty"`
}

// ProposedEntity is a RatedEntity scored against a user's search history.
type ProposedEntity struct {
	RatedEntity
	RecommendationPoints int `json:"recommendationPoints"`
}

// EntityDraft carries the user-editable fields of a local entity.
type EntityDraft struct {
	Title       string            `json:"title" bson:"title"`
	Image       string            `json:"image,omitempty" bson:"image,omitempty"`
	Description string            `json:"description,omitempty" bson:"description,omitempty"`
	PrepTime    int               `json:"prepTime" bson:"prepTime"`
	Ingredients []Ingredient      `json:"ingredients" bson:"ingredients"`
	Recipe      []RecipeSection   `json:"recipe" bson:"recipe"`
	Properties  DietaryProperties `json:"properties" bson:"properties"`
	Type        string            `json:"type,omitempty" bson:"type,omitempty"`
}

// EntityDiff is a proposed partial update; nil fields are left unchanged.
type EntityDiff struct {
	Title       *string            `json:"title,omitempty" bson:"title,omitempty"`
	Image       *string            `json:"image,omitempty" bson:"image,omitempty"`
	Description *string            `json:"description,omitempty" bson:"description,omitempty"`
	PrepTime    *int               `json:"prepTime,omitempty" bson:"prepTime,omitempty"`
	Ingredients []Ingredient       `json:"ingredients,omitempty" bson:"ingredients,omitempty"`
	Recipe      []RecipeSection    `json:"recipe,omitempty" bson:"recipe,omitempty"`
	Properties  *DietaryProperties `json:"properties,omitempty" bson:"properties,omitempty"`
	Type        *string            `json:"type,omitempty" bson:"type,omitempty"`
}

// IsEmpty reports whether the diff changes nothing.
func (d *EntityDiff) IsEmpty() bool {
	return d == nil || (d.Title == nil && d.Image == nil && d.Description == nil &&
		d.PrepTime == nil && d.Ingredients == nil && d.Recipe == nil &&
		d.Properties == nil && d.Type == nil)
}

// Apply merges the diff into draft.
func (d *EntityDiff) Apply(draft *EntityDraft) {
	if d == nil {
		return
	}
	if d.Title != nil {
		draft.Title = *d.Title
	}
	if d.Image != nil {
		draft.Image = *d.Image
	}
	if d.Description != nil {
		draft.Description = *d.Description
	}
	if d.PrepTime != nil {
		draft.PrepTime = *d.PrepTime
	}
	if d.Ingredients != nil {
		draft.Ingredients = d.Ingredients
	}
	if d.Recipe != nil {
		draft.Recipe = d.Recipe
	}
	if d.Properties != nil {
		draft.Properties = *d.Properties
	}
	if d.Type != nil {
		draft.Type = *d.Type
	}
}

// LocalEntity is a dish or meal stored in the local document store.
type LocalEntity struct {
	EntityDraft

	ID          string         `json:"id"`
	Kind        EntityKind     `json:"kind"`
	State       LifecycleState `json:"state"`
	PendingEdit *EntityDiff    `json:"pendingEdit,omitempty"`
	Author      string         `json:"author"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// PubliclyVisible reports whether public lookups may serve this entity.
// Pending edits stay visible with their pre-edit content.
func (e *LocalEntity) PubliclyVisible() bool {
	return e.State.Visible()
}

// Rate scores the entity against the searcher's ingredients.
func (e *LocalEntity) Rate(provided []string) RatedEntity {
	names := IngredientNames(e.Ingredients)
	return RatedEntity{
		ID:           e.ID,
		Title:        e.Title,
		Image:        e.Image,
		Ingredients:  e.Ingredients,
		Provider:     ProviderLocal,
		Relevance:    CalculateRelevance(provided, names),
		MissingCount: CalculateMissing(provided, names),
		Type:         e.Type,
	}
}

// Detail maps the stored record to its public detail view.
func (e *LocalEntity) Detail() *DetailedEntity {
	return &DetailedEntity{
		ID:          e.ID,
		Kind:        e.Kind,
		Title:       e.Title,
		Image:       e.Image,
		Description: e.Description,
		PrepTime:    e.PrepTime,
		Ingredients: e.Ingredients,
		Recipe:      e.Recipe,
		Properties:  e.Properties,
		Author:      e.Author,
		Provider:    ProviderLocal,
		Type:        e.Type,
	}
}
