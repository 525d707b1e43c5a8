package providers

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/pantrylab/pantry-core/internal/core/domain"
)

// Spoonacular constants
const (
	SpoonacularName    = "spoonacular"
	SpoonacularBaseURL = "https://api.spoonacular.com"

	spoonacularResults = 20
)

// SpoonacularMapper maps the Spoonacular recipe API.
// Untyped searches use findByIngredients; typed searches use complexSearch,
// which is the only endpoint that filters by dish type.
type SpoonacularMapper struct {
	// Number caps the results per search
	Number int
}

// NewSpoonacular creates an Adapter for the Spoonacular API.
func NewSpoonacular(cfg Config) *Adapter {
	if cfg.Name == "" {
		cfg.Name = SpoonacularName
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = SpoonacularBaseURL
	}
	return NewAdapter(cfg, &SpoonacularMapper{Number: spoonacularResults})
}

type spoonIngredient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

type spoonRecipe struct {
	ID                    int64             `json:"id"`
	Title                 string            `json:"title"`
	Image                 string            `json:"image"`
	UsedIngredientCount   int               `json:"usedIngredientCount"`
	MissedIngredientCount int               `json:"missedIngredientCount"`
	UsedIngredients       []spoonIngredient `json:"usedIngredients"`
	MissedIngredients     []spoonIngredient `json:"missedIngredients"`
}

type spoonComplexSearch struct {
	Results []spoonRecipe `json:"results"`
}

type spoonInstruction struct {
	Name  string `json:"name"`
	Steps []struct {
		Number int    `json:"number"`
		Step   string `json:"step"`
	} `json:"steps"`
}

type spoonInformation struct {
	ID                   int64              `json:"id"`
	Title                string             `json:"title"`
	Image                string             `json:"image"`
	Summary              string             `json:"summary"`
	ReadyInMinutes       int                `json:"readyInMinutes"`
	ExtendedIngredients  []spoonIngredient  `json:"extendedIngredients"`
	AnalyzedInstructions []spoonInstruction `json:"analyzedInstructions"`
	Vegetarian           bool               `json:"vegetarian"`
	Vegan                bool               `json:"vegan"`
	GlutenFree           bool               `json:"glutenFree"`
	DairyFree            bool               `json:"dairyFree"`
	SourceURL            string             `json:"sourceUrl"`
	CreditsText          string             `json:"creditsText"`
	DishTypes            []string           `json:"dishTypes"`
}

func (m *SpoonacularMapper) number() string {
	n := m.Number
	if n <= 0 {
		n = spoonacularResults
	}
	return strconv.Itoa(n)
}

func (m *SpoonacularMapper) SearchRequest(ingredients []string, entityType string) (string, url.Values) {
	q := url.Values{}
	q.Set("number", m.number())
	if entityType == "" {
		q.Set("ingredients", strings.Join(ingredients, ","))
		q.Set("ranking", "1")
		q.Set("ignorePantry", "true")
		return "/recipes/findByIngredients", q
	}
	q.Set("includeIngredients", strings.Join(ingredients, ","))
	q.Set("type", entityType)
	q.Set("fillIngredients", "true")
	q.Set("sort", "max-used-ingredients")
	return "/recipes/complexSearch", q
}

// OwnsID accepts positive integer ids only.
func (m *SpoonacularMapper) OwnsID(id string) bool {
	n, err := strconv.ParseInt(id, 10, 64)
	return err == nil && n > 0
}

func (m *SpoonacularMapper) DetailRequest(id string) (string, url.Values) {
	return "/recipes/" + url.PathEscape(id) + "/information", url.Values{"includeNutrition": {"false"}}
}

func (m *SpoonacularMapper) MapSearch(body []byte, entityType string) ([]domain.RatedEntity, error) {
	var recipes []spoonRecipe
	if entityType == "" {
		if err := json.Unmarshal(body, &recipes); err != nil {
			return nil, err
		}
	} else {
		var page spoonComplexSearch
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, err
		}
		recipes = page.Results
	}

	results := make([]domain.RatedEntity, 0, len(recipes))
	for _, r := range recipes {
		ingredients := mapIngredients(r.UsedIngredients)
		ingredients = append(ingredients, mapIngredients(r.MissedIngredients)...)
		results = append(results, domain.RatedEntity{
			ID:           strconv.FormatInt(r.ID, 10),
			Title:        r.Title,
			Image:        r.Image,
			Ingredients:  ingredients,
			Relevance:    domain.CalculateRelevanceUsingLength(r.UsedIngredientCount, r.MissedIngredientCount),
			MissingCount: r.MissedIngredientCount,
			Type:         entityType,
		})
	}
	return results, nil
}

func (m *SpoonacularMapper) MapDetail(body []byte) (*domain.DetailedEntity, error) {
	var info spoonInformation
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, err
	}

	recipe := make([]domain.RecipeSection, 0, len(info.AnalyzedInstructions))
	for _, in := range info.AnalyzedInstructions {
		section := domain.RecipeSection{Name: in.Name, Steps: make([]string, 0, len(in.Steps))}
		for _, s := range in.Steps {
			section.Steps = append(section.Steps, s.Step)
		}
		recipe = append(recipe, section)
	}

	var dishType string
	if len(info.DishTypes) > 0 {
		dishType = info.DishTypes[0]
	}

	return &domain.DetailedEntity{
		ID:          strconv.FormatInt(info.ID, 10),
		Title:       info.Title,
		Image:       info.Image,
		Description: info.Summary,
		PrepTime:    info.ReadyInMinutes,
		Ingredients: mapIngredients(info.ExtendedIngredients),
		Recipe:      recipe,
		Properties: domain.DietaryProperties{
			Vegetarian: info.Vegetarian,
			Vegan:      info.Vegan,
			GlutenFree: info.GlutenFree,
			DairyFree:  info.DairyFree,
		},
		Source: info.SourceURL,
		Author: info.CreditsText,
		Type:   dishType,
	}, nil
}

func mapIngredients(in []spoonIngredient) []domain.Ingredient {
	out := make([]domain.Ingredient, 0, len(in))
	for _, i := range in {
		out = append(out, domain.Ingredient{
			Name:   domain.NormalizeIngredient(i.Name),
			Unit:   i.Unit,
			Amount: i.Amount,
		})
	}
	return out
}
