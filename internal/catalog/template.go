package catalog

import (
	"fmt"
	"strings"
)

// Nutrition holds per-serving totals for a template.
type Nutrition struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatsG    float64 `json:"fats_g"`
}

// Ingredient is one scalable component of a meal template.
type Ingredient struct {
	Name  string  `json:"name"`
	Grams float64 `json:"grams"`
}

// Template is one entry in the fallback meal catalog: a named meal with a
// timing slot, filter tags, scalable ingredients and per-serving nutrition.
type Template struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Slot        string       `json:"slot"`
	Tags        []string     `json:"tags"`
	Ingredients []Ingredient `json:"ingredients"`
	Nutrition   Nutrition    `json:"nutrition"`
}

// HasTag reports whether the template carries the given tag, case-insensitive.
func (t Template) HasTag(tag string) bool {
	for _, have := range t.Tags {
		if strings.EqualFold(have, tag) {
			return true
		}
	}
	return false
}

// ContainsIngredient reports whether any ingredient name contains the given
// term, case-insensitive. Used for exclusion filtering.
func (t Template) ContainsIngredient(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return false
	}
	for _, ing := range t.Ingredients {
		if strings.Contains(strings.ToLower(ing.Name), term) {
			return true
		}
	}
	return false
}

// EmbeddingText returns the semantic string representation used when
// embedding a template for similarity search.
func (t Template) EmbeddingText() string {
	names := make([]string, len(t.Ingredients))
	for i, ing := range t.Ingredients {
		names[i] = ing.Name
	}
	return fmt.Sprintf("Meal: %s\nSlot: %s\nTags: %s\nIngredients: %s",
		t.Name, t.Slot, strings.Join(t.Tags, ", "), strings.Join(names, ", "))
}

// Filter returns the templates that satisfy every dietary preference tag and
// contain none of the excluded ingredients.
func Filter(templates []Template, preferences, exclusions []string) []Template {
	var out []Template
	for _, t := range templates {
		if matches(t, preferences, exclusions) {
			out = append(out, t)
		}
	}
	return out
}

func matches(t Template, preferences, exclusions []string) bool {
	for _, pref := range preferences {
		if strings.TrimSpace(pref) == "" {
			continue
		}
		if !t.HasTag(pref) {
			return false
		}
	}
	for _, excl := range exclusions {
		if t.ContainsIngredient(excl) {
			return false
		}
	}
	return true
}
