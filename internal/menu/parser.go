package menu

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Raw shapes use pointers for the nutrition fields so a missing field can be
// told apart from an explicit zero.
type rawPlan struct {
	Title string   `json:"title"`
	Days  []rawDay `json:"days"`
}

type rawDay struct {
	Day   int       `json:"day"`
	Meals []rawMeal `json:"meals"`
}

type rawMeal struct {
	Name        string       `json:"name"`
	Slot        string       `json:"slot"`
	Ingredients []string     `json:"ingredients"`
	Nutrition   rawNutrition `json:"nutrition"`
}

type rawNutrition struct {
	Calories *float64 `json:"calories"`
	ProteinG *float64 `json:"protein_g"`
	CarbsG   *float64 `json:"carbs_g"`
	FatsG    *float64 `json:"fats_g"`
}

// ParsePlan parses raw generative text into plan days. It is strict: the day
// count must match the request, every day needs at least one meal, and every
// meal needs all four nutrition fields with non-negative values. Any
// violation yields a MalformedGenerationError; a partially valid plan is
// never returned.
func ParsePlan(rawText string, params GenerateMenuParams) (string, []DayPlan, error) {
	jsonStr := extractJSON(rawText)
	if jsonStr == "" {
		return "", nil, &MalformedGenerationError{Reason: "no JSON object found in response", Raw: rawText}
	}

	var raw rawPlan
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return "", nil, &MalformedGenerationError{Reason: fmt.Sprintf("invalid JSON: %v", err), Raw: rawText}
	}

	if len(raw.Days) != params.Days {
		return "", nil, &MalformedGenerationError{
			Reason: fmt.Sprintf("expected %d days, got %d", params.Days, len(raw.Days)),
			Raw:    rawText,
		}
	}

	days := make([]DayPlan, 0, len(raw.Days))
	for i, rd := range raw.Days {
		if len(rd.Meals) == 0 {
			return "", nil, &MalformedGenerationError{
				Reason: fmt.Sprintf("day %d has no meals", i+1),
				Raw:    rawText,
			}
		}

		day := DayPlan{Day: i + 1}
		for j, rm := range rd.Meals {
			if strings.TrimSpace(rm.Name) == "" {
				return "", nil, &MalformedGenerationError{
					Reason: fmt.Sprintf("day %d meal %d has no name", i+1, j+1),
					Raw:    rawText,
				}
			}
			n, err := validateNutrition(rm.Nutrition, i+1, rm.Name)
			if err != nil {
				return "", nil, err
			}
			day.Meals = append(day.Meals, Meal{
				Name:        rm.Name,
				Slot:        normalizeSlot(rm.Slot, j, len(rd.Meals)),
				Ingredients: rm.Ingredients,
				Nutrition:   n,
			})
		}
		days = append(days, day)
	}

	return raw.Title, days, nil
}

func validateNutrition(rn rawNutrition, day int, meal string) (Nutrition, error) {
	fields := []struct {
		name  string
		value *float64
	}{
		{"calories", rn.Calories},
		{"protein_g", rn.ProteinG},
		{"carbs_g", rn.CarbsG},
		{"fats_g", rn.FatsG},
	}

	var n Nutrition
	out := []*float64{&n.Calories, &n.ProteinG, &n.CarbsG, &n.FatsG}
	for i, f := range fields {
		if f.value == nil {
			return Nutrition{}, &MalformedGenerationError{
				Reason: fmt.Sprintf("day %d meal %q is missing nutrition field %s", day, meal, f.name),
			}
		}
		if *f.value < 0 {
			return Nutrition{}, &MalformedGenerationError{
				Reason: fmt.Sprintf("day %d meal %q has negative %s", day, meal, f.name),
			}
		}
		*out[i] = *f.value
	}
	return n, nil
}

// normalizeSlot fills a sensible timing slot when the model omitted one.
func normalizeSlot(slot string, index, total int) string {
	slot = strings.ToLower(strings.TrimSpace(slot))
	switch slot {
	case "breakfast", "lunch", "dinner", "snack":
		return slot
	}
	switch {
	case index == 0:
		return "breakfast"
	case index == total-1:
		return "dinner"
	default:
		return "lunch"
	}
}

// extractJSON pulls a JSON object out of the given string, tolerating code
// fences or prose wrapped around it.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}
