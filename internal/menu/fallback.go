package menu

import (
	"fmt"
	"math"

	"nutri-planner/internal/catalog"
	"nutri-planner/internal/profile"
)

// slotShare maps a timing slot to its fraction of the daily calorie target.
type slotShare struct {
	Slot  string
	Share float64
}

// slotShares returns the per-meal calorie split for a given meals-per-day
// count. Shares always sum to 1.
func slotShares(mealsPerDay int) []slotShare {
	switch mealsPerDay {
	case 1:
		return []slotShare{{"dinner", 1.0}}
	case 2:
		return []slotShare{{"lunch", 0.45}, {"dinner", 0.55}}
	case 3:
		return []slotShare{{"breakfast", 0.25}, {"lunch", 0.40}, {"dinner", 0.35}}
	case 4:
		return []slotShare{{"breakfast", 0.25}, {"lunch", 0.35}, {"dinner", 0.30}, {"snack", 0.10}}
	case 5:
		return []slotShare{{"breakfast", 0.20}, {"snack", 0.10}, {"lunch", 0.30}, {"snack", 0.10}, {"dinner", 0.30}}
	}

	// Beyond five meals: even split, bookended by breakfast and dinner.
	shares := make([]slotShare, mealsPerDay)
	even := 1.0 / float64(mealsPerDay)
	for i := range shares {
		slot := "snack"
		switch {
		case i == 0:
			slot = "breakfast"
		case i == mealsPerDay-1:
			slot = "dinner"
		case i%2 == 1:
			slot = "lunch"
		}
		shares[i] = slotShare{slot, even}
	}
	return shares
}

// GenerateFallback builds a structurally valid plan from the template
// catalog without any external call. Deterministic and total: given a
// non-empty eligible catalog it always succeeds, degrading to a repeated
// day pattern when there are too few templates for unique combinations.
func GenerateFallback(
	params GenerateMenuParams,
	q profile.Questionnaire,
	uc *UserContext,
	targets AdjustedTargets,
	templates []catalog.Template,
) (string, []DayPlan, error) {
	preferences := mergeDistinct(q.DietaryPreferences, params.DietaryPreferences)
	exclusions := mergeDistinct(q.ExcludedIngredients, params.ExcludedIngredients)

	eligible := catalog.Filter(templates, preferences, exclusions)
	if len(eligible) == 0 {
		return "", nil, &FallbackExhaustionError{Excluded: exclusions, Preferences: preferences}
	}

	pools := buildSlotPools(eligible)
	shares := slotShares(params.MealsPerDay)

	// Low consistency means repeat one simple day pattern instead of
	// rotating through the catalog.
	rotate := !NeedsSimplifiedPlan(uc)

	days := make([]DayPlan, 0, params.Days)
	for d := 0; d < params.Days; d++ {
		day := DayPlan{Day: d + 1}
		for s, share := range shares {
			pool := pools[share.Slot]
			if len(pool) == 0 {
				pool = eligible
			}
			idx := s
			if rotate {
				idx += d
			}
			tpl := pool[idx%len(pool)]

			slotCalories := float64(targets.Calories) * share.Share
			day.Meals = append(day.Meals, scaleTemplate(tpl, share.Slot, slotCalories))
		}
		days = append(days, day)
	}

	title := fmt.Sprintf("%d-Day Meal Plan for %s", params.Days, goalTitle(q.MainGoal))
	return title, days, nil
}

func buildSlotPools(templates []catalog.Template) map[string][]catalog.Template {
	pools := make(map[string][]catalog.Template)
	for _, t := range templates {
		pools[t.Slot] = append(pools[t.Slot], t)
	}
	return pools
}

// scaleTemplate linearly scales a template so its calories land on the slot
// allocation. The factor is clamped to keep portions plausible; within the
// clamp the result is exact, well inside the ±5% tolerance band.
func scaleTemplate(tpl catalog.Template, slot string, slotCalories float64) Meal {
	factor := 1.0
	if tpl.Nutrition.Calories > 0 {
		factor = slotCalories / tpl.Nutrition.Calories
	}
	factor = math.Min(math.Max(factor, 0.25), 4.0)

	ingredients := make([]string, len(tpl.Ingredients))
	for i, ing := range tpl.Ingredients {
		ingredients[i] = fmt.Sprintf("%.0fg %s", ing.Grams*factor, ing.Name)
	}

	return Meal{
		Name:        tpl.Name,
		Slot:        slot,
		Ingredients: ingredients,
		Nutrition: Nutrition{
			Calories: round1(tpl.Nutrition.Calories * factor),
			ProteinG: round1(tpl.Nutrition.ProteinG * factor),
			CarbsG:   round1(tpl.Nutrition.CarbsG * factor),
			FatsG:    round1(tpl.Nutrition.FatsG * factor),
		},
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func goalTitle(goal profile.MainGoal) string {
	switch goal {
	case profile.GoalLoseWeight:
		return "Weight Loss"
	case profile.GoalGainMuscle:
		return "Muscle Gain"
	case profile.GoalMaintain:
		return "Maintenance"
	default:
		return "Balanced Nutrition"
	}
}
