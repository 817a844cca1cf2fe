package menu

import (
	"errors"
	"math"
	"testing"

	"nutri-planner/internal/catalog"
	"nutri-planner/internal/profile"
)

func testCatalog() []catalog.Template {
	tpl := func(id, name, slot string, calories float64, tags []string, ingredients ...string) catalog.Template {
		t := catalog.Template{ID: id, Name: name, Slot: slot, Tags: tags,
			Nutrition: catalog.Nutrition{Calories: calories, ProteinG: calories / 20, CarbsG: calories / 10, FatsG: calories / 30}}
		for _, ing := range ingredients {
			t.Ingredients = append(t.Ingredients, catalog.Ingredient{Name: ing, Grams: 100})
		}
		return t
	}
	return []catalog.Template{
		tpl("b1", "Oatmeal", "breakfast", 400, []string{"vegetarian"}, "oats", "milk"),
		tpl("b2", "Tofu Scramble", "breakfast", 380, []string{"vegan", "vegetarian"}, "tofu", "spinach"),
		tpl("l1", "Chicken Bowl", "lunch", 650, nil, "chicken breast", "rice"),
		tpl("l2", "Lentil Curry", "lunch", 600, []string{"vegan", "vegetarian"}, "lentils", "rice"),
		tpl("d1", "Salmon Plate", "dinner", 550, nil, "salmon", "potatoes"),
		tpl("d2", "Veggie Stir Fry", "dinner", 520, []string{"vegan", "vegetarian"}, "tofu", "broccoli"),
		tpl("s1", "Greek Yogurt", "snack", 180, []string{"vegetarian"}, "greek yogurt", "honey"),
	}
}

func fallbackParams(days, mealsPerDay int) GenerateMenuParams {
	return GenerateMenuParams{UserID: "u1", Days: days, MealsPerDay: mealsPerDay}
}

func TestGenerateFallbackShape(t *testing.T) {
	q := profile.Questionnaire{UserID: "u1", MainGoal: profile.GoalLoseWeight}
	targets := AdjustedTargets{Calories: 1800, ProteinG: 140, CarbsG: 200, FatsG: 55}

	title, days, err := GenerateFallback(fallbackParams(3, 3), q, nil, targets, testCatalog())
	if err != nil {
		t.Fatalf("GenerateFallback failed: %v", err)
	}
	if title == "" {
		t.Error("expected a non-empty title")
	}
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}
	for _, day := range days {
		if len(day.Meals) != 3 {
			t.Fatalf("day %d: expected 3 meals, got %d", day.Day, len(day.Meals))
		}
		for _, meal := range day.Meals {
			if meal.Name == "" || len(meal.Ingredients) == 0 {
				t.Errorf("day %d: incomplete meal %+v", day.Day, meal)
			}
			if meal.Nutrition.Calories <= 0 {
				t.Errorf("day %d meal %s: non-positive calories", day.Day, meal.Name)
			}
		}
	}
}

func TestGenerateFallbackIsDeterministic(t *testing.T) {
	q := profile.Questionnaire{UserID: "u1"}
	targets := AdjustedTargets{Calories: 2000}

	_, first, err := GenerateFallback(fallbackParams(4, 3), q, nil, targets, testCatalog())
	if err != nil {
		t.Fatalf("GenerateFallback failed: %v", err)
	}
	_, second, err := GenerateFallback(fallbackParams(4, 3), q, nil, targets, testCatalog())
	if err != nil {
		t.Fatalf("GenerateFallback failed: %v", err)
	}

	for d := range first {
		for m := range first[d].Meals {
			if first[d].Meals[m].Name != second[d].Meals[m].Name {
				t.Fatalf("day %d meal %d differs between runs", d+1, m+1)
			}
		}
	}
}

func TestGenerateFallbackDailyCaloriesNearTarget(t *testing.T) {
	q := profile.Questionnaire{UserID: "u1"}
	targets := AdjustedTargets{Calories: 2000}

	_, days, err := GenerateFallback(fallbackParams(2, 3), q, nil, targets, testCatalog())
	if err != nil {
		t.Fatalf("GenerateFallback failed: %v", err)
	}

	for _, day := range days {
		var total float64
		for _, meal := range day.Meals {
			total += meal.Nutrition.Calories
		}
		if math.Abs(total-2000)/2000 > 0.05 {
			t.Errorf("day %d: total %.0f kcal outside 5%% of target", day.Day, total)
		}
	}
}

func TestGenerateFallbackRespectsExclusions(t *testing.T) {
	q := profile.Questionnaire{UserID: "u1", ExcludedIngredients: []string{"chicken"}}
	targets := AdjustedTargets{Calories: 2000}

	_, days, err := GenerateFallback(fallbackParams(3, 3), q, nil, targets, testCatalog())
	if err != nil {
		t.Fatalf("GenerateFallback failed: %v", err)
	}

	for _, day := range days {
		for _, meal := range day.Meals {
			if meal.Name == "Chicken Bowl" {
				t.Errorf("day %d includes an excluded meal", day.Day)
			}
		}
	}
}

func TestGenerateFallbackRespectsPreferences(t *testing.T) {
	q := profile.Questionnaire{UserID: "u1", DietaryPreferences: []string{"vegan"}}
	targets := AdjustedTargets{Calories: 1800}

	_, days, err := GenerateFallback(fallbackParams(2, 3), q, nil, targets, testCatalog())
	if err != nil {
		t.Fatalf("GenerateFallback failed: %v", err)
	}

	vegan := map[string]bool{"Tofu Scramble": true, "Lentil Curry": true, "Veggie Stir Fry": true}
	for _, day := range days {
		for _, meal := range day.Meals {
			if !vegan[meal.Name] {
				t.Errorf("day %d: non-vegan meal %s", day.Day, meal.Name)
			}
		}
	}
}

func TestGenerateFallbackExhaustion(t *testing.T) {
	q := profile.Questionnaire{UserID: "u1", DietaryPreferences: []string{"keto"}}
	targets := AdjustedTargets{Calories: 2000}

	_, _, err := GenerateFallback(fallbackParams(3, 3), q, nil, targets, testCatalog())

	var exhausted *FallbackExhaustionError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected FallbackExhaustionError, got %v", err)
	}
}

func TestGenerateFallbackLowConsistencyRepeatsDays(t *testing.T) {
	q := profile.Questionnaire{UserID: "u1"}
	targets := AdjustedTargets{Calories: 2000}
	uc := &UserContext{Performance: PerformanceStats{ConsistencyScore: 0.3, OverallGoalAchievementRate: 0.8}}

	_, days, err := GenerateFallback(fallbackParams(3, 3), q, uc, targets, testCatalog())
	if err != nil {
		t.Fatalf("GenerateFallback failed: %v", err)
	}

	for d := 1; d < len(days); d++ {
		for m := range days[d].Meals {
			if days[d].Meals[m].Name != days[0].Meals[m].Name {
				t.Errorf("expected identical days under low consistency, day %d differs", d+1)
			}
		}
	}
}

func TestSlotSharesSumToOne(t *testing.T) {
	for meals := 1; meals <= 8; meals++ {
		shares := slotShares(meals)
		if len(shares) != meals {
			t.Errorf("%d meals: got %d shares", meals, len(shares))
		}
		var sum float64
		for _, s := range shares {
			sum += s.Share
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("%d meals: shares sum to %f", meals, sum)
		}
	}
}
