package menu

import (
	"strings"
	"testing"

	"nutri-planner/internal/profile"
)

func TestBuildPromptFullContext(t *testing.T) {
	uc := &UserContext{
		Performance: PerformanceStats{
			OverallGoalAchievementRate: 0.85,
			ConsistencyScore:           0.7,
			CaloriesTrend:              TrendStable,
			ProteinTrend:               TrendIncreasing,
		},
		MealPatterns: MealPatterns{AvgMealsPerDay: 2.8, MostCommonSlot: "lunch", LoggedDays: 10},
		Streaks:      Streaks{CurrentDailyStreak: 4},
	}

	prompt, err := BuildPrompt(PromptInput{
		Params: GenerateMenuParams{
			Days: 5, MealsPerDay: 3,
			CustomRequest:       "mediterranean dishes please",
			ExcludedIngredients: []string{"cilantro"},
		},
		Questionnaire: profile.Questionnaire{
			MainGoal:            profile.GoalLoseWeight,
			DietaryPreferences:  []string{"vegetarian"},
			ExcludedIngredients: []string{"peanuts"},
		},
		Targets:      AdjustedTargets{Calories: 1850, ProteinG: 140, CarbsG: 210, FatsG: 60, AdjustmentReason: "test reason"},
		Context:      uc,
		CatalogHints: []string{"Lentil Curry"},
	})
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}

	for _, want := range []string{
		"Days: 5",
		"Meals per day: 3",
		"mediterranean dishes please",
		"Calories: 1850 kcal",
		"Protein: 140 g",
		"test reason",
		"vegetarian",
		"peanuts",
		"cilantro",
		"85%",
		"Lentil Curry",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPromptWithoutContext(t *testing.T) {
	prompt, err := BuildPrompt(PromptInput{
		Params:        GenerateMenuParams{Days: 3, MealsPerDay: 4},
		Questionnaire: profile.Questionnaire{MainGoal: profile.GoalGainMuscle},
		Targets:       AdjustedTargets{Calories: 2800, ProteinG: 180, CarbsG: 340, FatsG: 80},
	})
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}

	if strings.Contains(prompt, "Behavioral context") {
		t.Error("reduced prompt must not include the behavioral section")
	}
	if !strings.Contains(prompt, "Calories: 2800 kcal") {
		t.Error("reduced prompt must still carry the targets")
	}
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	in := PromptInput{
		Params:        GenerateMenuParams{Days: 2, MealsPerDay: 2},
		Questionnaire: profile.Questionnaire{MainGoal: profile.GoalMaintain},
		Targets:       AdjustedTargets{Calories: 2200, ProteinG: 120, CarbsG: 280, FatsG: 70},
	}

	first, err := BuildPrompt(in)
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}
	second, err := BuildPrompt(in)
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}
	if first != second {
		t.Error("identical inputs must produce identical prompts")
	}
}

func TestMergeDistinct(t *testing.T) {
	got := mergeDistinct([]string{"Vegan", " dairy "}, []string{"vegan", "", "nuts"})
	want := []string{"Vegan", "dairy", "nuts"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
