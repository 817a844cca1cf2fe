package menu

import (
	"strings"
	"testing"

	"nutri-planner/internal/profile"
)

func baselinePlan() *profile.NutritionPlan {
	return &profile.NutritionPlan{
		GoalCalories: 2000,
		GoalProteinG: 150,
		GoalCarbsG:   250,
		GoalFatsG:    65,
		GoalWaterML:  2500,
	}
}

func contextWith(goal profile.MainGoal, rate, consistency float64, calTrend Trend, streak int) *UserContext {
	return &UserContext{
		Profile: profile.Questionnaire{UserID: "u1", MainGoal: goal},
		Performance: PerformanceStats{
			OverallGoalAchievementRate: rate,
			ConsistencyScore:           consistency,
			CaloriesTrend:              calTrend,
			ProteinTrend:               TrendStable,
			CarbsTrend:                 TrendStable,
			FatsTrend:                  TrendStable,
			WaterTrend:                 TrendStable,
		},
		Streaks: Streaks{CurrentDailyStreak: streak},
	}
}

func TestComputeTargetsDefaultReason(t *testing.T) {
	uc := contextWith(profile.GoalMaintain, 0.8, 0.9, TrendStable, 3)

	got := ComputeTargets(uc, baselinePlan())

	if got.AdjustmentReason != DefaultAdjustmentReason {
		t.Errorf("expected default reason %q, got %q", DefaultAdjustmentReason, got.AdjustmentReason)
	}
	if got.Calories != 2000 || got.ProteinG != 150 || got.CarbsG != 250 || got.FatsG != 65 {
		t.Errorf("expected unchanged targets, got %+v", got)
	}
	if got.WaterML != 2500 {
		t.Errorf("water must never be adjusted, got %d", got.WaterML)
	}
}

func TestComputeTargetsIsDeterministic(t *testing.T) {
	uc := contextWith(profile.GoalLoseWeight, 0.6, 0.4, TrendIncreasing, 10)

	first := ComputeTargets(uc, baselinePlan())
	for i := 0; i < 5; i++ {
		if got := ComputeTargets(uc, baselinePlan()); got != first {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestComputeTargetsMultipliersCompose(t *testing.T) {
	// Low achievement (x0.95) and a rising trend against a weight loss goal
	// (x0.97) must both apply to calories.
	uc := contextWith(profile.GoalLoseWeight, 0.6, 0.9, TrendIncreasing, 0)

	got := ComputeTargets(uc, baselinePlan())

	if want := 1843; got.Calories != want { // round(2000 * 0.95 * 0.97)
		t.Errorf("expected %d calories, got %d", want, got.Calories)
	}
	if want := 158; got.ProteinG != want { // round(150 * 1.05), deficit protein
		t.Errorf("expected %d protein, got %d", want, got.ProteinG)
	}
	// Carbs and fats scale with the calorie multiplier.
	if want := 230; got.CarbsG != want { // round(250 * 0.95 * 0.97)
		t.Errorf("expected %d carbs, got %d", want, got.CarbsG)
	}
	if want := 60; got.FatsG != want { // round(65 * 0.95 * 0.97)
		t.Errorf("expected %d fats, got %d", want, got.FatsG)
	}
}

func TestComputeTargetsHighPerformerScenario(t *testing.T) {
	// Strong achievement with a muscle gain goal stacks the reward
	// multipliers: calories x1.03, protein x1.05 then x1.1.
	uc := contextWith(profile.GoalGainMuscle, 0.98, 0.9, TrendStable, 10)

	got := ComputeTargets(uc, baselinePlan())

	if got.Calories != 2060 {
		t.Errorf("expected 2060 calories, got %d", got.Calories)
	}
	if got.ProteinG != 173 { // round(150 * 1.05 * 1.1)
		t.Errorf("expected 173 protein, got %d", got.ProteinG)
	}
	if !strings.Contains(got.AdjustmentReason, reasonStreak) {
		t.Errorf("expected streak note in reason, got %q", got.AdjustmentReason)
	}
	if got.AdjustmentReason == DefaultAdjustmentReason {
		t.Error("expected accumulated reasons, got the default")
	}
}

func TestComputeTargetsNotesOnlyRules(t *testing.T) {
	// Low consistency and a long streak annotate without touching numbers.
	uc := contextWith(profile.GoalMaintain, 0.8, 0.3, TrendStable, 12)

	got := ComputeTargets(uc, baselinePlan())

	if got.Calories != 2000 || got.ProteinG != 150 {
		t.Errorf("notes-only rules must not change targets, got %+v", got)
	}
	if !strings.Contains(got.AdjustmentReason, reasonSimplify) {
		t.Errorf("expected simplify note, got %q", got.AdjustmentReason)
	}
	if !strings.Contains(got.AdjustmentReason, reasonStreak) {
		t.Errorf("expected streak note, got %q", got.AdjustmentReason)
	}
}

func TestComputeTargetsDecreasingTrendWithMuscleGoal(t *testing.T) {
	uc := contextWith(profile.GoalGainMuscle, 0.8, 0.9, TrendDecreasing, 0)

	got := ComputeTargets(uc, baselinePlan())

	if want := 2100; got.Calories != want { // round(2000 * 1.05)
		t.Errorf("expected %d calories, got %d", want, got.Calories)
	}
	if want := 182; got.ProteinG != want { // round(150 * 1.1 * 1.1)
		t.Errorf("expected %d protein, got %d", want, got.ProteinG)
	}
}

func TestComputeTargetsNilContext(t *testing.T) {
	got := ComputeTargets(nil, baselinePlan())

	if got.Calories != 2000 || got.AdjustmentReason != DefaultAdjustmentReason {
		t.Errorf("nil context must yield base targets with the default reason, got %+v", got)
	}
}

func TestComputeTargetsNilBaselineUsesContextGoals(t *testing.T) {
	uc := contextWith(profile.GoalMaintain, 0.8, 0.9, TrendStable, 0)
	uc.Goals = NutritionGoals{Calories: 1800, ProteinG: 120, CarbsG: 200, FatsG: 55, WaterML: 2000}

	got := ComputeTargets(uc, nil)

	if got.Calories != 1800 || got.ProteinG != 120 {
		t.Errorf("expected context goals as base, got %+v", got)
	}
}
