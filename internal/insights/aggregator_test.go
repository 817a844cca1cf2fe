package insights

import (
	"context"
	"testing"
	"time"

	"nutri-planner/internal/menu"
	"nutri-planner/internal/profile"
)

type stubLogSource struct {
	logs []MealLog
	err  error
}

func (s *stubLogSource) ListSince(_ context.Context, _ string, _ time.Time) ([]MealLog, error) {
	return s.logs, s.err
}

func fixedAggregator(logs []MealLog, now time.Time) *Aggregator {
	a := NewAggregator(&stubLogSource{logs: logs})
	a.now = func() time.Time { return now }
	return a
}

func dayLog(now time.Time, daysAgo int, calories, protein float64) MealLog {
	return MealLog{
		UserID:   "u1",
		LoggedAt: now.AddDate(0, 0, -daysAgo),
		MealSlot: "lunch",
		Calories: calories,
		ProteinG: protein,
	}
}

func TestBuildContextEmptyHistory(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	agg := fixedAggregator(nil, now)

	q := profile.Questionnaire{UserID: "u1", MainGoal: profile.GoalMaintain}
	uc, err := agg.BuildContext(context.Background(), q, nil)
	if err != nil {
		t.Fatalf("BuildContext failed: %v", err)
	}

	if uc.Performance.OverallGoalAchievementRate != defaultAchievementRate {
		t.Errorf("expected default achievement rate %.2f, got %.2f",
			defaultAchievementRate, uc.Performance.OverallGoalAchievementRate)
	}
	if uc.Performance.ConsistencyScore != 0 {
		t.Errorf("expected zero consistency, got %.2f", uc.Performance.ConsistencyScore)
	}
	if uc.Performance.CaloriesTrend != menu.TrendStable {
		t.Errorf("expected stable trend with no logs, got %s", uc.Performance.CaloriesTrend)
	}
	if uc.Goals.Calories == 0 {
		t.Error("expected estimated goals when no baseline exists")
	}
}

func TestBuildContextUsesBaselineGoals(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	agg := fixedAggregator(nil, now)

	baseline := &profile.NutritionPlan{
		GoalCalories: 2000, GoalProteinG: 150, GoalCarbsG: 250, GoalFatsG: 65, GoalWaterML: 2500,
	}
	uc, err := agg.BuildContext(context.Background(), profile.Questionnaire{UserID: "u1"}, baseline)
	if err != nil {
		t.Fatalf("BuildContext failed: %v", err)
	}

	if uc.Goals.Calories != 2000 || uc.Goals.ProteinG != 150 {
		t.Errorf("expected baseline goals to pass through, got %+v", uc.Goals)
	}
}

func TestBuildContextAchievementAndConsistency(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	// Seven logged days, four of them inside the 80-110% calorie band.
	var logs []MealLog
	inBand := []float64{2000, 1900, 2100, 1800}
	offBand := []float64{1200, 1300, 2600}
	for i, c := range append(inBand, offBand...) {
		logs = append(logs, dayLog(now, i+1, c, 100))
	}

	agg := fixedAggregator(logs, now)
	baseline := &profile.NutritionPlan{GoalCalories: 2000, GoalProteinG: 150, GoalCarbsG: 250, GoalFatsG: 65}
	uc, err := agg.BuildContext(context.Background(), profile.Questionnaire{UserID: "u1"}, baseline)
	if err != nil {
		t.Fatalf("BuildContext failed: %v", err)
	}

	wantRate := 4.0 / 7.0
	if diff := uc.Performance.OverallGoalAchievementRate - wantRate; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected achievement rate %.3f, got %.3f", wantRate, uc.Performance.OverallGoalAchievementRate)
	}
	wantConsistency := 7.0 / float64(analysisWindowDays)
	if diff := uc.Performance.ConsistencyScore - wantConsistency; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected consistency %.3f, got %.3f", wantConsistency, uc.Performance.ConsistencyScore)
	}
	if uc.MealPatterns.LoggedDays != 7 {
		t.Errorf("expected 7 logged days, got %d", uc.MealPatterns.LoggedDays)
	}
}

func TestBuildContextTrendDetection(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	// Older half around 1800 kcal, recent half around 2200: increasing.
	logs := []MealLog{
		dayLog(now, 8, 1800, 120),
		dayLog(now, 7, 1780, 118),
		dayLog(now, 6, 1820, 122),
		dayLog(now, 3, 2200, 90),
		dayLog(now, 2, 2180, 88),
		dayLog(now, 1, 2220, 92),
	}

	agg := fixedAggregator(logs, now)
	baseline := &profile.NutritionPlan{GoalCalories: 2000}
	uc, err := agg.BuildContext(context.Background(), profile.Questionnaire{UserID: "u1"}, baseline)
	if err != nil {
		t.Fatalf("BuildContext failed: %v", err)
	}

	if uc.Performance.CaloriesTrend != menu.TrendIncreasing {
		t.Errorf("expected increasing calories trend, got %s", uc.Performance.CaloriesTrend)
	}
	if uc.Performance.ProteinTrend != menu.TrendDecreasing {
		t.Errorf("expected decreasing protein trend, got %s", uc.Performance.ProteinTrend)
	}
}

func TestBuildContextStreaks(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	// Gap three days ago splits a 5-day run from the current 3-day run
	// ending yesterday.
	logs := []MealLog{
		dayLog(now, 9, 2000, 100),
		dayLog(now, 8, 2000, 100),
		dayLog(now, 7, 2000, 100),
		dayLog(now, 6, 2000, 100),
		dayLog(now, 5, 2000, 100),
		dayLog(now, 3, 2000, 100),
		dayLog(now, 2, 2000, 100),
		dayLog(now, 1, 2000, 100),
	}

	agg := fixedAggregator(logs, now)
	uc, err := agg.BuildContext(context.Background(), profile.Questionnaire{UserID: "u1"}, &profile.NutritionPlan{GoalCalories: 2000})
	if err != nil {
		t.Fatalf("BuildContext failed: %v", err)
	}

	if uc.Streaks.CurrentDailyStreak != 3 {
		t.Errorf("expected current streak 3, got %d", uc.Streaks.CurrentDailyStreak)
	}
	if uc.Streaks.LongestDailyStreak != 5 {
		t.Errorf("expected longest streak 5, got %d", uc.Streaks.LongestDailyStreak)
	}
}

func TestEstimateGoals(t *testing.T) {
	q := profile.Questionnaire{
		MainGoal:      profile.GoalGainMuscle,
		Age:           30,
		Gender:        "male",
		WeightKG:      80,
		HeightCM:      180,
		ActivityLevel: "moderate",
	}

	goals := EstimateGoals(q)

	// BMR = 10*80 + 6.25*180 - 5*30 + 5 = 1780; TDEE = 1780*1.55 = 2759;
	// muscle gain adds 10%.
	if goals.Calories != 3035 {
		t.Errorf("expected 3035 kcal, got %d", goals.Calories)
	}
	if goals.ProteinG != 144 {
		t.Errorf("expected 144g protein, got %d", goals.ProteinG)
	}
	if goals.WaterML != 2800 {
		t.Errorf("expected 2800ml water, got %d", goals.WaterML)
	}
	if goals.CarbsG <= 0 || goals.FatsG <= 0 {
		t.Errorf("expected positive carbs and fats, got %+v", goals)
	}
}
