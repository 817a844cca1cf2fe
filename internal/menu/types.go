package menu

import (
	"time"

	"nutri-planner/internal/profile"
)

// Trend describes the direction of a rolling macro average.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// GenerationSource tags the provenance of a meal plan.
type GenerationSource string

const (
	SourceAI       GenerationSource = "ai"
	SourceFallback GenerationSource = "fallback"
)

// NutritionGoals are daily intake targets.
type NutritionGoals struct {
	Calories int `json:"calories"`
	ProteinG int `json:"protein_g"`
	CarbsG   int `json:"carbs_g"`
	FatsG    int `json:"fats_g"`
	WaterML  int `json:"water_ml"`
}

// PerformanceStats summarize how the user has been tracking against their
// goals over the rolling analysis window.
type PerformanceStats struct {
	OverallGoalAchievementRate float64 `json:"overall_goal_achievement_rate"`
	ConsistencyScore           float64 `json:"consistency_score"`
	CaloriesTrend              Trend   `json:"calories_trend"`
	ProteinTrend               Trend   `json:"protein_trend"`
	CarbsTrend                 Trend   `json:"carbs_trend"`
	FatsTrend                  Trend   `json:"fats_trend"`
	WaterTrend                 Trend   `json:"water_trend"`
}

// MealPatterns describe when and how often the user logs meals.
type MealPatterns struct {
	AvgMealsPerDay float64 `json:"avg_meals_per_day"`
	MostCommonSlot string  `json:"most_common_slot"`
	LoggedDays     int     `json:"logged_days"`
}

// Streaks track consecutive-day logging behavior.
type Streaks struct {
	CurrentDailyStreak int `json:"current_daily_streak"`
	LongestDailyStreak int `json:"longest_daily_streak"`
}

// UserContext is the immutable snapshot of a user's profile, goals and
// behavioral history captured at generation time. It is built fresh per
// request and never mutated afterwards.
type UserContext struct {
	Profile        profile.Questionnaire `json:"profile"`
	Goals          NutritionGoals        `json:"goals"`
	Performance    PerformanceStats      `json:"performance"`
	MealPatterns   MealPatterns          `json:"meal_patterns"`
	Streaks        Streaks               `json:"streaks"`
	HealthInsights []string              `json:"health_insights,omitempty"`
	Achievements   []string              `json:"achievements,omitempty"`
	CapturedAt     time.Time             `json:"captured_at"`
}

// AdjustedTargets is the output of the target adjuster. It is always
// persisted embedded in a MealPlan, never on its own.
type AdjustedTargets struct {
	Calories         int    `json:"calories"`
	ProteinG         int    `json:"protein_g"`
	CarbsG           int    `json:"carbs_g"`
	FatsG            int    `json:"fats_g"`
	WaterML          int    `json:"water_ml"`
	AdjustmentReason string `json:"adjustment_reason"`
}

// GenerateMenuParams is the request envelope from the API boundary. All
// fields except UserID are optional and read-only to the pipeline.
type GenerateMenuParams struct {
	UserID              string   `json:"user_id"`
	Days                int      `json:"days"`
	MealsPerDay         int      `json:"meals_per_day"`
	CustomRequest       string   `json:"custom_request,omitempty"`
	Budget              string   `json:"budget,omitempty"`
	MealChangeFrequency string   `json:"meal_change_frequency,omitempty"`
	IncludeLeftovers    bool     `json:"include_leftovers,omitempty"`
	SameMealTimes       bool     `json:"same_meal_times,omitempty"`
	TargetCalories      int      `json:"target_calories,omitempty"`
	DietaryPreferences  []string `json:"dietary_preferences,omitempty"`
	ExcludedIngredients []string `json:"excluded_ingredients,omitempty"`
}

// Nutrition holds the computed nutrition totals for a meal or a day.
type Nutrition struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatsG    float64 `json:"fats_g"`
}

// Meal is a single planned meal inside a day.
type Meal struct {
	Name        string    `json:"name"`
	Slot        string    `json:"slot"`
	Ingredients []string  `json:"ingredients"`
	Nutrition   Nutrition `json:"nutrition"`
}

// DayPlan is the ordered list of meals for one day of the plan.
type DayPlan struct {
	Day   int    `json:"day"`
	Meals []Meal `json:"meals"`
}

// Snapshot is the embedded copy of the inputs that produced a plan, kept for
// later explainability.
type Snapshot struct {
	Context  *UserContext    `json:"context,omitempty"`
	Targets  AdjustedTargets `json:"targets"`
	Params   GenerateMenuParams `json:"params"`
	Captured time.Time       `json:"captured"`
}

// MealPlan is the persisted artifact of one generation call. Regeneration
// always creates a new plan; rows are never partially updated.
type MealPlan struct {
	ID        int64            `json:"id,omitempty"`
	MenuID    string           `json:"menu_id"`
	UserID    string           `json:"user_id"`
	Title     string           `json:"title"`
	TotalDays int              `json:"total_days"`
	StartDate time.Time        `json:"start_date"`
	EndDate   time.Time        `json:"end_date"`
	Days      []DayPlan        `json:"days"`
	Source    GenerationSource `json:"generation_source"`
	Snapshot  Snapshot         `json:"snapshot"`
	CreatedAt time.Time        `json:"created_at"`
}
