package profile

import "time"

// MainGoal is the user's stated objective from the questionnaire.
type MainGoal string

const (
	GoalLoseWeight MainGoal = "lose_weight"
	GoalGainMuscle MainGoal = "gain_muscle"
	GoalMaintain   MainGoal = "maintain"
	GoalOther      MainGoal = "other"
)

// Questionnaire is the standing profile a user fills in before any menu can
// be generated. It is a hard precondition for the pipeline.
type Questionnaire struct {
	UserID              string    `json:"user_id"`
	MainGoal            MainGoal  `json:"main_goal"`
	Age                 int       `json:"age"`
	Gender              string    `json:"gender"`
	WeightKG            float64   `json:"weight_kg"`
	HeightCM            float64   `json:"height_cm"`
	ActivityLevel       string    `json:"activity_level"`
	DietaryPreferences  []string  `json:"dietary_preferences"`
	ExcludedIngredients []string  `json:"excluded_ingredients"`
	MealsPerDay         int       `json:"meals_per_day"`
	CompletedAt         time.Time `json:"completed_at"`
}

// NutritionPlan is the user's most recently saved baseline goals. Optional:
// when absent the target adjuster falls back to the goals carried in the
// user context snapshot.
type NutritionPlan struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	GoalCalories int       `json:"goal_calories"`
	GoalProteinG int       `json:"goal_protein_g"`
	GoalCarbsG   int       `json:"goal_carbs_g"`
	GoalFatsG    int       `json:"goal_fats_g"`
	GoalWaterML  int       `json:"goal_water_ml"`
	CreatedAt    time.Time `json:"created_at"`
}
