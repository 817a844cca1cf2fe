package menu

import (
	"math"
	"strings"

	"nutri-planner/internal/profile"
)

// DefaultAdjustmentReason is returned verbatim when no adjustment rule fires.
const DefaultAdjustmentReason = "Standard targets based on your goals"

const (
	reasonEasedTargets     = "eased calories slightly to make your goals more reachable"
	reasonRewardHeadroom   = "added calorie and protein headroom to reward strong goal achievement"
	reasonSimplify         = "simplified plan with fewer distinct meals to help consistency"
	reasonCurbIntakeTrend  = "trimmed calories to counter a rising intake trend while losing weight"
	reasonBoostIntakeTrend = "raised calories and protein to counter a falling intake trend while building muscle"
	reasonMuscleProtein    = "extra protein to support muscle growth"
	reasonDeficitProtein   = "extra protein to preserve muscle during a deficit"
	reasonStreak           = "nice streak, keeping the plan structure you are used to"
)

// ComputeTargets derives adjusted daily targets from the user's context
// snapshot and their latest saved baseline. Pure and total: it never fails,
// a nil baseline falls back to the goals carried in the context, and a nil
// context yields the base targets unchanged.
//
// The rules compose multiplicatively and in declaration order, so multiple
// simultaneous conditions blend rather than override one another. Reason
// fragments accumulate in the same order.
func ComputeTargets(uc *UserContext, baseline *profile.NutritionPlan) AdjustedTargets {
	base := baseGoals(uc, baseline)

	calorieMultiplier := 1.0
	proteinMultiplier := 1.0
	var reasons []string

	if uc != nil {
		perf := uc.Performance
		goal := uc.Profile.MainGoal

		// Rule 1: goal achievement rate.
		if perf.OverallGoalAchievementRate < 0.7 {
			calorieMultiplier *= 0.95
			reasons = append(reasons, reasonEasedTargets)
		} else if perf.OverallGoalAchievementRate > 0.95 {
			calorieMultiplier *= 1.03
			proteinMultiplier *= 1.05
			reasons = append(reasons, reasonRewardHeadroom)
		}

		// Rule 2: low consistency only annotates, it never changes numbers.
		if perf.ConsistencyScore < 0.5 {
			reasons = append(reasons, reasonSimplify)
		}

		// Rule 3: calorie trend against the stated goal.
		if perf.CaloriesTrend == TrendIncreasing && goal == profile.GoalLoseWeight {
			calorieMultiplier *= 0.97
			reasons = append(reasons, reasonCurbIntakeTrend)
		} else if perf.CaloriesTrend == TrendDecreasing && goal == profile.GoalGainMuscle {
			calorieMultiplier *= 1.05
			proteinMultiplier *= 1.1
			reasons = append(reasons, reasonBoostIntakeTrend)
		}

		// Rule 4: goal-specific protein emphasis.
		if goal == profile.GoalGainMuscle {
			proteinMultiplier *= 1.1
			reasons = append(reasons, reasonMuscleProtein)
		} else if goal == profile.GoalLoseWeight {
			proteinMultiplier *= 1.05
			reasons = append(reasons, reasonDeficitProtein)
		}

		// Rule 5: streak annotation only.
		if uc.Streaks.CurrentDailyStreak >= 7 {
			reasons = append(reasons, reasonStreak)
		}
	}

	reason := DefaultAdjustmentReason
	if len(reasons) > 0 {
		reason = strings.Join(reasons, "; ")
	}

	return AdjustedTargets{
		Calories:         roundMult(base.Calories, calorieMultiplier),
		ProteinG:         roundMult(base.ProteinG, proteinMultiplier),
		CarbsG:           roundMult(base.CarbsG, calorieMultiplier),
		FatsG:            roundMult(base.FatsG, calorieMultiplier),
		WaterML:          base.WaterML,
		AdjustmentReason: reason,
	}
}

// NeedsSimplifiedPlan reports whether the context signals the generator
// should prefer fewer distinct meals.
func NeedsSimplifiedPlan(uc *UserContext) bool {
	return uc != nil && uc.Performance.ConsistencyScore < 0.5
}

func baseGoals(uc *UserContext, baseline *profile.NutritionPlan) NutritionGoals {
	if baseline != nil {
		return NutritionGoals{
			Calories: baseline.GoalCalories,
			ProteinG: baseline.GoalProteinG,
			CarbsG:   baseline.GoalCarbsG,
			FatsG:    baseline.GoalFatsG,
			WaterML:  baseline.GoalWaterML,
		}
	}
	if uc != nil {
		return uc.Goals
	}
	return NutritionGoals{}
}

func roundMult(base int, mult float64) int {
	return int(math.Round(float64(base) * mult))
}
