package insights

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"nutri-planner/internal/menu"
	"nutri-planner/internal/profile"
)

// analysisWindowDays is the rolling window the aggregator looks back over.
const analysisWindowDays = 14

// defaultAchievementRate is assumed when the user has no logs yet, so the
// target adjuster neither eases nor rewards a blank history.
const defaultAchievementRate = 0.75

// LogSource is the slice of LogRepository the aggregator needs.
type LogSource interface {
	ListSince(ctx context.Context, userID string, since time.Time) ([]MealLog, error)
}

// Aggregator condenses a user's recent logging history into the context
// snapshot the menu pipeline consumes.
type Aggregator struct {
	logs LogSource
	now  func() time.Time
}

// NewAggregator creates a new Aggregator.
func NewAggregator(logs LogSource) *Aggregator {
	return &Aggregator{logs: logs, now: time.Now}
}

// BuildContext assembles the immutable user context snapshot. The baseline
// plan is optional; without one the goals are estimated from the
// questionnaire.
func (a *Aggregator) BuildContext(ctx context.Context, q profile.Questionnaire, baseline *profile.NutritionPlan) (*menu.UserContext, error) {
	now := a.now().UTC()
	since := now.AddDate(0, 0, -analysisWindowDays)

	logs, err := a.logs.ListSince(ctx, q.UserID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load nutrition logs: %w", err)
	}

	goals := goalsFor(q, baseline)
	days := groupByDay(logs)

	uc := &menu.UserContext{
		Profile:      q,
		Goals:        goals,
		Performance:  performance(days, goals),
		MealPatterns: mealPatterns(logs, days),
		Streaks:      streaks(days, now),
		CapturedAt:   now,
	}
	uc.Achievements = achievements(uc)
	uc.HealthInsights = healthInsights(uc, q)
	return uc, nil
}

// dayTotals are summed intake values for one calendar day.
type dayTotals struct {
	Date     string
	Meals    int
	Calories float64
	ProteinG float64
	CarbsG   float64
	FatsG    float64
	WaterML  float64
}

func groupByDay(logs []MealLog) []dayTotals {
	byDate := make(map[string]*dayTotals)
	for _, l := range logs {
		date := l.LoggedAt.UTC().Format("2006-01-02")
		d, ok := byDate[date]
		if !ok {
			d = &dayTotals{Date: date}
			byDate[date] = d
		}
		d.Meals++
		d.Calories += l.Calories
		d.ProteinG += l.ProteinG
		d.CarbsG += l.CarbsG
		d.FatsG += l.FatsG
		d.WaterML += l.WaterML
	}

	days := make([]dayTotals, 0, len(byDate))
	for _, d := range byDate {
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

func performance(days []dayTotals, goals menu.NutritionGoals) menu.PerformanceStats {
	stats := menu.PerformanceStats{
		OverallGoalAchievementRate: defaultAchievementRate,
		CaloriesTrend:              menu.TrendStable,
		ProteinTrend:               menu.TrendStable,
		CarbsTrend:                 menu.TrendStable,
		FatsTrend:                  menu.TrendStable,
		WaterTrend:                 menu.TrendStable,
	}
	if len(days) == 0 {
		return stats
	}

	achieved := 0
	for _, d := range days {
		if goals.Calories > 0 {
			ratio := d.Calories / float64(goals.Calories)
			if ratio >= 0.8 && ratio <= 1.1 {
				achieved++
			}
		}
	}
	stats.OverallGoalAchievementRate = float64(achieved) / float64(len(days))
	stats.ConsistencyScore = math.Min(float64(len(days))/float64(analysisWindowDays), 1.0)

	stats.CaloriesTrend = trendOf(days, func(d dayTotals) float64 { return d.Calories })
	stats.ProteinTrend = trendOf(days, func(d dayTotals) float64 { return d.ProteinG })
	stats.CarbsTrend = trendOf(days, func(d dayTotals) float64 { return d.CarbsG })
	stats.FatsTrend = trendOf(days, func(d dayTotals) float64 { return d.FatsG })
	stats.WaterTrend = trendOf(days, func(d dayTotals) float64 { return d.WaterML })
	return stats
}

// trendOf compares the first and second half of the window. Fewer than four
// logged days is not enough signal to call a direction.
func trendOf(days []dayTotals, value func(dayTotals) float64) menu.Trend {
	if len(days) < 4 {
		return menu.TrendStable
	}

	mid := len(days) / 2
	first := avg(days[:mid], value)
	second := avg(days[mid:], value)
	if first == 0 {
		return menu.TrendStable
	}

	change := (second - first) / first
	switch {
	case change > 0.05:
		return menu.TrendIncreasing
	case change < -0.05:
		return menu.TrendDecreasing
	default:
		return menu.TrendStable
	}
}

func avg(days []dayTotals, value func(dayTotals) float64) float64 {
	if len(days) == 0 {
		return 0
	}
	var sum float64
	for _, d := range days {
		sum += value(d)
	}
	return sum / float64(len(days))
}

func mealPatterns(logs []MealLog, days []dayTotals) menu.MealPatterns {
	patterns := menu.MealPatterns{LoggedDays: len(days)}
	if len(days) == 0 {
		return patterns
	}

	patterns.AvgMealsPerDay = float64(len(logs)) / float64(len(days))

	slotCounts := make(map[string]int)
	for _, l := range logs {
		if l.MealSlot != "" {
			slotCounts[l.MealSlot]++
		}
	}
	best := 0
	for slot, count := range slotCounts {
		if count > best || (count == best && slot < patterns.MostCommonSlot) {
			best = count
			patterns.MostCommonSlot = slot
		}
	}
	return patterns
}

func streaks(days []dayTotals, now time.Time) menu.Streaks {
	logged := make(map[string]bool, len(days))
	for _, d := range days {
		logged[d.Date] = true
	}

	var s menu.Streaks

	// Current streak counts back from today, tolerating a not-yet-logged
	// today by starting from yesterday.
	cursor := now
	if !logged[cursor.Format("2006-01-02")] {
		cursor = cursor.AddDate(0, 0, -1)
	}
	for logged[cursor.Format("2006-01-02")] {
		s.CurrentDailyStreak++
		cursor = cursor.AddDate(0, 0, -1)
	}

	run := 0
	var prev time.Time
	for _, d := range days {
		date, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			continue
		}
		if run > 0 && date.Sub(prev) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > s.LongestDailyStreak {
			s.LongestDailyStreak = run
		}
		prev = date
	}
	return s
}

func achievements(uc *menu.UserContext) []string {
	var out []string
	if uc.Streaks.CurrentDailyStreak >= 7 {
		out = append(out, fmt.Sprintf("Logging streak of %d days", uc.Streaks.CurrentDailyStreak))
	}
	if uc.MealPatterns.LoggedDays > 0 && uc.Performance.OverallGoalAchievementRate >= 0.9 {
		out = append(out, "Hit calorie goals on 90% or more of logged days")
	}
	if uc.Performance.ConsistencyScore >= 0.8 {
		out = append(out, "Consistent logging over the last two weeks")
	}
	return out
}

func healthInsights(uc *menu.UserContext, q profile.Questionnaire) []string {
	var out []string
	if uc.Performance.WaterTrend == menu.TrendDecreasing {
		out = append(out, "Water intake has been trending down lately")
	}
	if q.MealsPerDay > 0 && uc.MealPatterns.LoggedDays > 0 &&
		uc.MealPatterns.AvgMealsPerDay < float64(q.MealsPerDay)-0.5 {
		out = append(out, fmt.Sprintf("They log fewer meals (%.1f/day) than their %d-meal routine", uc.MealPatterns.AvgMealsPerDay, q.MealsPerDay))
	}
	if q.MainGoal == profile.GoalGainMuscle && uc.Performance.ProteinTrend == menu.TrendDecreasing {
		out = append(out, "Protein intake is slipping despite a muscle gain goal")
	}
	return out
}

// goalsFor prefers the saved baseline; otherwise it estimates daily goals
// from the questionnaire with the Mifflin-St Jeor equation.
func goalsFor(q profile.Questionnaire, baseline *profile.NutritionPlan) menu.NutritionGoals {
	if baseline != nil {
		return menu.NutritionGoals{
			Calories: baseline.GoalCalories,
			ProteinG: baseline.GoalProteinG,
			CarbsG:   baseline.GoalCarbsG,
			FatsG:    baseline.GoalFatsG,
			WaterML:  baseline.GoalWaterML,
		}
	}
	return EstimateGoals(q)
}

// EstimateGoals derives daily nutrition goals from body metrics. Used both
// as the questionnaire-time default plan and as the aggregator's fallback
// when no plan was ever saved.
func EstimateGoals(q profile.Questionnaire) menu.NutritionGoals {
	weight := q.WeightKG
	if weight <= 0 {
		weight = 70
	}
	height := q.HeightCM
	if height <= 0 {
		height = 170
	}
	age := q.Age
	if age <= 0 {
		age = 30
	}

	bmr := 10*weight + 6.25*height - 5*float64(age)
	if q.Gender == "male" {
		bmr += 5
	} else {
		bmr -= 161
	}

	tdee := bmr * activityFactor(q.ActivityLevel)

	calories := tdee
	proteinPerKG := 1.4
	switch q.MainGoal {
	case profile.GoalLoseWeight:
		calories = tdee * 0.85
		proteinPerKG = 1.8
	case profile.GoalGainMuscle:
		calories = tdee * 1.10
		proteinPerKG = 1.8
	}

	protein := weight * proteinPerKG
	fats := calories * 0.25 / 9
	carbs := (calories - protein*4 - fats*9) / 4
	if carbs < 0 {
		carbs = 0
	}

	return menu.NutritionGoals{
		Calories: int(math.Round(calories)),
		ProteinG: int(math.Round(protein)),
		CarbsG:   int(math.Round(carbs)),
		FatsG:    int(math.Round(fats)),
		WaterML:  int(math.Round(weight * 35)),
	}
}

func activityFactor(level string) float64 {
	switch level {
	case "sedentary":
		return 1.2
	case "light":
		return 1.375
	case "moderate":
		return 1.55
	case "active":
		return 1.725
	case "very_active":
		return 1.9
	default:
		return 1.4
	}
}
