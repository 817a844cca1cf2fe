package menu

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"nutri-planner/internal/profile"
)

//go:embed menu_prompt.md
var menuPrompt string

var menuPromptTmpl = template.Must(template.New("menu").Parse(menuPrompt))

// PromptInput carries everything the prompt builder may embed. Context is
// optional: when nil the reduced-context variant is rendered from the
// questionnaire and targets alone.
type PromptInput struct {
	Params        GenerateMenuParams
	Questionnaire profile.Questionnaire
	Targets       AdjustedTargets
	Context       *UserContext
	CatalogHints  []string
}

type promptData struct {
	Days                 int
	MealsPerDay          int
	CustomRequest        string
	Budget               string
	MealChangeFrequency  string
	IncludeLeftovers     bool
	SameMealTimes        bool
	Targets              AdjustedTargets
	MainGoal             profile.MainGoal
	Preferences          []string
	Exclusions           []string
	HasContext           bool
	Simplify             bool
	PerformanceNarrative string
	CatalogHints         []string
}

// BuildPrompt renders the generation instruction deterministically from its
// inputs. String templating only; it never performs I/O.
func BuildPrompt(in PromptInput) (string, error) {
	data := promptData{
		Days:                in.Params.Days,
		MealsPerDay:         in.Params.MealsPerDay,
		CustomRequest:       in.Params.CustomRequest,
		Budget:              in.Params.Budget,
		MealChangeFrequency: in.Params.MealChangeFrequency,
		IncludeLeftovers:    in.Params.IncludeLeftovers,
		SameMealTimes:       in.Params.SameMealTimes,
		Targets:             in.Targets,
		MainGoal:            in.Questionnaire.MainGoal,
		Preferences:         mergeDistinct(in.Questionnaire.DietaryPreferences, in.Params.DietaryPreferences),
		Exclusions:          mergeDistinct(in.Questionnaire.ExcludedIngredients, in.Params.ExcludedIngredients),
		CatalogHints:        in.CatalogHints,
	}

	if in.Context != nil {
		data.HasContext = true
		data.Simplify = NeedsSimplifiedPlan(in.Context)
		data.PerformanceNarrative = performanceNarrative(in.Context)
	}

	var buf bytes.Buffer
	if err := menuPromptTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render menu prompt: %w", err)
	}
	return buf.String(), nil
}

// performanceNarrative condenses the context snapshot into a few plain
// sentences so the model can personalize without calling back for data.
func performanceNarrative(uc *UserContext) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "The user hits their daily goals %.0f%% of the time and logs meals with %.0f%% consistency. ",
		uc.Performance.OverallGoalAchievementRate*100, uc.Performance.ConsistencyScore*100)
	fmt.Fprintf(&sb, "Calorie intake is %s, protein intake is %s. ",
		uc.Performance.CaloriesTrend, uc.Performance.ProteinTrend)

	if uc.MealPatterns.LoggedDays > 0 {
		fmt.Fprintf(&sb, "They average %.1f meals per day, most often logging %s. ",
			uc.MealPatterns.AvgMealsPerDay, uc.MealPatterns.MostCommonSlot)
	}
	if uc.Streaks.CurrentDailyStreak > 0 {
		fmt.Fprintf(&sb, "Current logging streak: %d days. ", uc.Streaks.CurrentDailyStreak)
	}
	for _, insight := range uc.HealthInsights {
		fmt.Fprintf(&sb, "%s. ", insight)
	}

	return strings.TrimSpace(sb.String())
}

func mergeDistinct(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			key := strings.ToLower(v)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
