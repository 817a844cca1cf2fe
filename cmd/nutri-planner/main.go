package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"nutri-planner/internal/app"
	"nutri-planner/internal/config"
	"nutri-planner/internal/insights"
	"nutri-planner/internal/logger"
	"nutri-planner/internal/menu"
	"nutri-planner/internal/profile"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "questionnaire":
		err = runQuestionnaire(ctx, application, os.Args[2:])
	case "plan":
		err = runPlan(ctx, application, os.Args[2:])
	case "custom":
		err = runCustom(ctx, application, os.Args[2:])
	case "log":
		err = runLog(ctx, application, os.Args[2:])
	case "import":
		err = runImport(ctx, application, os.Args[2:])
	case "metrics-cleanup":
		err = runMetricsCleanup(ctx, application, os.Args[2:])
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("Command failed: %v", err)
	}
}

func printUsage() {
	fmt.Println("Usage: nutri-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  questionnaire      Save a user profile questionnaire")
	fmt.Println("  plan               Generate a personalized meal plan")
	fmt.Println("  custom             Generate a plan from a free-text request")
	fmt.Println("  log                Log a meal")
	fmt.Println("  import             Import a recipe URL into the meal catalog")
	fmt.Println("  metrics-cleanup    Remove old metric records")
}

func runQuestionnaire(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("questionnaire", flag.ExitOnError)
	userID := fs.String("user", "", "User ID (required)")
	goal := fs.String("goal", "maintain", "Main goal: lose_weight, gain_muscle, maintain, other")
	age := fs.Int("age", 0, "Age in years")
	gender := fs.String("gender", "", "Gender: male or female")
	weight := fs.Float64("weight", 0, "Weight in kg")
	height := fs.Float64("height", 0, "Height in cm")
	activity := fs.String("activity", "moderate", "Activity level: sedentary, light, moderate, active, very_active")
	meals := fs.Int("meals", 3, "Preferred meals per day")
	prefs := fs.String("prefs", "", "Comma-separated dietary preference tags")
	exclude := fs.String("exclude", "", "Comma-separated excluded ingredients")
	fs.Parse(args)

	if *userID == "" {
		return fmt.Errorf("the -user flag is required")
	}

	q := profile.Questionnaire{
		UserID:              *userID,
		MainGoal:            profile.MainGoal(*goal),
		Age:                 *age,
		Gender:              *gender,
		WeightKG:            *weight,
		HeightCM:            *height,
		ActivityLevel:       *activity,
		MealsPerDay:         *meals,
		DietaryPreferences:  splitList(*prefs),
		ExcludedIngredients: splitList(*exclude),
		CompletedAt:         time.Now().UTC(),
	}
	if err := a.Profiles.SaveQuestionnaire(ctx, q); err != nil {
		return err
	}

	goals := insights.EstimateGoals(q)
	plan := profile.NutritionPlan{
		UserID:       q.UserID,
		GoalCalories: goals.Calories,
		GoalProteinG: goals.ProteinG,
		GoalCarbsG:   goals.CarbsG,
		GoalFatsG:    goals.FatsG,
		GoalWaterML:  goals.WaterML,
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.Profiles.SaveNutritionPlan(ctx, plan); err != nil {
		return err
	}

	fmt.Printf("Questionnaire saved. Daily goals: %d kcal, %dg protein, %dg carbs, %dg fats, %dml water\n",
		goals.Calories, goals.ProteinG, goals.CarbsG, goals.FatsG, goals.WaterML)
	return nil
}

func runPlan(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	userID := fs.String("user", "", "User ID (required)")
	days := fs.Int("days", 0, "Number of days (defaults from config)")
	meals := fs.Int("meals", 0, "Meals per day (defaults from questionnaire)")
	asJSON := fs.Bool("json", false, "Print the full plan as JSON")
	fs.Parse(args)

	if *userID == "" {
		return fmt.Errorf("the -user flag is required")
	}

	plan, err := a.MenuService.GeneratePersonalizedMenu(ctx, menu.GenerateMenuParams{
		UserID:      *userID,
		Days:        *days,
		MealsPerDay: *meals,
	})
	if err != nil {
		return err
	}
	return printPlan(plan, *asJSON)
}

func runCustom(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("custom", flag.ExitOnError)
	userID := fs.String("user", "", "User ID (required)")
	request := fs.String("request", "", "Free-text plan request (required)")
	asJSON := fs.Bool("json", false, "Print the full plan as JSON")
	fs.Parse(args)

	if *userID == "" || *request == "" {
		return fmt.Errorf("the -user and -request flags are required")
	}

	plan, err := a.MenuService.GenerateCustomMenu(ctx, *userID, *request)
	if err != nil {
		return err
	}
	return printPlan(plan, *asJSON)
}

func runLog(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	userID := fs.String("user", "", "User ID (required)")
	calories := fs.Float64("calories", 0, "Calories (required)")
	protein := fs.Float64("protein", 0, "Protein in grams")
	carbs := fs.Float64("carbs", 0, "Carbs in grams")
	fats := fs.Float64("fats", 0, "Fats in grams")
	water := fs.Float64("water", 0, "Water in ml")
	slot := fs.String("slot", "", "Meal slot: breakfast, lunch, dinner, snack")
	fs.Parse(args)

	if *userID == "" {
		return fmt.Errorf("the -user flag is required")
	}

	return a.Logs.LogMeal(ctx, insights.MealLog{
		UserID:   *userID,
		MealSlot: *slot,
		Calories: *calories,
		ProteinG: *protein,
		CarbsG:   *carbs,
		FatsG:    *fats,
		WaterML:  *water,
	})
}

func runImport(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	url := fs.String("url", "", "Recipe page URL (required)")
	fs.Parse(args)

	if *url == "" {
		return fmt.Errorf("the -url flag is required")
	}
	if a.Importer == nil {
		return fmt.Errorf("importing requires both a text and an embedding provider to be configured")
	}

	tpl, meta, err := a.Importer.ImportURL(ctx, *url)
	if err != nil {
		return err
	}
	if recErr := a.MetricsStore.RecordGeneration(ctx, meta, ""); recErr != nil {
		log.Printf("Warning: failed to record import metrics: %v", recErr)
	}

	fmt.Printf("Imported %q (%s): %.0f kcal, %.0fg protein per serving\n",
		tpl.Name, tpl.Slot, tpl.Nutrition.Calories, tpl.Nutrition.ProteinG)
	return nil
}

func runMetricsCleanup(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
	days := fs.Int("days", 30, "Keep records for the last N days")
	fs.Parse(args)

	affected, err := a.MetricsStore.Cleanup(ctx, *days)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d old metric records.\n", affected)
	return nil
}

func printPlan(plan *menu.MealPlan, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	targets := plan.Snapshot.Targets
	fmt.Printf("%s (%s)\n", plan.Title, plan.Source)
	fmt.Printf("Targets: %d kcal, %dg protein, %dg carbs, %dg fats\n", targets.Calories, targets.ProteinG, targets.CarbsG, targets.FatsG)
	fmt.Printf("Why: %s\n\n", targets.AdjustmentReason)

	for _, day := range plan.Days {
		fmt.Printf("Day %d\n", day.Day)
		for _, meal := range day.Meals {
			fmt.Printf("  %-10s %s (%.0f kcal, %.0fg protein)\n", meal.Slot, meal.Name, meal.Nutrition.Calories, meal.Nutrition.ProteinG)
		}
		fmt.Println()
	}
	return nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
