package menu

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nutri-planner/internal/catalog"
	"nutri-planner/internal/llm"
	"nutri-planner/internal/profile"
	"nutri-planner/internal/shared"

	"github.com/google/uuid"
)

// catalogHintLimit caps how many similar templates are surfaced in the prompt.
const catalogHintLimit = 3

// ProfileSource supplies the user's standing profile data.
type ProfileSource interface {
	LatestQuestionnaire(ctx context.Context, userID string) (*profile.Questionnaire, error)
	LatestNutritionPlan(ctx context.Context, userID string) (*profile.NutritionPlan, error)
}

// ContextBuilder assembles the behavioral context snapshot. Failures here
// degrade generation to profile-only, they never abort it.
type ContextBuilder interface {
	BuildContext(ctx context.Context, q profile.Questionnaire, baseline *profile.NutritionPlan) (*UserContext, error)
}

// PlanStore persists finished meal plans.
type PlanStore interface {
	Save(ctx context.Context, plan *MealPlan) (int64, error)
}

// TemplateSource supplies the meal template catalog for the fallback
// generator and for prompt hints.
type TemplateSource interface {
	All(ctx context.Context) ([]catalog.Template, error)
	FindSimilar(ctx context.Context, queryEmbedding []float32, limit int) ([]string, error)
}

// ShoppingBuilder derives and stores a shopping list for a saved plan.
type ShoppingBuilder interface {
	SaveFromPlan(ctx context.Context, plan *MealPlan) error
}

// SnapshotArchiver writes the plan's reproducibility snapshot to the archive.
type SnapshotArchiver interface {
	Archive(plan *MealPlan) error
}

// MetricsRecorder records per-generation execution metrics.
type MetricsRecorder interface {
	RecordGeneration(ctx context.Context, meta shared.CallMeta, source string) error
}

// Options tune request defaults and the generation deadline.
type Options struct {
	DefaultDays        int
	DefaultMealsPerDay int
	GenerationTimeout  time.Duration
}

// Service orchestrates the full menu pipeline: load profile, build context,
// adjust targets, generate (AI or fallback), persist. One generation attempt
// per request; the fallback catches every generation-path failure.
type Service struct {
	profiles       ProfileSource
	contextBuilder ContextBuilder
	plans          PlanStore
	templates      TemplateSource
	textGen        llm.TextGenerator
	embedGen       llm.EmbeddingGenerator
	shopping       ShoppingBuilder
	archive        SnapshotArchiver
	metrics        MetricsRecorder
	opts           Options
}

// NewService creates the menu service. textGen and embedGen may be nil when
// no provider is configured; shopping, archive and metrics may be nil to
// skip those side effects.
func NewService(
	profiles ProfileSource,
	contextBuilder ContextBuilder,
	plans PlanStore,
	templates TemplateSource,
	textGen llm.TextGenerator,
	embedGen llm.EmbeddingGenerator,
	shopping ShoppingBuilder,
	archive SnapshotArchiver,
	metrics MetricsRecorder,
	opts Options,
) *Service {
	if opts.DefaultDays <= 0 {
		opts.DefaultDays = 7
	}
	if opts.DefaultMealsPerDay <= 0 {
		opts.DefaultMealsPerDay = 3
	}
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = 25 * time.Second
	}
	return &Service{
		profiles:       profiles,
		contextBuilder: contextBuilder,
		plans:          plans,
		templates:      templates,
		textGen:        textGen,
		embedGen:       embedGen,
		shopping:       shopping,
		archive:        archive,
		metrics:        metrics,
		opts:           opts,
	}
}

// GeneratePersonalizedMenu runs the pipeline for one request and returns the
// persisted plan. The only errors it returns are a missing questionnaire, a
// failed store write and an exhausted fallback catalog; everything on the
// generation path is absorbed by falling back.
func (s *Service) GeneratePersonalizedMenu(ctx context.Context, params GenerateMenuParams) (*MealPlan, error) {
	q, err := s.profiles.LatestQuestionnaire(ctx, params.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questionnaire: %w", err)
	}
	if q == nil {
		return nil, &PreconditionError{UserID: params.UserID, Missing: "questionnaire"}
	}

	s.applyDefaults(&params, q)

	baseline, err := s.profiles.LatestNutritionPlan(ctx, params.UserID)
	if err != nil {
		slog.Warn("failed to load baseline plan, continuing without it", "user_id", params.UserID, "error", err)
		baseline = nil
	}

	uc, err := s.contextBuilder.BuildContext(ctx, *q, baseline)
	if err != nil {
		slog.Warn("context aggregation failed, generating from profile only", "user_id", params.UserID, "error", err)
		uc = nil
	}

	targets := ComputeTargets(uc, baseline)
	if params.TargetCalories > 0 {
		targets = retargetCalories(targets, params.TargetCalories)
	}

	templates, err := s.templates.All(ctx)
	if err != nil {
		slog.Warn("failed to load template catalog", "error", err)
		templates = nil
	}

	title, days, meta, source, err := s.generate(ctx, params, *q, uc, targets, templates)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = fmt.Sprintf("%d-Day Meal Plan for %s", params.Days, goalTitle(q.MainGoal))
	}

	now := time.Now().UTC()
	start := now.Truncate(24 * time.Hour)
	plan := &MealPlan{
		MenuID:    uuid.NewString(),
		UserID:    params.UserID,
		Title:     title,
		TotalDays: params.Days,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, params.Days-1),
		Days:      days,
		Source:    source,
		Snapshot: Snapshot{
			Context:  uc,
			Targets:  targets,
			Params:   params,
			Captured: now,
		},
		CreatedAt: now,
	}

	if _, err := s.plans.Save(ctx, plan); err != nil {
		return nil, &PersistenceError{Err: err}
	}

	s.runSideEffects(ctx, plan, meta)

	slog.Info("meal plan generated",
		"user_id", params.UserID, "menu_id", plan.MenuID,
		"days", params.Days, "source", string(source))
	return plan, nil
}

// GenerateCustomMenu is GeneratePersonalizedMenu with a free-text request
// steering the generation.
func (s *Service) GenerateCustomMenu(ctx context.Context, userID, request string) (*MealPlan, error) {
	return s.GeneratePersonalizedMenu(ctx, GenerateMenuParams{
		UserID:        userID,
		CustomRequest: request,
	})
}

// generate makes exactly one external generation attempt, then falls back to
// the deterministic catalog generator on any failure along that path.
func (s *Service) generate(
	ctx context.Context,
	params GenerateMenuParams,
	q profile.Questionnaire,
	uc *UserContext,
	targets AdjustedTargets,
	templates []catalog.Template,
) (string, []DayPlan, shared.CallMeta, GenerationSource, error) {
	title, days, meta, err := s.generateWithAI(ctx, params, q, uc, targets, templates)
	if err == nil {
		return title, days, meta, SourceAI, nil
	}
	slog.Warn("ai generation failed, using fallback generator", "user_id", params.UserID, "error", err)

	title, days, err = GenerateFallback(params, q, uc, targets, templates)
	if err != nil {
		return "", nil, meta, SourceFallback, err
	}
	return title, days, meta, SourceFallback, nil
}

func (s *Service) generateWithAI(
	ctx context.Context,
	params GenerateMenuParams,
	q profile.Questionnaire,
	uc *UserContext,
	targets AdjustedTargets,
	templates []catalog.Template,
) (string, []DayPlan, shared.CallMeta, error) {
	if s.textGen == nil {
		return "", nil, shared.CallMeta{}, ErrGenerationUnavailable
	}

	prompt, err := BuildPrompt(PromptInput{
		Params:        params,
		Questionnaire: q,
		Targets:       targets,
		Context:       uc,
		CatalogHints:  s.catalogHints(ctx, params, templates),
	})
	if err != nil {
		return "", nil, shared.CallMeta{}, err
	}

	genCtx, cancel := context.WithTimeout(ctx, s.opts.GenerationTimeout)
	defer cancel()

	start := time.Now()
	resp, err := s.textGen.GenerateContent(genCtx, prompt)
	meta := shared.CallMeta{Stage: "MenuGenerator", Usage: resp.Usage, Latency: time.Since(start)}
	if err != nil {
		return "", nil, meta, &GenerationFailedError{Err: err}
	}

	title, days, err := ParsePlan(resp.Content, params)
	if err != nil {
		return "", nil, meta, err
	}
	return title, days, meta, nil
}

// catalogHints embeds the custom request and surfaces the closest catalog
// templates by name. Best effort: any failure just means no hints.
func (s *Service) catalogHints(ctx context.Context, params GenerateMenuParams, templates []catalog.Template) []string {
	if s.embedGen == nil || params.CustomRequest == "" || len(templates) == 0 {
		return nil
	}

	embedding, err := s.embedGen.GenerateEmbedding(ctx, params.CustomRequest)
	if err != nil {
		slog.Warn("failed to embed custom request", "error", err)
		return nil
	}
	ids, err := s.templates.FindSimilar(ctx, embedding, catalogHintLimit)
	if err != nil {
		slog.Warn("catalog similarity lookup failed", "error", err)
		return nil
	}

	byID := make(map[string]string, len(templates))
	for _, t := range templates {
		byID[t.ID] = t.Name
	}
	var hints []string
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			hints = append(hints, name)
		}
	}
	return hints
}

// runSideEffects handles the best-effort work after the plan is saved. None
// of these can fail the request.
func (s *Service) runSideEffects(ctx context.Context, plan *MealPlan, meta shared.CallMeta) {
	if s.shopping != nil {
		if err := s.shopping.SaveFromPlan(ctx, plan); err != nil {
			slog.Warn("failed to build shopping list", "menu_id", plan.MenuID, "error", err)
		}
	}
	if s.archive != nil {
		if err := s.archive.Archive(plan); err != nil {
			slog.Warn("failed to archive plan snapshot", "menu_id", plan.MenuID, "error", err)
		}
	}
	if s.metrics != nil && meta.Stage != "" {
		if err := s.metrics.RecordGeneration(ctx, meta, string(plan.Source)); err != nil {
			slog.Warn("failed to record generation metrics", "menu_id", plan.MenuID, "error", err)
		}
	}
}

func (s *Service) applyDefaults(params *GenerateMenuParams, q *profile.Questionnaire) {
	if params.Days <= 0 {
		params.Days = s.opts.DefaultDays
	}
	if params.MealsPerDay <= 0 {
		if q.MealsPerDay > 0 {
			params.MealsPerDay = q.MealsPerDay
		} else {
			params.MealsPerDay = s.opts.DefaultMealsPerDay
		}
	}
}

// retargetCalories rescales the adjusted targets onto an explicit calorie
// override, keeping the macro ratios the adjuster produced.
func retargetCalories(t AdjustedTargets, calories int) AdjustedTargets {
	if t.Calories <= 0 {
		t.Calories = calories
		return t
	}
	factor := float64(calories) / float64(t.Calories)
	t.ProteinG = roundMult(t.ProteinG, factor)
	t.CarbsG = roundMult(t.CarbsG, factor)
	t.FatsG = roundMult(t.FatsG, factor)
	t.Calories = calories
	return t
}
