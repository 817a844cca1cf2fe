package menu

import (
	"context"
	"errors"
	"testing"

	"nutri-planner/internal/catalog"
	"nutri-planner/internal/llm"
	"nutri-planner/internal/profile"
)

type stubProfiles struct {
	q       *profile.Questionnaire
	qErr    error
	plan    *profile.NutritionPlan
	planErr error
}

func (s *stubProfiles) LatestQuestionnaire(_ context.Context, _ string) (*profile.Questionnaire, error) {
	return s.q, s.qErr
}

func (s *stubProfiles) LatestNutritionPlan(_ context.Context, _ string) (*profile.NutritionPlan, error) {
	return s.plan, s.planErr
}

type stubContextBuilder struct {
	uc  *UserContext
	err error
}

func (s *stubContextBuilder) BuildContext(_ context.Context, _ profile.Questionnaire, _ *profile.NutritionPlan) (*UserContext, error) {
	return s.uc, s.err
}

type stubPlanStore struct {
	saved []*MealPlan
	err   error
}

func (s *stubPlanStore) Save(_ context.Context, plan *MealPlan) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.saved = append(s.saved, plan)
	return int64(len(s.saved)), nil
}

type stubTemplates struct {
	templates []catalog.Template
	similar   []string
}

func (s *stubTemplates) All(_ context.Context) ([]catalog.Template, error) {
	return s.templates, nil
}

func (s *stubTemplates) FindSimilar(_ context.Context, _ []float32, _ int) ([]string, error) {
	return s.similar, nil
}

type stubTextGen struct {
	content string
	err     error
	calls   int
}

func (s *stubTextGen) GenerateContent(_ context.Context, _ string) (llm.ContentResponse, error) {
	s.calls++
	if s.err != nil {
		return llm.ContentResponse{}, s.err
	}
	return llm.ContentResponse{Content: s.content}, nil
}

func testQuestionnaire() *profile.Questionnaire {
	return &profile.Questionnaire{UserID: "u1", MainGoal: profile.GoalLoseWeight, MealsPerDay: 2}
}

func newTestService(profiles *stubProfiles, gen llm.TextGenerator, store *stubPlanStore) *Service {
	return NewService(
		profiles,
		&stubContextBuilder{},
		store,
		&stubTemplates{templates: testCatalog()},
		gen,
		nil, nil, nil, nil,
		Options{DefaultDays: 2, DefaultMealsPerDay: 2},
	)
}

func TestGenerateMissingQuestionnaire(t *testing.T) {
	svc := newTestService(&stubProfiles{}, nil, &stubPlanStore{})

	_, err := svc.GeneratePersonalizedMenu(context.Background(), GenerateMenuParams{UserID: "u1"})

	var precondition *PreconditionError
	if !errors.As(err, &precondition) {
		t.Fatalf("expected PreconditionError, got %v", err)
	}
	if precondition.Missing != "questionnaire" {
		t.Errorf("unexpected missing field: %s", precondition.Missing)
	}
}

func TestGenerateFromAI(t *testing.T) {
	gen := &stubTextGen{content: validPlanJSON}
	store := &stubPlanStore{}
	svc := newTestService(&stubProfiles{q: testQuestionnaire(), plan: baselinePlan()}, gen, store)

	plan, err := svc.GeneratePersonalizedMenu(context.Background(), GenerateMenuParams{UserID: "u1"})
	if err != nil {
		t.Fatalf("GeneratePersonalizedMenu failed: %v", err)
	}

	if plan.Source != SourceAI {
		t.Errorf("expected source ai, got %s", plan.Source)
	}
	if gen.calls != 1 {
		t.Errorf("expected exactly one generation attempt, got %d", gen.calls)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected one persisted plan, got %d", len(store.saved))
	}
	if plan.MenuID == "" {
		t.Error("expected a menu ID")
	}
	if plan.TotalDays != 2 || len(plan.Days) != 2 {
		t.Errorf("expected 2-day plan, got total=%d days=%d", plan.TotalDays, len(plan.Days))
	}
	if plan.Snapshot.Targets.Calories == 0 {
		t.Error("snapshot must carry the adjusted targets")
	}
}

func TestGenerateFallsBackWhenUnconfigured(t *testing.T) {
	store := &stubPlanStore{}
	svc := newTestService(&stubProfiles{q: testQuestionnaire(), plan: baselinePlan()}, nil, store)

	plan, err := svc.GeneratePersonalizedMenu(context.Background(), GenerateMenuParams{UserID: "u1"})
	if err != nil {
		t.Fatalf("GeneratePersonalizedMenu failed: %v", err)
	}

	if plan.Source != SourceFallback {
		t.Errorf("expected fallback source, got %s", plan.Source)
	}
	if len(plan.Days) != 2 {
		t.Errorf("expected 2 days from fallback, got %d", len(plan.Days))
	}
}

func TestGenerateFallsBackOnGenerationFailure(t *testing.T) {
	gen := &stubTextGen{err: errors.New("rate limited")}
	store := &stubPlanStore{}
	svc := newTestService(&stubProfiles{q: testQuestionnaire(), plan: baselinePlan()}, gen, store)

	plan, err := svc.GeneratePersonalizedMenu(context.Background(), GenerateMenuParams{UserID: "u1"})
	if err != nil {
		t.Fatalf("generation failure must be absorbed, got %v", err)
	}

	if plan.Source != SourceFallback {
		t.Errorf("expected fallback source, got %s", plan.Source)
	}
	if gen.calls != 1 {
		t.Errorf("expected no retries, got %d attempts", gen.calls)
	}
}

func TestGenerateFallsBackOnMalformedOutput(t *testing.T) {
	gen := &stubTextGen{content: "I am sorry, I cannot produce JSON today."}
	store := &stubPlanStore{}
	svc := newTestService(&stubProfiles{q: testQuestionnaire(), plan: baselinePlan()}, gen, store)

	plan, err := svc.GeneratePersonalizedMenu(context.Background(), GenerateMenuParams{UserID: "u1"})
	if err != nil {
		t.Fatalf("malformed output must be absorbed, got %v", err)
	}
	if plan.Source != SourceFallback {
		t.Errorf("expected fallback source, got %s", plan.Source)
	}
}

func TestGeneratePersistenceFailureIsFatal(t *testing.T) {
	gen := &stubTextGen{content: validPlanJSON}
	store := &stubPlanStore{err: errors.New("disk full")}
	svc := newTestService(&stubProfiles{q: testQuestionnaire(), plan: baselinePlan()}, gen, store)

	_, err := svc.GeneratePersonalizedMenu(context.Background(), GenerateMenuParams{UserID: "u1"})

	var persistence *PersistenceError
	if !errors.As(err, &persistence) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
}

func TestGenerateFallbackExhaustionIsFatal(t *testing.T) {
	q := testQuestionnaire()
	q.DietaryPreferences = []string{"keto"}
	svc := newTestService(&stubProfiles{q: q, plan: baselinePlan()}, nil, &stubPlanStore{})

	_, err := svc.GeneratePersonalizedMenu(context.Background(), GenerateMenuParams{UserID: "u1"})

	var exhausted *FallbackExhaustionError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected FallbackExhaustionError, got %v", err)
	}
}

func TestGenerateDegradesWhenContextFails(t *testing.T) {
	gen := &stubTextGen{content: validPlanJSON}
	store := &stubPlanStore{}
	svc := NewService(
		&stubProfiles{q: testQuestionnaire(), plan: baselinePlan()},
		&stubContextBuilder{err: errors.New("aggregation broke")},
		store,
		&stubTemplates{templates: testCatalog()},
		gen,
		nil, nil, nil, nil,
		Options{DefaultDays: 2, DefaultMealsPerDay: 2},
	)

	plan, err := svc.GeneratePersonalizedMenu(context.Background(), GenerateMenuParams{UserID: "u1"})
	if err != nil {
		t.Fatalf("context failure must degrade, not abort: %v", err)
	}

	if plan.Snapshot.Context != nil {
		t.Error("degraded run must persist a nil context snapshot")
	}
	if plan.Snapshot.Targets.AdjustmentReason != DefaultAdjustmentReason {
		t.Errorf("expected default reason without context, got %q", plan.Snapshot.Targets.AdjustmentReason)
	}
}

func TestGenerateCustomMenuCarriesRequest(t *testing.T) {
	gen := &stubTextGen{content: validPlanJSON}
	store := &stubPlanStore{}
	svc := newTestService(&stubProfiles{q: testQuestionnaire(), plan: baselinePlan()}, gen, store)

	plan, err := svc.GenerateCustomMenu(context.Background(), "u1", "something mediterranean")
	if err != nil {
		t.Fatalf("GenerateCustomMenu failed: %v", err)
	}
	if plan.Snapshot.Params.CustomRequest != "something mediterranean" {
		t.Errorf("expected custom request in snapshot, got %q", plan.Snapshot.Params.CustomRequest)
	}
}

func TestGenerateAppliesTargetCaloriesOverride(t *testing.T) {
	store := &stubPlanStore{}
	svc := newTestService(&stubProfiles{q: testQuestionnaire(), plan: baselinePlan()}, nil, store)

	plan, err := svc.GeneratePersonalizedMenu(context.Background(), GenerateMenuParams{UserID: "u1", TargetCalories: 1500})
	if err != nil {
		t.Fatalf("GeneratePersonalizedMenu failed: %v", err)
	}
	if plan.Snapshot.Targets.Calories != 1500 {
		t.Errorf("expected 1500 calorie override, got %d", plan.Snapshot.Targets.Calories)
	}
}
