package app

import (
	"context"
	"fmt"
	"log/slog"

	"nutri-planner/internal/catalog"
	"nutri-planner/internal/config"
	"nutri-planner/internal/database"
	"nutri-planner/internal/insights"
	"nutri-planner/internal/llm"
	"nutri-planner/internal/menu"
	"nutri-planner/internal/metrics"
	"nutri-planner/internal/profile"
	"nutri-planner/internal/shopping"
	"nutri-planner/internal/storage"
	"nutri-planner/internal/telegram"
)

// App holds the application's wired dependencies. Both binaries build one
// and pick the pieces they need.
type App struct {
	Cfg *config.Config
	DB  *database.DB

	TextGen  llm.TextGenerator
	EmbedGen llm.EmbeddingGenerator

	Profiles     *profile.Repository
	Logs         *insights.LogRepository
	Catalog      *catalog.Repository
	Importer     *catalog.Importer
	Plans        *menu.PlanRepository
	Shopping     *shopping.Repository
	Sessions     *telegram.SessionRepository
	MetricsStore *metrics.Store
	Archive      *storage.SnapshotStore

	MenuService *menu.Service

	closers []func() error
}

// NewApp wires the full application from configuration. A missing LLM
// credential is not an error: the menu service then runs fallback-only.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Cfg: cfg}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)

	if err := a.initLLM(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}

	a.Profiles = profile.NewRepository(db.SQL)
	a.Logs = insights.NewLogRepository(db.SQL)
	a.Catalog = catalog.NewRepository(db.SQL)
	a.Plans = menu.NewPlanRepository(db.SQL)
	a.Shopping = shopping.NewRepository(db.SQL)
	a.Sessions = telegram.NewSessionRepository(db.SQL)
	a.MetricsStore = metrics.NewStore(db.SQL)

	archive, err := storage.NewSnapshotStore(cfg.SnapshotArchivePath)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Archive = archive

	if a.TextGen != nil && a.EmbedGen != nil {
		a.Importer = catalog.NewImporter(a.Catalog, a.TextGen, a.EmbedGen)
	}

	a.MenuService = menu.NewService(
		a.Profiles,
		insights.NewAggregator(a.Logs),
		a.Plans,
		a.Catalog,
		a.TextGen,
		a.EmbedGen,
		shopping.NewBuilder(a.Shopping),
		a.Archive,
		a.MetricsStore,
		menu.Options{
			DefaultDays:        cfg.DefaultDays,
			DefaultMealsPerDay: cfg.DefaultMealsPerDay,
			GenerationTimeout:  cfg.GenerationTimeout,
		},
	)
	return a, nil
}

// initLLM selects the text provider and wires embeddings. Embeddings always
// come from Gemini; with Groq as text provider they stay available as long
// as a Gemini key exists.
func (a *App) initLLM(ctx context.Context, cfg *config.Config) error {
	var gemini *llm.GeminiClient
	if cfg.GeminiAPIKey != "" {
		var err error
		gemini, err = llm.NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return fmt.Errorf("failed to initialize Gemini client: %w", err)
		}
		a.closers = append(a.closers, gemini.Close)
	}

	switch cfg.LLMProvider {
	case "groq":
		if cfg.GroqAPIKey != "" {
			a.TextGen = llm.NewGroqClient(cfg.GroqAPIKey)
		}
	default:
		if gemini != nil {
			a.TextGen = gemini
		}
	}
	if a.TextGen == nil {
		slog.Warn("no generation credential configured, meal plans will use the fallback generator")
	}

	if gemini != nil {
		cached, err := llm.NewCachedEmbeddingGenerator(gemini, cfg.EmbeddingCachePath)
		if err != nil {
			return fmt.Errorf("failed to initialize embedding cache: %w", err)
		}
		a.EmbedGen = cached
		a.closers = append(a.closers, cached.SaveCache)
	}
	return nil
}

// Close releases all held resources in reverse acquisition order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("error during shutdown", "error", err)
		}
	}
}
