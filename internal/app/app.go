package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scrutor/internal/common"
	"github.com/ternarybob/scrutor/internal/handlers"
	"github.com/ternarybob/scrutor/internal/interfaces"
	"github.com/ternarybob/scrutor/internal/pipeline"
	"github.com/ternarybob/scrutor/internal/scheduler"
	"github.com/ternarybob/scrutor/internal/services/export"
	"github.com/ternarybob/scrutor/internal/services/llm"
	"github.com/ternarybob/scrutor/internal/services/processor"
	"github.com/ternarybob/scrutor/internal/sources"
	"github.com/ternarybob/scrutor/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	DB            *badger.BadgerDB
	ResearchStore interfaces.ResearchStore

	// Services
	LLMService    interfaces.LLMService
	Processor     interfaces.ContentProcessor
	ExportService interfaces.ExportService
	Engine        *pipeline.Engine
	Scheduler     *scheduler.Scheduler
	Janitor       *scheduler.Janitor

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	ResearchHandler *handlers.ResearchHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Str("llm_provider", string(cfg.LLM.Provider)).
		Int("max_concurrent_jobs", cfg.Scheduler.MaxConcurrentJobs).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	db, err := badger.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to create badger database: %w", err)
	}

	a.DB = db
	a.ResearchStore = badger.NewResearchStorage(db, a.Logger)

	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices initializes all business services in dependency order
func (a *App) initServices() error {
	// LLM service is optional; the heuristic processor covers its absence
	llmService, err := llm.NewLLMService(a.Config, a.Logger)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to initialize LLM service - falling back to heuristic processing")
	} else if llmService != nil {
		if err := llmService.HealthCheck(context.Background()); err != nil {
			a.Logger.Warn().Err(err).Msg("LLM service health check failed - falling back to heuristic processing")
			llmService.Close()
			llmService = nil
		} else {
			a.Logger.Debug().Msg("LLM service initialized and health check passed")
		}
	}
	a.LLMService = llmService

	a.Processor = processor.NewService(a.LLMService, a.Logger)
	a.ExportService = export.NewService(a.Logger)

	sourceOpts := []sources.Option{
		sources.WithLogger(a.Logger),
		sources.WithTimeout(a.Config.Research.RequestTimeout),
		sources.WithRateLimit(a.Config.Research.RateLimit),
	}

	var articleSources []interfaces.ArticleSource
	if a.Config.Research.WikipediaEnabled {
		articleSources = append(articleSources, sources.NewWikipediaSource(sourceOpts...))
	}
	if a.Config.Research.NewsEnabled {
		articleSources = append(articleSources, sources.NewNewsSource(a.Config.Research.NewsAPIKey, sourceOpts...))
	}
	if a.Config.Research.HackerNewsEnabled {
		articleSources = append(articleSources, sources.NewHackerNewsSource(sourceOpts...))
	}

	fallback := sources.NewWebSearchSource(a.Config.Research.FallbackResults, sourceOpts...)

	a.Engine = pipeline.NewEngine(
		a.ResearchStore,
		articleSources,
		fallback,
		a.Processor,
		a.Logger,
		pipeline.Options{
			TopArticles: a.Config.Research.TopArticles,
			TopKeywords: a.Config.Research.TopKeywords,
		},
	)

	a.Scheduler = scheduler.NewScheduler(
		a.ResearchStore,
		a.Engine,
		a.Config.Scheduler.MaxConcurrentJobs,
		parseDuration(a.Config.Scheduler.JobTimeout, 5*time.Minute),
		a.Logger,
	)

	retentionAge := parseDuration(a.Config.Scheduler.RetentionAge, time.Hour)
	janitor, err := scheduler.NewJanitor(a.Scheduler, a.Config.Scheduler.RetentionSchedule, retentionAge, a.Logger)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to configure retention janitor - terminal jobs will not be pruned")
	} else {
		a.Janitor = janitor
		a.Janitor.Start()
	}

	a.Logger.Debug().
		Int("sources", len(articleSources)).
		Msg("Research services initialized")

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.ResearchHandler = handlers.NewResearchHandler(a.Scheduler, a.ResearchStore, a.ExportService, a.Logger)
}

// Close closes all application resources
func (a *App) Close() error {
	if a.Janitor != nil {
		a.Janitor.Stop()
	}

	if a.Scheduler != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		a.Scheduler.Stop(ctx)
		cancel()
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
