package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/document-triage/internal/config"
	"github.com/kirillkom/document-triage/internal/core/ports"
	"github.com/kirillkom/document-triage/internal/core/usecase"
	"github.com/kirillkom/document-triage/internal/infrastructure/assets"
	"github.com/kirillkom/document-triage/internal/infrastructure/extractor"
	"github.com/kirillkom/document-triage/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/document-triage/internal/infrastructure/queue/nats"
	"github.com/kirillkom/document-triage/internal/infrastructure/ratelimit"
	"github.com/kirillkom/document-triage/internal/infrastructure/report"
	"github.com/kirillkom/document-triage/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/document-triage/internal/infrastructure/resilience"
	"github.com/kirillkom/document-triage/internal/observability/metrics"
)

// Mode selects where retries live. Batch mode keeps the oracle client on a
// bare circuit breaker because the orchestrator owns per-document retries;
// worker mode handles one document per message, so the client retries itself.
type Mode int

const (
	ModeBatch Mode = iota
	ModeWorker
)

type Options struct {
	Service string
	Mode    Mode
	// ConnectQueue wires NATS. The batch CLI only needs it for requeueing
	// failures; worker mode always needs it.
	ConnectQueue bool
}

type App struct {
	Config  config.Config
	Profile *config.Profile

	Repo       ports.DocumentRepository
	Taxonomies ports.TaxonomyRepository
	Queue      *nats.Queue
	Metrics    *metrics.PipelineMetrics

	ClassifyUC *usecase.ClassifyDocumentUseCase
	BatchUC    *usecase.BatchRunUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if opts.Service == "" {
		opts.Service = "classifier"
	}

	profile, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		return nil, err
	}
	promptTemplate, err := profile.PromptTemplate(cfg.DocumentsRoot)
	if err != nil {
		return nil, err
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	taxonomies := postgres.NewTaxonomyRepository(db)

	source := extractor.NewSource(cfg.DocumentsRoot)

	resolverCfg := assets.Config{
		PrimaryRoot:  cfg.DocumentsRoot,
		PublicRoot:   profile.PublicRoot,
		DirAliases:   profile.DirAliases,
		FallbackDirs: profile.FallbackDirs,
	}
	newResolver := func() ports.AssetResolver {
		return assets.NewResolver(resolverCfg)
	}

	executorCfg := resilience.BreakerOnly()
	if opts.Mode == ModeWorker {
		executorCfg = resilience.DefaultConfig()
	}
	oracle := ollama.New(cfg.OllamaURL, ollama.Options{
		Model:           cfg.OllamaModel,
		MaxTokens:       cfg.OracleMaxTokens,
		Temperature:     cfg.OracleTemperature,
		MaxContentBytes: cfg.OracleMaxContent,
		Timeout:         time.Duration(cfg.OracleTimeoutSecs) * time.Second,
	}, resilience.NewExecutor(executorCfg))

	classifyUC := usecase.NewClassifyDocumentUseCase(
		repo, source, oracle, newResolver, promptTemplate, profile.ReferenceAssets,
	)

	var queue *nats.Queue
	if opts.ConnectQueue {
		queue, err = nats.New(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init classify queue: %w", err)
		}
	}

	jsonReports, err := report.NewWriter(cfg.ReportDir)
	if err != nil {
		if queue != nil {
			queue.Close()
		}
		_ = db.Close()
		return nil, fmt.Errorf("init report writer: %w", err)
	}
	xlsxReports, err := report.NewXLSXWriter(cfg.ReportDir)
	if err != nil {
		if queue != nil {
			queue.Close()
		}
		_ = db.Close()
		return nil, fmt.Errorf("init xlsx report writer: %w", err)
	}

	pipelineMetrics := metrics.NewPipelineMetrics(opts.Service)
	limiter := ratelimit.New(cfg.BatchSize, time.Duration(cfg.RateIntervalMS)*time.Millisecond)

	var classifyQueue ports.ClassifyQueue
	if queue != nil {
		classifyQueue = queue
	}
	batchUC := usecase.NewBatchRunUseCase(
		repo,
		taxonomies,
		classifyUC,
		limiter,
		[]ports.ReportWriter{jsonReports, xlsxReports},
		classifyQueue,
		promptTemplate,
		usecase.RetryPolicy{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   time.Duration(cfg.RetryBaseDelayMS) * time.Millisecond,
		},
		pipelineMetrics,
	)

	return &App{
		Config:  cfg,
		Profile: profile,

		Repo:       repo,
		Taxonomies: taxonomies,
		Queue:      queue,
		Metrics:    pipelineMetrics,

		ClassifyUC: classifyUC,
		BatchUC:    batchUC,

		closeFn: func() {
			if queue != nil {
				queue.Close()
			}
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
