package app

import (
	"fmt"

	"github.com/earthnet/frame-survey/internal/data/db"
	"github.com/earthnet/frame-survey/internal/jobs/worker"
	"github.com/earthnet/frame-survey/internal/platform/logger"
	"github.com/earthnet/frame-survey/internal/services"
	"github.com/earthnet/frame-survey/internal/temporalx/mintflow"
	"github.com/earthnet/frame-survey/internal/temporalx/temporalworker"
)

type Services struct {
	Questions   *services.QuestionCache
	Mint        services.MintService
	Progression services.ProgressionService
	Stats       services.StatsService

	// Exactly one of these runs the mint queue.
	MintPool       *worker.Pool
	TemporalWorker *temporalworker.Runner
}

func wireServices(database *db.Service, log *logger.Logger, cfg Config, r Repos, c Clients) (Services, error) {
	log.Info("Wiring services...")

	questions := services.NewQuestionCache(log, r.Questions)

	mint := services.NewMintService(
		log,
		r.Completions,
		c.Pinata,
		c.Chain,
		services.NewFileResultsLog(cfg.MintResultsPath),
		services.MintConfig{
			MaxAttempts: cfg.MintMaxAttempts,
			RetryDelay:  cfg.MintRetryDelay,
		},
	)

	out := Services{Questions: questions, Mint: mint}

	var dispatcher services.MintDispatcher
	if c.Temporal != nil {
		runner, err := temporalworker.NewRunner(log, c.Temporal, cfg.Temporal, mint, cfg.Worker.Concurrency)
		if err != nil {
			return Services{}, fmt.Errorf("init temporal worker: %w", err)
		}
		out.TemporalWorker = runner
		dispatcher = mintflow.NewDispatcher(log, c.Temporal, cfg.Temporal.TaskQueue)
	} else {
		pool := worker.NewPool(log, mint, cfg.Worker)
		out.MintPool = pool
		dispatcher = pool
	}

	out.Progression = services.NewProgressionService(services.ProgressionDeps{
		DB:          database.DB(),
		Log:         log,
		Tasks:       r.Tasks,
		Categories:  r.Categories,
		Clusters:    r.Clusters,
		Responses:   r.Responses,
		Completions: r.Completions,
		Questions:   questions,
		Validator:   c.Neynar,
		Collection:  c.Chain,
		Mints:       dispatcher,
	}, services.ProgressionConfig{
		BypassFID:     cfg.BypassFID,
		GatewayURL:    cfg.GatewayURL,
		StartImageURL: cfg.StartImageURL,
		ClaimImageURL: cfg.ClaimImageURL,
		FinalImageURL: cfg.FinalImageURL,
		NFTBaseURLs:   cfg.NFTBaseURLs,
	})

	statsDeps := services.StatsDeps{
		Log:         log,
		Tasks:       r.Tasks,
		Questions:   r.Questions,
		Clusters:    r.Clusters,
		Responses:   r.Responses,
		Completions: r.Completions,
		Collection:  c.Chain,
	}
	if c.Cache != nil {
		statsDeps.Cache = c.Cache
	}
	out.Stats = services.NewStatsService(statsDeps, cfg.StatsTTL)

	return out, nil
}
