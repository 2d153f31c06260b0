package temporalworker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/earthnet/frame-survey/internal/platform/logger"
	"github.com/earthnet/frame-survey/internal/services"
	"github.com/earthnet/frame-survey/internal/temporalx"
	"github.com/earthnet/frame-survey/internal/temporalx/mintflow"
)

const startMaxWait = 60 * time.Second

// Runner polls the mint task queue and executes mint workflows.
type Runner struct {
	log         *logger.Logger
	tc          temporalsdkclient.Client
	cfg         temporalx.Config
	mint        services.MintService
	concurrency int
}

func NewRunner(
	baseLog *logger.Logger,
	tc temporalsdkclient.Client,
	cfg temporalx.Config,
	mint services.MintService,
	concurrency int,
) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if mint == nil {
		return nil, fmt.Errorf("temporal worker missing mint service")
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		log:         baseLog.With("component", "TemporalWorker"),
		tc:          tc,
		cfg:         cfg,
		mint:        mint,
		concurrency: concurrency,
	}, nil
}

// Start begins polling and stops the worker when ctx is done. Start
// failures are retried with backoff for up to a minute.
func (r *Runner) Start(ctx context.Context) error {
	r.log.Info("Starting Temporal worker", "address", r.cfg.Address, "namespace", r.cfg.Namespace, "task_queue", r.cfg.TaskQueue)

	deadline := time.Now().Add(startMaxWait)
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		w := r.newWorker()
		startErr := w.Start()
		if startErr == nil {
			go func() {
				<-ctx.Done()
				w.Stop()
			}()
			r.log.Info("Temporal worker started", "task_queue", r.cfg.TaskQueue, "attempts", attempt)
			return nil
		}
		w.Stop()

		var nfe *serviceerror.NamespaceNotFound
		missingNS := errors.As(startErr, &nfe)
		if missingNS && r.cfg.AutoRegisterNamespace {
			if err := temporalx.EnsureNamespace(ctx, r.log, r.cfg); err != nil {
				r.log.Warn("Temporal namespace ensure failed", "namespace", r.cfg.Namespace, "error", err)
			}
		}

		if time.Now().After(deadline) {
			if missingNS {
				return fmt.Errorf("temporal namespace not found (namespace=%s): %w", r.cfg.Namespace, startErr)
			}
			return startErr
		}
		r.log.Warn("Temporal worker failed to start; retrying", "attempt", attempt, "error", startErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff(r.cfg, attempt)):
		}
	}
}

func (r *Runner) newWorker() worker.Worker {
	w := worker.New(r.tc, r.cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     r.concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: r.concurrency,
	})
	acts := &mintflow.Activities{Log: r.log, Mint: r.mint}
	w.RegisterWorkflowWithOptions(mintflow.Workflow, workflow.RegisterOptions{Name: mintflow.WorkflowName})
	w.RegisterActivityWithOptions(acts.MintAttempts, activity.RegisterOptions{Name: mintflow.ActivityMint})
	return w
}

func backoff(cfg temporalx.Config, attempt int) time.Duration {
	d := cfg.Backoff
	if d <= 0 {
		d = 250 * time.Millisecond
	}
	for i := 1; i < attempt; i++ {
		d *= 2
		if cfg.BackoffMax > 0 && d >= cfg.BackoffMax {
			return cfg.BackoffMax
		}
	}
	return d
}
