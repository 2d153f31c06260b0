package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/earthnet/frame-survey/internal/platform/envutil"
	"github.com/earthnet/frame-survey/internal/platform/logger"
	"github.com/earthnet/frame-survey/internal/services"
)

var ErrQueueFull = errors.New("mint queue full")

const (
	defaultConcurrency = 4
	defaultQueueSize   = 256
	jobTimeout         = 5 * time.Minute
)

type Config struct {
	Concurrency int
	QueueSize   int
}

func ConfigFromEnv() Config {
	return Config{
		Concurrency: envutil.Int("WORKER_CONCURRENCY", defaultConcurrency),
		QueueSize:   envutil.Int("MINT_QUEUE_SIZE", defaultQueueSize),
	}
}

// Pool is the in-process mint queue used when Temporal is not configured.
// It implements services.MintDispatcher.
type Pool struct {
	log         *logger.Logger
	runner      services.MintService
	jobs        chan services.MintJob
	concurrency int

	mu    sync.Mutex
	group *errgroup.Group
}

func NewPool(baseLog *logger.Logger, runner services.MintService, cfg Config) *Pool {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = defaultQueueSize
	}
	return &Pool{
		log:         baseLog.With("component", "MintWorker"),
		runner:      runner,
		jobs:        make(chan services.MintJob, cfg.QueueSize),
		concurrency: cfg.Concurrency,
	}
}

// Dispatch enqueues job without blocking. When the queue is full the
// completion stays pending and the caller gets ErrQueueFull.
func (p *Pool) Dispatch(ctx context.Context, job services.MintJob) error {
	select {
	case p.jobs <- job:
		return nil
	default:
		p.log.Error("Mint queue full; dropping job",
			"completion_id", job.CompletionID,
			"queue_size", cap(p.jobs),
		)
		return fmt.Errorf("%w (completion_id=%d)", ErrQueueFull, job.CompletionID)
	}
}

func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.group != nil {
		return
	}
	p.log.Info("Starting mint worker pool", "concurrency", p.concurrency, "queue_size", cap(p.jobs))

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.concurrency; i++ {
		workerID := i + 1
		g.Go(func() error {
			p.runLoop(gctx, workerID)
			return nil
		})
	}
	p.group = g
}

// Wait blocks until every worker has returned after ctx passed to Start is done.
func (p *Pool) Wait() error {
	p.mu.Lock()
	g := p.group
	p.mu.Unlock()
	if g == nil {
		return nil
	}
	return g.Wait()
}

func (p *Pool) runLoop(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			p.log.Info("Worker loop stopped", "worker_id", workerID, "pending", len(p.jobs))
			return
		case job := <-p.jobs:
			p.handle(ctx, workerID, job)
		}
	}
}

func (p *Pool) handle(ctx context.Context, workerID int, job services.MintJob) {
	// Shutdown must not abandon a mint halfway through its attempts.
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), jobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			p.log.Error("Mint job panic",
				"worker_id", workerID,
				"completion_id", job.CompletionID,
				"panic", r,
			)
		}
	}()

	res, err := p.runner.Run(jobCtx, job)
	if err != nil {
		p.log.Warn("Mint job finished with error",
			"worker_id", workerID,
			"completion_id", job.CompletionID,
			"error", err,
		)
		return
	}
	p.log.Debug("Mint job done",
		"worker_id", workerID,
		"completion_id", job.CompletionID,
		"success", res.Success,
	)
}
