package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/earthnet/frame-survey/internal/platform/logger"
	"github.com/earthnet/frame-survey/internal/services"
)

type fakeRunner struct {
	mu      sync.Mutex
	ran     []uint
	done    chan uint
	panicOn uint
}

func (f *fakeRunner) Run(ctx context.Context, job services.MintJob) (services.MintResult, error) {
	if job.CompletionID == f.panicOn {
		panic("boom")
	}
	f.mu.Lock()
	f.ran = append(f.ran, job.CompletionID)
	f.mu.Unlock()
	f.done <- job.CompletionID
	return services.MintResult{Success: true, Recipient: job.Recipient}, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func waitFor(t *testing.T, ch <-chan uint, want uint) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("expected completion %d, got %d", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for completion %d", want)
	}
}

func TestPoolRunsDispatchedJobs(t *testing.T) {
	runner := &fakeRunner{done: make(chan uint, 4)}
	p := NewPool(testLogger(t), runner, Config{Concurrency: 1, QueueSize: 4})

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	for _, id := range []uint{1, 2} {
		if err := p.Dispatch(ctx, services.MintJob{CompletionID: id}); err != nil {
			t.Fatalf("Dispatch(%d): %v", id, err)
		}
	}
	waitFor(t, runner.done, 1)
	waitFor(t, runner.done, 2)

	cancel()
	if err := p.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestPoolSurvivesPanickingJob(t *testing.T) {
	runner := &fakeRunner{done: make(chan uint, 4), panicOn: 1}
	p := NewPool(testLogger(t), runner, Config{Concurrency: 1, QueueSize: 4})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	_ = p.Dispatch(ctx, services.MintJob{CompletionID: 1})
	_ = p.Dispatch(ctx, services.MintJob{CompletionID: 2})
	waitFor(t, runner.done, 2)
}

func TestPoolDispatchFullQueue(t *testing.T) {
	runner := &fakeRunner{done: make(chan uint, 4)}
	p := NewPool(testLogger(t), runner, Config{Concurrency: 1, QueueSize: 1})

	// Not started, so nothing drains the queue.
	if err := p.Dispatch(context.Background(), services.MintJob{CompletionID: 1}); err != nil {
		t.Fatalf("first Dispatch: %v", err)
	}
	err := p.Dispatch(context.Background(), services.MintJob{CompletionID: 2})
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "7")
	t.Setenv("MINT_QUEUE_SIZE", "")
	cfg := ConfigFromEnv()
	if cfg.Concurrency != 7 || cfg.QueueSize != defaultQueueSize {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
