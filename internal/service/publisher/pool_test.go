package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sandevgo/chronicle/internal/core"
)

func TestWorkerPool_AdmitRefusesAboveThreshold(t *testing.T) {
	pool := newWorkerPool(1, 85)
	pool.memUsedPct = func() (float64, error) { return 92.5, nil }

	err := pool.admit()
	if !errors.Is(err, core.ErrOverloaded) {
		t.Errorf("expected ErrOverloaded, got %v", err)
	}
}

func TestWorkerPool_AdmitPassesBelowThreshold(t *testing.T) {
	pool := newWorkerPool(1, 85)
	pool.memUsedPct = func() (float64, error) { return 40, nil }

	if err := pool.admit(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWorkerPool_ReadingFailureNeverBlocks(t *testing.T) {
	pool := newWorkerPool(1, 85)
	pool.memUsedPct = func() (float64, error) { return 0, errors.New("no procfs") }

	if err := pool.admit(); err != nil {
		t.Errorf("expected admission despite reading failure, got %v", err)
	}
}

func TestWorkerPool_DisabledThreshold(t *testing.T) {
	pool := newWorkerPool(1, 0)
	pool.memUsedPct = func() (float64, error) { t.Fatal("must not be called"); return 0, nil }

	if err := pool.admit(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWorkerPool_AcquireQueuesAndRespectsContext(t *testing.T) {
	pool := newWorkerPool(1, 0)

	if err := pool.acquire(context.Background()); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := pool.acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded while the pool is full, got %v", err)
	}

	pool.release()
	if err := pool.acquire(context.Background()); err != nil {
		t.Errorf("acquire after release: %v", err)
	}
}
