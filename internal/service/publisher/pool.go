package publisher

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/sandevgo/chronicle/internal/core"
)

// workerPool caps the number of in-flight generation calls. Work
// beyond the cap queues on the semaphore rather than failing; the
// admission check is the only hard refusal.
type workerPool struct {
	sem          chan struct{}
	thresholdPct float64
	memUsedPct   func() (float64, error)
}

func newWorkerPool(cap int, thresholdPct float64) *workerPool {
	return &workerPool{
		sem:          make(chan struct{}, cap),
		thresholdPct: thresholdPct,
		memUsedPct:   systemMemUsedPct,
	}
}

func systemMemUsedPct() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("read system memory: %w", err)
	}
	return vm.UsedPercent, nil
}

// admit is the coarse pre-queue check: refuse new work while system
// memory utilization is above the threshold. A failed reading never
// blocks admission.
func (w *workerPool) admit() error {
	if w.thresholdPct <= 0 {
		return nil
	}
	used, err := w.memUsedPct()
	if err != nil {
		return nil
	}
	if used > w.thresholdPct {
		return fmt.Errorf("%w: memory at %.1f%%", core.ErrOverloaded, used)
	}
	return nil
}

func (w *workerPool) acquire(ctx context.Context) error {
	select {
	case w.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *workerPool) release() {
	<-w.sem
}
