package worker

import (
	"context"
	"sync"
	"time"

	"github.com/leadpulse-id/outreach-service/pkg/logger"
)

// jobProcessor is the minimal interface the worker needs. It matches the
// ProcessNext method of BlastService and lets us unit test the loop with a
// small fake implementation.
type jobProcessor interface {
	ProcessNext(ctx context.Context) (bool, error)
}

// BlastWorker is the single-consumer dispatch loop: one job and one item in
// flight at any instant, which is what prevents double-sends without any
// distributed lock. Running a second instance against the same store is not
// safe until the item store grows an atomic claim step.
type BlastWorker struct {
	blastService jobProcessor
	interval     time.Duration

	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
	mu       sync.RWMutex

	lastRunAt      time.Time
	runsCount      int64
	itemsProcessed int64
}

func NewBlastWorker(blastService jobProcessor, interval time.Duration) *BlastWorker {
	return &BlastWorker{
		blastService: blastService,
		interval:     interval,
		running:      false,
	}
}

func (w *BlastWorker) Start(ctx context.Context) error {
	w.mu.Lock()

	if w.running {
		w.mu.Unlock()
		logger.Warnf("Blast worker is already running")
		return nil
	}

	w.running = true
	w.stopChan = make(chan struct{})
	w.doneChan = make(chan struct{})
	w.mu.Unlock()

	logger.Infof("Starting blast worker with poll interval: %v", w.interval)

	go w.run(ctx)

	return nil
}

// StartWithInterval overrides the poll interval before starting. Used by the
// control endpoint; zero or negative keeps the configured interval.
func (w *BlastWorker) StartWithInterval(ctx context.Context, intervalSeconds int) error {
	if intervalSeconds > 0 {
		w.mu.Lock()
		w.interval = time.Duration(intervalSeconds) * time.Second
		w.mu.Unlock()
	}

	return w.Start(ctx)
}

func (w *BlastWorker) run(ctx context.Context) {
	defer close(w.doneChan)

	w.poll(ctx)

	// Fixed-interval poll regardless of whether work was found; the interval
	// is the knob if idle load ever matters.
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.poll(ctx)

		case <-w.stopChan:
			logger.Warnf("Blast worker received stop signal")
			return

		case <-ctx.Done():
			logger.Warnf("Blast worker context cancelled")
			return
		}
	}
}

func (w *BlastWorker) poll(ctx context.Context) {
	w.mu.Lock()
	w.lastRunAt = time.Now()
	w.runsCount++
	w.mu.Unlock()

	worked, err := w.blastService.ProcessNext(ctx)
	if err != nil {
		logger.Errorf("Blast worker iteration failed: %v", err)
		return
	}

	if !worked {
		logger.Debugf("No blast work pending")
		return
	}

	w.mu.Lock()
	w.itemsProcessed++
	w.mu.Unlock()
}

func (w *BlastWorker) Stop() error {
	w.mu.Lock()

	if !w.running {
		w.mu.Unlock()
		logger.Warnf("Blast worker is not running")
		return nil
	}

	w.running = false
	stopChan := w.stopChan
	doneChan := w.doneChan
	w.mu.Unlock()

	close(stopChan)

	// Wait for the loop goroutine to finish its current iteration.
	<-doneChan

	logger.Infof("Blast worker stopped")
	return nil
}

func (w *BlastWorker) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *BlastWorker) GetStatus() WorkerStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	status := WorkerStatus{
		Running:        w.running,
		LastRunAt:      w.lastRunAt,
		RunsCount:      w.runsCount,
		ItemsProcessed: w.itemsProcessed,
		Interval:       w.interval,
	}

	if w.running && !w.lastRunAt.IsZero() {
		status.NextRunAt = w.lastRunAt.Add(w.interval)
	}

	return status
}

type WorkerStatus struct {
	Running        bool          `json:"running"`
	LastRunAt      time.Time     `json:"lastRunAt,omitempty"`
	NextRunAt      time.Time     `json:"nextRunAt,omitempty"`
	RunsCount      int64         `json:"runsCount"`
	ItemsProcessed int64         `json:"itemsProcessed"`
	Interval       time.Duration `json:"interval"`
}
