package worker

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeProcessor struct {
	mu    sync.Mutex
	calls int

	worked bool
	err    error
}

func (p *fakeProcessor) ProcessNext(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.worked, p.err
}

func (p *fakeProcessor) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestBlastWorker_StartStop(t *testing.T) {
	proc := &fakeProcessor{}
	w := NewBlastWorker(proc, 10*time.Millisecond)

	if w.IsRunning() {
		t.Fatalf("expected worker to start stopped")
	}

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if !w.IsRunning() {
		t.Fatalf("expected worker to report running")
	}

	// The loop polls once immediately, then on every tick.
	time.Sleep(50 * time.Millisecond)

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if w.IsRunning() {
		t.Fatalf("expected worker to report stopped")
	}

	if proc.callCount() == 0 {
		t.Fatalf("expected at least one poll before stop")
	}
}

func TestBlastWorker_StartTwiceIsIdempotent(t *testing.T) {
	proc := &fakeProcessor{}
	w := NewBlastWorker(proc, time.Hour)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("first Start returned error: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("second Start returned error: %v", err)
	}

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
}

func TestBlastWorker_StopWithoutStart(t *testing.T) {
	w := NewBlastWorker(&fakeProcessor{}, time.Hour)

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop on a stopped worker returned error: %v", err)
	}
}

func TestBlastWorker_ContextCancelStopsLoop(t *testing.T) {
	proc := &fakeProcessor{}
	w := NewBlastWorker(proc, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	cancel()
	time.Sleep(30 * time.Millisecond)

	before := proc.callCount()
	time.Sleep(30 * time.Millisecond)
	if proc.callCount() != before {
		t.Fatalf("expected no polls after context cancellation")
	}
}

func TestBlastWorker_StatusCounters(t *testing.T) {
	proc := &fakeProcessor{worked: true}
	w := NewBlastWorker(proc, 10*time.Millisecond)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}

	status := w.GetStatus()
	if status.Running {
		t.Fatalf("expected status running=false after stop")
	}
	if status.RunsCount == 0 {
		t.Fatalf("expected at least one recorded run")
	}
	if status.ItemsProcessed == 0 {
		t.Fatalf("expected processed items to be counted when work was found")
	}
	if status.LastRunAt.IsZero() {
		t.Fatalf("expected LastRunAt to be set")
	}
}
