package workerpool

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/breeze-rmm/recorder/internal/logging"
)

// Task is a unit of work started by a Group. Its ctx is cancelled when
// Drain starts.
type Task func(ctx context.Context)

// Group starts every task on its own goroutine without queueing or limits.
// Capture cycles are allowed to overlap, so Go never blocks on earlier work.
type Group struct {
	log       *slog.Logger
	wg        sync.WaitGroup
	mu        sync.RWMutex
	accepting bool
	inFlight  atomic.Int64
	started   atomic.Uint64
	panics    atomic.Uint64
	ctx       context.Context
	cancel    context.CancelFunc
	stopOnce  sync.Once
}

// New creates a Group. A nil logger falls back to the package logger.
func New(logger *slog.Logger) *Group {
	if logger == nil {
		logger = logging.L("workerpool")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Group{
		log:       logger,
		accepting: true,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Go starts task on a new goroutine. Returns false once the group is
// draining. wg.Add happens under the read lock so Drain cannot miss it.
func (g *Group) Go(task Task) bool {
	g.mu.RLock()
	if !g.accepting {
		g.mu.RUnlock()
		return false
	}
	g.wg.Add(1)
	g.mu.RUnlock()

	g.inFlight.Add(1)
	g.started.Add(1)
	go g.run(task)
	return true
}

// InFlight returns the number of tasks currently running.
func (g *Group) InFlight() int64 {
	return g.inFlight.Load()
}

// Stats returns (tasks started, tasks that panicked).
func (g *Group) Stats() (started, panicked uint64) {
	return g.started.Load(), g.panics.Load()
}

// StopAccepting prevents new tasks from being started.
func (g *Group) StopAccepting() {
	g.mu.Lock()
	g.accepting = false
	g.mu.Unlock()
}

// Drain stops accepting tasks, cancels the group context and waits for
// running tasks or the ctx deadline, whichever comes first. Returns true if
// every task finished.
func (g *Group) Drain(ctx context.Context) bool {
	g.StopAccepting()
	g.stopOnce.Do(g.cancel)

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		g.log.Info("in-flight tasks drained")
		return true
	case <-ctx.Done():
		g.log.Warn("drain timed out", "inFlight", g.inFlight.Load())
		return false
	}
}

// run executes a task with panic recovery so one failing cycle cannot take
// the process down.
func (g *Group) run(task Task) {
	defer g.wg.Done()
	defer g.inFlight.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			g.panics.Add(1)
			g.log.Error("task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	task(g.ctx)
}
