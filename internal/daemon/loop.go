package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leefowlercu/statusmirror/internal/topology"
)

// LoopRunner runs the reconciliation loop over a fixed snapshot until ctx
// is cancelled. Cancellation must only be observed between ticks.
type LoopRunner interface {
	Run(ctx context.Context, snap topology.Snapshot, interval time.Duration)
}

// reconcileLoop is a handle on one running reconciliation loop.
type reconcileLoop struct {
	id      string
	snap    topology.Snapshot
	started time.Time
	cancel  context.CancelFunc
	done    chan struct{}
}

func startLoop(ctx context.Context, runner LoopRunner, snap topology.Snapshot, interval time.Duration, logger *slog.Logger) *reconcileLoop {
	loopCtx, cancel := context.WithCancel(ctx)
	l := &reconcileLoop{
		id:      uuid.NewString(),
		snap:    snap,
		started: time.Now(),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	logger = logger.With("loop_id", l.id)
	go func() {
		defer close(l.done)
		logger.Info("reconciliation loop started", "mappings", len(snap), "interval", interval)
		runner.Run(loopCtx, snap, interval)
		logger.Info("reconciliation loop exited", "ran_for", time.Since(l.started).Round(time.Millisecond))
	}()
	return l
}

// stop cancels the loop and blocks until its in-flight tick has finished
// and the goroutine has exited.
func (l *reconcileLoop) stop() {
	l.cancel()
	<-l.done
}
