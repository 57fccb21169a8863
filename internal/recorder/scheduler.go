package recorder

import (
	"context"
	"time"

	"github.com/breeze-rmm/recorder/internal/logging"
)

// Run fires a cycle every interval until ctx is cancelled. Each cycle runs
// on its own goroutine and Run never waits for it, so slow cycles overlap
// with later ones. A failing or panicking cycle is logged and the schedule
// carries on.
func (r *Recorder) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("recorder started",
		"interval", r.interval.String(),
		"codec", r.encoder.Name(),
		"outputDir", r.persister.Dir())

	for {
		select {
		case <-ctx.Done():
			r.log.Info("recorder stopping", "inFlight", r.group.InFlight())
			return ctx.Err()
		case <-ticker.C:
			r.spawnCycle()
		}
	}
}

func (r *Recorder) spawnCycle() bool {
	return r.group.Go(func(ctx context.Context) {
		if _, err := r.RunCycle(ctx); err != nil {
			r.log.Error("failed to run capture cycle", logging.KeyError, err)
		}
	})
}

// Shutdown stops new cycles and waits for in-flight ones until ctx expires.
func (r *Recorder) Shutdown(ctx context.Context) bool {
	return r.group.Drain(ctx)
}
