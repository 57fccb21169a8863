// Package recorder runs the capture cycle: grab every display, keep frames
// whose perceptual signature changed, downsize them, compress them and write
// them out as timestamped files.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/breeze-rmm/recorder/internal/capture"
	"github.com/breeze-rmm/recorder/internal/health"
	"github.com/breeze-rmm/recorder/internal/logging"
	"github.com/breeze-rmm/recorder/internal/workerpool"
)

const (
	DefaultInterval = 2 * time.Second

	// healthEnumerator is the health check name for display enumeration.
	healthEnumerator = "enumerate"
)

// Options wires a Recorder. Capturer, Encoder and Persister are required.
type Options struct {
	Capturer  capture.Capturer
	Encoder   Encoder
	Persister *Persister
	Store     *FrameStore
	Policy    SizingPolicy
	Interval  time.Duration
	Health    *health.Monitor
	Logger    *slog.Logger
}

// Recorder owns the per-display frame state shared by all cycles.
type Recorder struct {
	capturer  capture.Capturer
	encoder   Encoder
	persister *Persister
	store     *FrameStore
	policy    SizingPolicy
	interval  time.Duration
	health    *health.Monitor
	log       *slog.Logger
	group     *workerpool.Group

	cycles    atomic.Uint64
	persisted atomic.Uint64
	failures  atomic.Uint64
}

func New(opts Options) (*Recorder, error) {
	if opts.Capturer == nil {
		return nil, errors.New("recorder: capturer is required")
	}
	if opts.Encoder == nil {
		return nil, errors.New("recorder: encoder is required")
	}
	if opts.Persister == nil {
		return nil, errors.New("recorder: persister is required")
	}
	if opts.Store == nil {
		opts.Store = NewFrameStore()
	}
	if opts.Policy == (SizingPolicy{}) {
		opts.Policy = DefaultSizingPolicy()
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Health == nil {
		opts.Health = health.NewMonitor()
	}
	if opts.Logger == nil {
		opts.Logger = logging.L("recorder")
	}

	return &Recorder{
		capturer:  opts.Capturer,
		encoder:   opts.Encoder,
		persister: opts.Persister,
		store:     opts.Store,
		policy:    opts.Policy,
		interval:  opts.Interval,
		health:    opts.Health,
		log:       opts.Logger,
		group:     workerpool.New(opts.Logger.With(slog.String(logging.KeyComponent, "cycles"))),
	}, nil
}

// Store exposes the shared frame state.
func (r *Recorder) Store() *FrameStore { return r.store }

// Health exposes per-display pipeline health.
func (r *Recorder) Health() *health.Monitor { return r.health }

// CycleResult summarizes one cycle.
type CycleResult struct {
	ID        uint64
	Monitors  int
	Persisted []Artifact
	Unchanged int
	Errors    []error
	Duration  time.Duration
}

// RunCycle captures every display once. Only a failed enumeration is
// returned as an error; per-display failures are logged, collected in the
// result and never stop the remaining displays.
func (r *Recorder) RunCycle(ctx context.Context) (CycleResult, error) {
	start := time.Now()
	res := CycleResult{ID: r.cycles.Add(1)}
	log := r.log.With(slog.Uint64(logging.KeyCycle, res.ID))

	monitors, err := r.capturer.Monitors()
	if err != nil {
		var ce *capture.CaptureError
		if !errors.As(err, &ce) {
			err = &capture.CaptureError{Op: "enumerate", Err: err}
		}
		r.health.Update(healthEnumerator, health.Unhealthy, err.Error())
		res.Duration = time.Since(start)
		return res, err
	}
	r.health.Update(healthEnumerator, health.Healthy, "")
	res.Monitors = len(monitors)

	for _, m := range monitors {
		if ctx.Err() != nil {
			res.Errors = append(res.Errors, ctx.Err())
			break
		}
		mlog := logging.WithMonitor(log, m.Name)

		art, changed, err := r.processMonitor(m)
		switch {
		case err != nil:
			r.failures.Add(1)
			res.Errors = append(res.Errors, err)
			r.reportFailure(mlog, m, err)
		case !changed:
			res.Unchanged++
			r.health.Update(m.Key(), health.Healthy, "")
			mlog.Debug("frame unchanged, skipping")
		default:
			r.persisted.Add(1)
			res.Persisted = append(res.Persisted, art)
			r.health.Update(m.Key(), health.Healthy, "")
			mlog.Info("snapshot saved", logging.KeyPath, art.Path, "bytes", art.Size)
		}
	}

	res.Duration = time.Since(start)
	log.Info("cycle finished",
		"monitors", res.Monitors,
		"persisted", len(res.Persisted),
		"unchanged", res.Unchanged,
		"failed", len(res.Errors),
		logging.KeyDurationMs, res.Duration.Milliseconds())
	return res, nil
}

// processMonitor runs capture → detect → resize → encode → persist for one
// display. The sizing check runs before the frame store is touched so
// degenerate frames never become the stored reference.
func (r *Recorder) processMonitor(m capture.Monitor) (Artifact, bool, error) {
	frame, err := r.capturer.Capture(m)
	if err != nil {
		var ce *capture.CaptureError
		if !errors.As(err, &ce) {
			err = &capture.CaptureError{Op: "capture", Monitor: m.Name, Err: err}
		}
		return Artifact{}, false, err
	}
	if frame == nil {
		return Artifact{}, false, &capture.CaptureError{Op: "capture", Monitor: m.Name, Err: ErrEmptyFrame}
	}

	b := frame.Bounds()
	width, height, err := r.policy.Target(b.Dx(), b.Dy())
	if err != nil {
		return Artifact{}, false, err
	}

	decision, err := r.store.CompareAndUpdate(m.Key(), frame)
	if err != nil {
		return Artifact{}, false, fmt.Errorf("change detection: %w", err)
	}
	if !decision.Changed {
		return Artifact{}, false, nil
	}

	resized, err := resizeTo(frame, width, height)
	if err != nil {
		return Artifact{}, true, err
	}

	data, err := r.encoder.Encode(resized)
	if err != nil {
		var ee *EncodeError
		if !errors.As(err, &ee) {
			err = &EncodeError{Codec: r.encoder.Name(), Err: err}
		}
		return Artifact{}, true, err
	}

	art, err := r.persister.Write(m.Name, data, r.encoder.Ext())
	if err != nil {
		return Artifact{}, true, err
	}
	return art, true, nil
}

func (r *Recorder) reportFailure(log *slog.Logger, m capture.Monitor, err error) {
	var (
		ce *capture.CaptureError
		re *ResizeError
		ee *EncodeError
		pe *PersistError
	)
	switch {
	case errors.As(err, &ce):
		r.health.Update(m.Key(), health.Unhealthy, err.Error())
		log.Error("capture failed", logging.KeyError, err)
	case errors.As(err, &re):
		r.health.Update(m.Key(), health.Degraded, err.Error())
		log.Warn("failed to resize frame, skipping display", logging.KeyError, err)
	case errors.As(err, &ee):
		r.health.Update(m.Key(), health.Degraded, err.Error())
		log.Error("failed to encode frame", logging.KeyError, err)
	case errors.As(err, &pe):
		r.health.Update(m.Key(), health.Degraded, err.Error())
		log.Error("failed to write snapshot", logging.KeyPath, pe.Path, logging.KeyError, err)
	default:
		r.health.Update(m.Key(), health.Degraded, err.Error())
		log.Error("display processing failed", logging.KeyError, err)
	}
}

// Stats returns (cycles started, snapshots persisted, per-display failures).
func (r *Recorder) Stats() (cycles, persisted, failures uint64) {
	return r.cycles.Load(), r.persisted.Load(), r.failures.Load()
}
