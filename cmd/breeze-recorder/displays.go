package main

import (
	"github.com/breeze-rmm/recorder/internal/capture"
	"github.com/breeze-rmm/recorder/internal/config"
	"github.com/breeze-rmm/recorder/internal/recorder"
)

// describeDisplays lists the displays the recorder would capture together
// with the snapshot size the sizing policy produces for each.
func describeDisplays(c capture.Capturer, cfg *config.Config) ([]displayStatus, error) {
	monitors, err := c.Monitors()
	if err != nil {
		return nil, err
	}

	policy := recorder.SizingPolicy{Divisor: cfg.WidthDivisor, MinWidth: cfg.MinWidth}
	out := make([]displayStatus, 0, len(monitors))
	for _, m := range monitors {
		ds := displayStatus{
			Index:   m.Index,
			Name:    m.Name,
			Primary: m.IsPrimary,
			Width:   m.Bounds.Dx(),
			Height:  m.Bounds.Dy(),
		}
		if w, h, err := policy.Target(ds.Width, ds.Height); err != nil {
			ds.SizeError = err.Error()
		} else {
			ds.OutputW, ds.OutputH = w, h
		}
		out = append(out, ds)
	}
	return out, nil
}
