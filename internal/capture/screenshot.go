package capture

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// ScreenCapturer captures real displays. An empty include list records every
// display; otherwise only the listed indices are returned by Monitors.
type ScreenCapturer struct {
	include map[int]bool
}

// NewScreenCapturer returns a capturer limited to the given display indices.
func NewScreenCapturer(displays []int) *ScreenCapturer {
	c := &ScreenCapturer{}
	if len(displays) > 0 {
		c.include = make(map[int]bool, len(displays))
		for _, idx := range displays {
			c.include[idx] = true
		}
	}
	return c
}

func (c *ScreenCapturer) Monitors() ([]Monitor, error) {
	n := screenshot.NumActiveDisplays()
	if n <= 0 {
		return nil, &CaptureError{Op: "enumerate", Err: ErrNoDisplays}
	}

	monitors := make([]Monitor, 0, n)
	for i := 0; i < n; i++ {
		if c.include != nil && !c.include[i] {
			continue
		}
		bounds := screenshot.GetDisplayBounds(i)
		monitors = append(monitors, Monitor{
			Index:     i,
			Name:      displayName(i, bounds),
			Bounds:    bounds,
			IsPrimary: bounds.Min.X == 0 && bounds.Min.Y == 0,
		})
	}
	return monitors, nil
}

func (c *ScreenCapturer) Capture(m Monitor) (*image.RGBA, error) {
	if m.Index >= screenshot.NumActiveDisplays() {
		return nil, &CaptureError{Op: "capture", Monitor: m.Name, Err: ErrDisplayNotFound}
	}
	img, err := screenshot.CaptureRect(m.Bounds)
	if err != nil {
		return nil, &CaptureError{Op: "capture", Monitor: m.Name, Err: err}
	}
	return img, nil
}

// displayName builds a readable name; the library exposes no OS display names.
func displayName(index int, bounds image.Rectangle) string {
	return fmt.Sprintf("Display %d (%dx%d)", index+1, bounds.Dx(), bounds.Dy())
}
