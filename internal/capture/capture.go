// Package capture enumerates attached displays and grabs one RGBA frame per
// display. The platform work is delegated to github.com/kbinani/screenshot.
package capture

import (
	"errors"
	"fmt"
	"image"
)

// Monitor identifies one attached display for the duration of a cycle.
type Monitor struct {
	Index     int             `json:"index" yaml:"index"`
	Name      string          `json:"name" yaml:"name"`
	Bounds    image.Rectangle `json:"-" yaml:"-"`
	IsPrimary bool            `json:"isPrimary" yaml:"isPrimary"`
}

// Key is the identity used for per-display state. The index is stable for
// as long as the display layout does not change.
func (m Monitor) Key() string {
	return fmt.Sprintf("%d:%s", m.Index, m.Name)
}

// Capturer is the capability the recorder consumes: list displays, then
// capture each one.
type Capturer interface {
	Monitors() ([]Monitor, error)
	Capture(m Monitor) (*image.RGBA, error)
}

var (
	// ErrNoDisplays is returned when the platform reports zero active displays.
	ErrNoDisplays = errors.New("no active displays")

	// ErrDisplayNotFound is returned when a monitor disappeared between
	// enumeration and capture.
	ErrDisplayNotFound = errors.New("display not found")
)

// CaptureError wraps enumeration and per-display capture failures.
type CaptureError struct {
	Op      string // "enumerate" or "capture"
	Monitor string
	Err     error
}

func (e *CaptureError) Error() string {
	if e.Monitor == "" {
		return fmt.Sprintf("capture: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("capture: %s %q: %v", e.Op, e.Monitor, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }
