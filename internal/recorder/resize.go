package recorder

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/nfnt/resize"
)

const (
	defaultWidthDivisor = 1.7
	defaultMinWidth     = 1080
)

// ErrInvalidDimensions is returned for frames with a non-positive side.
var ErrInvalidDimensions = errors.New("frame dimensions must be positive")

// ResizeError reports a failure to size or resample a frame.
type ResizeError struct {
	Width, Height int
	Err           error
}

func (e *ResizeError) Error() string {
	return fmt.Sprintf("resize %dx%d: %v", e.Width, e.Height, e.Err)
}

func (e *ResizeError) Unwrap() error { return e.Err }

// SizingPolicy derives the output width from the source width. The width is
// floor(width/Divisor) but never below MinWidth, so sources narrower than
// MinWidth*Divisor are scaled up. Height follows the width's scale factor.
type SizingPolicy struct {
	Divisor  float64
	MinWidth int
}

func DefaultSizingPolicy() SizingPolicy {
	return SizingPolicy{Divisor: defaultWidthDivisor, MinWidth: defaultMinWidth}
}

// Target computes the output dimensions for a width x height source.
func (p SizingPolicy) Target(width, height int) (int, int, error) {
	if width <= 0 || height <= 0 {
		return 0, 0, &ResizeError{Width: width, Height: height, Err: ErrInvalidDimensions}
	}
	divisor := p.Divisor
	if divisor <= 0 {
		divisor = defaultWidthDivisor
	}

	targetWidth := int(math.Floor(float64(width) / divisor))
	if targetWidth < p.MinWidth {
		targetWidth = p.MinWidth
	}
	if targetWidth < 1 {
		targetWidth = 1
	}

	scale := float64(targetWidth) / float64(width)
	targetHeight := int(math.Round(float64(height) * scale))
	if targetHeight < 1 {
		targetHeight = 1
	}
	return targetWidth, targetHeight, nil
}

// ResizeTarget applies the default sizing policy.
func ResizeTarget(width, height int) (int, int, error) {
	return DefaultSizingPolicy().Target(width, height)
}

// Resize resamples frame to the policy's target size with a Lanczos-3 filter.
func Resize(frame *image.RGBA, p SizingPolicy) (*image.RGBA, error) {
	if frame == nil {
		return nil, &ResizeError{Err: ErrEmptyFrame}
	}
	b := frame.Bounds()
	w, h, err := p.Target(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	return resizeTo(frame, w, h)
}

func resizeTo(frame *image.RGBA, width, height int) (out *image.RGBA, err error) {
	b := frame.Bounds()
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &ResizeError{Width: b.Dx(), Height: b.Dy(), Err: fmt.Errorf("lanczos3 filter: %v", r)}
		}
	}()

	if len(frame.Pix) < frame.PixOffset(b.Max.X-1, b.Max.Y-1)+4 {
		return nil, &ResizeError{Width: b.Dx(), Height: b.Dy(), Err: errors.New("pixel buffer shorter than frame bounds")}
	}

	resized := resize.Resize(uint(width), uint(height), frame, resize.Lanczos3)
	return toRGBA(resized), nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}
