package recorder

import (
	"errors"
	"fmt"
	"image"
	"math/bits"

	"github.com/corona10/goimagehash"
)

// Signature is a 64-bit difference hash of a frame. Every frame is hashed
// with the same configuration, so two signatures are always comparable.
type Signature uint64

// ErrEmptyFrame is returned for frames with no pixels.
var ErrEmptyFrame = errors.New("frame has no pixels")

// Sign derives the perceptual signature of a frame.
func Sign(frame *image.RGBA) (Signature, error) {
	if frame == nil || frame.Bounds().Empty() {
		return 0, ErrEmptyFrame
	}
	h, err := goimagehash.DifferenceHash(frame)
	if err != nil {
		return 0, fmt.Errorf("difference hash: %w", err)
	}
	return Signature(h.GetHash()), nil
}

// Distance is the Hamming distance between two signatures.
func Distance(a, b Signature) int {
	return bits.OnesCount64(uint64(a ^ b))
}

// Changed reports whether cur differs from prev. A missing previous signature
// always counts as changed so the first observation of a display is kept.
// Only bit-identical signatures are treated as unchanged.
func Changed(prev *Signature, cur Signature) (changed bool, distance int) {
	if prev == nil {
		return true, -1
	}
	d := Distance(*prev, cur)
	return d > 0, d
}
