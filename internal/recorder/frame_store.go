package recorder

import (
	"image"
	"sync"
	"sync/atomic"
)

// Decision is the outcome of one compare-and-update.
type Decision struct {
	Changed bool
	// Previous is the frame that was replaced, nil on the first observation.
	Previous *image.RGBA
	// Distance is the signature Hamming distance, -1 when there was nothing
	// to compare against.
	Distance int
}

type frameSlot struct {
	mu    sync.Mutex
	frame *image.RGBA
	sig   Signature
	set   bool
}

// FrameStore holds the last accepted frame per display. Each display has its
// own lock, so displays never contend with each other while overlapping
// cycles for the same display are serialized.
type FrameStore struct {
	mu    sync.Mutex
	slots map[string]*frameSlot

	total   atomic.Uint64
	skipped atomic.Uint64
}

func NewFrameStore() *FrameStore {
	return &FrameStore{slots: make(map[string]*frameSlot)}
}

func (s *FrameStore) slot(key string) *frameSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[key]
	if !ok {
		sl = &frameSlot{}
		s.slots[key] = sl
	}
	return sl
}

// CompareAndUpdate compares frame with the stored frame for key and, if it
// changed, stores it. The read, the comparison and the replacement happen
// under the slot lock as one step; whichever caller finishes last wins.
//
// The caller must not modify frame after handing it over.
func (s *FrameStore) CompareAndUpdate(key string, frame *image.RGBA) (Decision, error) {
	sig, err := Sign(frame)
	if err != nil {
		return Decision{}, err
	}

	s.total.Add(1)
	sl := s.slot(key)

	sl.mu.Lock()
	defer sl.mu.Unlock()

	var prev *Signature
	if sl.set {
		prev = &sl.sig
	}
	changed, dist := Changed(prev, sig)
	if !changed {
		s.skipped.Add(1)
		return Decision{Changed: false, Previous: sl.frame, Distance: dist}, nil
	}

	d := Decision{Changed: true, Previous: sl.frame, Distance: dist}
	sl.frame = frame
	sl.sig = sig
	sl.set = true
	return d, nil
}

// Last returns the stored frame for key.
func (s *FrameStore) Last(key string) (*image.RGBA, bool) {
	s.mu.Lock()
	sl, ok := s.slots[key]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.frame, sl.set
}

// Len returns the number of displays with a stored frame.
func (s *FrameStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sl := range s.slots {
		sl.mu.Lock()
		if sl.set {
			n++
		}
		sl.mu.Unlock()
	}
	return n
}

// Reset forgets every stored frame; the next frame per display counts as new.
func (s *FrameStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = make(map[string]*frameSlot)
}

// Stats returns (comparisons made, comparisons that found no change).
func (s *FrameStore) Stats() (total, skipped uint64) {
	return s.total.Load(), s.skipped.Load()
}
