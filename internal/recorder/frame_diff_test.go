package recorder

import (
	"errors"
	"image"
	"testing"
)

func TestSignIdenticalFramesMatch(t *testing.T) {
	a := gradientFrame(64, 48, true)
	b := cloneFrame(a)

	sa, err := Sign(a)
	if err != nil {
		t.Fatalf("Sign(a): %v", err)
	}
	sb, err := Sign(b)
	if err != nil {
		t.Fatalf("Sign(b): %v", err)
	}
	if sa != sb {
		t.Fatalf("identical frames produced different signatures %x / %x", sa, sb)
	}

	prev := sa
	if changed, dist := Changed(&prev, sb); changed || dist != 0 {
		t.Fatalf("Changed = (%v, %d), want (false, 0)", changed, dist)
	}
}

func TestChangedWithoutPreviousIsAlwaysTrue(t *testing.T) {
	for _, frame := range []*image.RGBA{
		gradientFrame(32, 32, true),
		solidFrame(16, 9, black),
	} {
		sig, err := Sign(frame)
		if err != nil {
			t.Fatalf("Sign: %v", err)
		}
		changed, dist := Changed(nil, sig)
		if !changed {
			t.Fatal("first observation must count as changed")
		}
		if dist != -1 {
			t.Fatalf("distance without previous = %d, want -1", dist)
		}
	}
}

func TestChangedDetectsDifferentContent(t *testing.T) {
	rising, err := Sign(gradientFrame(64, 48, true))
	if err != nil {
		t.Fatal(err)
	}
	falling, err := Sign(gradientFrame(64, 48, false))
	if err != nil {
		t.Fatal(err)
	}

	changed, dist := Changed(&rising, falling)
	if !changed {
		t.Fatal("opposite gradients should be reported as changed")
	}
	if dist == 0 {
		t.Fatal("expected non-zero distance")
	}
}

func TestDistanceCountsDifferingBits(t *testing.T) {
	tests := []struct {
		a, b Signature
		want int
	}{
		{0, 0, 0},
		{0b1011, 0b0001, 2},
		{0, ^Signature(0), 64},
	}
	for _, tt := range tests {
		if got := Distance(tt.a, tt.b); got != tt.want {
			t.Errorf("Distance(%b, %b) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSignRejectsEmptyFrame(t *testing.T) {
	if _, err := Sign(nil); !errors.Is(err, ErrEmptyFrame) {
		t.Fatalf("Sign(nil) err = %v, want ErrEmptyFrame", err)
	}
	if _, err := Sign(image.NewRGBA(image.Rect(0, 0, 10, 0))); !errors.Is(err, ErrEmptyFrame) {
		t.Fatalf("Sign(10x0) err = %v, want ErrEmptyFrame", err)
	}
}
