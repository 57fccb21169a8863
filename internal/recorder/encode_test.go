package recorder

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"testing"
)

func TestJPEGEncoderRoundTripsDimensions(t *testing.T) {
	enc, err := NewEncoder("jpeg", 90)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	if enc.Ext() != "jpg" || enc.Name() != "jpeg" {
		t.Fatalf("jpeg encoder ext/name = %s/%s", enc.Ext(), enc.Name())
	}

	data, err := enc.Encode(gradientFrame(120, 80, true))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a jpeg: %v", err)
	}
	if cfg.Width != 120 || cfg.Height != 80 {
		t.Fatalf("decoded %dx%d, want 120x80", cfg.Width, cfg.Height)
	}
}

func TestJPEGEncoderIsDeterministic(t *testing.T) {
	enc, _ := NewEncoder("jpeg", 90)
	frame := gradientFrame(64, 64, false)

	a, err := enc.Encode(frame)
	if err != nil {
		t.Fatal(err)
	}
	b, err := enc.Encode(cloneFrame(frame))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("identical input should encode to identical bytes")
	}
}

func TestEncodeOutputNotAliasedByPool(t *testing.T) {
	enc, _ := NewEncoder("jpeg", 90)
	first, err := enc.Encode(solidFrame(32, 32, white))
	if err != nil {
		t.Fatal(err)
	}
	snapshot := bytes.Clone(first)
	if _, err := enc.Encode(solidFrame(64, 64, black)); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, snapshot) {
		t.Fatal("encoded bytes changed after a later Encode reused the buffer")
	}
}

func TestNewEncoderUnknownCodec(t *testing.T) {
	if _, err := NewEncoder("gif", 90); !errors.Is(err, ErrUnknownCodec) {
		t.Fatalf("err = %v, want ErrUnknownCodec", err)
	}
}

func TestNewEncoderClampsQuality(t *testing.T) {
	enc, err := NewEncoder("jpeg", 500)
	if err != nil {
		t.Fatal(err)
	}
	if q := enc.(*jpegEncoder).quality; q != 100 {
		t.Fatalf("quality = %d, want 100", q)
	}
	enc, _ = NewEncoder("JPG", -3)
	if q := enc.(*jpegEncoder).quality; q != 1 {
		t.Fatalf("quality = %d, want 1", q)
	}
}

func TestEncodeEmptyFrameIsEncodeError(t *testing.T) {
	enc, _ := NewEncoder("jpeg", 90)
	_, err := enc.Encode(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	var ee *EncodeError
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v, want *EncodeError", err)
	}
	if !errors.Is(err, ErrEmptyFrame) {
		t.Fatal("EncodeError should wrap ErrEmptyFrame")
	}
}

func TestWebPEncoderAvailability(t *testing.T) {
	enc, err := NewEncoder("webp", 90)
	if errors.Is(err, ErrCodecUnavailable) {
		t.Skip("webp needs cgo")
	}
	if err != nil {
		t.Fatalf("NewEncoder(webp): %v", err)
	}
	if enc.Ext() != "webp" {
		t.Fatalf("Ext() = %q, want webp", enc.Ext())
	}
	data, err := enc.Encode(gradientFrame(64, 48, true))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		t.Fatal("output is not a RIFF/WEBP container")
	}
}
