package recorder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"strings"
	"sync"
)

const defaultQuality = 90

var (
	// ErrUnknownCodec is returned by NewEncoder for unsupported codec names.
	ErrUnknownCodec = errors.New("unknown codec")

	// ErrCodecUnavailable is returned when a codec is not compiled in.
	ErrCodecUnavailable = errors.New("codec not available in this build")
)

// Encoder compresses a resized frame with a lossy codec at a fixed quality.
type Encoder interface {
	Encode(img *image.RGBA) ([]byte, error)
	// Ext is the file extension without the dot.
	Ext() string
	Name() string
}

// EncodeError wraps a codec failure.
type EncodeError struct {
	Codec string
	Err   error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Codec, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// NewEncoder returns the encoder for codec ("jpeg" or "webp") with quality
// clamped to 1..100.
func NewEncoder(codec string, quality int) (Encoder, error) {
	quality = clampQuality(quality)
	switch strings.ToLower(strings.TrimSpace(codec)) {
	case "", "jpeg", "jpg":
		return &jpegEncoder{quality: quality}, nil
	case "webp":
		return newWebPEncoder(quality)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, codec)
	}
}

func clampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}

type jpegEncoder struct {
	quality int
}

func (e *jpegEncoder) Name() string { return "jpeg" }
func (e *jpegEncoder) Ext() string  { return "jpg" }

func (e *jpegEncoder) Encode(img *image.RGBA) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, &EncodeError{Codec: e.Name(), Err: ErrEmptyFrame}
	}
	buf := getBuffer()
	defer putBuffer(buf)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, &EncodeError{Codec: e.Name(), Err: err}
	}
	return bytes.Clone(buf.Bytes()), nil
}

// bufferPool pools encoder output buffers; overlapping cycles each take one.
var bufferPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 256*1024))
	},
}

func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 4*1024*1024 {
		return // don't pool oversized buffers
	}
	bufferPool.Put(buf)
}
