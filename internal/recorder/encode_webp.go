//go:build cgo

package recorder

import (
	"bytes"
	"image"

	"github.com/chai2010/webp"
)

type webpEncoder struct {
	quality int
}

func newWebPEncoder(quality int) (Encoder, error) {
	return &webpEncoder{quality: quality}, nil
}

func (e *webpEncoder) Name() string { return "webp" }
func (e *webpEncoder) Ext() string  { return "webp" }

func (e *webpEncoder) Encode(img *image.RGBA) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, &EncodeError{Codec: e.Name(), Err: ErrEmptyFrame}
	}
	buf := getBuffer()
	defer putBuffer(buf)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(e.quality)}); err != nil {
		return nil, &EncodeError{Codec: e.Name(), Err: err}
	}
	return bytes.Clone(buf.Bytes()), nil
}
