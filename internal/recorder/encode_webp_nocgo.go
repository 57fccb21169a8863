//go:build !cgo

package recorder

// newWebPEncoder returns an error when built without CGO, since the webp
// encoder wraps libwebp.
func newWebPEncoder(quality int) (Encoder, error) {
	return nil, ErrCodecUnavailable
}
