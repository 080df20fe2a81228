package watermarking

import (
	"io"
)

// Watermarker defines the standard interface for embedding and extracting watermarks.
type Watermarker interface {
	Name() string
	Description() string
	Embed(reader io.Reader, data []byte) (io.Reader, error)
	Extract(reader io.Reader) ([]byte, error)
	// Capacity returns the largest payload, in bytes, the media can carry.
	Capacity(reader io.Reader) (int, error)
}

// Fitter is implemented by watermarkers that can enlarge a cover which is
// too small for the payload instead of rejecting it.
type Fitter interface {
	Fitted() Watermarker
}
