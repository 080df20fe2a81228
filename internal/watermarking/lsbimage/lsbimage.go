// Package lsbimage registers least-significant-bit watermarkers that hide
// payloads in the RGB samples of PNG and BMP images.
package lsbimage

import (
	"bytes"
	"io"

	"stegguard/internal/lsb"
	"stegguard/internal/pixels"
	"stegguard/internal/watermarking"
)

const (
	AlgorithmSentinel = "lsb-sentinel"
	AlgorithmFramed   = "lsb-framed"
)

// layout is one way of laying a payload out in a sample buffer.
type layout struct {
	embed    func(buf, payload []byte) error
	extract  func(buf []byte) ([]byte, error)
	capacity func(samples int) int
	// overhead is the number of samples needed on top of 8 per payload byte.
	overhead int
}

// LSB embeds payloads in bit 0 of every RGB sample of an image.
type LSB struct {
	Algorithm   string
	description string
	layout      layout
	fit         bool
}

func init() {
	watermarking.Register(AlgorithmSentinel, NewSentinel())
	watermarking.Register(AlgorithmFramed, NewFramed())
}

// NewSentinel returns the watermarker that terminates payloads with a run of
// set LSBs.
func NewSentinel() *LSB {
	return &LSB{
		Algorithm:   AlgorithmSentinel,
		description: "Hides the payload in the RGB least-significant bits, terminated by a run of eight set bits",
		layout: layout{
			embed:    lsb.Embed,
			extract:  lsb.Extract,
			capacity: lsb.Capacity,
			overhead: lsb.SentinelRun,
		},
	}
}

// NewFramed returns the watermarker that prefixes payloads with a frame
// marker and a 32-bit length header.
func NewFramed() *LSB {
	return &LSB{
		Algorithm:   AlgorithmFramed,
		description: "Hides the payload in the RGB least-significant bits behind a marker and a 32-bit length header",
		layout: layout{
			embed:    lsb.EmbedFramed,
			extract:  lsb.ExtractFramed,
			capacity: lsb.FramedCapacity,
			overhead: lsb.HeaderBytes * lsb.BitsPerByte,
		},
	}
}

// Name returns the algorithm's name.
func (w *LSB) Name() string {
	return w.Algorithm
}

// Description returns the algorithm's description.
func (w *LSB) Description() string {
	return w.description
}

// Fitted returns a copy of w that upscales covers too small for the payload.
func (w *LSB) Fitted() watermarking.Watermarker {
	c := *w
	c.fit = true
	return &c
}

// Embed decodes the image, hides data in its samples and returns the image
// re-encoded losslessly.
func (w *LSB) Embed(reader io.Reader, data []byte) (io.Reader, error) {
	img, err := pixels.Decode(reader)
	if err != nil {
		return nil, err
	}
	if w.fit {
		img = pixels.Fit(img, len(data)*lsb.BitsPerByte+w.layout.overhead)
	}
	if err := w.layout.embed(img.Pix, data); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := pixels.Encode(&out, img); err != nil {
		return nil, err
	}
	return &out, nil
}

// Extract returns the payload hidden in the image.
func (w *LSB) Extract(reader io.Reader) ([]byte, error) {
	img, err := pixels.Decode(reader)
	if err != nil {
		return nil, err
	}
	data, err := w.layout.extract(img.Pix)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Capacity returns the largest payload the image can carry.
func (w *LSB) Capacity(reader io.Reader) (int, error) {
	img, err := pixels.Decode(reader)
	if err != nil {
		return 0, err
	}
	return w.layout.capacity(len(img.Pix)), nil
}
