// Package pixeldigest fingerprints the visible content of an image: the
// decoded RGB samples with their least-significant bit cleared. A cover and
// every LSB-watermarked copy of it share the same digest.
package pixeldigest

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"

	"stegguard/internal/hashing"
	"stegguard/internal/models"
	"stegguard/internal/pixels"
)

const AlgorithmPixelDigest = "pixeldigest"

type PixelDigest struct{}

func init() {
	hashing.Register(AlgorithmPixelDigest, &PixelDigest{})
}

func (h *PixelDigest) Name() string {
	return AlgorithmPixelDigest
}

func (h *PixelDigest) Description() string {
	return "SHA-256 of the image dimensions and RGB samples with bit 0 masked; stable across LSB watermarking"
}

func (h *PixelDigest) ExtractHash(reader io.Reader) (string, error) {
	img, err := pixels.Decode(reader)
	if err != nil {
		return "", err
	}

	hash := sha256.New()
	var dims [8]byte
	binary.BigEndian.PutUint32(dims[:4], uint32(img.Width))
	binary.BigEndian.PutUint32(dims[4:], uint32(img.Height))
	hash.Write(dims[:])

	masked := make([]byte, len(img.Pix))
	for i, b := range img.Pix {
		masked[i] = b &^ 1
	}
	hash.Write(masked)
	return hex.EncodeToString(hash.Sum(nil)), nil
}

func (h *PixelDigest) CheckHash(reader io.Reader) ([]models.EntrySimilarity, error) {
	digest, err := h.ExtractHash(reader)
	if err != nil {
		return nil, err
	}
	return hashing.ExactMatch(AlgorithmPixelDigest, digest), nil
}
