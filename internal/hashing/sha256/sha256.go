package sha256

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"stegguard/internal/hashing"
	"stegguard/internal/models"
)

type SHA256Hash struct{}

const AlgorithmSHA256 = "sha256"

func init() {
	hashing.Register(AlgorithmSHA256, &SHA256Hash{})
}

func (h *SHA256Hash) Name() string {
	return AlgorithmSHA256
}

func (h *SHA256Hash) Description() string {
	return "SHA-256 of the raw file bytes; changes whenever a watermark is embedded"
}

func (h *SHA256Hash) ExtractHash(reader io.Reader) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, reader); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

func (h *SHA256Hash) CheckHash(reader io.Reader) ([]models.EntrySimilarity, error) {
	digest, err := h.ExtractHash(reader)
	if err != nil {
		return nil, err
	}
	return hashing.ExactMatch(AlgorithmSHA256, digest), nil
}
