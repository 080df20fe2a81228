package hashing

import (
	"io"

	models "stegguard/internal/models"
)

// Hasher defines the standard interface for all hashing algorithms.
type Hasher interface {
	Name() string
	Description() string
	ExtractHash(reader io.Reader) (string, error)
	CheckHash(reader io.Reader) ([]models.EntrySimilarity, error)
}

// ExactMatch wraps a digest as the single full-similarity entry returned by
// hashers that only match identical fingerprints.
func ExactMatch(algorithm, hash string) []models.EntrySimilarity {
	return []models.EntrySimilarity{{
		Algorithm:  algorithm,
		Similarity: 100.0,
		HashId:     hash,
	}}
}
