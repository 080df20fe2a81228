package api

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"stegguard/internal/database"
	"stegguard/internal/models"
)

type memFile struct {
	name      string
	mediaType string
}

// memStore is an in-memory database.Store.
type memStore struct {
	mu     sync.Mutex
	files  map[uuid.UUID]memFile
	byMD5  map[string]uuid.UUID
	hashes map[uuid.UUID]map[string]string
	marks  map[uuid.UUID][]models.WaterMarkHistory
}

var _ database.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		files:  make(map[uuid.UUID]memFile),
		byMD5:  make(map[string]uuid.UUID),
		hashes: make(map[uuid.UUID]map[string]string),
		marks:  make(map[uuid.UUID][]models.WaterMarkHistory),
	}
}

func (s *memStore) FindFileByMD5(_ context.Context, md5Hash string) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byMD5[md5Hash]
	return id, ok, nil
}

func (s *memStore) InsertFile(_ context.Context, filename, mediaType, md5Hash string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.files[id] = memFile{name: filename, mediaType: mediaType}
	s.byMD5[md5Hash] = id
	return id, nil
}

func (s *memStore) FileName(_ context.Context, fileUUID uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[fileUUID]
	if !ok {
		return "", database.ErrNotFound
	}
	return f.name, nil
}

func (s *memStore) StoredHashes(_ context.Context, fileUUID uuid.UUID) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string)
	for k, v := range s.hashes[fileUUID] {
		out[k] = v
	}
	return out, nil
}

func (s *memStore) InsertHash(_ context.Context, fileUUID uuid.UUID, algorithm, hashValue string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hashes[fileUUID] == nil {
		s.hashes[fileUUID] = make(map[string]string)
	}
	if _, ok := s.hashes[fileUUID][algorithm]; !ok {
		s.hashes[fileUUID][algorithm] = hashValue
	}
	return nil
}

func (s *memStore) FileByHash(_ context.Context, algorithm, hashValue string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, hashes := range s.hashes {
		if hashes[algorithm] == hashValue {
			return id, nil
		}
	}
	return uuid.Nil, database.ErrNotFound
}

func (s *memStore) WatermarkHistory(_ context.Context, fileUUID uuid.UUID) ([]models.WaterMarkHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.WaterMarkHistory{}, s.marks[fileUUID]...), nil
}

func (s *memStore) InsertWatermark(_ context.Context, fileUUID uuid.UUID, md5Hash, algorithm string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks[fileUUID] = append(s.marks[fileUUID], models.WaterMarkHistory{Algorithm: algorithm, MD5: md5Hash})
	return nil
}
