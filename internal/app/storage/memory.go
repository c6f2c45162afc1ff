package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	apperrors "voicescribe/internal/app/errors"
)

// MemoryStore keeps objects in process. Locate returns baseURL/<key>, so it
// is only useful when something serves that URL, as in local runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string][]byte
	now     func() time.Time
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string][]byte),
		now:     time.Now,
	}
}

// Put implements Store
func (s *MemoryStore) Put(_ context.Context, userID int64, filename, contentType string, r io.Reader, _ int64) (*Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	now := s.now().UTC()
	key := ObjectKey(userID, filename, now)

	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()

	return &Object{
		Key:         key,
		Name:        filename,
		Size:        int64(len(data)),
		ContentType: contentTypeOrDefault(contentType),
		UploadedAt:  now,
	}, nil
}

// Locate implements Store
func (s *MemoryStore) Locate(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[key]; !ok {
		return "", apperrors.NotFound("object", key)
	}
	return s.baseURL + "/" + key, nil
}

// Remove implements Store
func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Get returns a stored object's bytes
func (s *MemoryStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	return data, ok
}
