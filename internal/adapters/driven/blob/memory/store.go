// Package memory provides an in-process BlobStore.
package memory

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/custodia-labs/readwell/internal/adapters/driven/blob"
	"github.com/custodia-labs/readwell/internal/core/domain"
	"github.com/custodia-labs/readwell/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.BlobStore = (*Store)(nil)

type object struct {
	data        []byte
	contentType string
}

// Store keeps blobs in a map. URL returns a data URI.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
}

// New creates an empty in-memory blob store.
func New() *Store {
	return &Store{objects: make(map[string]object)}
}

// Store saves a copy of data under a new key.
func (s *Store) Store(_ context.Context, data []byte, contentType string) (string, error) {
	key := blob.NewKey(contentType)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = object{data: append([]byte(nil), data...), contentType: contentType}
	return key, nil
}

// Get returns a copy of the bytes stored under ref.
func (s *Store) Get(_ context.Context, ref string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[ref]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", ref, domain.ErrNotFound)
	}
	return append([]byte(nil), obj.data...), nil
}

// Delete removes ref.
func (s *Store) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, ref)
	return nil
}

// URL returns ref as a base64 data URI.
func (s *Store) URL(_ context.Context, ref string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[ref]
	if !ok {
		return "", fmt.Errorf("blob %s: %w", ref, domain.ErrNotFound)
	}
	return "data:" + obj.contentType + ";base64," + base64.StdEncoding.EncodeToString(obj.data), nil
}

// Len returns the number of stored blobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Keys returns every stored reference.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	return keys
}
