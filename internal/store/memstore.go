package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// CommitRecord captures one MemStore write for inspection in tests.
type CommitRecord struct {
	Path    string
	Message string
	Author  Author
}

// MemStore is an in-memory Store. It backs tests and local development
// without a git working copy; FirePull simulates an out-of-band
// refresh.
type MemStore struct {
	mu      sync.RWMutex
	docs    map[string]string
	subs    []func(isPull bool)
	commits []CommitRecord
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string]string)}
}

// GetText returns the document at path or ErrNotFound.
func (s *MemStore) GetText(_ context.Context, path string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.docs[path]
	if !ok {
		return "", ErrNotFound
	}
	return text, nil
}

// SetJSON stores the pretty-printed serialization of value at path.
func (s *MemStore) SetJSON(_ context.Context, path string, value interface{}, message string, author Author) error {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = string(payload) + "\n"
	s.commits = append(s.commits, CommitRecord{Path: path, Message: message, Author: author})
	return nil
}

// List returns the file names directly under dir, sorted.
func (s *MemStore) List(_ context.Context, dir string) ([]string, error) {
	prefix := dir + "/"
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for path := range s.docs {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := strings.TrimPrefix(path, prefix)
		if strings.Contains(rest, "/") {
			continue
		}
		names = append(names, rest)
	}
	sort.Strings(names)
	return names, nil
}

// Subscribe registers a refresh handler.
func (s *MemStore) Subscribe(fn func(isPull bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// SeedText places raw document text without recording a commit.
func (s *MemStore) SeedText(path, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = text
}

// Delete removes a document, simulating external history rewriting.
func (s *MemStore) Delete(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, path)
}

// Commits returns the recorded writes.
func (s *MemStore) Commits() []CommitRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]CommitRecord{}, s.commits...)
}

// FirePull invokes every subscriber, simulating a working-copy refresh.
func (s *MemStore) FirePull(isPull bool) {
	s.mu.RLock()
	subs := append([]func(bool){}, s.subs...)
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(isPull)
	}
}
