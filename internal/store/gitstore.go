package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"
)

// GitStore serves documents out of a git working copy. Writes are
// committed immediately with the caller's attribution; Pull fetches
// external history and notifies subscribers when the working copy
// actually changed.
type GitStore struct {
	repo     *git.Repository
	root     string
	remote   string
	logger   *zap.Logger
	observer OperationObserver

	mu   sync.Mutex
	subs []func(isPull bool)
}

// OpenGit opens the repository at path, initializing a fresh one when
// none exists yet.
func OpenGit(path, remote string, logger *zap.Logger) (*GitStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if remote == "" {
		remote = git.DefaultRemoteName
	}

	repo, err := git.PlainOpen(path)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		if mkErr := os.MkdirAll(path, 0o755); mkErr != nil {
			return nil, fmt.Errorf("create store directory: %w", mkErr)
		}
		repo, err = git.PlainInit(path, false)
	}
	if err != nil {
		return nil, fmt.Errorf("open store repository: %w", err)
	}

	return &GitStore{repo: repo, root: path, remote: remote, logger: logger}, nil
}

// SetObserver attaches an operation timing observer. Called once during
// wiring, before the store is shared.
func (s *GitStore) SetObserver(obs OperationObserver) {
	s.observer = obs
}

func (s *GitStore) observe(op string, start time.Time, err error) {
	if s.observer != nil {
		s.observer.ObserveStoreOperation(op, err == nil, time.Since(start))
	}
}

// GetText reads the document at path from the working copy. A missing
// document counts as a successful read for timing purposes.
func (s *GitStore) GetText(_ context.Context, path string) (string, error) {
	start := time.Now()
	data, err := os.ReadFile(s.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			s.observe("get", start, nil)
			return "", ErrNotFound
		}
		s.observe("get", start, err)
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	s.observe("get", start, nil)
	return string(data), nil
}

// SetJSON writes the value as pretty-printed JSON and commits it.
func (s *GitStore) SetJSON(_ context.Context, path string, value interface{}, message string, author Author) (err error) {
	defer func(start time.Time) { s.observe("set", start, err) }(time.Now())
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	full := s.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("prepare %s: %w", path, err)
	}
	if err := os.WriteFile(full, append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	wt, err := s.repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}
	if _, err := wt.Add(path); err != nil {
		return fmt.Errorf("stage %s: %w", path, err)
	}
	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  author.Name,
			Email: author.Email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("commit %s: %w", path, err)
	}
	return nil
}

// List returns the file names directly under dir.
func (s *GitStore) List(_ context.Context, dir string) ([]string, error) {
	start := time.Now()
	entries, err := os.ReadDir(s.resolve(dir))
	if err != nil {
		if os.IsNotExist(err) {
			s.observe("list", start, nil)
			return nil, nil
		}
		s.observe("list", start, err)
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	s.observe("list", start, nil)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Subscribe registers a refresh handler.
func (s *GitStore) Subscribe(fn func(isPull bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Pull fetches the remote and merges new history into the working
// copy. It returns true and notifies subscribers with isPull=true only
// when new commits actually arrived.
func (s *GitStore) Pull(ctx context.Context) (changed bool, err error) {
	defer func(start time.Time) { s.observe("pull", start, err) }(time.Now())

	s.mu.Lock()
	wt, err := s.repo.Worktree()
	if err != nil {
		s.mu.Unlock()
		return false, fmt.Errorf("worktree: %w", err)
	}
	err = wt.PullContext(ctx, &git.PullOptions{RemoteName: s.remote})
	subs := append([]func(bool){}, s.subs...)
	s.mu.Unlock()

	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("pull %s: %w", s.remote, err)
	}

	s.logger.Info("store pulled new history", zap.String("remote", s.remote))
	for _, fn := range subs {
		fn(true)
	}
	return true, nil
}

func (s *GitStore) resolve(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(path))
}
