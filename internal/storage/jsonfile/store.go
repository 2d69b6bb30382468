package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"rd-card-scraper/internal/observability"
	"rd-card-scraper/internal/storage"
)

// Store состояние в одном JSON-файле (URL → PostState).
// Файл читается целиком при открытии и переписывается после каждого Upsert.
type Store struct {
	path   string
	logger *observability.Logger

	mu    sync.Mutex
	posts map[string]*storage.PostState
}

// Open загружает файл состояния; отсутствующий файл означает пустое состояние
func Open(path string, logger *observability.Logger) (*Store, error) {
	s := &Store{
		path:   path,
		logger: logger.ForComponent("state"),
		posts:  make(map[string]*storage.PostState),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("State file not found, starting empty", "path", path)
			return s, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &s.posts); err != nil {
			return nil, fmt.Errorf("failed to decode state file %s: %w", path, err)
		}
		if s.posts == nil {
			s.posts = make(map[string]*storage.PostState)
		}
	}
	for url, st := range s.posts {
		if st == nil {
			delete(s.posts, url)
			continue
		}
		st.URL = url
	}

	s.logger.Debug("State loaded", "path", path, "posts", len(s.posts))
	return s, nil
}

func (s *Store) Get(_ context.Context, url string) (*storage.PostState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.posts[url]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (s *Store) All(_ context.Context) (map[string]*storage.PostState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*storage.PostState, len(s.posts))
	for url, st := range s.posts {
		cp := *st
		out[url] = &cp
	}
	return out, nil
}

// Upsert обновляет запись и переписывает файл. При ошибке записи
// состояние в памяти откатывается к прежнему.
func (s *Store) Upsert(_ context.Context, state *storage.PostState) error {
	if state == nil || state.URL == "" {
		return fmt.Errorf("post state without url")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.posts[state.URL]
	cp := *state
	s.posts[state.URL] = &cp

	if err := s.flush(); err != nil {
		if existed {
			s.posts[state.URL] = prev
		} else {
			delete(s.posts, state.URL)
		}
		return err
	}
	return nil
}

func (s *Store) flush() error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.posts); err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	return storage.WriteFileAtomic(s.path, buf.Bytes(), 0o644)
}

func (s *Store) Close() error {
	return nil
}
