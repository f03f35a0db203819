package enrich

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps entries in an append-only JSON-lines file. On load, later
// lines for the same key win.
type FileStore struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
	f  *os.File
}

// NewFileStore opens path for appending, creating it and its directory.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create geocache dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open geocache file: %w", err)
	}
	return &FileStore{path: path, logger: logger, f: f}, nil
}

func (s *FileStore) Load(_ context.Context) ([]Entry, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil || e.Key == "" {
			s.logger.Warn("skipping malformed geocache line", "path", s.path, "line", line)
			continue
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

func (s *FileStore) Save(_ context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.f.Write(data)
	return err
}

// Close flushes and closes the file.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.f.Sync(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}
