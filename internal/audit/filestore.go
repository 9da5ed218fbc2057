package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileStore пишет события в logs/audit_YYYY-MM-DD.json (JSON-массив на день, UTC).
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func FileName(day string) string {
	return "audit_" + day + ".json"
}

func (s *FileStore) WriteBatch(ctx context.Context, events []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byDay := make(map[string][]Event)
	for _, e := range events {
		day := e.Timestamp.UTC().Format("2006-01-02")
		byDay[day] = append(byDay[day], e)
	}

	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)

	var errs []error
	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.appendDay(day, byDay[day]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Read возвращает все события за день
func (s *FileStore) Read(day string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(filepath.Join(s.dir, FileName(day)))
}

func (s *FileStore) readLocked(path string) ([]Event, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	var existing []Event
	if err := json.Unmarshal(data, &existing); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return existing, nil
}

func (s *FileStore) appendDay(day string, events []Event) error {
	path := filepath.Join(s.dir, FileName(day))

	existing, err := s.readLocked(path)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(append(existing, events...), "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", FileName(day), err)
	}

	tmp, err := os.CreateTemp(s.dir, ".audit-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", FileName(day), err)
	}
	return nil
}
