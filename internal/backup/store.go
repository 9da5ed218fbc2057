package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	filePrefix = "backup_"
	fileSuffix = ".json"

	DefaultRetention = 7 * 24 * time.Hour
)

var ErrInvalidName = errors.New("backup: invalid file name")

// Store хранит снапшоты как отдельные JSON-файлы в одном каталоге.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

// FileName: backup_<имя гильдии>_<unix millis>.json
func FileName(guildName string, at time.Time) string {
	return fmt.Sprintf("%s%s_%d%s", filePrefix, sanitize(guildName), at.UnixMilli(), fileSuffix)
}

// sanitize оставляет буквы, цифры, '-' и '_'; остальное заменяет на '_'.
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "guild"
	}
	return b.String()
}

func (s *Store) Save(snap Snapshot) (string, error) {
	name := FileName(snap.Guild.Name, snap.Timestamp)
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return name, nil
}

// List возвращает имена файлов бэкапов, новые первыми.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isBackupFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}

	sort.SliceStable(names, func(i, j int) bool {
		ti, tj := stamp(names[i]), stamp(names[j])
		if ti != tj {
			return ti > tj
		}
		return names[i] < names[j]
	})
	return names, nil
}

// Load читает снапшот по имени файла. Применение снапшота к гильдии выполняется вручную.
func (s *Store) Load(name string) (Snapshot, error) {
	if err := validateName(name); err != nil {
		return Snapshot{}, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return Snapshot{}, fmt.Errorf("read %s: %w", name, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode %s: %w", name, err)
	}
	return snap, nil
}

// Prune удаляет бэкапы старше maxAge по mtime и возвращает удаленные имена.
func (s *Store) Prune(maxAge time.Duration, now time.Time) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	var removed []string
	var errs []error
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if now.Sub(info.ModTime()) <= maxAge {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, e.Name())
	}
	return removed, errors.Join(errs...)
}

func validateName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") || !isBackupFile(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func isBackupFile(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix)
}

// stamp достает unix millis из имени; -1 для нераспознанных имен.
func stamp(name string) int64 {
	base := strings.TrimSuffix(name, fileSuffix)
	i := strings.LastIndexByte(base, '_')
	if i < 0 {
		return -1
	}
	ms, err := strconv.ParseInt(base[i+1:], 10, 64)
	if err != nil {
		return -1
	}
	return ms
}
