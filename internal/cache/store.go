// Package cache persists analysis results as one JSON file per publication.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// Errors returned by the store.
var (
	ErrCorrupt     = errors.New("cache entry is corrupt")
	ErrWriteFailed = errors.New("cache write failed")
)

// CorruptError identifies an unreadable cache entry.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("cache entry %s is corrupt: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrCorrupt) match.
func (e *CorruptError) Is(target error) bool { return target == ErrCorrupt }

// AnalysisResult is the persisted outcome of processing one publication.
type AnalysisResult struct {
	PubID       int       `json:"pub_id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Source      string    `json:"source"`
	Summary     string    `json:"summary"`
	TextPreview string    `json:"text_preview"`
	DOI         string    `json:"doi,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

var entryPattern = regexp.MustCompile(`^pub_(\d+)_analysis\.json$`)

// Store is a directory of cache entries.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir. The directory is created on first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the entry path for a publication id.
func (s *Store) Path(pubID int) string {
	return filepath.Join(s.dir, fmt.Sprintf("pub_%d_analysis.json", pubID))
}

// Get returns the cached result for pubID, or nil and no error on a miss.
// An unreadable entry yields a *CorruptError.
func (s *Store) Get(pubID int) (*AnalysisResult, error) {
	path := s.Path(pubID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}

	var result AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &CorruptError{Path: path, Err: err}
	}
	if result.PubID != pubID {
		return nil, &CorruptError{Path: path, Err: fmt.Errorf("entry holds pub_id %d", result.PubID)}
	}
	return &result, nil
}

// Put writes result for pubID. The entry is written to a temp file in the
// same directory and renamed into place, so readers never see partial files.
func (s *Store) Put(pubID int, result *AnalysisResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding: %v", ErrWriteFailed, err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("%w: creating directory: %v", ErrWriteFailed, err)
	}

	path := s.Path(pubID)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", ErrWriteFailed, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: writing: %v", ErrWriteFailed, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: closing: %v", ErrWriteFailed, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: renaming: %v", ErrWriteFailed, err)
	}
	return nil
}

// Delete removes the entry for pubID. It reports whether an entry existed.
func (s *Store) Delete(pubID int) (bool, error) {
	err := os.Remove(s.Path(pubID))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("removing cache entry: %w", err)
}

// List returns the ids of all entries, ascending.
func (s *Store) List() ([]int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}

	var ids []int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := entryPattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}
