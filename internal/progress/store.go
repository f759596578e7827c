// Package progress persists the set of already-submitted URLs so an
// interrupted run can resume without resubmitting completed work.
package progress

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Suffix is appended to the input file path to derive the progress log path.
const Suffix = ".progress"

// Store is the durable, append-only log of submitted URLs. The log is plain
// text, one URL per line, owned by a single writer for the run's duration.
// Concurrent runs against the same input file are not supported.
type Store struct {
	path string
	file *os.File
}

// PathFor derives the progress log path for an input file.
func PathFor(inputPath string) string {
	return inputPath + Suffix
}

// NewStore creates a Store for the given progress log path. The file is
// opened lazily on the first Record call.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the on-disk location of the log.
func (s *Store) Path() string {
	return s.path
}

// Load reads the log and returns the set of URLs recorded so far. A missing
// log yields an empty set. Blank lines are ignored and duplicate entries
// collapse. Read errors are returned verbatim: resuming without the full set
// would silently resubmit completed work.
func (s *Store) Load() (map[string]struct{}, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("open progress log: %w", err)
	}
	defer f.Close()

	done := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			done[line] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read progress log: %w", err)
	}
	return done, nil
}

// Record appends url to the log and syncs it to disk before returning.
// Callers must not treat a submission as complete-for-resume until Record
// has returned nil; a crash before the append causes at most one duplicate
// submission on the next run.
func (s *Store) Record(url string) error {
	if s.file == nil {
		f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open progress log for append: %w", err)
		}
		s.file = f
	}
	if _, err := s.file.WriteString(url + "\n"); err != nil {
		return fmt.Errorf("append progress entry: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync progress log: %w", err)
	}
	return nil
}

// Clear removes the log so the next Load starts from an empty set. A missing
// log is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove progress log: %w", err)
	}
	return nil
}

// Close releases the append handle if one was opened.
func (s *Store) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	if err != nil {
		return fmt.Errorf("close progress log: %w", err)
	}
	return nil
}
