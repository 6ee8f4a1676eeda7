// Package ledger implements the processed-file ledger: a plain text file
// listing, one per line, the relative paths of source files that have been
// translated into every requested language.
//
// The ledger is append-only. Membership checks re-read the file each time,
// so a path committed by another process between checks is seen. Appends
// are serialized by a mutex; readers do not take it and may observe a
// slightly stale view.
package ledger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// DefaultFileName is the default ledger file name.
const DefaultFileName = "processed_list.txt"

// Ledger is a processed-file ledger backed by a text file.
type Ledger struct {
	path string
	mu   sync.Mutex
}

// Open returns the ledger at path, creating it (and its parent directory)
// empty if it does not exist.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	f.Close()
	return &Ledger{path: path}, nil
}

// Path returns the ledger file path.
func (l *Ledger) Path() string {
	return l.path
}

// Key normalizes a relative path to the form stored in the ledger.
func Key(relPath string) string {
	return filepath.ToSlash(filepath.Clean(relPath))
}

// Entries returns every recorded path in file order, without duplicates.
func (l *Ledger) Entries() ([]string, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading ledger %s: %w", l.path, err)
	}
	defer f.Close()

	var entries []string
	seen := make(map[string]bool)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		entries = append(entries, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", l.path, err)
	}
	return entries, nil
}

// IsProcessed reports whether relPath is recorded. The file is read fresh
// on every call.
func (l *Ledger) IsProcessed(relPath string) (bool, error) {
	entries, err := l.Entries()
	if err != nil {
		return false, err
	}
	key := Key(relPath)
	for _, e := range entries {
		if e == key {
			return true, nil
		}
	}
	return false, nil
}

// MarkProcessed appends relPath unless it is already recorded. added
// reports whether a line was written.
func (l *Ledger) MarkProcessed(relPath string) (added bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	done, err := l.IsProcessed(relPath)
	if err != nil {
		return false, err
	}
	if done {
		return false, nil
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, fmt.Errorf("opening ledger %s: %w", l.path, err)
	}
	if _, err := f.WriteString(Key(relPath) + "\n"); err != nil {
		f.Close()
		return false, fmt.Errorf("writing ledger %s: %w", l.path, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("writing ledger %s: %w", l.path, err)
	}
	return true, nil
}

// ---------------------------------------------------------------------------
// Summary
// ---------------------------------------------------------------------------

// Summary describes ledger state against a set of candidate files.
type Summary struct {
	// Recorded is the number of paths in the ledger.
	Recorded int
	// Done lists candidates already recorded.
	Done []string
	// Pending lists candidates not yet recorded.
	Pending []string
	// Orphaned lists recorded paths that are not among the candidates.
	Orphaned []string
}

// Summarize compares the ledger with candidate relative paths.
func (l *Ledger) Summarize(candidates []string) (Summary, error) {
	entries, err := l.Entries()
	if err != nil {
		return Summary{}, err
	}
	recorded := make(map[string]bool, len(entries))
	for _, e := range entries {
		recorded[e] = true
	}

	s := Summary{Recorded: len(entries)}
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		key := Key(c)
		seen[key] = true
		if recorded[key] {
			s.Done = append(s.Done, key)
		} else {
			s.Pending = append(s.Pending, key)
		}
	}
	for _, e := range entries {
		if !seen[e] {
			s.Orphaned = append(s.Orphaned, e)
		}
	}
	sort.Strings(s.Done)
	sort.Strings(s.Pending)
	sort.Strings(s.Orphaned)
	return s, nil
}
