package repl

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultHistorySize is the number of entries kept in memory and on disk.
const DefaultHistorySize = 1000

// History is the REPL's line history, optionally persisted to a file.
type History struct {
	entries []string
	limit   int
	path    string
}

// DefaultHistoryFile returns ~/.memkv/history.
func DefaultHistoryFile() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".memkv", "history")
}

// NewHistory creates a History persisted at path. An empty path keeps
// history in memory only.
func NewHistory(path string) *History {
	return &History{limit: DefaultHistorySize, path: path}
}

// Add records line unless it repeats the previous entry.
func (h *History) Add(line string) {
	if n := len(h.entries); n > 0 && h.entries[n-1] == line {
		return
	}
	h.entries = append(h.entries, line)
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = h.entries[over:]
	}
}

// Get returns the entry index steps back, 0 being the most recent, or ""
// when out of range.
func (h *History) Get(index int) string {
	i := len(h.entries) - 1 - index
	if index < 0 || i < 0 {
		return ""
	}
	return h.entries[i]
}

// Entries returns the entries oldest first.
func (h *History) Entries() []string {
	return h.entries
}

// Load appends the persisted entries. A missing file is not an error.
func (h *History) Load() error {
	if h.path == "" {
		return nil
	}
	data, err := os.ReadFile(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSuffix(line, "\r"); line != "" {
			h.Add(line)
		}
	}
	return nil
}

// Save writes the entries to the history file, creating its directory.
func (h *History) Save() error {
	if h.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(h.path), 0o700); err != nil {
		return err
	}
	var b strings.Builder
	for _, e := range h.entries {
		b.WriteString(e)
		b.WriteByte('\n')
	}
	return os.WriteFile(h.path, []byte(b.String()), 0o600)
}
