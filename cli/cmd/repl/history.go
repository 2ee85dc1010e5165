package repl

import (
	"bufio"
	"errors"
	"os"
	"slices"
	"strings"
	"sync"
)

const baseHistory = "history.utf8"

// DefaultHistoryLimit is the number of entries a [History] keeps.
const DefaultHistoryLimit = 1000

var modePrefix = map[inputMode]string{modeEval: "E:", modeCtrl: "C:"}

// HistoryEntry is one submitted line and the mode it was entered in.
type HistoryEntry struct {
	Line string
	Mode inputMode
}

func (e HistoryEntry) String() string { return modePrefix[e.Mode] + e.Line }

func parseEntry(line string) HistoryEntry {
	for mode, prefix := range modePrefix {
		if s, ok := strings.CutPrefix(line, prefix); ok {
			return HistoryEntry{Line: s, Mode: mode}
		}
	}

	return HistoryEntry{Line: line, Mode: modeEval}
}

// History is the line history of a REPL, persisted to a file with one
// mode-prefixed entry per line. It is safe for concurrent use.
type History struct {
	path    string
	limit   int
	entries []HistoryEntry
	mu      sync.RWMutex
}

// NewHistory returns a History stored at path keeping at most
// [DefaultHistoryLimit] entries. An empty path keeps history in memory only.
func NewHistory(path string) *History {
	return &History{path: path, limit: DefaultHistoryLimit}
}

// Load replaces the entries with those read from the history file. A missing
// file is not an error.
func (h *History) Load() error {
	if h.path == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	file, err := os.Open(h.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		return err
	}
	defer file.Close()

	h.entries = h.entries[:0]

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			h.entries = append(h.entries, parseEntry(line))
		}
	}

	h.trim()

	return scanner.Err()
}

// WriteWithMode appends entry in mode. An earlier identical entry is moved
// to the end rather than repeated.
func (h *History) WriteWithMode(entry string, mode inputMode) (int, error) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return 0, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	e := HistoryEntry{Line: entry, Mode: mode}

	if n := len(h.entries); n > 0 && h.entries[n-1] == e {
		return len(entry), nil
	}

	before := len(h.entries)
	h.entries = slices.DeleteFunc(h.entries, func(old HistoryEntry) bool { return old == e })
	h.entries = append(h.entries, e)

	if len(h.entries) <= before || h.trim() {
		return h.rewrite()
	}

	return h.append(e)
}

// GetEntry returns the entry at index i, where 0 is the oldest.
func (h *History) GetEntry(i int) (HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if i < 0 || i >= len(h.entries) {
		return HistoryEntry{}, ErrOutOfBounds
	}

	return h.entries[i], nil
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}

// Entries returns a copy of all entries, oldest first.
func (h *History) Entries() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return slices.Clone(h.entries)
}

// trim drops the oldest entries beyond the limit and reports whether any were
// dropped. h.mu must be held.
func (h *History) trim() bool {
	if h.limit <= 0 || len(h.entries) <= h.limit {
		return false
	}

	h.entries = slices.Delete(h.entries, 0, len(h.entries)-h.limit)

	return true
}

func (h *History) append(e HistoryEntry) (int, error) {
	if h.path == "" {
		return len(e.Line), nil
	}

	file, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	return file.WriteString(e.String() + "\n")
}

// rewrite replaces the history file with the current entries. h.mu must be
// held.
func (h *History) rewrite() (int, error) {
	if h.path == "" {
		return 0, nil
	}

	var sb strings.Builder
	for _, e := range h.entries {
		sb.WriteString(e.String() + "\n")
	}

	return sb.Len(), os.WriteFile(h.path, []byte(sb.String()), 0o600)
}

// lastEval returns the newest eval-mode line, or "".
func (h *History) lastEval() string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, e := range slices.Backward(h.entries) {
		if e.Mode == modeEval {
			return e.Line
		}
	}

	return ""
}
