package skim

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// History holds one history file: plain lines, newest last. Navigation
// keeps per-position edits in memory; only accepted queries are persisted.
type History struct {
	path     string
	lines    []string
	modified map[int]string
	maxSize  int
	cursor   int
}

// NewHistory loads the history file, creating it when absent
func NewHistory(path string, maxSize int) (*History, error) {
	wrap := func(e error) error {
		if os.IsPermission(e) {
			return errors.Wrap(e, "permission denied")
		}
		return errors.Wrap(e, "invalid history file")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, wrap(err)
		}
		data = []byte{}
		if err := os.WriteFile(path, data, 0600); err != nil {
			return nil, wrap(err)
		}
	}

	lines := strings.Split(strings.Trim(string(data), "\n"), "\n")
	if len(lines[len(lines)-1]) > 0 {
		lines = append(lines, "")
	}
	return &History{
		path:     path,
		maxSize:  maxSize,
		lines:    lines,
		modified: make(map[int]string),
		cursor:   len(lines) - 1,
	}, nil
}

// append records the accepted line and rewrites the file atomically:
// write-to-temp then rename, so a crash never truncates the history
func (h *History) append(line string) error {
	if len(line) == 0 {
		return nil
	}

	lines := append(h.lines[:len(h.lines)-1], line)
	if len(lines) > h.maxSize {
		lines = lines[len(lines)-h.maxSize:]
	}
	h.lines = append(lines, "")

	dir := filepath.Dir(h.path)
	tmp, err := os.CreateTemp(dir, ".sk-history-*")
	if err != nil {
		return errors.Wrap(err, "history write failed")
	}
	name := tmp.Name()
	_, werr := tmp.WriteString(strings.Join(h.lines, "\n"))
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(name)
		return errors.New("history write failed")
	}
	if err := os.Chmod(name, 0600); err != nil {
		os.Remove(name)
		return errors.Wrap(err, "history write failed")
	}
	if err := os.Rename(name, h.path); err != nil {
		os.Remove(name)
		return errors.Wrap(err, "history write failed")
	}
	return nil
}

// override updates the line under the cursor without persisting it
func (h *History) override(str string) {
	if h.cursor == len(h.lines)-1 {
		h.lines[h.cursor] = str
	} else if h.cursor < len(h.lines)-1 {
		h.modified[h.cursor] = str
	}
}

func (h *History) current() string {
	if str, prs := h.modified[h.cursor]; prs {
		return str
	}
	return h.lines[h.cursor]
}

func (h *History) previous() string {
	if h.cursor > 0 {
		h.cursor--
	}
	return h.current()
}

func (h *History) next() string {
	if h.cursor < len(h.lines)-1 {
		h.cursor++
	}
	return h.current()
}
