package skim

import (
	"os"
	"path/filepath"
	"testing"
)

func tempHistory(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHistoryNavigation(t *testing.T) {
	h, err := NewHistory(tempHistory(t, "one\ntwo\nthree\n"), 100)
	if err != nil {
		t.Fatal(err)
	}
	if h.current() != "" {
		t.Errorf("%q", h.current())
	}
	if h.previous() != "three" || h.previous() != "two" || h.previous() != "one" {
		t.Error("walk backwards")
	}
	if h.previous() != "one" {
		t.Error("clamped at the oldest entry")
	}
	if h.next() != "two" || h.next() != "three" || h.next() != "" {
		t.Error("walk forwards")
	}
	if h.next() != "" {
		t.Error("clamped at the newest entry")
	}
}

func TestHistoryOverride(t *testing.T) {
	h, err := NewHistory(tempHistory(t, "one\n"), 100)
	if err != nil {
		t.Fatal(err)
	}
	h.previous()
	h.override("edited")
	if h.current() != "edited" {
		t.Errorf("%q", h.current())
	}
	// Edits are in-memory only
	data, _ := os.ReadFile(h.path)
	if string(data) != "one\n" {
		t.Errorf("%q", data)
	}
}

func TestHistoryAppend(t *testing.T) {
	path := tempHistory(t, "old\n")
	h, err := NewHistory(path, 100)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.append("new entry"); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "old\nnew entry\n" {
		t.Errorf("%q", data)
	}
}

func TestHistoryAppendEmptyIgnored(t *testing.T) {
	path := tempHistory(t, "old\n")
	h, _ := NewHistory(path, 100)
	h.append("")
	data, _ := os.ReadFile(path)
	if string(data) != "old\n" {
		t.Errorf("%q", data)
	}
}

func TestHistorySizeCap(t *testing.T) {
	path := tempHistory(t, "a\nb\nc\n")
	h, _ := NewHistory(path, 3)
	if err := h.append("d"); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "b\nc\nd\n" {
		t.Errorf("%q", data)
	}
}

func TestHistoryCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh")
	if _, err := NewHistory(path, 10); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("file should have been created")
	}
}
