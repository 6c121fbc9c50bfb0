package skim

import (
	"sync"
	"testing"
	"time"
)

func TestPreviewerCapturesOutput(t *testing.T) {
	var mu sync.Mutex
	var got []string
	done := make(chan struct{}, 4)

	p := NewPreviewer(func(version int64, lines []string) {
		mu.Lock()
		got = lines
		mu.Unlock()
		done <- struct{}{}
	})
	defer p.Stop()

	p.Request("printf 'line1\\nline2\\n'")
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("preview never completed")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != "line1" || got[1] != "line2" {
		t.Errorf("%v", got)
	}
}

func TestPreviewerCoalescesRequests(t *testing.T) {
	var mu sync.Mutex
	versions := []int64{}
	done := make(chan struct{}, 16)

	p := NewPreviewer(func(version int64, lines []string) {
		mu.Lock()
		versions = append(versions, version)
		mu.Unlock()
		done <- struct{}{}
	})
	defer p.Stop()

	// Rapid focus changes: stale outputs must never surface
	for i := 0; i < 5; i++ {
		p.Request("echo out")
	}
	deadline := time.After(5 * time.Second)
	select {
	case <-done:
	case <-deadline:
		t.Fatal("preview never completed")
	}
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, v := range versions {
		if v != 5 {
			t.Errorf("stale version %d surfaced", v)
		}
	}
}
