package skim

import (
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/skim-go/skim/src/util"
)

// Previewer runs the preview command for the focused item and captures its
// output. Rapid focus changes coalesce: a newer request kills the running
// child, and stale results are dropped by version.
type Previewer struct {
	requests chan previewRequest
	onReady  func(version int64, lines []string)

	version int64

	mutex   sync.Mutex
	current *exec.Cmd
	stopped bool
}

type previewRequest struct {
	command string
	version int64
}

// NewPreviewer returns a running Previewer; onReady fires on the worker
// goroutine with the captured output split into lines
func NewPreviewer(onReady func(version int64, lines []string)) *Previewer {
	p := &Previewer{
		requests: make(chan previewRequest, 16),
		onReady:  onReady,
	}
	go p.loop()
	return p
}

// Request schedules the expanded preview command, superseding any run in
// flight
func (p *Previewer) Request(command string) {
	version := atomic.AddInt64(&p.version, 1)

	p.mutex.Lock()
	if p.current != nil && p.current.Process != nil {
		p.current.Process.Kill()
	}
	p.mutex.Unlock()

	// Drop a queued request that nobody started yet
	select {
	case <-p.requests:
	default:
	}
	p.requests <- previewRequest{command: command, version: version}
}

// Stop terminates the worker and any running child
func (p *Previewer) Stop() {
	p.mutex.Lock()
	p.stopped = true
	if p.current != nil && p.current.Process != nil {
		p.current.Process.Kill()
	}
	p.mutex.Unlock()
	close(p.requests)
}

func (p *Previewer) loop() {
	for req := range p.requests {
		// Coalesce to the newest pending request
		for {
			select {
			case next, ok := <-p.requests:
				if !ok {
					return
				}
				req = next
				continue
			default:
			}
			break
		}

		cmd := util.ExecCommand(req.command)

		p.mutex.Lock()
		if p.stopped {
			p.mutex.Unlock()
			return
		}
		p.current = cmd
		p.mutex.Unlock()

		out, err := cmd.CombinedOutput()

		p.mutex.Lock()
		p.current = nil
		p.mutex.Unlock()

		if atomic.LoadInt64(&p.version) != req.version {
			// A newer focus change already superseded this output
			continue
		}

		text := string(out)
		if err != nil && len(text) == 0 {
			text = err.Error()
		}
		p.onReady(req.version, strings.Split(strings.TrimRight(text, "\n"), "\n"))
	}
}
