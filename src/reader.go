package skim

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	pdebug "github.com/lestrrat-go/pdebug"
	"github.com/pkg/errors"

	"github.com/skim-go/skim/src/util"
)

// defaultCommand feeds the finder when stdin is a terminal and no command
// was given
const defaultCommand = `find . -path '*/\.*' -prune -o -type f -print -o -type l -print 2> /dev/null`

// Reader streams lines from a child process or a pipe into the item pool.
// A producer goroutine reads raw lines into a bounded channel; an ingest
// goroutine builds items, batches them and appends to the pool.
type Reader struct {
	itemBuilder  ItemBuilder
	pool         *ItemPool
	eventBox     *util.EventBox
	delimiter    byte
	showCmdError bool

	itemIndex int32
}

// NewReader returns a new Reader. The delimiter is '\n' normally and '\0'
// under --read0.
func NewReader(itemBuilder ItemBuilder, pool *ItemPool, eventBox *util.EventBox, delimiter byte, showCmdError bool) *Reader {
	return &Reader{
		itemBuilder:  itemBuilder,
		pool:         pool,
		eventBox:     eventBox,
		delimiter:    delimiter,
		showCmdError: showCmdError,
	}
}

// ResetIndex rewinds item numbering; called together with pool.Clear
func (r *Reader) ResetIndex() {
	atomic.StoreInt32(&r.itemIndex, 0)
}

func (r *Reader) nextIndex() int32 {
	return atomic.AddInt32(&r.itemIndex, 1) - 1
}

// ReaderControl is the kill token and join handle of one reader run.
// State machine: Idle -> Running -> (Cancelling -> Done) | Done.
type ReaderControl struct {
	killed *util.AtomicBool
	done   *util.AtomicBool
	kill   func()
}

// Kill force-stops the reader: the child process is killed and reaped, the
// line channel is drained and closed
func (rc *ReaderControl) Kill() {
	rc.killed.Set(true)
	if rc.kill != nil {
		rc.kill()
	}
}

// Stopped reports whether the run has fully finished
func (rc *ReaderControl) Stopped() bool {
	return rc.done.Get()
}

// ReadStdin wraps the standard input stream
func (r *Reader) ReadStdin() *ReaderControl {
	control := &ReaderControl{
		killed: util.NewAtomicBool(false),
		done:   util.NewAtomicBool(false),
	}
	lines := make(chan []byte, readerChannelSize)
	go r.produce(os.Stdin, lines, control)
	go r.ingest(lines, control, nil)
	return control
}

// ReadItems feeds a fixed set of raw lines; used by library callers and
// tests
func (r *Reader) ReadItems(rawLines [][]byte) *ReaderControl {
	control := &ReaderControl{
		killed: util.NewAtomicBool(false),
		done:   util.NewAtomicBool(false),
	}
	lines := make(chan []byte, util.Max(1, len(rawLines)))
	for _, line := range rawLines {
		lines <- line
	}
	close(lines)
	go r.ingest(lines, control, nil)
	return control
}

// ReadCommand spawns `sh -c command` and streams its stdout. A spawn
// failure is surfaced as an error event, not a panic.
func (r *Reader) ReadCommand(command string) *ReaderControl {
	control := &ReaderControl{
		killed: util.NewAtomicBool(false),
		done:   util.NewAtomicBool(false),
	}

	cmd := util.ExecCommand(command)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	// A grandchild of the shell may keep stderr open after the shell is
	// gone; Wait gives up on it a second after the shell exits
	cmd.WaitDelay = time.Second
	out, err := cmd.StdoutPipe()
	if err == nil {
		err = cmd.Start()
	}
	if err != nil {
		control.done.Set(true)
		r.eventBox.Set(EvtReadError, errors.Wrap(err, "failed to start command"))
		r.eventBox.Set(EvtReadFin, nil)
		return control
	}

	control.kill = func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
		// Closing the pipe ends a pending read even when a grandchild of
		// the shell still holds the write end
		out.Close()
	}

	finish := func(produced int) {
		// The child is always reaped, kill or EOF alike
		err := cmd.Wait()
		if err != nil && r.showCmdError && produced == 0 && !control.killed.Get() {
			r.appendStderrItems(stderr.String())
		}
	}

	lines := make(chan []byte, readerChannelSize)
	go r.produce(out, lines, control)
	go r.ingest(lines, control, finish)
	return control
}

// produce reads raw lines and forwards them; it stops on EOF or when the
// kill token fires (the killed child turns subsequent reads into errors)
func (r *Reader) produce(src io.Reader, lines chan<- []byte, control *ReaderControl) {
	if pdebug.Enabled {
		g := pdebug.Marker("Reader.produce")
		defer g.End()
	}
	defer close(lines)

	reader := bufio.NewReaderSize(src, 64*1024)
	for !control.killed.Get() {
		line, err := reader.ReadBytes(r.delimiter)
		line = trimTerminator(line, r.delimiter)
		if len(line) > 0 || err == nil {
			lines <- line
		}
		if err != nil {
			// Read errors lose the failing line only; EOF ends the stream
			if err == io.EOF || control.killed.Get() {
				break
			}
			if _, isPath := err.(*os.PathError); isPath {
				break
			}
		}
	}
}

func trimTerminator(line []byte, delimiter byte) []byte {
	if len(line) > 0 && line[len(line)-1] == delimiter {
		line = line[:len(line)-1]
		if delimiter == '\n' && len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
	}
	return line
}

// ingest builds items and appends them in batches: a batch goes out when it
// reaches readerBatchSize or when readerFlushInterval has passed since the
// last send
func (r *Reader) ingest(lines <-chan []byte, control *ReaderControl, finish func(produced int)) {
	batch := make([]*Item, 0, readerBatchSize)
	produced := 0

	flush := func() {
		if len(batch) == 0 {
			return
		}
		r.pool.Append(batch)
		produced += len(batch)
		batch = make([]*Item, 0, readerBatchSize)
		r.eventBox.Set(EvtReadNew, nil)
	}

	timer := time.NewTimer(readerFlushInterval)
	defer timer.Stop()

loop:
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			batch = append(batch, r.itemBuilder(line, r.nextIndex()))
			if len(batch) >= readerBatchSize {
				flush()
			}
		case <-timer.C:
			flush()
			timer.Reset(readerFlushInterval)
		}
	}
	flush()

	if finish != nil {
		finish(produced)
	}

	control.done.Set(true)
	r.eventBox.Set(EvtReadFin, nil)
}

// appendStderrItems surfaces the failed command's stderr as synthetic items
func (r *Reader) appendStderrItems(stderr string) {
	stderr = strings.TrimRight(stderr, "\n")
	if len(stderr) == 0 {
		return
	}
	batch := []*Item{}
	for _, line := range strings.Split(stderr, "\n") {
		batch = append(batch, r.itemBuilder([]byte(line), r.nextIndex()))
	}
	r.pool.Append(batch)
	r.eventBox.Set(EvtReadNew, nil)
}
