package skim

import (
	"time"

	"github.com/skim-go/skim/src/util"
)

const (
	// Reader
	readerBatchSize     = 128
	readerFlushInterval = 100 * time.Millisecond
	readerChannelSize   = 1 << 20 // lines of backlog before back-pressure

	// Matcher
	matcherChunkSize    = 100
	progressMinDuration = 200 * time.Millisecond

	// Scheduler
	queryDebounce     = 50 * time.Millisecond
	previewDebounce   = 50 * time.Millisecond
	heartbeatInterval = 100 * time.Millisecond

	coordinatorDelayMax  = 100 * time.Millisecond
	coordinatorDelayStep = 10 * time.Millisecond

	defaultHistoryMax = 1000
)

// Exit statuses of the process
const (
	ExitOk        = 0
	ExitNoMatch   = 1
	ExitError     = 2
	ExitInterrupt = 130
)

/*
Reader   -> EvtReadNew / EvtReadFin
Terminal -> EvtSearchNew      -> Matcher  (restart)
Terminal -> EvtReload         -> Reader   (restart)
Matcher  -> EvtSearchProgress -> Terminal (update info)
Matcher  -> EvtSearchFin      -> Terminal (update list)
Terminal -> EvtQuit
*/
const (
	EvtReadNew util.EventType = iota
	EvtReadFin
	EvtReadError
	EvtSearchNew
	EvtSearchProgress
	EvtSearchFin
	EvtReload
	EvtQuit

	// internal: debounced query-change timer fired
	evtSearchDebounce
)

// searchRequest is the payload of EvtSearchNew
type searchRequest struct {
	query string
	// rescan forces a full re-match of the pool (query changed); without it
	// only the un-taken tail is matched
	rescan bool
}

// reloadRequest is the payload of EvtReload
type reloadRequest struct {
	command string
}

// quitRequest is the payload of EvtQuit
type quitRequest struct {
	code     int
	output   []string
	query    string
	cmdQuery string
	err      error
}
