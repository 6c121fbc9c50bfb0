/*
Package skim implements sk, an interactive fuzzy finder: it ingests a
stream of candidate lines from a pipe or a spawned command, keeps a live
filtered view against the typed query, and emits the selection on accept.
*/
package skim

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	pdebug "github.com/lestrrat-go/pdebug"
	"github.com/mattn/go-isatty"

	"github.com/skim-go/skim/src/util"
)

func initProcs() {
	runtime.GOMAXPROCS(runtime.NumCPU())
}

// Run wires the reader, the matcher and the terminal together and drives
// the match loop until the user accepts or aborts. The return value is the
// process exit code.
func Run(opts *Options) int {
	initProcs()

	// A closed downstream pipe must not kill the process; the write error
	// is handled and the run exits 0
	sigpipe := make(chan os.Signal, 1)
	signal.Notify(sigpipe, syscall.SIGPIPE)

	eventBox := util.NewEventBox()

	lineDelim := byte('\n')
	if opts.Read0 {
		lineDelim = 0
	}
	printSep := "\n"
	if opts.Print0 {
		printSep = "\x00"
	}

	itemOpts := &itemOpts{
		ansi:      opts.Ansi,
		delimiter: opts.Delimiter,
		withNth:   opts.WithNth,
		nth:       opts.Nth,
	}
	builder := newItemBuilder(itemOpts)
	pool := NewItemPool(opts.HeaderLines)
	reader := NewReader(builder, pool, eventBox, lineDelim, opts.ShowCmdError)

	rankBuilder := NewRankBuilder(opts.Criteria)
	factory := NewEngineFactory(opts.Case, opts.FuzzyAlgo, rankBuilder,
		opts.Regex, opts.Exact, opts.Normalize, true)
	matcher := NewMatcher(factory, opts, eventBox)

	if opts.Filter != nil {
		return runFilter(opts, reader, pool, factory, eventBox, printSep)
	}

	startReader := func() *ReaderControl {
		if opts.Interactive {
			cmd := expandCommand(opts.Cmd, &expandContext{
				query:     opts.Query,
				cmdQuery:  opts.CmdQuery,
				delimiter: opts.Delimiter,
				stripAnsi: opts.Ansi,
			})
			return reader.ReadCommand(cmd)
		}
		if len(opts.Cmd) > 0 {
			return reader.ReadCommand(opts.Cmd)
		}
		if !isatty.IsTerminal(os.Stdin.Fd()) {
			return reader.ReadStdin()
		}
		cmd := os.Getenv("SKIM_DEFAULT_COMMAND")
		if len(cmd) == 0 {
			cmd = defaultCommand
		}
		return reader.ReadCommand(cmd)
	}
	readerCtl := startReader()

	reading := true
	if opts.Sync {
		eventBox.Unwatch(EvtReadNew)
		eventBox.WaitFor(EvtReadFin)
		eventBox.Watch(EvtReadNew)
		reading = false
	}

	terminal := NewTerminal(opts, eventBox, pool)
	go terminal.Loop()
	deferred := opts.Select1 || opts.Exit0
	if !deferred {
		terminal.Start()
	}

	query := opts.Query
	var matcherCtl *MatcherControl
	replaceNext := true
	var searchTimer *time.Timer

	restartMatcher := func(newQuery string) {
		if matcherCtl != nil {
			matcherCtl.Kill()
		}
		query = newQuery
		pool.Reset()
		matcherCtl = matcher.Scan(query, pool.Take())
		replaceNext = true
	}
	restartMatcher(query)

	finalize := func(q quitRequest) int {
		if searchTimer != nil {
			searchTimer.Stop()
		}
		if matcherCtl != nil {
			matcherCtl.Kill()
		}
		readerCtl.Kill()

		if q.err != nil {
			fmt.Fprintln(os.Stderr, q.err)
			return ExitError
		}
		if opts.History != nil {
			opts.History.append(q.query)
		}
		if opts.CmdHistory != nil {
			opts.CmdHistory.append(q.cmdQuery)
		}
		if len(q.output) > 0 {
			var out strings.Builder
			for _, line := range q.output {
				out.WriteString(line)
				out.WriteString(printSep)
			}
			if _, err := os.Stdout.WriteString(out.String()); err != nil {
				// Downstream pipe closed
				return ExitOk
			}
		}
		return q.code
	}

	const (
		earlyNone = iota
		earlySelect1
		earlyExit0
	)

	for {
		var quit *quitRequest
		earlyExit := earlyNone

		// Both the reader and the matcher settling can resolve the deferred
		// --select-1/--exit-0 decision
		checkEarlyExit := func() {
			if !deferred || reading || matcherCtl == nil || !matcherCtl.Stopped() ||
				pool.NumNotTaken() > 0 {
				return
			}
			count := terminal.MatchCount()
			switch {
			case opts.Select1 && count == 1:
				earlyExit = earlySelect1
			case opts.Exit0 && count == 0:
				earlyExit = earlyExit0
			default:
				deferred = false
				terminal.Start()
			}
		}

		eventBox.Wait(func(events *util.Events) {
			defer events.Clear()
			for evt, value := range *events {
				switch evt {

				case EvtReadNew, EvtReadFin:
					// A reload may have replaced the reader within this very
					// batch; only the current reader's EOF ends the reading
					// state
					if evt == EvtReadFin && readerCtl.Stopped() {
						reading = false
					}
					terminal.UpdateCount(!reading)
					if (matcherCtl == nil || matcherCtl.Stopped()) && pool.NumNotTaken() > 0 {
						matcherCtl = matcher.Scan(query, pool.Take())
					}
					checkEarlyExit()

				case EvtReadError:
					if err, ok := value.(error); ok {
						terminal.UpdateError(err)
					}

				case EvtSearchNew:
					req, ok := value.(searchRequest)
					if !ok {
						break
					}
					// Debounce rapid typing before killing the matcher
					if searchTimer != nil {
						searchTimer.Stop()
					}
					searchTimer = time.AfterFunc(queryDebounce, func() {
						eventBox.Set(evtSearchDebounce, req)
					})

				case evtSearchDebounce:
					if req, ok := value.(searchRequest); ok {
						restartMatcher(req.query)
					}

				case EvtSearchProgress:
					if ctl, ok := value.(*MatcherControl); ok && ctl == matcherCtl {
						terminal.UpdateProgress(ctl)
					}

				case EvtSearchFin:
					ctl, ok := value.(*MatcherControl)
					if !ok || ctl != matcherCtl {
						break
					}
					items := ctl.TakeItems()
					stale := opts.NoClearIfEmpty && replaceNext && len(items) == 0
					if !stale {
						terminal.UpdateList(items, replaceNext)
					}
					replaceNext = false
					terminal.UpdateProgress(ctl)
					checkEarlyExit()

				case EvtReload:
					req, ok := value.(reloadRequest)
					if !ok {
						break
					}
					if pdebug.Enabled {
						pdebug.Printf("reload: %s", req.command)
					}
					if matcherCtl != nil {
						matcherCtl.Kill()
					}
					readerCtl.Kill()
					for !readerCtl.Stopped() {
						time.Sleep(time.Millisecond)
					}
					pool.Clear()
					reader.ResetIndex()
					if opts.NoClearIfEmpty {
						terminal.MarkStale()
					} else {
						terminal.UpdateList(nil, true)
					}
					replaceNext = true
					reading = true
					readerCtl = reader.ReadCommand(req.command)
					terminal.UpdateCount(false)

				case EvtQuit:
					if q, ok := value.(quitRequest); ok {
						quit = &q
					}
				}
			}
		})
		if quit != nil {
			return finalize(*quit)
		}
		// The early-exit paths set EvtQuit, so they must run outside the
		// Wait callback
		switch earlyExit {
		case earlySelect1:
			deferred = false
			terminal.CancelStart()
			terminal.AcceptFirst()
		case earlyExit0:
			deferred = false
			terminal.CancelStart()
			terminal.AbortEmpty()
		}
	}
}

// runFilter is the non-interactive mode: score everything, print matches,
// exit
func runFilter(opts *Options, reader *Reader, pool *ItemPool, factory *EngineFactory,
	eventBox *util.EventBox, printSep string) int {

	eventBox.Unwatch(EvtReadNew)
	switch {
	case len(opts.Cmd) > 0:
		reader.ReadCommand(opts.Cmd)
	case !isatty.IsTerminal(os.Stdin.Fd()):
		reader.ReadStdin()
	default:
		cmd := os.Getenv("SKIM_DEFAULT_COMMAND")
		if len(cmd) == 0 {
			cmd = defaultCommand
		}
		reader.ReadCommand(cmd)
	}
	eventBox.WaitFor(EvtReadFin)

	engine := factory.Build(*opts.Filter)
	slab := util.MakeSlab(100*1024, 2048*100)

	matched := []*MatchedItem{}
	for _, item := range pool.Take() {
		result := engine.MatchItem(item, slab)
		if result == nil {
			continue
		}
		matched = append(matched, &MatchedItem{
			item:      item,
			rank:      result.rank,
			positions: result.positions,
			begin:     result.begin,
			end:       result.end,
		})
	}
	if opts.Sort {
		sortMatchedItems(matched, opts.Tac)
	} else if opts.Tac {
		reverseMatchedItems(matched)
	}

	var out strings.Builder
	if opts.PrintQuery {
		out.WriteString(*opts.Filter)
		out.WriteString(printSep)
	}
	for _, mi := range matched {
		out.WriteString(mi.item.Output())
		out.WriteString(printSep)
	}
	if _, err := os.Stdout.WriteString(out.String()); err != nil {
		return ExitOk
	}
	if len(matched) > 0 {
		return ExitOk
	}
	return ExitNoMatch
}
