package skim

import (
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	pdebug "github.com/lestrrat-go/pdebug"

	"github.com/skim-go/skim/src/util"
)

// MatcherControl is the handle returned to the scheduler for one matcher
// run. The run is cancelled cooperatively: workers poll the kill flag
// between chunks.
type MatcherControl struct {
	killed     *util.AtomicBool
	stoppedVal *util.AtomicBool
	processed  int64
	matched    int64

	mutex sync.Mutex
	items []*MatchedItem
}

func newMatcherControl() *MatcherControl {
	return &MatcherControl{
		killed:     util.NewAtomicBool(false),
		stoppedVal: util.NewAtomicBool(false),
	}
}

// Stopped reports whether the run has finished or been cancelled
func (mc *MatcherControl) Stopped() bool {
	return mc.stoppedVal.Get()
}

// Killed reports whether the run was cancelled
func (mc *MatcherControl) Killed() bool {
	return mc.killed.Get()
}

// Kill requests cooperative cancellation
func (mc *MatcherControl) Kill() {
	mc.killed.Set(true)
}

// NumProcessed returns the number of items scored so far
func (mc *MatcherControl) NumProcessed() int {
	return int(atomic.LoadInt64(&mc.processed))
}

// NumMatched returns the number of matches found so far
func (mc *MatcherControl) NumMatched() int {
	return int(atomic.LoadInt64(&mc.matched))
}

// TakeItems moves the published result vector out of the control
func (mc *MatcherControl) TakeItems() []*MatchedItem {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	items := mc.items
	mc.items = nil
	return items
}

func (mc *MatcherControl) publish(items []*MatchedItem) {
	mc.mutex.Lock()
	mc.items = items
	mc.mutex.Unlock()
}

// Matcher runs the engine tree over pool snapshots in a bounded worker
// pool. Sort order is read through the options so that toggle-sort takes
// effect on the next run.
type Matcher struct {
	factory    *EngineFactory
	opts       *Options
	partitions int
	eventBox   *util.EventBox
}

// NewMatcher returns a new Matcher
func NewMatcher(factory *EngineFactory, opts *Options, eventBox *util.EventBox) *Matcher {
	return &Matcher{
		factory:    factory,
		opts:       opts,
		partitions: util.Max(1, runtime.NumCPU()),
		eventBox:   eventBox,
	}
}

// workerSegment keeps the chunk origin so that the merged result is
// deterministic regardless of worker completion order
type workerSegment struct {
	start   int
	matched []*MatchedItem
}

// Scan starts an asynchronous run over the snapshot and returns its control
// handle. EvtSearchFin fires with the control once the run completes without
// cancellation.
func (m *Matcher) Scan(query string, items []*Item) *MatcherControl {
	control := newMatcherControl()
	engine := m.factory.Build(query)
	go m.scan(engine, items, control)
	return control
}

func (m *Matcher) scan(engine MatchEngine, items []*Item, control *MatcherControl) {
	if pdebug.Enabled {
		g := pdebug.Marker("Matcher.scan %s over %d items", engine.String(), len(items))
		defer g.End()
	}

	startedAt := time.Now()
	numWorkers := m.partitions
	if len(items) < matcherChunkSize {
		numWorkers = 1
	}

	var cursor int64
	var lastProgress int64
	segments := make([][]workerSegment, numWorkers)
	waitGroup := sync.WaitGroup{}

	for w := 0; w < numWorkers; w++ {
		waitGroup.Add(1)
		go func(w int) {
			defer waitGroup.Done()
			slab := util.MakeSlab(100*1024, 2048*100)
			for !control.killed.Get() {
				start := int(atomic.AddInt64(&cursor, matcherChunkSize)) - matcherChunkSize
				if start >= len(items) {
					break
				}
				end := util.Min(start+matcherChunkSize, len(items))
				chunk := items[start:end]

				results := engine.MatchBatch(chunk, slab)
				matched := make([]*MatchedItem, 0, len(chunk)/2)
				for idx, result := range results {
					if result == nil {
						continue
					}
					matched = append(matched, &MatchedItem{
						item:      chunk[idx],
						rank:      result.rank,
						positions: result.positions,
						begin:     result.begin,
						end:       result.end,
					})
				}
				segments[w] = append(segments[w], workerSegment{start, matched})

				atomic.AddInt64(&control.processed, int64(len(chunk)))
				atomic.AddInt64(&control.matched, int64(len(matched)))

				if time.Since(startedAt) > progressMinDuration {
					now := time.Now().UnixNano()
					last := atomic.LoadInt64(&lastProgress)
					if now-last > int64(heartbeatInterval) &&
						atomic.CompareAndSwapInt64(&lastProgress, last, now) {
						m.eventBox.Set(EvtSearchProgress, control)
					}
				}
			}
		}(w)
	}
	waitGroup.Wait()

	if control.killed.Get() {
		control.stoppedVal.Set(true)
		return
	}

	// Deterministic merge: chunk origin order first, then the rank sort
	all := []workerSegment{}
	total := 0
	for _, segs := range segments {
		all = append(all, segs...)
		for _, seg := range segs {
			total += len(seg.matched)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].start < all[j].start })

	merged := make([]*MatchedItem, 0, total)
	for _, seg := range all {
		merged = append(merged, seg.matched...)
	}
	if m.opts.Sort {
		sortMatchedItems(merged, m.opts.Tac)
	} else if m.opts.Tac {
		reverseMatchedItems(merged)
	}

	control.publish(merged)
	control.stoppedVal.Set(true)
	m.eventBox.Set(EvtSearchFin, control)
}
