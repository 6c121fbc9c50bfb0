package skim

import (
	"math"
	"os"
	"regexp"
	"strings"

	"github.com/google/btree"
	"github.com/pkg/errors"

	"github.com/skim-go/skim/src/util"
)

// selEntry keeps the insertion sequence so that accepted selections are
// emitted in the order they were chosen
type selEntry struct {
	seq  int64
	item *MatchedItem
}

func selLess(a, b selEntry) bool {
	return a.seq < b.seq
}

// Selection owns the visible match list, the multi-select set, the cursor
// and the manual horizontal pan. It is only ever touched by the terminal
// loop.
type Selection struct {
	items []*MatchedItem

	selected *btree.BTreeG[selEntry]
	byIndex  map[int32]selEntry
	nextSeq  int64

	cursor int
	offset int

	multi bool
	cycle bool

	preSelector    *preSelector
	preSelected    int
	preSeen        map[int32]bool
	manualHScroll  int
}

// NewSelection returns a new Selection
func NewSelection(multi bool, cycle bool, preSel *preSelector) *Selection {
	return &Selection{
		selected:     btree.NewG(32, selLess),
		byIndex:      make(map[int32]selEntry),
		multi:        multi,
		cycle:        cycle,
		preSelector:  preSel,
		preSeen:      make(map[int32]bool),
	}
}

// Len returns the number of visible matches
func (s *Selection) Len() int {
	return len(s.items)
}

// Items returns the visible matches
func (s *Selection) Items() []*MatchedItem {
	return s.items
}

// Cursor returns the focused position
func (s *Selection) Cursor() int {
	return s.cursor
}

// Current returns the focused match, or nil when the list is empty
func (s *Selection) Current() *MatchedItem {
	if s.cursor < 0 || s.cursor >= len(s.items) {
		return nil
	}
	return s.items[s.cursor]
}

// ReplaceItems publishes a new match list. The selection set survives, the
// cursor is reclamped, and pre-selection is applied to items not seen
// before.
func (s *Selection) ReplaceItems(items []*MatchedItem) {
	s.items = items
	s.cursor = util.Constrain(s.cursor, 0, util.Max(0, len(items)-1))
	s.applyPreSelection(items)
}

// AppendItems extends the list in place (incremental matcher results and
// the append-and-select action)
func (s *Selection) AppendItems(items []*MatchedItem) {
	s.items = append(s.items, items...)
	s.applyPreSelection(items)
}

// applyPreSelection runs the pre-selection predicate over newly arrived
// items until the target count is reached. Items are considered exactly
// once; later arrivals keep filling the quota.
func (s *Selection) applyPreSelection(items []*MatchedItem) {
	if s.preSelector == nil || !s.multi {
		return
	}
	target := s.preSelector.target()
	for _, mi := range items {
		if s.preSelected >= target {
			return
		}
		if s.preSeen[mi.item.index] {
			continue
		}
		s.preSeen[mi.item.index] = true
		if s.preSelector.matches(mi.item) {
			s.add(mi)
			s.preSelected++
		}
	}
}

func (s *Selection) add(mi *MatchedItem) {
	if _, found := s.byIndex[mi.item.index]; found {
		return
	}
	entry := selEntry{seq: s.nextSeq, item: mi}
	s.nextSeq++
	s.selected.ReplaceOrInsert(entry)
	s.byIndex[mi.item.index] = entry
}

func (s *Selection) remove(index int32) {
	if entry, found := s.byIndex[index]; found {
		s.selected.Delete(entry)
		delete(s.byIndex, index)
	}
}

// IsSelected reports whether the item with the given index is selected
func (s *Selection) IsSelected(index int32) bool {
	_, found := s.byIndex[index]
	return found
}

// NumSelected returns the size of the multi-select set
func (s *Selection) NumSelected() int {
	return s.selected.Len()
}

// Toggle flips the selection state of the focused item; requires
// multi-select mode
func (s *Selection) Toggle() {
	if !s.multi {
		return
	}
	mi := s.Current()
	if mi == nil {
		return
	}
	if s.IsSelected(mi.item.index) {
		s.remove(mi.item.index)
	} else {
		s.add(mi)
	}
}

// ToggleAll flips every visible item
func (s *Selection) ToggleAll() {
	if !s.multi {
		return
	}
	for _, mi := range s.items {
		if s.IsSelected(mi.item.index) {
			s.remove(mi.item.index)
		} else {
			s.add(mi)
		}
	}
}

// SelectAll adds every visible item
func (s *Selection) SelectAll() {
	if !s.multi {
		return
	}
	for _, mi := range s.items {
		s.add(mi)
	}
}

// Select adds the focused item
func (s *Selection) Select() {
	if !s.multi {
		return
	}
	if mi := s.Current(); mi != nil {
		s.add(mi)
	}
}

// DeselectAll clears the multi-select set
func (s *Selection) DeselectAll() {
	s.selected.Clear(false)
	s.byIndex = make(map[int32]selEntry)
}

// Selected returns the selected matches in the order they were chosen
func (s *Selection) Selected() []*MatchedItem {
	out := make([]*MatchedItem, 0, s.selected.Len())
	s.selected.Ascend(func(entry selEntry) bool {
		out = append(out, entry.item)
		return true
	})
	return out
}

// MoveBy moves the cursor by n list positions, wrapping when cycle is on
// and clamping otherwise
func (s *Selection) MoveBy(n int) {
	if len(s.items) == 0 {
		s.cursor = 0
		return
	}
	next := s.cursor + n
	if s.cycle {
		next %= len(s.items)
		if next < 0 {
			next += len(s.items)
		}
	} else {
		next = util.Constrain(next, 0, len(s.items)-1)
	}
	s.cursor = next
	s.manualHScroll = 0
}

// JumpToFirst focuses the best match
func (s *Selection) JumpToFirst() {
	s.cursor = 0
	s.manualHScroll = 0
}

// JumpToLast focuses the worst match
func (s *Selection) JumpToLast() {
	s.cursor = util.Max(0, len(s.items)-1)
	s.manualHScroll = 0
}

// ScrollHorizontally adjusts the manual pan applied on top of
// auto-centering
func (s *Selection) ScrollHorizontally(n int) {
	s.manualHScroll += n
}

// ManualHScroll returns the manual pan
func (s *Selection) ManualHScroll() int {
	return s.manualHScroll
}

// updateOffset derives the first visible row from the cursor and the
// viewport height
func (s *Selection) updateOffset(height int) int {
	if height <= 0 {
		s.offset = 0
		return 0
	}
	if s.cursor < s.offset {
		s.offset = s.cursor
	} else if s.cursor >= s.offset+height {
		s.offset = s.cursor - height + 1
	}
	s.offset = util.Constrain(s.offset, 0, util.Max(0, len(s.items)-1))
	return s.offset
}

//------------------------------------------------------------------------------
// Pre-selection

// preSelector is the predicate built from the --pre-select-* options
type preSelector struct {
	n     int
	pat   *regexp.Regexp
	items map[string]bool
}

// newPreSelector builds a preSelector; nil is returned when no pre-select
// option is in effect
func newPreSelector(n int, pat string, items []string, file string) (*preSelector, error) {
	p := &preSelector{n: n}
	hasPredicate := false

	if len(pat) > 0 {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, errors.Wrap(err, "invalid --pre-select-pat")
		}
		p.pat = re
		hasPredicate = true
	}

	lines := append([]string(nil), items...)
	if len(file) > 0 {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.Wrap(err, "invalid --pre-select-file")
		}
		lines = append(lines, strings.Split(strings.Trim(string(data), "\n"), "\n")...)
	}
	if len(lines) > 0 {
		p.items = make(map[string]bool, len(lines))
		for _, line := range lines {
			if len(line) > 0 {
				p.items[line] = true
			}
		}
		hasPredicate = true
	}

	if n <= 0 && !hasPredicate {
		return nil, nil
	}
	return p, nil
}

// target is the number of items pre-selection keeps filling up to
func (p *preSelector) target() int {
	if p.n > 0 {
		return p.n
	}
	return math.MaxInt
}

// matches applies the predicate; with only a count configured every item
// qualifies
func (p *preSelector) matches(item *Item) bool {
	if p.pat == nil && p.items == nil {
		return true
	}
	if p.pat != nil && p.pat.MatchString(item.text) {
		return true
	}
	return p.items != nil && p.items[item.text]
}
