package skim

import (
	"strings"
	"unicode/utf8"

	"github.com/skim-go/skim/src/util"
)

// Item represents one input line after preprocessing. It is immutable once
// built; pool, matcher results and selection share it by pointer.
type Item struct {
	// text is the display text: ANSI-stripped, null-stripped, valid UTF-8.
	// Matching and rendering both operate on it.
	text  string
	chars util.Chars

	// origText is the line as received, kept whenever it differs from the
	// display text (ANSI escapes, null bytes, field transforms). It is what
	// gets written on accept.
	origText *string

	// index is the insertion order, the last-resort tiebreak
	index int32

	// colors are the styled spans of the original line, in character
	// coordinates over the display text
	colors []ansiOffset

	// matchingRanges are the byte ranges of the display text that --nth
	// restricts matching to; nil means the whole line
	matchingRanges [][2]int
}

// Index returns the insertion order of the Item
func (item *Item) Index() int32 {
	return item.index
}

// Text returns the display text
func (item *Item) Text() string {
	return item.text
}

// Chars returns the display text in scorer representation
func (item *Item) Chars() *util.Chars {
	return &item.chars
}

// Output returns the bytes to emit when the item is accepted
func (item *Item) Output() string {
	if item.origText != nil {
		return *item.origText
	}
	return item.text
}

// AsString returns the original string, optionally with ANSI escapes removed
func (item *Item) AsString(stripAnsi bool) string {
	if item.origText != nil {
		if stripAnsi {
			trimmed, _, _ := extractColor(*item.origText, nil)
			return trimmed
		}
		return *item.origText
	}
	return item.text
}

// Colors returns the styled spans of the display text
func (item *Item) Colors() []ansiOffset {
	return item.colors
}

// MatchingRanges returns the byte ranges matching is restricted to, or nil
func (item *Item) MatchingRanges() [][2]int {
	return item.matchingRanges
}

// TrimLength returns the display length without surrounding whitespace
func (item *Item) TrimLength() uint16 {
	return item.chars.TrimLength()
}

// itemOpts carries the line-to-item policies fixed at startup
type itemOpts struct {
	ansi      bool
	delimiter Delimiter
	withNth   []Range
	nth       []Range
}

// ItemBuilder builds an Item from a raw line and its insertion index
type ItemBuilder func(data []byte, index int32) *Item

func newItemBuilder(opts *itemOpts) ItemBuilder {
	return func(data []byte, index int32) *Item {
		return buildItem(data, index, opts)
	}
}

// buildItem parses a raw line into an Item. It never fails: invalid UTF-8 is
// replaced, never rejected.
func buildItem(data []byte, index int32, o *itemOpts) *Item {
	raw := string(data)
	display := raw
	var colors []ansiOffset

	if len(o.withNth) > 0 {
		src := display
		if !o.ansi {
			src = stripEscapes(src)
		}
		display = Transform(Tokenize(src, o.delimiter), o.withNth)
	}

	if o.ansi {
		display, colors, _ = extractColor(display, nil)
	} else {
		display = stripEscapes(display)
	}

	// Null bytes render as zero-width; they survive only in the output text
	if strings.ContainsRune(display, 0) {
		display = strings.ReplaceAll(display, "\x00", "")
	}
	if !utf8.ValidString(display) {
		display = strings.ToValidUTF8(display, string(utf8.RuneError))
	}

	var ranges [][2]int
	if len(o.nth) > 0 {
		ranges = matchingRanges(Tokenize(display, o.delimiter), o.nth)
	}

	item := &Item{
		text:           display,
		chars:          util.ToChars([]byte(display)),
		index:          index,
		colors:         colors,
		matchingRanges: ranges,
	}
	if display != raw {
		item.origText = &raw
	}
	return item
}
