package skim

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/skim-go/skim/src/algo"
	"github.com/skim-go/skim/src/util"
)

// CaseMatching is the case-sensitivity policy
type CaseMatching int

const (
	CaseSmart CaseMatching = iota
	CaseIgnore
	CaseRespect
)

func containsUpper(str string) bool {
	for _, r := range str {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func isCaseSensitive(caseMode CaseMatching, pattern string) bool {
	switch caseMode {
	case CaseRespect:
		return true
	case CaseIgnore:
		return false
	}
	return containsUpper(pattern)
}

// MatchResult is what an engine yields for a matching item. Either positions
// (character indices, fuzzy) or the byte range [begin, end) carries the
// matched span.
type MatchResult struct {
	rank      Rank
	positions []int
	begin     int32
	end       int32
}

func (r *MatchResult) charPositions(item *Item) []int {
	if r.positions != nil {
		return r.positions
	}
	if r.begin >= r.end {
		return nil
	}
	text := item.text
	start := utf8.RuneCountInString(text[:r.begin])
	count := utf8.RuneCountInString(text[r.begin:r.end])
	pos := make([]int, count)
	for i := range pos {
		pos[i] = start + i
	}
	return pos
}

// MatchEngine scores one item against one term or a composition of terms.
// Engines return nil for non-matching items and never fail.
type MatchEngine interface {
	MatchItem(item *Item, slab *util.Slab) *MatchResult
	// MatchBatch must produce the same results as calling MatchItem on every
	// element
	MatchBatch(items []*Item, slab *util.Slab) []*MatchResult
	fmt.Stringer
}

func scanBatch(e MatchEngine, items []*Item, slab *util.Slab) []*MatchResult {
	out := make([]*MatchResult, len(items))
	for i, item := range items {
		out[i] = e.MatchItem(item, slab)
	}
	return out
}

// itemRanges returns the item's matching ranges clamped to limit, or the
// whole range [0, limit) when the item has none
func itemRanges(item *Item, limit int) [][2]int {
	ranges := item.MatchingRanges()
	if ranges == nil {
		return [][2]int{{0, limit}}
	}
	clamped := make([][2]int, len(ranges))
	for i, r := range ranges {
		clamped[i] = [2]int{util.Min(r[0], limit), util.Min(r[1], limit)}
	}
	return clamped
}

//------------------------------------------------------------------------------
// Fuzzy engine

type fuzzyEngine struct {
	query         string
	pattern       []rune
	caseSensitive bool
	algorithm     algo.Algo
	rankBuilder   *RankBuilder
	withPos       bool
}

func newFuzzyEngine(query string, caseMode CaseMatching, algorithm algo.Algo, rankBuilder *RankBuilder, withPos bool) *fuzzyEngine {
	caseSensitive := isCaseSensitive(caseMode, query)
	pattern := []rune(query)
	if !caseSensitive {
		for i, r := range pattern {
			pattern[i] = unicode.ToLower(r)
		}
	}
	return &fuzzyEngine{
		query:         query,
		pattern:       pattern,
		caseSensitive: caseSensitive,
		algorithm:     algorithm,
		rankBuilder:   rankBuilder,
		withPos:       withPos,
	}
}

func (e *fuzzyEngine) MatchItem(item *Item, slab *util.Slab) *MatchResult {
	length := int32(item.chars.Length())

	if item.MatchingRanges() == nil {
		result, pos := e.algorithm(e.caseSensitive, item.Chars(), e.pattern, e.withPos, slab)
		if result.Start < 0 {
			return nil
		}
		return e.buildResult(item, result, pos, 0, length)
	}

	text := item.text
	for _, r := range itemRanges(item, len(text)) {
		sub := text[r[0]:r[1]]
		chars := util.ToChars([]byte(sub))
		result, pos := e.algorithm(e.caseSensitive, &chars, e.pattern, e.withPos, slab)
		if result.Start < 0 {
			continue
		}
		charOffset := int32(utf8.RuneCountInString(text[:r[0]]))
		return e.buildResult(item, result, pos, charOffset, length)
	}
	return nil
}

func (e *fuzzyEngine) buildResult(item *Item, result algo.Result, pos *[]int, charOffset int32, length int32) *MatchResult {
	begin := int32(result.Start) + charOffset
	end := int32(result.End) + charOffset
	var positions []int
	if pos != nil {
		positions = *pos
		for i := range positions {
			positions[i] += int(charOffset)
		}
	}
	rank := e.rankBuilder.Build(int32(result.Score), begin, end, length, item.Index())
	if positions == nil {
		// Score-only path: the rank keeps the char span; the result carries
		// it as the byte range of the display text
		byteBegin, byteEnd := len(item.text), len(item.text)
		char := int32(0)
		for idx := range item.text {
			if char == begin {
				byteBegin = idx
			}
			if char == end {
				byteEnd = idx
				break
			}
			char++
		}
		return &MatchResult{rank: rank, begin: int32(byteBegin), end: int32(byteEnd)}
	}
	return &MatchResult{rank: rank, positions: positions}
}

func (e *fuzzyEngine) MatchBatch(items []*Item, slab *util.Slab) []*MatchResult {
	return scanBatch(e, items, slab)
}

func (e *fuzzyEngine) String() string {
	return fmt.Sprintf("(Fuzzy: %s)", e.query)
}

//------------------------------------------------------------------------------
// Exact engine

type exactParam struct {
	prefix    bool
	suffix    bool
	inverse   bool
	normalize bool
}

type exactEngine struct {
	query       string
	re          *regexp.Regexp
	param       exactParam
	rankBuilder *RankBuilder
}

func newExactEngine(query string, param exactParam, caseMode CaseMatching, rankBuilder *RankBuilder) *exactEngine {
	caseSensitive := isCaseSensitive(caseMode, query)

	queryForRegex := query
	if param.normalize {
		queryForRegex, _ = normalizeWithByteMap(query)
	}

	var builder strings.Builder
	if !caseSensitive {
		builder.WriteString("(?i)")
	}
	if param.prefix {
		builder.WriteString("^")
	}
	builder.WriteString(regexp.QuoteMeta(queryForRegex))
	if param.suffix {
		builder.WriteString("$")
	}

	var re *regexp.Regexp
	if len(query) > 0 {
		re = regexp.MustCompile(builder.String())
	}
	return &exactEngine{query: query, re: re, param: param, rankBuilder: rankBuilder}
}

func (e *exactEngine) MatchItem(item *Item, slab *util.Slab) *MatchResult {
	text := item.text
	textForMatch := text
	var byteMap []int
	if e.param.normalize {
		textForMatch, byteMap = normalizeWithByteMap(text)
	}

	var matched *[2]int
	for _, r := range itemRanges(item, len(textForMatch)) {
		if e.re == nil {
			// Empty pattern matches everything at the origin
			matched = &[2]int{0, 0}
			break
		}
		var loc *[2]int
		if found := e.re.FindStringIndex(textForMatch[r[0]:r[1]]); found != nil {
			loc = &[2]int{found[0] + r[0], found[1] + r[0]}
		}
		if e.param.inverse {
			// XOR with the zero match: a hit turns into a miss and a miss
			// into a hit
			if loc == nil {
				loc = &[2]int{0, 0}
			} else {
				loc = nil
			}
		}
		if loc != nil {
			matched = loc
			break
		}
	}
	if matched == nil {
		return nil
	}

	begin, end := matched[0], matched[1]
	if byteMap != nil {
		begin, end = mapBytesToOriginal(begin, end, byteMap, text)
	}
	score := int32(end - begin)
	rank := e.rankBuilder.Build(score, int32(begin), int32(end), int32(len(text)), item.Index())
	return &MatchResult{rank: rank, begin: int32(begin), end: int32(end)}
}

func (e *exactEngine) MatchBatch(items []*Item, slab *util.Slab) []*MatchResult {
	return scanBatch(e, items, slab)
}

func (e *exactEngine) String() string {
	inv := ""
	if e.param.inverse {
		inv = "!"
	}
	pattern := ""
	if e.re != nil {
		pattern = e.re.String()
	}
	return fmt.Sprintf("(Exact|%s%s)", inv, pattern)
}

//------------------------------------------------------------------------------
// Regex engine

type regexEngine struct {
	query       string
	re          *regexp.Regexp
	rankBuilder *RankBuilder
}

func newRegexEngine(query string, caseMode CaseMatching, rankBuilder *RankBuilder) *regexEngine {
	pattern := query
	if !isCaseSensitive(caseMode, query) {
		pattern = "(?i)" + pattern
	}
	// A pattern the user has not finished typing simply matches nothing
	re, err := regexp.Compile(pattern)
	if err != nil {
		re = nil
	}
	if len(query) == 0 {
		re = nil
	}
	return &regexEngine{query: query, re: re, rankBuilder: rankBuilder}
}

func (e *regexEngine) MatchItem(item *Item, slab *util.Slab) *MatchResult {
	text := item.text

	var matched *[2]int
	for _, r := range itemRanges(item, len(text)) {
		if len(e.query) == 0 {
			matched = &[2]int{0, 0}
			break
		}
		if e.re == nil {
			return nil
		}
		if found := e.re.FindStringIndex(text[r[0]:r[1]]); found != nil {
			matched = &[2]int{found[0] + r[0], found[1] + r[0]}
			break
		}
	}
	if matched == nil {
		return nil
	}

	begin, end := matched[0], matched[1]
	score := int32(end - begin)
	rank := e.rankBuilder.Build(score, int32(begin), int32(end), int32(len(text)), item.Index())
	return &MatchResult{rank: rank, begin: int32(begin), end: int32(end)}
}

func (e *regexEngine) MatchBatch(items []*Item, slab *util.Slab) []*MatchResult {
	return scanBatch(e, items, slab)
}

func (e *regexEngine) String() string {
	if e.re == nil {
		return "(Regex: )"
	}
	return fmt.Sprintf("(Regex: %s)", e.re.String())
}

//------------------------------------------------------------------------------
// AND / OR combinators

type andEngine struct {
	engines []MatchEngine
}

func newAndEngine(engines []MatchEngine) *andEngine {
	return &andEngine{engines: engines}
}

func (e *andEngine) MatchItem(item *Item, slab *util.Slab) *MatchResult {
	results := make([]*MatchResult, 0, len(e.engines))
	for _, engine := range e.engines {
		result := engine.MatchItem(item, slab)
		if result == nil {
			return nil
		}
		results = append(results, result)
	}
	if len(results) == 0 {
		return nil
	}
	return mergeMatchResults(results, item)
}

// mergeMatchResults keeps the first engine's rank and merges the matched
// spans into one sorted, deduplicated position list
func mergeMatchResults(results []*MatchResult, item *Item) *MatchResult {
	if len(results) == 1 {
		return results[0]
	}
	merged := []int{}
	for _, result := range results {
		merged = append(merged, result.charPositions(item)...)
	}
	sort.Ints(merged)
	dedup := merged[:0]
	for i, p := range merged {
		if i == 0 || p != merged[i-1] {
			dedup = append(dedup, p)
		}
	}
	return &MatchResult{rank: results[0].rank, positions: dedup}
}

func (e *andEngine) MatchBatch(items []*Item, slab *util.Slab) []*MatchResult {
	if len(e.engines) == 1 {
		return e.engines[0].MatchBatch(items, slab)
	}
	return scanBatch(e, items, slab)
}

func (e *andEngine) String() string {
	return combinatorString("And", e.engines)
}

type orEngine struct {
	engines []MatchEngine
}

func newOrEngine(engines []MatchEngine) *orEngine {
	return &orEngine{engines: engines}
}

func (e *orEngine) MatchItem(item *Item, slab *util.Slab) *MatchResult {
	for _, engine := range e.engines {
		if result := engine.MatchItem(item, slab); result != nil {
			return result
		}
	}
	return nil
}

func (e *orEngine) MatchBatch(items []*Item, slab *util.Slab) []*MatchResult {
	if len(e.engines) == 1 {
		return e.engines[0].MatchBatch(items, slab)
	}
	return scanBatch(e, items, slab)
}

func (e *orEngine) String() string {
	return combinatorString("Or", e.engines)
}

func combinatorString(name string, engines []MatchEngine) string {
	parts := make([]string, len(engines))
	for i, engine := range engines {
		parts[i] = engine.String()
	}
	return fmt.Sprintf("(%s: %s)", name, strings.Join(parts, ", "))
}
