package skim

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// RankCriterion is one projection used to build the comparable rank tuple
type RankCriterion int

const (
	byScore RankCriterion = iota
	byNegScore
	byBegin
	byNegBegin
	byEnd
	byNegEnd
	byLength
	byNegLength
)

var criterionNames = map[string]RankCriterion{
	"score":   byScore,
	"-score":  byNegScore,
	"begin":   byBegin,
	"-begin":  byNegBegin,
	"end":     byEnd,
	"-end":    byNegEnd,
	"length":  byLength,
	"-length": byNegLength,
}

// parseTiebreak parses the comma-separated criteria list of --tiebreak
func parseTiebreak(str string) ([]RankCriterion, error) {
	criteria := []RankCriterion{}
	for _, name := range strings.Split(strings.ToLower(str), ",") {
		criterion, found := criterionNames[name]
		if !found {
			return nil, errors.Errorf("invalid sort criterion: %s", name)
		}
		for _, c := range criteria {
			if c == criterion {
				return nil, errors.Errorf("duplicate sort criterion: %s", name)
			}
		}
		criteria = append(criteria, criterion)
	}
	if len(criteria) > 4 {
		return nil, errors.New("at most 4 sort criteria allowed")
	}
	return criteria, nil
}

// Rank is the fixed-width comparable key of a match. The first slots are
// filled from the configured criteria; the last slot is always the insertion
// index, making the ordering total.
type Rank [5]int32

// RankBuilder turns raw match measurements into Rank tuples
type RankBuilder struct {
	criteria []RankCriterion
}

// NewRankBuilder returns a RankBuilder over the given criteria. A score
// criterion is prepended when absent so that relevance always participates.
func NewRankBuilder(criteria []RankCriterion) *RankBuilder {
	hasScore := false
	for _, c := range criteria {
		if c == byScore || c == byNegScore {
			hasScore = true
			break
		}
	}
	if !hasScore {
		criteria = append([]RankCriterion{byScore}, criteria...)
	}
	if len(criteria) > 4 {
		criteria = criteria[:4]
	}
	return &RankBuilder{criteria: criteria}
}

// Build fills a rank tuple. Higher scores are better, so the score slot is
// negated to keep the comparison ascending.
func (rb *RankBuilder) Build(score int32, begin int32, end int32, length int32, index int32) Rank {
	var rank Rank
	for i, criterion := range rb.criteria {
		var val int32
		switch criterion {
		case byScore:
			val = -score
		case byNegScore:
			val = score
		case byBegin:
			val = begin
		case byNegBegin:
			val = -begin
		case byEnd:
			val = end
		case byNegEnd:
			val = -end
		case byLength:
			val = length
		case byNegLength:
			val = -length
		}
		rank[i] = val
	}
	rank[4] = index
	return rank
}

// Less compares two ranks lexicographically
func (r Rank) Less(other Rank) bool {
	for i := 0; i < len(r); i++ {
		if r[i] != other[i] {
			return r[i] < other[i]
		}
	}
	return false
}

// MatchedItem pairs an Item with the outcome of scoring it
type MatchedItem struct {
	item *Item
	rank Rank

	// positions holds the matched character indices (fuzzy); when nil the
	// byte range [begin, end) in the display text carries the span
	positions []int
	begin     int32
	end       int32
}

// CharPositions returns the matched span as character indices for
// highlighting, converting the byte range lazily when needed
func (mi *MatchedItem) CharPositions() []int {
	if mi.positions != nil {
		return mi.positions
	}
	if mi.begin >= mi.end {
		return nil
	}
	text := mi.item.text
	start := utf8.RuneCountInString(text[:mi.begin])
	count := utf8.RuneCountInString(text[mi.begin:mi.end])
	pos := make([]int, count)
	for i := range pos {
		pos[i] = start + i
	}
	return pos
}

// charSpan returns the first and one-past-last matched character index
func (mi *MatchedItem) charSpan() (int, int) {
	if mi.positions != nil {
		if len(mi.positions) == 0 {
			return 0, 0
		}
		return mi.positions[0], mi.positions[len(mi.positions)-1] + 1
	}
	if mi.begin >= mi.end {
		return 0, 0
	}
	text := mi.item.text
	start := utf8.RuneCountInString(text[:mi.begin])
	return start, start + utf8.RuneCountInString(text[mi.begin:mi.end])
}

// sortMatchedItems orders the matches by rank. The sort is stable so that
// equal ranks keep pool order. With tac, the final index tiebreak is
// reversed instead of the whole list.
func sortMatchedItems(items []*MatchedItem, tac bool) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].rank, items[j].rank
		for k := 0; k < 4; k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		if tac {
			return a[4] > b[4]
		}
		return a[4] < b[4]
	})
}

// reverseMatchedItems flips the list in place (pool order under --tac when
// sorting is disabled)
func reverseMatchedItems(items []*MatchedItem) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
