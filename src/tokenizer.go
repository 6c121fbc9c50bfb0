package skim

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
)

const rangeEllipsis = 0

// Range represents a field-index expression such as 2, -1, 3.., ..2, 1..4
type Range struct {
	begin int
	end   int
}

// Token is a slice of the line produced by the delimiter, remembering its
// byte offset in the line so that match ranges can be mapped back
type Token struct {
	text         string
	prefixLength int32
}

// Delimiter for tokenizing the input
type Delimiter struct {
	regex *regexp.Regexp
	str   *string
}

// IsAwk returns true for the default whitespace tokenizer
func (d Delimiter) IsAwk() bool {
	return d.regex == nil && d.str == nil
}

func newRange(begin int, end int) Range {
	if begin == 1 {
		begin = rangeEllipsis
	}
	if end == -1 {
		end = rangeEllipsis
	}
	return Range{begin, end}
}

// ParseRange parses a field-index expression and returns the corresponding
// Range object
func ParseRange(str string) (Range, bool) {
	if str == ".." {
		return newRange(rangeEllipsis, rangeEllipsis), true
	} else if strings.HasPrefix(str, "..") {
		end, err := strconv.Atoi(str[2:])
		if err != nil || end == 0 {
			return Range{}, false
		}
		return newRange(rangeEllipsis, end), true
	} else if strings.HasSuffix(str, "..") {
		begin, err := strconv.Atoi(str[:len(str)-2])
		if err != nil || begin == 0 {
			return Range{}, false
		}
		return newRange(begin, rangeEllipsis), true
	} else if strings.Contains(str, "..") {
		ns := strings.SplitN(str, "..", 2)
		begin, err1 := strconv.Atoi(ns[0])
		end, err2 := strconv.Atoi(ns[1])
		if err1 != nil || err2 != nil || begin == 0 || end == 0 {
			return Range{}, false
		}
		return newRange(begin, end), true
	}

	n, err := strconv.Atoi(str)
	if err != nil || n == 0 {
		return Range{}, false
	}
	return newRange(n, n), true
}

// splitNth parses a comma-separated list of field-index expressions
func splitNth(str string) ([]Range, bool) {
	tokens := strings.Split(str, ",")
	ranges := make([]Range, len(tokens))
	for idx, s := range tokens {
		r, ok := ParseRange(s)
		if !ok {
			return nil, false
		}
		ranges[idx] = r
	}
	return ranges, true
}

const (
	awkNil = iota
	awkBlack
	awkWhite
)

// awkTokenizer splits on runs of space/tab, attaching trailing whitespace to
// the preceding token
func awkTokenizer(input string) ([]string, int) {
	ret := []string{}
	prefixLength := 0
	state := awkNil
	begin := 0
	end := 0
	for idx := 0; idx < len(input); idx++ {
		r := input[idx]
		white := r == 9 || r == 32
		switch state {
		case awkNil:
			if white {
				prefixLength++
			} else {
				state, begin, end = awkBlack, idx, idx+1
			}
		case awkBlack:
			end = idx + 1
			if white {
				state = awkWhite
			}
		case awkWhite:
			if white {
				end = idx + 1
			} else {
				ret = append(ret, input[begin:end])
				state, begin, end = awkBlack, idx, idx+1
			}
		}
	}
	if begin < end {
		ret = append(ret, input[begin:end])
	}
	return ret, prefixLength
}

func withPrefixLengths(tokens []string, begin int) []Token {
	ret := make([]Token, len(tokens))
	prefixLength := begin
	for idx := range tokens {
		ret[idx] = Token{tokens[idx], int32(prefixLength)}
		prefixLength += len(tokens[idx])
	}
	return ret
}

// Tokenize splits the given string with the delimiter. Each token includes
// the delimiter that terminates it.
func Tokenize(text string, delimiter Delimiter) []Token {
	if delimiter.IsAwk() {
		tokens, prefixLength := awkTokenizer(text)
		return withPrefixLengths(tokens, prefixLength)
	}

	if delimiter.str != nil {
		return withPrefixLengths(strings.SplitAfter(text, *delimiter.str), 0)
	}

	var tokens []string
	for len(text) > 0 {
		loc := delimiter.regex.FindStringIndex(text)
		if len(loc) < 2 {
			loc = []int{0, len(text)}
		}
		last := loc[1]
		if last < 1 {
			last = 1
		}
		tokens = append(tokens, text[:last])
		text = text[last:]
	}
	return withPrefixLengths(tokens, 0)
}

// tokenSpan resolves a Range against the token list and returns the token
// index interval [first, last]; ok is false when no field falls in the range
func tokenSpan(r Range, numTokens int) (int, int, bool) {
	begin, end := r.begin, r.end
	if begin == rangeEllipsis {
		begin = 1
	} else if begin < 0 {
		begin += numTokens + 1
	}
	if end == rangeEllipsis {
		end = numTokens
	} else if end < 0 {
		end += numTokens + 1
	}
	if begin > end {
		begin, end = end, begin
	}
	begin = max(begin, 1)
	end = min(end, numTokens)
	if begin > end {
		return 0, 0, false
	}
	return begin - 1, end - 1, true
}

// Transform produces the text to display for --with-nth
func Transform(tokens []Token, withNth []Range) string {
	var output bytes.Buffer
	for _, r := range withNth {
		first, last, ok := tokenSpan(r, len(tokens))
		if !ok {
			continue
		}
		for idx := first; idx <= last; idx++ {
			output.WriteString(tokens[idx].text)
		}
	}
	return output.String()
}

// matchingRanges computes the byte ranges in the line that --nth restricts
// matching to. A range expression that selects no field yields an empty
// range so that the item stays visible but cannot match a non-empty query.
func matchingRanges(tokens []Token, nth []Range) [][2]int {
	ranges := make([][2]int, 0, len(nth))
	for _, r := range nth {
		first, last, ok := tokenSpan(r, len(tokens))
		if !ok {
			ranges = append(ranges, [2]int{0, 0})
			continue
		}
		begin := int(tokens[first].prefixLength)
		end := int(tokens[last].prefixLength) + len(tokens[last].text)
		ranges = append(ranges, [2]int{begin, end})
	}
	return ranges
}

// joinTokens concatenates the token texts
func joinTokens(tokens []Token) string {
	var output bytes.Buffer
	for _, token := range tokens {
		output.WriteString(token.text)
	}
	return output.String()
}

// StripLastDelimiter removes a trailing delimiter from a transformed field
// slice so that suffix anchors and placeholder output behave naturally
func StripLastDelimiter(str string, delimiter Delimiter) string {
	if delimiter.str != nil {
		str = strings.TrimSuffix(str, *delimiter.str)
	} else if delimiter.regex != nil {
		locs := delimiter.regex.FindAllStringIndex(str, -1)
		if len(locs) > 0 && locs[len(locs)-1][1] == len(str) {
			str = str[:locs[len(locs)-1][0]]
		}
	}
	return strings.TrimRight(str, " \t")
}
