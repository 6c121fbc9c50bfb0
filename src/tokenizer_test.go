package skim

import (
	"regexp"
	"testing"
)

func TestParseRange(t *testing.T) {
	{
		r, _ := ParseRange("1")
		if r.begin != rangeEllipsis || r.end != 1 {
			t.Errorf("%v", r)
		}
	}
	{
		r, _ := ParseRange("5")
		if r.begin != 5 || r.end != 5 {
			t.Errorf("%v", r)
		}
	}
	{
		r, _ := ParseRange("-5")
		if r.begin != -5 || r.end != -5 {
			t.Errorf("%v", r)
		}
	}
	{
		r, _ := ParseRange("..")
		if r.begin != rangeEllipsis || r.end != rangeEllipsis {
			t.Errorf("%v", r)
		}
	}
	{
		r, _ := ParseRange("2..")
		if r.begin != 2 || r.end != rangeEllipsis {
			t.Errorf("%v", r)
		}
	}
	{
		r, _ := ParseRange("..3")
		if r.begin != rangeEllipsis || r.end != 3 {
			t.Errorf("%v", r)
		}
	}
	{
		r, _ := ParseRange("2..3")
		if r.begin != 2 || r.end != 3 {
			t.Errorf("%v", r)
		}
	}
	for _, invalid := range []string{"0", "0..", "..0", "a", "1..a"} {
		if _, ok := ParseRange(invalid); ok {
			t.Errorf("%q should not parse", invalid)
		}
	}
}

func TestTokenizeAwk(t *testing.T) {
	tokens := Tokenize(" abc:  def:  ghi ", Delimiter{})
	if tokens[0].text != "abc:  " || tokens[0].prefixLength != 1 {
		t.Errorf("%v", tokens)
	}
	if len(tokens) != 3 {
		t.Errorf("expected 3 tokens, got %d", len(tokens))
	}
}

func TestTokenizeDelimiterString(t *testing.T) {
	colon := ":"
	tokens := Tokenize("a:b:c", Delimiter{str: &colon})
	if tokens[0].text != "a:" || tokens[1].text != "b:" || tokens[2].text != "c" {
		t.Errorf("%v", tokens)
	}
	if tokens[1].prefixLength != 2 || tokens[2].prefixLength != 4 {
		t.Errorf("%v", tokens)
	}
}

func TestTokenizeDelimiterRegex(t *testing.T) {
	tokens := Tokenize("a,b;c", Delimiter{regex: regexp.MustCompile("[,;]")})
	if len(tokens) != 3 || tokens[0].text != "a," || tokens[2].text != "c" {
		t.Errorf("%v", tokens)
	}
}

func TestTransform(t *testing.T) {
	comma := ","
	delim := Delimiter{str: &comma}
	tokens := Tokenize("f1,f2,f3,f4", delim)

	{
		ranges, _ := splitNth("2..")
		if got := Transform(tokens, ranges); got != "f2,f3,f4" {
			t.Errorf("with-nth 2.. = %q", got)
		}
	}
	{
		// Negative indices count from the end
		ranges, _ := splitNth("-2")
		if got := Transform(tokens, ranges); got != "f3," {
			t.Errorf("with-nth -2 = %q", got)
		}
	}
	{
		ranges, _ := splitNth("2,4")
		if got := Transform(tokens, ranges); got != "f2,f4" {
			t.Errorf("with-nth 2,4 = %q", got)
		}
	}
}

func TestMatchingRanges(t *testing.T) {
	comma := ","
	delim := Delimiter{str: &comma}
	tokens := Tokenize("f1,f2,f3,f4", delim)

	{
		ranges, _ := splitNth("2")
		mr := matchingRanges(tokens, ranges)
		if len(mr) != 1 || mr[0] != [2]int{3, 6} {
			t.Errorf("nth 2 ranges = %v", mr)
		}
	}
	{
		// A field index beyond the line yields an empty range; the item
		// stays visible but cannot match
		ranges, _ := splitNth("5")
		mr := matchingRanges(tokens, ranges)
		if len(mr) != 1 || mr[0] != [2]int{0, 0} {
			t.Errorf("nth 5 ranges = %v", mr)
		}
	}
}

func TestStripLastDelimiter(t *testing.T) {
	comma := ","
	if got := StripLastDelimiter("f2,", Delimiter{str: &comma}); got != "f2" {
		t.Errorf("%q", got)
	}
	if got := StripLastDelimiter("f2", Delimiter{str: &comma}); got != "f2" {
		t.Errorf("%q", got)
	}
}
