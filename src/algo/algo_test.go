package algo

import (
	"sort"
	"testing"

	"github.com/skim-go/skim/src/util"
)

var testSlab = util.MakeSlab(100*1024, 2048*100)

func runAlgo(t *testing.T, algo Algo, caseSensitive bool, input string, pattern string) (Result, *[]int) {
	t.Helper()
	chars := util.ToChars([]byte(input))
	runes := []rune(pattern)
	if !caseSensitive {
		for i, r := range runes {
			runes[i] = foldRune(r, false)
		}
	}
	return algo(caseSensitive, &chars, runes, true, testSlab)
}

func assertMatch(t *testing.T, algo Algo, caseSensitive bool, input string, pattern string, sidx int, eidx int) Result {
	t.Helper()
	result, pos := runAlgo(t, algo, caseSensitive, input, pattern)
	if result.Start != sidx || result.End != eidx {
		t.Errorf("match(%q, %q) = [%d, %d), want [%d, %d)",
			input, pattern, result.Start, result.End, sidx, eidx)
	}
	if pos != nil && len(*pos) > 0 {
		if !sort.IntsAreSorted(*pos) {
			t.Errorf("positions not sorted: %v", *pos)
		}
		if (*pos)[0] != result.Start || (*pos)[len(*pos)-1] != result.End-1 {
			t.Errorf("positions %v disagree with range [%d, %d)", *pos, result.Start, result.End)
		}
	}
	return result
}

func assertNoMatch(t *testing.T, algo Algo, caseSensitive bool, input string, pattern string) {
	t.Helper()
	result, _ := runAlgo(t, algo, caseSensitive, input, pattern)
	if result.Start != -1 {
		t.Errorf("match(%q, %q) = %v, want no match", input, pattern, result)
	}
}

func TestEmptyPattern(t *testing.T) {
	for _, algo := range []Algo{MatchV1, MatchV2, MatchSimple, MatchFzy, MatchClangd} {
		assertMatch(t, algo, false, "foobar", "", 0, 0)
	}
}

func TestNoMatch(t *testing.T) {
	for _, algo := range []Algo{MatchV1, MatchV2, MatchSimple, MatchFzy, MatchClangd} {
		assertNoMatch(t, algo, false, "abc", "abx")
		assertNoMatch(t, algo, false, "abc", "cba")
		assertNoMatch(t, algo, false, "", "a")
	}
}

func TestCaseSensitivity(t *testing.T) {
	for _, algo := range []Algo{MatchV1, MatchV2, MatchSimple, MatchFzy} {
		assertNoMatch(t, algo, true, "abc", "A")
		assertMatch(t, algo, false, "aBc", "abc", 0, 3)
	}
}

func TestV1GreedyWindow(t *testing.T) {
	// Forward scan ends at the first complete window; backward scan shrinks it
	assertMatch(t, MatchV1, false, "xaybzc ab", "ab", 1, 4)
	assertMatch(t, MatchV1, false, "hello world", "wld", 6, 11)
}

func TestV2PrefersConsecutive(t *testing.T) {
	result := assertMatch(t, MatchV2, false, "xxob", "ob", 2, 4)
	spread, _ := runAlgo(t, MatchV2, false, "xxoxb", "ob")
	if spread.Score >= result.Score {
		t.Errorf("consecutive match should outscore spread match: %d >= %d",
			spread.Score, result.Score)
	}
}

func TestV2PrefersBoundary(t *testing.T) {
	boundary, _ := runAlgo(t, MatchV2, false, "foo bar", "b")
	midWord, _ := runAlgo(t, MatchV2, false, "foobar", "b")
	if boundary.Score <= midWord.Score {
		t.Errorf("boundary match should outscore mid-word match: %d <= %d",
			boundary.Score, midWord.Score)
	}
	if boundary.Start != 4 {
		t.Errorf("expected match at word start, got %d", boundary.Start)
	}
}

func TestV2Subsequence(t *testing.T) {
	input := "src/fuzzy/matcher.go"
	result, pos := runAlgo(t, MatchV2, false, input, "fzm")
	if result.Start < 0 {
		t.Fatal("expected a match")
	}
	if pos == nil || len(*pos) != 3 {
		t.Fatalf("expected 3 positions, got %v", pos)
	}
	runes := []rune(input)
	for i, p := range *pos {
		if foldRune(runes[p], false) != rune("fzm"[i]) {
			t.Errorf("position %d points at %q", p, runes[p])
		}
	}
}

func TestFzyEqualStrings(t *testing.T) {
	result := assertMatch(t, MatchFzy, false, "Matcher", "matcher", 0, 7)
	if result.Score != int(fzyScoreMax) {
		t.Errorf("equal strings should score the max sentinel, got %d", result.Score)
	}
}

func TestFzyPrefersConsecutiveRun(t *testing.T) {
	assertMatch(t, MatchFzy, false, "a-b ab", "ab", 4, 6)
}

func TestFzyGapPenalty(t *testing.T) {
	tight, _ := runAlgo(t, MatchFzy, false, "abc", "ac")
	loose, _ := runAlgo(t, MatchFzy, false, "axxxxc", "ac")
	if tight.Score <= loose.Score {
		t.Errorf("inner gaps should cost: %d <= %d", tight.Score, loose.Score)
	}
}

func TestSimpleFirstSubsequence(t *testing.T) {
	assertMatch(t, MatchSimple, false, "abcabc", "bc", 1, 3)
}

func TestOf(t *testing.T) {
	for name, want := range map[string]string{
		"skim_v1": "v1", "skim_v2": "v2", "skim": "v2", "skim_v3": "v2",
		"fzy": "fzy", "simple": "simple", "clangd": "clangd", "bogus": "v2",
	} {
		if Of(name) == nil {
			t.Errorf("Of(%q) returned nil (want %s)", name, want)
		}
	}
}

func TestBonusFor(t *testing.T) {
	if b := bonusFor(charWhite, charLower); b != bonusBoundaryWhite {
		t.Errorf("white boundary bonus = %d", b)
	}
	if b := bonusFor(charDelimiter, charLower); b != bonusBoundaryDelimiter {
		t.Errorf("delimiter boundary bonus = %d", b)
	}
	if b := bonusFor(charLower, charUpper); b != bonusCamel123 {
		t.Errorf("camel bonus = %d", b)
	}
	if b := bonusFor(charLower, charLower); b != 0 {
		t.Errorf("plain run bonus = %d", b)
	}
}
