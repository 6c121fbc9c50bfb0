package skim

import (
	"strings"
	"testing"

	"github.com/skim-go/skim/src/algo"
	"github.com/skim-go/skim/src/util"
)

var engineSlab = util.MakeSlab(100*1024, 2048*100)

func testFactory() *EngineFactory {
	return NewEngineFactory(CaseSmart, algo.MatchV2, NewRankBuilder(nil),
		false, false, false, true)
}

func plainItem(text string, index int32) *Item {
	return buildItem([]byte(text), index, &itemOpts{})
}

func TestFuzzyEngine(t *testing.T) {
	e := newFuzzyEngine("abc", CaseSmart, algo.MatchV2, NewRankBuilder(nil), true)
	if r := e.MatchItem(plainItem("a1b2c3", 0), engineSlab); r == nil {
		t.Error("expected match")
	} else if len(r.positions) != 3 {
		t.Errorf("positions = %v", r.positions)
	}
	if r := e.MatchItem(plainItem("acb", 0), engineSlab); r != nil {
		t.Error("out-of-order characters must not match")
	}
}

func TestFuzzyEngineEmptyQuery(t *testing.T) {
	e := newFuzzyEngine("", CaseSmart, algo.MatchV2, NewRankBuilder(nil), true)
	r := e.MatchItem(plainItem("anything", 7), engineSlab)
	if r == nil {
		t.Fatal("empty query matches everything")
	}
	if r.rank[0] != 0 {
		t.Errorf("empty query scores zero, rank = %v", r.rank)
	}
}

func TestFuzzyEngineSmartCase(t *testing.T) {
	lower := newFuzzyEngine("abc", CaseSmart, algo.MatchV2, NewRankBuilder(nil), false)
	if lower.MatchItem(plainItem("ABC", 0), engineSlab) == nil {
		t.Error("lowercase pattern ignores case")
	}
	upper := newFuzzyEngine("Abc", CaseSmart, algo.MatchV2, NewRankBuilder(nil), false)
	if upper.MatchItem(plainItem("abc", 0), engineSlab) != nil {
		t.Error("uppercase in pattern respects case")
	}
}

func TestFuzzyEngineMatchingRanges(t *testing.T) {
	comma := ","
	nth, _ := splitNth("2")
	item := buildItem([]byte("f1,f2,f3,f4"), 0, &itemOpts{
		delimiter: Delimiter{str: &comma},
		nth:       nth,
	})
	e := newFuzzyEngine("2", CaseSmart, algo.MatchV2, NewRankBuilder(nil), true)
	r := e.MatchItem(item, engineSlab)
	if r == nil {
		t.Fatal("'2' occurs in field 2")
	}
	// Position is relative to the whole display text
	if len(r.positions) != 1 || r.positions[0] != 4 {
		t.Errorf("positions = %v", r.positions)
	}

	e1 := newFuzzyEngine("1", CaseSmart, algo.MatchV2, NewRankBuilder(nil), true)
	if e1.MatchItem(item, engineSlab) != nil {
		t.Error("'1' is outside the matching range")
	}
}

func TestExactEngine(t *testing.T) {
	e := newExactEngine("bc", exactParam{}, CaseSmart, NewRankBuilder(nil))
	r := e.MatchItem(plainItem("abcd", 0), engineSlab)
	if r == nil || r.begin != 1 || r.end != 3 {
		t.Errorf("%+v", r)
	}
	if e.MatchItem(plainItem("b c", 0), engineSlab) != nil {
		t.Error("exact match must be contiguous")
	}
}

func TestExactEngineAnchors(t *testing.T) {
	prefix := newExactEngine("ab", exactParam{prefix: true}, CaseSmart, NewRankBuilder(nil))
	if prefix.MatchItem(plainItem("abc", 0), engineSlab) == nil {
		t.Error("^ab should match abc")
	}
	if prefix.MatchItem(plainItem("cab", 0), engineSlab) != nil {
		t.Error("^ab should not match cab")
	}

	suffix := newExactEngine("bc", exactParam{suffix: true}, CaseSmart, NewRankBuilder(nil))
	if suffix.MatchItem(plainItem("abc", 0), engineSlab) == nil {
		t.Error("bc$ should match abc")
	}
	if suffix.MatchItem(plainItem("bca", 0), engineSlab) != nil {
		t.Error("bc$ should not match bca")
	}

	equal := newExactEngine("abc", exactParam{prefix: true, suffix: true}, CaseSmart, NewRankBuilder(nil))
	if equal.MatchItem(plainItem("abc", 0), engineSlab) == nil ||
		equal.MatchItem(plainItem("abcd", 0), engineSlab) != nil {
		t.Error("^abc$ matches only the exact string")
	}
}

func TestExactEngineInverse(t *testing.T) {
	e := newExactEngine("x", exactParam{inverse: true}, CaseSmart, NewRankBuilder(nil))
	if e.MatchItem(plainItem("abc", 0), engineSlab) == nil {
		t.Error("!x should match abc")
	}
	if e.MatchItem(plainItem("axc", 0), engineSlab) != nil {
		t.Error("!x should not match axc")
	}
}

func TestExactEngineRegexEscape(t *testing.T) {
	e := newExactEngine("a.c", exactParam{}, CaseSmart, NewRankBuilder(nil))
	if e.MatchItem(plainItem("abc", 0), engineSlab) != nil {
		t.Error("the dot must be literal")
	}
	if e.MatchItem(plainItem("xa.cx", 0), engineSlab) == nil {
		t.Error("literal a.c should match")
	}
}

func TestExactEngineNormalize(t *testing.T) {
	e := newExactEngine("cafe", exactParam{normalize: true}, CaseSmart, NewRankBuilder(nil))
	r := e.MatchItem(plainItem("le café noir", 0), engineSlab)
	if r == nil {
		t.Fatal("normalized match expected")
	}
	// The range maps back to the original bytes ("café" is 5 bytes)
	if r.begin != 3 || r.end != 8 {
		t.Errorf("range = [%d, %d)", r.begin, r.end)
	}
}

func TestRegexEngine(t *testing.T) {
	e := newRegexEngine("^a.c$", CaseSmart, NewRankBuilder(nil))
	if e.MatchItem(plainItem("abc", 0), engineSlab) == nil {
		t.Error("regex should match")
	}
	if e.MatchItem(plainItem("abcd", 0), engineSlab) != nil {
		t.Error("anchored regex should not match")
	}
}

func TestRegexEngineInvalidPattern(t *testing.T) {
	// A half-typed pattern matches nothing instead of failing
	e := newRegexEngine("a[", CaseSmart, NewRankBuilder(nil))
	if e.MatchItem(plainItem("a[", 0), engineSlab) != nil {
		t.Error("invalid regex yields no matches")
	}
}

func TestAndEngineMergesRanges(t *testing.T) {
	rb := NewRankBuilder(nil)
	e := newAndEngine([]MatchEngine{
		newFuzzyEngine("ab", CaseSmart, algo.MatchV2, rb, true),
		newFuzzyEngine("cd", CaseSmart, algo.MatchV2, rb, true),
	})
	r := e.MatchItem(plainItem("abcd", 0), engineSlab)
	if r == nil {
		t.Fatal("both terms occur")
	}
	if len(r.positions) != 4 {
		t.Errorf("merged positions = %v", r.positions)
	}
	for i := 1; i < len(r.positions); i++ {
		if r.positions[i] <= r.positions[i-1] {
			t.Errorf("positions not sorted/deduped: %v", r.positions)
		}
	}
}

func TestAndEngineShortCircuits(t *testing.T) {
	rb := NewRankBuilder(nil)
	e := newAndEngine([]MatchEngine{
		newFuzzyEngine("zz", CaseSmart, algo.MatchV2, rb, true),
		newFuzzyEngine("ab", CaseSmart, algo.MatchV2, rb, true),
	})
	if e.MatchItem(plainItem("abcd", 0), engineSlab) != nil {
		t.Error("one failing term fails the conjunction")
	}
}

func TestOrEngineFirstWins(t *testing.T) {
	rb := NewRankBuilder(nil)
	e := newOrEngine([]MatchEngine{
		newExactEngine("zz", exactParam{}, CaseSmart, rb),
		newExactEngine("ab", exactParam{}, CaseSmart, rb),
	})
	r := e.MatchItem(plainItem("xabx", 0), engineSlab)
	if r == nil || r.begin != 1 {
		t.Errorf("%+v", r)
	}
}

func TestBatchEqualsScalar(t *testing.T) {
	items := []*Item{
		plainItem("alpha", 0), plainItem("beta", 1), plainItem("gamma", 2),
		plainItem("alphabet", 3), plainItem("delta", 4),
	}
	engines := []MatchEngine{
		newFuzzyEngine("al", CaseSmart, algo.MatchV2, NewRankBuilder(nil), true),
		newExactEngine("ta", exactParam{}, CaseSmart, NewRankBuilder(nil)),
		newAndEngine([]MatchEngine{newFuzzyEngine("a", CaseSmart, algo.MatchV2, NewRankBuilder(nil), true)}),
	}
	for _, e := range engines {
		batch := e.MatchBatch(items, engineSlab)
		for i, item := range items {
			scalar := e.MatchItem(item, engineSlab)
			if (scalar == nil) != (batch[i] == nil) {
				t.Fatalf("%s: batch/scalar disagree on %q", e, item.Text())
			}
			if scalar != nil && scalar.rank != batch[i].rank {
				t.Fatalf("%s: rank mismatch on %q", e, item.Text())
			}
		}
	}
}

func TestEngineStrings(t *testing.T) {
	f := testFactory()
	e := f.Build("a !b | c")
	if !strings.Contains(e.String(), "Fuzzy") {
		t.Errorf("%s", e)
	}
}
