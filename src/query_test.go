package skim

import "testing"

func TestParseQueryTerms(t *testing.T) {
	groups := parseQuery("foo bar", false)
	if len(groups) != 1 || len(groups[0]) != 2 {
		t.Fatalf("%v", groups)
	}
	if groups[0][0].mode != termFuzzy || groups[0][0].text != "foo" {
		t.Errorf("%+v", groups[0][0])
	}
}

func TestParseQueryOperators(t *testing.T) {
	groups := parseQuery("'quoted ^pre suf$ !not !^anchored$", false)
	terms := groups[0]
	if len(terms) != 5 {
		t.Fatalf("%v", terms)
	}
	if terms[0].mode != termExact || terms[0].text != "quoted" {
		t.Errorf("quote: %+v", terms[0])
	}
	if !terms[1].prefix || terms[1].text != "pre" {
		t.Errorf("prefix: %+v", terms[1])
	}
	if !terms[2].suffix || terms[2].text != "suf" {
		t.Errorf("suffix: %+v", terms[2])
	}
	if !terms[3].inverse || terms[3].mode != termExact || terms[3].text != "not" {
		t.Errorf("inverse: %+v", terms[3])
	}
	if !terms[4].inverse || !terms[4].prefix || !terms[4].suffix || terms[4].text != "anchored" {
		t.Errorf("combined: %+v", terms[4])
	}
}

func TestParseQueryOrGroups(t *testing.T) {
	groups := parseQuery("a b | c d", false)
	if len(groups) != 2 {
		t.Fatalf("%v", groups)
	}
	if len(groups[0]) != 2 || len(groups[1]) != 2 {
		t.Errorf("%v", groups)
	}
}

func TestParseQueryQuoted(t *testing.T) {
	groups := parseQuery(`"two words"`, false)
	if len(groups) != 1 || len(groups[0]) != 1 {
		t.Fatalf("%v", groups)
	}
	if groups[0][0].text != "two words" {
		t.Errorf("%q", groups[0][0].text)
	}
}

func TestParseQueryEscapedSpace(t *testing.T) {
	groups := parseQuery(`one\ term`, false)
	if len(groups) != 1 || len(groups[0]) != 1 || groups[0][0].text != "one term" {
		t.Fatalf("%v", groups)
	}
}

func TestParseQueryExactDefault(t *testing.T) {
	groups := parseQuery("plain 'fuzzy", true)
	terms := groups[0]
	if terms[0].mode != termExact {
		t.Errorf("exact-by-default: %+v", terms[0])
	}
	// The quote flips back to fuzzy in exact mode
	if terms[1].mode != termFuzzy || terms[1].text != "fuzzy" {
		t.Errorf("flip: %+v", terms[1])
	}
}

func TestBuildEngineAndOr(t *testing.T) {
	f := testFactory()
	engine := f.Build("ab | cd")

	if engine.MatchItem(plainItem("xxabxx", 0), engineSlab) == nil {
		t.Error("left branch should match")
	}
	if engine.MatchItem(plainItem("xxcdxx", 0), engineSlab) == nil {
		t.Error("right branch should match")
	}
	if engine.MatchItem(plainItem("xxxx", 0), engineSlab) != nil {
		t.Error("no branch matches")
	}
}

func TestBuildEngineNegation(t *testing.T) {
	f := testFactory()
	engine := f.Build("ab !cd")
	if engine.MatchItem(plainItem("ab", 0), engineSlab) == nil {
		t.Error("ab without cd should match")
	}
	if engine.MatchItem(plainItem("abcd", 0), engineSlab) != nil {
		t.Error("cd present, negation fails the conjunction")
	}
}

func TestBuildEngineEmptyQuery(t *testing.T) {
	f := testFactory()
	engine := f.Build("")
	if engine.MatchItem(plainItem("anything", 0), engineSlab) == nil {
		t.Error("empty query matches everything")
	}
}

func TestBuildEngineRegexMode(t *testing.T) {
	f := NewEngineFactory(CaseSmart, nil, NewRankBuilder(nil), true, false, false, true)
	engine := f.Build("^a+b$")
	if engine.MatchItem(plainItem("aaab", 0), engineSlab) == nil {
		t.Error("regex mode should match")
	}
	if engine.MatchItem(plainItem("ba", 0), engineSlab) != nil {
		t.Error("regex mode should not match")
	}
}

func TestQueryLongerThanItems(t *testing.T) {
	f := testFactory()
	engine := f.Build("averylongquerystring")
	for _, text := range []string{"a", "ab", "short"} {
		if engine.MatchItem(plainItem(text, 0), engineSlab) != nil {
			t.Errorf("%q cannot contain the query", text)
		}
	}
}
