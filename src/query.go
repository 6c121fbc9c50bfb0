package skim

import (
	"strings"

	"github.com/skim-go/skim/src/algo"
)

// fuzzy
// 'exact
// ^prefix-exact
// suffix-exact$
// !inverse-exact
// "no splitting on whitespace"

type termMode int

const (
	termFuzzy termMode = iota
	termExact
	termRegex
)

type queryTerm struct {
	mode    termMode
	text    string
	prefix  bool
	suffix  bool
	inverse bool
}

// EngineFactory turns query strings into engine trees. The policies are
// fixed at startup; only the query changes.
type EngineFactory struct {
	caseMode    CaseMatching
	fuzzyAlgo   algo.Algo
	rankBuilder *RankBuilder
	regex       bool
	exact       bool
	normalize   bool
	withPos     bool
}

// NewEngineFactory returns an EngineFactory
func NewEngineFactory(caseMode CaseMatching, fuzzyAlgo algo.Algo, rankBuilder *RankBuilder,
	regex bool, exact bool, normalize bool, withPos bool) *EngineFactory {
	return &EngineFactory{
		caseMode:    caseMode,
		fuzzyAlgo:   fuzzyAlgo,
		rankBuilder: rankBuilder,
		regex:       regex,
		exact:       exact,
		normalize:   normalize,
		withPos:     withPos,
	}
}

// Build parses the query and constructs the engine tree: a disjunction of
// conjunctions of term engines. An empty query matches every item with
// score zero.
func (f *EngineFactory) Build(query string) MatchEngine {
	if f.regex {
		return newRegexEngine(query, f.caseMode, f.rankBuilder)
	}

	groups := parseQuery(query, f.exact)
	if len(groups) == 0 {
		return newFuzzyEngine("", f.caseMode, f.fuzzyAlgo, f.rankBuilder, f.withPos)
	}

	orEngines := make([]MatchEngine, 0, len(groups))
	for _, group := range groups {
		andEngines := make([]MatchEngine, 0, len(group))
		for _, term := range group {
			andEngines = append(andEngines, f.buildTerm(term))
		}
		orEngines = append(orEngines, newAndEngine(andEngines))
	}
	if len(orEngines) == 1 {
		return orEngines[0]
	}
	return newOrEngine(orEngines)
}

func (f *EngineFactory) buildTerm(term queryTerm) MatchEngine {
	switch term.mode {
	case termExact:
		return newExactEngine(term.text, exactParam{
			prefix:    term.prefix,
			suffix:    term.suffix,
			inverse:   term.inverse,
			normalize: f.normalize,
		}, f.caseMode, f.rankBuilder)
	case termRegex:
		return newRegexEngine(term.text, f.caseMode, f.rankBuilder)
	}
	return newFuzzyEngine(term.text, f.caseMode, f.fuzzyAlgo, f.rankBuilder, f.withPos)
}

// parseQuery splits the query into OR-groups of AND-terms and classifies
// each token by its operators
func parseQuery(query string, exactDefault bool) [][]queryTerm {
	// Wrapping the whole query in double quotes disables splitting
	if len(query) > 1 && strings.HasPrefix(query, `"`) && strings.HasSuffix(query, `"`) {
		term := classifyTerm(query[1:len(query)-1], exactDefault)
		if len(term.text) == 0 {
			return nil
		}
		return [][]queryTerm{{term}}
	}

	// An escaped space stays inside its token
	query = strings.ReplaceAll(query, "\\ ", "\x00")

	groups := [][]queryTerm{}
	group := []queryTerm{}
	for _, token := range strings.Fields(query) {
		if token == "|" && len(group) > 0 {
			groups = append(groups, group)
			group = []queryTerm{}
			continue
		}
		term := classifyTerm(strings.ReplaceAll(token, "\x00", " "), exactDefault)
		if len(term.text) == 0 && !term.inverse {
			continue
		}
		group = append(group, term)
	}
	if len(group) > 0 {
		groups = append(groups, group)
	}
	return groups
}

func classifyTerm(text string, exactDefault bool) queryTerm {
	term := queryTerm{mode: termFuzzy, text: text}
	if exactDefault {
		term.mode = termExact
	}

	if strings.HasPrefix(term.text, "!") {
		term.inverse = true
		term.mode = termExact
		term.text = term.text[1:]
	}

	if term.text != "$" && strings.HasSuffix(term.text, "$") {
		term.suffix = true
		term.mode = termExact
		term.text = term.text[:len(term.text)-1]
	}

	if strings.HasPrefix(term.text, "'") {
		// Quote makes the term exact, or flips back to fuzzy when exact
		// matching is the default
		if exactDefault && !term.inverse {
			term.mode = termFuzzy
		} else {
			term.mode = termExact
		}
		term.text = term.text[1:]
	} else if strings.HasPrefix(term.text, "^") {
		term.prefix = true
		term.mode = termExact
		term.text = term.text[1:]
	}

	return term
}
