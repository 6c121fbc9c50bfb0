package skim

import (
	"strings"

	"github.com/pkg/errors"
)

// actionType enumerates everything a key chord can do
type actionType int

const (
	actIgnore actionType = iota
	actAbort
	actAccept

	// Cursor and list motion
	actUp
	actDown
	actPageUp
	actPageDown
	actHalfPageUp
	actHalfPageDown
	actTop
	actBottom
	actScrollLeft
	actScrollRight

	// Selection
	actToggle
	actToggleAll
	actSelectAll
	actSelect
	actDeselectAll
	actAppendAndSelect

	// Query editing
	actBackwardChar
	actForwardChar
	actBackwardWord
	actForwardWord
	actBeginningOfLine
	actEndOfLine
	actBackwardDeleteChar
	actDeleteChar
	actDeleteCharEOF
	actBackwardKillWord
	actUnixWordRubout
	actKillWord
	actUnixLineDiscard
	actKillLine
	actYank

	// Mode switches
	actToggleInteractive
	actRotateMode
	actToggleSort

	// Preview
	actTogglePreview
	actPreviewUp
	actPreviewDown
	actPreviewPageUp
	actPreviewPageDown

	// History
	actPreviousHistory
	actNextHistory

	// Command-argument actions
	actExecute
	actExecuteSilent
	actReload
	actPreview
	actSetQuery

	// Conditional actions
	actIfQueryEmpty
	actIfQueryNotEmpty
	actIfNonMatched

	actRedraw
)

// action is one step of a key binding's chain. Command-argument actions
// keep the raw argument; conditional actions keep the parsed branch chain.
type action struct {
	t     actionType
	a     string
	chain []action
}

var actionNames = map[string]actionType{
	"ignore":               actIgnore,
	"abort":                actAbort,
	"accept":               actAccept,
	"up":                   actUp,
	"down":                 actDown,
	"page-up":              actPageUp,
	"page-down":            actPageDown,
	"half-page-up":         actHalfPageUp,
	"half-page-down":       actHalfPageDown,
	"top":                  actTop,
	"first":                actTop,
	"last":                 actBottom,
	"scroll-left":          actScrollLeft,
	"scroll-right":         actScrollRight,
	"toggle":               actToggle,
	"toggle-all":           actToggleAll,
	"select-all":           actSelectAll,
	"select":               actSelect,
	"deselect-all":         actDeselectAll,
	"append-and-select":    actAppendAndSelect,
	"backward-char":        actBackwardChar,
	"forward-char":         actForwardChar,
	"backward-word":        actBackwardWord,
	"forward-word":         actForwardWord,
	"beginning-of-line":    actBeginningOfLine,
	"end-of-line":          actEndOfLine,
	"backward-delete-char": actBackwardDeleteChar,
	"delete-char":          actDeleteChar,
	"delete-char/eof":      actDeleteCharEOF,
	"backward-kill-word":   actBackwardKillWord,
	"unix-word-rubout":     actUnixWordRubout,
	"kill-word":            actKillWord,
	"unix-line-discard":    actUnixLineDiscard,
	"kill-line":            actKillLine,
	"yank":                 actYank,
	"toggle-interactive":   actToggleInteractive,
	"rotate-mode":          actRotateMode,
	"toggle-sort":          actToggleSort,
	"toggle-preview":       actTogglePreview,
	"preview-up":           actPreviewUp,
	"preview-down":         actPreviewDown,
	"preview-page-up":      actPreviewPageUp,
	"preview-page-down":    actPreviewPageDown,
	"previous-history":     actPreviousHistory,
	"next-history":         actNextHistory,
	"execute":              actExecute,
	"execute-silent":       actExecuteSilent,
	"reload":               actReload,
	"preview":              actPreview,
	"set-query":            actSetQuery,
	"if-query-empty":       actIfQueryEmpty,
	"if-query-not-empty":   actIfQueryNotEmpty,
	"if-non-matched":       actIfNonMatched,
	"redraw":               actRedraw,
	"clear-screen":         actRedraw,
}

var conditionalActions = map[actionType]bool{
	actIfQueryEmpty:    true,
	actIfQueryNotEmpty: true,
	actIfNonMatched:    true,
}

// splitTopLevel splits on sep outside parentheses
func splitTopLevel(str string, sep byte) []string {
	out := []string{}
	depth := 0
	start := 0
	for i := 0; i < len(str); i++ {
		switch str[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				out = append(out, str[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, str[start:])
	return out
}

// parseActionChain parses ACTION[(ARG)][+ACTION...]
func parseActionChain(str string) ([]action, error) {
	chain := []action{}
	for _, part := range splitTopLevel(str, '+') {
		part = strings.TrimSpace(part)
		if len(part) == 0 {
			continue
		}
		name := part
		arg := ""
		if open := strings.IndexByte(part, '('); open >= 0 {
			if !strings.HasSuffix(part, ")") {
				return nil, errors.Errorf("unbalanced parentheses: %q", part)
			}
			name = part[:open]
			arg = part[open+1 : len(part)-1]
		}
		typ, found := actionNames[name]
		if !found {
			return nil, errors.Errorf("unknown action: %q", name)
		}
		act := action{t: typ, a: arg}
		if conditionalActions[typ] {
			branch, err := parseActionChain(arg)
			if err != nil {
				return nil, err
			}
			act.chain = branch
		}
		chain = append(chain, act)
	}
	if len(chain) == 0 {
		return nil, errors.Errorf("empty action chain: %q", str)
	}
	return chain, nil
}

// parseKeymap applies one --bind value, KEYSPEC:ACTION[+ACTION...][,...],
// on top of the given keymap
func parseKeymap(keymap map[Key][]action, str string) error {
	for _, pairStr := range splitTopLevel(str, ',') {
		if len(pairStr) == 0 {
			continue
		}
		colon := strings.IndexByte(pairStr, ':')
		if colon < 0 {
			return errors.Errorf("bind expects KEY:ACTION, got %q", pairStr)
		}
		key, err := parseKeySpec(pairStr[:colon])
		if err != nil {
			return err
		}
		chain, err := parseActionChain(pairStr[colon+1:])
		if err != nil {
			return err
		}
		keymap[key] = chain
	}
	return nil
}

// defaultKeymap is the standard shell-editing key set
func defaultKeymap() map[Key][]action {
	km := make(map[Key][]action)
	bind := func(key Key, actions ...actionType) {
		chain := make([]action, len(actions))
		for i, t := range actions {
			chain[i] = action{t: t}
		}
		km[key] = chain
	}

	bind(namedKey(keyEnter), actAccept)
	bind(namedKey(keyEsc), actAbort)
	bind(ctrlKey('c'), actAbort)
	bind(ctrlKey('g'), actAbort)

	bind(namedKey(keyTab), actToggle, actDown)
	bind(namedKey(keyBTab), actToggle, actUp)

	bind(namedKey(keyUp), actUp)
	bind(namedKey(keyDown), actDown)
	bind(ctrlKey('p'), actUp)
	bind(ctrlKey('n'), actDown)
	bind(ctrlKey('k'), actUp)
	bind(ctrlKey('j'), actDown)
	bind(namedKey(keyPgUp), actPageUp)
	bind(namedKey(keyPgDn), actPageDown)

	bind(namedKey(keyLeft), actBackwardChar)
	bind(namedKey(keyRight), actForwardChar)
	bind(ctrlKey('b'), actBackwardChar)
	bind(ctrlKey('f'), actForwardChar)
	bind(altKey('b'), actBackwardWord)
	bind(altKey('f'), actForwardWord)
	bind(ctrlKey('a'), actBeginningOfLine)
	bind(ctrlKey('e'), actEndOfLine)
	bind(namedKey(keyHome), actBeginningOfLine)
	bind(namedKey(keyEnd), actEndOfLine)

	bind(namedKey(keyBackspace), actBackwardDeleteChar)
	bind(ctrlKey('h'), actBackwardDeleteChar)
	bind(namedKey(keyDelete), actDeleteChar)
	bind(ctrlKey('d'), actDeleteCharEOF)
	bind(ctrlKey('w'), actUnixWordRubout)
	bind(altKey('\x7f'), actBackwardKillWord)
	bind(altKey('d'), actKillWord)
	bind(ctrlKey('u'), actUnixLineDiscard)
	bind(ctrlKey('y'), actYank)

	bind(ctrlKey('q'), actToggleInteractive)
	bind(ctrlKey('r'), actRotateMode)
	bind(ctrlKey('l'), actRedraw)

	return km
}
