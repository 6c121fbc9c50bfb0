package skim

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Color is an ANSI color: -1 for the terminal default, 0-255 for indexed
// colors, or (1<<24)|rgb for 24-bit colors
type Color int32

// DefaultColor keeps whatever the terminal renders without SGR codes
const DefaultColor Color = -1

func (c Color) is24() bool {
	return c >= 1<<24
}

// Attr is a bit set of text attributes
type Attr int32

const (
	AttrBold Attr = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrReverse
)

type ansiState struct {
	fg   Color
	bg   Color
	attr Attr
}

func (s *ansiState) colored() bool {
	return s.fg != -1 || s.bg != -1 || s.attr > 0
}

func (s *ansiState) equals(t *ansiState) bool {
	if t == nil {
		return !s.colored()
	}
	return s.fg == t.fg && s.bg == t.bg && s.attr == t.attr
}

// ansiOffset describes the styling of one span of the display text, in
// character coordinates
type ansiOffset struct {
	offset [2]int32
	color  ansiState
}

// The following regular expression covers the frequently used subset of
// ANSI sequences plus the SI/SO bytes and backspace overstrikes
var ansiRegex = regexp.MustCompile("(?:\x1b[\\[()][0-9;]*[a-zA-Z@]|\x1b.|[\x0e\x0f]|.\x08)")

func findAnsiStart(str string) int {
	idx := 0
	for ; idx < len(str); idx++ {
		b := str[idx]
		if b == 0x1b || b == 0x0e || b == 0x0f {
			return idx
		}
		if b == 0x08 && idx > 0 {
			return idx - 1
		}
	}
	return idx
}

// extractColor strips ANSI escapes from the string and returns the display
// text together with the styled spans (char-indexed over the display text)
// and the terminal state left behind by the string
func extractColor(str string, state *ansiState) (string, []ansiOffset, *ansiState) {
	var offsets []ansiOffset
	var output bytes.Buffer

	if state != nil {
		offsets = append(offsets, ansiOffset{[2]int32{0, 0}, *state})
	}

	prevIdx := 0
	runeCount := 0
	for idx := 0; idx < len(str); {
		idx += findAnsiStart(str[idx:])
		if idx == len(str) {
			break
		}

		loc := ansiRegex.FindStringIndex(str[idx:])
		if len(loc) < 2 {
			idx++
			continue
		}
		loc[0] += idx
		loc[1] += idx
		idx = loc[1]

		prev := str[prevIdx:loc[0]]
		prevIdx = loc[1]
		runeCount += utf8.RuneCountInString(prev)
		output.WriteString(prev)

		newState := interpretCode(str[loc[0]:loc[1]], state)
		if !newState.equals(state) {
			if state != nil {
				offsets[len(offsets)-1].offset[1] = int32(runeCount)
			}
			if newState.colored() {
				state = newState
				offsets = append(offsets, ansiOffset{[2]int32{int32(runeCount), int32(runeCount)}, *state})
			} else {
				state = nil
			}
		}
	}

	var rest string
	var trimmed string
	if prevIdx == 0 {
		// No ANSI code found
		rest = str
		trimmed = str
	} else {
		rest = str[prevIdx:]
		output.WriteString(rest)
		trimmed = output.String()
	}
	if len(rest) > 0 && state != nil {
		runeCount += utf8.RuneCountInString(rest)
		offsets[len(offsets)-1].offset[1] = int32(runeCount)
	}
	return trimmed, offsets, state
}

func interpretCode(ansiCode string, prevState *ansiState) *ansiState {
	var state *ansiState
	if prevState == nil {
		state = &ansiState{-1, -1, 0}
	} else {
		state = &ansiState{prevState.fg, prevState.bg, prevState.attr}
	}
	if ansiCode[0] != '\x1b' || ansiCode[1] != '[' || ansiCode[len(ansiCode)-1] != 'm' {
		return state
	}

	ptr := &state.fg
	state256 := 0

	init := func() {
		state.fg = -1
		state.bg = -1
		state.attr = 0
		state256 = 0
	}

	ansiCode = ansiCode[2 : len(ansiCode)-1]
	if len(ansiCode) == 0 {
		init()
	}
	for _, code := range strings.Split(ansiCode, ";") {
		num, err := strconv.Atoi(code)
		if err != nil {
			continue
		}
		switch state256 {
		case 0:
			switch num {
			case 38:
				ptr = &state.fg
				state256++
			case 48:
				ptr = &state.bg
				state256++
			case 39:
				state.fg = -1
			case 49:
				state.bg = -1
			case 1:
				state.attr |= AttrBold
			case 2:
				state.attr |= AttrDim
			case 3:
				state.attr |= AttrItalic
			case 4:
				state.attr |= AttrUnderline
			case 5:
				state.attr |= AttrBlink
			case 7:
				state.attr |= AttrReverse
			case 0:
				init()
			default:
				if num >= 30 && num <= 37 {
					state.fg = Color(num - 30)
				} else if num >= 40 && num <= 47 {
					state.bg = Color(num - 40)
				} else if num >= 90 && num <= 97 {
					state.fg = Color(num - 90 + 8)
				} else if num >= 100 && num <= 107 {
					state.bg = Color(num - 100 + 8)
				}
			}
		case 1:
			switch num {
			case 2:
				state256 = 10 // 24-bit color follows
			case 5:
				state256++
			default:
				state256 = 0
			}
		case 2:
			*ptr = Color(num)
			state256 = 0
		case 10:
			*ptr = Color(1<<24) | Color(num<<16)
			state256++
		case 11:
			*ptr |= Color(num << 8)
			state256++
		case 12:
			*ptr |= Color(num)
			state256 = 0
		}
	}
	if state256 > 0 {
		*ptr = -1
	}
	return state
}

// stripEscapes is used when ANSI processing is off: each ESC byte becomes a
// '?' so that byte positions stay aligned with the raw line
func stripEscapes(str string) string {
	if !strings.ContainsRune(str, '\x1b') {
		return str
	}
	return strings.ReplaceAll(str, "\x1b", "?")
}
