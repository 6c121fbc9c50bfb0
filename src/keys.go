package skim

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// keyType enumerates the named keys; printable keys use keyRune
type keyType int

const (
	keyRune keyType = iota
	keyEnter
	keyEsc
	keyTab
	keyBTab
	keyBackspace
	keyDelete
	keyUp
	keyDown
	keyLeft
	keyRight
	keyHome
	keyEnd
	keyPgUp
	keyPgDn
	keySpace
	keyF1
	keyF2
	keyF3
	keyF4
	keyF5
	keyF6
	keyF7
	keyF8
	keyF9
	keyF10
	keyF11
	keyF12
)

// Key identifies one chord: a key code plus modifiers
type Key struct {
	Type keyType
	Char rune
	Ctrl bool
	Alt  bool
}

var namedKeys = map[string]keyType{
	"enter":  keyEnter,
	"return": keyEnter,
	"esc":    keyEsc,
	"tab":    keyTab,
	"btab":   keyBTab,
	"bspace": keyBackspace,
	"bs":     keyBackspace,
	"del":    keyDelete,
	"delete": keyDelete,
	"up":     keyUp,
	"down":   keyDown,
	"left":   keyLeft,
	"right":  keyRight,
	"home":   keyHome,
	"end":    keyEnd,
	"pgup":   keyPgUp,
	"pgdn":   keyPgDn,
	"space":  keySpace,
	"f1":     keyF1,
	"f2":     keyF2,
	"f3":     keyF3,
	"f4":     keyF4,
	"f5":     keyF5,
	"f6":     keyF6,
	"f7":     keyF7,
	"f8":     keyF8,
	"f9":     keyF9,
	"f10":    keyF10,
	"f11":    keyF11,
	"f12":    keyF12,
}

// parseKeySpec parses one KEYSPEC: [ctrl-|alt-|shift-]KEYNAME. An uppercase
// single character implies shift and is kept as the uppercase rune.
func parseKeySpec(spec string) (Key, error) {
	var key Key
	rest := spec
	for {
		lower := strings.ToLower(rest)
		if strings.HasPrefix(lower, "ctrl-") {
			key.Ctrl = true
			rest = rest[5:]
		} else if strings.HasPrefix(lower, "alt-") {
			key.Alt = true
			rest = rest[4:]
		} else if strings.HasPrefix(lower, "shift-") {
			// Shift folds into the rune itself
			rest = rest[6:]
			rest = strings.ToUpper(rest)
		} else {
			break
		}
	}

	if len(rest) == 0 {
		return key, errors.Errorf("invalid key specifier: %q", spec)
	}

	if typ, found := namedKeys[strings.ToLower(rest)]; found {
		key.Type = typ
		return key, nil
	}

	if utf8.RuneCountInString(rest) == 1 {
		r, _ := utf8.DecodeRuneInString(rest)
		key.Type = keyRune
		if key.Ctrl {
			r = unicode.ToLower(r)
		}
		key.Char = r
		return key, nil
	}
	return key, errors.Errorf("unknown key: %q", rest)
}

func ctrlKey(r rune) Key {
	return Key{Type: keyRune, Char: r, Ctrl: true}
}

func altKey(r rune) Key {
	return Key{Type: keyRune, Char: r, Alt: true}
}

func namedKey(t keyType) Key {
	return Key{Type: t}
}
