package util

import (
	"unicode"
	"unicode/utf8"
)

// Chars stores the text of a line either as a byte slice (when the text is
// pure ASCII) or as a rune slice. Scorers index it by character without
// paying UTF-8 decoding cost on the common ASCII path.
type Chars struct {
	bytes []byte
	runes []rune

	trimLengthKnown bool
	trimLength      uint16
}

func checkAscii(bytes []byte) bool {
	for i := 0; i < len(bytes); i++ {
		if bytes[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// ToChars converts a byte slice into Chars
func ToChars(bytes []byte) Chars {
	if checkAscii(bytes) {
		return Chars{bytes: bytes}
	}
	runes := make([]rune, 0, len(bytes))
	for i := 0; i < len(bytes); {
		r, sz := utf8.DecodeRune(bytes[i:])
		i += sz
		runes = append(runes, r)
	}
	return Chars{runes: runes}
}

// RunesToChars converts a rune slice into Chars
func RunesToChars(runes []rune) Chars {
	return Chars{runes: runes}
}

// IsBytes returns true when the text is stored as bytes
func (chars *Chars) IsBytes() bool {
	return chars.bytes != nil
}

// Length returns the number of characters
func (chars *Chars) Length() int {
	if chars.bytes != nil {
		return len(chars.bytes)
	}
	return len(chars.runes)
}

// Get returns the i-th character
func (chars *Chars) Get(i int) rune {
	if chars.bytes != nil {
		return rune(chars.bytes[i])
	}
	return chars.runes[i]
}

// ToString returns the string representation
func (chars *Chars) ToString() string {
	if chars.bytes != nil {
		return string(chars.bytes)
	}
	return string(chars.runes)
}

// ToRunes returns the rune-slice representation
func (chars *Chars) ToRunes() []rune {
	if chars.runes != nil {
		return chars.runes
	}
	runes := make([]rune, len(chars.bytes))
	for idx, b := range chars.bytes {
		runes[idx] = rune(b)
	}
	return runes
}

// CopyRunes fills the destination slice with the characters starting at from
func (chars *Chars) CopyRunes(dest []rune, from int) {
	if chars.runes != nil {
		copy(dest, chars.runes[from:])
		return
	}
	for idx := range dest {
		dest[idx] = rune(chars.bytes[from+idx])
	}
}

// LeadingWhitespaces returns the number of leading whitespace characters
func (chars *Chars) LeadingWhitespaces() int {
	whitespaces := 0
	for i := 0; i < chars.Length(); i++ {
		if !unicode.IsSpace(chars.Get(i)) {
			break
		}
		whitespaces++
	}
	return whitespaces
}

// TrailingWhitespaces returns the number of trailing whitespace characters
func (chars *Chars) TrailingWhitespaces() int {
	whitespaces := 0
	for i := chars.Length() - 1; i >= 0; i-- {
		if !unicode.IsSpace(chars.Get(i)) {
			break
		}
		whitespaces++
	}
	return whitespaces
}

// TrimLength returns the length after trimming leading and trailing
// whitespace, saturated to uint16 for rank slots
func (chars *Chars) TrimLength() uint16 {
	if chars.trimLengthKnown {
		return chars.trimLength
	}
	length := chars.Length() - chars.LeadingWhitespaces() - chars.TrailingWhitespaces()
	if length < 0 {
		length = 0
	}
	if length > 65535 {
		length = 65535
	}
	chars.trimLengthKnown = true
	chars.trimLength = uint16(length)
	return chars.trimLength
}
