package util

import "testing"

func TestCharsAscii(t *testing.T) {
	chars := ToChars([]byte("foobar"))
	if !chars.IsBytes() || chars.Length() != 6 {
		t.Error()
	}
	if chars.Get(3) != 'b' {
		t.Error()
	}
	if chars.ToString() != "foobar" {
		t.Error()
	}
}

func TestCharsNonAscii(t *testing.T) {
	chars := ToChars([]byte("\xec\x96\xb4떻게"))
	if chars.IsBytes() || chars.Length() != 3 {
		t.Errorf("%v", chars)
	}
	if chars.ToString() != "어떻게" {
		t.Error(chars.ToString())
	}
}

func TestCharsCopyRunes(t *testing.T) {
	chars := ToChars([]byte("hello"))
	dest := make([]rune, 3)
	chars.CopyRunes(dest, 1)
	if string(dest) != "ell" {
		t.Errorf("%q", string(dest))
	}
}

func TestTrimLength(t *testing.T) {
	check := func(str string, exp uint16) {
		chars := ToChars([]byte(str))
		if trimmed := chars.TrimLength(); trimmed != exp {
			t.Errorf("TrimLength(%q) = %d, want %d", str, trimmed, exp)
		}
	}
	check("hello", 5)
	check("  hello  ", 5)
	check("h   o", 5)
	check("  ", 0)
	check("", 0)
}

func TestLeadingTrailingWhitespaces(t *testing.T) {
	chars := ToChars([]byte("  ab c  "))
	if chars.LeadingWhitespaces() != 2 || chars.TrailingWhitespaces() != 2 {
		t.Error()
	}
}
