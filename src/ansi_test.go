package skim

import "testing"

func TestExtractColorPlain(t *testing.T) {
	trimmed, offsets, state := extractColor("plain text", nil)
	if trimmed != "plain text" || offsets != nil || state != nil {
		t.Errorf("%q %v %v", trimmed, offsets, state)
	}
}

func TestExtractColorBasic(t *testing.T) {
	trimmed, offsets, _ := extractColor("\x1b[32mgreen\x1b[m rest", nil)
	if trimmed != "green rest" {
		t.Errorf("%q", trimmed)
	}
	if len(offsets) != 1 {
		t.Fatalf("%v", offsets)
	}
	if offsets[0].offset != [2]int32{0, 5} {
		t.Errorf("%v", offsets[0].offset)
	}
	if offsets[0].color.fg != 2 || offsets[0].color.bg != -1 {
		t.Errorf("%+v", offsets[0].color)
	}
}

func TestExtractColor256(t *testing.T) {
	trimmed, offsets, _ := extractColor("\x1b[38;5;161mpink\x1b[0m", nil)
	if trimmed != "pink" {
		t.Errorf("%q", trimmed)
	}
	if len(offsets) != 1 || offsets[0].color.fg != 161 {
		t.Errorf("%v", offsets)
	}
}

func TestExtractColor24Bit(t *testing.T) {
	_, offsets, _ := extractColor("\x1b[38;2;255;0;128mx\x1b[0m", nil)
	want := Color(1<<24) | Color(255<<16) | Color(128)
	if len(offsets) != 1 || offsets[0].color.fg != want {
		t.Errorf("%v", offsets)
	}
}

func TestExtractColorAttrs(t *testing.T) {
	_, offsets, _ := extractColor("\x1b[1;4;31mx\x1b[0m", nil)
	if len(offsets) != 1 {
		t.Fatalf("%v", offsets)
	}
	c := offsets[0].color
	if c.fg != 1 || c.attr&AttrBold == 0 || c.attr&AttrUnderline == 0 {
		t.Errorf("%+v", c)
	}
}

func TestExtractColorMultipleSpans(t *testing.T) {
	trimmed, offsets, _ := extractColor("\x1b[31ma\x1b[32mb\x1b[0mc", nil)
	if trimmed != "abc" {
		t.Errorf("%q", trimmed)
	}
	if len(offsets) != 2 {
		t.Fatalf("%v", offsets)
	}
	if offsets[0].offset != [2]int32{0, 1} || offsets[1].offset != [2]int32{1, 2} {
		t.Errorf("%v %v", offsets[0].offset, offsets[1].offset)
	}
}

func TestExtractColorMultibyte(t *testing.T) {
	// Offsets are character positions, not byte positions
	trimmed, offsets, _ := extractColor("日本\x1b[31m語\x1b[0m", nil)
	if trimmed != "日本語" {
		t.Errorf("%q", trimmed)
	}
	if len(offsets) != 1 || offsets[0].offset != [2]int32{2, 3} {
		t.Errorf("%v", offsets)
	}
}

func TestExtractColorCarryOverState(t *testing.T) {
	_, _, state := extractColor("\x1b[31mred", nil)
	if state == nil || state.fg != 1 {
		t.Fatalf("%+v", state)
	}
	_, offsets, _ := extractColor("still red\x1b[0m done", state)
	if len(offsets) != 1 || offsets[0].offset != [2]int32{0, 9} {
		t.Errorf("%v", offsets)
	}
}

func TestStripEscapes(t *testing.T) {
	if got := stripEscapes("a\x1bbc"); got != "a?bc" {
		t.Errorf("%q", got)
	}
	if got := stripEscapes("plain"); got != "plain" {
		t.Errorf("%q", got)
	}
}

func TestDisplayHasNoEscapes(t *testing.T) {
	inputs := []string{
		"\x1b[31mred\x1b[0m",
		"\x1b[1;38;5;100mdeep\x1b[m",
		"mixed \x1b[7mreverse\x1b[27m tail",
	}
	for _, input := range inputs {
		trimmed, _, _ := extractColor(input, nil)
		for i := 0; i < len(trimmed); i++ {
			if trimmed[i] == 0x1b {
				t.Errorf("escape byte survived in %q", trimmed)
			}
		}
	}
}
