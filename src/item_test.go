package skim

import "testing"

func TestBuildItemPlain(t *testing.T) {
	item := buildItem([]byte("hello"), 42, &itemOpts{})
	if item.Text() != "hello" || item.Output() != "hello" {
		t.Errorf("%q %q", item.Text(), item.Output())
	}
	if item.Index() != 42 {
		t.Errorf("index = %d", item.Index())
	}
	if item.origText != nil {
		t.Error("origText should not be kept for unchanged lines")
	}
}

func TestBuildItemRoundTrip(t *testing.T) {
	// Without transforms and null bytes the output is the input
	raw := "plain text line"
	item := buildItem([]byte(raw), 0, &itemOpts{})
	if item.Output() != raw {
		t.Errorf("%q != %q", item.Output(), raw)
	}
}

func TestBuildItemAnsi(t *testing.T) {
	raw := "\x1b[31mred\x1b[0m plain"
	item := buildItem([]byte(raw), 0, &itemOpts{ansi: true})
	if item.Text() != "red plain" {
		t.Errorf("display = %q", item.Text())
	}
	if item.Output() != raw {
		t.Errorf("output must preserve the escapes: %q", item.Output())
	}
	colors := item.Colors()
	if len(colors) != 1 {
		t.Fatalf("spans = %v", colors)
	}
	if colors[0].offset != [2]int32{0, 3} || colors[0].color.fg != 1 {
		t.Errorf("span = %+v", colors[0])
	}
}

func TestBuildItemAnsiDisabled(t *testing.T) {
	// ESC bytes become '?' so positions stay aligned with the raw line
	item := buildItem([]byte("a\x1bbc"), 0, &itemOpts{})
	if item.Text() != "a?bc" {
		t.Errorf("display = %q", item.Text())
	}
}

func TestBuildItemNullBytes(t *testing.T) {
	raw := "a\x00b"
	item := buildItem([]byte(raw), 0, &itemOpts{})
	if item.Text() != "ab" {
		t.Errorf("display = %q", item.Text())
	}
	if item.Output() != raw {
		t.Errorf("output must keep the null byte")
	}
}

func TestBuildItemInvalidUtf8(t *testing.T) {
	item := buildItem([]byte{'a', 0xff, 'b'}, 0, &itemOpts{})
	if item.Text() != "a�b" {
		t.Errorf("display = %q", item.Text())
	}
}

func TestBuildItemWithNth(t *testing.T) {
	comma := ","
	withNth, _ := splitNth("2..")
	item := buildItem([]byte("f1,f2,f3,f4"), 0, &itemOpts{
		delimiter: Delimiter{str: &comma},
		withNth:   withNth,
	})
	if item.Text() != "f2,f3,f4" {
		t.Errorf("display = %q", item.Text())
	}
	// Accepting still emits the untransformed line
	if item.Output() != "f1,f2,f3,f4" {
		t.Errorf("output = %q", item.Output())
	}
}

func TestBuildItemNth(t *testing.T) {
	comma := ","
	nth, _ := splitNth("2")
	item := buildItem([]byte("f1,f2,f3,f4"), 0, &itemOpts{
		delimiter: Delimiter{str: &comma},
		nth:       nth,
	})
	ranges := item.MatchingRanges()
	if len(ranges) != 1 || ranges[0] != [2]int{3, 6} {
		t.Errorf("ranges = %v", ranges)
	}
}
