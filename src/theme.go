package skim

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// themeAttr is the style of one UI component
type themeAttr struct {
	fg   Color
	bg   Color
	attr Attr
}

// ColorTheme collects the styles of every component. It is immutable for
// the life of the process.
type ColorTheme struct {
	enabled bool

	normal       themeAttr
	matched      themeAttr
	current      themeAttr
	currentMatch themeAttr
	query        themeAttr
	spinner      themeAttr
	info         themeAttr
	prompt       themeAttr
	cursor       themeAttr
	selected     themeAttr
	header       themeAttr
	border       themeAttr
}

func noAttr(fg Color, bg Color) themeAttr {
	return themeAttr{fg: fg, bg: bg}
}

func defaultTheme16() *ColorTheme {
	return &ColorTheme{
		enabled:      true,
		normal:       noAttr(-1, -1),
		matched:      noAttr(2, -1),
		current:      noAttr(6, -1),
		currentMatch: noAttr(2, -1),
		query:        noAttr(-1, -1),
		spinner:      noAttr(2, -1),
		info:         noAttr(3, -1),
		prompt:       noAttr(4, -1),
		cursor:       noAttr(1, -1),
		selected:     noAttr(5, -1),
		header:       noAttr(6, -1),
		border:       noAttr(8, -1),
	}
}

func defaultThemeDark() *ColorTheme {
	t := defaultTheme16()
	t.matched = noAttr(108, -1)
	t.current = themeAttr{fg: 254, bg: 236}
	t.currentMatch = themeAttr{fg: 151, bg: 236}
	t.info = noAttr(144, -1)
	t.prompt = noAttr(110, -1)
	t.cursor = noAttr(161, -1)
	t.selected = noAttr(168, -1)
	t.header = noAttr(109, -1)
	t.border = noAttr(59, -1)
	return t
}

func defaultThemeLight() *ColorTheme {
	t := defaultTheme16()
	t.matched = noAttr(66, -1)
	t.current = themeAttr{fg: 237, bg: 251}
	t.currentMatch = themeAttr{fg: 23, bg: 251}
	t.info = noAttr(101, -1)
	t.prompt = noAttr(25, -1)
	t.cursor = noAttr(160, -1)
	t.selected = noAttr(126, -1)
	t.header = noAttr(31, -1)
	t.border = noAttr(145, -1)
	return t
}

func defaultThemeBW() *ColorTheme {
	t := &ColorTheme{enabled: false}
	t.normal = noAttr(-1, -1)
	t.matched = themeAttr{fg: -1, bg: -1, attr: AttrUnderline}
	t.current = themeAttr{fg: -1, bg: -1, attr: AttrReverse}
	t.currentMatch = themeAttr{fg: -1, bg: -1, attr: AttrUnderline | AttrReverse}
	t.query = noAttr(-1, -1)
	t.spinner = noAttr(-1, -1)
	t.info = noAttr(-1, -1)
	t.prompt = noAttr(-1, -1)
	t.cursor = noAttr(-1, -1)
	t.selected = noAttr(-1, -1)
	t.header = noAttr(-1, -1)
	t.border = noAttr(-1, -1)
	return t
}

var baseThemes = map[string]func() *ColorTheme{
	"dark":  defaultThemeDark,
	"light": defaultThemeLight,
	"16":    defaultTheme16,
	"bw":    defaultThemeBW,
	"none":  defaultThemeBW,
}

var namedColors = map[string]Color{
	"black": 0, "red": 1, "green": 2, "yellow": 3,
	"blue": 4, "magenta": 5, "cyan": 6, "white": 7,
	"default": -1,
}

func parseColor(str string) (Color, error) {
	if col, found := namedColors[str]; found {
		return col, nil
	}
	if strings.HasPrefix(str, "#") && len(str) == 7 {
		rgb, err := strconv.ParseInt(str[1:], 16, 32)
		if err != nil {
			return 0, errors.Errorf("invalid color: %s", str)
		}
		return Color(1<<24) | Color(rgb), nil
	}
	n, err := strconv.Atoi(str)
	if err != nil || n < -1 || n > 255 {
		return 0, errors.Errorf("invalid color: %s", str)
	}
	return Color(n), nil
}

var attrModifiers = map[string]Attr{
	"regular":   0,
	"bold":      AttrBold,
	"dim":       AttrDim,
	"italic":    AttrItalic,
	"underline": AttrUnderline,
	"blink":     AttrBlink,
	"reverse":   AttrReverse,
}

// parseTheme interprets one --color value:
// [BASETHEME,]COMPONENT[-fg|-bg]:COLOR[:MODIFIER...][,...]
func parseTheme(spec string) (*ColorTheme, error) {
	theme := defaultThemeDark()
	for i, token := range strings.Split(spec, ",") {
		if len(token) == 0 {
			continue
		}
		if i == 0 {
			if base, found := baseThemes[strings.ToLower(token)]; found {
				theme = base()
				continue
			}
		}
		if err := theme.apply(token); err != nil {
			return nil, err
		}
	}
	return theme, nil
}

func (t *ColorTheme) component(name string) *themeAttr {
	switch name {
	case "normal":
		return &t.normal
	case "matched", "hl":
		return &t.matched
	case "current", "fg+":
		return &t.current
	case "current_match", "hl+":
		return &t.currentMatch
	case "query":
		return &t.query
	case "spinner":
		return &t.spinner
	case "info":
		return &t.info
	case "prompt":
		return &t.prompt
	case "cursor", "pointer":
		return &t.cursor
	case "selected", "marker":
		return &t.selected
	case "header":
		return &t.header
	case "border":
		return &t.border
	}
	return nil
}

func (t *ColorTheme) apply(token string) error {
	parts := strings.Split(token, ":")
	if len(parts) < 2 {
		return errors.Errorf("invalid color specification: %s", token)
	}

	name := parts[0]
	part := "fg"
	switch {
	case name == "bg+":
		name, part = "current", "bg"
	case strings.HasSuffix(name, "-bg"):
		name, part = name[:len(name)-3], "bg"
	case strings.HasSuffix(name, "-fg"):
		name = name[:len(name)-3]
	}

	attr := t.component(name)
	if attr == nil {
		return errors.Errorf("unknown color component: %s", parts[0])
	}

	col, err := parseColor(parts[1])
	if err != nil {
		return err
	}
	if part == "bg" {
		attr.bg = col
	} else {
		attr.fg = col
	}

	for _, mod := range parts[2:] {
		bits, found := attrModifiers[strings.ToLower(mod)]
		if !found {
			return errors.Errorf("unknown modifier: %s", mod)
		}
		if bits == 0 {
			attr.attr = 0
		} else {
			attr.attr |= bits
		}
	}
	return nil
}
