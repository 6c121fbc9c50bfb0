package skim

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/jessevdk/go-flags"
	shellwords "github.com/mattn/go-shellwords"
	"github.com/pkg/errors"

	"github.com/skim-go/skim/src/algo"
)

// cliOptions is the declarative flag surface; post-processing turns it into
// Options
type cliOptions struct {
	// Search
	Tac       bool   `long:"tac" description:"reverse the order of the input"`
	NoSort    bool   `long:"no-sort" description:"do not sort the result"`
	Tiebreak  string `long:"tiebreak" description:"comma-separated list of sort criteria: score,-score,begin,-begin,end,-end,length,-length"`
	Nth       string `short:"n" long:"nth" description:"comma-separated list of field index expressions for limiting search scope"`
	WithNth   string `long:"with-nth" description:"field index expressions for transforming the presentation of each line"`
	Delimiter string `short:"d" long:"delimiter" description:"field delimiter regex for --nth and --with-nth"`
	Exact     bool   `short:"e" long:"exact" description:"enable exact-match"`
	Regex     bool   `long:"regex" description:"search with regular expression instead of fuzzy match"`
	Algo      string `long:"algo" description:"fuzzy matching algorithm: skim_v2|skim_v1|clangd|simple|fzy (skim_v3 resolves to skim_v2)"`
	Case      string `long:"case" description:"case sensitivity: smart|respect|ignore"`
	Normalize bool   `long:"normalize" description:"normalize latin script letters before matching"`

	// Interface
	Bind           []string `short:"b" long:"bind" description:"custom key bindings: KEY:ACTION[+ACTION...][,...]"`
	Multi          bool     `short:"m" long:"multi" description:"enable multiple selection"`
	NoMulti        bool     `long:"no-multi" description:"disable multiple selection"`
	Cmd            string   `short:"c" long:"cmd" description:"command to invoke dynamically in interactive mode"`
	Interactive    bool     `short:"i" long:"interactive" description:"start in interactive (command) mode"`
	Color          string   `long:"color" description:"color configuration: [BASE,]COMPONENT:COLOR[:MODIFIER...][,...]"`
	NoHScroll      bool     `long:"no-hscroll" description:"disable horizontal scroll"`
	KeepRight      bool     `long:"keep-right" description:"keep the right end of the line visible on overflow"`
	SkipToPattern  string   `long:"skip-to-pattern" description:"line starts showing from the column the pattern matches"`
	NoClearIfEmpty bool     `long:"no-clear-if-empty" description:"do not clear previous items if a reload yields nothing"`
	ShowCmdError   bool     `long:"show-cmd-error" description:"show the command's stderr as items when it fails"`
	Cycle          bool     `long:"cycle" description:"enable cyclic scroll"`

	// Layout
	Layout    string `long:"layout" description:"layout: default|reverse|reverse-list"`
	Reverse   bool   `long:"reverse" description:"shorthand for --layout=reverse"`
	Height    string `long:"height" description:"display window height"`
	MinHeight string `long:"min-height" description:"minimum height of the display window"`
	Margin    string `long:"margin" description:"screen margin: TRBL / TB,RL / T,RL,B / T,R,B,L"`
	Prompt    string `short:"p" long:"prompt" description:"input prompt"`
	CmdPrompt string `long:"cmd-prompt" description:"command mode prompt"`

	// Display
	Ansi        bool   `long:"ansi" description:"parse ANSI color codes in the input"`
	Tabstop     int    `long:"tabstop" description:"number of spaces per tab"`
	InlineInfo  bool   `long:"inline-info" description:"display the finder info alongside the query"`
	Header      string `long:"header" description:"display the given string at the top of the list"`
	HeaderLines int    `long:"header-lines" description:"treat the first N lines of input as header"`

	// History
	History        string `long:"history" description:"query history file"`
	HistorySize    int    `long:"history-size" description:"maximum number of query history entries"`
	CmdHistory     string `long:"cmd-history" description:"command history file"`
	CmdHistorySize int    `long:"cmd-history-size" description:"maximum number of command history entries"`

	// Preview
	Preview       string `long:"preview" description:"command to preview the focused item"`
	PreviewWindow string `long:"preview-window" description:"preview window layout: POSITION[:SIZE][:hidden]"`

	// Scripting
	Query          string   `short:"q" long:"query" description:"initial query"`
	CmdQuery       string   `long:"cmd-query" description:"initial command query"`
	Expect         []string `long:"expect" description:"comma-separated list of keys that complete the finder"`
	Read0          bool     `long:"read0" description:"read input delimited by NUL"`
	Print0         bool     `long:"print0" description:"print output delimited by NUL"`
	PrintQuery     bool     `long:"print-query" description:"print the query as the first line"`
	PrintCmd       bool     `long:"print-cmd" description:"print the command query"`
	Select1        bool     `long:"select-1" description:"automatically select the only match"`
	Exit0          bool     `long:"exit-0" description:"exit immediately when there is no match"`
	Sync           bool     `long:"sync" description:"wait for all input before starting the finder"`
	PreSelectN     int      `long:"pre-select-n" description:"pre-select the first N items in multi-select mode"`
	PreSelectPat   string   `long:"pre-select-pat" description:"pre-select items matching the regex"`
	PreSelectItems string   `long:"pre-select-items" description:"newline-separated list of items to pre-select"`
	PreSelectFile  string   `long:"pre-select-file" description:"file with items to pre-select"`
	Filter         *string  `short:"f" long:"filter" description:"non-interactive filter mode"`
	Version        bool     `long:"version" description:"print version and exit"`
}

func defaultCliOptions() cliOptions {
	return cliOptions{
		Tiebreak:       "score,begin,end",
		Algo:           "skim_v2",
		Case:           "smart",
		Layout:         "default",
		Prompt:         "> ",
		CmdPrompt:      "c> ",
		Tabstop:        8,
		HistorySize:    defaultHistoryMax,
		CmdHistorySize: defaultHistoryMax,
		PreviewWindow:  "right:50%",
	}
}

// previewWindowOpts is the parsed --preview-window value
type previewWindowOpts struct {
	position string // up | down | left | right
	size     int
	relative bool // size is a percentage
	hidden   bool
	wrap     bool
}

// expectKey pairs a parsed chord with the name it is reported under
type expectKey struct {
	key  Key
	name string
}

// Options is the fully parsed configuration of one run
type Options struct {
	Version string

	Multi     bool
	Tac       bool
	Sort      bool
	Criteria  []RankCriterion
	Nth       []Range
	WithNth   []Range
	Delimiter Delimiter
	Exact     bool
	Regex     bool
	FuzzyAlgo algo.Algo
	Case      CaseMatching
	Normalize bool

	Keymap         map[Key][]action
	Interactive    bool
	Cmd            string
	Theme          *ColorTheme
	NoHScroll      bool
	KeepRight      bool
	SkipToPattern  *regexp.Regexp
	NoClearIfEmpty bool
	ShowCmdError   bool
	Cycle          bool

	Reverse   bool
	Height    string
	MinHeight string
	Margin    string
	Prompt    string
	CmdPrompt string

	Ansi        bool
	Tabstop     int
	InlineInfo  bool
	Header      string
	HeaderLines int

	History    *History
	CmdHistory *History

	Preview       string
	PreviewWindow previewWindowOpts

	Query      string
	CmdQuery   string
	Expect     []expectKey
	Read0      bool
	Print0     bool
	PrintQuery bool
	PrintCmd   bool
	Select1    bool
	Exit0      bool
	Sync       bool

	PreSelector *preSelector
	Filter      *string
}

// warn reports a bad option value and continues; startup parse errors do
// not abort the program, the offending spec is ignored
func warn(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "sk: "+format+"\n", args...)
}

// ParseOptions builds Options from, in increasing priority: the rc file,
// SKIM_DEFAULT_OPTIONS, and argv.
func ParseOptions(version string, args []string) (*Options, error) {
	raw := defaultCliOptions()
	applyConfig(&raw, loadConfig())

	parser := flags.NewParser(&raw, flags.HelpFlag|flags.PassDoubleDash)

	// go-flags reads a separate value starting with '-' as an option, so
	// "--tiebreak -score" is joined into "--tiebreak=-score" first
	joinTiebreak := func(args []string) []string {
		joined := make([]string, 0, len(args))
		for i := 0; i < len(args); i++ {
			if args[i] == "--tiebreak" && i+1 < len(args) {
				joined = append(joined, "--tiebreak="+args[i+1])
				i++
				continue
			}
			joined = append(joined, args[i])
		}
		return joined
	}

	if env := os.Getenv("SKIM_DEFAULT_OPTIONS"); len(env) > 0 {
		envArgs, err := shellwords.Parse(env)
		if err != nil {
			warn("invalid SKIM_DEFAULT_OPTIONS: %s", err)
		} else if _, err := parser.ParseArgs(joinTiebreak(envArgs)); err != nil {
			return nil, errors.Wrap(err, "invalid SKIM_DEFAULT_OPTIONS")
		}
	}

	if _, err := parser.ParseArgs(joinTiebreak(args)); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			fmt.Println(flagsErr.Message)
			os.Exit(ExitOk)
		}
		return nil, err
	}

	if raw.Version {
		fmt.Println(version)
		os.Exit(ExitOk)
	}

	return postProcessOptions(version, &raw)
}

func postProcessOptions(version string, raw *cliOptions) (*Options, error) {
	opts := &Options{
		Version:        version,
		Multi:          raw.Multi && !raw.NoMulti,
		Tac:            raw.Tac,
		Sort:           !raw.NoSort,
		Exact:          raw.Exact,
		Regex:          raw.Regex,
		Normalize:      raw.Normalize,
		Interactive:    raw.Interactive,
		Cmd:            raw.Cmd,
		NoHScroll:      raw.NoHScroll,
		KeepRight:      raw.KeepRight,
		NoClearIfEmpty: raw.NoClearIfEmpty,
		ShowCmdError:   raw.ShowCmdError,
		Cycle:          raw.Cycle,
		Height:         raw.Height,
		MinHeight:      raw.MinHeight,
		Margin:         raw.Margin,
		Prompt:         raw.Prompt,
		CmdPrompt:      raw.CmdPrompt,
		Ansi:           raw.Ansi,
		Tabstop:        raw.Tabstop,
		InlineInfo:     raw.InlineInfo,
		Header:         raw.Header,
		HeaderLines:    raw.HeaderLines,
		Preview:        raw.Preview,
		Query:          raw.Query,
		CmdQuery:       raw.CmdQuery,
		Read0:          raw.Read0,
		Print0:         raw.Print0,
		PrintQuery:     raw.PrintQuery,
		PrintCmd:       raw.PrintCmd,
		Select1:        raw.Select1,
		Exit0:          raw.Exit0,
		Sync:           raw.Sync,
		Filter:         raw.Filter,
	}

	opts.FuzzyAlgo = algo.Of(raw.Algo)
	if opts.Tabstop < 1 {
		opts.Tabstop = 8
	}

	switch strings.ToLower(raw.Case) {
	case "smart":
		opts.Case = CaseSmart
	case "ignore":
		opts.Case = CaseIgnore
	case "respect":
		opts.Case = CaseRespect
	default:
		warn("invalid case mode %q, using smart", raw.Case)
		opts.Case = CaseSmart
	}

	criteria, err := parseTiebreak(raw.Tiebreak)
	if err != nil {
		warn("%s", err)
		criteria, _ = parseTiebreak("score,begin,end")
	}
	opts.Criteria = criteria

	opts.Delimiter = parseDelimiter(raw.Delimiter)
	if len(raw.Nth) > 0 {
		if ranges, ok := splitNth(raw.Nth); ok {
			opts.Nth = ranges
		} else {
			warn("invalid field range expression: %s", raw.Nth)
		}
	}
	if len(raw.WithNth) > 0 {
		if ranges, ok := splitNth(raw.WithNth); ok {
			opts.WithNth = ranges
		} else {
			warn("invalid field range expression: %s", raw.WithNth)
		}
	}

	switch strings.ToLower(raw.Layout) {
	case "default", "":
	case "reverse", "reverse-list":
		opts.Reverse = true
	default:
		warn("invalid layout %q", raw.Layout)
	}
	if raw.Reverse {
		opts.Reverse = true
	}

	opts.Theme = buildTheme(raw.Color)

	opts.Keymap = defaultKeymap()
	for _, bind := range raw.Bind {
		if err := parseKeymap(opts.Keymap, bind); err != nil {
			warn("invalid binding ignored: %s", err)
		}
	}

	if len(raw.History) > 0 {
		history, err := NewHistory(raw.History, raw.HistorySize)
		if err != nil {
			return nil, err
		}
		opts.History = history
	}
	if len(raw.CmdHistory) > 0 {
		history, err := NewHistory(raw.CmdHistory, raw.CmdHistorySize)
		if err != nil {
			return nil, err
		}
		opts.CmdHistory = history
	}
	if opts.History != nil || opts.CmdHistory != nil {
		// History navigation takes over ctrl-p/ctrl-n
		opts.Keymap[ctrlKey('p')] = []action{{t: actPreviousHistory}}
		opts.Keymap[ctrlKey('n')] = []action{{t: actNextHistory}}
	}

	if len(raw.SkipToPattern) > 0 {
		re, err := regexp.Compile(raw.SkipToPattern)
		if err != nil {
			warn("invalid --skip-to-pattern ignored: %s", err)
		} else {
			opts.SkipToPattern = re
		}
	}

	opts.PreviewWindow = parsePreviewWindow(raw.PreviewWindow)

	for _, expect := range raw.Expect {
		for _, keyName := range strings.Split(expect, ",") {
			if len(keyName) == 0 {
				continue
			}
			key, err := parseKeySpec(keyName)
			if err != nil {
				warn("invalid --expect key ignored: %s", err)
				continue
			}
			opts.Expect = append(opts.Expect, expectKey{key: key, name: keyName})
		}
	}

	preSelItems := []string{}
	if len(raw.PreSelectItems) > 0 {
		preSelItems = strings.Split(raw.PreSelectItems, "\n")
	}
	preSelector, err := newPreSelector(raw.PreSelectN, raw.PreSelectPat, preSelItems, raw.PreSelectFile)
	if err != nil {
		warn("%s", err)
	} else {
		opts.PreSelector = preSelector
	}

	if opts.Interactive && len(opts.Cmd) == 0 {
		opts.Cmd = os.Getenv("SKIM_DEFAULT_COMMAND")
		if len(opts.Cmd) == 0 {
			opts.Cmd = defaultCommand
		}
	}

	return opts, nil
}

// buildTheme resolves --color and NO_COLOR
func buildTheme(spec string) *ColorTheme {
	if len(os.Getenv("NO_COLOR")) > 0 {
		return defaultThemeBW()
	}
	if len(spec) == 0 {
		return defaultThemeDark()
	}
	theme, err := parseTheme(spec)
	if err != nil {
		warn("invalid color specification ignored: %s", err)
		return defaultThemeDark()
	}
	return theme
}

// parseDelimiter treats a single character as a literal delimiter and
// anything longer as a regular expression, like the field splitter of awk
func parseDelimiter(str string) Delimiter {
	delimiter := Delimiter{}
	if len(str) == 0 {
		return delimiter
	}
	str = unescapeDelimiter(str)
	if len(str) == 1 {
		delimiter.str = &str
		return delimiter
	}
	re, err := regexp.Compile(str)
	if err != nil {
		warn("invalid delimiter %q taken literally", str)
		delimiter.str = &str
		return delimiter
	}
	delimiter.regex = re
	return delimiter
}

// unescapeDelimiter handles \t, \n, \r, \\ and \xNN escapes
func unescapeDelimiter(s string) string {
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			out.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case 't':
			out.WriteByte('\t')
			i++
		case 'n':
			out.WriteByte('\n')
			i++
		case 'r':
			out.WriteByte('\r')
			i++
		case '\\':
			out.WriteByte('\\')
			i++
		case 'x':
			if i+3 < len(s) {
				if b, err := strconv.ParseUint(s[i+2:i+4], 16, 8); err == nil {
					out.WriteByte(byte(b))
					i += 3
					continue
				}
			}
			out.WriteByte(s[i])
		default:
			out.WriteByte(s[i])
		}
	}
	return out.String()
}

func parsePreviewWindow(spec string) previewWindowOpts {
	opts := previewWindowOpts{position: "right", size: 50, relative: true}
	for _, token := range strings.Split(spec, ":") {
		switch token {
		case "":
		case "up", "down", "left", "right":
			opts.position = token
		case "hidden":
			opts.hidden = true
		case "wrap":
			opts.wrap = true
		default:
			relative := strings.HasSuffix(token, "%")
			numStr := strings.TrimSuffix(token, "%")
			if size, err := strconv.Atoi(numStr); err == nil && size > 0 {
				opts.size = size
				opts.relative = relative
			} else {
				warn("invalid preview window option: %s", token)
			}
		}
	}
	return opts
}
