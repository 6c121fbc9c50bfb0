package skim

import (
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/skim-go/skim/src/util"
)

var spinnerFrames = []rune{'-', '\\', '|', '/'}

// Terminal owns the interactive surface: the screen, the query line, the
// match list, the preview pane, and the keymap dispatch. The coordinator
// pushes list/count updates in; the terminal pushes search, reload and quit
// events out through the event box.
type Terminal struct {
	opts     *Options
	theme    *ColorTheme
	eventBox *util.EventBox
	pool     *ItemPool

	screen    tcell.Screen
	events    chan tcell.Event
	reqChan   chan struct{}
	startChan chan bool

	mutex          sync.Mutex
	reading        bool
	matcherRunning bool
	processed      int
	listStale      bool
	readError      string

	input     *Input
	selection *Selection
	keymap    map[Key][]action

	previewer     *Previewer
	previewLines  []string
	previewOffset int
	previewHidden bool
	previewTimer  *time.Timer

	pressed  string
	quitting bool

	spinnerFrame int
}

// NewTerminal returns a Terminal wired to the event box
func NewTerminal(opts *Options, eventBox *util.EventBox, pool *ItemPool) *Terminal {
	t := &Terminal{
		opts:          opts,
		theme:         opts.Theme,
		eventBox:      eventBox,
		pool:          pool,
		events:        make(chan tcell.Event, 128),
		reqChan:       make(chan struct{}, 1),
		startChan:     make(chan bool, 1),
		reading:       true,
		input:         NewInput(opts.Prompt, opts.Query, opts.CmdPrompt, opts.CmdQuery, opts.Interactive),
		selection:     NewSelection(opts.Multi, opts.Cycle, opts.PreSelector),
		keymap:        opts.Keymap,
		previewHidden: opts.PreviewWindow.hidden,
	}
	if len(opts.Preview) > 0 {
		t.previewer = NewPreviewer(func(version int64, lines []string) {
			t.mutex.Lock()
			t.previewLines = lines
			t.previewOffset = 0
			t.mutex.Unlock()
			t.requestRedraw()
		})
	}
	return t
}

// Start releases the deferred start gate
func (t *Terminal) Start() {
	select {
	case t.startChan <- true:
	default:
	}
}

// CancelStart unblocks Loop without ever opening the screen; used when
// --select-1/--exit-0 finish the run early
func (t *Terminal) CancelStart() {
	select {
	case t.startChan <- false:
	default:
	}
}

// MatchCount returns the current number of matches
func (t *Terminal) MatchCount() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.selection.Len()
}

// AcceptFirst finishes the run accepting the best match (--select-1)
func (t *Terminal) AcceptFirst() {
	t.accept("")
}

// AbortEmpty finishes the run with no selection (--exit-0)
func (t *Terminal) AbortEmpty() {
	t.mutex.Lock()
	t.selection.ReplaceItems(nil)
	t.mutex.Unlock()
	t.accept("")
}

func (t *Terminal) requestRedraw() {
	select {
	case t.reqChan <- struct{}{}:
	default:
	}
}

// UpdateCount is called by the coordinator on reader progress
func (t *Terminal) UpdateCount(finished bool) {
	t.mutex.Lock()
	t.reading = !finished
	t.mutex.Unlock()
	t.requestRedraw()
}

// UpdateProgress is called on matcher progress
func (t *Terminal) UpdateProgress(control *MatcherControl) {
	t.mutex.Lock()
	t.processed = control.NumProcessed()
	t.matcherRunning = !control.Stopped()
	t.mutex.Unlock()
	t.requestRedraw()
}

// UpdateError surfaces a reader failure on the info line
func (t *Terminal) UpdateError(err error) {
	t.mutex.Lock()
	t.readError = err.Error()
	t.mutex.Unlock()
	t.requestRedraw()
}

// UpdateList publishes a new match list; with replace false the items are
// appended (incremental scan of the pool tail)
func (t *Terminal) UpdateList(items []*MatchedItem, replace bool) {
	t.mutex.Lock()
	if replace {
		t.selection.ReplaceItems(items)
	} else {
		t.selection.AppendItems(items)
		if t.opts.Sort {
			sortMatchedItems(t.selection.items, t.opts.Tac)
		}
	}
	t.matcherRunning = false
	t.listStale = false
	t.mutex.Unlock()
	t.requestRedraw()
	t.schedulePreview()
}

// MarkStale keeps the old list on screen through an interactive reload
// (--no-clear-if-empty)
func (t *Terminal) MarkStale() {
	t.mutex.Lock()
	t.listStale = true
	t.mutex.Unlock()
}

// Loop runs the terminal until accept or abort. It waits for the start gate
// first so that --select-1/--exit-0 can finish without ever opening the
// screen.
func (t *Terminal) Loop() {
	if started := <-t.startChan; !started {
		return
	}

	screen, err := tcell.NewScreen()
	if err == nil {
		err = screen.Init()
	}
	if err != nil {
		t.eventBox.Set(EvtQuit, quitRequest{code: ExitError, err: err})
		return
	}
	t.screen = screen

	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			t.events <- ev
		}
	}()

	t.schedulePreview()
	t.render()

	for !t.quitting {
		select {
		case ev := <-t.events:
			switch tev := ev.(type) {
			case *tcell.EventKey:
				t.handleKey(tev)
			case *tcell.EventResize:
				screen.Sync()
			}
		case <-t.reqChan:
		case <-time.After(heartbeatInterval):
			t.mutex.Lock()
			t.spinnerFrame++
			t.mutex.Unlock()
		}
		if !t.quitting {
			t.render()
		}
	}
}

//------------------------------------------------------------------------------
// Key handling

func keyFromEvent(ev *tcell.EventKey) Key {
	alt := ev.Modifiers()&tcell.ModAlt != 0

	switch ev.Key() {
	case tcell.KeyRune:
		if ev.Rune() == ' ' {
			return Key{Type: keySpace, Alt: alt}
		}
		return Key{Type: keyRune, Char: ev.Rune(), Alt: alt}
	case tcell.KeyEnter:
		return Key{Type: keyEnter, Alt: alt}
	case tcell.KeyEsc:
		return Key{Type: keyEsc, Alt: alt}
	case tcell.KeyTab:
		return Key{Type: keyTab, Alt: alt}
	case tcell.KeyBacktab:
		return Key{Type: keyBTab, Alt: alt}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if alt {
			return altKey('\x7f')
		}
		return Key{Type: keyBackspace}
	case tcell.KeyDelete:
		return Key{Type: keyDelete, Alt: alt}
	case tcell.KeyUp:
		return Key{Type: keyUp, Alt: alt}
	case tcell.KeyDown:
		return Key{Type: keyDown, Alt: alt}
	case tcell.KeyLeft:
		return Key{Type: keyLeft, Alt: alt}
	case tcell.KeyRight:
		return Key{Type: keyRight, Alt: alt}
	case tcell.KeyHome:
		return Key{Type: keyHome, Alt: alt}
	case tcell.KeyEnd:
		return Key{Type: keyEnd, Alt: alt}
	case tcell.KeyPgUp:
		return Key{Type: keyPgUp, Alt: alt}
	case tcell.KeyPgDn:
		return Key{Type: keyPgDn, Alt: alt}
	case tcell.KeyF1, tcell.KeyF2, tcell.KeyF3, tcell.KeyF4, tcell.KeyF5, tcell.KeyF6,
		tcell.KeyF7, tcell.KeyF8, tcell.KeyF9, tcell.KeyF10, tcell.KeyF11, tcell.KeyF12:
		return Key{Type: keyF1 + keyType(ev.Key()-tcell.KeyF1)}
	}

	// Control characters arrive as dedicated key codes
	if ev.Key() >= tcell.KeyCtrlA && ev.Key() <= tcell.KeyCtrlZ {
		return Key{Type: keyRune, Char: rune('a' + ev.Key() - tcell.KeyCtrlA), Ctrl: true, Alt: alt}
	}
	if ev.Key() == tcell.KeyCtrlSpace {
		return Key{Type: keySpace, Ctrl: true}
	}
	return Key{Type: keyRune, Char: ev.Rune(), Alt: alt}
}

func (t *Terminal) handleKey(ev *tcell.EventKey) {
	key := keyFromEvent(ev)

	for _, expect := range t.opts.Expect {
		if key == expect.key {
			t.pressed = expect.name
			t.accept("")
			return
		}
	}

	if chain, found := t.keymap[key]; found {
		t.executeChain(chain)
		return
	}

	if key.Type == keyRune && !key.Ctrl && !key.Alt && key.Char != 0 {
		t.input.Insert(key.Char)
		t.onQueryChanged()
	} else if key.Type == keySpace && !key.Ctrl {
		t.input.Insert(' ')
		t.onQueryChanged()
	}
}

//------------------------------------------------------------------------------
// Action dispatch

// vmove converts a visual direction (+1 = up) into a list-position delta.
// In the default bottom-anchored layout the list grows upward, so visually
// up means the next position.
func (t *Terminal) vmove(dir int, lines int) {
	if t.opts.Reverse {
		dir = -dir
	}
	t.mutex.Lock()
	t.selection.MoveBy(dir * lines)
	t.mutex.Unlock()
	t.schedulePreview()
}

func (t *Terminal) executeChain(chain []action) {
	for _, act := range chain {
		if t.executeAction(act) {
			return
		}
	}
}

// executeAction runs one action; it reports true when the loop should stop
// processing the chain (accept/abort)
func (t *Terminal) executeAction(act action) bool {
	switch act.t {
	case actIgnore:
	case actAbort:
		t.abort()
		return true
	case actAccept:
		t.accept(act.a)
		return true

	case actUp:
		t.vmove(1, 1)
	case actDown:
		t.vmove(-1, 1)
	case actPageUp:
		t.vmove(1, util.Max(1, t.listHeight()-1))
	case actPageDown:
		t.vmove(-1, util.Max(1, t.listHeight()-1))
	case actHalfPageUp:
		t.vmove(1, util.Max(1, t.listHeight()/2))
	case actHalfPageDown:
		t.vmove(-1, util.Max(1, t.listHeight()/2))
	case actTop:
		t.withSelection(func(s *Selection) { s.JumpToFirst() })
		t.schedulePreview()
	case actBottom:
		t.withSelection(func(s *Selection) { s.JumpToLast() })
		t.schedulePreview()
	case actScrollLeft:
		t.withSelection(func(s *Selection) { s.ScrollHorizontally(-1) })
	case actScrollRight:
		t.withSelection(func(s *Selection) { s.ScrollHorizontally(1) })

	case actToggle:
		t.withSelection(func(s *Selection) { s.Toggle() })
	case actToggleAll:
		t.withSelection(func(s *Selection) { s.ToggleAll() })
	case actSelectAll:
		t.withSelection(func(s *Selection) { s.SelectAll() })
	case actSelect:
		t.withSelection(func(s *Selection) { s.Select() })
	case actDeselectAll:
		t.withSelection(func(s *Selection) { s.DeselectAll() })
	case actAppendAndSelect:
		t.appendAndSelect()

	case actBackwardChar:
		t.input.MoveCursor(-1)
	case actForwardChar:
		t.input.MoveCursor(1)
	case actBackwardWord:
		t.input.MoveBackwardWord()
	case actForwardWord:
		t.input.MoveForwardWord()
	case actBeginningOfLine:
		t.input.MoveToStart()
	case actEndOfLine:
		t.input.MoveToEnd()

	case actBackwardDeleteChar:
		if t.input.Delete(-1) {
			t.onQueryChanged()
		}
	case actDeleteChar:
		if t.input.Delete(1) {
			t.onQueryChanged()
		}
	case actDeleteCharEOF:
		if t.input.IsEmpty() {
			t.abort()
			return true
		}
		if t.input.Delete(1) {
			t.onQueryChanged()
		}
	case actBackwardKillWord:
		if len(t.input.DeleteBackwardWord()) > 0 {
			t.onQueryChanged()
		}
	case actUnixWordRubout:
		if len(t.input.DeleteBackwardToWhitespace()) > 0 {
			t.onQueryChanged()
		}
	case actKillWord:
		if len(t.input.DeleteForwardWord()) > 0 {
			t.onQueryChanged()
		}
	case actUnixLineDiscard:
		if len(t.input.DeleteToBeginning()) > 0 {
			t.onQueryChanged()
		}
	case actKillLine:
		if len(t.input.KillLine()) > 0 {
			t.onQueryChanged()
		}
	case actYank:
		t.input.Yank()
		t.onQueryChanged()

	case actToggleInteractive:
		t.input.ToggleMode()
		t.onQueryChanged()
	case actRotateMode:
		t.opts.Regex = !t.opts.Regex
		t.onQueryChanged()
	case actToggleSort:
		t.opts.Sort = !t.opts.Sort
		t.onQueryChanged()

	case actTogglePreview:
		t.mutex.Lock()
		t.previewHidden = !t.previewHidden
		t.mutex.Unlock()
		t.schedulePreview()
	case actPreviewUp:
		t.scrollPreview(-1)
	case actPreviewDown:
		t.scrollPreview(1)
	case actPreviewPageUp:
		t.scrollPreview(-t.listHeight())
	case actPreviewPageDown:
		t.scrollPreview(t.listHeight())

	case actPreviousHistory:
		t.navigateHistory(true)
	case actNextHistory:
		t.navigateHistory(false)

	case actExecute:
		t.executeCommand(act.a, true)
	case actExecuteSilent:
		t.executeCommand(act.a, false)
	case actReload:
		t.eventBox.Set(EvtReload, reloadRequest{command: t.expand(act.a)})
	case actPreview:
		if t.previewer != nil {
			t.previewer.Request(t.expand(act.a))
		}
	case actSetQuery:
		t.input.SetValue(t.expand(act.a))
		t.onQueryChanged()

	case actIfQueryEmpty:
		if t.input.IsEmpty() {
			t.executeChain(act.chain)
		}
	case actIfQueryNotEmpty:
		if !t.input.IsEmpty() {
			t.executeChain(act.chain)
		}
	case actIfNonMatched:
		if t.selection.Len() == 0 {
			t.executeChain(act.chain)
		}

	case actRedraw:
		if t.screen != nil {
			t.screen.Sync()
		}
	}
	return false
}

func (t *Terminal) withSelection(f func(*Selection)) {
	t.mutex.Lock()
	f(t.selection)
	t.mutex.Unlock()
}

// onQueryChanged is the single funnel for query edits: in command mode it
// reloads the underlying command, otherwise it restarts the matcher
func (t *Terminal) onQueryChanged() {
	if t.input.InCmdMode() && t.opts.Interactive {
		t.eventBox.Set(EvtReload, reloadRequest{command: t.expand(t.opts.Cmd)})
		return
	}
	if history := t.activeHistory(); history != nil {
		history.override(t.input.String())
	}
	t.eventBox.Set(EvtSearchNew, searchRequest{query: t.input.Query(), rescan: true})
}

func (t *Terminal) activeHistory() *History {
	if t.input.InCmdMode() {
		return t.opts.CmdHistory
	}
	return t.opts.History
}

func (t *Terminal) navigateHistory(previous bool) {
	history := t.activeHistory()
	if history == nil {
		return
	}
	if previous {
		t.input.SetValue(history.previous())
	} else {
		t.input.SetValue(history.next())
	}
	t.onQueryChanged()
}

func (t *Terminal) appendAndSelect() {
	query := t.input.String()
	if len(query) == 0 {
		return
	}
	item := buildItem([]byte(query), math.MaxInt32, &itemOpts{})
	mi := &MatchedItem{item: item}
	t.mutex.Lock()
	t.selection.AppendItems([]*MatchedItem{mi})
	t.selection.JumpToLast()
	if t.selection.multi {
		t.selection.add(mi)
	}
	t.mutex.Unlock()
}

// expand runs a command template through the placeholder layer with the
// current focus, selection and queries
func (t *Terminal) expand(template string) string {
	t.mutex.Lock()
	var current *Item
	if mi := t.selection.Current(); mi != nil {
		current = mi.item
	}
	selectedMatches := t.selection.Selected()
	t.mutex.Unlock()

	selected := make([]*Item, len(selectedMatches))
	for i, mi := range selectedMatches {
		selected[i] = mi.item
	}
	return expandCommand(template, &expandContext{
		query:     t.input.Query(),
		cmdQuery:  t.input.CmdQuery(),
		current:   current,
		selected:  selected,
		delimiter: t.opts.Delimiter,
		stripAnsi: t.opts.Ansi,
	})
}

// executeCommand suspends the screen for interactive commands
func (t *Terminal) executeCommand(template string, withStdio bool) {
	command := t.expand(template)
	cmd := util.ExecCommand(command)
	if withStdio && t.screen != nil {
		t.screen.Suspend()
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.Run()
		t.screen.Resume()
	} else {
		cmd.Run()
	}
}

// schedulePreview debounces preview respawn on focus change
func (t *Terminal) schedulePreview() {
	if t.previewer == nil {
		return
	}
	t.mutex.Lock()
	if t.previewHidden {
		t.mutex.Unlock()
		return
	}
	if t.previewTimer != nil {
		t.previewTimer.Stop()
	}
	t.previewTimer = time.AfterFunc(previewDebounce, func() {
		t.previewer.Request(t.expand(t.opts.Preview))
	})
	t.mutex.Unlock()
}

func (t *Terminal) scrollPreview(n int) {
	t.mutex.Lock()
	t.previewOffset = util.Constrain(t.previewOffset+n, 0, util.Max(0, len(t.previewLines)-1))
	t.mutex.Unlock()
}

//------------------------------------------------------------------------------
// Accept / abort

func (t *Terminal) accept(keyName string) {
	if len(keyName) > 0 {
		t.pressed = keyName
	}
	t.quit(false)
}

func (t *Terminal) abort() {
	t.quit(true)
}

// quit assembles the final output lines in the order the contract fixes:
// query, command query, expect key, then the selected items in the order
// they were chosen
func (t *Terminal) quit(isAbort bool) {
	t.quitting = true

	output := []string{}
	if t.opts.PrintQuery {
		output = append(output, t.input.Query())
	}
	if t.opts.PrintCmd {
		output = append(output, t.input.CmdQuery())
	}
	if len(t.opts.Expect) > 0 {
		output = append(output, t.pressed)
	}

	code := ExitInterrupt
	if !isAbort {
		t.mutex.Lock()
		selected := t.selection.Selected()
		if len(selected) == 0 {
			if current := t.selection.Current(); current != nil {
				selected = []*MatchedItem{current}
			}
		}
		t.mutex.Unlock()

		if len(selected) > 0 {
			code = ExitOk
		} else {
			code = ExitNoMatch
		}
		for _, mi := range selected {
			output = append(output, mi.item.Output())
		}
	}

	if t.previewer != nil {
		t.previewer.Stop()
	}
	if t.screen != nil {
		t.screen.Fini()
	}
	t.eventBox.Set(EvtQuit, quitRequest{
		code:     code,
		output:   output,
		query:    t.input.Query(),
		cmdQuery: t.input.CmdQuery(),
	})
}

//------------------------------------------------------------------------------
// Rendering

func (t *Terminal) style(attr themeAttr) tcell.Style {
	style := tcell.StyleDefault.
		Foreground(themeColor(attr.fg)).
		Background(themeColor(attr.bg))
	if attr.attr&AttrBold > 0 {
		style = style.Bold(true)
	}
	if attr.attr&AttrDim > 0 {
		style = style.Dim(true)
	}
	if attr.attr&AttrItalic > 0 {
		style = style.Italic(true)
	}
	if attr.attr&AttrUnderline > 0 {
		style = style.Underline(true)
	}
	if attr.attr&AttrBlink > 0 {
		style = style.Blink(true)
	}
	if attr.attr&AttrReverse > 0 {
		style = style.Reverse(true)
	}
	return style
}

func themeColor(c Color) tcell.Color {
	switch {
	case c < 0:
		return tcell.ColorDefault
	case c.is24():
		return tcell.NewHexColor(int32(c) & 0xffffff)
	default:
		return tcell.PaletteColor(int(c))
	}
}

// listHeight returns the number of rows available to the match list
func (t *Terminal) listHeight() int {
	if t.screen == nil {
		return 10
	}
	_, height := t.screen.Size()
	reserved := 2 // prompt + info
	if t.opts.InlineInfo {
		reserved = 1
	}
	if len(t.opts.Header) > 0 {
		reserved++
	}
	reserved += len(t.pool.Reserved())
	if t.previewVisible() && (t.opts.PreviewWindow.position == "up" || t.opts.PreviewWindow.position == "down") {
		reserved += t.previewHeight(height)
	}
	return util.Max(1, height-reserved)
}

func (t *Terminal) previewVisible() bool {
	return t.previewer != nil && !t.previewHidden
}

func (t *Terminal) previewHeight(total int) int {
	if t.opts.PreviewWindow.relative {
		return util.Max(1, total*t.opts.PreviewWindow.size/100)
	}
	return util.Min(total, t.opts.PreviewWindow.size)
}

func (t *Terminal) previewWidth(total int) int {
	if t.opts.PreviewWindow.relative {
		return util.Max(1, total*t.opts.PreviewWindow.size/100)
	}
	return util.Min(total, t.opts.PreviewWindow.size)
}

func (t *Terminal) render() {
	if t.screen == nil {
		return
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()

	screen := t.screen
	screen.Clear()
	width, height := screen.Size()
	if width <= 0 || height <= 0 {
		return
	}

	pv := t.previewVisible()
	pvPos := t.opts.PreviewWindow.position
	switch {
	case pv && (pvPos == "left" || pvPos == "right"):
		pw := t.previewWidth(width)
		listWidth := width - pw - 1
		if pvPos == "right" {
			t.renderPreview(listWidth+1, 0, pw, height)
			t.renderMainRows(0, 0, listWidth, height)
		} else {
			t.renderPreview(0, 0, pw, height)
			t.renderMainRows(pw+1, 0, listWidth, height)
		}
	case pv && pvPos == "up":
		ph := t.previewHeight(height)
		t.renderPreview(0, 0, width, ph)
		t.renderMainRows(0, ph, width, height-ph)
	case pv && pvPos == "down":
		ph := t.previewHeight(height)
		t.renderPreview(0, height-ph, width, ph)
		t.renderMainRows(0, 0, width, height-ph)
	default:
		t.renderMainRows(0, 0, width, height)
	}
	screen.Show()
}

// renderMainRows lays the prompt, info, header and list into the given
// region; the default layout anchors the prompt at the bottom, reverse at
// the top
func (t *Terminal) renderMainRows(x0 int, y0 int, width int, height int) {
	reverse := t.opts.Reverse

	// Row assignment from the prompt outward
	rows := make([]int, height)
	for i := range rows {
		if reverse {
			rows[i] = y0 + i
		} else {
			rows[i] = y0 + height - 1 - i
		}
	}

	row := 0
	t.renderPrompt(x0, rows[row], width)
	row++
	if !t.opts.InlineInfo && row < height {
		t.renderInfo(x0, rows[row], width)
		row++
	}
	if len(t.opts.Header) > 0 && row < height {
		t.drawLine(x0, rows[row], width, t.opts.Header, t.style(t.theme.header))
		row++
	}
	for _, item := range t.pool.Reserved() {
		if row >= height {
			break
		}
		t.drawLine(x0+2, rows[row], width-2, item.Text(), t.style(t.theme.header))
		row++
	}

	listRows := height - row
	offset := t.selection.updateOffset(listRows)
	items := t.selection.items
	for i := 0; i < listRows && offset+i < len(items); i++ {
		t.renderItem(x0, rows[row+i], width, items[offset+i], offset+i == t.selection.cursor)
	}
}

func (t *Terminal) renderPrompt(x0 int, y int, width int) {
	prompt := t.input.Prompt()
	x := x0
	x = t.drawText(x, y, x0+width, prompt, t.style(t.theme.prompt))
	before := string(t.input.value[:t.input.cursor])
	after := string(t.input.value[t.input.cursor:])
	x = t.drawText(x, y, x0+width, before, t.style(t.theme.query))
	cursorX := x
	t.drawText(x, y, x0+width, after, t.style(t.theme.query))
	if t.opts.InlineInfo {
		infoX := x + runewidth.StringWidth(after) + 2
		t.renderInfo(infoX, y, x0+width-infoX)
	}
	t.screen.ShowCursor(cursorX, y)
}

func (t *Terminal) renderInfo(x0 int, y int, width int) {
	if width <= 0 {
		return
	}
	if len(t.readError) > 0 {
		t.drawLine(x0+2, y, width-2, "[error] "+t.readError, t.style(t.theme.info))
		return
	}

	matched := t.selection.Len()
	total := t.pool.Len()
	info := fmt.Sprintf("%d/%d", matched, total)
	if t.opts.Multi && t.selection.NumSelected() > 0 {
		info += fmt.Sprintf(" (%d)", t.selection.NumSelected())
	}
	if t.opts.Regex {
		info += " [re]"
	}
	if t.input.InCmdMode() {
		info += " [cmd]"
	}

	x := x0
	if t.reading || t.matcherRunning {
		frame := spinnerFrames[t.spinnerFrame%len(spinnerFrames)]
		t.drawText(x, y, x0+width, string(frame)+" ", t.style(t.theme.spinner))
		x += 2
	} else {
		x += 2
	}
	t.drawText(x, y, x0+width, info, t.style(t.theme.info))
}

func (t *Terminal) renderItem(x0 int, y int, width int, mi *MatchedItem, current bool) {
	// Pointer and marker columns
	pointerStyle := t.style(t.theme.cursor)
	markerStyle := t.style(t.theme.selected)
	if current {
		t.drawText(x0, y, x0+width, ">", pointerStyle)
	}
	if t.selection.IsSelected(mi.item.Index()) {
		t.drawText(x0+1, y, x0+width, ">", markerStyle)
	}

	baseStyle := t.style(t.theme.normal)
	matchStyle := t.style(t.theme.matched)
	if current {
		baseStyle = t.style(t.theme.current)
		matchStyle = t.style(t.theme.currentMatch)
	}

	text := []rune(mi.item.Text())
	positions := mi.CharPositions()
	matchSet := make(map[int]bool, len(positions))
	for _, p := range positions {
		matchSet[p] = true
	}

	// Horizontal pan in display-width coordinates
	colWidth := width - 2
	matchBegin, matchEnd := mi.charSpan()
	beginW := displayWidth(text[:util.Constrain(matchBegin, 0, len(text))], t.opts.Tabstop, 0)
	endW := displayWidth(text[:util.Constrain(matchEnd, 0, len(text))], t.opts.Tabstop, 0)
	fullW := displayWidth(text, t.opts.Tabstop, 0)
	skipW := 0
	if t.opts.SkipToPattern != nil {
		if loc := t.opts.SkipToPattern.FindStringIndex(mi.item.Text()); loc != nil {
			prefix := []rune(mi.item.Text()[:loc[0]])
			skipW = displayWidth(prefix, t.opts.Tabstop, 0)
		}
	}
	manual := 0
	if current {
		manual = t.selection.ManualHScroll()
	}
	hs := calcHScroll(fullW, colWidth, beginW, endW, manual,
		t.opts.NoHScroll, t.opts.KeepRight, skipW)

	// Resolve per-character styling: item ANSI spans under match highlight
	x := x0 + 2
	col := 0
	limit := x0 + width
	for idx, r := range text {
		rw := runewidth.RuneWidth(r)
		if r == '\t' {
			rw = t.opts.Tabstop - col%t.opts.Tabstop
			r = ' '
		}
		if col+rw <= hs.shift {
			col += rw
			continue
		}
		col += rw
		if x >= limit {
			break
		}
		style := baseStyle
		if ansiStyle, found := t.itemStyleAt(mi.item, idx, current); found {
			style = ansiStyle
		}
		if matchSet[idx] {
			style = matchStyle
		}
		for i := 0; i < rw && x < limit; i++ {
			t.screen.SetContent(x, y, r, nil, style)
			x++
			r = ' '
		}
	}

	overflow := t.style(t.theme.info)
	if hs.leftOverflow {
		t.drawText(x0+2, y, limit, "..", overflow)
	}
	if hs.rightOverflow && limit >= 2 {
		t.drawText(limit-2, y, limit, "..", overflow)
	}
}

// itemStyleAt maps the item's ANSI spans back onto the display text
func (t *Terminal) itemStyleAt(item *Item, charIdx int, current bool) (tcell.Style, bool) {
	for _, span := range item.Colors() {
		if int32(charIdx) >= span.offset[0] && int32(charIdx) < span.offset[1] {
			attr := themeAttr{fg: span.color.fg, bg: span.color.bg, attr: span.color.attr}
			if current && attr.bg < 0 {
				attr.bg = t.theme.current.bg
			}
			return t.style(attr), true
		}
	}
	return tcell.StyleDefault, false
}

func (t *Terminal) renderPreview(x0 int, y0 int, width int, height int) {
	border := t.style(t.theme.border)
	for y := y0; y < y0+height; y++ {
		t.screen.SetContent(x0, y, '│', nil, border)
	}
	textX := x0 + 2
	for i := 0; i < height; i++ {
		lineIdx := t.previewOffset + i
		if lineIdx >= len(t.previewLines) {
			break
		}
		line, _, _ := extractColor(t.previewLines[lineIdx], nil)
		t.drawLine(textX, y0+i, width-2, line, t.style(t.theme.normal))
	}
}

func (t *Terminal) drawLine(x int, y int, width int, text string, style tcell.Style) {
	t.drawText(x, y, x+width, text, style)
}

// drawText writes the string and returns the next column
func (t *Terminal) drawText(x int, y int, limit int, text string, style tcell.Style) int {
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if x+w > limit {
			break
		}
		t.screen.SetContent(x, y, r, nil, style)
		x += w
	}
	return x
}
