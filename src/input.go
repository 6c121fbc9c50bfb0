package skim

import (
	"unicode"
)

// Input is the editable query line. It keeps two parallel buffers so that
// interactive mode can flip between the filter query and the command query
// without losing either.
type Input struct {
	prompt string
	value  []rune
	cursor int

	altPrompt string
	altValue  []rune
	altCursor int

	// cmdMode is true while the primary buffer is the command query
	cmdMode bool

	yankRegister []rune
}

// NewInput returns an Input holding the query and command-query buffers.
// With startInCmdMode the command query is the active buffer.
func NewInput(prompt string, query string, cmdPrompt string, cmdQuery string, startInCmdMode bool) *Input {
	in := &Input{
		prompt:    prompt,
		value:     []rune(query),
		altPrompt: cmdPrompt,
		altValue:  []rune(cmdQuery),
	}
	in.cursor = len(in.value)
	in.altCursor = len(in.altValue)
	if startInCmdMode {
		in.ToggleMode()
	}
	return in
}

// String returns the active buffer
func (in *Input) String() string {
	return string(in.value)
}

// Query returns the filter query regardless of the active mode
func (in *Input) Query() string {
	if in.cmdMode {
		return string(in.altValue)
	}
	return string(in.value)
}

// CmdQuery returns the command query regardless of the active mode
func (in *Input) CmdQuery() string {
	if in.cmdMode {
		return string(in.value)
	}
	return string(in.altValue)
}

// Prompt returns the active prompt
func (in *Input) Prompt() string {
	return in.prompt
}

// Cursor returns the character position of the cursor; it always sits on a
// rune boundary because the buffer is a rune slice
func (in *Input) Cursor() int {
	return in.cursor
}

// InCmdMode reports whether the command query is active
func (in *Input) InCmdMode() bool {
	return in.cmdMode
}

// IsEmpty reports whether the active buffer is empty
func (in *Input) IsEmpty() bool {
	return len(in.value) == 0
}

// ToggleMode swaps (prompt, value, cursor) with the parallel buffer
func (in *Input) ToggleMode() {
	in.prompt, in.altPrompt = in.altPrompt, in.prompt
	in.value, in.altValue = in.altValue, in.value
	in.cursor, in.altCursor = in.altCursor, in.cursor
	in.cmdMode = !in.cmdMode
}

// SetValue replaces the active buffer and moves the cursor to its end
func (in *Input) SetValue(str string) {
	in.value = []rune(str)
	in.cursor = len(in.value)
}

// Insert adds a character at the cursor
func (in *Input) Insert(r rune) {
	in.value = append(in.value[:in.cursor], append([]rune{r}, in.value[in.cursor:]...)...)
	in.cursor++
}

// InsertString adds a string at the cursor
func (in *Input) InsertString(str string) {
	runes := []rune(str)
	in.value = append(in.value[:in.cursor], append(runes, in.value[in.cursor:]...)...)
	in.cursor += len(runes)
}

// Delete removes one character backward (n < 0) or forward (n > 0) and
// reports whether anything changed
func (in *Input) Delete(n int) bool {
	if n < 0 {
		if in.cursor == 0 {
			return false
		}
		in.value = append(in.value[:in.cursor-1], in.value[in.cursor:]...)
		in.cursor--
		return true
	}
	if in.cursor >= len(in.value) {
		return false
	}
	in.value = append(in.value[:in.cursor], in.value[in.cursor+1:]...)
	return true
}

// MoveCursor moves the cursor by n characters, clamped to the buffer
func (in *Input) MoveCursor(n int) {
	in.cursor += n
	if in.cursor < 0 {
		in.cursor = 0
	}
	if in.cursor > len(in.value) {
		in.cursor = len(in.value)
	}
}

// MoveToStart moves the cursor to the beginning of the line
func (in *Input) MoveToStart() {
	in.cursor = 0
}

// MoveToEnd moves the cursor to the end of the line
func (in *Input) MoveToEnd() {
	in.cursor = len(in.value)
}

// Cursor motions use whitespace-delimited words; deletions use alphanumeric
// words. The two definitions mirror readline's vi-word vs. shell-word
// split.

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// MoveBackwardWord moves to the start of the previous whitespace-delimited
// word
func (in *Input) MoveBackwardWord() {
	i := in.cursor
	for i > 0 && unicode.IsSpace(in.value[i-1]) {
		i--
	}
	for i > 0 && !unicode.IsSpace(in.value[i-1]) {
		i--
	}
	in.cursor = i
}

// MoveForwardWord moves past the end of the next whitespace-delimited word
func (in *Input) MoveForwardWord() {
	i := in.cursor
	for i < len(in.value) && unicode.IsSpace(in.value[i]) {
		i++
	}
	for i < len(in.value) && !unicode.IsSpace(in.value[i]) {
		i++
	}
	in.cursor = i
}

// deleteRange removes [from, to), stores it in the yank register and
// returns it
func (in *Input) deleteRange(from int, to int) string {
	if from >= to {
		return ""
	}
	deleted := make([]rune, to-from)
	copy(deleted, in.value[from:to])
	in.value = append(in.value[:from], in.value[to:]...)
	if in.cursor >= to {
		in.cursor -= to - from
	} else if in.cursor > from {
		in.cursor = from
	}
	in.yankRegister = deleted
	return string(deleted)
}

// DeleteBackwardWord deletes the alphanumeric word before the cursor
func (in *Input) DeleteBackwardWord() string {
	i := in.cursor
	for i > 0 && !isWordChar(in.value[i-1]) {
		i--
	}
	for i > 0 && isWordChar(in.value[i-1]) {
		i--
	}
	return in.deleteRange(i, in.cursor)
}

// DeleteBackwardToWhitespace is the unix-rubout deletion: everything back
// to the previous whitespace goes
func (in *Input) DeleteBackwardToWhitespace() string {
	i := in.cursor
	for i > 0 && unicode.IsSpace(in.value[i-1]) {
		i--
	}
	for i > 0 && !unicode.IsSpace(in.value[i-1]) {
		i--
	}
	return in.deleteRange(i, in.cursor)
}

// DeleteForwardWord deletes the alphanumeric word after the cursor
func (in *Input) DeleteForwardWord() string {
	i := in.cursor
	for i < len(in.value) && !isWordChar(in.value[i]) {
		i++
	}
	for i < len(in.value) && isWordChar(in.value[i]) {
		i++
	}
	return in.deleteRange(in.cursor, i)
}

// DeleteToBeginning deletes everything before the cursor
func (in *Input) DeleteToBeginning() string {
	return in.deleteRange(0, in.cursor)
}

// KillLine deletes everything after the cursor
func (in *Input) KillLine() string {
	return in.deleteRange(in.cursor, len(in.value))
}

// Yank inserts the yank register at the cursor
func (in *Input) Yank() {
	if len(in.yankRegister) > 0 {
		in.InsertString(string(in.yankRegister))
	}
}
