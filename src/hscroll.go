package skim

import (
	"github.com/mattn/go-runewidth"

	"github.com/skim-go/skim/src/util"
)

// hscrollState describes how a line is panned into its container
type hscrollState struct {
	shift         int
	leftOverflow  bool
	rightOverflow bool
}

// displayWidth returns the rendered width of the runes, expanding tabs from
// the given starting column
func displayWidth(runes []rune, tabstop int, startWidth int) int {
	width := startWidth
	for _, r := range runes {
		if r == '\t' {
			width += tabstop - width%tabstop
		} else {
			width += runewidth.RuneWidth(r)
		}
	}
	return width - startWidth
}

// calcHScroll computes the horizontal pan of the focused line: the matched
// span is centered in the container, the manual pan is applied on top, and
// the result is clamped so the line never detaches from an edge.
// matchBegin and matchEnd are in display-width coordinates.
func calcHScroll(fullWidth int, width int, matchBegin int, matchEnd int,
	manual int, noHScroll bool, keepRight bool, skipWidth int) hscrollState {

	if width <= 0 {
		return hscrollState{}
	}
	maxShift := util.Max(0, fullWidth-width)

	if noHScroll {
		return hscrollState{shift: 0, rightOverflow: fullWidth > width}
	}

	var shift int
	switch {
	case keepRight:
		shift = maxShift
	case matchEnd <= 0:
		// Nothing to center on: honor --skip-to-pattern
		shift = util.Min(skipWidth, maxShift)
	case matchEnd <= width && skipWidth == 0:
		// The whole span is visible without panning
		shift = 0
	default:
		center := (matchBegin + matchEnd) / 2
		shift = util.Constrain(center-width/2, 0, maxShift)
	}

	shift = util.Constrain(shift+manual, 0, maxShift)
	return hscrollState{
		shift:         shift,
		leftOverflow:  shift > 0,
		rightOverflow: fullWidth-shift > width,
	}
}
