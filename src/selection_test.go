package skim

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matchedItems(n int, from int) []*MatchedItem {
	items := make([]*MatchedItem, n)
	for i := range items {
		items[i] = makeMatched(0, int32(from+i))
	}
	return items
}

func namedMatched(text string, index int32) *MatchedItem {
	return &MatchedItem{item: plainItem(text, index)}
}

func TestSelectionToggle(t *testing.T) {
	s := NewSelection(true, false, nil)
	s.ReplaceItems(matchedItems(3, 0))

	s.Toggle()
	assert.True(t, s.IsSelected(0))
	assert.Equal(t, 1, s.NumSelected())

	// Toggling twice restores the initial state
	s.Toggle()
	assert.False(t, s.IsSelected(0))
	assert.Equal(t, 0, s.NumSelected())
}

func TestSelectionRequiresMulti(t *testing.T) {
	s := NewSelection(false, false, nil)
	s.ReplaceItems(matchedItems(3, 0))
	s.Toggle()
	s.SelectAll()
	assert.Equal(t, 0, s.NumSelected())
}

func TestSelectionInsertionOrder(t *testing.T) {
	s := NewSelection(true, false, nil)
	s.ReplaceItems(matchedItems(5, 0))

	s.MoveBy(2)
	s.Toggle() // index 2 first
	s.MoveBy(-2)
	s.Toggle() // index 0 second

	selected := s.Selected()
	require.Len(t, selected, 2)
	assert.Equal(t, int32(2), selected[0].item.Index())
	assert.Equal(t, int32(0), selected[1].item.Index())
}

func TestSelectionSurvivesReplace(t *testing.T) {
	s := NewSelection(true, false, nil)
	s.ReplaceItems(matchedItems(3, 0))
	s.Toggle()

	// The item disappears from the view but stays selected
	s.ReplaceItems(matchedItems(2, 1))
	assert.True(t, s.IsSelected(0))
	assert.Equal(t, 1, s.NumSelected())
}

func TestSelectionToggleAll(t *testing.T) {
	s := NewSelection(true, false, nil)
	s.ReplaceItems(matchedItems(4, 0))
	s.MoveBy(1)
	s.Toggle()
	s.ToggleAll()
	assert.Equal(t, 3, s.NumSelected())
	s.DeselectAll()
	assert.Equal(t, 0, s.NumSelected())
}

func TestSelectionCursorClamp(t *testing.T) {
	s := NewSelection(false, false, nil)
	s.ReplaceItems(matchedItems(3, 0))
	s.MoveBy(10)
	assert.Equal(t, 2, s.Cursor())
	s.MoveBy(-10)
	assert.Equal(t, 0, s.Cursor())

	s.ReplaceItems(matchedItems(1, 0))
	s.MoveBy(5)
	assert.Equal(t, 0, s.Cursor())
}

func TestSelectionCycle(t *testing.T) {
	s := NewSelection(false, true, nil)
	s.ReplaceItems(matchedItems(3, 0))
	s.MoveBy(-1)
	assert.Equal(t, 2, s.Cursor())
	s.MoveBy(1)
	assert.Equal(t, 0, s.Cursor())
}

func TestSelectionEmptyPool(t *testing.T) {
	s := NewSelection(true, false, nil)
	s.ReplaceItems(nil)
	assert.Nil(t, s.Current())
	s.MoveBy(1)
	assert.Equal(t, 0, s.Cursor())
	s.Toggle()
	assert.Equal(t, 0, s.NumSelected())
}

func TestPreSelectN(t *testing.T) {
	preSel, err := newPreSelector(2, "", nil, "")
	require.NoError(t, err)
	s := NewSelection(true, false, preSel)

	s.ReplaceItems(matchedItems(1, 0))
	assert.Equal(t, 1, s.NumSelected())

	// Later arrivals keep filling the quota until the target is reached
	s.AppendItems(matchedItems(3, 1))
	assert.Equal(t, 2, s.NumSelected())
	assert.True(t, s.IsSelected(0))
	assert.True(t, s.IsSelected(1))
	assert.False(t, s.IsSelected(2))
}

func TestPreSelectPattern(t *testing.T) {
	preSel, err := newPreSelector(0, "^keep", nil, "")
	require.NoError(t, err)
	s := NewSelection(true, false, preSel)

	s.ReplaceItems([]*MatchedItem{
		namedMatched("keep me", 0),
		namedMatched("drop me", 1),
		namedMatched("keeper", 2),
	})
	assert.Equal(t, 2, s.NumSelected())
	assert.True(t, s.IsSelected(0))
	assert.True(t, s.IsSelected(2))
}

func TestPreSelectItems(t *testing.T) {
	preSel, err := newPreSelector(0, "", []string{"b"}, "")
	require.NoError(t, err)
	s := NewSelection(true, false, preSel)
	s.ReplaceItems([]*MatchedItem{
		namedMatched("a", 0), namedMatched("b", 1), namedMatched("c", 2),
	})
	assert.Equal(t, 1, s.NumSelected())
	assert.True(t, s.IsSelected(1))
}

func TestPreSelectFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presel")
	require.NoError(t, os.WriteFile(path, []byte("x\ny\n"), 0600))

	preSel, err := newPreSelector(0, "", nil, path)
	require.NoError(t, err)
	s := NewSelection(true, false, preSel)
	s.ReplaceItems([]*MatchedItem{
		namedMatched("x", 0), namedMatched("q", 1), namedMatched("y", 2),
	})
	assert.Equal(t, 2, s.NumSelected())
}

func TestPreSelectorNilWhenUnconfigured(t *testing.T) {
	preSel, err := newPreSelector(0, "", nil, "")
	require.NoError(t, err)
	assert.Nil(t, preSel)
}

func TestSelectionItemsConsideredOnce(t *testing.T) {
	preSel, _ := newPreSelector(10, "", nil, "")
	s := NewSelection(true, false, preSel)
	items := matchedItems(2, 0)
	s.ReplaceItems(items)
	s.Toggle() // deselect index 0 manually
	// Re-publishing the same items must not re-select them
	s.ReplaceItems(items)
	assert.False(t, s.IsSelected(0))
	assert.True(t, s.IsSelected(1))
}

func TestSelectionOffset(t *testing.T) {
	s := NewSelection(false, false, nil)
	s.ReplaceItems(matchedItems(100, 0))
	for i := 0; i < 50; i++ {
		s.MoveBy(1)
	}
	offset := s.updateOffset(10)
	assert.Equal(t, 41, offset)
	assert.GreaterOrEqual(t, s.Cursor(), offset)
	assert.Less(t, s.Cursor(), offset+10, fmt.Sprintf("cursor %d offset %d", s.Cursor(), offset))
}
