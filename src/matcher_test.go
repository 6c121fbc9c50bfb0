package skim

import (
	"fmt"
	"testing"
	"time"

	"github.com/skim-go/skim/src/algo"
	"github.com/skim-go/skim/src/util"
)

func scanAndWait(t *testing.T, m *Matcher, query string, items []*Item) *MatcherControl {
	t.Helper()
	control := m.Scan(query, items)
	deadline := time.Now().Add(5 * time.Second)
	for !control.Stopped() {
		if time.Now().After(deadline) {
			t.Fatal("matcher did not stop")
		}
		time.Sleep(time.Millisecond)
	}
	return control
}

func testMatcher(sortResults bool, tac bool) *Matcher {
	factory := NewEngineFactory(CaseSmart, algo.MatchV2, NewRankBuilder(nil), false, false, false, true)
	return NewMatcher(factory, &Options{Sort: sortResults, Tac: tac}, util.NewEventBox())
}

func TestMatcherScan(t *testing.T) {
	items := []*Item{}
	for i := 0; i < 1000; i++ {
		items = append(items, plainItem(fmt.Sprintf("line-%04d", i), int32(i)))
	}
	m := testMatcher(true, false)
	control := scanAndWait(t, m, "line", items)

	if control.NumProcessed() != 1000 {
		t.Errorf("processed = %d", control.NumProcessed())
	}
	if control.NumMatched() != 1000 {
		t.Errorf("matched = %d", control.NumMatched())
	}
	results := control.TakeItems()
	if len(results) != 1000 {
		t.Fatalf("results = %d", len(results))
	}
	if second := control.TakeItems(); second != nil {
		t.Error("TakeItems moves the vector out")
	}
}

func TestMatcherFilters(t *testing.T) {
	items := []*Item{
		plainItem("apple", 0), plainItem("banana", 1), plainItem("cherry", 2),
	}
	m := testMatcher(true, false)
	control := scanAndWait(t, m, "an", items)
	results := control.TakeItems()
	if len(results) != 1 || results[0].item.Text() != "banana" {
		t.Errorf("%v", results)
	}
}

func TestMatcherNoSortKeepsPoolOrder(t *testing.T) {
	items := []*Item{}
	for i := 0; i < 500; i++ {
		items = append(items, plainItem(fmt.Sprintf("x%03d", i), int32(i)))
	}
	m := testMatcher(false, false)
	control := scanAndWait(t, m, "x", items)
	results := control.TakeItems()
	for i, mi := range results {
		if mi.item.Index() != int32(i) {
			t.Fatalf("pool order broken at %d: %d", i, mi.item.Index())
		}
	}
}

func TestMatcherTacWithoutSort(t *testing.T) {
	items := []*Item{
		plainItem("a", 0), plainItem("b", 1), plainItem("c", 2),
	}
	m := testMatcher(false, true)
	control := scanAndWait(t, m, "", items)
	results := control.TakeItems()
	if results[0].item.Index() != 2 || results[2].item.Index() != 0 {
		t.Errorf("tac must reverse pool order: %v", results)
	}
}

func TestMatcherStability(t *testing.T) {
	items := []*Item{}
	for i := 0; i < 300; i++ {
		items = append(items, plainItem(fmt.Sprintf("same-%d", i%3), int32(i)))
	}
	run := func() []int32 {
		m := testMatcher(true, false)
		control := scanAndWait(t, m, "same", items)
		out := []int32{}
		for _, mi := range control.TakeItems() {
			out = append(out, mi.item.Index())
		}
		return out
	}
	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatal("lengths differ")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("two runs over the same input must be identical")
		}
	}
}

func TestMatcherKill(t *testing.T) {
	items := []*Item{}
	for i := 0; i < 100000; i++ {
		items = append(items, plainItem(fmt.Sprintf("payload-%d-%d", i, i*7), int32(i)))
	}
	m := testMatcher(true, false)
	control := m.Scan("paylod79", items)
	control.Kill()

	deadline := time.Now().Add(5 * time.Second)
	for !control.Stopped() {
		if time.Now().After(deadline) {
			t.Fatal("killed matcher did not stop")
		}
		time.Sleep(time.Millisecond)
	}
	if !control.Killed() {
		t.Error("control should report the kill")
	}
}

func TestMatcherEmptyPool(t *testing.T) {
	m := testMatcher(true, false)
	control := scanAndWait(t, m, "query", nil)
	if results := control.TakeItems(); len(results) != 0 {
		t.Errorf("%v", results)
	}
}
