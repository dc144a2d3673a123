package matcher

import (
	"testing"

	"github.com/termfx/markovgo/internal/grid"
	"github.com/termfx/markovgo/internal/pattern"
	"github.com/termfx/markovgo/internal/rule"
)

func newBWGrid(t *testing.T, mx, my int) (*grid.Grid, *pattern.Alphabet) {
	t.Helper()
	a, err := pattern.NewAlphabet([]rune("BW"), nil)
	if err != nil {
		t.Fatalf("NewAlphabet: %v", err)
	}
	return grid.New(mx, my, 1, a), a
}

func mustRules(t *testing.T, spec rule.Spec, a *pattern.Alphabet) []*rule.Rule {
	t.Helper()
	rules, err := rule.Build(spec, a, false, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return rules
}

func TestMatcherFullRescanFindsEveryMatch(t *testing.T) {
	g, a := newBWGrid(t, 3, 1) // BBB
	rules := mustRules(t, rule.Spec{In: "B", Out: "W"}, a)

	m := New(rules, g)
	m.Rescan(g.Turn())
	if m.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", m.Count())
	}
}

func TestMatcherIncrementalRescanFindsOnlyNewMatches(t *testing.T) {
	g, a := newBWGrid(t, 3, 1)
	g.Set(0, 0, 0, a.Values['W'])
	g.Set(1, 0, 0, a.Values['W'])
	g.Set(2, 0, 0, a.Values['W']) // WWW, no matches
	g.NextTurn()
	rules := mustRules(t, rule.Spec{In: "B", Out: "W"}, a)

	m := New(rules, g)
	m.Rescan(g.Turn()) // full rescan, finds nothing
	if m.Count() != 0 {
		t.Fatalf("initial Count() = %d, want 0", m.Count())
	}

	g.Set(1, 0, 0, a.Values['B'])
	g.NextTurn()
	m.Rescan(g.Turn()) // incremental rescan over just the change log

	if m.Count() != 1 {
		t.Fatalf("Count() after one change = %d, want 1", m.Count())
	}
	mt := m.At(0)
	if mt.X != 1 || mt.Y != 0 {
		t.Fatalf("match anchored at (%d,%d), want (1,0)", mt.X, mt.Y)
	}
}

func TestMatcherRevalidateRemovesStaleMatch(t *testing.T) {
	g, a := newBWGrid(t, 1, 1) // B
	rules := mustRules(t, rule.Spec{In: "B", Out: "W"}, a)

	m := New(rules, g)
	m.Rescan(g.Turn())
	if m.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", m.Count())
	}

	// Mutate the grid out from under the matcher, as a rewrite applied via
	// a different path would.
	g.Set(0, 0, 0, a.Values['W'])

	if m.Revalidate(0) {
		t.Fatalf("Revalidate must report false once the grid no longer matches")
	}
	if m.Count() != 0 {
		t.Fatalf("Count() after Revalidate = %d, want 0 (stale match removed)", m.Count())
	}
}

func TestMatcherRemoveAtSwapRemoves(t *testing.T) {
	g, a := newBWGrid(t, 3, 1) // BBB
	rules := mustRules(t, rule.Spec{In: "B", Out: "W"}, a)

	m := New(rules, g)
	m.Rescan(g.Turn())
	if m.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", m.Count())
	}

	removed := m.At(0)
	m.RemoveAt(0)
	if m.Count() != 2 {
		t.Fatalf("Count() after RemoveAt = %d, want 2", m.Count())
	}
	for i := 0; i < m.Count(); i++ {
		mt := m.At(i)
		if mt.X == removed.X && mt.Y == removed.Y && mt.Rule == removed.Rule {
			t.Fatalf("removed match (%d,%d) still present after RemoveAt", mt.X, mt.Y)
		}
	}
}

func TestScanAllAgreesWithFullRescan(t *testing.T) {
	g, a := newBWGrid(t, 4, 1) // BBBB
	rules := mustRules(t, rule.Spec{In: "B", Out: "W"}, a)

	m := New(rules, g)
	m.Rescan(g.Turn())

	viaMatcher := map[[2]int]bool{}
	for i := 0; i < m.Count(); i++ {
		mt := m.At(i)
		viaMatcher[[2]int{mt.X, mt.Y}] = true
	}

	scanned := ScanAll(g, rules)
	if len(scanned) != m.Count() {
		t.Fatalf("ScanAll found %d matches, Matcher found %d", len(scanned), m.Count())
	}
	for _, mt := range scanned {
		if !viaMatcher[[2]int{mt.X, mt.Y}] {
			t.Fatalf("ScanAll match (%d,%d) missing from Matcher's full rescan", mt.X, mt.Y)
		}
	}
}

func TestApplyWritesOnlyNonWildcardCellsAndMarksConflictMask(t *testing.T) {
	g, a := newBWGrid(t, 2, 1) // BB
	rules := mustRules(t, rule.Spec{In: "BB", Out: "*W"}, a)

	written := NewConflictMask(g.Len())
	Apply(g, rules[0], 0, 0, 0, written)

	if g.At(0, 0, 0) != a.Values['B'] {
		t.Fatalf("wildcard output cell must be left unwritten, got %d", g.At(0, 0, 0))
	}
	if g.At(1, 0, 0) != a.Values['W'] {
		t.Fatalf("second cell must be rewritten to W, got %d", g.At(1, 0, 0))
	}
	if written.get(g.Index(0, 0, 0)) {
		t.Fatalf("conflict mask must not mark the wildcard (unwritten) cell")
	}
	if !written.get(g.Index(1, 0, 0)) {
		t.Fatalf("conflict mask must mark the written cell")
	}
}

func TestFootprintDetectsOverlapWithPriorWrites(t *testing.T) {
	g, a := newBWGrid(t, 2, 1)
	rules := mustRules(t, rule.Spec{In: "BB", Out: "WW"}, a)

	written := NewConflictMask(g.Len())
	written.set(g.Index(1, 0, 0))

	if !Footprint(g, rules[0], 0, 0, 0, written) {
		t.Fatalf("want a footprint conflict: the rule's output at (1,0) overlaps an already-written cell")
	}

	clean := NewConflictMask(g.Len())
	if Footprint(g, rules[0], 0, 0, 0, clean) {
		t.Fatalf("want no conflict against an empty conflict mask")
	}
}
