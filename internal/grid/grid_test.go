package grid

import (
	"testing"

	"github.com/termfx/markovgo/internal/pattern"
)

func mustAlphabet(t *testing.T) *pattern.Alphabet {
	t.Helper()
	a, err := pattern.NewAlphabet([]rune("BW"), nil)
	if err != nil {
		t.Fatalf("NewAlphabet: %v", err)
	}
	return a
}

func TestNewGridStartsAllZero(t *testing.T) {
	a := mustAlphabet(t)
	g := New(3, 2, 1, a)
	if g.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", g.Len())
	}
	for i := range g.Len() {
		if g.AtIndex(i) != 0 {
			t.Fatalf("cell %d = %d, want 0", i, g.AtIndex(i))
		}
	}
}

func TestSetRecordsChangeOnlyWhenValueDiffers(t *testing.T) {
	a := mustAlphabet(t)
	g := New(2, 1, 1, a)

	g.Set(0, 0, 0, 0) // same as existing value, no-op
	if len(g.ChangesSince(0)) != 0 {
		t.Fatalf("want no changes recorded for a same-value write")
	}

	g.Set(0, 0, 0, 1)
	if len(g.ChangesSince(0)) != 1 {
		t.Fatalf("want 1 change recorded, got %d", len(g.ChangesSince(0)))
	}
	if g.At(0, 0, 0) != 1 {
		t.Fatalf("At(0,0,0) = %d, want 1", g.At(0, 0, 0))
	}
}

func TestNextTurnPartitionsChangeLog(t *testing.T) {
	a := mustAlphabet(t)
	g := New(3, 1, 1, a)

	g.Set(0, 0, 0, 1)
	g.NextTurn()
	g.Set(1, 0, 0, 1)
	g.Set(2, 0, 0, 1)

	if len(g.ChangesSince(0)) != 3 {
		t.Fatalf("ChangesSince(0) = %d, want 3", len(g.ChangesSince(0)))
	}
	if len(g.ChangesSince(1)) != 2 {
		t.Fatalf("ChangesSince(1) = %d, want 2", len(g.ChangesSince(1)))
	}
	if g.Turn() != 1 {
		t.Fatalf("Turn() = %d, want 1", g.Turn())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	a := mustAlphabet(t)
	g := New(2, 1, 1, a)
	g.Set(0, 0, 0, 1)

	c := g.Clone()
	c.Set(1, 0, 0, 1)

	if g.At(1, 0, 0) != 0 {
		t.Fatalf("mutating a clone must not affect the original")
	}
	if len(c.ChangesSince(0)) != 1 {
		t.Fatalf("a clone starts with an empty change log, got %d entries", len(c.ChangesSince(0)))
	}
}

func TestClearResetsStateAndLog(t *testing.T) {
	a := mustAlphabet(t)
	g := New(2, 1, 1, a)
	g.Set(0, 0, 0, 1)
	g.NextTurn()
	g.Clear()

	if g.At(0, 0, 0) != 0 {
		t.Fatalf("Clear must zero all cells")
	}
	if g.Turn() != 0 {
		t.Fatalf("Clear must reset the turn counter")
	}
	if len(g.ChangesSince(0)) != 0 {
		t.Fatalf("Clear must reset the change log")
	}
}

func TestMatchesHonorsPerCellBitmask(t *testing.T) {
	a := mustAlphabet(t)
	g := New(2, 1, 1, a)
	g.Set(0, 0, 0, 1) // W

	// input mask: cell0 accepts only B (bit 0), cell1 accepts anything
	input := []uint64{1 << 0, (1 << 2) - 1}
	if g.Matches(2, 1, 1, input, 0, 0, 0) {
		t.Fatalf("want no match: cell 0 is W but pattern requires B")
	}

	input2 := []uint64{1 << 1, (1 << 2) - 1}
	if !g.Matches(2, 1, 1, input2, 0, 0, 0) {
		t.Fatalf("want a match: cell 0 is W and pattern accepts W")
	}
}
