// Package matcher implements the incremental rule-match index (spec §4.3):
// a dense match list, a per-rule occupancy bit grid, and full/incremental
// rescans keyed off the grid's change log.
package matcher

import (
	"github.com/termfx/markovgo/internal/grid"
	"github.com/termfx/markovgo/internal/rule"
)

// Match is an anchor position at which a rule's input pattern fits the
// current grid (spec §3 Match).
type Match struct {
	Rule int
	X, Y, Z int
}

// Matcher owns the match list and per-rule occupancy masks for one set of
// rules against one grid.
type Matcher struct {
	rules []*rule.Rule
	g     *grid.Grid

	matches []Match
	mask    []*bitGrid // one per rule, indexed by grid.Index(x,y,z)

	lastMatchedTurn int // -1 means a full rescan is needed
}

// New builds a Matcher for rules against g. The first Rescan will be a
// full rescan since no turn has been matched yet.
func New(rules []*rule.Rule, g *grid.Grid) *Matcher {
	m := &Matcher{rules: rules, g: g, lastMatchedTurn: -1}
	m.mask = make([]*bitGrid, len(rules))
	for i := range m.mask {
		m.mask[i] = newBitGrid(g.Len())
	}
	return m
}

// Reset forces the next Rescan to be a full rescan, e.g. after the grid
// has been cleared.
func (m *Matcher) Reset() {
	m.matches = m.matches[:0]
	for _, mg := range m.mask {
		mg.clearAll()
	}
	m.lastMatchedTurn = -1
}

// Count is the number of currently tracked matches (some may be stale
// until revalidated at consumption time, per spec §4.3).
func (m *Matcher) Count() int { return len(m.matches) }

// At returns the match at index i.
func (m *Matcher) At(i int) Match { return m.matches[i] }

// RemoveAt swap-removes the match at index i and clears its occupancy bit.
func (m *Matcher) RemoveAt(i int) {
	mt := m.matches[i]
	m.mask[mt.Rule].clear(m.g.Index(mt.X, mt.Y, mt.Z))
	last := len(m.matches) - 1
	m.matches[i] = m.matches[last]
	m.matches = m.matches[:last]
}

// Revalidate re-verifies the match at index i against the current grid;
// if it is no longer valid, it is swap-removed and Revalidate returns
// false. Callers consuming matches (selection policies) must call this
// before using a match, per spec §4.3's lazy-filtering rule.
func (m *Matcher) Revalidate(i int) bool {
	mt := m.matches[i]
	r := m.rules[mt.Rule]
	if m.g.Matches(r.IMX, r.IMY, r.IMZ, r.Input, mt.X, mt.Y, mt.Z) {
		return true
	}
	m.RemoveAt(i)
	return false
}

// ScanAll performs a stand-alone full rescan of rules against g, returning
// every match found. Used by the search engine (package observe) to
// enumerate moves from an arbitrary synthetic grid state without needing a
// live Matcher/change-log pair.
func ScanAll(g *grid.Grid, rules []*rule.Rule) []Match {
	var out []Match
	seen := newBitGrid(g.Len())
	for ri, r := range rules {
		seen.clearAll()
		for bz := 0; bz < g.MZ; bz += max1(r.IMZ) {
			for by := 0; by < g.MY; by += max1(r.IMY) {
				for bx := 0; bx < g.MX; bx += max1(r.IMX) {
					v := g.At(bx, by, bz)
					for _, sh := range r.Ishifts[v] {
						sx, sy, sz := bx-sh.DX, by-sh.DY, bz-sh.DZ
						if sx < 0 || sy < 0 || sz < 0 || sx+r.IMX > g.MX || sy+r.IMY > g.MY || sz+r.IMZ > g.MZ {
							continue
						}
						idx := g.Index(sx, sy, sz)
						if seen.get(idx) {
							continue
						}
						if !g.Matches(r.IMX, r.IMY, r.IMZ, r.Input, sx, sy, sz) {
							continue
						}
						seen.set(idx)
						out = append(out, Match{Rule: ri, X: sx, Y: sy, Z: sz})
					}
				}
			}
		}
	}
	return out
}

func (m *Matcher) add(ruleIdx, x, y, z int) {
	idx := m.g.Index(x, y, z)
	if m.mask[ruleIdx].get(idx) {
		return
	}
	m.mask[ruleIdx].set(idx)
	m.matches = append(m.matches, Match{Rule: ruleIdx, X: x, Y: y, Z: z})
}

// Rescan refreshes the match list: a full rescan if no turn has been
// matched yet, otherwise an incremental rescan over the grid's change log
// since the last matched turn (spec §4.3). turn is the grid's current
// turn number, consulted so the next Rescan knows where to resume.
func (m *Matcher) Rescan(turn int) {
	if m.lastMatchedTurn < 0 {
		m.fullRescan()
	} else {
		m.incrementalRescan()
	}
	m.lastMatchedTurn = turn
}

// fullRescan strides the grid in steps of each rule's box shape, visiting
// candidate anchors via that rule's ishifts at the grid value found at the
// visited cell (spec §4.3 "Full rescan").
func (m *Matcher) fullRescan() {
	g := m.g
	for ri, r := range m.rules {
		for bz := 0; bz < g.MZ; bz += max1(r.IMZ) {
			for by := 0; by < g.MY; by += max1(r.IMY) {
				for bx := 0; bx < g.MX; bx += max1(r.IMX) {
					v := g.At(bx, by, bz)
					for _, sh := range r.Ishifts[v] {
						sx, sy, sz := bx-sh.DX, by-sh.DY, bz-sh.DZ
						m.tryAnchor(ri, r, sx, sy, sz)
					}
				}
			}
		}
	}
}

func max1(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// incrementalRescan visits only the cells changed since lastMatchedTurn,
// enumerating each rule's ishifts for the new value at that cell (spec
// §4.3 "Incremental rescan"). Duplicates against matches already present
// are suppressed via the occupancy mask inside tryAnchor/add.
func (m *Matcher) incrementalRescan() {
	g := m.g
	for _, c := range g.ChangesSince(m.lastMatchedTurn) {
		v := g.AtIndex(g.Index(c.X, c.Y, c.Z))
		for ri, r := range m.rules {
			for _, sh := range r.Ishifts[v] {
				sx, sy, sz := c.X-sh.DX, c.Y-sh.DY, c.Z-sh.DZ
				m.tryAnchor(ri, r, sx, sy, sz)
			}
		}
	}
}

func (m *Matcher) tryAnchor(ri int, r *rule.Rule, x, y, z int) {
	g := m.g
	if x < 0 || y < 0 || z < 0 || x+r.IMX > g.MX || y+r.IMY > g.MY || z+r.IMZ > g.MZ {
		return
	}
	idx := g.Index(x, y, z)
	if m.mask[ri].get(idx) {
		return
	}
	if !g.Matches(r.IMX, r.IMY, r.IMZ, r.Input, x, y, z) {
		return
	}
	m.add(ri, x, y, z)
}

// Apply writes rule r's output anchored at (x,y,z) into the grid,
// following spec §4.3's "Match application": only non-sentinel cells whose
// value differs from the current grid value are written and logged.
// written, if non-nil, has its bits set for every cell index written by
// this call — used by All to detect footprint conflicts between matches
// applied in the same step.
func Apply(g *grid.Grid, r *rule.Rule, x, y, z int, written *ConflictMask) {
	for k := range r.OMZ {
		for j := range r.OMY {
			for i := range r.OMX {
				ov := r.Output[i+j*r.OMX+k*r.OMX*r.OMY]
				if ov == 0xFF {
					continue
				}
				cx, cy, cz := x+i, y+j, z+k
				if written != nil {
					written.set(g.Index(cx, cy, cz))
				}
				g.Set(cx, cy, cz, ov)
			}
		}
	}
}

// Footprint reports whether applying r anchored at (x,y,z) would write any
// cell already marked in written — the conflict test All uses to skip a
// match that overlaps cells written earlier in the same step (spec §4.5).
func Footprint(g *grid.Grid, r *rule.Rule, x, y, z int, written *ConflictMask) bool {
	for k := range r.OMZ {
		for j := range r.OMY {
			for i := range r.OMX {
				if r.Output[i+j*r.OMX+k*r.OMX*r.OMY] == 0xFF {
					continue
				}
				if written.get(g.Index(x+i, y+j, z+k)) {
					return true
				}
			}
		}
	}
	return false
}

// ConflictMask is the per-step "cells written so far" bit grid used by the
// All node variant (spec §4.3/§4.5).
type ConflictMask struct{ bg *bitGrid }

// NewConflictMask allocates a conflict mask sized to a grid with n cells.
func NewConflictMask(n int) *ConflictMask { return &ConflictMask{bg: newBitGrid(n)} }

func (c *ConflictMask) set(i int)      { c.bg.set(i) }
func (c *ConflictMask) get(i int) bool { return c.bg.get(i) }
