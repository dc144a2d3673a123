package observe

import (
	"container/heap"

	"github.com/termfx/markovgo/internal/grid"
	"github.com/termfx/markovgo/internal/matcher"
	"github.com/termfx/markovgo/internal/rule"
)

// Trajectory is an ordered sequence of grid snapshots produced by a
// completed search (spec §4.6): length depth+1, index 0 is the starting
// state.
type Trajectory [][]uint8

// searchNode is one frontier entry: the grid state it represents, its
// depth from the root, and a link to its parent for trajectory
// reconstruction once a goal node is found.
type searchNode struct {
	state  []uint8
	parent *searchNode
	depth  int
	pri    float64
	index  int // heap bookkeeping
}

type frontier []*searchNode

func (f frontier) Len() int            { return len(f) }
func (f frontier) Less(i, j int) bool  { return f[i].pri < f[j].pri }
func (f frontier) Swap(i, j int)       { f[i], f[j] = f[j], f[i]; f[i].index = i; f[j].index = j }
func (f *frontier) Push(x any)         { n := x.(*searchNode); n.index = len(*f); *f = append(*f, n) }
func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*f = old[:n-1]
	return item
}

// Search is a resumable best-first trajectory search over rule
// applications (spec §4.6). Step(budget) runs up to budget expansions and
// returns whether the search is done; cooperative callers (rewrite nodes)
// call it repeatedly, yielding HALT with the running Visited() count
// between calls, per spec §5's suspension-point requirement.
type Search struct {
	rules            []*rule.Rule
	future           []uint64
	potentials       *Potentials
	depthCoefficient float64
	limit            int // max children expanded per node; <=0 means unbounded

	mx, my, mz int
	alphabet   *grid.Grid // reused only for its MX/MY/MZ/Alphabet via clones

	open    frontier
	visited int
	tries   int // incremented whenever a popped frontier node has no matching rule (a dead end); spec §9 open question

	done   bool
	result Trajectory
}

// NewSearch seeds a best-first search from start's current state toward
// future, using rules as the move set and potentials (from
// ComputeBackwardPotentials against the same future) as the source of
// the frontier heuristic (see heuristic).
func NewSearch(start *grid.Grid, rules []*rule.Rule, future []uint64, potentials *Potentials, depthCoefficient float64, limit int) *Search {
	s := &Search{
		rules:            rules,
		future:           future,
		potentials:       potentials,
		depthCoefficient: depthCoefficient,
		limit:            limit,
		mx:               start.MX, my: start.MY, mz: start.MZ,
		alphabet: start,
	}
	root := &searchNode{state: append([]uint8(nil), start.State()...), depth: 0}
	root.pri = s.heuristic(root.state)
	heap.Init(&s.open)
	heap.Push(&s.open, root)
	if Satisfied(start, future) {
		s.done = true
		s.result = Trajectory{root.state}
	}
	return s
}

// heuristic sums, over every cell whose current value is outside
// future[cell], the smallest potential that any value in future[cell]
// has at that cell; cells already satisfying their mask, and cells where
// no value in the mask was reached (-1), contribute 0. The potential of
// the cell's current value is not consulted. ComputeBackwardPotentials
// gives every value in future[cell] potential 0 at that cell, so with
// potentials computed against the same future this sum is 0 for every
// state and the frontier is ordered by depth alone.
func (s *Search) heuristic(state []uint8) float64 {
	var sum float64
	for i, mask := range s.future {
		v := state[i]
		if mask&(1<<uint(v)) != 0 {
			continue
		}
		d := s.potentials.MinToMask(i, mask)
		if d > 0 {
			sum += float64(d)
		}
	}
	return sum
}

// Done reports whether the search has finished (found a trajectory or
// exhausted the frontier).
func (s *Search) Done() bool { return s.done }

// Visited is the running count of frontier nodes popped/expanded so far,
// the "progress visited-count" signal spec §4.6 says HALT carries.
func (s *Search) Visited() int { return s.visited }

// Tries is incremented every time an expansion adds no new frontier node
// (a dead end). Tracked per spec §9's note that the source tracks this
// but never consults it; exposed here so a caller may enforce a retry cap.
func (s *Search) Tries() int { return s.tries }

// Result returns the completed trajectory, or nil if Step has not yet
// reached a terminal state. Valid only once Done() is true.
func (s *Search) Result() Trajectory { return s.result }

// Step runs up to yieldEvery expansions (the cooperative suspension
// interval, spec §5 — implementation-defined, default 256 via
// DefaultYieldInterval) and returns whether the search is now done.
func (s *Search) Step(yieldEvery int) bool {
	if s.done {
		return true
	}
	if yieldEvery <= 0 {
		yieldEvery = DefaultYieldInterval
	}
	for i := 0; i < yieldEvery; i++ {
		if s.open.Len() == 0 {
			s.done = true
			s.result = nil
			return true
		}
		node := heap.Pop(&s.open).(*searchNode)
		s.visited++

		g := grid.FromState(s.mx, s.my, s.mz, s.alphabet.Alphabet, node.state)
		if Satisfied(g, s.future) {
			s.done = true
			s.result = reconstruct(node)
			return true
		}

		matches := matcher.ScanAll(g, s.rules)
		if s.limit > 0 && len(matches) > s.limit {
			matches = matches[:s.limit]
		}
		if len(matches) == 0 {
			s.tries++
			continue
		}
		for _, m := range matches {
			child := s.expand(node, g, m)
			heap.Push(&s.open, child)
		}
	}
	return false
}

// DefaultYieldInterval is the default cooperative yield interval (spec §9:
// "hard-coded to 256 expansions in the source").
const DefaultYieldInterval = 256

func (s *Search) expand(parent *searchNode, g *grid.Grid, m matcher.Match) *searchNode {
	r := s.rules[m.Rule]
	next := g.Clone()
	matcher.Apply(next, r, m.X, m.Y, m.Z, nil)
	child := &searchNode{
		state:  append([]uint8(nil), next.State()...),
		parent: parent,
		depth:  parent.depth + 1,
	}
	child.pri = float64(child.depth) + s.depthCoefficient*s.heuristic(child.state)
	return child
}

func reconstruct(n *searchNode) Trajectory {
	var rev Trajectory
	for cur := n; cur != nil; cur = cur.parent {
		rev = append(rev, cur.state)
	}
	out := make(Trajectory, len(rev))
	for i, s := range rev {
		out[len(rev)-1-i] = s
	}
	return out
}
