package node

import "github.com/termfx/markovgo/internal/core"

// Sequence runs its children in order, each exactly once per tick it is
// entered at, advancing its cursor to the next child only on that child's
// SUCCESS; it reports FAIL upward the moment any child fails, leaving its
// cursor parked on that child so a later re-entry (e.g. by a retrying
// ancestor) resumes there rather than restarting (spec §4.7).
type Sequence struct {
	Children []Node
	n        int
}

// NewSequence builds a Sequence node starting at its first child.
func NewSequence(children ...Node) *Sequence {
	return &Sequence{Children: children, n: -1}
}

func (s *Sequence) Reset() {
	s.n = -1
	for _, c := range s.Children {
		c.Reset()
	}
}

func (s *Sequence) Run(ctx *RunContext) core.RunState {
	if len(s.Children) == 0 {
		return core.FAIL
	}
	if s.n < 0 {
		s.n = 0
	}
	state := s.Children[s.n].Run(ctx)
	switch state {
	case core.HALT:
		return core.HALT
	case core.SUCCESS:
		s.n++
		if s.n >= len(s.Children) {
			s.n = -1
			return core.SUCCESS
		}
		return core.SUCCESS
	default: // core.FAIL
		return core.FAIL
	}
}

// Markov runs, each tick, the first child that succeeds: on FAIL it tries
// the next child immediately within the same tick (no grid mutation
// happened, so no snapshot is owed for the attempt); on SUCCESS it resets
// its cursor to 0 so the next tick reconsiders every child from the top
// (spec §3/§4.7).
type Markov struct {
	Children []Node
	n        int
}

// NewMarkov builds a Markov node starting at its first child.
func NewMarkov(children ...Node) *Markov {
	return &Markov{Children: children, n: -1}
}

func (m *Markov) Reset() {
	m.n = -1
	for _, c := range m.Children {
		c.Reset()
	}
}

func (m *Markov) Run(ctx *RunContext) core.RunState {
	if len(m.Children) == 0 {
		return core.FAIL
	}
	if m.n < 0 {
		m.n = 0
	}
	for {
		state := m.Children[m.n].Run(ctx)
		switch state {
		case core.HALT:
			return core.HALT
		case core.SUCCESS:
			m.n = 0
			return core.SUCCESS
		default: // core.FAIL: try the next child immediately, same tick
			m.n++
			if m.n >= len(m.Children) {
				m.n = -1
				return core.FAIL
			}
		}
	}
}
