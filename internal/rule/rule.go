// Package rule builds Rule values (spec §3 Rule, §4.2 Symmetry expansion)
// from parsed input/output patterns and a symmetry group, and precomputes
// the ishifts trigger-shift tables the matcher's incremental rescan needs.
package rule

import (
	"fmt"

	"github.com/termfx/markovgo/internal/core"
	"github.com/termfx/markovgo/internal/pattern"
	"github.com/termfx/markovgo/internal/symmetry"
)

// Shift is a trigger offset within a rule's input pattern.
type Shift struct{ DX, DY, DZ int }

// Rule is an immutable, expanded rewrite rule (spec §3).
type Rule struct {
	IMX, IMY, IMZ int
	OMX, OMY, OMZ int

	Input  []uint64 // bitmask per input cell
	Output []uint8  // value or core.DontWrite per output cell

	P float64 // selection weight, default 1

	// Ishifts[v] lists the (dx,dy,dz) offsets within the input box at
	// which value v is an accepted trigger (spec §4.1 incremental rescan).
	Ishifts [][]Shift

	Original bool // true for the rule as written, false for symmetry duplicates
}

// Spec is the as-written rule before symmetry expansion: an input/output
// pattern pair, weight, and optional per-rule symmetry override.
type Spec struct {
	In, Out  string
	P        float64
	Symmetry string // "" means inherit
}

// Build parses Spec.In/Out and expands the rule over the resolved
// symmetry group, returning one *Rule per distinct transform with
// Original set on the as-written one and cleared on duplicates. Output
// dimensions must match input dimensions exactly (no scaling): this is an
// engine invariant, not merely a convention, since ishifts index into the
// same box shape on both sides.
func Build(spec Spec, a *pattern.Alphabet, is3D bool, parentGroup []symmetry.Transform) ([]*Rule, error) {
	in, err := pattern.ParseInput(spec.In, a)
	if err != nil {
		return nil, err
	}
	out, err := pattern.ParseOutput(spec.Out, a)
	if err != nil {
		return nil, err
	}
	if in.MX != out.MX || in.MY != out.MY || in.MZ != out.MZ {
		return nil, core.Wrap("rule", fmt.Sprintf(
			"input pattern %dx%dx%d does not match output pattern %dx%dx%d",
			in.MX, in.MY, in.MZ, out.MX, out.MY, out.MZ), nil)
	}

	group, err := symmetry.Group(spec.Symmetry, is3D, parentGroup)
	if err != nil {
		return nil, err
	}

	p := spec.P
	if p <= 0 {
		p = 1
	}

	seen := map[string]bool{}
	var rules []*Rule
	for gi, t := range group {
		r := applyTransform(t, in, out)
		key := canonicalKey(r)
		if seen[key] {
			continue
		}
		seen[key] = true
		r.P = p
		r.Original = gi == 0
		r.Ishifts = buildIshifts(r, a.C())
		rules = append(rules, r)
	}
	return rules, nil
}

func applyTransform(t symmetry.Transform, in, out *pattern.Grid) *Rule {
	omx, omy, omz := symmetry.OutputDims(t, in.MX, in.MY, in.MZ)
	r := &Rule{
		IMX: omx, IMY: omy, IMZ: omz,
		OMX: omx, OMY: omy, OMZ: omz,
		Input:  make([]uint64, omx*omy*omz),
		Output: make([]uint8, omx*omy*omz),
	}
	for z := range omz {
		for y := range omy {
			for x := range omx {
				sx, sy, sz := symmetry.Apply(t, omx, omy, omz, x, y, z)
				si := sx + sy*in.MX + sz*in.MX*in.MY
				di := x + y*omx + z*omx*omy
				r.Input[di] = in.InputMask[si]
				r.Output[di] = out.OutputVal[si]
			}
		}
	}
	return r
}

// canonicalKey uniquely identifies a rule's (shape, input, output) for
// symmetry-duplicate suppression.
func canonicalKey(r *Rule) string {
	buf := make([]byte, 0, 16+len(r.Input)*5+len(r.Output)*2)
	buf = appendInt(buf, r.IMX)
	buf = appendInt(buf, r.IMY)
	buf = appendInt(buf, r.IMZ)
	for _, v := range r.Input {
		buf = appendUint64(buf, v)
	}
	for _, v := range r.Output {
		buf = append(buf, byte(v))
	}
	return string(buf)
}

func appendInt(b []byte, v int) []byte {
	return appendUint64(b, uint64(v))
}

func appendUint64(b []byte, v uint64) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

// buildIshifts precomputes, for each alphabet value v, the list of offsets
// within the input box where v is an accepted trigger value — i.e. where
// the cell's bitmask has bit v set. A rule with a wildcard cell therefore
// appears in every value's ishift list at that offset (spec §4.3: "for
// each rule r iterate rule.ishifts[value]").
func buildIshifts(r *Rule, c int) [][]Shift {
	shifts := make([][]Shift, c)
	for z := range r.IMZ {
		for y := range r.IMY {
			for x := range r.IMX {
				mask := r.Input[x+y*r.IMX+z*r.IMX*r.IMY]
				for v := range c {
					if mask&(1<<uint(v)) != 0 {
						shifts[v] = append(shifts[v], Shift{DX: x, DY: y, DZ: z})
					}
				}
			}
		}
	}
	return shifts
}
