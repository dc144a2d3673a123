// Package symmetry enumerates the 8 planar and 48 cubic symmetry
// operations and builds symmetry-subgroup closures of a rule's pattern
// pair, following spec §4.2. A Transform is a coordinate permutation plus
// sign flips; applying one to an (input, output) pattern pair and
// deduplicating by canonical form produces the rule's symmetry expansion.
package symmetry

import "github.com/termfx/markovgo/internal/core"

// Transform is one element of the dihedral/octahedral group: axis
// permutation P (which axis each output axis reads from) and sign Sgn
// (+1 or -1) applied after permutation, both 3-long for the cubic case and
// only the first two used for 2D.
type Transform struct {
	P   [3]int
	Sgn [3]int
}

var identity3D = Transform{P: [3]int{0, 1, 2}, Sgn: [3]int{1, 1, 1}}

// planar8 is the dihedral group D4 acting on (x, y): 4 rotations x 2
// reflections, z untouched.
var planar8 = buildPlanar8()

func buildPlanar8() []Transform {
	out := make([]Transform, 0, 8)
	// rotate: (x,y) -> (y, -x) applied 0..3 times, each optionally reflected.
	rot := Transform{P: [3]int{0, 1, 2}, Sgn: [3]int{1, 1, 1}}
	cur := identity3D
	for range 4 {
		out = append(out, cur)
		reflected := cur
		reflected.Sgn[0] = -reflected.Sgn[0]
		out = append(out, reflected)
		cur = compose2D(cur, rot90)
	}
	_ = rot
	return out
}

var rot90 = Transform{P: [3]int{1, 0, 2}, Sgn: [3]int{1, -1, 1}}

// compose2D composes two planar transforms (z axis untouched): apply b
// first, then a, matching function-composition order a∘b.
func compose2D(a, b Transform) Transform {
	var out Transform
	for axis := range 2 {
		src := a.P[axis]
		out.P[axis] = b.P[src]
		sgn := a.Sgn[axis]
		if src < 2 {
			sgn *= b.Sgn[src]
		}
		out.Sgn[axis] = sgn
	}
	out.P[2] = 2
	out.Sgn[2] = 1
	return out
}

// cubic48 is the full octahedral symmetry group (signed permutations of
// 3 axes with determinant condition relaxed — all 48 signed permutations,
// since reflections are legal 3D rule symmetries in this domain).
var cubic48 = buildCubic48()

func buildCubic48() []Transform {
	perms := permutations3()
	out := make([]Transform, 0, 48)
	for _, p := range perms {
		for sx := -1; sx <= 1; sx += 2 {
			for sy := -1; sy <= 1; sy += 2 {
				for sz := -1; sz <= 1; sz += 2 {
					out = append(out, Transform{P: p, Sgn: [3]int{sx, sy, sz}})
				}
			}
		}
	}
	return out
}

func permutations3() [][3]int {
	idx := [3]int{0, 1, 2}
	var out [][3]int
	var permute func(k int)
	permute = func(k int) {
		if k == len(idx) {
			cp := idx
			out = append(out, cp)
			return
		}
		for i := k; i < len(idx); i++ {
			idx[k], idx[i] = idx[i], idx[k]
			permute(k + 1)
			idx[k], idx[i] = idx[i], idx[k]
		}
	}
	permute(0)
	return out
}

// Group resolves a symmetry attribute string (spec §6, e.g. "()", "(x)",
// "(y)", "(xy)", "(xyz)", "all") plus whether the rule is 2D or 3D into
// the concrete list of Transforms selected, honoring the parent mask when
// sym is "" (meaning "inherit the enclosing node's symmetry").
//
// The syntax follows the source: a parenthesized list of axis letters
// names the subset of axes whose reflections generate the subgroup —
// "(xy)" is the Klein four-group {identity, reflect-x, reflect-y,
// reflect-x∘reflect-y}, a genuine subgroup of the dihedral/octahedral
// group since axis reflections commute and square to identity. An empty
// "()" means "identity only" (original rule, no duplicates). "all" gives
// the full dihedral group (8 elements) for 2D grids, or the full
// octahedral group (48 elements) for 3D.
func Group(sym string, is3D bool, parent []Transform) ([]Transform, error) {
	full := planar8
	if is3D {
		full = cubic48
	}
	if sym == "" {
		if parent != nil {
			return parent, nil
		}
		return []Transform{identityFor(is3D)}, nil
	}
	if sym == "all" {
		return full, nil
	}
	axes, err := parseAxes(sym, is3D)
	if err != nil {
		return nil, err
	}
	return reflectionClosure(axes, is3D), nil
}

func identityFor(is3D bool) Transform {
	if is3D {
		return identity3D
	}
	return Transform{P: [3]int{0, 1, 2}, Sgn: [3]int{1, 1, 1}}
}

// parseAxes parses a "(<letters>)" symmetry string into the set of axis
// indices (0=x, 1=y, 2=z) named inside the parens.
func parseAxes(sym string, is3D bool) ([]int, error) {
	if len(sym) < 2 || sym[0] != '(' || sym[len(sym)-1] != ')' {
		return nil, core.Wrap("symmetry", "unknown symmetry string: "+sym, nil)
	}
	body := sym[1 : len(sym)-1]
	seen := map[byte]bool{}
	var axes []int
	for i := 0; i < len(body); i++ {
		c := body[i]
		if seen[c] {
			continue
		}
		var axis int
		switch c {
		case 'x':
			axis = 0
		case 'y':
			axis = 1
		case 'z':
			if !is3D {
				return nil, core.Wrap("symmetry", "z-axis symmetry requires a 3D grid", nil)
			}
			axis = 2
		default:
			return nil, core.Wrap("symmetry", "unknown symmetry string: "+sym, nil)
		}
		seen[c] = true
		axes = append(axes, axis)
	}
	return axes, nil
}

// reflectionClosure builds the 2^len(axes) subgroup generated by
// independent reflection on each named axis: every Transform has the
// identity permutation, with sign -1 on an axis iff that axis's bit is
// set in the combination index.
func reflectionClosure(axes []int, is3D bool) []Transform {
	id := identityFor(is3D)
	n := len(axes)
	out := make([]Transform, 0, 1<<uint(n))
	for combo := 0; combo < (1 << uint(n)); combo++ {
		t := id
		for bit, axis := range axes {
			if combo&(1<<uint(bit)) != 0 {
				t.Sgn[axis] = -1
			}
		}
		out = append(out, t)
	}
	return out
}

// Apply maps an output coordinate (within a box of size (mx,my,mz)) back
// through t to the source coordinate it reads from, the standard
// "backward" application used to resample a pattern grid under t.
func Apply(t Transform, mx, my, mz, x, y, z int) (int, int, int) {
	src := [3]int{x, y, z}
	dim := [3]int{mx, my, mz}
	var out [3]int
	for axis := range 3 {
		v := src[t.P[axis]]
		if t.Sgn[axis] < 0 {
			v = dim[t.P[axis]] - 1 - v
		}
		out[axis] = v
	}
	return out[0], out[1], out[2]
}

// OutputDims returns the (mx,my,mz) of the box after applying t to a box
// of size (mx,my,mz): axis permutation can swap extents.
func OutputDims(t Transform, mx, my, mz int) (int, int, int) {
	dim := [3]int{mx, my, mz}
	var out [3]int
	for axis := range 3 {
		out[t.P[axis]] = dim[axis]
	}
	return out[0], out[1], out[2]
}
