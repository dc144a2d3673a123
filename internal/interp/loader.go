package interp

import (
	"fmt"
	"strconv"

	"github.com/termfx/markovgo/internal/core"
	"github.com/termfx/markovgo/internal/field"
	"github.com/termfx/markovgo/internal/grid"
	"github.com/termfx/markovgo/internal/node"
	"github.com/termfx/markovgo/internal/observe"
	"github.com/termfx/markovgo/internal/pattern"
	"github.com/termfx/markovgo/internal/rule"
	"github.com/termfx/markovgo/internal/symmetry"
	"github.com/termfx/markovgo/internal/xmlprog"
)

// Load builds a Program from a parsed XML element tree (spec §6). The
// root element declares the alphabet (values attribute) and grid
// dimensions (mx/my/mz), and is itself the top-level control/rewrite
// node.
func Load(root *xmlprog.Element) (*Program, error) {
	values, ok := root.Get("values")
	if !ok {
		return nil, core.Wrap(root.Tag(), "root element missing required \"values\" attribute", nil)
	}
	symbols := []rune(values)

	unions := map[rune][]rune{}
	for _, u := range root.Children("union") {
		symAttr, ok := u.Get("symbol")
		if !ok || len(symAttr) != 1 {
			return nil, core.Wrap("union", "union element requires a single-character \"symbol\" attribute", nil)
		}
		to, ok := u.Get("to")
		if !ok {
			return nil, core.Wrap("union", "union element requires a \"to\" attribute", nil)
		}
		unions[[]rune(symAttr)[0]] = []rune(to)
	}

	alphabet, err := pattern.NewAlphabet(symbols, unions)
	if err != nil {
		return nil, err
	}

	mx, err := attrInt(root, "mx", 0)
	if err != nil {
		return nil, err
	}
	if mx <= 0 {
		return nil, core.Wrap(root.Tag(), "root element requires a positive \"mx\" attribute", nil)
	}
	my, err := attrInt(root, "my", mx)
	if err != nil {
		return nil, err
	}
	mz, err := attrInt(root, "mz", 1)
	if err != nil {
		return nil, err
	}
	is3D := mz > 1

	l := &loader{alphabet: alphabet, is3D: is3D}
	rootNode, err := l.build(root, nil)
	if err != nil {
		return nil, err
	}

	return &Program{
		Alphabet:  alphabet,
		Template:  grid.New(mx, my, mz, alphabet),
		Root:      rootNode,
		rewriters: l.rewriters,
	}, nil
}

// loader carries the state threaded through a recursive tree build:
// the resolved alphabet, the grid dimensionality, and the accumulating
// list of rewrite leaves that will need a per-run RNG stream.
type loader struct {
	alphabet  *pattern.Alphabet
	is3D      bool
	rewriters []*node.Rewrite
}

// build constructs one node.Node from el, with parentGroup the resolved
// symmetry group of the nearest enclosing node (nil at the root), used
// when el's own "symmetry" attribute is absent or "" (spec §4.2 "or
// inherited").
func (l *loader) build(el *xmlprog.Element, parentGroup []symmetry.Transform) (node.Node, error) {
	switch el.Tag() {
	case "sequence":
		children, err := l.buildChildren(el, parentGroup)
		if err != nil {
			return nil, err
		}
		return node.NewSequence(children...), nil

	case "markov":
		children, err := l.buildChildren(el, parentGroup)
		if err != nil {
			return nil, err
		}
		return node.NewMarkov(children...), nil

	case "one", "all", "prl":
		return l.buildRewrite(el, parentGroup)

	case "convchain", "path", "overlap", "convolution", "map":
		return node.NewGenerator(el.Tag()), nil

	default:
		return nil, core.Wrap(el.Tag(), "unknown node tag", nil)
	}
}

// buildChildren builds every control-flow child of el (nested
// sequence/markov/rewrite/generator elements), resolving el's own
// symmetry attribute first so it can be passed down as the parent group.
func (l *loader) buildChildren(el *xmlprog.Element, parentGroup []symmetry.Transform) ([]node.Node, error) {
	group, err := l.resolveGroup(el, parentGroup)
	if err != nil {
		return nil, err
	}
	var out []node.Node
	for i := range el.Nodes {
		child := &el.Nodes[i]
		if !isNodeTag(child.Tag()) {
			continue
		}
		n, err := l.build(child, group)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func isNodeTag(tag string) bool {
	switch tag {
	case "sequence", "markov", "one", "all", "prl",
		"convchain", "path", "overlap", "convolution", "map":
		return true
	}
	return false
}

func (l *loader) resolveGroup(el *xmlprog.Element, parentGroup []symmetry.Transform) ([]symmetry.Transform, error) {
	sym := el.GetDefault("symmetry", "")
	return symmetry.Group(sym, l.is3D, parentGroup)
}

// buildRewrite builds a one/all/prl node: its rule children expanded
// under the node's resolved symmetry group, its field/observe children,
// and its steps/temperature attributes (spec §4.4-§4.6, §6).
func (l *loader) buildRewrite(el *xmlprog.Element, parentGroup []symmetry.Transform) (node.Node, error) {
	group, err := l.resolveGroup(el, parentGroup)
	if err != nil {
		return nil, err
	}

	var mode node.Mode
	switch el.Tag() {
	case "one":
		mode = node.One
	case "all":
		mode = node.All
	case "prl":
		mode = node.Prl
	}

	var rules []*rule.Rule
	for _, ruleEl := range el.Children("rule") {
		in, ok := ruleEl.Get("in")
		if !ok {
			return nil, core.Wrap("rule", "rule element missing \"in\" attribute", nil)
		}
		out, ok := ruleEl.Get("out")
		if !ok {
			return nil, core.Wrap("rule", "rule element missing \"out\" attribute", nil)
		}
		p, err := attrFloat(ruleEl, "p", 1)
		if err != nil {
			return nil, err
		}
		spec := rule.Spec{In: in, Out: out, P: p, Symmetry: ruleEl.GetDefault("symmetry", "")}
		expanded, err := rule.Build(spec, l.alphabet, l.is3D, group)
		if err != nil {
			return nil, err
		}
		rules = append(rules, expanded...)
	}
	if len(rules) == 0 {
		return nil, core.Wrap(el.Tag(), "rewrite node has no rule children", nil)
	}

	rw := node.NewRewrite(mode, rules)
	l.rewriters = append(l.rewriters, rw)

	steps, err := attrInt(el, "steps", 0)
	if err != nil {
		return nil, err
	}
	rw.Steps = steps

	temperature, err := attrFloat(el, "temperature", 0)
	if err != nil {
		return nil, err
	}
	rw.Temperature = temperature

	for _, fieldEl := range el.Children("field") {
		f, err := l.buildField(fieldEl)
		if err != nil {
			return nil, err
		}
		rw.Fields = append(rw.Fields, node.FieldSpec{Field: f})
	}

	observeEls := el.Children("observe")
	for i, obsEl := range observeEls {
		obs, err := l.buildObservation(obsEl)
		if err != nil {
			return nil, err
		}
		rw.Observations = append(rw.Observations, obs)
		if i == 0 {
			rw.Search = obsEl.GetDefault("search", "false") == "true"
			rw.SearchLimit, err = attrInt(obsEl, "limit", 0)
			if err != nil {
				return nil, err
			}
			rw.DepthCoeff, err = attrFloat(obsEl, "depthCoefficient", 1)
			if err != nil {
				return nil, err
			}
		}
	}

	return rw, nil
}

func (l *loader) buildField(el *xmlprog.Element) (field.Field, error) {
	substrate, err := maskFromSymbols(el.GetDefault("substrate", ""), l.alphabet)
	if err != nil {
		return field.Field{}, err
	}
	zero, err := maskFromSymbols(el.GetDefault("zero", ""), l.alphabet)
	if err != nil {
		return field.Field{}, err
	}
	return field.Field{
		Recompute: el.GetDefault("recompute", "false") == "true",
		Essential: el.GetDefault("essential", "false") == "true",
		Substrate: substrate,
		ZeroVal:   zero,
	}, nil
}

func (l *loader) buildObservation(el *xmlprog.Element) (observe.Observation, error) {
	valueAttr, ok := el.Get("value")
	if !ok || len(valueAttr) != 1 {
		return observe.Observation{}, core.Wrap("observe", "observe element requires a single-character \"value\" attribute", nil)
	}
	value, ok := l.alphabet.Values[[]rune(valueAttr)[0]]
	if !ok {
		return observe.Observation{}, core.Wrap("observe", fmt.Sprintf("undeclared symbol %q", valueAttr), nil)
	}
	to, err := maskFromSymbols(el.GetDefault("to", ""), l.alphabet)
	if err != nil {
		return observe.Observation{}, err
	}
	return observe.Observation{Value: value, To: to}, nil
}

// maskFromSymbols ORs together each symbol's alphabet bit (or union fold
// mask) named in s into a single bitmask.
func maskFromSymbols(s string, a *pattern.Alphabet) (uint64, error) {
	var mask uint64
	for _, ch := range s {
		v, ok := a.Values[ch]
		if !ok {
			return 0, core.Wrap("pattern", fmt.Sprintf("undeclared symbol %q", ch), nil)
		}
		mask |= a.Mask[v]
	}
	return mask, nil
}

func attrInt(el *xmlprog.Element, name string, def int) (int, error) {
	v, ok := el.Get(name)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.Wrap(el.Tag(), fmt.Sprintf("attribute %q is not an integer: %v", name, err), err)
	}
	return n, nil
}

func attrFloat(el *xmlprog.Element, name string, def float64) (float64, error) {
	v, ok := el.Get(name)
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, core.Wrap(el.Tag(), fmt.Sprintf("attribute %q is not a number: %v", name, err), err)
	}
	return f, nil
}
