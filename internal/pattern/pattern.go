// Package pattern implements the rewrite-rule pattern string grammar
// (spec §6): cells separated by '/' between planes, ',' between rows, no
// separator between cells. A cell is a single alphabet symbol, a declared
// union symbol, or '*' (wildcard on input, "don't write" on output).
package pattern

import (
	"fmt"
	"strings"

	"github.com/termfx/markovgo/internal/core"
)

// Alphabet maps symbols to numeric values and back, including union-symbol
// fold masks (spec §3 Grid.mask).
type Alphabet struct {
	Characters []rune
	Values     map[rune]uint8
	// Mask[v] is the bitmask of underlying first-class values a union
	// symbol maps to; first-class symbols map to their own single bit.
	Mask []uint64
}

// NewAlphabet builds an Alphabet from an ordered symbol list plus optional
// union declarations (symbol -> member symbols).
func NewAlphabet(symbols []rune, unions map[rune][]rune) (*Alphabet, error) {
	if len(symbols) == 0 {
		return nil, core.Wrap("alphabet", "empty alphabet", nil)
	}
	if len(symbols) > 64 {
		return nil, core.Wrap("alphabet", fmt.Sprintf("alphabet size %d exceeds the 64-symbol limit (rule.Input is a uint64 bitmask per cell)", len(symbols)), nil)
	}
	values := make(map[rune]uint8, len(symbols))
	for i, c := range symbols {
		if _, dup := values[c]; dup {
			return nil, core.Wrap("alphabet", fmt.Sprintf("duplicate symbol %q", c), nil)
		}
		values[c] = uint8(i)
	}
	mask := make([]uint64, len(symbols))
	for i := range mask {
		mask[i] = 1 << uint(i)
	}
	for sym, members := range unions {
		v, ok := values[sym]
		if !ok {
			return nil, core.Wrap("alphabet", fmt.Sprintf("union symbol %q not declared", sym), nil)
		}
		m := uint64(0)
		for _, member := range members {
			mv, ok := values[member]
			if !ok {
				return nil, core.Wrap("alphabet", fmt.Sprintf("union member %q of %q not declared", member, sym), nil)
			}
			m |= 1 << uint(mv)
		}
		mask[v] = m
	}
	return &Alphabet{Characters: symbols, Values: values, Mask: mask}, nil
}

func (a *Alphabet) C() int { return len(a.Characters) }

// Grid is the Box shape and bitmask content of a parsed input or output
// pattern, prior to becoming part of a Rule.
type Grid struct {
	MX, MY, MZ int
	// Both slices are in row-major (x + y*MX + z*MX*MY) order. InputMask
	// holds the bitmask of accepted values per cell; OutputVal holds the
	// single value to write per cell, or core.DontWrite.
	InputMask []uint64 // nil for output patterns
	OutputVal []uint8  // nil for input patterns; core.DontWrite means "don't write"
}

// ParseInput parses an input pattern string into a bitmask Grid.
func ParseInput(s string, a *Alphabet) (*Grid, error) {
	planes, err := splitPlanes(s)
	if err != nil {
		return nil, err
	}
	mx, my, mz := dims(planes)
	if err := checkRectangular(planes, mx, my); err != nil {
		return nil, err
	}
	cells := make([]uint64, mx*my*mz)
	for z, plane := range planes {
		for y, row := range plane {
			for x, ch := range row {
				idx := x + y*mx + z*mx*my
				if ch == '*' {
					cells[idx] = allBits(a.C())
					continue
				}
				v, ok := a.Values[ch]
				if !ok {
					return nil, core.Wrap("rule.in", fmt.Sprintf("undeclared symbol %q", ch), nil)
				}
				cells[idx] = a.Mask[v]
			}
		}
	}
	return &Grid{MX: mx, MY: my, MZ: mz, InputMask: cells}, nil
}

// ParseOutput parses an output pattern string into a resolved-value Grid.
// '*' means "don't write" (core.DontWrite).
func ParseOutput(s string, a *Alphabet) (*Grid, error) {
	planes, err := splitPlanes(s)
	if err != nil {
		return nil, err
	}
	mx, my, mz := dims(planes)
	if err := checkRectangular(planes, mx, my); err != nil {
		return nil, err
	}
	cells := make([]uint8, mx*my*mz)
	for z, plane := range planes {
		for y, row := range plane {
			for x, ch := range row {
				idx := x + y*mx + z*mx*my
				if ch == '*' {
					cells[idx] = core.DontWrite
					continue
				}
				v, ok := a.Values[ch]
				if !ok {
					return nil, core.Wrap("rule.out", fmt.Sprintf("undeclared symbol %q", ch), nil)
				}
				cells[idx] = v
			}
		}
	}
	return &Grid{MX: mx, MY: my, MZ: mz, OutputVal: cells}, nil
}

func allBits(c int) uint64 {
	if c == 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(c)) - 1
}

// splitPlanes splits "a,b/c,d" into [][]string{{"a","b"},{"c","d"}}, one
// []rune-convertible row string per row, one slice of rows per plane.
func splitPlanes(s string) ([][]string, error) {
	if s == "" {
		return nil, core.Wrap("rule", "empty pattern", nil)
	}
	planeStrs := strings.Split(s, "/")
	planes := make([][]string, len(planeStrs))
	for i, p := range planeStrs {
		if p == "" {
			return nil, core.Wrap("rule", "empty plane in pattern", nil)
		}
		planes[i] = strings.Split(p, ",")
	}
	return planes, nil
}

func dims(planes [][]string) (mx, my, mz int) {
	mz = len(planes)
	my = len(planes[0])
	mx = len([]rune(planes[0][0]))
	return
}

func checkRectangular(planes [][]string, mx, my int) error {
	for _, plane := range planes {
		if len(plane) != my {
			return core.Wrap("rule", "inconsistent row count across planes", nil)
		}
		for _, row := range plane {
			if len([]rune(row)) != mx {
				return core.Wrap("rule", "inconsistent cell count across rows", nil)
			}
		}
	}
	return nil
}
