// Package render turns engine snapshots into terminal-friendly text: an
// ASCII grid dump per plane, and a colored unified diff between two
// snapshots, grounded on the teacher's util.UnifiedDiff (internal/util/
// util.go) built on pmezard/go-difflib.
package render

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/termfx/markovgo/internal/interp"
)

// ASCII renders one snapshot as legend characters, one plane per blank
// line, MY rows of MX characters each.
func ASCII(s *interp.Snapshot) string {
	legend := []rune(s.Legend)
	var b strings.Builder
	for z := range s.FZ {
		if z > 0 {
			b.WriteByte('\n')
		}
		for y := range s.FY {
			for x := range s.FX {
				i := x + y*s.FX + z*s.FX*s.FY
				b.WriteRune(legend[s.State[i]])
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

const (
	colorReset = "\x1b[0m"
	colorRed   = "\x1b[31m"
	colorGreen = "\x1b[32m"
	colorCyan  = "\x1b[36m"
)

// Diff renders a unified diff between two snapshots' ASCII forms,
// optionally ANSI-colored, following the teacher's UnifiedDiff shape
// (internal/util/util.go): SplitLines both sides, build a
// difflib.UnifiedDiff, then colorize +/-/@ prefixed lines.
func Diff(before, after *interp.Snapshot, label string, context int, color bool) string {
	d := difflib.UnifiedDiff{
		A:        difflib.SplitLines(ASCII(before)),
		B:        difflib.SplitLines(ASCII(after)),
		FromFile: label,
		ToFile:   label + " (next)",
		Context:  context,
	}
	text, err := difflib.GetUnifiedDiffString(d)
	if err != nil {
		return "(diff error: " + err.Error() + ")"
	}
	if !color {
		return text
	}

	var b strings.Builder
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if i == len(lines)-1 && l == "" {
			continue
		}
		switch {
		case strings.HasPrefix(l, "+"):
			b.WriteString(colorGreen + l + colorReset + "\n")
		case strings.HasPrefix(l, "-"):
			b.WriteString(colorRed + l + colorReset + "\n")
		case strings.HasPrefix(l, "@"):
			b.WriteString(colorCyan + l + colorReset + "\n")
		default:
			b.WriteString(l + "\n")
		}
	}
	return b.String()
}
