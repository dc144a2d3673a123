// Package config builds a run configuration from CLI flags and a
// .env overlay, following the teacher's pflag-based flag set
// (internal/config/cli.go) plus its godotenv.Load() convention
// (db/sqlite_integration_test.go).
package config

import (
	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Run holds everything a program execution needs beyond the program
// file itself: RNG seed, outer step cap, and catalog connection info.
type Run struct {
	ProgramPath string
	Seed        uint64
	Steps       int

	CatalogDSN  string
	CatalogPure bool
	Debug       bool
}

// LoadEnv applies a .env overlay if present, following the teacher's
// convention of ignoring a missing file (godotenv.Load() error is not
// fatal: most environments simply have no .env).
func LoadEnv() {
	_ = godotenv.Load()
}

// BuildRunFromFlags parses args into a Run, mirroring the teacher's
// BuildConfigFromFlags shape (a dedicated pflag.FlagSet per command,
// not the package-global flag.CommandLine).
func BuildRunFromFlags(args []string) (*Run, []string, error) {
	fs := pflag.NewFlagSet("markovgo", pflag.ContinueOnError)

	seed := fs.Uint64P("seed", "s", 0, "RNG seed for this run.")
	steps := fs.IntP("steps", "n", 0, "Outer step cap, 0 means unlimited.")
	dsn := fs.String("catalog", "markovgo.db", "Catalog database DSN.")
	pure := fs.Bool("pure-sqlite", false, "Use the pure-Go SQLite driver instead of the cgo one.")
	debug := fs.BoolP("debug", "d", false, "Enable verbose query logging.")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	rest := fs.Args()
	r := &Run{
		Seed:        *seed,
		Steps:       *steps,
		CatalogDSN:  *dsn,
		CatalogPure: *pure,
		Debug:       *debug,
	}
	if len(rest) > 0 {
		r.ProgramPath = rest[0]
	}
	return r, rest, nil
}

// ExpandGlobs expands a list of file paths, including doublestar glob
// patterns ("**/*.xml"), following the teacher's util.ExpandGlobs shape
// but matching recursively: a batch catalog import is expected to walk a
// directory tree of program files, not just one flat directory.
func ExpandGlobs(patterns []string) ([]string, error) {
	var out []string
	for _, p := range patterns {
		if !doublestar.ContainsMagic(p) {
			out = append(out, p)
			continue
		}
		matches, err := doublestar.FilepathGlob(p)
		if err != nil {
			return nil, err
		}
		out = append(out, matches...)
	}
	return out, nil
}
