package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func rootCmd() *cobra.Command {
	root := &cobra.Command{Use: "markovgo"}
	root.AddCommand(newRunCmd(), newValidateCmd(), newCatalogCmd(), newBenchCmd())
	return root
}

// execute runs root with args, capturing both cobra's own output (help,
// usage, errors) and whatever the commands themselves print directly via
// fmt.Print* to os.Stdout (run/validate/catalog/bench all do).
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := rootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	realStdout := os.Stdout
	os.Stdout = w

	runErr := root.Execute()

	os.Stdout = realStdout
	w.Close()
	var captured bytes.Buffer
	if _, err := captured.ReadFrom(r); err != nil {
		t.Fatalf("reading captured stdout: %v", err)
	}

	return buf.String() + captured.String(), runErr
}

func TestRootCommandRegistersEverySubcommand(t *testing.T) {
	root := rootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[strings.Fields(c.Use)[0]] = true
	}
	for _, want := range []string{"run", "validate", "catalog", "bench"} {
		if !names[want] {
			t.Fatalf("missing subcommand %q among %v", want, names)
		}
	}
}

func writeProgram(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "program.xml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestValidateAcceptsWellFormedProgram(t *testing.T) {
	path := writeProgram(t, `<all values="BW" mx="1"><rule in="B" out="W"/></all>`)
	out, err := execute(t, "validate", path)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "ok") {
		t.Fatalf("output = %q, want it to contain \"ok\"", out)
	}
}

func TestValidateRejectsMalformedProgram(t *testing.T) {
	path := writeProgram(t, `<all mx="1"><rule in="B" out="W"/></all>`) // missing values
	if _, err := execute(t, "validate", path); err == nil {
		t.Fatalf("want an error for a program missing its \"values\" attribute")
	}
}

func TestRunPrintsFinalGridState(t *testing.T) {
	path := writeProgram(t, `<all values="BW" mx="3" my="1"><rule in="B" out="W"/></all>`)
	out, err := execute(t, "run", path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "WWW") {
		t.Fatalf("output = %q, want a WWW row once the grid fills", out)
	}
}

func TestCatalogAddListShowRoundTrip(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "catalog.db")
	progPath := writeProgram(t, `<all values="BW" mx="1"><rule in="B" out="W"/></all>`)

	if _, err := execute(t, "catalog", "--catalog", dsn, "--pure-sqlite", "add", progPath, "--description", "fills"); err != nil {
		t.Fatalf("catalog add: %v", err)
	}

	out, err := execute(t, "catalog", "--catalog", dsn, "--pure-sqlite", "list")
	if err != nil {
		t.Fatalf("catalog list: %v", err)
	}
	if !strings.Contains(out, "program") || !strings.Contains(out, "fills") {
		t.Fatalf("list output = %q, want entry name \"program\" and description \"fills\"", out)
	}

	out, err = execute(t, "catalog", "--catalog", dsn, "--pure-sqlite", "show", "program")
	if err != nil {
		t.Fatalf("catalog show: %v", err)
	}
	if !strings.Contains(out, "<all") {
		t.Fatalf("show output = %q, want the stored program XML", out)
	}
}

func TestCatalogAddRejectsNameWithMultipleMatches(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "catalog.db")
	dir := t.TempDir()
	for _, n := range []string{"a.xml", "b.xml"} {
		if err := os.WriteFile(filepath.Join(dir, n), []byte(`<all values="B" mx="1"></all>`), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	_, err := execute(t, "catalog", "--catalog", dsn, "--pure-sqlite", "add", filepath.Join(dir, "*.xml"), "--name", "override")
	if err == nil {
		t.Fatalf("want an error: --name was given with more than one matched file")
	}
}

func TestBenchSearchReportsCounters(t *testing.T) {
	out, err := execute(t, "bench", "search", "--size", "4", "--limit", "50")
	if err != nil {
		t.Fatalf("bench search: %v", err)
	}
	for _, field := range []string{"visited", "tries", "found"} {
		if !strings.Contains(out, field) {
			t.Fatalf("bench search output = %q, want it to report %q", out, field)
		}
	}
}
