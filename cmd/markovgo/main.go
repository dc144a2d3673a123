// Command markovgo is the reference driver for the rewrite engine: it
// loads an XML program, runs it to completion, and prints its snapshots,
// following the teacher's cobra root-command-plus-subcommands shape
// (demo/cmd/main.go).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/termfx/markovgo/internal/config"
)

func main() {
	config.LoadEnv()

	root := &cobra.Command{
		Use:   "markovgo",
		Short: "A deterministic grid rewrite-rule engine",
	}

	root.AddCommand(
		newRunCmd(),
		newValidateCmd(),
		newCatalogCmd(),
		newBenchCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
