package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/termfx/markovgo/internal/core"
	"github.com/termfx/markovgo/internal/interp"
	"github.com/termfx/markovgo/internal/render"
	"github.com/termfx/markovgo/internal/xmlprog"
)

func newRunCmd() *cobra.Command {
	var seed uint64
	var steps int
	var showDiff bool
	var diffContext int
	var color bool

	cmd := &cobra.Command{
		Use:   "run <program.xml>",
		Short: "Run a program to completion and print its snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := loadProgram(args[0])
			if err != nil {
				return err
			}
			run := interp.NewRun(prog, seed, steps)

			var prev *interp.Snapshot
			for {
				snap, state := run.Next()
				if snap != nil {
					if showDiff && prev != nil {
						fmt.Print(render.Diff(prev, snap, args[0], diffContext, color))
					} else {
						fmt.Print(render.ASCII(snap))
					}
					prev = snap
				}
				if state == core.FAIL {
					break
				}
			}
			return nil
		},
	}

	cmd.Flags().Uint64VarP(&seed, "seed", "s", 0, "RNG seed.")
	cmd.Flags().IntVarP(&steps, "steps", "n", 0, "Outer step cap, 0 means unlimited.")
	cmd.Flags().BoolVarP(&showDiff, "diff", "D", false, "Print a unified diff between consecutive snapshots instead of the full grid.")
	cmd.Flags().IntVarP(&diffContext, "diff-context", "C", 3, "Lines of context for --diff.")
	cmd.Flags().BoolVar(&color, "color", true, "Colorize diff output.")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <program.xml>",
		Short: "Load a program and report load errors without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadProgram(args[0]); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}
}

func loadProgram(path string) (*interp.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	el, err := xmlprog.Parse(f)
	if err != nil {
		return nil, err
	}
	return interp.Load(el)
}
