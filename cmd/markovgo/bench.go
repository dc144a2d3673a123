package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/termfx/markovgo/internal/grid"
	"github.com/termfx/markovgo/internal/observe"
	"github.com/termfx/markovgo/internal/pattern"
	"github.com/termfx/markovgo/internal/rule"
)

// newBenchCmd exercises the bounded best-first search (package observe) in
// isolation, following the teacher's tools/stress idiom of driving a
// subsystem standalone rather than through the full CLI pipeline.
func newBenchCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bench",
		Short: "Stress-test engine subsystems in isolation",
	}
	root.AddCommand(newBenchSearchCmd())
	return root
}

func newBenchSearchCmd() *cobra.Command {
	var size int
	var limit int
	var depthCoefficient float64
	var yieldEvery int

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run a bounded best-first search on a synthetic B/W grid and report HALT/iteration counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			alphabet, err := pattern.NewAlphabet([]rune("BW"), nil)
			if err != nil {
				return err
			}

			start := grid.New(size, size, 1, alphabet)
			goal := grid.New(size, size, 1, alphabet)
			for i := range goal.Len() {
				goal.Set(i%size, i/size, 0, 1) // W everywhere
			}

			rules, err := rule.Build(rule.Spec{In: "B", Out: "W"}, alphabet, false, nil)
			if err != nil {
				return err
			}

			obs := []observe.Observation{{Value: 1, To: 1 << 1}}
			future, err := observe.FutureSet(goal, obs)
			if err != nil {
				return err
			}
			potentials := observe.ComputeBackwardPotentials(start, rules, future, size*size)

			s := observe.NewSearch(start, rules, future, potentials, depthCoefficient, limit)

			t0 := time.Now()
			iterations := 0
			for !s.Done() {
				s.Step(yieldEvery)
				iterations++
			}
			elapsed := time.Since(t0)

			fmt.Printf("grid=%dx%d halts=%d visited=%d tries=%d found=%v elapsed=%s\n",
				size, size, iterations, s.Visited(), s.Tries(), s.Result() != nil, elapsed)
			return nil
		},
	}

	cmd.Flags().IntVar(&size, "size", 4, "Side length of the synthetic square grid.")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max children expanded per frontier node, 0 means unbounded.")
	cmd.Flags().Float64Var(&depthCoefficient, "depth-coefficient", 1.0, "Heuristic weight applied to the backward-potential estimate.")
	cmd.Flags().IntVar(&yieldEvery, "yield-every", observe.DefaultYieldInterval, "Cooperative suspension interval passed to Search.Step.")
	return cmd
}
