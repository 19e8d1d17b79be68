package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"javelin/bytecode"
	"javelin/cases"
	"javelin/fuzz"
	"javelin/trials"
	"javelin/vm"
)

var fuzzCmd = &cobra.Command{
	Use:   "fuzz <methodid>",
	Short: "Search a method's input space for a non-ok outcome",
	Args:  cobra.ExactArgs(1),
	RunE:  runFuzz,
}

func init() {
	fuzzCmd.Flags().Int("iters", 0, "iteration budget (0 = suite default)")
	fuzzCmd.Flags().Int64("seed", 0, "PRNG seed (0 = suite default)")
	fuzzCmd.Flags().Int("max-steps", 0, "step budget per run (0 = suite default)")
	fuzzCmd.Flags().String("db", "", "record each trial in this SQLite database")
}

func runFuzz(cmd *cobra.Command, args []string) error {
	id, err := bytecode.ParseMethodID(args[0])
	if err != nil {
		return err
	}

	s, err := loadSuite(cmd)
	if err != nil {
		return err
	}

	iters, _ := cmd.Flags().GetInt("iters")
	if iters == 0 {
		iters = s.Manifest.Fuzz.Iters
	}
	seed, _ := cmd.Flags().GetInt64("seed")
	if seed == 0 {
		seed = s.Manifest.Fuzz.Seed
	}
	maxSteps, _ := cmd.Flags().GetInt("max-steps")
	if maxSteps == 0 {
		maxSteps = s.Manifest.Run.MaxSteps
	}

	opts := fuzz.Options{
		MaxSteps:   maxSteps,
		MaxIters:   iters,
		Seed:       seed,
		CorpusSize: s.Manifest.Fuzz.CorpusSize,
	}

	var store *trials.Store
	if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
		store, err = trials.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		var recordErr error
		opts.OnTrial = func(inputs []vm.Arg, out vm.Outcome) {
			if err := store.Record(id, inputs, out.Label(), out.Steps); err != nil && recordErr == nil {
				recordErr = err
			}
		}
		defer func() {
			if recordErr != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "javelin: recording trials:", recordErr)
			}
		}()
	}

	f, err := fuzz.New(s.Program, id, opts)
	if err != nil {
		return err
	}
	rep, err := f.Run()
	if err != nil {
		return err
	}

	if rep.Label == vm.LabelOk {
		fmt.Printf("ok after %d iterations (coverage %d)\n", rep.Iterations, rep.Score)
		return nil
	}
	fmt.Printf("%s -> %s after %d iterations (coverage %d)\n",
		cases.FormatInputs(rep.Inputs), rep.Label, rep.Iterations, rep.Score)
	return nil
}
