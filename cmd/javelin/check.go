package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"javelin/bytecode"
	"javelin/trials"
	"javelin/vm"
)

var checkCmd = &cobra.Command{
	Use:   "check [methodid...]",
	Short: "Run every registered case and compare against its expected label",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().IntP("jobs", "j", 1, "cases to run concurrently")
	checkCmd.Flags().Int("max-steps", 0, "step budget per run (0 = suite default)")
	checkCmd.Flags().String("db", "", "record each trial in this SQLite database")
}

func runCheck(cmd *cobra.Command, args []string) error {
	s, err := loadSuite(cmd)
	if err != nil {
		return err
	}

	var ids []bytecode.MethodID
	for _, a := range args {
		id, err := bytecode.ParseMethodID(a)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	jobs, _ := cmd.Flags().GetInt("jobs")
	maxSteps, _ := cmd.Flags().GetInt("max-steps")
	results, err := s.Check(ids, vm.Options{MaxSteps: maxSteps}, jobs)
	if err != nil {
		return err
	}

	var store *trials.Store
	if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
		store, err = trials.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	pass := color.New(color.FgGreen).Sprint("pass")
	fail := color.New(color.FgRed).Sprint("FAIL")

	failed := 0
	for _, r := range results {
		if store != nil {
			if err := store.Record(r.Case.Method, r.Case.Inputs, r.Label, r.Steps); err != nil {
				return err
			}
		}
		if r.Pass() {
			fmt.Printf("%s %s\n", pass, r.Case.FormatLine())
			continue
		}
		failed++
		fmt.Printf("%s %s got %q\n", fail, r.Case.FormatLine(), r.Label)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d cases failed", failed, len(results))
	}
	fmt.Printf("%d cases passed\n", len(results))
	return nil
}
