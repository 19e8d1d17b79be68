package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"javelin/bytecode"
	"javelin/cases"
	"javelin/vm"
)

var runCmd = &cobra.Command{
	Use:   `run <methodid> <inputs>`,
	Short: "Run one method on an input tuple and print its oracle label",
	Long: `Run executes a single method on a concrete input tuple and prints the
resulting label to stdout, e.g.:

  javelin run "jpamb.cases.Simple.divideByN:(I)I" "(0)"`,
	Args: cobra.ExactArgs(2),
	RunE: runExecution,
}

func init() {
	runCmd.Flags().Int("max-steps", 0, "step budget per run (0 = suite default)")
	runCmd.Flags().Bool("trace", false, "print each executed instruction to stderr")
}

func runExecution(cmd *cobra.Command, args []string) error {
	id, err := bytecode.ParseMethodID(args[0])
	if err != nil {
		return err
	}
	inputs, err := cases.ParseInputs(args[1])
	if err != nil {
		return err
	}

	s, err := loadSuite(cmd)
	if err != nil {
		return err
	}

	maxSteps, err := cmd.Flags().GetInt("max-steps")
	if err != nil {
		return err
	}
	opts := vm.Options{MaxSteps: maxSteps}
	if trace, _ := cmd.Flags().GetBool("trace"); trace {
		opts.Tracer = stderrTracer{}
	}

	out, err := s.Run(id, inputs, opts)
	if err != nil {
		return err
	}
	fmt.Println(out.Label())
	return nil
}

// stderrTracer prints the executed instruction stream, keeping stdout
// clean for the label.
type stderrTracer struct{}

func (stderrTracer) Step(m *bytecode.Method, pc int, in bytecode.Inst) {
	fmt.Fprintf(os.Stderr, "%s @%d: %s\n", m.ID, pc, in)
}

func (stderrTracer) IntCompare(m *bytecode.Method, pc int, a, b int32) {
	fmt.Fprintf(os.Stderr, "%s @%d: compare %d %d\n", m.ID, pc, a, b)
}

func (stderrTracer) StringCompare(m *bytecode.Method, pc int, recv, arg string, fold bool) {
	fmt.Fprintf(os.Stderr, "%s @%d: compare %q %q (fold=%v)\n", m.ID, pc, recv, arg, fold)
}
