// Command javelin runs micro-benchmark methods against concrete inputs
// and classifies their terminal behavior into oracle labels. Labels are
// data on stdout; harness errors go to stderr with a nonzero exit.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"javelin/suite"

	_ "github.com/tliron/commonlog/simple"
)

var rootCmd = &cobra.Command{
	Use:           "javelin",
	Short:         "Benchmark oracle interpreter and harness",
	Long:          `javelin executes decoded bytecode methods on concrete inputs and classifies each run as ok, assertion error, null pointer, out of bounds, divide by zero, or an uncaught exception.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		commonlog.Configure(verbosity, nil)
	},
}

func main() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(fuzzCmd)
	rootCmd.AddCommand(casesCmd)
	rootCmd.AddCommand(disasmCmd)
	rootCmd.AddCommand(packCmd)

	rootCmd.PersistentFlags().String("suite", ".", "suite manifest, directory, or packed image")
	rootCmd.PersistentFlags().CountP("verbose", "v", "increase log verbosity (repeatable)")

	if err := rootCmd.Execute(); err != nil {
		os.Stderr.WriteString("javelin: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func loadSuite(cmd *cobra.Command) (*suite.Suite, error) {
	path, err := cmd.Flags().GetString("suite")
	if err != nil {
		return nil, err
	}
	return suite.Load(path)
}
