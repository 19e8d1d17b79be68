package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"javelin/bytecode"
	"javelin/suite"
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "List the suite's registered cases",
	Args:  cobra.NoArgs,
	RunE:  runCases,
}

var disasmCmd = &cobra.Command{
	Use:   "disasm <methodid>",
	Short: "Print a method's decoded instructions",
	Args:  cobra.ExactArgs(1),
	RunE:  runDisasm,
}

var packCmd = &cobra.Command{
	Use:   "pack <out.cbor>",
	Short: "Write the suite as a single packed image file",
	Args:  cobra.ExactArgs(1),
	RunE:  runPack,
}

func init() {
	casesCmd.Flags().String("method", "", "only cases for this method")
}

func runCases(cmd *cobra.Command, args []string) error {
	s, err := loadSuite(cmd)
	if err != nil {
		return err
	}

	selected := s.Cases.All()
	if methodText, _ := cmd.Flags().GetString("method"); methodText != "" {
		id, err := bytecode.ParseMethodID(methodText)
		if err != nil {
			return err
		}
		selected = s.Cases.ForMethod(id)
	}
	for _, c := range selected {
		fmt.Println(c.FormatLine())
	}
	return nil
}

func runDisasm(cmd *cobra.Command, args []string) error {
	id, err := bytecode.ParseMethodID(args[0])
	if err != nil {
		return err
	}
	s, err := loadSuite(cmd)
	if err != nil {
		return err
	}
	m, err := s.Method(id)
	if err != nil {
		return err
	}
	fmt.Print(bytecode.Disassemble(m))
	return nil
}

func runPack(cmd *cobra.Command, args []string) error {
	s, err := loadSuite(cmd)
	if err != nil {
		return err
	}
	return suite.WriteImage(args[0], s)
}
