package main

import (
	"fmt"
	"os"

	"github.com/dhamidi/cif/parser"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	var forceVersion string

	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Report every syntax problem in a CIF file",
		Long: `Check a CIF file and print one line per problem, in
file:line:column: message form. Exits non-zero when any problem was
found.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readInput(args)
			if err != nil {
				return err
			}
			filename := "<stdin>"
			if len(args) > 0 {
				filename = args[0]
			}

			version, err := parseVersionFlag(forceVersion)
			if err != nil {
				return err
			}

			count := 0
			opts := &parser.Options{
				Version: version,
				OnError: func(e *parser.ParseError) error {
					count++
					fmt.Printf("%s:%d:%d: %s\n", filename, e.Pos.Line, e.Pos.Column, e.Code)
					return nil
				},
			}
			if err := parser.ParseString(string(source), parser.DiscardSink{}, opts); err != nil {
				count++
				if pe, ok := err.(*parser.ParseError); ok {
					fmt.Printf("%s:%d:%d: %s\n", filename, pe.Pos.Line, pe.Pos.Column, pe.Code)
				} else {
					fmt.Printf("%s: %s\n", filename, err)
				}
			}

			if count > 0 {
				cmd.SilenceUsage = true
				cmd.SilenceErrors = true
				return fmt.Errorf("%d problem(s)", count)
			}
			fmt.Fprintf(os.Stderr, "%s: ok\n", filename)
			return nil
		},
	}

	cmd.Flags().StringVar(&forceVersion, "dialect", "", "force the CIF dialect (1.1, 2.0)")

	return cmd
}
