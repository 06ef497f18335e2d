package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dhamidi/cif/document"
	"github.com/dhamidi/cif/format"
	"github.com/dhamidi/cif/parser"
	"github.com/spf13/cobra"
)

func newFmtCmd() *cobra.Command {
	var fmtOverwrite bool
	var forceVersion string

	cmd := &cobra.Command{
		Use:   "fmt [file]",
		Short: "Reformat a CIF file with canonical delimiters",
		Long: `Reformat a CIF file to stdout.

If no file is provided, reads CIF from stdin.

Use -w to overwrite the file in place (requires a file argument).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && fmtOverwrite {
				return fmt.Errorf("-w requires a file argument")
			}
			source, err := readInput(args)
			if err != nil {
				return err
			}

			version, err := parseVersionFlag(forceVersion)
			if err != nil {
				return err
			}

			doc, err := document.ParseString(string(source), &parser.Options{Version: version})
			if err != nil {
				return fmt.Errorf("parse: %w", err)
			}

			var buf bytes.Buffer
			if err := format.NewCIFEncoder(&buf, version).Encode(doc); err != nil {
				return fmt.Errorf("format: %w", err)
			}

			if fmtOverwrite {
				return os.WriteFile(args[0], buf.Bytes(), 0644)
			}
			_, err = os.Stdout.Write(buf.Bytes())
			return err
		},
	}

	cmd.Flags().BoolVarP(&fmtOverwrite, "write", "w", false, "overwrite the file in place")
	cmd.Flags().StringVar(&forceVersion, "dialect", "", "force the CIF dialect (1.1, 2.0)")

	return cmd
}
