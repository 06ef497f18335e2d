package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dhamidi/cif/document"
	"github.com/dhamidi/cif/format"
	"github.com/dhamidi/cif/parser"
	"github.com/spf13/cobra"
)

func newParseCmd() *cobra.Command {
	var outputFormat string
	var forceVersion string
	var lenient bool

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a CIF file and dump the result",
		Long: `Parse a CIF file and dump the document to stdout.

If no file is provided, reads CIF from stdin. The dialect is normally
taken from the #\#CIF_ magic comment; --dialect overrides it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readInput(args)
			if err != nil {
				return err
			}

			version, err := parseVersionFlag(forceVersion)
			if err != nil {
				return err
			}

			opts := &parser.Options{Version: version}
			if lenient {
				opts.OnError = parser.Silent
			}
			doc, err := document.ParseString(string(source), opts)
			if err != nil {
				return fmt.Errorf("parse: %w", err)
			}

			var enc format.Encoder
			switch outputFormat {
			case "json":
				enc = format.NewJSONEncoder(os.Stdout)
			case "cif":
				enc = format.NewCIFEncoder(os.Stdout, version)
			case "lines":
				enc = format.NewLineEncoder(os.Stdout)
			default:
				return fmt.Errorf("unknown format: %s", outputFormat)
			}
			if err := enc.Encode(doc); err != nil {
				return fmt.Errorf("encode: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "output format (json, cif, lines)")
	cmd.Flags().StringVar(&forceVersion, "dialect", "", "force the CIF dialect (1.1, 2.0)")
	cmd.Flags().BoolVar(&lenient, "lenient", false, "repair recoverable errors instead of failing")

	return cmd
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 0 {
		source, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return source, nil
	}
	source, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return source, nil
}

func parseVersionFlag(s string) (parser.Version, error) {
	switch s {
	case "":
		return parser.VersionAuto, nil
	case "1.1":
		return parser.Version1, nil
	case "2.0":
		return parser.Version2, nil
	}
	return parser.VersionAuto, fmt.Errorf("unknown dialect: %s (expected 1.1 or 2.0)", s)
}
