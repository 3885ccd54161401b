package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/paularlott/toon-mcp/convert"
)

var errInvalidTOON = errors.New("invalid TOON")

// readInput returns the named file, or stdin when no file is given or it is "-".
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}

type encodeFlags struct {
	delimiter    string
	indent       int
	foldKeys     bool
	flattenDepth int
}

func (f *encodeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.delimiter, "delimiter", "d", "comma", "Array delimiter: comma, tab or pipe")
	cmd.Flags().IntVar(&f.indent, "indent", 2, "Spaces per indentation level (0-8)")
	cmd.Flags().BoolVar(&f.foldKeys, "fold-keys", false, "Fold single-key object chains into dotted keys")
	cmd.Flags().IntVar(&f.flattenDepth, "flatten-depth", 0, "Maximum segments per folded key (unset means unlimited)")
}

// input keeps only the flags the user set so unset options take their defaults.
func (f *encodeFlags) input(cmd *cobra.Command) convert.EncodeOptionsInput {
	var in convert.EncodeOptionsInput
	if cmd.Flags().Changed("delimiter") {
		in.Delimiter = &f.delimiter
	}
	if cmd.Flags().Changed("indent") {
		in.Indent = &f.indent
	}
	if cmd.Flags().Changed("fold-keys") {
		in.FoldKeys = &f.foldKeys
	}
	if cmd.Flags().Changed("flatten-depth") {
		in.FlattenDepth = &f.flattenDepth
	}
	return in
}

func newEncodeCmd() *cobra.Command {
	var flags encodeFlags
	cmd := &cobra.Command{
		Use:   "encode [file]",
		Short: "Convert JSON to TOON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			out, err := convert.Encode(text, flags.input(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newDecodeCmd() *cobra.Command {
	var (
		strict      bool
		coerceTypes bool
		expandPaths bool
		pretty      bool
	)
	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Convert TOON to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			value, err := convert.Decode(text, convert.DecodeOptionsInput{
				Strict:      &strict,
				CoerceTypes: &coerceTypes,
				ExpandPaths: &expandPaths,
			})
			if err != nil {
				return describeDecodeError(err)
			}

			format := convert.OutputJSON
			if pretty {
				format = convert.OutputJSONPretty
			}
			out, err := convert.FormatJSON(value, format)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", true, "Enforce declared lengths and indentation")
	cmd.Flags().BoolVar(&coerceTypes, "coerce-types", true, "Parse bare numbers, booleans and null")
	cmd.Flags().BoolVar(&expandPaths, "expand-paths", false, "Expand dotted keys into nested objects")
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "Pretty-print the JSON output")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Check TOON syntax",
		Long:  "Check TOON syntax. Prints valid, or the diagnostic and exits with status 1.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			result := convert.Validate(text, &strict)
			if result.Valid {
				fmt.Fprintln(cmd.OutOrStdout(), "valid")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatDiagnostic(*result.Error))
			return errInvalidTOON
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", true, "Enforce declared lengths and indentation")
	return cmd
}

func newStatsCmd() *cobra.Command {
	var flags encodeFlags
	cmd := &cobra.Command{
		Use:   "stats [file]",
		Short: "Compare JSON and TOON sizes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			result, err := convert.ComputeStats(text, flags.input(cmd))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	flags.register(cmd)
	return cmd
}

func formatDiagnostic(d convert.Diagnostic) string {
	out := d.Message
	if line, column, ok := d.Position(); ok {
		out = fmt.Sprintf("line %d, column %d: %s", line, column, d.Message)
	}
	if d.Suggestion != "" {
		out += "\n  " + d.Suggestion
	}
	return out
}

func describeDecodeError(err error) error {
	if convert.CodeOf(err) != convert.ErrDecodeFailed {
		return err
	}
	return errors.New(formatDiagnostic(convert.Diagnose(err)))
}
