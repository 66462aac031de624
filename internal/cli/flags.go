package cli

import (
	"github.com/spf13/cobra"
)

// CommandFlags holds the output flag values shared by commands that print
// results.
type CommandFlags struct {
	// OutputFormat specifies the desired output format (table, json, yaml)
	OutputFormat string
	// NoHeaders suppresses the header row in table output
	NoHeaders bool
	// Quiet suppresses progress indicators and non-essential output
	Quiet bool
}

// RegisterOutputFlags registers the output flags on cmd.
//
// The registered flags are:
//   - --output/-o: Output format (table, json, yaml), default: "table"
//   - --no-headers: Suppress header row in table output
//   - --quiet/-q: Suppress non-essential output
func RegisterOutputFlags(cmd *cobra.Command, flags *CommandFlags) {
	cmd.Flags().StringVarP(&flags.OutputFormat, "output", "o", string(OutputFormatTable), "Output format (table, json, yaml)")
	cmd.Flags().BoolVar(&flags.NoHeaders, "no-headers", false, "Suppress header row in table output")
	cmd.Flags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress non-essential output")
}

// Printer validates the output format and returns a Printer writing to cmd's
// standard output.
func (f *CommandFlags) Printer(cmd *cobra.Command) (Printer, error) {
	if err := ValidateOutputFormat(f.OutputFormat); err != nil {
		return Printer{}, err
	}
	return Printer{
		Out:       cmd.OutOrStdout(),
		Format:    OutputFormat(f.OutputFormat),
		NoHeaders: f.NoHeaders,
	}, nil
}
