package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// OutputFormat represents the supported output formats for CLI commands.
type OutputFormat string

const (
	// OutputFormatTable formats output as a kubectl-style plain table
	OutputFormatTable OutputFormat = "table"
	// OutputFormatJSON formats output as indented JSON
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML formats output as YAML
	OutputFormatYAML OutputFormat = "yaml"
)

// ValidOutputFormats contains all valid output format values.
var ValidOutputFormats = []OutputFormat{
	OutputFormatTable,
	OutputFormatJSON,
	OutputFormatYAML,
}

// ValidateOutputFormat validates that the given format string is a supported output format.
func ValidateOutputFormat(format string) error {
	switch OutputFormat(format) {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %q (valid: table, json, yaml)", format)
	}
}

// Printer writes command results in the selected format.
type Printer struct {
	Out       io.Writer
	Format    OutputFormat
	NoHeaders bool
}

// Print writes data as JSON or YAML, or calls table to fill a plain table.
// data should carry json and yaml tags; table is only used for table output.
func (p Printer) Print(data any, table func(tw *PlainTableWriter)) error {
	switch p.Format {
	case OutputFormatJSON:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
		_, err = fmt.Fprintln(p.Out, string(out))
		return err
	case OutputFormatYAML:
		out, err := yaml.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to format YAML: %w", err)
		}
		_, err = p.Out.Write(out)
		return err
	case OutputFormatTable, "":
		tw := NewPlainTableWriter(p.Out)
		tw.SetNoHeaders(p.NoHeaders)
		table(tw)
		tw.Render()
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", p.Format)
	}
}
