// Package reportfmt renders a normalize.Report for the CLI, mirroring the
// teacher's cli/output.Formatter: table output via tablewriter, with
// --output json|yaml alternates.
package reportfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/humlab-sead/sead-shape-shifter-sub001/internal/normalize"
)

// Format selects the rendering of a Report.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses an --output flag value.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "table", "":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid output format: %s (valid: table, json, yaml)", s)
	}
}

// Formatter renders a normalize.Report to a writer in the configured Format.
type Formatter struct {
	Format Format
	Writer io.Writer
}

// NewFormatter returns a Formatter writing to os.Stdout.
func NewFormatter(format Format) *Formatter {
	return &Formatter{Format: format, Writer: os.Stdout}
}

// Print renders report, dispatching on f.Format.
func (f *Formatter) Print(report *normalize.Report) error {
	switch f.Format {
	case FormatJSON:
		return f.printJSON(report)
	case FormatYAML:
		return f.printYAML(report)
	default:
		return f.printTable(report)
	}
}

func (f *Formatter) printJSON(report *normalize.Report) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func (f *Formatter) printYAML(report *normalize.Report) error {
	encoder := yaml.NewEncoder(f.Writer)
	encoder.SetIndent(2)
	defer func() { _ = encoder.Close() }()
	return encoder.Encode(report)
}

func (f *Formatter) printTable(report *normalize.Report) error {
	if !report.HasErrors() && !report.HasWarnings() {
		_, err := fmt.Fprintln(f.Writer, "✓ Project is valid")
		return err
	}

	if report.HasErrors() {
		fmt.Fprintf(f.Writer, "✗ %d error(s):\n", len(report.Errors))
		renderIssueTable(f.Writer, report.Errors)
	}
	if report.HasWarnings() {
		if report.HasErrors() {
			fmt.Fprintln(f.Writer)
		}
		fmt.Fprintf(f.Writer, "⚠ %d warning(s):\n", len(report.Warnings))
		renderIssueTable(f.Writer, report.Warnings)
	}
	return nil
}

func renderIssueTable(w io.Writer, issues []normalize.Issue) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"entity", "field", "column", "message"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	for _, issue := range issues {
		table.Append([]string{issue.Entity, issue.Field, issue.Column, issue.Message})
	}
	table.Render()
}
