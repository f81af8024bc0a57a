// Package cliout provides output formatting for the command-line tool,
// grounded on marmos91-dittofs/internal/cli/output's Format/Printer/table
// trio — trimmed to the table/JSON/YAML renderers the lis CLI's config
// commands need; dittofs's color-escape Success/Error/
// Warning helpers are dropped since this CLI has no interactive prompts
// that call for them.
package cliout

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// Format is an output rendering mode.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses s into a Format, defaulting to table.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table", "":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid output format: %q (valid: table, json, yaml)", s)
	}
}

// PrintJSON writes data as indented JSON.
func PrintJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintYAML writes data as YAML.
func PrintYAML(w io.Writer, data any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	return enc.Encode(data)
}

// TableRenderer is implemented by types that know how to lay themselves
// out as a table.
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
}

// PrintTable renders data as a borderless table.
func PrintTable(w io.Writer, data TableRenderer) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader(data.Headers())
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	for _, row := range data.Rows() {
		table.Append(row)
	}
	table.Render()
	return nil
}

// Print renders data in format, falling back to JSON if format is
// FormatTable but data does not implement TableRenderer.
func Print(w io.Writer, format Format, data any) error {
	switch format {
	case FormatJSON:
		return PrintJSON(w, data)
	case FormatYAML:
		return PrintYAML(w, data)
	default:
		if renderer, ok := data.(TableRenderer); ok {
			return PrintTable(w, renderer)
		}
		return PrintJSON(w, data)
	}
}
