// Package presentation prints datum values, graph contents and dependency
// trees in table, JSON and YAML formats.
package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/vk/datumgraph/internal/datum"
	"github.com/vk/datumgraph/internal/datumid"
	yaml "github.com/zclconf/go-cty-yaml"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Format selects how results are printed.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formats lists the accepted formats.
var Formats = []Format{FormatTable, FormatJSON, FormatYAML}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (want one of %v)", s, Formats)
}

// Result is the outcome of reading one datum.
type Result struct {
	Ref   datumid.Ref
	Kind  datum.Kind
	Value cty.Value
	Err   error
}

type jsonResult struct {
	Ref   string          `json:"ref"`
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value,omitempty"`
	Error string          `json:"error,omitempty"`
}

// FormatValue renders a value on a single line.
func FormatValue(v cty.Value) string {
	switch {
	case v == cty.NilVal:
		return "<none>"
	case v.IsNull():
		return "null"
	case !v.IsKnown():
		return "(unknown)"
	case v.Type() == cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return strconv.FormatFloat(f, 'g', -1, 64)
	case v.Type() == cty.String:
		return strconv.Quote(v.AsString())
	}
	js, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return fmt.Sprintf("<%s>", v.Type().FriendlyName())
	}
	return string(js)
}

// PrintResults prints results in the given format.
func PrintResults(w io.Writer, format Format, results []Result) error {
	switch format {
	case FormatJSON:
		return printResultsJSON(w, results)
	case FormatYAML:
		return printResultsYAML(w, results)
	default:
		printResultsTable(w, results)
		return nil
	}
}

func printResultsTable(w io.Writer, results []Result) {
	table := newTable(w, "Ref", "Kind", "Value")
	for _, r := range results {
		value := FormatValue(r.Value)
		if r.Err != nil {
			value = "error: " + r.Err.Error()
		}
		table.Append([]string{r.Ref.String(), r.Kind.String(), value})
	}
	table.Render()
}

func printResultsJSON(w io.Writer, results []Result) error {
	out := make([]jsonResult, 0, len(results))
	for _, r := range results {
		jr := jsonResult{Ref: r.Ref.String(), Kind: r.Kind.String()}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		} else if js, err := ctyjson.Marshal(r.Value, r.Value.Type()); err != nil {
			jr.Error = err.Error()
		} else {
			jr.Value = js
		}
		out = append(out, jr)
	}
	return PrintJSON(w, out)
}

// printResultsYAML prints a mapping from reference to value; failures map
// to an object holding the error message.
func printResultsYAML(w io.Writer, results []Result) error {
	attrs := make(map[string]cty.Value, len(results))
	for _, r := range results {
		if r.Err != nil {
			attrs[r.Ref.String()] = cty.ObjectVal(map[string]cty.Value{"error": cty.StringVal(r.Err.Error())})
			continue
		}
		attrs[r.Ref.String()] = r.Value
	}
	buf, err := yaml.Marshal(cty.ObjectVal(attrs))
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// PrintJSON prints indented json output.
func PrintJSON(w io.Writer, x any) error {
	buf, err := json.MarshalIndent(x, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(buf))
	return nil
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetHeader(header)
	return table
}
