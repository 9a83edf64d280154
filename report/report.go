// Package report formats benchmark results as text, tables, or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/weiihann/matbench/harness"
	"github.com/weiihann/matbench/kernel"
)

// Format names an output format.
type Format string

const (
	FormatText  Format = "text"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(name); f {
	case FormatText, FormatTable, FormatJSON:
		return f, nil
	default:
		return "", errors.NotValidf("output format %q", name)
	}
}

// WriteCompareHeader writes the opening line of a comparison.
func WriteCompareHeader(w io.Writer, r *harness.Result) {
	fmt.Fprintf(w, "TESTING {size:%d, type:%s}\n", r.Size, r.TypeName)
}

// WriteCompareRound writes the times of one comparison round, RC first
// regardless of the order they ran in.
func WriteCompareRound(w io.Writer, round int, samples []harness.Sample) {
	fmt.Fprintf(w, "Round %d:\n", round)
	for _, method := range kernel.Methods() {
		for _, s := range samples {
			if s.Method == method.String() {
				fmt.Fprintf(w, "Execution Time %s product: %s seconds\n", method.Label(), formatSeconds(s.Seconds))
			}
		}
	}
}

// WriteCompareSummary writes the averages, difference, and speedup.
func WriteCompareSummary(w io.Writer, r *harness.Result) {
	s := r.Summary
	fmt.Fprintln(w, "Summary: ")
	fmt.Fprintf(w, "Average Execution Time for RC product: %s seconds\n", formatSeconds(s.RCMean))
	fmt.Fprintf(w, "Average Execution Time for RR product: %s seconds\n", formatSeconds(s.RRMean))
	fmt.Fprintf(w, "Difference: %s seconds\n", formatSeconds(s.Difference))
	fmt.Fprintf(w, "Speedup: %s\n", formatSeconds(s.Speedup))
}

// WriteSingleRound writes the time of one round of a single-method run.
func WriteSingleRound(w io.Writer, r *harness.Result, s harness.Sample) {
	fmt.Fprintf(w, "ROUND[%d]: [%s]Processing Time of %dx%d: %s seconds\n",
		s.Round, r.Kind, r.Size, r.Size, formatSeconds(s.Seconds))
}

// WriteSingleSummary writes the mean of a single-method run.
func WriteSingleSummary(w io.Writer, r *harness.Result) {
	fmt.Fprintf(w, "[%s]Average time: %s seconds\n", r.Method, formatSeconds(r.Summary.Mean))
}

// WriteCluster writes the total time of a cluster run.
func WriteCluster(w io.Writer, seconds float64) {
	fmt.Fprintf(w, "Total Execution: %s\n", formatSeconds(seconds))
}

// WriteTable writes the samples and summary of r as a table.
func WriteTable(w io.Writer, r *harness.Result) error {
	fmt.Fprintf(w, "%s benchmark on %s (%d workers), %s %dx%d, cpu %s\n",
		r.Mode, r.Backend, r.Workers, r.TypeName, r.Size, r.Size, r.CPU)

	table := tablewriter.NewWriter(w)
	table.Header("Round", "Method", "Order", "Seconds")
	for _, s := range r.Samples {
		row := []string{
			strconv.Itoa(s.Round),
			s.Method,
			strconv.Itoa(s.Order),
			formatSeconds(s.Seconds),
		}
		if err := table.Append(row); err != nil {
			return errors.Trace(err)
		}
	}
	if err := table.Render(); err != nil {
		return errors.Trace(err)
	}

	summary := tablewriter.NewWriter(w)
	summary.Header("Statistic", "Value")
	for _, row := range summaryRows(r) {
		if err := summary.Append(row); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(summary.Render())
}

func summaryRows(r *harness.Result) [][]string {
	s := r.Summary
	if r.Mode == harness.ModeSingle {
		return [][]string{
			{"method", r.Method},
			{"mean", formatSeconds(s.Mean)},
		}
	}
	return [][]string{
		{"rc mean", formatSeconds(s.RCMean)},
		{"rr mean", formatSeconds(s.RRMean)},
		{"difference", formatSeconds(s.Difference)},
		{"speedup", formatSeconds(s.Speedup)},
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return errors.Trace(enc.Encode(v))
}

// formatSeconds prints six significant digits.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
