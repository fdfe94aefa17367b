package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"colstd/internal/domain"
)

func validateOutputFormat(output string) error {
	if output != "" && output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintTable writes rows under upper-cased headers in aligned columns.
func PrintTable(w io.Writer, headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	upper := make([]string, len(headers))
	for i, h := range headers {
		upper[i] = strings.ToUpper(h)
	}
	fmt.Fprintln(tw, strings.Join(upper, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// resultView is the JSON rendering of a standardization result.
type resultView struct {
	RunID           string                  `json:"run_id"`
	CleaningCode    string                  `json:"cleaning_code"`
	ColumnMap       domain.RenameMap        `json:"column_map"`
	AmbiguousFields []domain.AmbiguousField `json:"ambiguous_fields"`
	Diagnostics     []string                `json:"diagnostics,omitempty"`
	Report          domain.AuditReport      `json:"report"`
}

// printResult renders the audit report, the mapping and the rename code.
func printResult(w io.Writer, runID string, res *domain.StandardizationResult) error {
	r := res.Report
	fmt.Fprintf(w, "Run %s\n", runID)
	fmt.Fprintf(w, "Confident: %d  Ambiguous: %d  Unknown: %d\n\n", r.ConfidentCount, r.AmbiguousCount, r.UnknownCount)

	if len(res.ColumnMap) > 0 {
		if err := printMappings(w, domain.MappingsOf(res.ColumnMap)); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	if len(res.AmbiguousFields) > 0 {
		fmt.Fprintln(w, "Ambiguous fields:")
		rows := make([][]string, 0, len(res.AmbiguousFields))
		for _, f := range res.AmbiguousFields {
			rows = append(rows, []string{f.OriginalColumn, strings.Join(f.Candidates, ", "), f.Reason, f.SampleValues})
		}
		if err := PrintTable(w, []string{"column", "candidates", "reason", "samples"}, rows); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	for _, d := range res.Diagnostics {
		fmt.Fprintf(w, "warning: %s\n", d)
	}

	if res.CleaningCode != "" {
		fmt.Fprintf(w, "\n%s\n", res.CleaningCode)
	}
	return nil
}

func printMappings(w io.Writer, mappings []domain.ColumnMapping) error {
	rows := make([][]string, 0, len(mappings))
	for _, m := range mappings {
		rows = append(rows, []string{m.RawColumn, m.NewColumn, string(m.Tier)})
	}
	return PrintTable(w, []string{"raw column", "new column", "tier"}, rows)
}
