// Package profile describes a dataset file with DuckDB. The rendered profile
// is what the standardization prompt receives as its dataset profile when
// the caller does not supply one.
package profile

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"colstd/internal/ddl"
	"colstd/internal/domain"
)

// ColumnStats is one row of a DuckDB SUMMARIZE.
type ColumnStats struct {
	Name         string `json:"column_name"`
	Type         string `json:"column_type"`
	Min          string `json:"min"`
	Max          string `json:"max"`
	ApproxUnique int64  `json:"approx_unique"`
	Avg          string `json:"avg"`
	Count        int64  `json:"count"`
	NullPercent  string `json:"null_percentage"`
}

// Profile summarizes a dataset file.
type Profile struct {
	Path     string        `json:"path"`
	RowCount int64         `json:"row_count"`
	Columns  []ColumnStats `json:"columns"`
}

// Profiler runs profiling queries on a DuckDB connection.
type Profiler struct {
	db *sql.DB
}

// NewProfiler creates a Profiler backed by the given DuckDB database.
func NewProfiler(db *sql.DB) *Profiler {
	return &Profiler{db: db}
}

// Columns returns the dataset's column names in file order.
func (p *Profiler) Columns(ctx context.Context, path string) ([]string, error) {
	describe, err := ddl.Describe(path)
	if err != nil {
		return nil, err
	}
	rows, err := p.db.QueryContext(ctx, "SELECT column_name FROM ("+describe+")")
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", path, err)
	}
	defer rows.Close() //nolint:errcheck

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// Summarize computes per-column statistics for the dataset.
func (p *Profiler) Summarize(ctx context.Context, path string) (*Profile, error) {
	summarize, err := ddl.Summarize(path)
	if err != nil {
		return nil, err
	}
	query := `SELECT column_name, column_type,
		CAST(min AS VARCHAR), CAST(max AS VARCHAR),
		CAST(approx_unique AS BIGINT), CAST(avg AS VARCHAR),
		CAST(count AS BIGINT), CAST(null_percentage AS VARCHAR)
		FROM (` + summarize + `)`
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("summarize %s: %w", path, err)
	}
	defer rows.Close() //nolint:errcheck

	prof := &Profile{Path: path}
	for rows.Next() {
		var (
			c                     ColumnStats
			minV, maxV, avg, null sql.NullString
			unique, count         sql.NullInt64
		)
		if err := rows.Scan(&c.Name, &c.Type, &minV, &maxV, &unique, &avg, &count, &null); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		c.Min, c.Max, c.Avg, c.NullPercent = minV.String, maxV.String, avg.String, null.String
		c.ApproxUnique, c.Count = unique.Int64, count.Int64
		if c.Count > prof.RowCount {
			prof.RowCount = c.Count
		}
		prof.Columns = append(prof.Columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return prof, nil
}

// Fill completes the inputs of state that can be derived from its dataset
// file: DFColumns via DESCRIBE and MetadataSummary via SUMMARIZE. Inputs
// already present are left untouched. Without a file path only the column
// list is checked.
func (p *Profiler) Fill(ctx context.Context, state *domain.PipelineState) error {
	if state.FilePath == "" {
		if len(state.DFColumns) == 0 {
			return domain.ErrValidation("df_columns or file_path is required")
		}
		return nil
	}
	if len(state.DFColumns) == 0 {
		cols, err := p.Columns(ctx, state.FilePath)
		if err != nil {
			return err
		}
		state.DFColumns = cols
	}
	if strings.TrimSpace(state.MetadataSummary) == "" {
		prof, err := p.Summarize(ctx, state.FilePath)
		if err != nil {
			return err
		}
		state.MetadataSummary = Render(prof)
	}
	return nil
}

// Render formats the profile as a compact describe-style table.
func Render(p *Profile) string {
	if p == nil || len(p.Columns) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d rows, %d columns\n", p.RowCount, len(p.Columns))
	fmt.Fprintf(&b, "%-24s %-10s %14s %14s %14s %8s %7s\n", "column", "type", "min", "max", "mean", "unique", "null%")
	for _, c := range p.Columns {
		fmt.Fprintf(&b, "%-24s %-10s %14s %14s %14s %8d %7s\n",
			c.Name, shortType(c.Type), clip(c.Min), clip(c.Max), clip(c.Avg), c.ApproxUnique, strings.TrimSuffix(c.NullPercent, "%"))
	}
	return b.String()
}

func shortType(t string) string {
	if i := strings.IndexByte(t, '('); i > 0 {
		return t[:i]
	}
	return t
}

// clip keeps long values from breaking column alignment.
func clip(s string) string {
	const width = 14
	if len(s) <= width {
		return s
	}
	return s[:width-1] + "…"
}
