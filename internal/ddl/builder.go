// Package ddl builds the DuckDB statements used to profile a dataset and
// write a renamed copy of it.
package ddl

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a dataset file format DuckDB can read and write.
type Format string

// Supported formats.
const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
	FormatJSON    Format = "json"
)

// FormatForPath infers the file format from the path extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	case ".parquet", ".pq":
		return FormatParquet, nil
	case ".json", ".jsonl", ".ndjson":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported file extension %q (want csv, parquet or json)", filepath.Ext(path))
	}
}

// ReadFile returns the DuckDB table function that scans path.
func ReadFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("file path is required")
	}
	format, err := FormatForPath(path)
	if err != nil {
		return "", err
	}
	switch format {
	case FormatParquet:
		return fmt.Sprintf("read_parquet(%s)", QuoteLiteral(path)), nil
	case FormatJSON:
		return fmt.Sprintf("read_json_auto(%s)", QuoteLiteral(path)), nil
	default:
		return fmt.Sprintf("read_csv_auto(%s)", QuoteLiteral(path)), nil
	}
}

// Summarize returns: SUMMARIZE SELECT * FROM <reader>.
func Summarize(path string) (string, error) {
	src, err := ReadFile(path)
	if err != nil {
		return "", err
	}
	return "SUMMARIZE SELECT * FROM " + src, nil
}

// Describe returns: DESCRIBE SELECT * FROM <reader>.
func Describe(path string) (string, error) {
	src, err := ReadFile(path)
	if err != nil {
		return "", err
	}
	return "DESCRIBE SELECT * FROM " + src, nil
}

// ColumnAlias projects Source under the name Alias.
type ColumnAlias struct {
	Source string
	Alias  string
}

// SelectRenamed returns: SELECT "src1" AS "alias1", ... FROM <reader>.
func SelectRenamed(path string, columns []ColumnAlias) (string, error) {
	if len(columns) == 0 {
		return "", fmt.Errorf("at least one column is required")
	}
	src, err := ReadFile(path)
	if err != nil {
		return "", err
	}

	items := make([]string, 0, len(columns))
	for _, c := range columns {
		if err := ValidateColumnName(c.Alias); err != nil {
			return "", fmt.Errorf("invalid output name for %q: %w", c.Source, err)
		}
		items = append(items, fmt.Sprintf("%s AS %s", QuoteIdentifier(c.Source), QuoteIdentifier(c.Alias)))
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(items, ", "), src), nil
}

// CopyTo returns: COPY (<query>) TO '<path>' (FORMAT ...).
// The format is inferred from the output path.
func CopyTo(query, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("output path is required")
	}
	format, err := FormatForPath(path)
	if err != nil {
		return "", err
	}
	var opts string
	switch format {
	case FormatParquet:
		opts = "FORMAT PARQUET"
	case FormatJSON:
		opts = "FORMAT JSON"
	default:
		opts = "FORMAT CSV, HEADER"
		if strings.EqualFold(filepath.Ext(path), ".tsv") {
			opts += ", DELIMITER " + QuoteLiteral("\t")
		}
	}
	return fmt.Sprintf("COPY (%s) TO %s (%s)", query, QuoteLiteral(path), opts), nil
}
