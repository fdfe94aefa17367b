package ddl

import (
	"fmt"
	"strings"
	"unicode"
)

// maxColumnNameLen is the maximum length allowed for an output column name.
const maxColumnNameLen = 128

// ValidateColumnName checks that name is usable as an output column header:
//   - Non-empty after trimming
//   - At most 128 characters
//   - No control characters (newlines would corrupt CSV headers)
//
// Raw input names are never validated; they are only quoted.
func ValidateColumnName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("column name is required")
	}
	if len(name) > maxColumnNameLen {
		return fmt.Errorf("column name must be at most %d characters", maxColumnNameLen)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("column name %q contains control characters", name)
		}
	}
	return nil
}

// QuoteIdentifier wraps a SQL identifier in double quotes, escaping any
// embedded double-quote characters by doubling them (standard SQL).
//
// Always quotes; callers validate the name first.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral wraps a string value in single quotes, escaping any
// embedded single-quote characters by doubling them (standard SQL).
func QuoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
