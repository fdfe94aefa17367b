package standardize

import (
	"regexp"
	"strings"

	"colstd/internal/domain"
)

var (
	singleLetterAlias = regexp.MustCompile(`^[a-zA-Z]\.`)
	wordAlias         = regexp.MustCompile(`^[a-zA-Z_]+\.`)
)

// PreprocessColumnNames strips SQL alias prefixes ("t." or "cust.") and
// lower-cases each raw column name. Output order and length match the input;
// names that clean to the same value are kept as separate entries.
func PreprocessColumnNames(columns []string) []domain.CleanedColumn {
	out := make([]domain.CleanedColumn, 0, len(columns))
	for _, raw := range columns {
		out = append(out, domain.CleanedColumn{Raw: raw, Cleaned: cleanColumnName(raw)})
	}
	return out
}

func cleanColumnName(raw string) string {
	c := strings.TrimSpace(raw)
	if loc := singleLetterAlias.FindStringIndex(c); loc != nil {
		c = c[loc[1]:]
	} else if loc := wordAlias.FindStringIndex(c); loc != nil {
		c = c[loc[1]:]
	}
	return strings.ToLower(strings.TrimSpace(c))
}

// CleanedNames returns the cleaned names in input order.
func CleanedNames(cols []domain.CleanedColumn) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Cleaned
	}
	return out
}
