package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Name prefixes the model uses to flag low-confidence renames.
const (
	AmbiguousPrefix = "ambiguous_"
	UnknownPrefix   = "unknown_"
)

// ConfidenceTier classifies a rename decision. It is derived from the new
// name's prefix and never stored separately.
type ConfidenceTier string

// Confidence tiers.
const (
	TierConfident ConfidenceTier = "confident"
	TierAmbiguous ConfidenceTier = "ambiguous"
	TierUnknown   ConfidenceTier = "unknown"
)

// TierOf returns the confidence tier encoded in a standardized name.
func TierOf(newName string) ConfidenceTier {
	switch {
	case strings.HasPrefix(newName, AmbiguousPrefix):
		return TierAmbiguous
	case strings.HasPrefix(newName, UnknownPrefix):
		return TierUnknown
	default:
		return TierConfident
	}
}

// RenameMap maps a raw column name to its standardized name.
type RenameMap map[string]string

// SortedKeys returns the raw column names in lexical order.
func (m RenameMap) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CountTier returns how many values fall in the given tier.
func (m RenameMap) CountTier(tier ConfidenceTier) int {
	n := 0
	for _, v := range m {
		if TierOf(v) == tier {
			n++
		}
	}
	return n
}

// KeysWithTier returns the raw names whose value falls in the given tier, sorted.
func (m RenameMap) KeysWithTier(tier ConfidenceTier) []string {
	var out []string
	for _, k := range m.SortedKeys() {
		if TierOf(m[k]) == tier {
			out = append(out, k)
		}
	}
	return out
}

// AmbiguousField describes a rename the model could not resolve confidently.
type AmbiguousField struct {
	OriginalColumn string   `json:"original_column"`
	Candidates     []string `json:"candidates"`
	Reason         string   `json:"reason"`
	SampleValues   string   `json:"sample_values"`
}

// CleanedColumn pairs a raw column name with its alias-stripped, lower-cased form.
type CleanedColumn struct {
	Raw     string `json:"raw"`
	Cleaned string `json:"cleaned"`
}

// StandardizationResult is the output of the standardization stage.
type StandardizationResult struct {
	CleaningCode    string           `json:"cleaning_code"`
	AmbiguousFields []AmbiguousField `json:"ambiguous_fields"`
	ColumnMap       RenameMap        `json:"column_map"`
	RawResponse     string           `json:"-"`
	Diagnostics     []string         `json:"diagnostics,omitempty"`
	Report          AuditReport      `json:"report"`
}

// AuditReport summarizes a standardization result for human review.
type AuditReport struct {
	AmbiguousCount  int              `json:"ambiguous_count"`
	AmbiguousFields []AmbiguousField `json:"ambiguous_fields"`
	UnknownCount    int              `json:"unknown_count"`
	UnknownColumns  []string         `json:"unknown_columns"`
	ConfidentCount  int              `json:"confident_count"`
	CodeLength      int              `json:"code_length"`
	Issues          []string         `json:"issues,omitempty"`
}

// ValidateRenameMap checks a mapping against the raw column set and reports
// duplicate targets, dropped columns and keys that are not raw columns.
// It never modifies the mapping.
func ValidateRenameMap(m RenameMap, rawColumns []string) []string {
	var issues []string

	byTarget := make(map[string][]string)
	for _, k := range m.SortedKeys() {
		byTarget[m[k]] = append(byTarget[m[k]], k)
	}
	targets := make([]string, 0, len(byTarget))
	for t := range byTarget {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	for _, t := range targets {
		if keys := byTarget[t]; len(keys) > 1 {
			issues = append(issues, fmt.Sprintf("duplicate target %q for columns %s", t, strings.Join(keys, ", ")))
		}
	}

	if len(rawColumns) == 0 {
		return issues
	}

	raw := make(map[string]struct{}, len(rawColumns))
	for _, c := range rawColumns {
		raw[c] = struct{}{}
		if _, ok := m[c]; !ok {
			issues = append(issues, fmt.Sprintf("column %q has no mapping", c))
		}
	}
	for _, k := range m.SortedKeys() {
		if _, ok := raw[k]; !ok {
			issues = append(issues, fmt.Sprintf("mapping key %q is not a raw column", k))
		}
	}
	return issues
}
