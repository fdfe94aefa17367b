package domain

import "time"

// RunRecord is the persisted audit entry for one standardization run.
type RunRecord struct {
	ID              string           `json:"id"`
	FilePath        string           `json:"file_path,omitempty"`
	Model           string           `json:"model"`
	Status          string           `json:"status"` // "SUCCESS", "DEGRADED", "ERROR"
	CleaningCode    string           `json:"cleaning_code"`
	ConfidentCount  int              `json:"confident_count"`
	AmbiguousCount  int              `json:"ambiguous_count"`
	UnknownCount    int              `json:"unknown_count"`
	Mappings        []ColumnMapping  `json:"mappings,omitempty"`
	AmbiguousFields []AmbiguousField `json:"ambiguous_fields,omitempty"`
	Diagnostics     []string         `json:"diagnostics,omitempty"`
	ErrorMessage    *string          `json:"error_message,omitempty"`
	DurationMs      int64            `json:"duration_ms"`
	CreatedAt       time.Time        `json:"created_at"`
}

// Run statuses.
const (
	RunStatusSuccess  = "SUCCESS"
	RunStatusDegraded = "DEGRADED"
	RunStatusError    = "ERROR"
)

// ColumnMapping is one row of an audited rename mapping.
type ColumnMapping struct {
	RawColumn string         `json:"raw_column"`
	NewColumn string         `json:"new_column"`
	Tier      ConfidenceTier `json:"tier"`
}

// MappingsOf flattens a rename map into rows ordered by raw column name.
func MappingsOf(m RenameMap) []ColumnMapping {
	out := make([]ColumnMapping, 0, len(m))
	for _, k := range m.SortedKeys() {
		out = append(out, ColumnMapping{RawColumn: k, NewColumn: m[k], Tier: TierOf(m[k])})
	}
	return out
}
