package domain

import "strings"

// PipelineState is the single record threaded through the pipeline stages.
// The standardization stage fills CleaningCode, AmbiguousFields and ColumnMap;
// the executor stage extends it with OutputPath, RenamedColumns and bookkeeping.
type PipelineState struct {
	RunID string `json:"run_id,omitempty"`

	FilePath        string   `json:"file_path"`
	TargetColumn    string   `json:"target_column"`
	MetadataSummary string   `json:"metadata_summary"`
	DFColumns       []string `json:"df_columns"`
	SQLQuery        *string  `json:"sql_query,omitempty"`
	SpecialRules    *string  `json:"special_rules,omitempty"`

	CleaningCode    string           `json:"cleaning_code"`
	AmbiguousFields []AmbiguousField `json:"ambiguous_fields"`
	ColumnMap       RenameMap        `json:"column_map"`

	OutputPath     string   `json:"output_path,omitempty"`
	RenamedColumns []string `json:"renamed_columns,omitempty"`
	IterationCount int      `json:"iteration_count"`
	ErrorLog       []string `json:"error_log,omitempty"`
}

// AppendError records a stage failure on the state.
func (s *PipelineState) AppendError(stage string, err error) {
	if err == nil {
		return
	}
	s.ErrorLog = append(s.ErrorLog, stage+": "+err.Error())
}

// ErrorSummary joins the error log into one line. Empty when no errors were recorded.
func (s *PipelineState) ErrorSummary() string {
	return strings.Join(s.ErrorLog, "; ")
}

// StringPtr returns nil for blank values so absent inputs stay absent.
func StringPtr(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}
