package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"colstd/internal/domain"
)

// Job is a YAML job file describing the inputs of one pipeline run.
// Relative paths are resolved against the job file's directory.
type Job struct {
	FilePath            string   `yaml:"file_path"`
	TargetColumn        string   `yaml:"target_column"`
	Columns             []string `yaml:"df_columns"`
	MetadataSummary     string   `yaml:"metadata_summary"`
	MetadataSummaryFile string   `yaml:"metadata_summary_file"`
	SQLQuery            string   `yaml:"sql_query"`
	SQLQueryFile        string   `yaml:"sql_query_file"`
	SpecialRules        string   `yaml:"special_rules"`
	SpecialRulesFile    string   `yaml:"special_rules_file"`
	OutputPath          string   `yaml:"output_path"`
}

// LoadJob reads and validates a job file. Unknown keys are rejected.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return nil, fmt.Errorf("read job: %w", err)
	}

	var job Job
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&job); err != nil {
		return nil, fmt.Errorf("parse job %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for _, p := range []*string{
		&job.FilePath, &job.OutputPath,
		&job.MetadataSummaryFile, &job.SQLQueryFile, &job.SpecialRulesFile,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}

	if job.FilePath == "" && len(job.Columns) == 0 {
		return nil, domain.ErrValidation("job %s: file_path or df_columns is required", path)
	}
	if job.SQLQuery != "" && job.SQLQueryFile != "" {
		return nil, domain.ErrValidation("job %s: sql_query and sql_query_file are mutually exclusive", path)
	}
	if job.MetadataSummary != "" && job.MetadataSummaryFile != "" {
		return nil, domain.ErrValidation("job %s: metadata_summary and metadata_summary_file are mutually exclusive", path)
	}
	if job.SpecialRules != "" && job.SpecialRulesFile != "" {
		return nil, domain.ErrValidation("job %s: special_rules and special_rules_file are mutually exclusive", path)
	}
	return &job, nil
}

// State builds the initial pipeline state, reading any referenced text files.
func (j *Job) State() (*domain.PipelineState, error) {
	summary, err := textOrFile(j.MetadataSummary, j.MetadataSummaryFile)
	if err != nil {
		return nil, err
	}
	query, err := textOrFile(j.SQLQuery, j.SQLQueryFile)
	if err != nil {
		return nil, err
	}
	rules, err := textOrFile(j.SpecialRules, j.SpecialRulesFile)
	if err != nil {
		return nil, err
	}
	return &domain.PipelineState{
		FilePath:        j.FilePath,
		TargetColumn:    j.TargetColumn,
		MetadataSummary: summary,
		DFColumns:       j.Columns,
		SQLQuery:        domain.StringPtr(query),
		SpecialRules:    domain.StringPtr(rules),
		OutputPath:      j.OutputPath,
	}, nil
}

// textOrFile returns text, or the contents of path when it is set.
func textOrFile(text, path string) (string, error) {
	if path == "" {
		return text, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
