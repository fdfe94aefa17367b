package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"colstd/internal/domain"
)

// inputFlags are the dataset inputs shared by standardize, run and prompt.
// Explicit flags override values from a --job file.
type inputFlags struct {
	job          string
	file         string
	target       string
	columns      []string
	metadata     string
	metadataFile string
	sql          string
	sqlFile      string
	rules        string
	rulesFile    string
	outPath      string
}

func (f *inputFlags) register(cmd *cobra.Command, withOutPath bool) {
	fl := cmd.Flags()
	fl.StringVar(&f.job, "job", "", "YAML job file with the run inputs")
	fl.StringVarP(&f.file, "file", "f", "", "Dataset file (csv, parquet or json)")
	fl.StringVar(&f.target, "target", "", "Target column of the downstream model")
	fl.StringSliceVar(&f.columns, "columns", nil, "Raw column names; read from --file when omitted")
	fl.StringVar(&f.metadata, "metadata", "", "Dataset profile text; generated from --file when omitted")
	fl.StringVar(&f.metadataFile, "metadata-file", "", "File holding the dataset profile text")
	fl.StringVar(&f.sql, "sql", "", "SQL query that produced the dataset")
	fl.StringVar(&f.sqlFile, "sql-file", "", "File holding the SQL query")
	fl.StringVar(&f.rules, "rules", "", "Special rules for the model")
	fl.StringVar(&f.rulesFile, "rules-file", "", "File holding the special rules")
	cmd.MarkFlagsMutuallyExclusive("metadata", "metadata-file")
	cmd.MarkFlagsMutuallyExclusive("sql", "sql-file")
	cmd.MarkFlagsMutuallyExclusive("rules", "rules-file")
	if withOutPath {
		fl.StringVar(&f.outPath, "out", "", "Output file; defaults to <input>_standardized.<ext>")
	}
}

// state builds the initial pipeline state from the job file and the flags set in fs.
func (f *inputFlags) state(fs *pflag.FlagSet) (*domain.PipelineState, error) {
	job := &Job{}
	if f.job != "" {
		loaded, err := LoadJob(f.job)
		if err != nil {
			return nil, err
		}
		job = loaded
	}

	changed := fs.Changed
	if changed("file") {
		job.FilePath = f.file
	}
	if changed("target") {
		job.TargetColumn = f.target
	}
	if changed("columns") {
		job.Columns = f.columns
	}
	if changed("metadata") || changed("metadata-file") {
		job.MetadataSummary, job.MetadataSummaryFile = f.metadata, f.metadataFile
	}
	if changed("sql") || changed("sql-file") {
		job.SQLQuery, job.SQLQueryFile = f.sql, f.sqlFile
	}
	if changed("rules") || changed("rules-file") {
		job.SpecialRules, job.SpecialRulesFile = f.rules, f.rulesFile
	}
	if changed("out") {
		job.OutputPath = f.outPath
	}

	if job.FilePath == "" && len(job.Columns) == 0 {
		return nil, domain.ErrValidation("either --file, --columns or --job is required")
	}
	return job.State()
}
