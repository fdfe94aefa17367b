// Package executor applies generated rename code to a dataset. The code is
// evaluated with Starlark against a column-only dataframe handle; the
// resulting projection is written by DuckDB.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"colstd/internal/ddl"
	"colstd/internal/domain"
	"colstd/internal/profile"
)

// Options bounds rename code evaluation.
type Options struct {
	MaxSteps uint64
	Timeout  time.Duration
}

// Executor applies rename code to dataset files.
type Executor struct {
	db       *sql.DB
	profiler *profile.Profiler
	maxSteps uint64
	timeout  time.Duration
	logger   *slog.Logger
}

// New creates an Executor backed by the given DuckDB database.
// Zero options fall back to a 100k step budget and a 2s timeout.
func New(db *sql.DB, opts Options, logger *slog.Logger) *Executor {
	if opts.MaxSteps == 0 {
		opts.MaxSteps = defaultMaxSteps
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	return &Executor{
		db:       db,
		profiler: profile.NewProfiler(db),
		maxSteps: opts.MaxSteps,
		timeout:  opts.Timeout,
		logger:   logger,
	}
}

// Plan evaluates code against the given columns and returns the projection
// it describes, one entry per input column in input order. Duplicate output
// names are rejected.
func (e *Executor) Plan(code string, columns []string) ([]ddl.ColumnAlias, error) {
	out, err := evalRenameCode(code, columns, e.maxSteps, e.timeout)
	if err != nil {
		return nil, err
	}

	bySource := make(map[string][]string)
	plan := make([]ddl.ColumnAlias, len(columns))
	for i, src := range columns {
		plan[i] = ddl.ColumnAlias{Source: src, Alias: out[i]}
		bySource[out[i]] = append(bySource[out[i]], src)
	}
	var dups []string
	for alias, sources := range bySource {
		if len(sources) > 1 {
			dups = append(dups, fmt.Sprintf("%q <- %s", alias, strings.Join(sources, ", ")))
		}
	}
	if len(dups) > 0 {
		sort.Strings(dups)
		return nil, domain.ErrValidation("rename produces duplicate columns: %s", strings.Join(dups, "; "))
	}
	return plan, nil
}

// Apply runs state.CleaningCode against state.FilePath and writes the renamed
// dataset to state.OutputPath (default <input>_standardized.<ext>).
// Empty code is skipped. Each attempt increments state.IterationCount.
func (e *Executor) Apply(ctx context.Context, state *domain.PipelineState) error {
	logger := e.logger.With("run_id", state.RunID)
	if strings.TrimSpace(state.CleaningCode) == "" {
		logger.Warn("no rename code to apply, skipping execution")
		return nil
	}
	if state.FilePath == "" {
		return domain.ErrValidation("file_path is required to apply rename code")
	}

	state.IterationCount++
	start := time.Now()

	columns, err := e.profiler.Columns(ctx, state.FilePath)
	if err != nil {
		return fmt.Errorf("read columns: %w", err)
	}
	plan, err := e.Plan(state.CleaningCode, columns)
	if err != nil {
		return err
	}

	out := state.OutputPath
	if out == "" {
		out = DefaultOutputPath(state.FilePath)
	}
	if filepath.Clean(out) == filepath.Clean(state.FilePath) {
		return domain.ErrValidation("output path must differ from the input file")
	}

	query, err := ddl.SelectRenamed(state.FilePath, plan)
	if err != nil {
		return err
	}
	stmt, err := ddl.CopyTo(query, out)
	if err != nil {
		return err
	}
	if _, err := e.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	renamed := make([]string, len(plan))
	changed := 0
	for i, p := range plan {
		renamed[i] = p.Alias
		if p.Alias != p.Source {
			changed++
		}
	}
	state.OutputPath = out
	state.RenamedColumns = renamed

	if len(state.ColumnMap) > 0 {
		for _, p := range plan {
			if want, ok := state.ColumnMap[p.Source]; ok && want != p.Alias {
				logger.Warn("applied name differs from audit mapping", "column", p.Source, "applied", p.Alias, "mapped", want)
			}
		}
	}
	logger.Info("rename applied",
		"output", out,
		"columns", len(plan),
		"renamed", changed,
		"iteration", state.IterationCount,
		"duration", time.Since(start))
	return nil
}

// DefaultOutputPath returns <dir>/<name>_standardized<ext>.
func DefaultOutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_standardized" + ext
}

// Stage adapts Executor to the pipeline runner.
type Stage struct {
	exec *Executor
}

// NewStage wraps exec as a pipeline stage.
func NewStage(exec *Executor) *Stage {
	return &Stage{exec: exec}
}

// Name implements pipeline.Stage.
func (s *Stage) Name() string { return "execute" }

// Run implements pipeline.Stage.
func (s *Stage) Run(ctx context.Context, state *domain.PipelineState) error {
	return s.exec.Apply(ctx, state)
}
