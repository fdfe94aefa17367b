// Package pipeline runs the standardization stages in order over one
// shared PipelineState.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"colstd/internal/domain"
)

// Stage is one step of the pipeline. A stage reads and extends the state it is given.
type Stage interface {
	Name() string
	Run(ctx context.Context, state *domain.PipelineState) error
}

// Runner executes stages sequentially and stops at the first failure.
type Runner struct {
	stages []Stage
	logger *slog.Logger
}

// NewRunner creates a Runner over stages, executed in the given order.
func NewRunner(logger *slog.Logger, stages ...Stage) *Runner {
	return &Runner{stages: stages, logger: logger}
}

// Stages returns the stage names in execution order.
func (r *Runner) Stages() []string {
	names := make([]string, len(r.stages))
	for i, st := range r.stages {
		names[i] = st.Name()
	}
	return names
}

// Run executes every stage against state. A failing or panicking stage is
// recorded in state.ErrorLog and its error returned; later stages do not run.
func (r *Runner) Run(ctx context.Context, state *domain.PipelineState) error {
	if state.RunID == "" {
		state.RunID = domain.NewID()
	}
	logger := r.logger.With("run_id", state.RunID)
	start := time.Now()

	for _, st := range r.stages {
		if err := ctx.Err(); err != nil {
			state.AppendError(st.Name(), err)
			return fmt.Errorf("%s: %w", st.Name(), err)
		}

		stageStart := time.Now()
		logger.Info("stage started", "stage", st.Name())
		if err := runStage(ctx, st, state); err != nil {
			state.AppendError(st.Name(), err)
			logger.Error("stage failed", "stage", st.Name(),
				"duration_ms", time.Since(stageStart).Milliseconds(), "error", err)
			return fmt.Errorf("%s: %w", st.Name(), err)
		}
		logger.Info("stage finished", "stage", st.Name(),
			"duration_ms", time.Since(stageStart).Milliseconds())
	}

	logger.Info("pipeline finished", "stages", len(r.stages),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

func runStage(ctx context.Context, st Stage, state *domain.PipelineState) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return st.Run(ctx, state)
}
