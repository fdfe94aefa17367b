// Package standardize implements the column standardization stage: it builds
// a telecom-domain prompt, calls the language model once and parses the two
// code blocks of the reply into rename code, a rename mapping and a list of
// ambiguous fields.
package standardize

import (
	"context"
	"log/slog"
	"time"

	"colstd/internal/domain"
	"colstd/internal/llm"
)

// Service runs the standardization stage.
type Service struct {
	client llm.Client
	model  string
	runs   domain.RunRepository
	logger *slog.Logger
}

// NewService creates a new standardization Service. model is recorded on audited runs.
func NewService(client llm.Client, model string, logger *slog.Logger) *Service {
	return &Service{client: client, model: model, logger: logger}
}

// SetRunRepository enables persisting every run to the audit store.
func (s *Service) SetRunRepository(runs domain.RunRepository) {
	s.runs = runs
}

// Prompt returns the prompt Standardize would send for state.
func (s *Service) Prompt(state *domain.PipelineState) string {
	return BuildPrompt(PromptInput{
		SQLQuery:        state.SQLQuery,
		CleanedColumns:  CleanedNames(PreprocessColumnNames(state.DFColumns)),
		MetadataSummary: state.MetadataSummary,
		SpecialRules:    state.SpecialRules,
	})
}

// Standardize renames the columns of state via the language model.
// Only a failed model call returns an error; malformed replies degrade to
// empty artifacts with diagnostics on the result. Apart from assigning a
// RunID when none is set, state is not modified.
func (s *Service) Standardize(ctx context.Context, state *domain.PipelineState) (*domain.StandardizationResult, error) {
	start := time.Now()
	if state.RunID == "" {
		state.RunID = domain.NewID()
	}
	logger := s.logger.With("run_id", state.RunID)

	cleaned := PreprocessColumnNames(state.DFColumns)
	if len(cleaned) > 0 {
		logger.Info("pre-processed columns", "count", len(cleaned))
	}
	prompt := BuildPrompt(PromptInput{
		SQLQuery:        state.SQLQuery,
		CleanedColumns:  CleanedNames(cleaned),
		MetadataSummary: state.MetadataSummary,
		SpecialRules:    state.SpecialRules,
	})

	logger.Info("sending prompt to model", "provider", s.client.Name(), "prompt_chars", len(prompt))
	raw, err := s.client.Complete(ctx, prompt)
	if err != nil {
		modelErr := &domain.ModelError{Provider: s.client.Name(), Err: err}
		s.record(ctx, state, nil, modelErr, time.Since(start))
		return nil, modelErr
	}
	logger.Debug("raw model response", "response", raw)

	res := ParseResponse(raw, state.DFColumns)
	for _, d := range res.Diagnostics {
		logger.Warn("standardization diagnostic", "detail", d)
	}
	res.Report = BuildReport(res)
	LogReport(logger, res.Report)

	s.record(ctx, state, res, nil, time.Since(start))
	return res, nil
}

// record persists the run when an audit store is configured. Failures are logged only.
func (s *Service) record(ctx context.Context, state *domain.PipelineState,
	res *domain.StandardizationResult, runErr error, elapsed time.Duration) {
	if s.runs == nil {
		return
	}

	rec := &domain.RunRecord{
		ID:         state.RunID,
		FilePath:   state.FilePath,
		Model:      s.model,
		Status:     domain.RunStatusSuccess,
		DurationMs: elapsed.Milliseconds(),
	}
	switch {
	case runErr != nil:
		msg := runErr.Error()
		rec.Status = domain.RunStatusError
		rec.ErrorMessage = &msg
	default:
		if len(res.Diagnostics) > 0 {
			rec.Status = domain.RunStatusDegraded
		}
		rec.CleaningCode = res.CleaningCode
		rec.ConfidentCount = res.Report.ConfidentCount
		rec.AmbiguousCount = res.Report.AmbiguousCount
		rec.UnknownCount = res.Report.UnknownCount
		rec.Mappings = domain.MappingsOf(res.ColumnMap)
		rec.AmbiguousFields = res.AmbiguousFields
		rec.Diagnostics = res.Diagnostics
	}

	if err := s.runs.Insert(ctx, rec); err != nil {
		s.logger.Warn("failed to record run", "run_id", rec.ID, "error", err)
	}
}

// Stage adapts Service to the pipeline runner.
type Stage struct {
	svc *Service
}

// NewStage wraps svc as a pipeline stage.
func NewStage(svc *Service) *Stage {
	return &Stage{svc: svc}
}

// Name implements pipeline.Stage.
func (st *Stage) Name() string { return "standardize" }

// Run implements pipeline.Stage. It overwrites the generated code, the
// ambiguous fields and the rename mapping on state.
func (st *Stage) Run(ctx context.Context, state *domain.PipelineState) error {
	res, err := st.svc.Standardize(ctx, state)
	if err != nil {
		return err
	}
	state.CleaningCode = res.CleaningCode
	state.AmbiguousFields = res.AmbiguousFields
	state.ColumnMap = res.ColumnMap
	return nil
}
