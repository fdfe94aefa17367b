package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colstd/internal/domain"
	"colstd/internal/testutil"
)

func TestRunner_RunsStagesInOrder(t *testing.T) {
	var order []string
	first := &testutil.MockStage{NameValue: "standardize", RunFn: func(_ context.Context, s *domain.PipelineState) error {
		order = append(order, "standardize")
		s.CleaningCode = "df = df.rename(columns={})"
		return nil
	}}
	second := &testutil.MockStage{NameValue: "execute", RunFn: func(_ context.Context, s *domain.PipelineState) error {
		order = append(order, "execute")
		assert.NotEmpty(t, s.CleaningCode, "second stage sees the first stage's output")
		return nil
	}}

	r := NewRunner(slog.New(slog.DiscardHandler), first, second)
	state := &domain.PipelineState{}

	require.NoError(t, r.Run(context.Background(), state))
	assert.Equal(t, []string{"standardize", "execute"}, order)
	assert.Equal(t, []string{"standardize", "execute"}, r.Stages())
	assert.NotEmpty(t, state.RunID)
	assert.Empty(t, state.ErrorLog)
}

func TestRunner_StopsAtFirstError(t *testing.T) {
	boom := &domain.ModelError{Provider: "groq", Err: errors.New("status 401")}
	first := &testutil.MockStage{NameValue: "standardize", RunFn: func(context.Context, *domain.PipelineState) error {
		return boom
	}}
	second := &testutil.MockStage{NameValue: "execute"}

	r := NewRunner(slog.New(slog.DiscardHandler), first, second)
	state := &domain.PipelineState{RunID: "run-1"}

	err := r.Run(context.Background(), state)
	require.Error(t, err)

	var modelErr *domain.ModelError
	assert.ErrorAs(t, err, &modelErr)
	assert.Equal(t, 0, second.Calls)
	require.Len(t, state.ErrorLog, 1)
	assert.Equal(t, "standardize: model call (groq): status 401", state.ErrorLog[0])
	assert.Equal(t, "run-1", state.RunID)
}

func TestRunner_RecoversPanics(t *testing.T) {
	st := &testutil.MockStage{NameValue: "execute", RunFn: func(context.Context, *domain.PipelineState) error {
		panic("nil frame")
	}}

	state := &domain.PipelineState{}
	err := NewRunner(slog.New(slog.DiscardHandler), st).Run(context.Background(), state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic: nil frame")
	assert.Len(t, state.ErrorLog, 1)
}

func TestRunner_CancelledContext(t *testing.T) {
	st := &testutil.MockStage{NameValue: "standardize"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state := &domain.PipelineState{}
	err := NewRunner(slog.New(slog.DiscardHandler), st).Run(ctx, state)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, st.Calls)
	assert.Len(t, state.ErrorLog, 1)
}

func TestRunner_NoStages(t *testing.T) {
	state := &domain.PipelineState{}
	require.NoError(t, NewRunner(slog.New(slog.DiscardHandler)).Run(context.Background(), state))
	assert.Empty(t, state.ErrorLog)
}
