// Package testutil provides shared mock implementations of the pipeline's
// interfaces for use in tests across the codebase. This follows the Go
// convention of a shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"sync"

	"colstd/internal/domain"
)

// === Model Client Mock ===

// MockModelClient implements llm.Client for testing.
type MockModelClient struct {
	CompleteFn func(ctx context.Context, prompt string) (string, error)
	NameValue  string
	Prompts    []string // collected prompts for assertions
}

// Complete implements the interface method for testing.
func (m *MockModelClient) Complete(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.CompleteFn != nil {
		return m.CompleteFn(ctx, prompt)
	}
	panic("unexpected call to MockModelClient.Complete")
}

// Name implements the interface method for testing.
func (m *MockModelClient) Name() string {
	if m.NameValue == "" {
		return "mock"
	}
	return m.NameValue
}

// Reply returns a client that always answers with response.
func Reply(response string) *MockModelClient {
	return &MockModelClient{
		CompleteFn: func(_ context.Context, _ string) (string, error) {
			return response, nil
		},
	}
}

// === Run Repository Mock ===

// MockRunRepo implements domain.RunRepository for testing.
type MockRunRepo struct {
	InsertFn func(ctx context.Context, r *domain.RunRecord) error
	GetFn    func(ctx context.Context, id string) (*domain.RunRecord, error)
	ListFn   func(ctx context.Context, filter domain.RunFilter) ([]domain.RunRecord, int64, error)

	mu      sync.Mutex
	Records []*domain.RunRecord // collected records for assertions
}

// Insert implements the interface method for testing.
func (m *MockRunRepo) Insert(ctx context.Context, r *domain.RunRecord) error {
	if m.InsertFn != nil {
		if err := m.InsertFn(ctx, r); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Records = append(m.Records, r)
	m.mu.Unlock()
	return nil
}

// Get implements the interface method for testing.
func (m *MockRunRepo) Get(ctx context.Context, id string) (*domain.RunRecord, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	panic("unexpected call to MockRunRepo.Get")
}

// List implements the interface method for testing.
func (m *MockRunRepo) List(ctx context.Context, filter domain.RunFilter) ([]domain.RunRecord, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	panic("unexpected call to MockRunRepo.List")
}

// LastRecord returns the last collected record, or nil if none.
func (m *MockRunRepo) LastRecord() *domain.RunRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Records) == 0 {
		return nil
	}
	return m.Records[len(m.Records)-1]
}

// === Stage Mock ===

// MockStage implements pipeline.Stage for testing.
type MockStage struct {
	NameValue string
	RunFn     func(ctx context.Context, state *domain.PipelineState) error
	Calls     int
}

// Name implements the interface method for testing.
func (m *MockStage) Name() string { return m.NameValue }

// Run implements the interface method for testing.
func (m *MockStage) Run(ctx context.Context, state *domain.PipelineState) error {
	m.Calls++
	if m.RunFn != nil {
		return m.RunFn(ctx, state)
	}
	return nil
}
