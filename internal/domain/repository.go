package domain

import (
	"context"
	"time"
)

// RunFilter holds filter parameters for listing audited runs.
type RunFilter struct {
	Status *string
	Since  *time.Time
	Page   PageRequest
}

// RunRepository persists standardization runs for later review.
type RunRepository interface {
	Insert(ctx context.Context, r *RunRecord) error
	Get(ctx context.Context, id string) (*RunRecord, error)
	List(ctx context.Context, filter RunFilter) ([]RunRecord, int64, error)
}
