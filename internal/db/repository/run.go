// Package repository implements domain repositories on the SQLite audit store.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"colstd/internal/domain"
)

var _ domain.RunRepository = (*RunRepo)(nil)

// RunRepo persists standardization runs. Writes go through the single-connection
// write pool and reads through the read pool.
type RunRepo struct {
	write *sql.DB
	read  *sql.DB
}

// NewRunRepo creates a RunRepo. read may equal write.
func NewRunRepo(write, read *sql.DB) *RunRepo {
	if read == nil {
		read = write
	}
	return &RunRepo{write: write, read: read}
}

// Insert stores the run with its mappings and ambiguous fields in one transaction.
func (r *RunRepo) Insert(ctx context.Context, run *domain.RunRecord) error {
	if run.ID == "" {
		run.ID = domain.NewID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	diags, err := json.Marshal(nonNil(run.Diagnostics))
	if err != nil {
		return fmt.Errorf("encode diagnostics: %w", err)
	}

	tx, err := r.write.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `INSERT INTO runs
		(id, file_path, model, status, cleaning_code, confident_count, ambiguous_count,
		 unknown_count, diagnostics, error_message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.FilePath, run.Model, run.Status, run.CleaningCode,
		run.ConfidentCount, run.AmbiguousCount, run.UnknownCount,
		string(diags), run.ErrorMessage, run.DurationMs,
		run.CreatedAt.UTC().Format(timeLayout),
	); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict("run %q already exists", run.ID)
		}
		return fmt.Errorf("insert run: %w", err)
	}

	for _, m := range run.Mappings {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_mappings (run_id, raw_column, new_column, tier) VALUES (?, ?, ?, ?)`,
			run.ID, m.RawColumn, m.NewColumn, string(m.Tier)); err != nil {
			return fmt.Errorf("insert mapping %q: %w", m.RawColumn, err)
		}
	}

	for i, f := range run.AmbiguousFields {
		cands, err := json.Marshal(nonNil(f.Candidates))
		if err != nil {
			return fmt.Errorf("encode candidates: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO run_ambiguous_fields
			(run_id, position, original_column, candidates, reason, sample_values)
			VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, i, f.OriginalColumn, string(cands), f.Reason, f.SampleValues); err != nil {
			return fmt.Errorf("insert ambiguous field %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Get returns a run with its mappings and ambiguous fields.
func (r *RunRepo) Get(ctx context.Context, id string) (*domain.RunRecord, error) {
	row := r.read.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("run %q not found", id)
	}
	if err != nil {
		return nil, err
	}

	if run.Mappings, err = r.mappings(ctx, id); err != nil {
		return nil, err
	}
	if run.AmbiguousFields, err = r.ambiguousFields(ctx, id); err != nil {
		return nil, err
	}
	return run, nil
}

// List returns runs newest first, without child rows, plus the total matching count.
func (r *RunRepo) List(ctx context.Context, filter domain.RunFilter) ([]domain.RunRecord, int64, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Since != nil {
		where = append(where, "created_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.read.QueryRowContext(ctx, "SELECT count(*) FROM runs"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count runs: %w", err)
	}

	query := "SELECT " + runColumns + " FROM runs" + clause + " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := r.read.QueryContext(ctx, query, append(args, filter.Page.Limit(), filter.Page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	runs := []domain.RunRecord{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, *run)
	}
	return runs, total, rows.Err()
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const runColumns = `id, file_path, model, status, cleaning_code, confident_count,
	ambiguous_count, unknown_count, diagnostics, error_message, duration_ms, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*domain.RunRecord, error) {
	var (
		run       domain.RunRecord
		diags     string
		errMsg    sql.NullString
		createdAt string
	)
	if err := s.Scan(&run.ID, &run.FilePath, &run.Model, &run.Status, &run.CleaningCode,
		&run.ConfidentCount, &run.AmbiguousCount, &run.UnknownCount,
		&diags, &errMsg, &run.DurationMs, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(diags), &run.Diagnostics); err != nil {
		return nil, fmt.Errorf("decode diagnostics for run %s: %w", run.ID, err)
	}
	if errMsg.Valid {
		run.ErrorMessage = &errMsg.String
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for run %s: %w", run.ID, err)
	}
	run.CreatedAt = t
	return &run, nil
}

func (r *RunRepo) mappings(ctx context.Context, runID string) ([]domain.ColumnMapping, error) {
	rows, err := r.read.QueryContext(ctx,
		`SELECT raw_column, new_column, tier FROM run_mappings WHERE run_id = ? ORDER BY raw_column`, runID)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.ColumnMapping
	for rows.Next() {
		var m domain.ColumnMapping
		var tier string
		if err := rows.Scan(&m.RawColumn, &m.NewColumn, &tier); err != nil {
			return nil, err
		}
		m.Tier = domain.ConfidenceTier(tier)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *RunRepo) ambiguousFields(ctx context.Context, runID string) ([]domain.AmbiguousField, error) {
	rows, err := r.read.QueryContext(ctx, `SELECT original_column, candidates, reason, sample_values
		FROM run_ambiguous_fields WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("list ambiguous fields: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.AmbiguousField
	for rows.Next() {
		var f domain.AmbiguousField
		var cands string
		if err := rows.Scan(&f.OriginalColumn, &cands, &f.Reason, &f.SampleValues); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(cands), &f.Candidates); err != nil {
			return nil, fmt.Errorf("decode candidates: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
