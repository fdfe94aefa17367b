// Package api serves the standardization stage and the run history over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"colstd/internal/domain"
)

// Standardizer runs the standardization stage for one request.
type Standardizer interface {
	Standardize(ctx context.Context, state *domain.PipelineState) (*domain.StandardizationResult, error)
}

// InputFiller derives missing inputs (columns, dataset profile) from the dataset file.
type InputFiller interface {
	Fill(ctx context.Context, state *domain.PipelineState) error
}

// Handler implements the HTTP endpoints.
type Handler struct {
	svc    Standardizer
	filler InputFiller
	runs   domain.RunRepository
	logger *slog.Logger

	dataDir string
}

// NewHandler creates a Handler. runs may be nil when the audit store is disabled.
func NewHandler(svc Standardizer, filler InputFiller, runs domain.RunRepository, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, filler: filler, runs: runs, logger: logger}
}

// SetDataDir sets the directory request file paths must resolve into.
// Until it is set, requests carrying file_path are rejected.
func (h *Handler) SetDataDir(dir string) {
	h.dataDir = dir
}

// StandardizeRequest is the body of POST /v1/standardize.
type StandardizeRequest struct {
	FilePath        string   `json:"file_path"`
	TargetColumn    string   `json:"target_column"`
	MetadataSummary string   `json:"metadata_summary"`
	DFColumns       []string `json:"df_columns"`
	SQLQuery        *string  `json:"sql_query"`
	SpecialRules    *string  `json:"special_rules"`
}

// StandardizeResponse is the body of a successful POST /v1/standardize.
type StandardizeResponse struct {
	RunID           string                  `json:"run_id"`
	CleaningCode    string                  `json:"cleaning_code"`
	ColumnMap       domain.RenameMap        `json:"column_map"`
	AmbiguousFields []domain.AmbiguousField `json:"ambiguous_fields"`
	Diagnostics     []string                `json:"diagnostics,omitempty"`
	Report          domain.AuditReport      `json:"report"`
}

// ListRunsResponse is the body of GET /v1/runs.
type ListRunsResponse struct {
	Runs          []domain.RunRecord `json:"runs"`
	Total         int64              `json:"total"`
	NextPageToken string             `json:"next_page_token,omitempty"`
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Standardize handles POST /v1/standardize.
func (h *Handler) Standardize(w http.ResponseWriter, r *http.Request) {
	var req StandardizeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	state := &domain.PipelineState{
		FilePath:        req.FilePath,
		TargetColumn:    req.TargetColumn,
		MetadataSummary: req.MetadataSummary,
		DFColumns:       req.DFColumns,
		SQLQuery:        nonBlank(req.SQLQuery),
		SpecialRules:    nonBlank(req.SpecialRules),
	}
	if state.FilePath != "" {
		path, err := resolveDataPath(h.dataDir, state.FilePath)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		state.FilePath = path
	}
	if err := h.filler.Fill(r.Context(), state); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.svc.Standardize(r.Context(), state)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, StandardizeResponse{
		RunID:           state.RunID,
		CleaningCode:    res.CleaningCode,
		ColumnMap:       res.ColumnMap,
		AmbiguousFields: res.AmbiguousFields,
		Diagnostics:     res.Diagnostics,
		Report:          res.Report,
	})
}

// ListRuns handles GET /v1/runs.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		h.writeError(w, r, domain.ErrNotFound("audit store is not enabled"))
		return
	}
	filter, err := runFilterFromQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	runs, total, err := h.runs.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListRunsResponse{
		Runs:          runs,
		Total:         total,
		NextPageToken: domain.NextPageToken(filter.Page.Offset(), filter.Page.Limit(), total),
	})
}

// GetRun handles GET /v1/runs/{id}.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		h.writeError(w, r, domain.ErrNotFound("audit store is not enabled"))
		return
	}
	run, err := h.runs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func nonBlank(s *string) *string {
	if s == nil {
		return nil
	}
	return domain.StringPtr(*s)
}
