package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"colstd/internal/domain"
)

// maxBodyBytes bounds request bodies; column lists and profiles are small.
const maxBodyBytes = 1 << 20

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes err with the status of its domain type. Internal errors
// are not echoed to the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, ErrorResponse{Code: status, Message: msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.ErrValidation("request body is required")
		}
		return domain.ErrValidation("invalid request body: %v", err)
	}
	return nil
}

// pageFromQuery extracts a PageRequest from optional max_results/page_token params.
func pageFromQuery(r *http.Request) (domain.PageRequest, error) {
	p := domain.PageRequest{PageToken: r.URL.Query().Get("page_token")}
	if _, err := domain.ParsePageToken(p.PageToken); err != nil {
		return p, err
	}
	if v := r.URL.Query().Get("max_results"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return p, domain.ErrValidation("max_results must be a non-negative integer")
		}
		p.MaxResults = n
	}
	return p, nil
}

// runFilterFromQuery reads the status, since and paging parameters of a run listing.
func runFilterFromQuery(r *http.Request) (domain.RunFilter, error) {
	page, err := pageFromQuery(r)
	if err != nil {
		return domain.RunFilter{}, err
	}
	f := domain.RunFilter{Page: page}
	if v := r.URL.Query().Get("status"); v != "" {
		switch v {
		case domain.RunStatusSuccess, domain.RunStatusDegraded, domain.RunStatusError:
			f.Status = &v
		default:
			return f, domain.ErrValidation("status must be one of SUCCESS, DEGRADED, ERROR")
		}
	}
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, domain.ErrValidation("since must be an RFC 3339 timestamp")
		}
		f.Since = &t
	}
	return f, nil
}
