package domain

import (
	"encoding/base64"
	"strconv"
	"strings"
)

// Page sizes for run listings.
const (
	DefaultMaxResults = 50
	MaxMaxResults     = 500
)

// pageTokenPrefix tags offsets so a token from another listing is rejected.
const pageTokenPrefix = "runs:"

// PageRequest holds pagination parameters for listing audited runs.
type PageRequest struct {
	MaxResults int
	PageToken  string // opaque, URL-safe token produced by EncodePageToken
}

// ParsePageToken decodes a token produced by EncodePageToken. The empty
// token is offset 0.
func ParsePageToken(token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, ErrValidation("page_token is malformed")
	}
	rest, ok := strings.CutPrefix(string(decoded), pageTokenPrefix)
	if !ok {
		return 0, ErrValidation("page_token is malformed")
	}
	offset, err := strconv.Atoi(rest)
	if err != nil || offset < 0 {
		return 0, ErrValidation("page_token is malformed")
	}
	return offset, nil
}

// Offset returns the decoded page token, or 0 when it does not decode.
// Callers that accept tokens from clients validate them with ParsePageToken.
func (p PageRequest) Offset() int {
	offset, err := ParsePageToken(p.PageToken)
	if err != nil {
		return 0
	}
	return offset
}

// Limit returns the effective page size, clamped to [1, MaxMaxResults].
func (p PageRequest) Limit() int {
	switch {
	case p.MaxResults <= 0:
		return DefaultMaxResults
	case p.MaxResults > MaxMaxResults:
		return MaxMaxResults
	}
	return p.MaxResults
}

// EncodePageToken returns the token for offset; "" for the first page.
func EncodePageToken(offset int) string {
	if offset <= 0 {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(pageTokenPrefix + strconv.Itoa(offset)))
}

// NextPageToken returns the token of the page after [offset, offset+limit),
// or "" when that page would be empty.
func NextPageToken(offset, limit int, total int64) string {
	next := offset + limit
	if int64(next) >= total {
		return ""
	}
	return EncodePageToken(next)
}
