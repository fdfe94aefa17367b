package standardize

import (
	"log/slog"

	"colstd/internal/domain"
)

// BuildReport summarizes a result for human review. It reads res and never modifies it.
func BuildReport(res *domain.StandardizationResult) domain.AuditReport {
	unknown := res.ColumnMap.KeysWithTier(domain.TierUnknown)
	if unknown == nil {
		unknown = []string{}
	}
	return domain.AuditReport{
		AmbiguousCount:  len(res.AmbiguousFields),
		AmbiguousFields: res.AmbiguousFields,
		UnknownCount:    len(unknown),
		UnknownColumns:  unknown,
		ConfidentCount:  res.ColumnMap.CountTier(domain.TierConfident),
		CodeLength:      len(res.CleaningCode),
		Issues:          res.Diagnostics,
	}
}

// LogReport writes the report as structured records: one per ambiguous
// field, one per unknown column, then a summary.
func LogReport(logger *slog.Logger, r domain.AuditReport) {
	if r.AmbiguousCount > 0 {
		logger.Warn("ambiguous fields need human review", "count", r.AmbiguousCount)
		for _, f := range r.AmbiguousFields {
			logger.Warn("ambiguous field",
				"column", f.OriginalColumn,
				"candidates", f.Candidates,
				"reason", f.Reason,
				"samples", f.SampleValues)
		}
	}
	if r.UnknownCount > 0 {
		logger.Warn("unknown fields need manual mapping", "count", r.UnknownCount)
		for _, c := range r.UnknownColumns {
			logger.Warn("unknown field", "column", c)
		}
	}
	logger.Info("standardization summary",
		"confident", r.ConfidentCount,
		"ambiguous", r.AmbiguousCount,
		"unknown", r.UnknownCount,
		"code_chars", r.CodeLength)
}
