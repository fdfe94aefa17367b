package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"colstd/internal/domain"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		status string
		since  time.Duration
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "List audited standardization runs",
		Long: `List runs recorded in the audit store (AUDIT_DB_PATH), newest first.
With a RUN_ID, show that run's column mapping and ambiguous fields.`,
		Example: `  colstd history --status DEGRADED --since 24h
  colstd history 01950f3c-7d2a-7b1e-9c4f-2a6d8e0b1c3d`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.AuditEnabled() {
				return domain.ErrValidation("audit store is disabled (set AUDIT_DB_PATH)")
			}
			ctx, cancel := a.context(cmd.Context())
			defer cancel()

			runs, closeRuns, err := a.openRuns()
			if err != nil {
				return err
			}
			defer closeRuns()

			if len(args) == 1 {
				run, err := runs.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if a.output == "json" {
					return PrintJSON(a.stdout, run)
				}
				return printRunDetail(a, run)
			}

			filter := domain.RunFilter{Page: domain.PageRequest{MaxResults: limit}}
			if status != "" {
				s := strings.ToUpper(status)
				filter.Status = &s
			}
			if since > 0 {
				t := time.Now().Add(-since)
				filter.Since = &t
			}
			list, total, err := runs.List(ctx, filter)
			if err != nil {
				return err
			}
			if a.output == "json" {
				return PrintJSON(a.stdout, map[string]any{"runs": list, "total": total})
			}

			rows := make([][]string, 0, len(list))
			for _, r := range list {
				rows = append(rows, []string{
					r.ID,
					r.CreatedAt.Local().Format(time.DateTime),
					r.Status,
					r.Model,
					r.FilePath,
					strconv.Itoa(r.ConfidentCount),
					strconv.Itoa(r.AmbiguousCount),
					strconv.Itoa(r.UnknownCount),
					(time.Duration(r.DurationMs) * time.Millisecond).String(),
				})
			}
			if err := PrintTable(a.stdout, []string{"id", "created", "status", "model", "file", "confident", "ambiguous", "unknown", "duration"}, rows); err != nil {
				return err
			}
			if int64(len(list)) < total {
				_, _ = fmt.Fprintf(a.stdout, "\n%d of %d runs shown\n", len(list), total)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only runs with this status (SUCCESS, DEGRADED, ERROR)")
	cmd.Flags().DurationVar(&since, "since", 0, "Only runs newer than this age, e.g. 24h")
	cmd.Flags().IntVar(&limit, "limit", domain.DefaultMaxResults, "Maximum number of runs to list")
	return cmd
}

func printRunDetail(a *app, run *domain.RunRecord) error {
	w := a.stdout
	fmt.Fprintf(w, "Run %s (%s)\n", run.ID, run.Status)
	fmt.Fprintf(w, "Created: %s  Model: %s  File: %s\n", run.CreatedAt.Local().Format(time.DateTime), run.Model, run.FilePath)
	if run.ErrorMessage != nil {
		fmt.Fprintf(w, "Error: %s\n", *run.ErrorMessage)
		return nil
	}
	fmt.Fprintf(w, "Confident: %d  Ambiguous: %d  Unknown: %d\n\n", run.ConfidentCount, run.AmbiguousCount, run.UnknownCount)
	if len(run.Mappings) > 0 {
		if err := printMappings(w, run.Mappings); err != nil {
			return err
		}
	}
	for _, f := range run.AmbiguousFields {
		fmt.Fprintf(w, "\nambiguous %s: %s (%s)", f.OriginalColumn, strings.Join(f.Candidates, " | "), f.Reason)
	}
	if len(run.AmbiguousFields) > 0 {
		fmt.Fprintln(w)
	}
	for _, d := range run.Diagnostics {
		fmt.Fprintf(w, "warning: %s\n", d)
	}
	return nil
}
