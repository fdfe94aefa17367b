package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"colstd/internal/domain"
	"colstd/internal/executor"
	"colstd/internal/service/pipeline"
	"colstd/internal/service/standardize"
)

func newRunCmd(a *app) *cobra.Command {
	var in inputFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Standardize a dataset and write the renamed copy",
		Long: `Run both pipeline stages: generate rename code with the language model,
then evaluate it against the dataset's columns and write a renamed copy with DuckDB.`,
		Example: `  colstd run --file subs.csv
  colstd run --job jobs/subs.yaml --out clean/subs.parquet`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := in.state(cmd.Flags())
			if err != nil {
				return err
			}
			if state.FilePath == "" {
				return domain.ErrValidation("run needs a dataset file (--file or file_path in the job)")
			}
			ctx, cancel := a.context(cmd.Context())
			defer cancel()

			db, err := a.openDuckDB()
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck
			if err := a.fill(ctx, db, state); err != nil {
				return err
			}

			runs, closeRuns, err := a.openRuns()
			if err != nil {
				return err
			}
			defer closeRuns()

			runner := pipeline.NewRunner(a.logger,
				standardize.NewStage(a.newService(runs)),
				executor.NewStage(a.newExecutor(db)),
			)
			runErr := runner.Run(ctx, state)

			if a.output == "json" {
				if err := PrintJSON(a.stdout, state); err != nil {
					return err
				}
				return runErr
			}
			if runErr != nil {
				return runErr
			}
			return printRun(a, state)
		},
	}
	in.register(cmd, true)
	return cmd
}

func printRun(a *app, state *domain.PipelineState) error {
	res := &domain.StandardizationResult{
		CleaningCode:    state.CleaningCode,
		AmbiguousFields: state.AmbiguousFields,
		ColumnMap:       state.ColumnMap,
	}
	res.Report = standardize.BuildReport(res)
	if err := printResult(a.stdout, state.RunID, res); err != nil {
		return err
	}
	if len(state.RenamedColumns) == 0 {
		_, _ = fmt.Fprintln(a.stdout, "\nNo rename code was generated; nothing written.")
		return nil
	}
	_, _ = fmt.Fprintf(a.stdout, "\nWrote %s\nColumns: %s\n", state.OutputPath, strings.Join(state.RenamedColumns, ", "))
	return nil
}
