package cli

import (
	"github.com/spf13/cobra"
)

func newStandardizeCmd(a *app) *cobra.Command {
	var in inputFlags
	cmd := &cobra.Command{
		Use:   "standardize",
		Short: "Generate rename code for a dataset's columns",
		Long: `Ask the language model for telecom-standard names of the dataset's columns
and print the audit report and the generated rename code. The dataset is not modified.`,
		Example: `  colstd standardize --file subs.csv
  colstd standardize --columns t.msisdn,rev_l30d,dob --metadata-file profile.txt -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := in.state(cmd.Flags())
			if err != nil {
				return err
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

			res, err := a.newService(runs).Standardize(ctx, state)
			if err != nil {
				return err
			}

			if a.output == "json" {
				return PrintJSON(a.stdout, resultView{
					RunID:           state.RunID,
					CleaningCode:    res.CleaningCode,
					ColumnMap:       res.ColumnMap,
					AmbiguousFields: res.AmbiguousFields,
					Diagnostics:     res.Diagnostics,
					Report:          res.Report,
				})
			}
			return printResult(a.stdout, state.RunID, res)
		},
	}
	in.register(cmd, false)
	return cmd
}
