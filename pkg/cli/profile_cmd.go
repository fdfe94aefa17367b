package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"colstd/internal/profile"
)

func newProfileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "profile FILE",
		Short:   "Print the dataset profile used as the model's metadata summary",
		Example: "  colstd profile subs.parquet",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd.Context())
			defer cancel()

			db, err := a.openDuckDB()
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			prof, err := profile.NewProfiler(db).Summarize(ctx, args[0])
			if err != nil {
				return err
			}
			if a.output == "json" {
				return PrintJSON(a.stdout, prof)
			}
			_, err = fmt.Fprint(a.stdout, profile.Render(prof))
			return err
		},
	}
}
