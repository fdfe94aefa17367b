package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPromptCmd(a *app) *cobra.Command {
	var in inputFlags
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the prompt that standardize would send",
		Long:  "Build the standardization prompt for the given inputs without calling the language model.",
		Args:  cobra.NoArgs,
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

			prompt := a.newService(nil).Prompt(state)
			if a.output == "json" {
				return PrintJSON(a.stdout, map[string]string{"prompt": prompt})
			}
			_, err = fmt.Fprintln(a.stdout, prompt)
			return err
		},
	}
	in.register(cmd, false)
	return cmd
}
