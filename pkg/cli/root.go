// Package cli implements the colstd command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"colstd/internal/config"
	"colstd/internal/domain"
	"colstd/internal/llm"
)

var (
	version = "dev"
	commit  = "none"
)

// skipConfig marks commands that run without loading the environment config.
const skipConfig = "skip-config"

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd(defaultDeps())
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			errObj := map[string]interface{}{
				"error": err.Error(),
			}
			var modelErr *domain.ModelError
			if errors.As(err, &modelErr) {
				errObj["provider"] = modelErr.Provider
			}
			_ = PrintJSON(os.Stdout, errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// deps are the process-level collaborators of the commands.
type deps struct {
	stdout     io.Writer
	stderr     io.Writer
	isTerminal func() bool
	newClient  func(cfg config.LLMConfig) llm.Client
}

func defaultDeps() deps {
	return deps{
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		isTerminal: func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }, //nolint:gosec // fd fits in int
		newClient:  newGroqClient,
	}
}

func newRootCmd(d deps) *cobra.Command {
	a := &app{deps: d}
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "colstd",
		Short:         "Telecom column standardization",
		Long:          "Standardize raw telecom dataset column names with a language model and apply the rename.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutputFormat(a.output); err != nil {
				return err
			}
			// Interactive sessions get tables, pipes get JSON.
			if a.output == "" {
				a.output = "json"
				if a.isTerminal() {
					a.output = "table"
				}
			}
			if cmd.Annotations[skipConfig] == "true" {
				return nil
			}
			if err := config.LoadDotEnv(envFile); err != nil {
				return err
			}
			return a.loadConfig()
		},
	}
	rootCmd.SetOut(d.stdout)
	rootCmd.SetErr(d.stderr)

	rootCmd.PersistentFlags().StringVarP(&a.output, "output", "o", "", "Output format (table, json); defaults to table on a terminal")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before reading configuration")
	rootCmd.PersistentFlags().DurationVar(&a.timeout, "timeout", 5*time.Minute, "Deadline for the whole command (0 disables)")

	rootCmd.AddCommand(newStandardizeCmd(a))
	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newProfileCmd(a))
	rootCmd.AddCommand(newPromptCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newVersionCmd(a))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "completion [bash|zsh|fish|powershell]",
		Short:       "Generate shell completion scripts",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}
