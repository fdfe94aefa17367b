package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colstd/internal/domain"
)

func TestLoadJob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "query.sql", "SELECT * FROM subs")
	path := writeFile(t, dir, "job.yaml", `
file_path: data/subs.csv
target_column: churn_flag
sql_query_file: query.sql
special_rules: keep revenue in TZS
output_path: /abs/out.parquet
`)

	job, err := LoadJob(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data", "subs.csv"), job.FilePath)
	assert.Equal(t, "/abs/out.parquet", job.OutputPath)

	state, err := job.State()
	require.NoError(t, err)
	assert.Equal(t, "churn_flag", state.TargetColumn)
	require.NotNil(t, state.SQLQuery)
	assert.Equal(t, "SELECT * FROM subs", *state.SQLQuery)
	require.NotNil(t, state.SpecialRules)
	assert.Equal(t, "keep revenue in TZS", *state.SpecialRules)
	assert.Nil(t, state.DFColumns)
}

func TestLoadJob_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown_key", "file_path: a.csv\ncolumns: [a]\n", "field columns not found"},
		{"no_input", "target_column: churn\n", "file_path or df_columns is required"},
		{"exclusive_sql", "df_columns: [a]\nsql_query: x\nsql_query_file: y.sql\n", "mutually exclusive"},
		{"exclusive_rules", "df_columns: [a]\nspecial_rules: x\nspecial_rules_file: y\n", "mutually exclusive"},
		{"bad_yaml", "df_columns: [a\n", "parse job"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "job.yaml", tc.content)
			_, err := LoadJob(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}

	t.Run("missing_file", func(t *testing.T) {
		_, err := LoadJob(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestJobState_MissingReferencedFile(t *testing.T) {
	job := &Job{Columns: []string{"a"}, SQLQueryFile: filepath.Join(t.TempDir(), "nope.sql")}
	_, err := job.State()
	require.Error(t, err)
}

func TestInputFlags_OverrideJob(t *testing.T) {
	dir := t.TempDir()
	jobPath := writeFile(t, dir, "job.yaml", "df_columns: [a, b]\nsql_query: SELECT 1\nspecial_rules: none\n")
	rules := writeFile(t, dir, "rules.txt", "msisdn stays text")

	var in inputFlags
	cmd := &cobra.Command{Use: "x", RunE: func(*cobra.Command, []string) error { return nil }}
	in.register(cmd, true)
	require.NoError(t, cmd.ParseFlags([]string{"--job", jobPath, "--columns", "c", "--rules-file", rules, "--out", "o.csv"}))

	state, err := in.state(cmd.Flags())
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, state.DFColumns)
	require.NotNil(t, state.SQLQuery)
	assert.Equal(t, "SELECT 1", *state.SQLQuery)
	require.NotNil(t, state.SpecialRules)
	assert.Equal(t, "msisdn stays text", *state.SpecialRules)
	assert.Equal(t, "o.csv", state.OutputPath)
}

func TestInputFlags_BlankOptionalInputsAreAbsent(t *testing.T) {
	var in inputFlags
	cmd := &cobra.Command{Use: "x"}
	in.register(cmd, false)
	require.NoError(t, cmd.ParseFlags([]string{"--columns", "a", "--sql", "   "}))

	state, err := in.state(cmd.Flags())
	require.NoError(t, err)
	assert.Nil(t, state.SQLQuery)
	assert.Nil(t, state.SpecialRules)
}

func TestInputFlags_RequiresSomething(t *testing.T) {
	var in inputFlags
	cmd := &cobra.Command{Use: "x"}
	in.register(cmd, false)
	require.NoError(t, cmd.ParseFlags(nil))

	_, err := in.state(cmd.Flags())
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestTextOrFile(t *testing.T) {
	got, err := textOrFile("inline", "")
	require.NoError(t, err)
	assert.Equal(t, "inline", got)

	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o644))
	got, err = textOrFile("ignored", path)
	require.NoError(t, err)
	assert.Equal(t, "from file", got)
}
