package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colstd/internal/config"
	"colstd/internal/domain"
	"colstd/internal/llm"
	"colstd/internal/testutil"
)

const subsReply = "```python\nrename_map = {\n    \"t.msisdn\": \"Msisdn\",\n    \"rev_l30d\": \"RevenueLast30d\",\n    \"x_flg\": \"ambiguous_x_flg\"\n}\ndf = df.rename(columns=rename_map)\n```\n\n```python\nambiguous_fields = [\n    {\"key\": \"x_flg\", \"candidates\": [\"RoamingFlag\", \"DataPlanFlag\"], \"reason\": \"unclear prefix\", \"sample_values\": \"0, 1\"}\n]\n```\n"

const subsCSV = "t.msisdn,rev_l30d,x_flg\n255700000001,1200.5,0\n255700000002,80.0,1\n"

// setupEnv isolates the test from the caller's environment.
func setupEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LLM_ENDPOINT", "LLM_MODEL", "LLM_MAX_TOKENS", "LLM_TIMEOUT",
		"EXEC_MAX_STEPS", "EXEC_TIMEOUT", "AUDIT_DB_PATH", "LISTEN_ADDR",
		"LOG_FORMAT", "ENV", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("GROQ_API_KEY", "test-key")
	t.Setenv("LOG_LEVEL", "error")
}

// execute runs the CLI with client standing in for the model provider.
func execute(t *testing.T, client llm.Client, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(deps{
		stdout:     &stdout,
		stderr:     &stderr,
		isTerminal: func() bool { return false },
		newClient:  func(config.LLMConfig) llm.Client { return client },
	})
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	t.Setenv("ENV", "production") // config would fail; version must not load it

	out, err := execute(t, nil, "version", "-o", "json")
	require.NoError(t, err)
	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "dev", v["version"])

	out, err = execute(t, nil, "version", "-o", "table")
	require.NoError(t, err)
	assert.Equal(t, "colstd version dev (commit: none)\n", out)
}

func TestUnsupportedOutputFormat(t *testing.T) {
	setupEnv(t)
	_, err := execute(t, nil, "version", "-o", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestProductionConfigErrorsSurface(t *testing.T) {
	setupEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("GROQ_API_KEY", "")

	_, err := execute(t, testutil.Reply(subsReply), "prompt", "--columns", "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GROQ_API_KEY")
}

func TestPrompt(t *testing.T) {
	setupEnv(t)
	client := &testutil.MockModelClient{}

	out, err := execute(t, client, "prompt", "--columns", "t.msisdn,REV_L30D", "--metadata", "2 rows", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, `["msisdn", "rev_l30d"]`)
	assert.Contains(t, out, "2 rows")
	assert.Empty(t, client.Prompts, "prompt must not call the model")
}

func TestStandardize_JSON(t *testing.T) {
	setupEnv(t)
	client := testutil.Reply(subsReply)

	out, err := execute(t, client, "standardize",
		"--columns", "t.msisdn,rev_l30d,x_flg", "--metadata", "3 columns", "--sql", "SELECT * FROM subs")
	require.NoError(t, err)

	var view resultView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.NotEmpty(t, view.RunID)
	assert.Equal(t, "Msisdn", view.ColumnMap["t.msisdn"])
	assert.Equal(t, 2, view.Report.ConfidentCount)
	assert.Equal(t, 1, view.Report.AmbiguousCount)
	require.Len(t, view.AmbiguousFields, 1)
	assert.Equal(t, []string{"RoamingFlag", "DataPlanFlag"}, view.AmbiguousFields[0].Candidates)

	require.Len(t, client.Prompts, 1)
	assert.Contains(t, client.Prompts[0], "SELECT * FROM subs")
}

func TestStandardize_Table(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, testutil.Reply(subsReply), "standardize", "--columns", "t.msisdn,rev_l30d,x_flg", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Confident: 2  Ambiguous: 1  Unknown: 0")
	assert.Contains(t, out, "RAW COLUMN")
	assert.Contains(t, out, "RevenueLast30d")
	assert.Contains(t, out, "RoamingFlag, DataPlanFlag")
	assert.Contains(t, out, "df = df.rename(columns=rename_map)")
}

func TestStandardize_FromFile(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "subs.csv", subsCSV)
	client := testutil.Reply(subsReply)

	_, err := execute(t, client, "standardize", "--file", path)
	require.NoError(t, err)
	require.Len(t, client.Prompts, 1)
	assert.Contains(t, client.Prompts[0], `["msisdn", "rev_l30d", "x_flg"]`)
	assert.Contains(t, client.Prompts[0], "2 rows, 3 columns")
}

func TestStandardize_Errors(t *testing.T) {
	setupEnv(t)

	t.Run("no_input", func(t *testing.T) {
		_, err := execute(t, testutil.Reply(subsReply), "standardize")
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("model_failure", func(t *testing.T) {
		client := &testutil.MockModelClient{
			NameValue: "groq",
			CompleteFn: func(context.Context, string) (string, error) {
				return "", errors.New("groq error (status 429): rate limited")
			},
		}
		_, err := execute(t, client, "standardize", "--columns", "a")
		var me *domain.ModelError
		require.ErrorAs(t, err, &me)
		assert.Equal(t, "groq", me.Provider)
	})

	t.Run("exclusive_flags", func(t *testing.T) {
		_, err := execute(t, testutil.Reply(subsReply), "standardize", "--columns", "a", "--sql", "x", "--sql-file", "y")
		require.Error(t, err)
	})
}

func TestRun_WritesRenamedCopy(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "subs.csv", subsCSV)

	out, err := execute(t, testutil.Reply(subsReply), "run", "--file", path, "-o", "json")
	require.NoError(t, err)

	var state domain.PipelineState
	require.NoError(t, json.Unmarshal([]byte(out), &state))
	assert.Equal(t, filepath.Join(dir, "subs_standardized.csv"), state.OutputPath)
	assert.Equal(t, []string{"Msisdn", "RevenueLast30d", "ambiguous_x_flg"}, state.RenamedColumns)
	assert.Equal(t, 1, state.IterationCount)
	assert.Empty(t, state.ErrorLog)

	data, err := os.ReadFile(state.OutputPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Msisdn,RevenueLast30d,ambiguous_x_flg\n"), string(data))
}

func TestRun_TableAndOutPath(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "subs.csv", subsCSV)
	target := filepath.Join(dir, "clean.parquet")

	out, err := execute(t, testutil.Reply(subsReply), "run", "--file", path, "--out", target, "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+target)
	assert.FileExists(t, target)
}

func TestRun_NoCodeWritesNothing(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "subs.csv", subsCSV)

	out, err := execute(t, testutil.Reply("no code here"), "run", "--file", path, "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing written")
	assert.NoFileExists(t, filepath.Join(dir, "subs_standardized.csv"))
}

func TestRun_DuplicateTargetsRecorded(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "subs.csv", "rev_a,rev_b\n1,2\n")
	reply := "```python\nrename_map = {\"rev_a\": \"Revenue\", \"rev_b\": \"Revenue\"}\ndf = df.rename(columns=rename_map)\n```\n```python\nambiguous_fields = []\n```"

	out, err := execute(t, testutil.Reply(reply), "run", "--file", path, "-o", "json")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)

	var state domain.PipelineState
	require.NoError(t, json.Unmarshal([]byte(out), &state))
	require.Len(t, state.ErrorLog, 1)
	assert.Contains(t, state.ErrorLog[0], "execute: rename produces duplicate columns")
	assert.Equal(t, domain.RenameMap{"rev_a": "Revenue", "rev_b": "Revenue"}, state.ColumnMap)
}

func TestRun_RequiresFile(t *testing.T) {
	setupEnv(t)
	_, err := execute(t, testutil.Reply(subsReply), "run", "--columns", "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset file")
}

func TestProfileCmd(t *testing.T) {
	setupEnv(t)
	path := writeFile(t, t.TempDir(), "subs.csv", subsCSV)

	out, err := execute(t, nil, "profile", path, "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "2 rows, 3 columns")
	assert.Contains(t, out, "rev_l30d")

	out, err = execute(t, nil, "profile", path, "-o", "json")
	require.NoError(t, err)
	var prof map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &prof))
	assert.InDelta(t, 2, prof["row_count"], 0.001)
}

func TestHistory(t *testing.T) {
	setupEnv(t)
	t.Setenv("AUDIT_DB_PATH", filepath.Join(t.TempDir(), "audit.sqlite"))

	out, err := execute(t, testutil.Reply(subsReply), "standardize", "--columns", "t.msisdn,rev_l30d,x_flg")
	require.NoError(t, err)
	var view resultView
	require.NoError(t, json.Unmarshal([]byte(out), &view))

	out, err = execute(t, nil, "history", "-o", "json")
	require.NoError(t, err)
	var list struct {
		Runs  []domain.RunRecord `json:"runs"`
		Total int64              `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, view.RunID, list.Runs[0].ID)
	assert.Equal(t, domain.RunStatusSuccess, list.Runs[0].Status)

	out, err = execute(t, nil, "history", view.RunID, "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Run "+view.RunID+" (SUCCESS)")
	assert.Contains(t, out, "ambiguous x_flg: RoamingFlag | DataPlanFlag")

	out, err = execute(t, nil, "history", "--status", "error", "-o", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Equal(t, int64(0), list.Total)

	_, err = execute(t, nil, "history", "missing-id")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestHistory_Disabled(t *testing.T) {
	setupEnv(t)
	_, err := execute(t, nil, "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUDIT_DB_PATH")
}

func TestCompletion(t *testing.T) {
	out, err := execute(t, nil, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "colstd")
}

func TestServe_InvalidAddress(t *testing.T) {
	setupEnv(t)
	_, err := execute(t, nil, "serve", "--addr", "127.0.0.1:-1")
	require.Error(t, err)
}
