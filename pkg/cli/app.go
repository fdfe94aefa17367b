package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"

	"colstd/internal/config"
	internaldb "colstd/internal/db"
	"colstd/internal/db/repository"
	"colstd/internal/domain"
	"colstd/internal/executor"
	"colstd/internal/llm"
	"colstd/internal/profile"
	"colstd/internal/service/standardize"
)

// app carries the resolved flags and configuration shared by all commands.
type app struct {
	deps
	output  string
	timeout time.Duration
	cfg     *config.Config
	logger  *slog.Logger
}

func (a *app) loadConfig() error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(cfg, a)
	for _, w := range cfg.Warnings {
		a.logger.Warn("config warning", "detail", w)
	}
	return nil
}

func newLogger(cfg *config.Config, a *app) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(a.stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(a.stderr, opts))
}

// context derives the command context with the --timeout deadline applied.
func (a *app) context(parent context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, a.timeout)
}

// openDuckDB opens an in-memory DuckDB used to read and write dataset files.
func (a *app) openDuckDB() (*sql.DB, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return db, nil
}

// openRuns opens the audit store. It returns a nil repository and a no-op
// closer when AUDIT_DB_PATH is not set.
func (a *app) openRuns() (domain.RunRepository, func(), error) {
	if !a.cfg.AuditEnabled() {
		return nil, func() {}, nil
	}
	store, err := internaldb.OpenStore(a.cfg.AuditDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit store: %w", err)
	}
	closer := func() {
		if err := store.Close(); err != nil {
			a.logger.Warn("close audit store", "error", err)
		}
	}
	return repository.NewRunRepo(store.Write, store.Read), closer, nil
}

func (a *app) newService(runs domain.RunRepository) *standardize.Service {
	svc := standardize.NewService(a.newClient(a.cfg.LLM), a.cfg.LLM.Model, a.logger)
	if runs != nil {
		svc.SetRunRepository(runs)
	}
	return svc
}

func (a *app) newExecutor(db *sql.DB) *executor.Executor {
	return executor.New(db, executor.Options{
		MaxSteps: a.cfg.Exec.MaxSteps,
		Timeout:  a.cfg.Exec.Timeout,
	}, a.logger)
}

// fill derives missing columns and the dataset profile from the input file.
func (a *app) fill(ctx context.Context, db *sql.DB, state *domain.PipelineState) error {
	return profile.NewProfiler(db).Fill(ctx, state)
}

func newGroqClient(cfg config.LLMConfig) llm.Client {
	pc := llm.DefaultConfig()
	pc.APIKey = cfg.APIKey
	if cfg.Endpoint != "" {
		pc.Endpoint = cfg.Endpoint
	}
	if cfg.Model != "" {
		pc.Model = cfg.Model
	}
	if cfg.MaxTokens > 0 {
		pc.MaxTokens = cfg.MaxTokens
	}
	if cfg.Timeout > 0 {
		pc.Timeout = cfg.Timeout
	}
	return llm.NewGroqProvider(pc)
}
