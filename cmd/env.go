package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/employer-resolve/internal/aggregate"
	"github.com/sells-group/employer-resolve/internal/config"
	"github.com/sells-group/employer-resolve/internal/disclosure"
	"github.com/sells-group/employer-resolve/internal/fetcher"
	"github.com/sells-group/employer-resolve/internal/resilience"
	"github.com/sells-group/employer-resolve/internal/resolve"
	"github.com/sells-group/employer-resolve/internal/store"
)

// initScorer builds the scorer from the configured rules file, or the
// built-in rules when none is set.
func initScorer() (*resolve.Scorer, error) {
	if cfg.Resolve.RulesFile == "" {
		return resolve.DefaultScorer(), nil
	}
	rf, err := resolve.LoadRules(cfg.Resolve.RulesFile)
	if err != nil {
		return nil, err
	}
	_, scorer, err := rf.Build()
	if err != nil {
		return nil, eris.Wrapf(err, "build rules from %s", cfg.Resolve.RulesFile)
	}
	zap.L().Info("loaded normalization rules", zap.String("path", cfg.Resolve.RulesFile))
	return scorer, nil
}

func initFetcher() *fetcher.HTTPFetcher {
	retry := resilience.DefaultRetryConfig()
	if cfg.Fetch.MaxAttempts > 0 {
		retry = retry.WithAttempts(cfg.Fetch.MaxAttempts)
	}
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:   cfg.Fetch.UserAgent,
		Timeout:     time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		Retry:       retry,
		RatePerHost: rate.Limit(cfg.Fetch.RatePerHost),
	})
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "employer-resolve.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore opens and migrates the configured store.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// inputFlags are the source-selection flags shared by commands that read
// extracts. Unset flags fall back to the input section of the config.
type inputFlags struct {
	states   []string
	years    []int
	pattern  string
	encoding string
	sheet    string
}

func (f inputFlags) readOptions(c *config.Config) disclosure.Options {
	opts := disclosure.Options{
		Encoding: c.Input.Encoding,
		States:   c.Input.States,
		Years:    c.Input.Years,
		Sheet:    c.Input.Sheet,
	}
	if f.encoding != "" {
		opts.Encoding = f.encoding
	}
	if len(f.states) > 0 {
		opts.States = f.states
	}
	if len(f.years) > 0 {
		opts.Years = f.years
	}
	if f.sheet != "" {
		opts.Sheet = f.sheet
	}
	return opts
}

func (f inputFlags) sourceOptions(c *config.Config) disclosure.SourceOptions {
	opts := disclosure.SourceOptions{
		FilePattern: c.Input.FilePattern,
		DownloadDir: c.Fetch.Dir,
		Workers:     c.Fetch.Workers,
	}
	if f.pattern != "" {
		opts.FilePattern = f.pattern
	}
	return opts
}

// resolveFlags override the resolve section of the config.
type resolveFlags struct {
	strategy      string
	threshold     float64
	canonical     string
	preNormalize  bool
	skipMalformed bool
}

func (f resolveFlags) runOptions(c *config.Config) aggregate.Options {
	opts := aggregate.Options{
		Strategy:     c.Resolve.Strategy,
		Threshold:    c.Resolve.Threshold,
		Canonical:    c.Resolve.Canonical,
		PreNormalize: c.Resolve.PreNormalize || f.preNormalize,
		Workers:      c.Resolve.Workers,
	}
	if f.strategy != "" {
		opts.Strategy = f.strategy
	}
	if f.threshold > 0 {
		opts.Threshold = config.NormalizeThreshold(f.threshold)
	}
	if f.canonical != "" {
		opts.Canonical = f.canonical
	}
	if c.Input.SkipMalformed || f.skipMalformed {
		opts.OnParseError = aggregate.SkipMalformed
	}
	return opts
}

// outputWriter returns stdout, or a created file when path is set.
func outputWriter(stdout io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "create %s", path)
	}
	return f, f.Close, nil
}
