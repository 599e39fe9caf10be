package main

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/employer-resolve/internal/aggregate"
	"github.com/sells-group/employer-resolve/internal/disclosure"
	"github.com/sells-group/employer-resolve/internal/report"
	"github.com/sells-group/employer-resolve/internal/resolve"
	"github.com/sells-group/employer-resolve/internal/store"
)

// topFlags holds the flags of the top and stream commands.
type topFlags struct {
	input   inputFlags
	resolve resolveFlags
	top     int
	format  string
	divider string
	summary bool
	output  string
	save    bool
}

func (f *topFlags) register(cmd *cobra.Command, withStrategy bool) {
	fl := cmd.Flags()
	fl.IntVar(&f.top, "top", 0, "number of employers to list (0 for all)")
	fl.StringSliceVar(&f.input.states, "state", nil, "keep only these petitioner states")
	fl.IntSliceVar(&f.input.years, "year", nil, "keep only these fiscal years")
	fl.StringVar(&f.input.pattern, "pattern", "", "regex on file names found in directories")
	fl.StringVar(&f.input.encoding, "encoding", "", "input encoding (auto, utf-8, utf-16le, windows-1252, ...)")
	fl.StringVar(&f.input.sheet, "sheet", "", "worksheet to read from .xlsx extracts")
	fl.StringVar(&f.format, "format", "table", "output format: table, multiline, json or xlsx")
	fl.StringVar(&f.divider, "divider", " ", "column divider for table output")
	fl.BoolVar(&f.summary, "summary", false, "append max/min statistics to table output")
	fl.StringVarP(&f.output, "output", "o", "", "write the report to this file instead of stdout")
	fl.BoolVar(&f.save, "save", false, "record the run and its employers in the store")
	fl.BoolVar(&f.resolve.skipMalformed, "skip-malformed", false, "skip rows with unparsable counters instead of failing")
	if withStrategy {
		fl.StringVar(&f.resolve.strategy, "strategy", "", "clustering strategy: batch or stream (default from config)")
		fl.Float64Var(&f.resolve.threshold, "threshold", 0, "similarity cutoff, fraction or percent (default from config)")
		fl.StringVar(&f.resolve.canonical, "canonical", "", "group naming: first or longest (default from config)")
		fl.BoolVar(&f.resolve.preNormalize, "pre-normalize", false, "cluster normalized names instead of raw spellings")
	}
}

var topOpts topFlags

var topCmd = &cobra.Command{
	Use:   "top <source>...",
	Short: "Rank canonical employers by total approvals",
	Long: "Reads disclosure extracts (files, directories, .zip/.xlsx archives or URLs), " +
		"clusters employer-name variants, and ranks the merged employers by approvals.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTop(cmd.Context(), cmd.OutOrStdout(), args, topOpts)
	},
}

var streamOpts topFlags

var streamCmd = &cobra.Command{
	Use:   "stream <source>...",
	Short: "Rank employers by merging adjacent records of a name-sorted extract",
	Long: "Single-pass alternative to top for extracts sorted by employer name. " +
		"Only adjacent records naming the same entity are merged.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := streamOpts
		f.resolve.strategy = aggregate.StrategyStream
		return runTop(cmd.Context(), cmd.OutOrStdout(), args, f)
	},
}

func runTop(ctx context.Context, stdout io.Writer, sources []string, f topFlags) error {
	format, err := report.ParseFormat(f.format)
	if err != nil {
		return err
	}
	if format == report.FormatXLSX && (f.output == "" || f.output == "-") {
		return eris.New("xlsx output requires --output")
	}

	runOpts := f.resolve.runOptions(cfg)
	if err := validateRun(runOpts); err != nil {
		return err
	}
	readOpts := f.input.readOptions(cfg)

	scorer, err := initScorer()
	if err != nil {
		return err
	}

	paths, err := disclosure.ResolveSources(ctx, initFetcher(), sources, f.input.sourceOptions(cfg))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return eris.New("no extract files found")
	}

	var (
		st  store.Store
		run *store.Run
	)
	if f.save {
		if st, err = openStore(ctx); err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		run, err = st.CreateRun(ctx, store.RunParams{
			Strategy:     runOpts.Strategy,
			Threshold:    runOpts.Threshold,
			Canonical:    runOpts.Canonical,
			PreNormalize: runOpts.PreNormalize,
			Sources:      sources,
			States:       readOpts.States,
			Years:        readOpts.Years,
		})
		if err != nil {
			return err
		}
	}

	res, err := aggregate.Run(disclosure.ReadAll(ctx, paths, readOpts), scorer, runOpts)
	if err != nil {
		if run != nil {
			if ferr := st.FailRun(ctx, run.ID, err.Error()); ferr != nil {
				zap.L().Error("record failed run", zap.String("run_id", run.ID), zap.Error(ferr))
			}
		}
		return err
	}

	zap.L().Debug("resolved employers",
		zap.Int("files", len(paths)),
		zap.Int("employers", len(res.Records)),
	)

	if run != nil {
		if err := st.CompleteRun(ctx, run.ID, res); err != nil {
			return err
		}
		zap.L().Info("saved run", zap.String("run_id", run.ID))
	}

	w, closeFn, err := outputWriter(stdout, f.output)
	if err != nil {
		return err
	}
	records := aggregate.Top(res.Records, f.top)
	werr := report.Write(w, records, report.Options{
		Format:  format,
		Top:     f.top,
		States:  readOpts.States,
		Years:   readOpts.Years,
		Divider: f.divider,
		Summary: f.summary,
	})
	if cerr := closeFn(); werr == nil && cerr != nil {
		werr = eris.Wrap(cerr, "close output")
	}
	return werr
}

func validateRun(opts aggregate.Options) error {
	switch opts.Strategy {
	case aggregate.StrategyBatch, aggregate.StrategyStream:
	default:
		return eris.Errorf("unknown strategy %q (want batch or stream)", opts.Strategy)
	}
	switch opts.Canonical {
	case resolve.CanonicalFirst, resolve.CanonicalLongest:
	default:
		return eris.Errorf("unknown canonical rule %q (want first or longest)", opts.Canonical)
	}
	if opts.Threshold < 0 || opts.Threshold > 1 {
		return eris.Errorf("threshold %v out of range", opts.Threshold)
	}
	return nil
}

func init() {
	topOpts.register(topCmd, true)
	streamOpts.register(streamCmd, false)
	rootCmd.AddCommand(topCmd, streamCmd)
}
