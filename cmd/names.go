package main

import (
	"context"
	"errors"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/employer-resolve/internal/aggregate"
	"github.com/sells-group/employer-resolve/internal/config"
	"github.com/sells-group/employer-resolve/internal/disclosure"
	"github.com/sells-group/employer-resolve/internal/namestats"
	"github.com/sells-group/employer-resolve/internal/report"
	"github.com/sells-group/employer-resolve/internal/resolve"
)

// namesFlags select where employer names come from: a plain list with one
// name per line, or the employer column of disclosure extracts.
type namesFlags struct {
	input   inputFlags
	extract bool
	unique  bool
}

func (f *namesFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.extract, "extract", false, "read employer names from disclosure extracts instead of a names list")
	cmd.Flags().BoolVar(&f.unique, "unique", true, "drop repeated raw spellings, keeping first-seen order")
	cmd.Flags().StringSliceVar(&f.input.states, "state", nil, "keep only these petitioner states (with --extract)")
	cmd.Flags().IntSliceVar(&f.input.years, "year", nil, "keep only these fiscal years (with --extract)")
	cmd.Flags().StringVar(&f.input.pattern, "pattern", "", "regex on file names found in directories (with --extract)")
	cmd.Flags().StringVar(&f.input.encoding, "encoding", "", "input encoding (auto, utf-8, utf-16le, windows-1252, ...)")
}

// loadNames reads names from every source in argument order.
func loadNames(ctx context.Context, c *config.Config, sources []string, f namesFlags) ([]string, error) {
	var names []string
	if f.extract {
		paths, err := disclosure.ResolveSources(ctx, initFetcher(), sources, f.input.sourceOptions(c))
		if err != nil {
			return nil, err
		}
		for rec, err := range disclosure.ReadAll(ctx, paths, f.input.readOptions(c)) {
			if err != nil {
				var pe *disclosure.ParseError
				if errors.As(err, &pe) {
					// Counters do not matter for name commands.
					continue
				}
				return nil, err
			}
			names = append(names, rec.EmployerName)
		}
	} else {
		enc := c.Input.Encoding
		if f.input.encoding != "" {
			enc = f.input.encoding
		}
		for _, path := range sources {
			got, err := disclosure.ReadNamesFile(path, enc)
			if err != nil {
				return nil, err
			}
			names = append(names, got...)
		}
	}
	if f.unique {
		names = uniqueInOrder(names)
	}
	zap.L().Info("loaded employer names", zap.Int("names", len(names)), zap.Int("sources", len(sources)))
	return names, nil
}

func uniqueInOrder(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0:0]
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// -- normalize --

var normalizeFlags namesFlags

var normalizeCmd = &cobra.Command{
	Use:   "normalize <names-file>...",
	Short: "Print the unique normalized form of each employer name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scorer, err := initScorer()
		if err != nil {
			return err
		}
		names, err := loadNames(cmd.Context(), cfg, args, normalizeFlags)
		if err != nil {
			return err
		}
		return report.WriteNames(cmd.OutOrStdout(), normalizeNames(scorer.Normalizer(), names))
	},
}

// normalizeNames returns the sorted distinct non-empty normalized names.
func normalizeNames(n *resolve.Normalizer, names []string) []string {
	set := make(map[string]bool)
	for _, raw := range names {
		if norm := n.Normalize(raw); norm != "" {
			set[norm] = true
		}
	}
	out := make([]string, 0, len(set))
	for norm := range set {
		out = append(out, norm)
	}
	slices.Sort(out)
	return out
}

// -- similar --

var (
	similarFlags     namesFlags
	similarThreshold float64
)

var similarCmd = &cobra.Command{
	Use:   "similar <names-file>...",
	Short: "List name pairs whose similarity meets the threshold",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scorer, err := initScorer()
		if err != nil {
			return err
		}
		names, err := loadNames(cmd.Context(), cfg, args, similarFlags)
		if err != nil {
			return err
		}
		threshold := thresholdOr(similarThreshold, cfg.Resolve.Threshold)
		return report.WritePairs(cmd.OutOrStdout(), scorer.SimilarPairs(names, threshold))
	},
}

// -- variants --

var (
	variantsFlags     namesFlags
	variantsThreshold float64
	variantsTop       int
	variantsCanonical string
)

var variantsCmd = &cobra.Command{
	Use:   "variants <names-file>...",
	Short: "Rank canonical employers by their number of distinct spellings",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scorer, err := initScorer()
		if err != nil {
			return err
		}
		names, err := loadNames(cmd.Context(), cfg, args, variantsFlags)
		if err != nil {
			return err
		}
		return runVariants(cmd.OutOrStdout(), scorer, names)
	},
}

func runVariants(w io.Writer, scorer *resolve.Scorer, names []string) error {
	canonical := variantsCanonical
	if canonical == "" {
		canonical = cfg.Resolve.Canonical
	}
	c := resolve.NewClusterer(scorer, resolve.ClusterOptions{
		Canonical: canonical,
		Workers:   cfg.Resolve.Workers,
	})
	res := c.Cluster(names, thresholdOr(variantsThreshold, cfg.Resolve.Threshold))
	if len(res.Unusable) > 0 {
		zap.L().Warn("names normalized to nothing", zap.Int("count", len(res.Unusable)))
	}
	return report.WriteVariants(w, aggregate.Variants(res.Groups, variantsTop))
}

// -- analyze --

var (
	analyzeFlags namesFlags
	analyzeLimit int
	analyzeJSON  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <names-file>...",
	Short: "Report word, prefix, suffix, acronym and phrase statistics",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scorer, err := initScorer()
		if err != nil {
			return err
		}
		names, err := loadNames(cmd.Context(), cfg, args, analyzeFlags)
		if err != nil {
			return err
		}
		st := namestats.Analyze(names, scorer.Normalizer(), namestats.Options{
			MinWordFreq:      cfg.Stats.MinWordFreq,
			MinAcronymLength: cfg.Stats.MinAcronymLength,
		})
		if analyzeJSON {
			return report.WriteJSON(cmd.OutOrStdout(), st)
		}
		return report.WriteStats(cmd.OutOrStdout(), st, analyzeLimit)
	},
}

// thresholdOr returns the flag value as a fraction, or def when unset.
func thresholdOr(flag, def float64) float64 {
	if flag > 0 {
		return config.NormalizeThreshold(flag)
	}
	return def
}

func init() {
	normalizeFlags.register(normalizeCmd)

	similarFlags.register(similarCmd)
	similarCmd.Flags().Float64Var(&similarThreshold, "threshold", 0, "similarity cutoff, fraction or percent (default from config)")

	variantsFlags.register(variantsCmd)
	variantsCmd.Flags().Float64Var(&variantsThreshold, "threshold", 0, "similarity cutoff, fraction or percent (default from config)")
	variantsCmd.Flags().IntVar(&variantsTop, "top", 20, "number of companies to list (0 for all)")
	variantsCmd.Flags().StringVar(&variantsCanonical, "canonical", "", "group naming: first or longest (default from config)")

	analyzeFlags.register(analyzeCmd)
	analyzeCmd.Flags().IntVar(&analyzeLimit, "limit", 50, "rows per section (0 for all)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "write the full statistics as JSON")

	rootCmd.AddCommand(normalizeCmd, similarCmd, variantsCmd, analyzeCmd)
}
