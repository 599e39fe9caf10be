package aggregate

import (
	"errors"
	"iter"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/employer-resolve/internal/disclosure"
	"github.com/sells-group/employer-resolve/internal/resolve"
)

// Clustering strategies.
const (
	StrategyBatch  = "batch"
	StrategyStream = "stream"
)

// DefaultThreshold is used when Options.Threshold is zero.
const DefaultThreshold = 0.85

// Options configures a Run.
type Options struct {
	// Strategy is StrategyBatch (default) or StrategyStream. The stream
	// strategy expects records sorted by employer name.
	Strategy string
	// Threshold is the batch similarity cutoff in [0, 1].
	Threshold float64
	// Canonical is resolve.CanonicalFirst or resolve.CanonicalLongest.
	Canonical string
	// PreNormalize clusters normalized names instead of raw spellings.
	PreNormalize bool
	Workers      int
	// OnParseError decides what a malformed record does to the run. Nil
	// aborts with the *disclosure.ParseError. A handler returning nil skips
	// the record; returning an error aborts with that error.
	OnParseError func(*disclosure.ParseError) error
}

// SkipMalformed is an OnParseError policy that logs and skips the record.
func SkipMalformed(pe *disclosure.ParseError) error {
	zap.L().Warn("aggregate: skipping malformed record",
		zap.String("source", pe.Source),
		zap.Int("line", pe.Line),
		zap.String("field", pe.Field),
		zap.String("value", pe.Value),
	)
	return nil
}

// Result is the outcome of one Run.
type Result struct {
	Records []AggregateRecord `json:"records"`
	// Groups is set by the batch strategy.
	Groups []resolve.Group `json:"groups,omitempty"`
	// Input counts records that were folded.
	Input int `json:"input"`
	// Skipped counts malformed records dropped by OnParseError.
	Skipped int `json:"skipped"`
	// Unclassified counts records whose name normalized to nothing.
	Unclassified int `json:"unclassified"`
}

// Run reads records, clusters their employer names with the chosen
// strategy, and folds the counters per canonical name.
func Run(records iter.Seq2[disclosure.Record, error], scorer *resolve.Scorer, opts Options) (*Result, error) {
	if scorer == nil {
		return nil, eris.New("aggregate: scorer is required")
	}
	if opts.Threshold == 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Threshold < 0 || opts.Threshold > 1 {
		return nil, eris.Errorf("aggregate: threshold %v outside [0, 1]", opts.Threshold)
	}
	if opts.Strategy == "" {
		opts.Strategy = StrategyBatch
	}

	res := &Result{}
	var runErr error
	accepted := func(yield func(disclosure.Record) bool) {
		for rec, err := range records {
			if err != nil {
				var pe *disclosure.ParseError
				if errors.As(err, &pe) && opts.OnParseError != nil {
					err = opts.OnParseError(pe)
					if err == nil {
						res.Skipped++
						continue
					}
				}
				runErr = err
				return
			}
			res.Input++
			if !yield(rec) {
				return
			}
		}
	}

	var folder *Folder
	switch opts.Strategy {
	case StrategyBatch:
		folder = runBatch(accepted, scorer, opts, res)
	case StrategyStream:
		folder = runStream(accepted, scorer)
	default:
		return nil, eris.Errorf("aggregate: unknown strategy %q", opts.Strategy)
	}
	if runErr != nil {
		return nil, runErr
	}

	res.Unclassified = folder.UnclassifiedRecords()
	res.Records = folder.Records()

	zap.L().Info("aggregate: run complete",
		zap.String("strategy", opts.Strategy),
		zap.Int("records", res.Input),
		zap.Int("skipped", res.Skipped),
		zap.Int("unclassified", res.Unclassified),
		zap.Int("employers", len(res.Records)),
	)
	return res, nil
}

func runBatch(records iter.Seq[disclosure.Record], scorer *resolve.Scorer, opts Options, res *Result) *Folder {
	norm := scorer.Normalizer()
	nameOf := func(rec disclosure.Record) string {
		if opts.PreNormalize {
			return norm.Normalize(rec.EmployerName)
		}
		return rec.EmployerName
	}

	var all []disclosure.Record
	var names []string
	for rec := range records {
		all = append(all, rec)
		if n := nameOf(rec); n != "" {
			names = append(names, n)
		}
	}

	clusterer := resolve.NewClusterer(scorer, resolve.ClusterOptions{
		Canonical: opts.Canonical,
		Workers:   opts.Workers,
	})
	clustering := clusterer.Cluster(names, opts.Threshold)
	res.Groups = clustering.Groups
	assign := clustering.Assignment()

	f := NewFolder()
	for _, rec := range all {
		canonical, ok := assign[nameOf(rec)]
		if !ok {
			f.AddUnclassified(rec)
			continue
		}
		f.Add(canonical, rec)
	}
	return f
}

func runStream(records iter.Seq[disclosure.Record], scorer *resolve.Scorer) *Folder {
	f := NewFolder()
	for u := range resolve.NewMerger(scorer.Normalizer()).Merge(records) {
		f.AddUnit(u)
	}
	return f
}
