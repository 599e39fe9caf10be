package resolve

import (
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Canonical selection rules for a group.
const (
	CanonicalFirst   = "first"
	CanonicalLongest = "longest"
)

// minParallelScan is the smallest remaining tail worth splitting across
// workers.
const minParallelScan = 512

// ClusterOptions configures a Clusterer.
type ClusterOptions struct {
	// Canonical is CanonicalFirst (default) or CanonicalLongest.
	Canonical string
	// Workers > 1 splits each seed's comparison scan across goroutines.
	// Results are identical to a sequential run.
	Workers int
}

// Group is one cluster of names judged to denote the same employer.
type Group struct {
	Canonical string   `json:"canonical"`
	Key       string   `json:"key"`
	Members   []string `json:"members"`
}

// Clustering is the result of one clustering run.
type Clustering struct {
	Groups []Group `json:"groups"`
	// Unusable names normalize to "" and take part in no group.
	Unusable []string `json:"unusable,omitempty"`
}

// Assignment maps every clustered name to its group's canonical name.
func (c Clustering) Assignment() map[string]string {
	m := make(map[string]string)
	for _, g := range c.Groups {
		for _, name := range g.Members {
			m[name] = g.Canonical
		}
	}
	return m
}

// Clusterer groups names by greedy single-link similarity.
type Clusterer struct {
	scorer *Scorer
	opts   ClusterOptions
}

// NewClusterer creates a clusterer over s.
func NewClusterer(s *Scorer, opts ClusterOptions) *Clusterer {
	if opts.Canonical == "" {
		opts.Canonical = CanonicalFirst
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Clusterer{scorer: s, opts: opts}
}

// claims records which input indices already belong to a group. It is
// owned by one Cluster call and passed explicitly to its helpers.
type claims []bool

// Cluster partitions names in one greedy pass over input order. Each
// unclaimed name seeds a group and pulls in every later unclaimed name
// scoring at least threshold against the seed. Grouping depends on input
// order; callers that need reproducible output must fix the order first.
// Duplicate names are folded into their first occurrence.
func (c *Clusterer) Cluster(names []string, threshold float64) Clustering {
	names = distinct(names)

	prep := make([]prepared, len(names))
	for i, name := range names {
		prep[i] = c.scorer.prepare(c.scorer.norm.Normalize(name))
	}

	var out Clustering
	claimed := make(claims, len(names))
	for i := range names {
		if prep[i].name == "" {
			claimed[i] = true
			out.Unusable = append(out.Unusable, names[i])
		}
	}

	for i := range names {
		if claimed[i] {
			continue
		}
		claimed[i] = true
		members := []int{i}
		for _, j := range c.scan(prep, claimed, i, threshold) {
			claimed[j] = true
			members = append(members, j)
		}
		out.Groups = append(out.Groups, c.group(names, prep, members))
	}

	zap.L().Debug("resolve: clustered names",
		zap.Int("names", len(names)),
		zap.Int("groups", len(out.Groups)),
		zap.Int("unusable", len(out.Unusable)),
		zap.Float64("threshold", threshold),
	)
	return out
}

// scan returns, in index order, every unclaimed index after seed whose
// score against seed reaches threshold. claimed is only read.
func (c *Clusterer) scan(prep []prepared, claimed claims, seed int, threshold float64) []int {
	lo, hi := seed+1, len(prep)
	if c.opts.Workers == 1 || hi-lo < minParallelScan {
		return c.scanRange(prep, claimed, seed, lo, hi, threshold)
	}

	chunk := (hi - lo + c.opts.Workers - 1) / c.opts.Workers
	parts := make([][]int, c.opts.Workers)
	var g errgroup.Group
	g.SetLimit(c.opts.Workers)
	for k := range c.opts.Workers {
		from := lo + k*chunk
		to := min(from+chunk, hi)
		if from >= to {
			break
		}
		g.Go(func() error {
			parts[k] = c.scanRange(prep, claimed, seed, from, to, threshold)
			return nil
		})
	}
	_ = g.Wait()
	return slices.Concat(parts...)
}

func (c *Clusterer) scanRange(prep []prepared, claimed claims, seed, from, to int, threshold float64) []int {
	var hits []int
	for j := from; j < to; j++ {
		if claimed[j] {
			continue
		}
		if c.scorer.score(prep[seed], prep[j]) >= threshold {
			hits = append(hits, j)
		}
	}
	return hits
}

func (c *Clusterer) group(names []string, prep []prepared, members []int) Group {
	g := Group{
		Canonical: names[members[0]],
		Key:       prep[members[0]].name,
		Members:   make([]string, len(members)),
	}
	for k, idx := range members {
		g.Members[k] = names[idx]
		if c.opts.Canonical == CanonicalLongest && len(names[idx]) > len(g.Canonical) {
			g.Canonical = names[idx]
		}
	}
	return g
}

func distinct(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
