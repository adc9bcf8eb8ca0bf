package dedupe

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/agenthands/steward/internal/core/model"
	"github.com/agenthands/steward/internal/core/similarity"
)

type FuzzyOptions struct {
	Mode      model.Mode
	Threshold int
	// SampleCap bounds the rows considered at all; 0 disables sampling.
	SampleCap int
	// NeighborCap bounds the candidates compared per anchor; 0 compares
	// every remaining row.
	NeighborCap int
	Seed        int64
}

type FuzzyGroup struct {
	ID        string                   `json:"id"`
	Count     int                      `json:"count"`
	Rows      []int                    `json:"rows"`
	Cohesion  float64                  `json:"cohesion"`
	Threshold int                      `json:"similarity_threshold"`
	Keys      []string                 `json:"keys"`
	Records   []map[string]model.Value `json:"records"`
}

// Group is the bare duplicate group behind g.
func (g FuzzyGroup) Group() model.DuplicateGroup {
	return model.DuplicateGroup{Rows: g.Rows, Cohesion: g.Cohesion}
}

type FuzzySummary struct {
	TotalRows    int `json:"total_rows"`
	SampledRows  int `json:"sampled_rows"`
	Groups       int `json:"fuzzy_duplicate_groups"`
	Records      int `json:"fuzzy_duplicate_records"`
	SkippedEmpty int `json:"skipped_empty"`
}

type FuzzyResult struct {
	Groups  []FuzzyGroup `json:"fuzzy_duplicates"`
	Summary FuzzySummary `json:"summary"`
	Note    string       `json:"note,omitempty"`
}

// Clustering is the outcome of Cluster over a list of comparison keys.
type Clustering struct {
	Groups       []model.DuplicateGroup
	Sampled      int
	SkippedEmpty int
}

// Cluster runs single-pass anchor clustering over keys. Each unassigned
// row in turn becomes an anchor and recruits later unassigned rows that
// score at least the threshold against it. Membership is not transitive:
// two recruits of the same anchor need not be similar to each other, and
// a row rejected by one anchor stays free for later anchors. Blank keys
// never anchor or join a group.
func Cluster(keys []string, opts FuzzyOptions) Clustering {
	rng := rand.New(rand.NewSource(opts.Seed))

	// 1. Pick the rows to consider, ascending.
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	if opts.SampleCap > 0 && len(keys) > opts.SampleCap {
		order = rng.Perm(len(keys))[:opts.SampleCap]
		sort.Ints(order)
	}

	out := Clustering{Sampled: len(order)}
	assigned := make([]bool, len(keys))
	for _, i := range order {
		if similarity.Blank(keys[i], opts.Mode) {
			assigned[i] = true
			out.SkippedEmpty++
		}
	}

	// 2. Grow one group per unassigned anchor.
	for pos, anchor := range order {
		if assigned[anchor] {
			continue
		}
		assigned[anchor] = true

		var pool []int
		for _, j := range order[pos+1:] {
			if !assigned[j] {
				pool = append(pool, j)
			}
		}
		if opts.NeighborCap > 0 && len(pool) > opts.NeighborCap {
			pick := rng.Perm(len(pool))[:opts.NeighborCap]
			sort.Ints(pick)
			subset := make([]int, len(pick))
			for k, p := range pick {
				subset[k] = pool[p]
			}
			pool = subset
		}

		members := []int{anchor}
		for _, j := range pool {
			if similarity.Score(keys[anchor], keys[j], opts.Mode) >= opts.Threshold {
				members = append(members, j)
				assigned[j] = true
			}
		}

		// 3. Singletons are dropped.
		if len(members) >= 2 {
			out.Groups = append(out.Groups, model.DuplicateGroup{
				Rows:     members,
				Cohesion: Cohesion(keys, members, opts.Mode),
			})
		}
	}
	return out
}

// Keys builds the comparison key of every row: the space-joined non-null
// values of columns.
func Keys(ds *model.Dataset, columns []string) ([]string, error) {
	idx, err := ds.ColumnIndexes(columns)
	if err != nil {
		return nil, err
	}
	keys := make([]string, ds.Len())
	for r := range keys {
		keys[r] = ds.JoinKey(r, idx)
	}
	return keys, nil
}

// FindFuzzy groups rows of ds whose comparison keys over columns are at
// least opts.Threshold similar.
func FindFuzzy(ds *model.Dataset, columns []string, opts FuzzyOptions) (*FuzzyResult, error) {
	keys, err := Keys(ds, columns)
	if err != nil {
		return nil, err
	}
	c := Cluster(keys, opts)

	res := &FuzzyResult{
		Groups: make([]FuzzyGroup, 0, len(c.Groups)),
		Summary: FuzzySummary{
			TotalRows:    ds.Len(),
			SampledRows:  c.Sampled,
			Groups:       len(c.Groups),
			SkippedEmpty: c.SkippedEmpty,
		},
	}
	if c.Sampled < ds.Len() {
		res.Note = fmt.Sprintf("Fuzzy matching performed on a sample of %d rows due to dataset size.", c.Sampled)
	}
	for i, g := range c.Groups {
		gk := make([]string, len(g.Rows))
		for k, r := range g.Rows {
			gk[k] = keys[r]
		}
		res.Groups = append(res.Groups, FuzzyGroup{
			ID:        fmt.Sprintf("fuzzy_group_%d", i+1),
			Count:     len(g.Rows),
			Rows:      g.Rows,
			Cohesion:  g.Cohesion,
			Threshold: opts.Threshold,
			Keys:      gk,
			Records:   ds.Records(g.Rows, columns...),
		})
		res.Summary.Records += len(g.Rows)
	}
	return res, nil
}
