// Package reconcile matches the records of an incoming dataset against an
// existing target dataset.
package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agenthands/steward/internal/core/model"
	"github.com/agenthands/steward/internal/core/similarity"
)

const DefaultThreshold = 100

type Options struct {
	// KeyFields defaults to the sorted columns common to both datasets.
	KeyFields []string
	Threshold float64
}

type Result struct {
	KeyFields []string `json:"key_fields"`
	// Duplicates are ordered by descending similarity, ties in row order.
	Duplicates []model.CrossMatch `json:"duplicates"`
	// Unique rows of A in their original order.
	Unique []int `json:"unique"`
	// EmptyKeys lists rows of A whose key fields are all blank. They are
	// never compared and are also listed in Unique.
	EmptyKeys []int `json:"empty_keys,omitempty"`
	// SkippedPairs counts comparisons where every key field was blank on
	// both sides.
	SkippedPairs int `json:"skipped_pairs"`
}

// KeyFields resolves the key fields for a and b.
func KeyFields(a, b *model.Dataset, requested []string) ([]string, error) {
	var common []string
	for _, c := range a.ColumnNames() {
		if b.HasColumn(c) {
			common = append(common, c)
		}
	}
	sort.Strings(common)

	if len(requested) == 0 {
		if len(common) == 0 {
			return nil, fmt.Errorf("%w: datasets share no columns", model.ErrSchemaMismatch)
		}
		return common, nil
	}

	var missing []string
	for _, k := range requested {
		if !a.HasColumn(k) || !b.HasColumn(k) {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, &model.SchemaError{Requested: requested, Missing: missing, Available: common}
	}
	return append([]string(nil), requested...), nil
}

// Reconcile finds, for every row of a, its most similar row of b over the
// key fields, comparing each field directly and averaging. Rows whose
// best score reaches the threshold are duplicates, the rest are unique.
// The comparison is exhaustive.
func Reconcile(a, b *model.Dataset, opts Options) (*Result, error) {
	keys, err := KeyFields(a, b, opts.KeyFields)
	if err != nil {
		return nil, err
	}
	ai, _ := a.ColumnIndexes(keys)
	bi, _ := b.ColumnIndexes(keys)

	bvals := make([][]string, b.Len())
	for r := range bvals {
		bvals[r] = fieldStrings(b, r, bi)
	}

	res := &Result{KeyFields: keys, Duplicates: []model.CrossMatch{}, Unique: []int{}}
	for r := 0; r < a.Len(); r++ {
		avals := fieldStrings(a, r, ai)
		if allBlank(avals) {
			res.EmptyKeys = append(res.EmptyKeys, r)
			res.Unique = append(res.Unique, r)
			continue
		}

		best, highest := -1, 0.0
		for br, bv := range bvals {
			score, ok := similarity.Mean(avals, bv, model.ModeDirect)
			if !ok {
				res.SkippedPairs++
				continue
			}
			if best < 0 || score > highest {
				best, highest = br, score
			}
		}

		if best >= 0 && highest >= opts.Threshold {
			res.Duplicates = append(res.Duplicates, model.CrossMatch{Row: r, Match: best, Similarity: highest})
		} else {
			res.Unique = append(res.Unique, r)
		}
	}

	sort.SliceStable(res.Duplicates, func(i, j int) bool {
		return res.Duplicates[i].Similarity > res.Duplicates[j].Similarity
	})
	return res, nil
}

func fieldStrings(ds *model.Dataset, row int, idx []int) []string {
	out := make([]string, len(idx))
	for i, c := range idx {
		out[i] = ds.At(row, c).String()
	}
	return out
}

func allBlank(vals []string) bool {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
