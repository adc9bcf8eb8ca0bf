// Package dedupe groups rows of a dataset that describe the same entity,
// either by exact equality of a column tuple or by string similarity of
// the concatenated column values.
package dedupe

import (
	"github.com/agenthands/steward/internal/core/model"
	"github.com/agenthands/steward/internal/core/similarity"
)

const (
	DefaultSummaryCutoff = 10000
	DefaultMaxShown      = 10
	DefaultSampleCap     = 5000
	DefaultNeighborCap   = 100
	DefaultSeed          = 42
)

// Cohesion is the mean pairwise similarity of the keys at rows. A single
// pair yields that pair's score.
func Cohesion(keys []string, rows []int, mode model.Mode) float64 {
	total, pairs := 0, 0
	for i := 0; i < len(rows); i++ {
		for j := i + 1; j < len(rows); j++ {
			total += similarity.Score(keys[rows[i]], keys[rows[j]], mode)
			pairs++
		}
	}
	if pairs == 0 {
		return 100
	}
	return float64(total) / float64(pairs)
}
