// Package stats holds the column statistics shared by profiling and
// cleaning.
package stats

import (
	"math"
	"sort"

	"github.com/agenthands/steward/internal/core/model"
	"gonum.org/v1/gonum/stat"
)

// Numbers returns the numeric cells of values, skipping everything else.
func Numbers(values []model.Value) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v.Kind() == model.KindNumber && !math.IsNaN(v.Float()) {
			out = append(out, v.Float())
		}
	}
	return out
}

func Mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

// StdDev is the sample standard deviation; NaN below two observations.
func StdDev(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.StdDev(x, nil)
}

// Quantile interpolates linearly between the closest ranks, placing p
// at position p*(n-1) of the sorted data. stat.Quantile with LinInterp
// places p at n*p instead and gives different quartiles and medians.
func Quantile(p float64, x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)

	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}

func Median(x []float64) float64 { return Quantile(0.5, x) }

// Bounds are the Tukey fences q1-1.5*IQR and q3+1.5*IQR.
func Bounds(x []float64) (lower, upper float64) {
	q1, q3 := Quantile(0.25, x), Quantile(0.75, x)
	iqr := q3 - q1
	return q1 - 1.5*iqr, q3 + 1.5*iqr
}

// Count is a value with its number of occurrences.
type Count struct {
	Value model.Value
	N     int
}

// Frequencies counts non-null values, most frequent first and ties in
// order of first appearance.
func Frequencies(values []model.Value) []Count {
	index := map[string]int{}
	var out []Count
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		k := v.String()
		if i, ok := index[k]; ok {
			out[i].N++
			continue
		}
		index[k] = len(out)
		out = append(out, Count{Value: v, N: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].N > out[j].N })
	return out
}

// Mode is the most frequent non-null value, the smallest one on ties.
func Mode(values []model.Value) (model.Value, bool) {
	freq := Frequencies(values)
	if len(freq) == 0 {
		return model.Null(), false
	}
	best := freq[0]
	for _, c := range freq[1:] {
		if c.N < best.N {
			break
		}
		if less(c.Value, best.Value) {
			best = c
		}
	}
	return best.Value, true
}

// Distinct counts distinct non-null values.
func Distinct(values []model.Value) int {
	seen := map[string]struct{}{}
	for _, v := range values {
		if !v.IsNull() {
			seen[v.String()] = struct{}{}
		}
	}
	return len(seen)
}

func less(a, b model.Value) bool {
	if a.Kind() == model.KindNumber && b.Kind() == model.KindNumber {
		return a.Float() < b.Float()
	}
	if a.Kind() == model.KindDate && b.Kind() == model.KindDate {
		return a.Time().Before(b.Time())
	}
	return a.String() < b.String()
}
