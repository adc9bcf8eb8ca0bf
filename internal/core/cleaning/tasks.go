package cleaning

import (
	"math"
	"sort"
	"time"

	"github.com/agenthands/steward/internal/core/dedupe"
	"github.com/agenthands/steward/internal/core/model"
	"github.com/agenthands/steward/internal/core/stats"
	"golang.org/x/text/cases"
)

// DeriveTasks inspects ds and lists the tasks worth running on it:
// exact duplicates over every column, missing values per column,
// capitalization per text column and fuzzy duplicates over the text
// columns.
func DeriveTasks(ds *model.Dataset) []model.CleaningTask {
	var tasks []model.CleaningTask

	if groups, err := dedupe.ExactGroups(ds, ds.ColumnNames()); err == nil && len(groups) > 0 {
		tasks = append(tasks, model.RemoveExactDuplicates{Columns: ds.ColumnNames()})
	}
	for _, col := range ds.ColumnNames() {
		if nulls(ds.ColumnValues(col)) > 0 {
			tasks = append(tasks, model.HandleMissingValues{Column: col, Strategy: model.MissingAuto})
		}
	}
	for _, col := range ds.TextColumns() {
		if InconsistentCase(ds.ColumnValues(col)) > 0 {
			tasks = append(tasks, model.StandardizeCapitalization{Column: col})
		}
	}
	if text := ds.TextColumns(); len(text) > 0 {
		tasks = append(tasks, model.ReviewFuzzyDuplicates{Columns: text, Threshold: DefaultFuzzyThreshold})
	}
	return tasks
}

// FillMissing fills the nulls of column according to strategy. Auto
// picks the median for numeric and date columns and the mode otherwise.
// Mean, median and zero fill nothing on columns they do not apply to.
func FillMissing(ds *model.Dataset, column string, strategy model.MissingStrategy) (*model.Dataset, MissingDetail, error) {
	col, ok := ds.Column(column)
	if !ok {
		_, err := ds.ColumnIndexes([]string{column})
		return nil, MissingDetail{}, err
	}
	values := ds.ColumnValues(column)
	missing := nulls(values)
	if missing == 0 {
		return ds, MissingDetail{StrategyUsed: "none"}, nil
	}

	if strategy == "" || strategy == model.MissingAuto {
		if col.Kind == model.KindNumber || col.Kind == model.KindDate {
			strategy = model.MissingMedian
		} else {
			strategy = model.MissingMode
		}
	}
	detail := MissingDetail{StrategyUsed: string(strategy)}

	var fill model.Value
	switch strategy {
	case model.MissingRemove:
		drop := map[int]bool{}
		for i, v := range values {
			if v.IsNull() {
				drop[i] = true
			}
		}
		detail.ValuesFilled = missing
		return ds.Without(drop), detail, nil
	case model.MissingMean:
		if col.Kind == model.KindNumber {
			fill = model.Number(stats.Mean(stats.Numbers(values)))
		}
	case model.MissingMedian:
		fill = median(col.Kind, values)
	case model.MissingZero:
		if col.Kind == model.KindNumber {
			fill = model.Number(0)
		}
	case model.MissingMode:
		fill, _ = stats.Mode(values)
	}
	if fill.IsNull() {
		return ds, detail, nil
	}

	filled := make([]model.Value, len(values))
	for i, v := range values {
		if v.IsNull() {
			v = fill
		}
		filled[i] = v
	}
	out, err := ds.WithColumn(column, filled)
	if err != nil {
		return nil, MissingDetail{}, err
	}
	detail.ValuesFilled = missing
	return out, detail, nil
}

func median(kind model.Kind, values []model.Value) model.Value {
	switch kind {
	case model.KindNumber:
		return model.Number(stats.Median(stats.Numbers(values)))
	case model.KindDate:
		var ns []float64
		for _, v := range values {
			if v.Kind() == model.KindDate {
				ns = append(ns, float64(v.Time().UnixNano()))
			}
		}
		if len(ns) == 0 {
			return model.Null()
		}
		m := stats.Median(ns)
		return model.Date(time.Unix(0, int64(math.Round(m))).UTC())
	}
	return model.Null()
}

// StandardizeCapitalization rewrites every spelling of a case-folded
// value to its most common spelling, the first seen on ties. It returns
// how many distinct values disappeared.
func StandardizeCapitalization(ds *model.Dataset, column string) (*model.Dataset, int, error) {
	col, ok := ds.Column(column)
	if !ok {
		_, err := ds.ColumnIndexes([]string{column})
		return nil, 0, err
	}
	if !col.Textual() {
		return ds, 0, nil
	}

	values := ds.ColumnValues(column)
	fold := cases.Fold()
	canonical := map[string]model.Value{}
	for _, c := range stats.Frequencies(values) {
		k := fold.String(c.Value.String())
		if _, seen := canonical[k]; !seen {
			canonical[k] = c.Value
		}
	}

	before := stats.Distinct(values)
	out := make([]model.Value, len(values))
	for i, v := range values {
		if !v.IsNull() {
			v = canonical[fold.String(v.String())]
		}
		out[i] = v
	}
	if stats.Distinct(out) == before {
		return ds, 0, nil
	}
	next, err := ds.WithColumn(column, out)
	if err != nil {
		return nil, 0, err
	}
	return next, before - stats.Distinct(out), nil
}

// InconsistentCase counts the distinct values that only differ from
// another value by case.
func InconsistentCase(values []model.Value) int {
	fold := cases.Fold()
	folded := map[string]struct{}{}
	for _, v := range values {
		if !v.IsNull() {
			folded[fold.String(v.String())] = struct{}{}
		}
	}
	return stats.Distinct(values) - len(folded)
}

func nulls(values []model.Value) int {
	n := 0
	for _, v := range values {
		if v.IsNull() {
			n++
		}
	}
	return n
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
