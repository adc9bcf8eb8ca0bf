package profile

import (
	"math"
	"unicode/utf8"

	"github.com/agenthands/steward/internal/core/cleaning"
	"github.com/agenthands/steward/internal/core/model"
	"github.com/agenthands/steward/internal/core/stats"
)

const (
	topValues     = 5
	rareShare     = 0.01
	rareExamples  = 5
	uniqueShare   = 0.9
	uniquePenalty = 10
	casePenalty   = 15
)

type Outliers struct {
	Count      int     `json:"count"`
	Percentage string  `json:"percentage"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

type TopValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type ColumnStats struct {
	Type             string `json:"type"`
	Count            int    `json:"count"`
	Nulls            int    `json:"nulls"`
	NullPercentage   string `json:"null_percentage"`
	UniqueValues     int    `json:"unique_values"`
	UniquePercentage string `json:"unique_percentage"`

	Min      *float64  `json:"min,omitempty"`
	Max      *float64  `json:"max,omitempty"`
	Mean     *float64  `json:"mean,omitempty"`
	Median   *float64  `json:"median,omitempty"`
	StdDev   *float64  `json:"std_dev,omitempty"`
	Outliers *Outliers `json:"outliers,omitempty"`

	MinLength                  *int     `json:"min_length,omitempty"`
	MaxLength                  *int     `json:"max_length,omitempty"`
	AvgLength                  *float64 `json:"avg_length,omitempty"`
	InconsistentCapitalization bool     `json:"inconsistent_capitalization,omitempty"`
	PotentialCaseDuplicates    int      `json:"potential_duplicates_due_to_case,omitempty"`

	TopValues []TopValue `json:"top_values,omitempty"`
}

func describe(ds *model.Dataset, column string) *ColumnStats {
	col, _ := ds.Column(column)
	values := ds.ColumnValues(column)
	n := len(values)
	nulls := 0
	for _, v := range values {
		if v.IsNull() {
			nulls++
		}
	}
	unique := stats.Distinct(values)

	st := &ColumnStats{
		Type:             col.Kind.String(),
		Count:            n - nulls,
		Nulls:            nulls,
		NullPercentage:   percent(nulls, n),
		UniqueValues:     unique,
		UniquePercentage: percent(unique, n),
	}

	switch col.Kind {
	case model.KindNumber:
		x := stats.Numbers(values)
		if len(x) == 0 {
			break
		}
		minV, maxV := x[0], x[0]
		for _, f := range x {
			minV = min(minV, f)
			maxV = max(maxV, f)
		}
		st.Min, st.Max = ptr(minV), ptr(maxV)
		st.Mean, st.Median = finite(stats.Mean(x)), finite(stats.Median(x))
		st.StdDev = finite(stats.StdDev(x))
		if o := iqrOutliers(x, n); o != nil {
			st.Outliers = o
		}
	case model.KindText:
		minL, maxL, total, seen := 0, 0, 0, 0
		for _, v := range values {
			if v.IsNull() {
				continue
			}
			l := utf8.RuneCountInString(v.String())
			if seen == 0 || l < minL {
				minL = l
			}
			if l > maxL {
				maxL = l
			}
			total += l
			seen++
		}
		if seen > 0 {
			st.MinLength, st.MaxLength = &minL, &maxL
			st.AvgLength = ptr(float64(total) / float64(seen))
		}
		if dup := cleaning.InconsistentCase(values); dup > 0 {
			st.InconsistentCapitalization = true
			st.PotentialCaseDuplicates = dup
		}
	}

	if unique < n {
		freq := stats.Frequencies(values)
		if len(freq) > topValues {
			freq = freq[:topValues]
		}
		for _, c := range freq {
			st.TopValues = append(st.TopValues, TopValue{Value: c.Value.String(), Count: c.N})
		}
	}
	return st
}

// iqrOutliers counts the values outside the Tukey fences; nil when none.
func iqrOutliers(x []float64, rows int) *Outliers {
	lower, upper := stats.Bounds(x)
	count := 0
	for _, f := range x {
		if f < lower || f > upper {
			count++
		}
	}
	if count == 0 {
		return nil
	}
	return &Outliers{Count: count, Percentage: percent(count, rows), LowerBound: lower, UpperBound: upper}
}

type OutlierReport struct {
	Method     string   `json:"method"`
	Count      int      `json:"count"`
	Percentage string   `json:"percentage"`
	LowerBound *float64 `json:"lower_bound,omitempty"`
	UpperBound *float64 `json:"upper_bound,omitempty"`
	Examples   []string `json:"examples,omitempty"`
}

// detectOutliers applies the IQR rule to numeric columns and flags text
// values that make up less than one percent of a column.
func detectOutliers(ds *model.Dataset, columns []string) map[string]OutlierReport {
	out := map[string]OutlierReport{}
	for _, name := range columns {
		col, _ := ds.Column(name)
		values := ds.ColumnValues(name)
		switch col.Kind {
		case model.KindNumber:
			if o := iqrOutliers(stats.Numbers(values), len(values)); o != nil {
				out[name] = OutlierReport{
					Method:     "IQR",
					Count:      o.Count,
					Percentage: o.Percentage,
					LowerBound: ptr(o.LowerBound),
					UpperBound: ptr(o.UpperBound),
				}
			}
		case model.KindText:
			freq := stats.Frequencies(values)
			present := 0
			for _, c := range freq {
				present += c.N
			}
			var rare []string
			rareRows := 0
			for _, c := range freq {
				if float64(c.N)/float64(present) < rareShare {
					rare = append(rare, c.Value.String())
					rareRows += c.N
				}
			}
			if len(rare) == 0 {
				continue
			}
			report := OutlierReport{
				Method:     "Rare categories",
				Count:      len(rare),
				Percentage: percent(rareRows, present),
				Examples:   rare,
			}
			if len(report.Examples) > rareExamples {
				report.Examples = report.Examples[:rareExamples]
			}
			out[name] = report
		}
	}
	return out
}

type Issue struct {
	Column              string `json:"column"`
	MissingValues       int    `json:"missing_values,omitempty"`
	UniqueValues        int    `json:"unique_values,omitempty"`
	Percentage          string `json:"percentage,omitempty"`
	Issue               string `json:"issue,omitempty"`
	PotentialDuplicates int    `json:"potential_duplicates,omitempty"`
}

type Dimension struct {
	Score  float64 `json:"score"`
	Issues []Issue `json:"issues"`
}

type QualitySummary struct {
	Completeness Dimension `json:"completeness"`
	Uniqueness   Dimension `json:"uniqueness"`
	Consistency  Dimension `json:"consistency"`
}

func qualitySummary(ds *model.Dataset, columns []string, colStats map[string]*ColumnStats) QualitySummary {
	q := QualitySummary{
		Completeness: Dimension{Score: 100, Issues: []Issue{}},
		Uniqueness:   Dimension{Issues: []Issue{}},
		Consistency:  Dimension{Issues: []Issue{}},
	}

	cells, missing := ds.Len()*ds.Width(), 0
	for r := 0; r < ds.Len(); r++ {
		for c := 0; c < ds.Width(); c++ {
			if ds.At(r, c).IsNull() {
				missing++
			}
		}
	}
	if cells > 0 {
		q.Completeness.Score = round2(100 - float64(missing)/float64(cells)*100)
	}

	for _, col := range columns {
		st := colStats[col]
		if st.Nulls > 0 {
			q.Completeness.Issues = append(q.Completeness.Issues, Issue{
				Column: col, MissingValues: st.Nulls, Percentage: st.NullPercentage,
			})
		}
		if float64(st.UniqueValues) < float64(ds.Len())*uniqueShare && st.UniqueValues > 1 {
			q.Uniqueness.Issues = append(q.Uniqueness.Issues, Issue{
				Column: col, UniqueValues: st.UniqueValues, Percentage: st.UniquePercentage,
			})
		}
		if st.InconsistentCapitalization {
			q.Consistency.Issues = append(q.Consistency.Issues, Issue{
				Column: col, Issue: "Inconsistent capitalization", PotentialDuplicates: st.PotentialCaseDuplicates,
			})
		}
	}
	q.Uniqueness.Score = float64(100 - min(100, uniquePenalty*len(q.Uniqueness.Issues)))
	q.Consistency.Score = float64(100 - min(100, casePenalty*len(q.Consistency.Issues)))
	return q
}

func ptr[T any](v T) *T { return &v }

// finite drops NaN so that it renders as an absent field.
func finite(f float64) *float64 {
	if math.IsNaN(f) {
		return nil
	}
	return &f
}
