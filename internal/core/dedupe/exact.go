package dedupe

import (
	"fmt"
	"strings"

	"github.com/agenthands/steward/internal/core/model"
)

type ExactOptions struct {
	// SummaryCutoff switches to summary-only output once this many rows
	// are flagged as duplicates.
	SummaryCutoff int
	// MaxShown caps the example records listed per group.
	MaxShown int
}

func (o ExactOptions) withDefaults() ExactOptions {
	if o.SummaryCutoff <= 0 {
		o.SummaryCutoff = DefaultSummaryCutoff
	}
	if o.MaxShown <= 0 {
		o.MaxShown = DefaultMaxShown
	}
	return o
}

type ExactGroup struct {
	ID           string                   `json:"id"`
	Key          string                   `json:"key"`
	Count        int                      `json:"count"`
	Rows         []int                    `json:"rows"`
	RecordsShown int                      `json:"records_shown,omitempty"`
	Records      []map[string]model.Value `json:"records"`
	Note         string                   `json:"note,omitempty"`
}

type ExactSummary struct {
	TotalRows int `json:"total_rows"`
	Groups    int `json:"exact_duplicate_groups"`
	Records   int `json:"exact_duplicate_records"`
}

type ExactResult struct {
	Groups          []ExactGroup `json:"groups,omitempty"`
	SummaryOnly     bool         `json:"summary_only,omitempty"`
	Message         string       `json:"message,omitempty"`
	Summary         ExactSummary `json:"summary"`
	Recommendations []string     `json:"recommendations"`
}

// ExactAccumulator groups rows across consecutive chunks of one dataset.
// Keys are tracked globally, so chunk boundaries never split a group.
type ExactAccumulator struct {
	columns []string
	opts    ExactOptions
	total   int
	order   []string
	buckets map[string]*bucket
}

type bucket struct {
	rows []int
}

// RecordFunc returns the record at a global row index.
type RecordFunc func(row int) map[string]model.Value

func NewExactAccumulator(columns []string, opts ExactOptions) *ExactAccumulator {
	return &ExactAccumulator{
		columns: append([]string(nil), columns...),
		opts:    opts.withDefaults(),
		buckets: make(map[string]*bucket),
	}
}

// Add folds a chunk whose first row has global index offset. Only row
// indices are kept; records are looked up once groups are known.
func (a *ExactAccumulator) Add(chunk *model.Dataset, offset int) error {
	idx, err := chunk.ColumnIndexes(a.columns)
	if err != nil {
		return err
	}
	for r := 0; r < chunk.Len(); r++ {
		k := chunk.TupleKey(r, idx)
		b, ok := a.buckets[k]
		if !ok {
			b = &bucket{}
			a.buckets[k] = b
			a.order = append(a.order, k)
		}
		b.rows = append(b.rows, offset+r)
	}
	a.total += chunk.Len()
	return nil
}

// Groups returns every duplicate group in order of first occurrence.
func (a *ExactAccumulator) Groups() []model.DuplicateGroup {
	var out []model.DuplicateGroup
	for _, k := range a.order {
		b := a.buckets[k]
		if len(b.rows) < 2 {
			continue
		}
		out = append(out, model.DuplicateGroup{Rows: append([]int(nil), b.rows...), Cohesion: 100})
	}
	return out
}

// Result summarizes the groups, reading example records through record.
func (a *ExactAccumulator) Result(record RecordFunc) *ExactResult {
	res := &ExactResult{Summary: ExactSummary{TotalRows: a.total}}

	var dups []*bucket
	for _, k := range a.order {
		if b := a.buckets[k]; len(b.rows) >= 2 {
			dups = append(dups, b)
			res.Summary.Records += len(b.rows)
		}
	}
	res.Summary.Groups = len(dups)

	switch {
	case len(dups) == 0:
		res.Recommendations = []string{"No exact duplicate issues detected in the analyzed columns."}
		return res
	case res.Summary.Records >= a.opts.SummaryCutoff:
		res.SummaryOnly = true
		res.Message = fmt.Sprintf("Found %d duplicate records in %d groups. Data too large to display all records.",
			res.Summary.Records, res.Summary.Groups)
	default:
		res.Groups = make([]ExactGroup, 0, len(dups))
		for i, b := range dups {
			shown := b.rows
			if len(shown) > a.opts.MaxShown {
				shown = shown[:a.opts.MaxShown]
			}
			records := make([]map[string]model.Value, len(shown))
			for j, r := range shown {
				records[j] = record(r)
			}
			g := ExactGroup{
				ID:      fmt.Sprintf("group_%d", i+1),
				Key:     a.label(records[0]),
				Count:   len(b.rows),
				Rows:    append([]int(nil), b.rows...),
				Records: records,
			}
			if len(b.rows) > a.opts.MaxShown {
				g.RecordsShown = a.opts.MaxShown
				g.Note = fmt.Sprintf("Showing %d of %d records in this group", a.opts.MaxShown, len(b.rows))
			}
			res.Groups = append(res.Groups, g)
		}
	}

	res.Recommendations = []string{fmt.Sprintf(
		"Found %d exact duplicate records in %d groups. Consider running the cleaning agent to deduplicate these records.",
		res.Summary.Records, res.Summary.Groups)}
	return res
}

// FindExact groups the rows of ds by the tuple of values in columns.
func FindExact(ds *model.Dataset, columns []string, opts ExactOptions) (*ExactResult, error) {
	acc := NewExactAccumulator(columns, opts)
	if err := acc.Add(ds, 0); err != nil {
		return nil, err
	}
	return acc.Result(ds.Record), nil
}

// ExactGroups returns all exact duplicate groups of ds over columns.
func ExactGroups(ds *model.Dataset, columns []string) ([]model.DuplicateGroup, error) {
	acc := NewExactAccumulator(columns, ExactOptions{MaxShown: 1})
	if err := acc.Add(ds, 0); err != nil {
		return nil, err
	}
	return acc.Groups(), nil
}

func (a *ExactAccumulator) label(rec map[string]model.Value) string {
	parts := make([]string, len(a.columns))
	for i, c := range a.columns {
		v := rec[c]
		if v.IsNull() {
			parts[i] = "nan"
			continue
		}
		parts[i] = v.String()
	}
	return strings.Join(parts, "_")
}
