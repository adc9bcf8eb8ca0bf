// Package profile describes a dataset: per-column statistics, data
// quality scores, duplicate analysis and a cleaning plan for it.
package profile

import (
	"fmt"
	"math"
	"strings"

	"github.com/agenthands/steward/internal/core/dedupe"
	"github.com/agenthands/steward/internal/core/keycols"
	"github.com/agenthands/steward/internal/core/model"
)

type Options struct {
	// FocusColumns restricts column statistics; empty means every column.
	FocusColumns        []string
	AnalyzeDuplicates   bool
	SimilarityThreshold int
	Seed                int64
	SampleCap           int
	NeighborCap         int
	SummaryCutoff       int
	ChunkSize           int
}

func DefaultOptions() Options {
	return Options{
		AnalyzeDuplicates:   true,
		SimilarityThreshold: 90,
		Seed:                dedupe.DefaultSeed,
		SampleCap:           dedupe.DefaultSampleCap,
		NeighborCap:         dedupe.DefaultNeighborCap,
		SummaryCutoff:       dedupe.DefaultSummaryCutoff,
		ChunkSize:           10000,
	}
}

type FileInfo struct {
	Path    string `json:"path,omitempty"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}

type DuplicateAnalysis struct {
	ProcessingNote  string              `json:"processing_note,omitempty"`
	Strategy        *model.Strategy     `json:"strategy,omitempty"`
	Exact           *dedupe.ExactResult `json:"exact_duplicates,omitempty"`
	Fuzzy           *dedupe.FuzzyResult `json:"fuzzy_duplicates,omitempty"`
	FuzzyNote       string              `json:"fuzzy_note,omitempty"`
	Recommendations []string            `json:"recommendations"`
}

type Result struct {
	FileInfo            FileInfo                 `json:"file_info"`
	Columns             []string                 `json:"analyzed_columns"`
	ColumnStats         map[string]*ColumnStats  `json:"column_stats"`
	KeyColumns          model.RoleMap            `json:"key_columns"`
	Quality             QualitySummary           `json:"data_quality_summary"`
	DuplicateStrategies []model.Strategy         `json:"duplicate_strategies,omitempty"`
	Duplicates          *DuplicateAnalysis       `json:"duplicate_analysis,omitempty"`
	CleaningPlan        []model.TaskEnvelope     `json:"cleaning_plan"`
	Outliers            map[string]OutlierReport `json:"outliers"`
	Summary             string                   `json:"summary"`
	Recommendations     []string                 `json:"recommendations"`
	NextSteps           []string                 `json:"next_steps"`
}

// Tasks returns the cleaning plan as typed tasks.
func (r *Result) Tasks() []model.CleaningTask {
	return model.UnwrapTasks(r.CleaningPlan)
}

// Run profiles ds. Column statistics cover opts.FocusColumns when set;
// key columns, strategies and duplicates always look at every column.
func Run(ds *model.Dataset, opts Options) (*Result, error) {
	columns := ds.ColumnNames()
	if len(opts.FocusColumns) > 0 {
		if _, err := ds.ColumnIndexes(opts.FocusColumns); err != nil {
			return nil, err
		}
		columns = append([]string(nil), opts.FocusColumns...)
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultOptions().ChunkSize
	}

	res := &Result{
		FileInfo:    FileInfo{Rows: ds.Len(), Columns: ds.Width()},
		Columns:     columns,
		ColumnStats: make(map[string]*ColumnStats, len(columns)),
	}
	for _, col := range columns {
		res.ColumnStats[col] = describe(ds, col)
	}
	res.KeyColumns = keycols.Classify(ds)
	res.Quality = qualitySummary(ds, columns, res.ColumnStats)

	var plan []model.CleaningTask
	if opts.AnalyzeDuplicates {
		res.DuplicateStrategies = keycols.Suggest(ds, res.KeyColumns)
		analysis, tasks, err := analyzeDuplicates(ds, res.DuplicateStrategies, opts)
		if err != nil {
			return nil, err
		}
		res.Duplicates = analysis
		plan = append(plan, tasks...)
	}
	for _, col := range columns {
		st := res.ColumnStats[col]
		if st.Nulls > 0 {
			plan = append(plan, model.HandleMissingValues{Column: col, Strategy: model.MissingAuto})
		}
		if st.InconsistentCapitalization {
			plan = append(plan, model.StandardizeCapitalization{Column: col})
		}
	}
	res.CleaningPlan = model.WrapTasks(plan)

	res.Outliers = detectOutliers(ds, columns)
	res.Summary = res.summarize()
	res.Recommendations = res.recommend()
	res.NextSteps = res.nextSteps()
	return res, nil
}

func analyzeDuplicates(ds *model.Dataset, strategies []model.Strategy, opts Options) (*DuplicateAnalysis, []model.CleaningTask, error) {
	analysis := &DuplicateAnalysis{}
	var tasks []model.CleaningTask
	if len(strategies) == 0 {
		analysis.Recommendations = []string{}
		return analysis, nil, nil
	}
	best := strategies[0]
	analysis.Strategy = &best

	acc := dedupe.NewExactAccumulator(best.Columns, dedupe.ExactOptions{SummaryCutoff: opts.SummaryCutoff})
	if ds.Len() > opts.ChunkSize {
		analysis.ProcessingNote = fmt.Sprintf("Dataset has %d rows. Processing in chunks of %d rows.", ds.Len(), opts.ChunkSize)
	}
	for from := 0; from < ds.Len() || from == 0; from += opts.ChunkSize {
		if err := acc.Add(ds.Slice(from, from+opts.ChunkSize), from); err != nil {
			return nil, nil, err
		}
	}
	analysis.Exact = acc.Result(ds.Record)
	if analysis.Exact.Summary.Groups > 0 {
		tasks = append(tasks, model.RemoveExactDuplicates{Columns: best.Columns})
	}

	var text []string
	for _, c := range best.Columns {
		if col, _ := ds.Column(c); col.Textual() {
			text = append(text, c)
		}
	}
	if len(text) > 0 && !best.Exact() {
		fuzzy, err := dedupe.FindFuzzy(ds, text, dedupe.FuzzyOptions{
			Mode:        model.ModeTokenSort,
			Threshold:   opts.SimilarityThreshold,
			SampleCap:   opts.SampleCap,
			NeighborCap: opts.NeighborCap,
			Seed:        opts.Seed,
		})
		if err != nil {
			return nil, nil, err
		}
		analysis.Fuzzy = fuzzy
		analysis.FuzzyNote = fuzzy.Note
		if len(fuzzy.Groups) > 0 {
			tasks = append(tasks, model.ReviewFuzzyDuplicates{Columns: text, Threshold: opts.SimilarityThreshold})
		}
	}

	analysis.Recommendations = []string{}
	if e := analysis.Exact; e.Summary.Groups > 0 {
		analysis.Recommendations = append(analysis.Recommendations,
			fmt.Sprintf("Remove %d exact duplicate records found in %d groups.", e.Summary.Records, e.Summary.Groups))
	}
	if f := analysis.Fuzzy; f != nil && len(f.Groups) > 0 {
		analysis.Recommendations = append(analysis.Recommendations,
			fmt.Sprintf("Review %d groups of similar records that may be duplicates.", len(f.Groups)),
			"Consider running the cleaning agent to merge or deduplicate these records.")
	}
	return analysis, tasks, nil
}

func (r *Result) summarize() string {
	var types []string
	counts := map[string]int{}
	withNulls, withOutliers, withCase := 0, 0, 0
	for _, col := range r.Columns {
		st := r.ColumnStats[col]
		if counts[st.Type] == 0 {
			types = append(types, st.Type)
		}
		counts[st.Type]++
		if st.Nulls > 0 {
			withNulls++
		}
		if st.Outliers != nil {
			withOutliers++
		}
		if st.InconsistentCapitalization {
			withCase++
		}
	}
	typeParts := make([]string, len(types))
	for i, t := range types {
		typeParts[i] = fmt.Sprintf("%s: %d", t, counts[t])
	}

	lines := []string{
		fmt.Sprintf("Dataset has %d rows and %d columns.", r.FileInfo.Rows, r.FileInfo.Columns),
		"Column types: " + strings.Join(typeParts, ", "),
		fmt.Sprintf("Data quality: %d columns have missing values, %d have outliers, %d have inconsistent capitalization.",
			withNulls, withOutliers, withCase),
	}

	k := r.KeyColumns
	var keyParts []string
	for _, role := range []struct {
		label string
		cols  []string
	}{
		{"identifier_columns", k.Identifier},
		{"name_columns", k.Name},
		{"categorical_columns", k.Categorical},
		{"numerical_columns", k.Numerical},
		{"date_columns", k.Date},
		{"unclassified_columns", k.Unclassified},
	} {
		if len(role.cols) > 0 {
			keyParts = append(keyParts, role.label+": "+firstThree(role.cols))
		}
	}
	if len(keyParts) > 0 {
		lines = append(lines, "Key columns: "+strings.Join(keyParts, "; "))
	}
	if n := len(r.DuplicateStrategies); n > 0 {
		lines = append(lines, fmt.Sprintf("Suggested %d strategies for duplicate detection.", n))
	}
	return strings.Join(lines, "\n")
}

func (r *Result) recommend() []string {
	var nullCols, caseCols, textCols []string
	for _, col := range r.Columns {
		st := r.ColumnStats[col]
		if st.Nulls > 0 {
			nullCols = append(nullCols, col)
		}
		if st.InconsistentCapitalization {
			caseCols = append(caseCols, col)
		}
		if st.Type == model.KindText.String() {
			textCols = append(textCols, col)
		}
	}

	recs := []string{}
	if len(nullCols) > 0 {
		recs = append(recs, "Fill missing values in "+firstThree(nullCols))
	}
	if len(caseCols) > 0 {
		recs = append(recs, "Standardize capitalization in "+firstThree(caseCols))
	}
	if len(r.Outliers) > 0 {
		var cols []string
		for _, col := range r.Columns {
			if _, ok := r.Outliers[col]; ok {
				cols = append(cols, col)
			}
		}
		recs = append(recs, "Review outliers in "+firstThree(cols))
	}
	if len(textCols) > 0 {
		recs = append(recs, "Consider using fuzzy matching for duplicate detection on text fields")
	}
	return recs
}

func (r *Result) nextSteps() []string {
	steps := []string{}
	if d := r.Duplicates; d != nil {
		if d.Exact != nil && d.Exact.Summary.Groups > 0 {
			steps = append(steps, fmt.Sprintf("Route to the cleaning agent to remove %d exact duplicates", d.Exact.Summary.Records))
		}
		if d.Fuzzy != nil && len(d.Fuzzy.Groups) > 0 {
			steps = append(steps, fmt.Sprintf("Route to the cleaning agent to review and merge %d groups of similar records", len(d.Fuzzy.Groups)))
		}
	}

	var issues []string
	for _, col := range r.Columns {
		st := r.ColumnStats[col]
		if st.Nulls > 0 {
			issues = append(issues, "missing values in "+col)
		}
		if st.InconsistentCapitalization {
			issues = append(issues, "inconsistent capitalization in "+col)
		}
	}
	if len(issues) > 0 {
		steps = append(steps, "Route to the cleaning agent to clean data quality issues: "+firstThree(issues))
	}
	if len(steps) == 0 {
		steps = append(steps, "Data quality is good - proceed to next step in workflow")
	}
	return steps
}

func firstThree(items []string) string {
	if len(items) > 3 {
		return strings.Join(items[:3], ", ") + "..."
	}
	return strings.Join(items, ", ")
}

func percent(n, total int) string {
	if total == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(n)/float64(total)*100)
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
