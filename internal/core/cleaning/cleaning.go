// Package cleaning applies a list of cleaning tasks to a dataset and
// reports what each one changed.
package cleaning

import (
	"fmt"

	"github.com/agenthands/steward/internal/core/decision"
	"github.com/agenthands/steward/internal/core/dedupe"
	"github.com/agenthands/steward/internal/core/model"
)

const DefaultFuzzyThreshold = 90

type Options struct {
	AutoApply       bool
	ReviewThreshold float64
	Seed            int64
	// NeighborCap bounds the candidates per anchor; 0 compares every
	// later row.
	NeighborCap int
}

type Summary struct {
	OperationsPerformed   []string `json:"operations_performed"`
	RowsAffected          int      `json:"rows_affected"`
	AutoMergedGroups      int      `json:"auto_merged_groups"`
	ReviewRequiredGroups  int      `json:"review_required_groups"`
	HumanEscalationGroups int      `json:"human_escalation_groups"`
}

type ExactDetail struct {
	ColumnsUsed       []string `json:"columns_used"`
	DuplicatesRemoved int      `json:"duplicates_removed"`
	GroupsFound       int      `json:"groups_found"`
}

// ReviewGroup is a fuzzy group left in the data for someone to decide on.
type ReviewGroup struct {
	Rows        []int                    `json:"indices"`
	Similarity  float64                  `json:"similarity"`
	Disposition model.Disposition        `json:"disposition"`
	Records     []map[string]model.Value `json:"records"`
}

type FuzzyDetail struct {
	ColumnsUsed           []string      `json:"columns_used"`
	SimilarityThreshold   int           `json:"similarity_threshold"`
	AutoMergedGroups      int           `json:"auto_merged_groups"`
	RowsMerged            int           `json:"rows_merged"`
	ReviewRequiredGroups  int           `json:"review_required_groups"`
	HumanEscalationGroups int           `json:"human_escalation_groups"`
	SkippedEmpty          int           `json:"skipped_empty"`
	GroupsForReview       []ReviewGroup `json:"groups_for_review"`
}

type MissingDetail struct {
	StrategyUsed string `json:"strategy_used"`
	ValuesFilled int    `json:"values_filled"`
}

type CapitalizationDetail struct {
	ValuesStandardized int `json:"values_standardized"`
}

type Details struct {
	Exact          *ExactDetail                    `json:"exact_duplicates,omitempty"`
	Fuzzy          *FuzzyDetail                    `json:"fuzzy_duplicates,omitempty"`
	Missing        map[string]MissingDetail        `json:"missing_values,omitempty"`
	Capitalization map[string]CapitalizationDetail `json:"capitalization,omitempty"`
}

type Result struct {
	Dataset            *model.Dataset       `json:"-"`
	Tasks              []model.TaskEnvelope `json:"tasks"`
	Summary            Summary              `json:"cleaning_summary"`
	Details            Details              `json:"cleaning_details"`
	Recommendations    []string             `json:"recommendations"`
	OriginalRows       int                  `json:"original_rows"`
	OriginalColumns    int                  `json:"original_columns"`
	CleanedRows        int                  `json:"cleaned_rows"`
	RowsRemoved        int                  `json:"rows_removed"`
	CleaningPercentage string               `json:"cleaning_percentage"`
}

// Apply runs tasks against ds in order, each task seeing the output of
// the previous one. With no tasks, DeriveTasks decides what to do. ds is
// not modified.
func Apply(ds *model.Dataset, tasks []model.CleaningTask, opts Options) (*Result, error) {
	if len(tasks) == 0 {
		tasks = DeriveTasks(ds)
	}

	res := &Result{
		Tasks:           model.WrapTasks(tasks),
		OriginalRows:    ds.Len(),
		OriginalColumns: ds.Width(),
		Summary:         Summary{OperationsPerformed: []string{}},
	}

	cur := ds
	for _, task := range tasks {
		var err error
		switch t := task.(type) {
		case model.RemoveExactDuplicates:
			cur, err = res.removeExact(cur, t)
		case model.ReviewFuzzyDuplicates:
			cur, err = res.reviewFuzzy(cur, t, opts)
		case model.HandleMissingValues:
			cur, err = res.handleMissing(cur, t)
		case model.StandardizeCapitalization:
			cur, err = res.standardize(cur, t)
		default:
			err = fmt.Errorf("unsupported cleaning task %q", task.TaskType())
		}
		if err != nil {
			return nil, fmt.Errorf("failed to %s: %w", task.TaskType(), err)
		}
	}

	res.Dataset = cur
	res.CleanedRows = cur.Len()
	res.RowsRemoved = res.OriginalRows - res.CleanedRows
	res.CleaningPercentage = "0.00%"
	if res.OriginalRows > 0 {
		res.CleaningPercentage = fmt.Sprintf("%.2f%%", float64(res.RowsRemoved)/float64(res.OriginalRows)*100)
	}
	res.Recommendations = res.recommend()
	return res, nil
}

func (r *Result) removeExact(ds *model.Dataset, t model.RemoveExactDuplicates) (*model.Dataset, error) {
	columns := t.Columns
	if len(columns) == 0 {
		columns = ds.ColumnNames()
	}
	groups, err := dedupe.ExactGroups(ds, columns)
	if err != nil {
		return nil, err
	}
	drop := decision.Discard(groups)
	out := ds.Without(drop)

	r.Details.Exact = &ExactDetail{
		ColumnsUsed:       columns,
		DuplicatesRemoved: len(drop),
		GroupsFound:       len(groups),
	}
	r.Summary.OperationsPerformed = append(r.Summary.OperationsPerformed, "Removed exact duplicates")
	r.Summary.RowsAffected += len(drop)
	r.Summary.AutoMergedGroups += len(groups)
	return out, nil
}

func (r *Result) reviewFuzzy(ds *model.Dataset, t model.ReviewFuzzyDuplicates, opts Options) (*model.Dataset, error) {
	columns := t.Columns
	if len(columns) == 0 {
		columns = ds.TextColumns()
	}
	threshold := t.Threshold
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	keys, err := dedupe.Keys(ds, columns)
	if err != nil {
		return nil, err
	}
	c := dedupe.Cluster(keys, dedupe.FuzzyOptions{
		Mode:        model.ModeDirect,
		Threshold:   threshold,
		NeighborCap: opts.NeighborCap,
		Seed:        opts.Seed,
	})

	policy := decision.Policy{ReviewThreshold: opts.ReviewThreshold, AutoApply: opts.AutoApply}
	triage := policy.Apply(c.Groups)
	out, merged := triage.Merged(ds)

	detail := &FuzzyDetail{
		ColumnsUsed:           columns,
		SimilarityThreshold:   threshold,
		AutoMergedGroups:      len(triage.AutoMerge),
		RowsMerged:            merged,
		ReviewRequiredGroups:  len(triage.ReviewRequired),
		HumanEscalationGroups: len(triage.HumanEscalation),
		SkippedEmpty:          c.SkippedEmpty,
		GroupsForReview:       []ReviewGroup{},
	}
	for _, bucket := range [][]decision.Decided{triage.ReviewRequired, triage.HumanEscalation} {
		for _, d := range bucket {
			detail.GroupsForReview = append(detail.GroupsForReview, ReviewGroup{
				Rows:        d.Group.Rows,
				Similarity:  d.Group.Cohesion,
				Disposition: d.Disposition,
				Records:     ds.Records(d.Group.Rows),
			})
		}
	}

	r.Details.Fuzzy = detail
	r.Summary.OperationsPerformed = append(r.Summary.OperationsPerformed, "Processed fuzzy duplicates")
	r.Summary.RowsAffected += merged
	r.Summary.AutoMergedGroups += detail.AutoMergedGroups
	r.Summary.ReviewRequiredGroups += detail.ReviewRequiredGroups
	r.Summary.HumanEscalationGroups += detail.HumanEscalationGroups
	return out, nil
}

func (r *Result) handleMissing(ds *model.Dataset, t model.HandleMissingValues) (*model.Dataset, error) {
	out, detail, err := FillMissing(ds, t.Column, t.Strategy)
	if err != nil {
		return nil, err
	}
	if r.Details.Missing == nil {
		r.Details.Missing = map[string]MissingDetail{}
	}
	r.Details.Missing[t.Column] = detail
	r.Summary.OperationsPerformed = append(r.Summary.OperationsPerformed, "Handled missing values in "+t.Column)
	r.Summary.RowsAffected += detail.ValuesFilled
	return out, nil
}

func (r *Result) standardize(ds *model.Dataset, t model.StandardizeCapitalization) (*model.Dataset, error) {
	out, n, err := StandardizeCapitalization(ds, t.Column)
	if err != nil {
		return nil, err
	}
	if r.Details.Capitalization == nil {
		r.Details.Capitalization = map[string]CapitalizationDetail{}
	}
	r.Details.Capitalization[t.Column] = CapitalizationDetail{ValuesStandardized: n}
	r.Summary.OperationsPerformed = append(r.Summary.OperationsPerformed, "Standardized capitalization in "+t.Column)
	r.Summary.RowsAffected += n
	return out, nil
}

func (r *Result) recommend() []string {
	if len(r.Summary.OperationsPerformed) == 0 {
		return []string{"No cleaning operations were performed. The data appears to be clean."}
	}

	recs := []string{}
	if e := r.Details.Exact; e != nil && e.DuplicatesRemoved > 0 {
		recs = append(recs, fmt.Sprintf("Successfully removed %d exact duplicates from %d groups.", e.DuplicatesRemoved, e.GroupsFound))
	}
	if f := r.Details.Fuzzy; f != nil {
		if f.AutoMergedGroups > 0 {
			recs = append(recs, fmt.Sprintf("Auto-merged %d groups of similar records.", f.AutoMergedGroups))
		}
		if f.ReviewRequiredGroups > 0 {
			recs = append(recs, fmt.Sprintf("Found %d groups of similar records that require review.", f.ReviewRequiredGroups))
		}
		if f.HumanEscalationGroups > 0 {
			recs = append(recs, fmt.Sprintf("Escalated %d groups of records to human review due to low confidence.", f.HumanEscalationGroups))
		}
	}
	for _, col := range sortedKeys(r.Details.Missing) {
		if d := r.Details.Missing[col]; d.ValuesFilled > 0 {
			recs = append(recs, fmt.Sprintf("Filled %d missing values in column '%s' using %s strategy.", d.ValuesFilled, col, d.StrategyUsed))
		}
	}
	for _, col := range sortedKeys(r.Details.Capitalization) {
		if d := r.Details.Capitalization[col]; d.ValuesStandardized > 0 {
			recs = append(recs, fmt.Sprintf("Standardized capitalization for %d values in column '%s'.", d.ValuesStandardized, col))
		}
	}
	if r.RowsRemoved > 0 {
		recs = append(recs, fmt.Sprintf("Overall, removed %d rows (%s) from the dataset.", r.RowsRemoved, r.CleaningPercentage))
	}
	return recs
}
