package cleaning

import (
	"errors"
	"testing"
	"time"

	"github.com/agenthands/steward/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func customers() *model.Dataset {
	t, n, null := model.Text, model.Number, model.Null()
	return model.MustDataset([]string{"name", "city", "age"}, [][]model.Value{
		{t("Acme Corp"), t("Berlin"), n(30)},
		{t("Acme Corp"), t("Berlin"), n(30)},
		{t("Acme Corp."), t("berlin"), null},
		{t("Globex"), t("Paris"), n(50)},
		{t("Initech"), null, n(40)},
	})
}

func TestDeriveTasks(t *testing.T) {
	tasks := DeriveTasks(customers())

	assert.Equal(t, []model.CleaningTask{
		model.RemoveExactDuplicates{Columns: []string{"name", "city", "age"}},
		model.HandleMissingValues{Column: "city", Strategy: model.MissingAuto},
		model.HandleMissingValues{Column: "age", Strategy: model.MissingAuto},
		model.StandardizeCapitalization{Column: "city"},
		model.ReviewFuzzyDuplicates{Columns: []string{"name", "city"}, Threshold: 90},
	}, tasks)
}

func TestApply_DerivedTasks(t *testing.T) {
	ds := customers()
	res, err := Apply(ds, nil, Options{AutoApply: true, ReviewThreshold: 85, Seed: 42})
	require.NoError(t, err)

	require.NotNil(t, res.Details.Exact)
	assert.Equal(t, 1, res.Details.Exact.DuplicatesRemoved)
	assert.Equal(t, 1, res.Details.Exact.GroupsFound)

	assert.Equal(t, MissingDetail{StrategyUsed: "mode", ValuesFilled: 1}, res.Details.Missing["city"])
	assert.Equal(t, MissingDetail{StrategyUsed: "median", ValuesFilled: 1}, res.Details.Missing["age"])
	assert.Equal(t, CapitalizationDetail{ValuesStandardized: 1}, res.Details.Capitalization["city"])

	// After the steps above "Acme Corp." / "Berlin" and "Acme Corp" / "Berlin"
	// are 97 similar and get merged into the earlier row.
	require.NotNil(t, res.Details.Fuzzy)
	assert.Equal(t, 1, res.Details.Fuzzy.AutoMergedGroups)
	assert.Equal(t, 1, res.Details.Fuzzy.RowsMerged)

	assert.Equal(t, 5, res.OriginalRows)
	assert.Equal(t, 3, res.CleanedRows)
	assert.Equal(t, 2, res.RowsRemoved)
	assert.Equal(t, "40.00%", res.CleaningPercentage)
	assert.Equal(t, 2, res.Summary.AutoMergedGroups)
	assert.Contains(t, res.Recommendations, "Overall, removed 2 rows (40.00%) from the dataset.")
	assert.Contains(t, res.Recommendations, "Successfully removed 1 exact duplicates from 1 groups.")

	assert.Equal(t, "Acme Corp", res.Dataset.Value(0, "name").String())
	// The input is untouched.
	assert.Equal(t, 5, ds.Len())
	assert.True(t, ds.Value(2, "age").IsNull())
}

func TestApply_ReviewWithoutAutoApply(t *testing.T) {
	tasks := []model.CleaningTask{model.ReviewFuzzyDuplicates{Columns: []string{"name"}, Threshold: 90}}
	res, err := Apply(customers(), tasks, Options{ReviewThreshold: 85})
	require.NoError(t, err)

	assert.Equal(t, 5, res.CleanedRows)
	require.Len(t, res.Details.Fuzzy.GroupsForReview, 1)
	g := res.Details.Fuzzy.GroupsForReview[0]
	assert.Equal(t, []int{0, 1, 2}, g.Rows)
	assert.Equal(t, model.ReviewRequired, g.Disposition)
	assert.Len(t, g.Records, 3)
	assert.Equal(t, []string{"Found 1 groups of similar records that require review."}, res.Recommendations)
}

func TestApply_LowCohesionEscalates(t *testing.T) {
	tasks := []model.CleaningTask{model.ReviewFuzzyDuplicates{Columns: []string{"name"}, Threshold: 90}}
	res, err := Apply(customers(), tasks, Options{AutoApply: true, ReviewThreshold: 99})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Summary.HumanEscalationGroups)
	assert.Equal(t, 0, res.Summary.AutoMergedGroups)
	assert.Equal(t, 5, res.CleanedRows)
}

func TestApply_Idempotent(t *testing.T) {
	opts := Options{AutoApply: true, ReviewThreshold: 85, Seed: 42}
	first, err := Apply(customers(), nil, opts)
	require.NoError(t, err)

	second, err := Apply(first.Dataset, nil, opts)
	require.NoError(t, err)
	assert.Zero(t, second.Summary.RowsAffected)
	assert.Equal(t, first.CleanedRows, second.CleanedRows)
	for r := 0; r < first.Dataset.Len(); r++ {
		assert.Equal(t, first.Dataset.Row(r), second.Dataset.Row(r))
	}
}

func TestApply_UnknownColumn(t *testing.T) {
	_, err := Apply(customers(), []model.CleaningTask{model.RemoveExactDuplicates{Columns: []string{"email"}}}, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrSchemaMismatch))
}

func TestApply_CleanData(t *testing.T) {
	ds := model.MustDataset([]string{"n"}, [][]model.Value{{model.Number(1)}, {model.Number(2)}})
	res, err := Apply(ds, nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Summary.OperationsPerformed)
	assert.Equal(t, []string{"No cleaning operations were performed. The data appears to be clean."}, res.Recommendations)
}

func TestFillMissing(t *testing.T) {
	n, null := model.Number, model.Null()
	nums := model.MustDataset([]string{"x"}, [][]model.Value{{n(1)}, {null}, {n(3)}, {n(10)}, {null}})
	labels := model.MustDataset([]string{"x"}, [][]model.Value{{model.Text("b")}, {model.Text("a")}, {null}})

	tests := []struct {
		name     string
		ds       *model.Dataset
		strategy model.MissingStrategy
		want     MissingDetail
		fill     model.Value
		rows     int
	}{
		{"auto numeric is median", nums, model.MissingAuto, MissingDetail{"median", 2}, n(3), 5},
		{"mean", nums, model.MissingMean, MissingDetail{"mean", 2}, n(14.0 / 3), 5},
		{"zero", nums, model.MissingZero, MissingDetail{"zero", 2}, n(0), 5},
		{"mode tie picks smallest", nums, model.MissingMode, MissingDetail{"mode", 2}, n(1), 5},
		{"remove", nums, model.MissingRemove, MissingDetail{"remove", 2}, model.Null(), 3},
		{"auto text is mode", labels, model.MissingAuto, MissingDetail{"mode", 1}, model.Text("a"), 3},
		{"mean on text fills nothing", labels, model.MissingMean, MissingDetail{"mean", 0}, model.Null(), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, detail, err := FillMissing(tt.ds, "x", tt.strategy)
			require.NoError(t, err)
			assert.Equal(t, tt.want, detail)
			assert.Equal(t, tt.rows, out.Len())
			if tt.rows == tt.ds.Len() {
				assert.True(t, out.Value(1, "x").Equal(tt.fill) || tt.fill.IsNull())
			}
		})
	}
}

func TestFillMissing_NoNulls(t *testing.T) {
	ds := model.MustDataset([]string{"x"}, [][]model.Value{{model.Number(1)}})
	out, detail, err := FillMissing(ds, "x", model.MissingMean)
	require.NoError(t, err)
	assert.Same(t, ds, out)
	assert.Equal(t, MissingDetail{StrategyUsed: "none"}, detail)
}

func TestFillMissing_DateMedian(t *testing.T) {
	d := func(day int) model.Value { return model.Date(time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)) }
	ds := model.MustDataset([]string{"x"}, [][]model.Value{{d(1)}, {model.Null()}, {d(3)}})

	out, detail, err := FillMissing(ds, "x", model.MissingAuto)
	require.NoError(t, err)
	assert.Equal(t, MissingDetail{"median", 1}, detail)
	assert.Equal(t, "2024-01-02", out.Value(1, "x").String())
}

// Filling with the median leaves the median unchanged.
func TestFillMissing_MedianIsStable(t *testing.T) {
	n, null := model.Number, model.Null()
	ds := model.MustDataset([]string{"x"}, [][]model.Value{{n(7)}, {null}, {n(2)}, {n(9)}, {null}, {n(4)}})
	before := median(model.KindNumber, ds.ColumnValues("x"))

	out, _, err := FillMissing(ds, "x", model.MissingMedian)
	require.NoError(t, err)
	assert.Equal(t, before, median(model.KindNumber, out.ColumnValues("x")))
}

func TestStandardizeCapitalization(t *testing.T) {
	tx := model.Text
	ds := model.MustDataset([]string{"city"}, [][]model.Value{
		{tx("berlin")}, {tx("Berlin")}, {tx("Berlin")}, {tx("PARIS")}, {tx("paris")}, {model.Null()}, {tx("Rome")},
	})

	out, n, err := StandardizeCapitalization(ds, "city")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	var got []string
	for _, v := range out.ColumnValues("city") {
		got = append(got, v.String())
	}
	assert.Equal(t, []string{"Berlin", "Berlin", "Berlin", "PARIS", "PARIS", "", "Rome"}, got)

	again, n, err := StandardizeCapitalization(out, "city")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Same(t, out, again)
}

func TestStandardizeCapitalization_NonText(t *testing.T) {
	ds := model.MustDataset([]string{"x"}, [][]model.Value{{model.Number(1)}})
	out, n, err := StandardizeCapitalization(ds, "x")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Same(t, ds, out)
}
