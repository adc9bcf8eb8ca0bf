package dedupe

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/agenthands/steward/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textRows(values ...string) [][]model.Value {
	rows := make([][]model.Value, len(values))
	for i, v := range values {
		if v == "" {
			rows[i] = []model.Value{model.Null()}
			continue
		}
		rows[i] = []model.Value{model.Text(v)}
	}
	return rows
}

func TestFindExact_GroupsInFirstOccurrenceOrder(t *testing.T) {
	ds := model.MustDataset([]string{"name"}, textRows("b", "a", "b", "c", "a", "", ""))

	res, err := FindExact(ds, []string{"name"}, ExactOptions{})
	require.NoError(t, err)

	require.Len(t, res.Groups, 3)
	assert.Equal(t, []int{0, 2}, res.Groups[0].Rows)
	assert.Equal(t, "b", res.Groups[0].Key)
	assert.Equal(t, []int{1, 4}, res.Groups[1].Rows)
	// Null equals null.
	assert.Equal(t, []int{5, 6}, res.Groups[2].Rows)
	assert.Equal(t, "nan", res.Groups[2].Key)

	assert.Equal(t, ExactSummary{TotalRows: 7, Groups: 3, Records: 6}, res.Summary)
	assert.False(t, res.SummaryOnly)
}

func TestFindExact_IsPartition(t *testing.T) {
	values := []string{"x", "y", "x", "z", "y", "x", "w", "q", "q"}
	ds := model.MustDataset([]string{"v", "w"}, func() [][]model.Value {
		rows := make([][]model.Value, len(values))
		for i, v := range values {
			rows[i] = []model.Value{model.Text(v), model.Number(float64(len(v)))}
		}
		return rows
	}())

	groups, err := ExactGroups(ds, []string{"v", "w"})
	require.NoError(t, err)

	seen := map[int]int{}
	for _, g := range groups {
		assert.GreaterOrEqual(t, g.Size(), 2)
		assert.Equal(t, 100.0, g.Cohesion)
		for _, r := range g.Rows {
			seen[r]++
			assert.Equal(t, values[g.Rows[0]], values[r])
		}
	}
	for r, n := range seen {
		assert.Equal(t, 1, n, "row %d in more than one group", r)
	}
	// Unique tuples (z, w) are never grouped.
	assert.NotContains(t, seen, 3)
	assert.NotContains(t, seen, 6)
	assert.Len(t, seen, 7)
}

func TestFindExact_CapsShownRecords(t *testing.T) {
	vals := make([]string, 12)
	for i := range vals {
		vals[i] = "same"
	}
	ds := model.MustDataset([]string{"v"}, textRows(vals...))

	res, err := FindExact(ds, []string{"v"}, ExactOptions{})
	require.NoError(t, err)
	require.Len(t, res.Groups, 1)

	g := res.Groups[0]
	assert.Equal(t, 12, g.Count)
	assert.Equal(t, 10, g.RecordsShown)
	assert.Len(t, g.Records, 10)
	assert.Equal(t, "Showing 10 of 12 records in this group", g.Note)
}

func pairedDataset(rows int) *model.Dataset {
	data := make([][]model.Value, rows)
	for i := range data {
		data[i] = []model.Value{model.Number(float64(i / 2))}
	}
	return model.MustDataset([]string{"id"}, data)
}

func TestFindExact_SummaryCutoff(t *testing.T) {
	below, err := FindExact(pairedDataset(9998), []string{"id"}, ExactOptions{})
	require.NoError(t, err)
	assert.False(t, below.SummaryOnly)
	assert.Len(t, below.Groups, 4999)
	assert.Equal(t, ExactSummary{TotalRows: 9998, Groups: 4999, Records: 9998}, below.Summary)

	at, err := FindExact(pairedDataset(10000), []string{"id"}, ExactOptions{})
	require.NoError(t, err)
	assert.True(t, at.SummaryOnly)
	assert.Empty(t, at.Groups)
	assert.Equal(t, ExactSummary{TotalRows: 10000, Groups: 5000, Records: 10000}, at.Summary)
	assert.Equal(t, "Found 10000 duplicate records in 5000 groups. Data too large to display all records.", at.Message)
}

func TestExactAccumulator_ChunkBoundariesDoNotMatter(t *testing.T) {
	ds := model.MustDataset([]string{"v"}, textRows("a", "b", "c", "a", "d", "b", "a", "e"))
	whole, err := FindExact(ds, []string{"v"}, ExactOptions{})
	require.NoError(t, err)

	for _, size := range []int{1, 2, 3, 5} {
		t.Run(fmt.Sprintf("chunk=%d", size), func(t *testing.T) {
			acc := NewExactAccumulator([]string{"v"}, ExactOptions{})
			for off := 0; off < ds.Len(); off += size {
				require.NoError(t, acc.Add(ds.Slice(off, off+size), off))
			}
			assert.Equal(t, whole, acc.Result(ds.Record))
		})
	}
}

func TestExactAccumulator_ReadsOnlyShownDuplicates(t *testing.T) {
	ds := model.MustDataset([]string{"v"}, textRows("a", "b", "a", "c", "a", "a", "d"))
	acc := NewExactAccumulator([]string{"v"}, ExactOptions{MaxShown: 2})
	require.NoError(t, acc.Add(ds.Slice(0, 4), 0))
	require.NoError(t, acc.Add(ds.Slice(4, 7), 4))

	var read []int
	res := acc.Result(func(row int) map[string]model.Value {
		read = append(read, row)
		return ds.Record(row)
	})

	assert.Equal(t, []int{0, 2}, read)
	require.Len(t, res.Groups, 1)
	assert.Equal(t, "a", res.Groups[0].Key)
	assert.Equal(t, []int{0, 2, 4, 5}, res.Groups[0].Rows)
	assert.Equal(t, 2, res.Groups[0].RecordsShown)
}

func TestFindExact_NoDuplicates(t *testing.T) {
	ds := model.MustDataset([]string{"v"}, textRows("a", "b"))
	res, err := FindExact(ds, []string{"v"}, ExactOptions{})
	require.NoError(t, err)
	assert.Zero(t, res.Summary.Groups)
	assert.Equal(t, []string{"No exact duplicate issues detected in the analyzed columns."}, res.Recommendations)
}

func TestFindExact_UnknownColumn(t *testing.T) {
	ds := model.MustDataset([]string{"v"}, textRows("a"))
	_, err := FindExact(ds, []string{"nope"}, ExactOptions{})
	assert.True(t, errors.Is(err, model.ErrSchemaMismatch))
}

func TestFindExact_TupleKeysDoNotCollide(t *testing.T) {
	ds := model.MustDataset([]string{"a", "b"}, [][]model.Value{
		{model.Text("x\x1f2:y"), model.Text("z")},
		{model.Text("x"), model.Text("y\x1f2:z")},
		{model.Text("x:"), model.Text("y")},
		{model.Text("x"), model.Text(":y")},
	})

	res, err := FindExact(ds, []string{"a", "b"}, ExactOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.Groups)
	assert.Zero(t, res.Summary.Groups)
}

func TestFindExact_KeysAgreeWithEqual(t *testing.T) {
	ds := model.MustDataset([]string{"n"}, [][]model.Value{
		{model.Number(0)},
		{model.Number(math.Copysign(0, -1))},
		{model.Number(1)},
	})
	require.True(t, ds.At(0, 0).Equal(ds.At(1, 0)))

	groups, err := ExactGroups(ds, []string{"n"})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []int{0, 1}, groups[0].Rows)
}
