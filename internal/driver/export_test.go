package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/steward/internal/core/model"
)

type call struct {
	query  string
	params map[string]any
}

type MockDriver struct {
	Calls  []call
	Result neo4j.EagerResult
	FailOn string
	Err    error
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]any) (neo4j.EagerResult, error) {
	m.Calls = append(m.Calls, call{query, params})
	if m.FailOn != "" && query == m.FailOn {
		return neo4j.EagerResult{}, m.Err
	}
	return m.Result, nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error { return nil }
func (m *MockDriver) Close(ctx context.Context) error { return nil }

type fixed model.Disposition

func (f fixed) Classify(model.DuplicateGroup) model.Disposition { return model.Disposition(f) }

func TestExportGroups(t *testing.T) {
	m := &MockDriver{}
	groups := []model.DuplicateGroup{
		{Rows: []int{4, 1, 7}, Cohesion: 96.5},
		{Rows: []int{3}, Cohesion: 100},
	}

	n, err := ExportGroups(context.Background(), m, "customers", groups, fixed(model.AutoMerge), func(row int) map[string]any {
		return map[string]any{"row": row}
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, m.Calls, 6)
	assert.Equal(t, ClearDatasetQuery, m.Calls[0].query)
	for _, c := range m.Calls[1:4] {
		assert.Equal(t, SaveRecordQuery, c.query)
	}
	var linked []int64
	for _, c := range m.Calls[4:] {
		assert.Equal(t, SaveDuplicateEdgeQuery, c.query)
		assert.Equal(t, int64(1), c.params["keeper"])
		assert.Equal(t, "auto_merge", c.params["disposition"])
		assert.Equal(t, 96.5, c.params["score"])
		linked = append(linked, c.params["row"].(int64))
	}
	assert.Equal(t, []int64{4, 7}, linked)
}

func TestExportGroups_Error(t *testing.T) {
	m := &MockDriver{FailOn: SaveDuplicateEdgeQuery, Err: errors.New("boom")}
	n, err := ExportGroups(context.Background(), m, "d", []model.DuplicateGroup{{Rows: []int{0, 1}}}, fixed(model.ReviewRequired), nil)
	assert.Zero(t, n)
	assert.ErrorContains(t, err, "failed to link record 1 to 0: boom")
}

func TestEdges(t *testing.T) {
	m := &MockDriver{Result: neo4j.EagerResult{
		Keys: []string{"row", "keeper", "score", "disposition"},
		Records: []*neo4j.Record{
			{Keys: []string{"row", "keeper", "score", "disposition"}, Values: []any{int64(2), int64(0), 91.0, "review_required"}},
		},
	}}
	edges, err := Edges(context.Background(), m, "d")
	require.NoError(t, err)
	assert.Equal(t, []Edge{{Row: 2, Keeper: 0, Score: 91, Disposition: model.ReviewRequired}}, edges)
}
