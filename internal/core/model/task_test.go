package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskEnvelope_Decode(t *testing.T) {
	raw := `[
		{"type": "remove_exact_duplicates", "columns": ["id"]},
		{"type": "review_fuzzy_duplicates", "columns": ["name"]},
		{"type": "handle_missing_values", "column": "age", "strategy": "median"},
		{"type": "standardize_capitalization", "column": "city"}
	]`

	var envs []TaskEnvelope
	require.NoError(t, json.Unmarshal([]byte(raw), &envs))
	tasks := UnwrapTasks(envs)
	require.Len(t, tasks, 4)

	assert.Equal(t, RemoveExactDuplicates{Columns: []string{"id"}}, tasks[0])
	assert.Equal(t, ReviewFuzzyDuplicates{Columns: []string{"name"}, Threshold: 90}, tasks[1])
	assert.Equal(t, HandleMissingValues{Column: "age", Strategy: MissingMedian}, tasks[2])
	assert.Equal(t, StandardizeCapitalization{Column: "city"}, tasks[3])
}

func TestTaskEnvelope_RejectsUnknown(t *testing.T) {
	var env TaskEnvelope
	assert.Error(t, json.Unmarshal([]byte(`{"type": "reticulate_splines"}`), &env))
	assert.Error(t, json.Unmarshal([]byte(`{"type": "handle_missing_values", "column": "a", "strategy": "guess"}`), &env))
}

func TestTaskEnvelope_EncodeCarriesType(t *testing.T) {
	b, err := json.Marshal(TaskEnvelope{Task: HandleMissingValues{Column: "age", Strategy: MissingZero}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"handle_missing_values","column":"age","strategy":"zero"}`, string(b))
}

func TestDuplicateGroup_Keeper(t *testing.T) {
	g := DuplicateGroup{Rows: []int{4, 2, 9}}
	assert.Equal(t, 2, g.Keeper())
}
