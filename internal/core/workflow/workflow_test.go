package workflow

import (
	"testing"
	"time"

	"github.com/agenthands/steward/internal/core/model"
	"github.com/agenthands/steward/internal/core/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoute_ByIntent(t *testing.T) {
	tests := []struct {
		request string
		agent   Agent
		then    Agent
	}{
		{"Please profile this file", AgentProfiling, ""},
		{"Can you clean up my contacts?", AgentProfiling, AgentCleaning},
		{"find similar customers", AgentProfiling, AgentCleaning},
		{"map fields to the CRM schema", AgentMapping, ""},
		{"migrate to the warehouse", AgentMigration, ""},
		{"chart the results", AgentReport, ""},
		{"start a new project", AgentLead, ""},
		{"hello", AgentUnknown, ""},
	}
	for _, tt := range tests {
		t.Run(tt.request, func(t *testing.T) {
			r := Route(tt.request, nil, nil)
			assert.Equal(t, tt.agent, r.Agent)
			assert.Equal(t, tt.then, r.Then)
			assert.NotEmpty(t, r.Questions)
			assert.NotEmpty(t, r.NextSteps)
		})
	}
}

func TestRoute_WithSource(t *testing.T) {
	ds := model.MustDataset([]string{"name"}, [][]model.Value{
		{model.Text("a")}, {model.Null()}, {model.Text("c")}, {model.Text("d")},
	})

	r := Route("look for duplicates", ds, nil)
	assert.Equal(t, AgentProfiling, r.Agent)
	assert.Equal(t, AgentCleaning, r.Then)
	require.NotNil(t, r.InitialAnalysis)
	assert.Equal(t, 4, r.InitialAnalysis.Rows)
	assert.Len(t, r.InitialAnalysis.Sample, 3)
	assert.Equal(t, map[string]int{"name": 1}, r.InitialAnalysis.MissingValues)

	r = Route("here is my file", ds, nil)
	assert.Equal(t, AgentLead, r.Agent)
	assert.Len(t, r.Workflow, 6)
}

func TestRoute_AfterProfile(t *testing.T) {
	dirty := model.MustDataset([]string{"city"}, [][]model.Value{
		{model.Text("Berlin")}, {model.Text("berlin")}, {model.Null()},
	})
	prof, err := profile.Run(dirty, profile.DefaultOptions())
	require.NoError(t, err)

	r := Route("", nil, prof)
	assert.Equal(t, AgentCleaning, r.Agent)
	assert.Equal(t, prof.CleaningPlan, r.CleaningPlan)
	assert.Contains(t, r.NextSteps, "Clean data quality issues: missing values in city, inconsistent capitalization in city")

	clean := model.MustDataset([]string{"v"}, [][]model.Value{{model.Number(1)}, {model.Number(2)}})
	prof, err = profile.Run(clean, profile.DefaultOptions())
	require.NoError(t, err)
	r = Route("", nil, prof)
	assert.Equal(t, AgentMapping, r.Agent)
	assert.Equal(t, "Skipped (no issues)", r.Workflow[1].Detail)
}

func TestLead(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := map[string]string{
		"":            "initiate",
		"pending":     "initiate",
		"in_progress": "monitor",
		"completed":   "finalize",
		"failed":      "escalate",
		"paused":      "review",
	}
	for status, want := range tests {
		got := Lead("import", status, now)
		assert.Equal(t, want, got.NextAction, status)
	}
	assert.Equal(t, "Task 'import' is failed", Lead("import", "failed", now).OrchestrationStatus)
}
