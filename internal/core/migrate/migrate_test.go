package migrate

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agenthands/steward/internal/core/model"
	"github.com/agenthands/steward/internal/tabular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func people(names ...string) *model.Dataset {
	rows := make([][]model.Value, len(names))
	for i, n := range names {
		rows[i] = []model.Value{model.Text(n), model.Number(float64(i))}
	}
	return model.MustDataset([]string{"name", "n"}, rows)
}

func TestCheckDuplicates_Handling(t *testing.T) {
	mapped := people("Alice", "Bob", "Carol")
	target := people("Bob", "Dave")
	key := []string{"name"}

	tests := []struct {
		handling Handling
		status   string
		final    int
		message  string
	}{
		{HandlingAsk, StatusReviewNeeded, -1, "Found 1 potential duplicate records with similarity ≥100%. Please review the duplicates file and decide how to proceed. Options: 'skip' (don't import duplicates), 'overwrite' (replace existing records), or 'append' (add as new records)."},
		{HandlingSkip, StatusComplete, 2, "Skipped 1 duplicate records. 2 unique records ready for import."},
		{HandlingOverwrite, StatusComplete, 3, "All 3 records will be imported, overwriting 1 existing records."},
		{HandlingAppend, StatusComplete, 3, "All 3 records will be imported as new records, including 1 duplicates."},
	}
	for _, tt := range tests {
		t.Run(string(tt.handling), func(t *testing.T) {
			c, err := CheckDuplicates(mapped, target, Options{KeyFields: key, Threshold: 100, Handling: tt.handling})
			require.NoError(t, err)
			assert.Equal(t, tt.status, c.Status)
			assert.Equal(t, tt.message, c.Message)
			assert.Equal(t, 1, c.DuplicateCount)
			assert.Equal(t, 2, c.UniqueCount)
			if tt.final < 0 {
				assert.Nil(t, c.Final)
			} else {
				assert.Equal(t, tt.final, c.Final.Len())
			}

			assert.Equal(t, []string{"name", "n", "similarity_score", "match_row"}, c.Duplicates.ColumnNames())
			assert.Equal(t, "Bob", c.Duplicates.Value(0, "name").String())
			assert.Equal(t, model.Number(0), c.Duplicates.Value(0, "match_row"))
		})
	}
}

func TestCheckDuplicates_NoDuplicates(t *testing.T) {
	c, err := CheckDuplicates(people("Alice"), people("Zed"), Options{Threshold: 100})
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, c.Status)
	assert.Equal(t, "All 1 records are unique and ready for import.", c.Message)
	assert.Equal(t, 1, c.Final.Len())
	assert.True(t, c.DefaultedKeys)
	assert.Equal(t, []string{"n", "name"}, c.KeyFields)
}

func TestCheckDuplicates_Errors(t *testing.T) {
	_, err := CheckDuplicates(people("a"), people("b"), Options{Handling: "merge"})
	assert.ErrorContains(t, err, "invalid handling option")

	_, err = CheckDuplicates(people("a"), people("b"), Options{KeyFields: []string{"email"}})
	var schema *model.SchemaError
	require.True(t, errors.As(err, &schema))
	assert.Equal(t, []string{"email"}, schema.Missing)
}

func TestSaveAndTransfer(t *testing.T) {
	dir := t.TempDir()
	mappedPath := filepath.Join(dir, "customers_mapped.csv")
	mapped := people("Alice", "Bob", "Carol")
	require.NoError(t, tabular.Write(mappedPath, mapped, ','))

	c, err := CheckDuplicates(mapped, people("Bob"), Options{KeyFields: []string{"name"}, Threshold: 100, Handling: HandlingAsk})
	require.NoError(t, err)
	out, err := c.Save(OutputPaths(mappedPath, 100), ',')
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "customers_mapped_duplicates_100pct.csv"), out.Duplicates)
	assert.Empty(t, out.Final)

	now := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	targetPath := filepath.Join(dir, "target", "customers.csv")
	report, err := Transfer(mappedPath, targetPath, HandlingSkip, now)
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalRecordsTransferred)
	assert.Equal(t, "20240301_123000", report.Timestamp)
	assert.Equal(t, "Skipped duplicate records. 2 unique records transferred to target.", report.Message)
	assert.Equal(t, out.Duplicates, report.DuplicatesFile)

	written, err := tabular.Load(targetPath, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, written.Len())

	path, err := SaveReport(report)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, *report, decoded)

	report, err = Transfer(mappedPath, targetPath, HandlingAppend, now)
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalRecordsTransferred)

	_, err = Transfer(mappedPath, targetPath, HandlingAsk, now)
	assert.Error(t, err)
}
