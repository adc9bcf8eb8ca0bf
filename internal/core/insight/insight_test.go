package insight

import (
	"context"
	"errors"
	"testing"

	"github.com/agenthands/steward/internal/core/model"
	"github.com/agenthands/steward/internal/core/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockLLM struct {
	Response string
	Err      error
	Prompts  []string
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

func dataset(t *testing.T) (*model.Dataset, *profile.Result) {
	ds := model.MustDataset([]string{"customer_name", "email", "order_total"}, [][]model.Value{
		{model.Text("Ann"), model.Text("ann@example.com"), model.Number(10)},
		{model.Text("Bo"), model.Null(), model.Number(12)},
	})
	prof, err := profile.Run(ds, profile.DefaultOptions())
	require.NoError(t, err)
	return ds, prof
}

func TestAnnotate_JSON(t *testing.T) {
	ds, prof := dataset(t)
	mock := &MockLLM{Response: "```json\n" + `{"insights": "Looks like orders.", "data_type": "Transaction data", "analysis_suggestions": ["Run a cohort analysis"]}` + "\n```"}

	got, err := NewAnnotator(mock, "").Annotate(context.Background(), ds, prof)
	require.NoError(t, err)
	assert.Equal(t, &Insight{
		Insights:            "Looks like orders.",
		DataType:            "Transaction data",
		AnalysisSuggestions: []string{"Run a cohort analysis"},
	}, got)

	require.Len(t, mock.Prompts, 1)
	assert.Contains(t, mock.Prompts[0], "- Total rows: 2")
	assert.Contains(t, mock.Prompts[0], `"email":1`)
	assert.Contains(t, mock.Prompts[0], "ann@example.com")
}

func TestAnnotate_ProseFallsBackToKeywords(t *testing.T) {
	ds, prof := dataset(t)
	mock := &MockLLM{Response: "The records describe buyers. Segmentation by spend would help. Also try anomaly detection on totals."}

	got, err := NewAnnotator(mock, "").Annotate(context.Background(), ds, prof)
	require.NoError(t, err)
	assert.Equal(t, mock.Response, got.Insights)
	assert.Equal(t, "Customer data", got.DataType)
	assert.Equal(t, []string{"Segmentation by spend would help", "Also try anomaly detection on totals"}, got.AnalysisSuggestions)
}

func TestAnnotate_Errors(t *testing.T) {
	ds, prof := dataset(t)

	_, err := (&Annotator{}).Annotate(context.Background(), ds, prof)
	assert.ErrorIs(t, err, ErrNoClient)

	boom := errors.New("boom")
	_, err = NewAnnotator(&MockLLM{Err: boom}, "").Annotate(context.Background(), ds, prof)
	assert.ErrorIs(t, err, boom)
}

func TestInferDataType(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		text    string
		want    string
	}{
		{"columns", []string{"sku", "price", "Category"}, "", "Product data"},
		{"text wins", []string{"sku", "price"}, "This is customer data.", "Customer data"},
		{"tie picks first", []string{"name", "amount"}, "", "Customer data"},
		{"nothing", []string{"x"}, "", "Customer data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferDataType(tt.columns, tt.text))
		})
	}
}

func TestSuggestions(t *testing.T) {
	assert.Equal(t, []string{genericSuggestion}, Suggestions("Nothing specific."))
	assert.Equal(t, []string{"Time series of sales is useful"}, Suggestions("Time series of sales is useful. Time series again."))
}
