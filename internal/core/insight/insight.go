// Package insight asks a language model for an advisory reading of a
// profiled dataset. Nothing downstream depends on its answer.
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/agenthands/steward/internal/core/common"
	"github.com/agenthands/steward/internal/core/model"
	"github.com/agenthands/steward/internal/core/profile"
	"github.com/agenthands/steward/internal/llm"
)

const sampleRecords = 5

// DefaultPrompt takes the dataset description as its only argument.
const DefaultPrompt = `You are a data analysis expert. Analyze this dataset and provide insights.

%s

Based on this information, provide:
1. Data type identification: what type of data is this (customer data, product data, transaction data)?
2. Data quality assessment: the main quality issues and how they affect analysis.
3. Potential insights: patterns or relationships that might exist in this data.
4. Recommendations: specific steps to clean and prepare this data.
5. Analysis suggestions: the analyses that would be most valuable.

Respond with a JSON object:
{"insights": "<your full analysis>", "data_type": "<Customer data|Product data|Transaction data|...>", "analysis_suggestions": ["..."]}`

var ErrNoClient = errors.New("no language model configured")

type Insight struct {
	Insights            string   `json:"insights"`
	DataType            string   `json:"data_type"`
	AnalysisSuggestions []string `json:"analysis_suggestions"`
}

type Annotator struct {
	LLM    llm.LLMClient
	Prompt string
}

func NewAnnotator(client llm.LLMClient, prompt string) *Annotator {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	return &Annotator{LLM: client, Prompt: prompt}
}

// Annotate describes ds and prof to the model. A JSON answer is used as
// is; a prose answer is kept whole and classified by keywords.
func (a *Annotator) Annotate(ctx context.Context, ds *model.Dataset, prof *profile.Result) (*Insight, error) {
	if a == nil || a.LLM == nil {
		return nil, ErrNoClient
	}
	prompt := fmt.Sprintf(a.Prompt, Describe(ds, prof))

	response, err := a.LLM.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate insight: %w", err)
	}

	parsed, err := common.ParseJSON[Insight](response)
	if err != nil || parsed.Insights == "" {
		parsed = Insight{Insights: strings.TrimSpace(response)}
	}
	if parsed.DataType == "" {
		parsed.DataType = InferDataType(ds.ColumnNames(), parsed.Insights)
	}
	if len(parsed.AnalysisSuggestions) == 0 {
		parsed.AnalysisSuggestions = Suggestions(parsed.Insights)
	}
	return &parsed, nil
}

// Describe renders the facts the model is given about a dataset.
func Describe(ds *model.Dataset, prof *profile.Result) string {
	types := map[string]string{}
	missing := map[string]int{}
	unique := map[string]int{}
	for _, c := range ds.Columns() {
		types[c.Name] = c.Kind.String()
		if st, ok := prof.ColumnStats[c.Name]; ok {
			missing[c.Name] = st.Nulls
			unique[c.Name] = st.UniqueValues
		}
	}
	n := min(sampleRecords, ds.Len())
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}

	var b strings.Builder
	fmt.Fprintf(&b, "- Total rows: %d\n", ds.Len())
	fmt.Fprintf(&b, "- Total columns: %d\n", ds.Width())
	fmt.Fprintf(&b, "- Columns: %s\n", strings.Join(ds.ColumnNames(), ", "))
	fmt.Fprintf(&b, "- Column types: %s\n", compact(types))
	fmt.Fprintf(&b, "- Missing values per column: %s\n", compact(missing))
	fmt.Fprintf(&b, "- Unique values per column: %s\n\n", compact(unique))
	sample, _ := json.MarshalIndent(ds.Records(rows), "", "  ")
	fmt.Fprintf(&b, "Sample of the data:\n%s\n\n", sample)
	fmt.Fprintf(&b, "Profile summary:\n%s", prof.Summary)
	return b.String()
}

func compact(v any) string {
	data, _ := json.Marshal(v)
	return string(data)
}
