package core

import (
	"context"
	"encoding/json"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type MockDriver struct {
	Queries []string
	Err     error
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]any) (neo4j.EagerResult, error) {
	m.Queries = append(m.Queries, query)
	if m.Err != nil {
		return neo4j.EagerResult{}, m.Err
	}
	return neo4j.EagerResult{}, nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error {
	return nil
}

func (m *MockDriver) Close(ctx context.Context) error {
	return nil
}

type MockLLM struct {
	Response string
	Err      error
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

type run struct {
	Tool   string
	Result json.RawMessage
}

type MockRecorder struct {
	Runs []run
	Err  error
}

func (m *MockRecorder) Record(ctx context.Context, tool string, input, result any) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	b, _ := json.Marshal(result)
	m.Runs = append(m.Runs, run{Tool: tool, Result: b})
	return "run-1", nil
}
