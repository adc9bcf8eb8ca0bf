package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/agenthands/steward/internal/core"
	"github.com/agenthands/steward/internal/history"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

type MockRuns struct {
	Runs []history.Run
	Err  error
}

func (m *MockRuns) List(ctx context.Context, limit int) ([]history.Run, error) {
	return m.Runs, m.Err
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w, out
}

func TestListTools(t *testing.T) {
	r := NewServer(core.NewSteward(nil), nil, nil).SetupRouter()

	w, out := do(t, r, http.MethodGet, "/tools", "")
	assert.Equal(t, http.StatusOK, w.Code)
	tools, ok := out["tools"].([]any)
	require.True(t, ok)
	assert.Len(t, tools, 10)
}

func TestCallTool(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "people.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,age\nAnn,30\nAnn,30\nBob,\n"), 0o644))
	r := NewServer(core.NewSteward(nil), nil, nil).SetupRouter()

	body, _ := json.Marshal(map[string]any{"file_path": path})
	w, out := do(t, r, http.MethodPost, "/tools/profile_csv", string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	info := out["file_info"].(map[string]any)
	assert.Equal(t, float64(3), info["rows"])

	w, out = do(t, r, http.MethodPost, "/tools/lead_agent", `{"task": "import", "status": "in_progress"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "monitor", out["next_action"])
}

func TestCallTool_Errors(t *testing.T) {
	dir := t.TempDir()
	r := NewServer(core.NewSteward(nil), nil, nil).SetupRouter()

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"unknown tool", "/tools/visualize_data", `{}`, http.StatusNotFound},
		{"missing file", "/tools/profile_csv", `{"file_path": "` + filepath.Join(dir, "nope.csv") + `"}`, http.StatusNotFound},
		{"malformed body", "/tools/lead_agent", `{"task": `, http.StatusBadRequest},
		{"invalid handling", "/tools/process_duplicates", `{"mapped_file_path": "a.csv", "target_path": "b.csv", "handling_option": "merge"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, out := do(t, r, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestListRuns(t *testing.T) {
	w, _ := do(t, NewServer(core.NewSteward(nil), nil, nil).SetupRouter(), http.MethodGet, "/runs", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	runs := &MockRuns{Runs: []history.Run{{ID: "r1", Tool: "clean_data", Input: json.RawMessage(`{}`), Result: json.RawMessage(`{}`)}}}
	r := NewServer(core.NewSteward(nil), runs, nil).SetupRouter()
	w, out := do(t, r, http.MethodGet, "/runs?limit=5", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["runs"], 1)

	w, _ = do(t, r, http.MethodGet, "/runs?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	runs.Err = errors.New("disk full")
	w, _ = do(t, r, http.MethodGet, "/runs", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
