package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer s.Close()

	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	first, err := s.Record(ctx, "profile_csv", map[string]string{"file_path": "a.csv"}, map[string]int{"rows": 3})
	require.NoError(t, err)
	_, err = uuid.Parse(first)
	require.NoError(t, err)
	_, err = s.Record(ctx, "clean_data", map[string]string{"file_path": "a.csv"}, map[string]int{"rows": 2})
	require.NoError(t, err)

	runs, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "clean_data", runs[0].Tool)
	assert.Equal(t, "profile_csv", runs[1].Tool)
	assert.Equal(t, first, runs[1].ID)
	assert.JSONEq(t, `{"file_path":"a.csv"}`, string(runs[1].Input))
	assert.JSONEq(t, `{"rows":3}`, string(runs[1].Result))
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 1, 0, time.UTC), runs[1].CreatedAt)

	runs, err = s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecord_Unencodable(t *testing.T) {
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Record(context.Background(), "x", func() {}, nil)
	assert.ErrorContains(t, err, "failed to encode input")
}
