package tabular

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/agenthands/steward/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestSniffDelimiter(t *testing.T) {
	comma := writeFile(t, "a.csv", "a,b,c\n1,2,3\n")
	semi := writeFile(t, "b.csv", "a;b;c\n1,5;2;3\n")

	d, err := SniffDelimiter(comma)
	require.NoError(t, err)
	assert.Equal(t, ',', d)

	d, err = SniffDelimiter(semi)
	require.NoError(t, err)
	assert.Equal(t, ';', d)
}

func TestLoad_TypesCells(t *testing.T) {
	p := writeFile(t, "people.csv", "\xEF\xBB\xBFid,name,active,joined,score\n1,Acme Inc,true,2024-03-01,NA\n2,ACME INC,False,,4.5\n3,Other Co\n")

	ds, err := Load(p, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "active", "joined", "score"}, ds.ColumnNames())
	assert.Equal(t, 3, ds.Len())

	assert.Equal(t, model.Number(1), ds.Value(0, "id"))
	assert.Equal(t, model.Text("ACME INC"), ds.Value(1, "name"))
	assert.Equal(t, model.Bool(false), ds.Value(1, "active"))
	assert.Equal(t, "2024-03-01", ds.Value(0, "joined").String())
	assert.True(t, ds.Value(0, "score").IsNull())
	// Short rows are padded with nulls.
	assert.True(t, ds.Value(2, "active").IsNull())

	col, _ := ds.Column("score")
	assert.Equal(t, model.KindNumber, col.Kind)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"), ',')
	assert.True(t, errors.Is(err, model.ErrInputNotFound))
}

func TestLoad_HeaderOnly(t *testing.T) {
	ds, err := Load(writeFile(t, "h.csv", "a,b\n"), ',')
	require.NoError(t, err)
	assert.Zero(t, ds.Len())
	assert.Equal(t, []string{"a", "b"}, ds.ColumnNames())
}

func TestHeader(t *testing.T) {
	cols, err := Header(writeFile(t, "h.csv", "\xEF\xBB\xBF id ; name\n1;a\n"), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, cols)
}

func TestWrite_RoundTrip(t *testing.T) {
	ds := model.MustDataset([]string{"name", "n"}, [][]model.Value{
		{model.Text("a;b"), model.Number(1.5)},
		{model.Null(), model.Number(2)},
	})
	p := filepath.Join(t.TempDir(), "out", "x.csv")
	require.NoError(t, Write(p, ds, ';'))

	back, err := Load(p, ';')
	require.NoError(t, err)
	assert.Equal(t, model.Text("a;b"), back.Value(0, "name"))
	assert.True(t, back.Value(1, "name").IsNull())
	assert.Equal(t, model.Number(2), back.Value(1, "n"))
}

func TestParseCell(t *testing.T) {
	assert.Equal(t, model.Null(), ParseCell("  "))
	assert.Equal(t, model.Null(), ParseCell("N/A"))
	assert.Equal(t, model.Number(-3.25), ParseCell("-3.25"))
	assert.Equal(t, model.Text("Inf"), ParseCell("Inf"))
	assert.Equal(t, model.Bool(true), ParseCell("TRUE"))
	assert.Equal(t, model.KindDate, ParseCell("2024-01-02T10:00:00Z").Kind())
	assert.Equal(t, model.Text("12 Main St"), ParseCell("12 Main St"))
}

func TestDerivedPath(t *testing.T) {
	assert.Equal(t, "/data/in_mapped.csv", DerivedPath("/data/in.csv", "_mapped"))
}
