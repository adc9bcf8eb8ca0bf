// Package tabular reads and writes delimited files as model datasets.
package tabular

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/agenthands/steward/internal/core/model"
)

const sniffBytes = 4096

var bom = []byte{0xEF, 0xBB, 0xBF}

var nullTokens = map[string]bool{
	"na": true, "nan": true, "null": true, "none": true, "n/a": true,
}

// SniffDelimiter returns ';' when semicolons outnumber commas in the
// first bytes of the file, ',' otherwise.
func SniffDelimiter(path string) (rune, error) {
	f, err := open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	buf := make([]byte, sniffBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	sample := buf[:n]
	if bytes.Count(sample, []byte{';'}) > bytes.Count(sample, []byte{','}) {
		return ';', nil
	}
	return ',', nil
}

// Load reads the whole file. A zero delim is sniffed.
func Load(path string, delim rune) (*model.Dataset, error) {
	r, err := openReader(path, delim)
	if err != nil {
		return nil, err
	}
	defer r.f.Close()
	return r.readAll()
}

// Header reads only the column names.
func Header(path string, delim rune) ([]string, error) {
	r, err := openReader(path, delim)
	if err != nil {
		return nil, err
	}
	defer r.f.Close()
	return append([]string(nil), r.header...), nil
}

type reader struct {
	f      *os.File
	csv    *csv.Reader
	header []string
}

func openReader(path string, delim rune) (*reader, error) {
	if delim == 0 {
		d, err := SniffDelimiter(path)
		if err != nil {
			return nil, err
		}
		delim = d
	}
	f, err := open(path)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(f)
	if head, _ := br.Peek(len(bom)); bytes.Equal(head, bom) {
		_, _ = br.Discard(len(bom))
	}
	cr := csv.NewReader(br)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		f.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty file", path)
		}
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	return &reader{f: f, csv: cr, header: header}, nil
}

// readAll types every remaining row. Short rows are padded with nulls.
func (r *reader) readAll() (*model.Dataset, error) {
	var rows [][]model.Value
	for {
		rec, err := r.csv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(rows)+1, err)
		}
		row := make([]model.Value, len(r.header))
		for i := range row {
			if i < len(rec) {
				row[i] = ParseCell(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return model.NewDataset(r.header, rows)
}

// ParseCell types a raw field.
func ParseCell(raw string) model.Value {
	s := strings.TrimSpace(raw)
	if s == "" || nullTokens[strings.ToLower(s)] {
		return model.Null()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !strings.ContainsAny(s, "xXpP_") && !isSpecialFloat(s) {
		return model.Number(f)
	}
	switch strings.ToLower(s) {
	case "true":
		return model.Bool(true)
	case "false":
		return model.Bool(false)
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return model.Date(t)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return model.Date(t)
	}
	return model.Text(raw)
}

func isSpecialFloat(s string) bool {
	l := strings.ToLower(strings.TrimLeft(s, "+-"))
	return l == "inf" || l == "infinity"
}

// Write stores ds with a header row; nulls become empty fields.
func Write(path string, ds *model.Dataset, delim rune) error {
	if delim == 0 {
		delim = ','
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = delim
	if err := w.Write(ds.ColumnNames()); err != nil {
		return err
	}
	rec := make([]string, ds.Width())
	for r := 0; r < ds.Len(); r++ {
		for c := range rec {
			rec[c] = ds.At(r, c).String()
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// DerivedPath inserts suffix before the extension of path.
func DerivedPath(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, model.NotFound(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}
