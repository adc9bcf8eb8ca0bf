package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agenthands/steward/internal/core/model"
	"github.com/agenthands/steward/internal/tabular"
	"gopkg.in/yaml.v3"
)

var valueHeader = []string{"field", "old_value", "new_value"}

// LoadFieldMapping reads a field mapping from JSON, YAML (.yaml, .yml)
// or CSV with source_field and target_field columns.
func LoadFieldMapping(path string) (FieldMapping, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadFieldCSV(path)
	case ".yaml", ".yml":
		data, err := readFile(path)
		if err != nil {
			return nil, err
		}
		m := FieldMapping{}
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("invalid YAML in field mapping file %s: %w", path, err)
		}
		return m, nil
	default:
		data, err := readFile(path)
		if err != nil {
			return nil, err
		}
		m := FieldMapping{}
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("invalid JSON in field mapping file %s: %w", path, err)
		}
		return m, nil
	}
}

func loadFieldCSV(path string) (FieldMapping, error) {
	ds, err := tabular.Load(path, 0)
	if err != nil {
		return nil, err
	}
	m := FieldMapping{}
	if !ds.HasColumn("source_field") || !ds.HasColumn("target_field") {
		return m, nil
	}
	for r := 0; r < ds.Len(); r++ {
		src := ds.Value(r, "source_field").String()
		if src == "" {
			continue
		}
		m[src] = FieldTarget{TargetField: ds.Value(r, "target_field").String()}
	}
	return m, nil
}

// SaveFieldMapping writes m as YAML for .yaml/.yml paths, JSON otherwise.
func SaveFieldMapping(path string, m FieldMapping) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(m)
	default:
		data, err = json.MarshalIndent(m, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode field mapping: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write field mapping %s: %w", path, err)
	}
	return nil
}

// LoadValueRows reads a value mapping file: field, old value and new
// value in the first three columns, whatever their names.
func LoadValueRows(path string) ([]ValueRow, error) {
	ds, err := tabular.Load(path, 0)
	if err != nil {
		return nil, err
	}
	if ds.Width() < 3 {
		return nil, fmt.Errorf("value mapping file %s has %d columns, expected at least 3", path, ds.Width())
	}
	rows := make([]ValueRow, 0, ds.Len())
	for r := 0; r < ds.Len(); r++ {
		rows = append(rows, ValueRow{
			Field:    ds.At(r, 0).String(),
			OldValue: ds.At(r, 1).String(),
			NewValue: ds.At(r, 2).String(),
		})
	}
	return rows, nil
}

func SaveValueRows(path string, rows []ValueRow, delim rune) error {
	cells := make([][]model.Value, len(rows))
	for i, r := range rows {
		cells[i] = []model.Value{model.Text(r.Field), model.Text(r.OldValue), model.Text(r.NewValue)}
	}
	ds, err := model.NewDataset(valueHeader, cells)
	if err != nil {
		return err
	}
	return tabular.Write(path, ds, delim)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, model.NotFound(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
