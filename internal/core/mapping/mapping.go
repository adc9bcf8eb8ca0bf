// Package mapping renames fields and rewrites values on the way from a
// source layout to a target layout.
package mapping

import (
	"fmt"
	"sort"

	"github.com/agenthands/steward/internal/core/model"
	"github.com/agenthands/steward/internal/tabular"
)

// FieldTarget is where a source field lands. An empty TargetField drops
// the field.
type FieldTarget struct {
	TargetField string `json:"target_field" yaml:"target_field"`
}

// FieldMapping is keyed by source field.
type FieldMapping map[string]FieldTarget

// ValueMapping holds per-field replacements, old value to new value, both
// in their rendered form.
type ValueMapping map[string]map[string]string

// ValueRow is one line of a value mapping file.
type ValueRow struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// Template maps every column onto itself.
func Template(columns []string) FieldMapping {
	m := make(FieldMapping, len(columns))
	for _, c := range columns {
		m[c] = FieldTarget{TargetField: c}
	}
	return m
}

// Blank lists every column without a target.
func Blank(columns []string) FieldMapping {
	m := make(FieldMapping, len(columns))
	for _, c := range columns {
		m[c] = FieldTarget{}
	}
	return m
}

type Summary struct {
	MappedFields         int `json:"mapped_fields"`
	UnmappedFields       int `json:"unmapped_fields"`
	TotalFields          int `json:"total_fields"`
	TotalRowsProcessed   int `json:"total_rows_processed"`
	ValueMappingsApplied int `json:"value_mappings_applied"`
}

type Result struct {
	Dataset *model.Dataset `json:"-"`
	Summary Summary        `json:"mapping_summary"`
	// Unmapped lists mapping entries that produced no column, sorted.
	Unmapped []string `json:"unmapped,omitempty"`
}

// Apply builds the target dataset. Target columns follow the order of
// their source columns in ds; entries whose source is missing or whose
// target is empty are counted as unmapped.
func Apply(ds *model.Dataset, fields FieldMapping, values ValueMapping) (*Result, error) {
	res := &Result{Summary: Summary{
		TotalFields:        ds.Width(),
		TotalRowsProcessed: ds.Len(),
	}}

	var sources, targets []string
	for _, src := range ds.ColumnNames() {
		t, ok := fields[src]
		if !ok || t.TargetField == "" {
			continue
		}
		sources = append(sources, src)
		targets = append(targets, t.TargetField)
	}
	for src, t := range fields {
		if t.TargetField == "" || !ds.HasColumn(src) {
			res.Unmapped = append(res.Unmapped, src)
		}
	}
	sort.Strings(res.Unmapped)
	res.Summary.MappedFields = len(sources)
	res.Summary.UnmappedFields = len(res.Unmapped)

	idx, err := ds.ColumnIndexes(sources)
	if err != nil {
		return nil, err
	}
	replace := make([]map[string]model.Value, len(sources))
	for i, src := range sources {
		if vm, ok := values[src]; ok {
			replace[i] = make(map[string]model.Value, len(vm))
			for old, nv := range vm {
				replace[i][old] = tabular.ParseCell(nv)
			}
			res.Summary.ValueMappingsApplied++
		}
	}

	rows := make([][]model.Value, ds.Len())
	for r := range rows {
		row := make([]model.Value, len(idx))
		for i, c := range idx {
			v := ds.At(r, c)
			if nv, ok := replace[i][v.String()]; ok && !v.IsNull() {
				v = nv
			}
			row[i] = v
		}
		rows[r] = row
	}
	out, err := model.NewDataset(targets, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to build mapped dataset: %w", err)
	}
	res.Dataset = out
	return res, nil
}

// ValueTemplate lists the distinct non-null values of field in order of
// first appearance, at most sampleSize of them, each mapped to itself.
func ValueTemplate(ds *model.Dataset, field string, sampleSize int) ([]ValueRow, error) {
	if _, err := ds.ColumnIndexes([]string{field}); err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	rows := []ValueRow{}
	for _, v := range ds.ColumnValues(field) {
		if v.IsNull() || seen[v.String()] {
			continue
		}
		if sampleSize > 0 && len(rows) >= sampleSize {
			break
		}
		seen[v.String()] = true
		rows = append(rows, ValueRow{Field: field, OldValue: v.String(), NewValue: v.String()})
	}
	return rows, nil
}

// UpdateFieldMapping sets new targets for sources already present in m
// and returns how many it changed. Unknown sources are ignored.
func UpdateFieldMapping(m FieldMapping, updates map[string]string) int {
	n := 0
	for src, target := range updates {
		if _, ok := m[src]; ok {
			m[src] = FieldTarget{TargetField: target}
			n++
		}
	}
	return n
}

// UpdateValueMapping replaces the new value of matching rows and appends
// rows for old values not present yet, in sorted order.
func UpdateValueMapping(rows []ValueRow, field string, updates map[string]string) ([]ValueRow, bool) {
	olds := make([]string, 0, len(updates))
	for old := range updates {
		olds = append(olds, old)
	}
	sort.Strings(olds)

	updated := false
	for _, old := range olds {
		found := false
		for i := range rows {
			if rows[i].Field == field && rows[i].OldValue == old {
				rows[i].NewValue = updates[old]
				found = true
				break
			}
		}
		if !found {
			rows = append(rows, ValueRow{Field: field, OldValue: old, NewValue: updates[old]})
		}
		updated = true
	}
	return rows, updated
}

// Values indexes value rows by field.
func Values(rows []ValueRow) ValueMapping {
	vm := ValueMapping{}
	for _, r := range rows {
		if r.Field == "" {
			continue
		}
		if vm[r.Field] == nil {
			vm[r.Field] = map[string]string{}
		}
		vm[r.Field][r.OldValue] = r.NewValue
	}
	return vm
}
