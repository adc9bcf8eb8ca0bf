// Package migrate checks mapped records against the data already in the
// target and moves the accepted records over.
package migrate

import (
	"fmt"

	"github.com/agenthands/steward/internal/core/model"
	"github.com/agenthands/steward/internal/core/reconcile"
)

// Handling says what to do with records that already exist in the
// target.
type Handling string

const (
	HandlingAsk       Handling = "ask"
	HandlingSkip      Handling = "skip"
	HandlingOverwrite Handling = "overwrite"
	HandlingAppend    Handling = "append"
)

const (
	StatusComplete     = "complete"
	StatusReviewNeeded = "review_needed"
)

func ParseHandling(s string) (Handling, error) {
	switch h := Handling(s); h {
	case HandlingAsk, HandlingSkip, HandlingOverwrite, HandlingAppend:
		return h, nil
	case "":
		return HandlingAsk, nil
	}
	return "", fmt.Errorf("invalid handling option: %s. Must be 'ask', 'skip', 'overwrite', or 'append'", s)
}

type Options struct {
	KeyFields []string
	Threshold float64
	Handling  Handling
}

// Check is the outcome of CheckDuplicates. Final is nil while the
// decision is left to a person.
type Check struct {
	MappedRecords  int               `json:"mapped_records"`
	TargetRecords  int               `json:"target_records"`
	Threshold      float64           `json:"similarity_threshold"`
	KeyFields      []string          `json:"key_fields_used"`
	DefaultedKeys  bool              `json:"default_key_fields,omitempty"`
	Matches        *reconcile.Result `json:"matches"`
	DuplicateCount int               `json:"duplicate_count"`
	UniqueCount    int               `json:"unique_count"`
	Handling       Handling          `json:"handling_option"`
	Status         string            `json:"status"`
	Message        string            `json:"message"`

	Duplicates *model.Dataset `json:"-"`
	Unique     *model.Dataset `json:"-"`
	Final      *model.Dataset `json:"-"`
}

// CheckDuplicates reconciles mapped against target and applies the
// handling option to the result.
func CheckDuplicates(mapped, target *model.Dataset, opts Options) (*Check, error) {
	handling, err := ParseHandling(string(opts.Handling))
	if err != nil {
		return nil, err
	}
	res, err := reconcile.Reconcile(mapped, target, reconcile.Options{KeyFields: opts.KeyFields, Threshold: opts.Threshold})
	if err != nil {
		return nil, err
	}

	c := &Check{
		MappedRecords:  mapped.Len(),
		TargetRecords:  target.Len(),
		Threshold:      opts.Threshold,
		KeyFields:      res.KeyFields,
		DefaultedKeys:  len(opts.KeyFields) == 0,
		Matches:        res,
		DuplicateCount: len(res.Duplicates),
		UniqueCount:    len(res.Unique),
		Handling:       handling,
		Unique:         mapped.Select(res.Unique),
	}
	if c.Duplicates, err = duplicateRecords(mapped, res.Duplicates); err != nil {
		return nil, err
	}

	dups, total := c.DuplicateCount, mapped.Len()
	c.Status = StatusComplete
	switch {
	case dups == 0:
		c.Final = mapped
		c.Message = fmt.Sprintf("All %d records are unique and ready for import.", total)
	case handling == HandlingAsk:
		c.Status = StatusReviewNeeded
		c.Message = fmt.Sprintf("Found %d potential duplicate records with similarity ≥%g%%. "+
			"Please review the duplicates file and decide how to proceed. "+
			"Options: 'skip' (don't import duplicates), 'overwrite' (replace existing records), "+
			"or 'append' (add as new records).", dups, opts.Threshold)
	case handling == HandlingSkip:
		c.Final = c.Unique
		c.Message = fmt.Sprintf("Skipped %d duplicate records. %d unique records ready for import.", dups, c.UniqueCount)
	case handling == HandlingOverwrite:
		c.Final = mapped
		c.Message = fmt.Sprintf("All %d records will be imported, overwriting %d existing records.", total, dups)
	case handling == HandlingAppend:
		c.Final = mapped
		c.Message = fmt.Sprintf("All %d records will be imported as new records, including %d duplicates.", total, dups)
	}
	return c, nil
}

// duplicateRecords lists the duplicate rows of mapped in match order with
// their score and the matching target row appended.
func duplicateRecords(mapped *model.Dataset, matches []model.CrossMatch) (*model.Dataset, error) {
	names := append(mapped.ColumnNames(), "similarity_score", "match_row")
	rows := make([][]model.Value, len(matches))
	for i, m := range matches {
		rows[i] = append(mapped.Row(m.Row), model.Number(m.Similarity), model.Number(float64(m.Match)))
	}
	ds, err := model.NewDataset(names, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to build duplicates table: %w", err)
	}
	return ds, nil
}
