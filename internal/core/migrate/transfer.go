package migrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agenthands/steward/internal/core/model"
	"github.com/agenthands/steward/internal/tabular"
)

const timestampLayout = "20060102_150405"

type Report struct {
	Status                  string   `json:"status"`
	Timestamp               string   `json:"timestamp"`
	Message                 string   `json:"message"`
	HandlingOption          Handling `json:"handling_option"`
	SourceFile              string   `json:"source_file"`
	TargetFile              string   `json:"target_file"`
	TotalRecordsTransferred int      `json:"total_records_transferred"`
	DuplicatesFile          string   `json:"duplicates_file,omitempty"`
	ReportFile              string   `json:"report_file,omitempty"`
}

// Outputs are the files CheckDuplicates results are written to, all
// next to the mapped file.
type Outputs struct {
	Duplicates string `json:"duplicates"`
	Unique     string `json:"unique_records"`
	Final      string `json:"final_output,omitempty"`
}

// OutputPaths derives the output file names for mappedPath.
func OutputPaths(mappedPath string, threshold float64) Outputs {
	return Outputs{
		Duplicates: tabular.DerivedPath(mappedPath, fmt.Sprintf("_duplicates_%gpct", threshold)),
		Unique:     tabular.DerivedPath(mappedPath, "_unique"),
		Final:      tabular.DerivedPath(mappedPath, "_final"),
	}
}

// Save writes the duplicate, unique and, when decided, final tables.
func (c *Check) Save(out Outputs, delim rune) (Outputs, error) {
	if err := tabular.Write(out.Duplicates, c.Duplicates, delim); err != nil {
		return out, err
	}
	if err := tabular.Write(out.Unique, c.Unique, delim); err != nil {
		return out, err
	}
	if c.Final == nil {
		out.Final = ""
		return out, nil
	}
	return out, tabular.Write(out.Final, c.Final, delim)
}

// Transfer writes the records chosen by handling to targetPath. Skip
// takes the unique records file written by a previous check when it
// exists and everything otherwise.
func Transfer(mappedPath, targetPath string, handling Handling, now time.Time) (*Report, error) {
	switch handling {
	case HandlingSkip, HandlingOverwrite, HandlingAppend:
	default:
		return nil, fmt.Errorf("invalid handling option: %s. Must be 'skip', 'overwrite', or 'append'", handling)
	}
	mapped, err := tabular.Load(mappedPath, 0)
	if err != nil {
		return nil, err
	}

	final := mapped
	var message string
	uniquePath := tabular.DerivedPath(mappedPath, "_unique")
	switch handling {
	case HandlingSkip:
		unique, err := tabular.Load(uniquePath, 0)
		switch {
		case err == nil:
			final = unique
			message = fmt.Sprintf("Skipped duplicate records. %d unique records transferred to target.", unique.Len())
		case errors.Is(err, model.ErrInputNotFound):
			message = fmt.Sprintf("All %d records transferred to target.", mapped.Len())
		default:
			return nil, err
		}
	case HandlingOverwrite:
		message = fmt.Sprintf("All %d records transferred to target, overwriting any duplicates.", mapped.Len())
	case HandlingAppend:
		message = fmt.Sprintf("All %d records transferred to target, adding any duplicates.", mapped.Len())
	}

	if err := tabular.Write(targetPath, final, 0); err != nil {
		return nil, err
	}

	report := &Report{
		Status:                  StatusComplete,
		Timestamp:               now.Format(timestampLayout),
		Message:                 message,
		HandlingOption:          handling,
		SourceFile:              mappedPath,
		TargetFile:              targetPath,
		TotalRecordsTransferred: final.Len(),
	}
	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(mappedPath), "*_duplicates_*.csv"))
	if len(matches) > 0 {
		report.DuplicatesFile = matches[0]
	}
	return report, nil
}

// SaveReport stores r as indented JSON next to its source file.
func SaveReport(r *Report) (string, error) {
	path := filepath.Join(filepath.Dir(r.SourceFile), "transfer_report_"+r.Timestamp+".json")
	r.ReportFile = path
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode transfer report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write transfer report: %w", err)
	}
	return path, nil
}
