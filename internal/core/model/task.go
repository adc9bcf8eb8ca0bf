package model

import (
	"encoding/json"
	"fmt"
)

// CleaningTask is the closed set of cleaning operations. Only types in
// this package implement it.
type CleaningTask interface {
	TaskType() string
	isCleaningTask()
}

type RemoveExactDuplicates struct {
	Columns []string `json:"columns,omitempty"`
}

type ReviewFuzzyDuplicates struct {
	Columns   []string `json:"columns,omitempty"`
	Threshold int      `json:"threshold"`
}

// MissingStrategy selects how nulls are filled.
type MissingStrategy string

const (
	MissingAuto   MissingStrategy = "auto"
	MissingRemove MissingStrategy = "remove"
	MissingMean   MissingStrategy = "mean"
	MissingMedian MissingStrategy = "median"
	MissingMode   MissingStrategy = "mode"
	MissingZero   MissingStrategy = "zero"
)

func (s MissingStrategy) Valid() bool {
	switch s {
	case MissingAuto, MissingRemove, MissingMean, MissingMedian, MissingMode, MissingZero:
		return true
	}
	return false
}

type HandleMissingValues struct {
	Column   string          `json:"column"`
	Strategy MissingStrategy `json:"strategy"`
}

type StandardizeCapitalization struct {
	Column string `json:"column"`
}

func (RemoveExactDuplicates) TaskType() string     { return "remove_exact_duplicates" }
func (ReviewFuzzyDuplicates) TaskType() string     { return "review_fuzzy_duplicates" }
func (HandleMissingValues) TaskType() string       { return "handle_missing_values" }
func (StandardizeCapitalization) TaskType() string { return "standardize_capitalization" }

func (RemoveExactDuplicates) isCleaningTask()     {}
func (ReviewFuzzyDuplicates) isCleaningTask()     {}
func (HandleMissingValues) isCleaningTask()       {}
func (StandardizeCapitalization) isCleaningTask() {}

// TaskEnvelope is the wire form of a CleaningTask: a type tag plus the
// variant's own fields.
type TaskEnvelope struct {
	Task CleaningTask
}

func (e TaskEnvelope) MarshalJSON() ([]byte, error) {
	body, err := json.Marshal(e.Task)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["type"] = e.Task.TaskType()
	return json.Marshal(fields)
}

func (e *TaskEnvelope) UnmarshalJSON(data []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	var task CleaningTask
	switch head.Type {
	case "remove_exact_duplicates":
		var t RemoveExactDuplicates
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		task = t
	case "review_fuzzy_duplicates":
		t := ReviewFuzzyDuplicates{Threshold: 90}
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		task = t
	case "handle_missing_values":
		t := HandleMissingValues{Strategy: MissingAuto}
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		if !t.Strategy.Valid() {
			return fmt.Errorf("unknown missing-value strategy %q", t.Strategy)
		}
		task = t
	case "standardize_capitalization":
		var t StandardizeCapitalization
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		task = t
	default:
		return fmt.Errorf("unknown cleaning task type %q", head.Type)
	}
	e.Task = task
	return nil
}

// WrapTasks converts tasks to their wire form.
func WrapTasks(tasks []CleaningTask) []TaskEnvelope {
	out := make([]TaskEnvelope, len(tasks))
	for i, t := range tasks {
		out[i] = TaskEnvelope{Task: t}
	}
	return out
}

// UnwrapTasks is the inverse of WrapTasks.
func UnwrapTasks(envs []TaskEnvelope) []CleaningTask {
	out := make([]CleaningTask, len(envs))
	for i, e := range envs {
		out[i] = e.Task
	}
	return out
}
