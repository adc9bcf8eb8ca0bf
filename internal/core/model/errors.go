package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInputNotFound  = errors.New("input not found")
	ErrSchemaMismatch = errors.New("schema mismatch")
	ErrUnknownColumn  = errors.New("unknown column")
)

// SchemaError reports requested columns that a dataset does not carry.
type SchemaError struct {
	Requested []string `json:"requested"`
	Missing   []string `json:"missing"`
	Available []string `json:"available"`
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("columns not found: %s (available: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Available, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchemaMismatch }

// NotFound wraps ErrInputNotFound with the offending path.
func NotFound(path string) error {
	return fmt.Errorf("%w: %s", ErrInputNotFound, path)
}
