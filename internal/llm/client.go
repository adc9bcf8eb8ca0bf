package llm

import (
	"context"
)

// LLMClient generates free text for a prompt. Nothing in the cleaning
// pipeline depends on it; it only backs advisory annotation.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
