// Package llm provides clients for the text-generation backend.
package llm

import "context"

// Generator is the capability the pipeline needs from a generation backend.
// The returned string is the model's raw text; an empty string is a valid
// return (the pipeline classifies it), errors are reserved for backend
// failures.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
