package llm

import (
	"context"
)

// Client is the reasoning-service boundary the courtroom consumes.
// Generate returns raw text; GenerateStructured returns a value parsed
// and validated against the caller's declared schema.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateStructured(ctx context.Context, prompt string, schema *Schema) (map[string]any, error)
}

// Schema declares the shape a structured response must conform to.
// Definition is a JSON Schema document; it is compiled once and reused
// across turns.
type Schema struct {
	Name       string
	Definition string
}
