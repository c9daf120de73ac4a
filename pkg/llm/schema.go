package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// validator compiles and caches JSON Schemas for structured responses.
type validator struct {
	mu       sync.Mutex
	compiled map[string]*jsonschema.Schema
}

func newValidator() *validator {
	return &validator{compiled: make(map[string]*jsonschema.Schema)}
}

func (v *validator) compile(s *Schema) (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if c, ok := v.compiled[s.Name]; ok {
		return c, nil
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	schemaURL := fmt.Sprintf("https://tribunal.schemas.local/llm/%s.schema.json", s.Name)
	if err := c.AddResource(schemaURL, strings.NewReader(s.Definition)); err != nil {
		return nil, fmt.Errorf("schema %s: load: %w", s.Name, err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("schema %s: compile: %w", s.Name, err)
	}
	v.compiled[s.Name] = compiled
	return compiled, nil
}

// parseStructured decodes raw model output and validates it against the
// declared schema. Models occasionally fence JSON in markdown; the fence
// is stripped before decoding.
func (v *validator) parseStructured(raw string, s *Schema) (map[string]any, error) {
	compiled, err := v.compile(s)
	if err != nil {
		return nil, err
	}

	trimmed := stripFences(raw)

	var value map[string]any
	if err := json.Unmarshal([]byte(trimmed), &value); err != nil {
		return nil, fmt.Errorf("schema %s: model returned invalid JSON: %w", s.Name, err)
	}

	// jsonschema validates the generic decoded form.
	var generic any
	if err := json.Unmarshal([]byte(trimmed), &generic); err != nil {
		return nil, fmt.Errorf("schema %s: decode: %w", s.Name, err)
	}
	if err := compiled.Validate(generic); err != nil {
		return nil, fmt.Errorf("schema %s: response does not conform: %w", s.Name, err)
	}
	return value, nil
}

func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}
	return strings.TrimSpace(trimmed)
}
