package llm

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Validator checks generative output against a JSON schema contract.
type Validator struct {
	resolved *jsonschema.Resolved
}

// NewValidator compiles a JSON schema document.
func NewValidator(schemaJSON []byte) (*Validator, error) {
	var schema jsonschema.Schema
	if err := json.Unmarshal(schemaJSON, &schema); err != nil {
		return nil, fmt.Errorf("llm: parse schema: %w", err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("llm: resolve schema: %w", err)
	}
	return &Validator{resolved: resolved}, nil
}

// Validate decodes raw JSON and checks it against the schema. Malformed JSON
// and nonconforming payloads both report ErrSchemaViolation: from the
// caller's perspective they are the same recoverable condition.
func (v *Validator) Validate(data []byte) error {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	if err := v.resolved.Validate(value); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	return nil
}
