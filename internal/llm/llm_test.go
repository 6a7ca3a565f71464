package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	plain := `{"candidates": []}`
	assert.Equal(t, plain, ExtractJSON(plain))
	assert.Equal(t, plain, ExtractJSON("  \n"+plain+"\n"))
	assert.Equal(t, plain, ExtractJSON("```json\n"+plain+"\n```"))
	assert.Equal(t, plain, ExtractJSON("```\n"+plain+"\n```"))
	assert.Equal(t, plain, ExtractJSON("```json\n"+plain+"\n```\n"))
}

const testSchema = `{
	"type": "object",
	"required": ["candidates"],
	"properties": {
		"candidates": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["controlId", "status"],
				"properties": {
					"controlId": {"type": "string"},
					"status": {"type": "string"},
					"page": {"type": "integer"}
				}
			}
		}
	}
}`

func TestValidator_AcceptsConformingPayload(t *testing.T) {
	v, err := NewValidator([]byte(testSchema))
	require.NoError(t, err)

	payload := `{"candidates": [{"controlId": "SYS.1.1.A1", "status": "Ja", "page": 4}]}`
	assert.NoError(t, v.Validate([]byte(payload)))

	assert.NoError(t, v.Validate([]byte(`{"candidates": []}`)))
}

func TestValidator_RejectsNonconformingPayload(t *testing.T) {
	v, err := NewValidator([]byte(testSchema))
	require.NoError(t, err)

	err = v.Validate([]byte(`{"candidates": [{"page": 4}]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaViolation)

	err = v.Validate([]byte(`{"wrong": true}`))
	assert.ErrorIs(t, err, ErrSchemaViolation)
}

func TestValidator_MalformedJSONIsSchemaViolation(t *testing.T) {
	v, err := NewValidator([]byte(testSchema))
	require.NoError(t, err)

	err = v.Validate([]byte(`{"candidates": [`))
	assert.ErrorIs(t, err, ErrSchemaViolation,
		"truncated model output is recovered the same way as a schema mismatch")
}

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := NewClient(context.Background(), "watson", "key", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watson")
}

func TestNewClient_KnownProviders(t *testing.T) {
	c, err := NewClient(context.Background(), "anthropic", "key", "")
	require.NoError(t, err)
	assert.IsType(t, (*AnthropicClient)(nil), c)

	c, err = NewClient(context.Background(), "openai", "key", "https://llm.internal/v1")
	require.NoError(t, err)
	assert.IsType(t, (*OpenAIClient)(nil), c)
}
