package llm

import (
	"context"
	"errors"
)

// ErrSchemaViolation reports generative output that failed the schema
// contract (malformed JSON included). Callers recover by retrying with a
// stronger model and, failing that, by splitting the work unit.
var ErrSchemaViolation = errors.New("llm: response violates schema")

// Request is one generative call. Model selects the provider's variant by
// name; the fallback chain passes different models through the same client.
type Request struct {
	Model  string
	System string
	Prompt string
}

// Client is the interface to a generative model provider.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// maxOutputTokens bounds provider responses. Extraction fragments are JSON
// documents of at most a few hundred records.
const maxOutputTokens = 8192
