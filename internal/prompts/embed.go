// Package prompts embeds the generative-service instruction pack: the
// extraction instructions rendered per work unit and the JSON schema that
// every extraction response must satisfy.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/auditkraft/requex/internal/chunk"
)

//go:embed instructions/*.tmpl
var instructionFS embed.FS

//go:embed schema/fragment.json
var fragmentSchema []byte

var instructions = template.Must(template.ParseFS(instructionFS, "instructions/*.tmpl"))

// SystemInstruction is the system prompt shared by all extraction calls.
const SystemInstruction = "You are a meticulous compliance analyst. You extract " +
	"structured requirement records from German IT-Grundschutz audit documents. " +
	"You respond with a single JSON object and nothing else."

// FragmentSchema returns the JSON schema extraction responses must satisfy.
func FragmentSchema() []byte {
	return fragmentSchema
}

// WindowData fills the window-scoped instruction: the preprocessed pages of
// one chunk window plus the known target codes for heading-marker reporting.
type WindowData struct {
	Pages []chunk.Page
	Codes []string
}

// GroupData fills the group-scoped instruction: one target object and the
// document text of its section.
type GroupData struct {
	Code string
	Name string
	Text string
}

// WindowInstruction renders the instruction for one page-window work unit.
func WindowInstruction(data WindowData) (string, error) {
	var buf bytes.Buffer
	if err := instructions.ExecuteTemplate(&buf, "window.tmpl", data); err != nil {
		return "", fmt.Errorf("prompts: render window instruction: %w", err)
	}
	return buf.String(), nil
}

// GroupInstruction renders the instruction for one target-object work unit.
func GroupInstruction(data GroupData) (string, error) {
	var buf bytes.Buffer
	if err := instructions.ExecuteTemplate(&buf, "group.tmpl", data); err != nil {
		return "", fmt.Errorf("prompts: render group instruction: %w", err)
	}
	return buf.String(), nil
}
