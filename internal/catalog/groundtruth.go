package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// TargetObject is one auditable entity (system, process, site) of the
// audited scope, identified by its unique short code.
type TargetObject struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// GroundTruth is the authoritative mapping produced once per audited document
// set: the target objects in scope, the module-to-target associations, and
// the umbrella object that scope-wide controls attach to. Read-only input to
// grouping and attribution.
type GroundTruth struct {
	Targets       []TargetObject      `json:"targets"`
	ModuleTargets map[string][]string `json:"moduleTargets,omitempty"`
	UmbrellaCode  string              `json:"umbrellaCode"`
}

// LoadGroundTruth reads a ground-truth mapping JSON file.
func LoadGroundTruth(path string) (*GroundTruth, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read ground truth %s: %w", path, err)
	}
	var gt GroundTruth
	if err := json.Unmarshal(data, &gt); err != nil {
		return nil, fmt.Errorf("catalog: parse ground truth %s: %w", path, err)
	}
	return &gt, nil
}

// Codes returns the target-object codes in declaration order.
func (g *GroundTruth) Codes() []string {
	codes := make([]string, 0, len(g.Targets))
	for _, t := range g.Targets {
		codes = append(codes, t.Code)
	}
	return codes
}

// TargetName resolves a code to its display name, or "" when the code is not
// part of the audited scope.
func (g *GroundTruth) TargetName(code string) string {
	for _, t := range g.Targets {
		if t.Code == code {
			return t.Name
		}
	}
	return ""
}
