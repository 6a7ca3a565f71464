package reconcile

import "time"

// Unassigned is the reserved target code for candidates that no heading
// marker could claim.
const Unassigned = "Unassigned"

// HeadingMarker is a target-object heading observed by the generative
// service: the object's code and the page it appeared on.
type HeadingMarker struct {
	Code string `json:"code"`
	Page int    `json:"page"`
}

// Candidate is one raw requirement candidate from an extraction fragment.
// Status and LastChecked are kept verbatim as extracted; normalization
// happens during merging.
type Candidate struct {
	ControlID   string `json:"controlId"`
	TargetCode  string `json:"targetCode,omitempty"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	Explanation string `json:"explanation"`
	LastChecked string `json:"lastChecked,omitempty"`
	Page        int    `json:"page,omitempty"`
}

// Fragment is the persisted output of one (pass, work unit) extraction.
type Fragment struct {
	PassID     string          `json:"passId"`
	UnitKey    string          `json:"unitKey"`
	Candidates []Candidate     `json:"candidates"`
	Markers    []HeadingMarker `json:"markers,omitempty"`
}

// Key is the composite identity of a canonical requirement.
type Key struct {
	ControlID  string `json:"controlId"`
	TargetCode string `json:"targetCode"`
}

// Requirement is one canonical merged record.
type Requirement struct {
	ControlID   string    `json:"controlId"`
	TargetCode  string    `json:"targetCode"`
	TargetName  string    `json:"targetName,omitempty"`
	Title       string    `json:"title"`
	Status      Status    `json:"status"`
	Explanation string    `json:"explanation"`
	LastChecked time.Time `json:"lastChecked"`
}

// Key returns the requirement's composite identity.
func (r Requirement) Key() Key {
	return Key{ControlID: r.ControlID, TargetCode: r.TargetCode}
}
