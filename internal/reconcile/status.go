package reconcile

import (
	"encoding/json"
	"strings"
)

// Status is the normalized implementation status of a requirement. The
// numeric order doubles as audit severity: when candidates disagree, the
// highest (worst) status wins, so a reported deficiency is never papered
// over by a more optimistic extraction pass.
type Status int

const (
	StatusUnknown Status = iota
	StatusNotApplicable
	StatusImplemented
	StatusPartial
	StatusNotImplemented
)

// statusLabels holds the canonical audit vocabulary for each status.
var statusLabels = [...]string{
	"unbekannt",
	"entbehrlich",
	"Ja",
	"teilweise",
	"Nein",
}

func (s Status) String() string {
	if s < StatusUnknown || s > StatusNotImplemented {
		return statusLabels[StatusUnknown]
	}
	return statusLabels[s]
}

// MarshalJSON renders the status as its audit label.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts any spelling ParseStatus recognizes.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParseStatus(raw)
	return nil
}

// ParseStatus normalizes a raw extraction status. Unrecognized values map to
// StatusUnknown.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ja", "yes", "umgesetzt":
		return StatusImplemented
	case "nein", "no", "nicht umgesetzt":
		return StatusNotImplemented
	case "teilweise", "partial", "teilweise umgesetzt":
		return StatusPartial
	case "entbehrlich", "n/a", "nicht anwendbar":
		return StatusNotApplicable
	default:
		return StatusUnknown
	}
}
