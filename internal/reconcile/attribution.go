package reconcile

import (
	"sort"
	"strings"

	"github.com/auditkraft/requex/internal/catalog"
)

// attributor resolves each candidate's target-object code using the two-tier
// scheme: a direct code from a group-scoped unit is trusted as-is; otherwise
// the candidate is assigned to the nearest heading marker at or before its
// source page. Controls owned by a global/organizational module bypass both
// tiers and attach to the umbrella scope object.
type attributor struct {
	markers        []HeadingMarker
	catalog        *catalog.Catalog
	umbrella       string
	globalPrefixes []string
}

func newAttributor(markers []HeadingMarker, cat *catalog.Catalog, umbrella string, globalPrefixes []string) *attributor {
	type markerKey struct {
		code string
		page int
	}
	seen := make(map[markerKey]bool, len(markers))
	deduped := make([]HeadingMarker, 0, len(markers))
	for _, m := range markers {
		m.Code = strings.TrimSpace(m.Code)
		if m.Code == "" {
			continue
		}
		k := markerKey{m.Code, m.Page}
		if seen[k] {
			continue
		}
		seen[k] = true
		deduped = append(deduped, m)
	}
	// Page order drives nearest-marker lookup; ties break by code so the
	// assignment never depends on fragment arrival order.
	sort.Slice(deduped, func(i, j int) bool {
		if deduped[i].Page != deduped[j].Page {
			return deduped[i].Page < deduped[j].Page
		}
		return deduped[i].Code < deduped[j].Code
	})

	return &attributor{
		markers:        deduped,
		catalog:        cat,
		umbrella:       umbrella,
		globalPrefixes: globalPrefixes,
	}
}

// assign returns the target code a candidate belongs to.
func (a *attributor) assign(c Candidate) string {
	if mod, ok := a.catalog.OwningModule(c.ControlID); ok && a.isGlobalModule(mod) {
		return a.umbrella
	}
	if code := strings.TrimSpace(c.TargetCode); code != "" {
		return code
	}
	i := sort.Search(len(a.markers), func(j int) bool { return a.markers[j].Page > c.Page })
	if i == 0 {
		return Unassigned
	}
	return a.markers[i-1].Code
}

func (a *attributor) isGlobalModule(moduleID string) bool {
	for _, p := range a.globalPrefixes {
		if strings.HasPrefix(moduleID, p) {
			return true
		}
	}
	return false
}
