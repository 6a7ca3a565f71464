package reconcile

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/auditkraft/requex/internal/catalog"
)

// Engine merges the raw fragments of all extraction passes into the canonical
// requirement list. Reconciliation is a pure projection: it is recomputed
// fresh from the current fragment set on every run and yields byte-identical
// output for an unchanged set.
type Engine struct {
	catalog        *catalog.Catalog
	truth          *catalog.GroundTruth
	globalPrefixes []string
	logger         *slog.Logger
}

// NewEngine wires an Engine. globalPrefixes lists the module-id prefixes
// whose controls are scope-wide by policy; logger may be nil.
func NewEngine(cat *catalog.Catalog, truth *catalog.GroundTruth, globalPrefixes []string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		catalog:        cat,
		truth:          truth,
		globalPrefixes: globalPrefixes,
		logger:         logger,
	}
}

// Reconcile attributes every candidate to a target object, groups candidates
// by composite key, and merges each group into one canonical requirement.
// Candidates missing a key half are dropped with a warning, never merged
// under a partial key. The result is sorted by composite key.
func (e *Engine) Reconcile(fragments []Fragment) []Requirement {
	var markers []HeadingMarker
	for _, f := range fragments {
		markers = append(markers, f.Markers...)
	}
	attr := newAttributor(markers, e.catalog, e.truth.UmbrellaCode, e.globalPrefixes)

	groups := make(map[Key][]Candidate)
	for _, f := range fragments {
		for _, c := range f.Candidates {
			c.ControlID = strings.TrimSpace(c.ControlID)
			if c.ControlID == "" {
				e.logger.Warn("reconcile.drop_candidate",
					"pass", f.PassID, "unit", f.UnitKey,
					"reason", "missing control id", "page", c.Page)
				continue
			}
			code := attr.assign(c)
			if code == "" {
				e.logger.Warn("reconcile.drop_candidate",
					"pass", f.PassID, "unit", f.UnitKey,
					"control_id", c.ControlID, "reason", "missing target code")
				continue
			}
			k := Key{ControlID: c.ControlID, TargetCode: code}
			groups[k] = append(groups[k], c)
		}
	}

	keys := make([]Key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ControlID != keys[j].ControlID {
			return keys[i].ControlID < keys[j].ControlID
		}
		return keys[i].TargetCode < keys[j].TargetCode
	})

	out := make([]Requirement, 0, len(keys))
	for _, k := range keys {
		out = append(out, mergeGroup(k, groups[k], e.truth.TargetName(k.TargetCode)))
	}
	return out
}
