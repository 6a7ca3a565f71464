package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Entry is one control of the static catalog.
type Entry struct {
	ControlID string `json:"controlId"`
	Title     string `json:"title"`
	Level     int    `json:"level"` // 1 = mandatory
	ModuleID  string `json:"moduleId"`
}

// Catalog is a read-only lookup over the control catalog, loaded once per run.
type Catalog struct {
	entries  map[string]Entry
	byModule map[string][]string
}

// New builds a Catalog from entries. Later duplicates of a control id replace
// earlier ones.
func New(entries []Entry) *Catalog {
	c := &Catalog{
		entries:  make(map[string]Entry, len(entries)),
		byModule: make(map[string][]string),
	}
	for _, e := range entries {
		c.entries[e.ControlID] = e
	}
	for id, e := range c.entries {
		c.byModule[e.ModuleID] = append(c.byModule[e.ModuleID], id)
	}
	for _, ids := range c.byModule {
		sort.Strings(ids)
	}
	return c
}

// LoadCatalog reads the catalog JSON file (an array of entries).
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return New(entries), nil
}

// Lookup returns the catalog entry for a control id.
func (c *Catalog) Lookup(controlID string) (Entry, bool) {
	e, ok := c.entries[controlID]
	return e, ok
}

// OwningModule returns the module id that owns a control, if the control is
// known to the catalog.
func (c *Catalog) OwningModule(controlID string) (string, bool) {
	e, ok := c.entries[controlID]
	if !ok {
		return "", false
	}
	return e.ModuleID, true
}

// ModuleControls lists the entries of one module, sorted by control id.
func (c *Catalog) ModuleControls(moduleID string) []Entry {
	ids := c.byModule[moduleID]
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.entries[id])
	}
	return out
}

// Len reports the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}
