package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/auditkraft/requex/internal/catalog"
	"github.com/auditkraft/requex/internal/chunk"
	"github.com/auditkraft/requex/internal/layout"
	"github.com/auditkraft/requex/internal/prompts"
)

// Unit is one extraction work unit: a fixed-size page window or the block
// range of a single target object. Units shrink by bisection when the
// generative service cannot produce schema-valid output for them.
type Unit interface {
	// Key returns the unit's stable identity, used as its cache key.
	Key() string

	// Size returns the number of items (pages or blocks) the unit spans.
	Size() int

	// Split bisects the unit into two halves for retry-by-splitting.
	Split() (Unit, Unit)

	// Instruction renders the extraction instruction for the unit.
	Instruction() (string, error)

	// PinnedCode returns the target-object code every candidate of the unit
	// belongs to, or "" when the unit spans multiple target objects.
	PinnedCode() string
}

// Compile-time checks.
var (
	_ Unit = windowUnit{}
	_ Unit = groupUnit{}
)

// windowUnit is a contiguous run of preprocessed pages from one chunk window.
type windowUnit struct {
	pages []chunk.Page
	codes []string
}

// WindowUnits plans overlapping windows over pages and wraps each window as
// a work unit. codes lists the known target-object codes the model reports
// heading markers for.
func WindowUnits(pages []chunk.Page, windowSize int, codes []string) []Unit {
	windows := chunk.Plan(pages, windowSize)
	units := make([]Unit, 0, len(windows))
	for _, w := range windows {
		units = append(units, windowUnit{pages: w, codes: codes})
	}
	return units
}

// Key identifies the window by its first and last page number.
func (u windowUnit) Key() string {
	if len(u.pages) == 0 {
		return "w0-0"
	}
	return fmt.Sprintf("w%d-%d", u.pages[0].Number, u.pages[len(u.pages)-1].Number)
}

func (u windowUnit) Size() int { return len(u.pages) }

func (u windowUnit) Split() (Unit, Unit) {
	mid := len(u.pages) / 2
	return windowUnit{pages: u.pages[:mid], codes: u.codes},
		windowUnit{pages: u.pages[mid:], codes: u.codes}
}

func (u windowUnit) Instruction() (string, error) {
	return prompts.WindowInstruction(prompts.WindowData{Pages: u.pages, Codes: u.codes})
}

func (u windowUnit) PinnedCode() string { return "" }

// groupUnit is the flattened block range of a single target object.
type groupUnit struct {
	code   string
	name   string
	blocks []layout.RawBlock
}

// GroupUnits wraps each target-object group as a work unit, sorted by code.
// The ungrouped preamble bucket is skipped: it precedes the first heading
// and carries no target object to pin candidates to.
func GroupUnits(grouping *layout.Grouping, truth *catalog.GroundTruth) []Unit {
	codes := make([]string, 0, len(grouping.Groups))
	for code := range grouping.Groups {
		if code == layout.UngroupedKey {
			continue
		}
		codes = append(codes, code)
	}
	sort.Strings(codes)

	units := make([]Unit, 0, len(codes))
	for _, code := range codes {
		name := ""
		if truth != nil {
			name = truth.TargetName(code)
		}
		units = append(units, groupUnit{
			code:   code,
			name:   name,
			blocks: grouping.Groups[code],
		})
	}
	return units
}

func (u groupUnit) Key() string { return u.code }

func (u groupUnit) Size() int { return len(u.blocks) }

func (u groupUnit) Split() (Unit, Unit) {
	mid := len(u.blocks) / 2
	left, right := u, u
	left.blocks = u.blocks[:mid]
	right.blocks = u.blocks[mid:]
	return left, right
}

func (u groupUnit) Instruction() (string, error) {
	return prompts.GroupInstruction(prompts.GroupData{
		Code: u.code,
		Name: u.name,
		Text: renderBlocks(u.blocks),
	})
}

func (u groupUnit) PinnedCode() string { return u.code }

// renderBlocks lays the group's block texts out as plain lines, annotating
// page transitions the same way window pages are annotated.
func renderBlocks(blocks []layout.RawBlock) string {
	var sb strings.Builder
	page := 0
	for _, b := range blocks {
		if strings.TrimSpace(b.Text) == "" {
			continue
		}
		if b.Page != page && b.Page > 0 {
			fmt.Fprintf(&sb, "[Seite %d]\n", b.Page)
			page = b.Page
		}
		sb.WriteString(b.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}
