package layout

import (
	"errors"
	"sort"
	"strings"
)

// UngroupedKey is the bucket for blocks that precede the first marker.
const UngroupedKey = "_UNGROUPED_"

// ErrNoMarkers reports a document in which no target-object heading could be
// recognized. Attribution is impossible for such a document, so the grouping
// stage must abort instead of degrading quietly.
var ErrNoMarkers = errors.New("layout: no target-object markers found")

// Marker records the block at which a target object's section begins.
type Marker struct {
	Code    string `json:"code"`
	BlockID int    `json:"blockId"`
}

// Grouping is the persisted result of one grouping pass: the markers found
// and the blocks owned by each target-object code, in original order.
type Grouping struct {
	Markers []Marker              `json:"markers"`
	Groups  map[string][]RawBlock `json:"groups"`
}

// GroupByTarget partitions a flattened block sequence into per-target-object
// groups. A block whose trimmed text equals an as-yet-unmatched target code
// exactly becomes that code's marker; the first occurrence wins, so each code
// has at most one marker. Markers sorted ascending by block id define
// contiguous ranges: blocks before the first marker land in UngroupedKey,
// every other block belongs to the nearest marker at or before its id.
// Returns ErrNoMarkers when the document contains no recognizable heading.
func GroupByTarget(blocks []RawBlock, codes []string) (*Grouping, error) {
	pending := make(map[string]bool, len(codes))
	for _, c := range codes {
		if c != "" {
			pending[c] = true
		}
	}

	var markers []Marker
	for _, b := range blocks {
		text := strings.TrimSpace(b.Text)
		if text == "" || !pending[text] {
			continue
		}
		markers = append(markers, Marker{Code: text, BlockID: b.ID})
		delete(pending, text)
	}
	if len(markers) == 0 {
		return nil, ErrNoMarkers
	}

	sort.Slice(markers, func(i, j int) bool { return markers[i].BlockID < markers[j].BlockID })

	groups := make(map[string][]RawBlock, len(markers)+1)
	for _, b := range blocks {
		code := ownerCode(markers, b.ID)
		groups[code] = append(groups[code], b)
	}

	return &Grouping{Markers: markers, Groups: groups}, nil
}

// ownerCode returns the code of the last marker at or before id, or
// UngroupedKey when id precedes every marker.
func ownerCode(markers []Marker, id int) string {
	i := sort.Search(len(markers), func(j int) bool { return markers[j].BlockID > id })
	if i == 0 {
		return UngroupedKey
	}
	return markers[i-1].Code
}
