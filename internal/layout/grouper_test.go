package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textBlocks(texts ...string) []RawBlock {
	blocks := make([]RawBlock, len(texts))
	for i, txt := range texts {
		blocks[i] = RawBlock{ID: i, Kind: KindText, Text: txt}
	}
	return blocks
}

func TestGroupByTarget_PartitionsEveryBlockExactlyOnce(t *testing.T) {
	blocks := textBlocks("preamble", "scope", "SRV01", "server text", "more server", "APP02", "app text")

	g, err := GroupByTarget(blocks, []string{"SRV01", "APP02", "NET03"})
	require.NoError(t, err)

	require.Len(t, g.Markers, 2, "NET03 never appears so only two markers exist")
	assert.Equal(t, Marker{Code: "SRV01", BlockID: 2}, g.Markers[0])
	assert.Equal(t, Marker{Code: "APP02", BlockID: 5}, g.Markers[1])

	assert.Len(t, g.Groups[UngroupedKey], 2, "blocks before the first marker are ungrouped")
	assert.Len(t, g.Groups["SRV01"], 3, "marker block opens its own range")
	assert.Len(t, g.Groups["APP02"], 2, "last marker owns blocks to the end")

	total := 0
	seen := make(map[int]bool)
	for _, grp := range g.Groups {
		for _, b := range grp {
			assert.False(t, seen[b.ID], "block %d assigned twice", b.ID)
			seen[b.ID] = true
			total++
		}
	}
	assert.Equal(t, len(blocks), total, "every block belongs to exactly one group")
}

func TestGroupByTarget_FirstOccurrenceWins(t *testing.T) {
	blocks := textBlocks("SRV01", "text", "SRV01", "more")

	g, err := GroupByTarget(blocks, []string{"SRV01"})
	require.NoError(t, err)

	require.Len(t, g.Markers, 1)
	assert.Equal(t, 0, g.Markers[0].BlockID)
	assert.Len(t, g.Groups["SRV01"], 4, "the repeated heading is an ordinary block of the first range")
}

func TestGroupByTarget_TrimmedExactMatchOnly(t *testing.T) {
	blocks := []RawBlock{
		{ID: 0, Kind: KindText, Text: "intro"},
		{ID: 1, Kind: KindText, Text: "  SRV01  "},
		{ID: 2, Kind: KindText, Text: "SRV01 continued"},
	}

	g, err := GroupByTarget(blocks, []string{"SRV01"})
	require.NoError(t, err)

	require.Len(t, g.Markers, 1)
	assert.Equal(t, 1, g.Markers[0].BlockID, "surrounding whitespace is trimmed, substrings never match")
}

func TestGroupByTarget_NoMarkers_Fatal(t *testing.T) {
	blocks := textBlocks("nothing", "matches", "here")

	_, err := GroupByTarget(blocks, []string{"SRV01", "APP02"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoMarkers)
}

func TestGroupByTarget_MarkersSortedByBlockID(t *testing.T) {
	// Ids intentionally out of slice order: grouping follows id ranges,
	// not slice positions.
	blocks := []RawBlock{
		{ID: 10, Kind: KindText, Text: "APP02"},
		{ID: 2, Kind: KindText, Text: "SRV01"},
		{ID: 5, Kind: KindText, Text: "between"},
		{ID: 12, Kind: KindText, Text: "after"},
		{ID: 0, Kind: KindText, Text: "before everything"},
	}

	g, err := GroupByTarget(blocks, []string{"SRV01", "APP02"})
	require.NoError(t, err)

	require.Len(t, g.Markers, 2)
	assert.Equal(t, "SRV01", g.Markers[0].Code, "markers are sorted ascending by block id")
	assert.Equal(t, "APP02", g.Markers[1].Code)

	assert.Len(t, g.Groups[UngroupedKey], 1)
	assert.Len(t, g.Groups["SRV01"], 2, "ids 2 and 5")
	assert.Len(t, g.Groups["APP02"], 2, "ids 10 and 12")
}
