package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten_DepthFirstDocumentOrder(t *testing.T) {
	tree := []RawBlock{
		{ID: 0, Kind: KindText, Text: "intro"},
		{ID: 1, Kind: KindText, Text: "table heading", Children: []RawBlock{
			{ID: 2, Kind: KindTableRow, Children: []RawBlock{
				{ID: 3, Kind: KindTableCell, Text: "cell a"},
				{ID: 4, Kind: KindTableCell, Text: "cell b"},
			}},
			{ID: 5, Kind: KindTableRow, Children: []RawBlock{
				{ID: 6, Kind: KindTableCell, Text: "cell c"},
			}},
		}},
		{ID: 7, Kind: KindText, Text: "outro"},
	}

	flat := Flatten(tree)
	require.Len(t, flat, 8)

	var ids []int
	for _, b := range flat {
		ids = append(ids, b.ID)
		assert.Nil(t, b.Children, "flattened blocks must not keep children")
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, ids, "parent precedes children, rows precede cells")

	assert.Len(t, tree[1].Children, 2, "input tree must not be mutated")
}

func TestFlatten_Empty(t *testing.T) {
	assert.Nil(t, Flatten(nil))
}

func TestFlatten_DeeplyNested(t *testing.T) {
	// A pathological single chain deeper than any realistic table nesting.
	leaf := RawBlock{ID: 5000, Kind: KindText, Text: "leaf"}
	node := leaf
	for i := 4999; i >= 0; i-- {
		node = RawBlock{ID: i, Kind: KindText, Text: "n", Children: []RawBlock{node}}
	}

	flat := Flatten([]RawBlock{node})
	require.Len(t, flat, 5001)
	assert.Equal(t, 0, flat[0].ID)
	assert.Equal(t, 5000, flat[5000].ID)
}

func TestReindex_MergesStripsAndPrunes(t *testing.T) {
	docA := []RawBlock{
		{ID: 40, Kind: KindText, Text: "first"},
		{ID: 41, Kind: KindPageBreak},
		{ID: 42, Kind: KindText, Text: "second"},
	}
	docB := []RawBlock{
		{ID: 7, Kind: KindText, Text: "", Children: []RawBlock{
			{ID: 8, Kind: KindPageBreak},
		}}, // empties out, must be pruned
		{ID: 9, Kind: KindText, Text: "third", Children: []RawBlock{
			{ID: 10, Kind: KindTableRow, Children: []RawBlock{
				{ID: 11, Kind: KindTableCell, Text: "cell"},
			}},
		}},
	}

	merged := Reindex(docA, docB)
	require.Len(t, merged, 3)

	flat := Flatten(merged)
	var ids []int
	var texts []string
	for _, b := range flat {
		ids = append(ids, b.ID)
		texts = append(texts, b.Text)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, ids, "ids are reassigned monotonically in document order")
	assert.Equal(t, []string{"first", "second", "third", "", "cell"}, texts)
}

func TestReindex_KeepsEmptyContainerWithSurvivingChildren(t *testing.T) {
	doc := []RawBlock{
		{Kind: KindText, Text: "", Children: []RawBlock{
			{Kind: KindText, Text: "kept"},
		}},
	}

	merged := Reindex(doc)
	require.Len(t, merged, 1)
	require.Len(t, merged[0].Children, 1)
	assert.Equal(t, "kept", merged[0].Children[0].Text)
}
