package layout

import "strings"

// Kind identifies the structural role of a block in the conversion output.
type Kind string

const (
	KindText      Kind = "text"
	KindTableRow  Kind = "table-row"
	KindTableCell Kind = "table-cell"

	// KindPageBreak marks a page boundary in raw conversion output. These
	// blocks carry no content and are stripped during re-indexing.
	KindPageBreak Kind = "page-break"
)

// RawBlock is one node of the layout tree returned by the document
// conversion service. Blocks are immutable once produced; grouping and
// extraction operate on flattened copies.
type RawBlock struct {
	ID       int        `json:"id"`
	Kind     Kind       `json:"kind"`
	Text     string     `json:"text,omitempty"`
	Page     int        `json:"page,omitempty"`
	Children []RawBlock `json:"children,omitempty"`
}

// Flatten converts a block tree into one linear sequence preserving document
// order: each block precedes its children, text-container children before
// table row and cell children as they appear. The traversal uses an explicit
// work stack so deeply nested tables cannot exhaust the call stack. Children
// are detached from the flattened copies.
func Flatten(blocks []RawBlock) []RawBlock {
	if len(blocks) == 0 {
		return nil
	}

	stack := make([]RawBlock, 0, len(blocks))
	for i := len(blocks) - 1; i >= 0; i-- {
		stack = append(stack, blocks[i])
	}

	var out []RawBlock
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children := b.Children
		b.Children = nil
		out = append(out, b)

		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return out
}

// Reindex merges the block trees of multiple conversion outputs into one:
// page-boundary markers are stripped, containers left without text or
// children are pruned, and surviving blocks receive a fresh monotonic id
// sequence in document order.
func Reindex(docs ...[]RawBlock) []RawBlock {
	var merged []RawBlock
	for _, doc := range docs {
		merged = append(merged, prune(doc)...)
	}
	next := 0
	assignIDs(merged, &next)
	return merged
}

func prune(blocks []RawBlock) []RawBlock {
	var out []RawBlock
	for _, b := range blocks {
		if b.Kind == KindPageBreak {
			continue
		}
		b.Children = prune(b.Children)
		if len(b.Children) == 0 && strings.TrimSpace(b.Text) == "" {
			continue
		}
		out = append(out, b)
	}
	return out
}

func assignIDs(blocks []RawBlock, next *int) {
	for i := range blocks {
		blocks[i].ID = *next
		*next++
		assignIDs(blocks[i].Children, next)
	}
}
