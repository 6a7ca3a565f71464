package chunk

import (
	"math"
	"strings"
	"unicode/utf8"
)

// MinUnitSize is the floor for splittable work units. Units at or below this
// size are never bisected further by the extraction orchestrator.
const MinUnitSize = 50

const (
	maxTextRunes       = 2000
	truncatedTextRunes = 1800
	truncationMarker   = " [truncated]"
)

// Page is one unit of paginated document content.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Overlap returns the number of items shared by consecutive windows of the
// given size: one tenth of the window, rounded, clamped to [10, 20].
func Overlap(maxSize int) int {
	o := int(math.Round(0.10 * float64(maxSize)))
	if o < 10 {
		o = 10
	}
	if o > 20 {
		o = 20
	}
	return o
}

// Plan splits pages into ordered windows of at most maxSize items. A sequence
// that fits in one window is returned whole. Longer sequences produce windows
// that overlap by Overlap(maxSize) items, so every interior boundary is seen
// by two windows and boundary-spanning records survive downstream merging.
// The final window is truncated to the sequence end. maxSize must be
// positive; Plan returns nil when it is not.
func Plan(pages []Page, maxSize int) [][]Page {
	if len(pages) == 0 || maxSize <= 0 {
		return nil
	}
	if len(pages) <= maxSize {
		return [][]Page{pages}
	}

	overlap := Overlap(maxSize)
	step := maxSize - overlap
	if step < 1 {
		// A window no wider than its overlap would stall the slide.
		step = 1
	}

	var windows [][]Page
	for start := 0; ; start += step {
		end := start + maxSize
		if end >= len(pages) {
			windows = append(windows, pages[start:])
			return windows
		}
		windows = append(windows, pages[start:end])
	}
}

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Preprocess returns a copy of pages with text normalized for the generative
// service: embedded newlines collapsed to spaces, double quotes escaped, and
// oversized text truncated with an explicit marker. The input is not mutated.
func Preprocess(pages []Page) []Page {
	out := make([]Page, len(pages))
	for i, p := range pages {
		p.Text = normalizeText(p.Text)
		out[i] = p
	}
	return out
}

func normalizeText(s string) string {
	s = newlineReplacer.Replace(s)
	s = strings.ReplaceAll(s, `"`, `\"`)
	if utf8.RuneCountInString(s) > maxTextRunes {
		runes := []rune(s)
		s = string(runes[:truncatedTextRunes]) + truncationMarker
	}
	return s
}
