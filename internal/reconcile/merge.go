package reconcile

import "strings"

// mergeGroup collapses all candidates sharing one composite key into a single
// canonical requirement, field by field: the longest title wins, explanations
// are merged at sentence level, the most severe status survives, and the
// latest parseable check date is kept.
func mergeGroup(key Key, cands []Candidate, targetName string) Requirement {
	return Requirement{
		ControlID:   key.ControlID,
		TargetCode:  key.TargetCode,
		TargetName:  targetName,
		Title:       longestTitle(cands),
		Status:      worstStatus(cands),
		Explanation: mergeExplanations(cands),
		LastChecked: resolveDate(cands),
	}
}

func longestTitle(cands []Candidate) string {
	best := ""
	for _, c := range cands {
		if t := strings.TrimSpace(c.Title); len(t) > len(best) {
			best = t
		}
	}
	return best
}

func worstStatus(cands []Candidate) Status {
	worst := StatusUnknown
	for _, c := range cands {
		if s := ParseStatus(c.Status); s > worst {
			worst = s
		}
	}
	return worst
}

// mergeExplanations concatenates every candidate's explanation, splits the
// result into sentences, and keeps each sentence's first occurrence. This
// absorbs the deliberate window overlap of the chunk planner: prose that two
// windows both saw appears once in the merged record.
func mergeExplanations(cands []Candidate) string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range cands {
		for _, sentence := range splitSentences(c.Explanation) {
			if seen[sentence] {
				continue
			}
			seen[sentence] = true
			out = append(out, sentence)
		}
	}
	return strings.Join(out, " ")
}

// splitSentences cuts text at sentence terminators, keeping the terminator
// attached to its sentence. Trailing text without a terminator forms a final
// sentence.
func splitSentences(text string) []string {
	var out []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(b.String()); s != "" {
				out = append(out, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		out = append(out, s)
	}
	return out
}
