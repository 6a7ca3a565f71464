package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/auditkraft/requex/internal/reconcile"
)

// statusOrder lists statuses worst-first for summary tables.
var statusOrder = [...]reconcile.Status{
	reconcile.StatusNotImplemented,
	reconcile.StatusPartial,
	reconcile.StatusImplemented,
	reconcile.StatusNotApplicable,
	reconcile.StatusUnknown,
}

// Summary renders a Markdown compliance summary of the canonical requirement
// list: totals per status, then a per-target rollup with each target's worst
// finding.
func Summary(reqs []reconcile.Requirement) string {
	var sb strings.Builder

	sb.WriteString("# Compliance Summary\n\n")
	fmt.Fprintf(&sb, "%d requirements across %d target objects.\n\n",
		len(reqs), len(targetRollup(reqs)))

	counts := make(map[reconcile.Status]int, len(statusOrder))
	for _, r := range reqs {
		counts[r.Status]++
	}

	sb.WriteString("## Status totals\n\n")
	sb.WriteString("| Status | Count |\n")
	sb.WriteString("|---|---|\n")
	for _, s := range statusOrder {
		fmt.Fprintf(&sb, "| %s | %d |\n", s, counts[s])
	}
	sb.WriteString("\n")

	sb.WriteString("## Target objects\n\n")
	sb.WriteString("| Target | Name | Requirements | Worst status |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, t := range targetRollup(reqs) {
		fmt.Fprintf(&sb, "| %s | %s | %d | %s |\n", t.code, t.name, t.count, t.worst)
	}

	if n := countUnknownDates(reqs); n > 0 {
		fmt.Fprintf(&sb, "\n%d requirements carry no valid last-check date.\n", n)
	}

	return sb.String()
}

// targetSummary is one per-target rollup row.
type targetSummary struct {
	code  string
	name  string
	count int
	worst reconcile.Status
}

// targetRollup aggregates requirements per target code, sorted by code.
func targetRollup(reqs []reconcile.Requirement) []targetSummary {
	byCode := make(map[string]*targetSummary)
	for _, r := range reqs {
		t, ok := byCode[r.TargetCode]
		if !ok {
			t = &targetSummary{code: r.TargetCode}
			byCode[r.TargetCode] = t
		}
		t.count++
		if r.Status > t.worst {
			t.worst = r.Status
		}
		if t.name == "" {
			t.name = r.TargetName
		}
	}

	out := make([]targetSummary, 0, len(byCode))
	for _, t := range byCode {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].code < out[j].code })
	return out
}

func countUnknownDates(reqs []reconcile.Requirement) int {
	n := 0
	for _, r := range reqs {
		if reconcile.IsUnknownDate(r.LastChecked) {
			n++
		}
	}
	return n
}
