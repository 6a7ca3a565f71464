package audit

// Stage identifies a pipeline stage (0-4).
type Stage int

const (
	StageConvert   Stage = 0
	StageGroup     Stage = 1
	StageExtract   Stage = 2
	StageReconcile Stage = 3
	StageReport    Stage = 4
)

func (s Stage) String() string {
	names := [...]string{
		"convert",
		"group",
		"extract",
		"reconcile",
		"report",
	}
	if int(s) >= 0 && int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// Artifact returns the store key of the stage's output, relative to the
// run prefix.
func (s Stage) Artifact() string {
	switch s {
	case StageConvert:
		return "document.json"
	case StageGroup:
		return "groups.json"
	case StageExtract:
		return "fragments.json"
	case StageReconcile:
		return "canonical.json"
	case StageReport:
		return "report.md"
	default:
		return ""
	}
}

// prerequisites returns the stages whose artifacts must exist before the
// given stage can execute.
func prerequisites(stage Stage) []Stage {
	switch stage {
	case StageConvert:
		// Stage 0: no prerequisites.
		return nil
	case StageGroup:
		return []Stage{StageConvert}
	case StageExtract:
		// The window pass reads the document, the group pass its grouping.
		return []Stage{StageConvert, StageGroup}
	case StageReconcile:
		return []Stage{StageExtract}
	case StageReport:
		return []Stage{StageReconcile}
	default:
		return nil
	}
}
