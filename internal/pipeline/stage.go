package pipeline

// Stage is a state of a single run.
type Stage int

const (
	StageIdle Stage = iota
	StageValidating
	StageTranscribing
	StageSummarizing
	StageAssembled
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageValidating:
		return "validating"
	case StageTranscribing:
		return "transcribing"
	case StageSummarizing:
		return "summarizing"
	case StageAssembled:
		return "assembled"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Label is the human readable status line for s.
func (s Stage) Label() string {
	switch s {
	case StageValidating:
		return "Validating audio"
	case StageTranscribing:
		return "Transcribing audio"
	case StageSummarizing:
		return "Generating AI summary"
	case StageAssembled:
		return "Processing complete"
	case StageFailed:
		return "Processing failed"
	default:
		return "Waiting"
	}
}

// Event is one step of progress. Percent grows through a successful run and is
// zero for StageFailed.
type Event struct {
	Stage   Stage
	Percent int
}

// Observer is told about every transition. Implementations must not block for long.
type Observer interface {
	Observe(Event)
}

type nopObserver struct{}

func (nopObserver) Observe(Event) {}
