package ingest

// State is where the ingestor is in its run. A run moves Idle -> ProcessingFile ->
// ProcessingRow (once per row) -> Committed or Aborted -> Idle.
type State int

const (
	Idle State = iota
	ProcessingFile
	ProcessingRow
	Committed
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ProcessingFile:
		return "processing_file"
	case ProcessingRow:
		return "processing_row"
	case Committed:
		return "committed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

var transitions = map[State][]State{
	Idle:           {ProcessingFile},
	ProcessingFile: {ProcessingRow, Committed, Aborted},
	ProcessingRow:  {ProcessingRow, Committed, Aborted},
	Committed:      {Idle},
	Aborted:        {Idle},
}

func (s State) canMoveTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
