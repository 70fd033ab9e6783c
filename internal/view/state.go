// Package view holds the screen's presentation state and the pure transitions
// that move it between idle, selected, loading, result and failed.
package view

// Kind tags which of the mutually exclusive screen states holds.
type Kind int

const (
	Idle Kind = iota
	ImageSelected
	Loading
	Showing
	Failed
)

func (k Kind) String() string {
	switch k {
	case Idle:
		return "idle"
	case ImageSelected:
		return "image_selected"
	case Loading:
		return "loading"
	case Showing:
		return "result"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Image is the photo currently owned by the screen.
type Image struct {
	URI          string
	EncodedBytes string
}

// Diagnosis is a parsed inference outcome. Every field is independently optional.
type Diagnosis struct {
	Label      *string
	Confidence *float64
	Overlay    string
}

// Failure records why the last attempt did not produce a diagnosis.
type Failure struct {
	Kind    ErrorKind
	Message string
}

// State is a value: transitions return a new State and never mutate the old one.
type State struct {
	Kind      Kind
	Image     *Image
	Diagnosis *Diagnosis
	Failure   *Failure
	// Notice is the blocking notification shown for the last event, if any.
	Notice string
	// Generation identifies the dispatch whose outcome this state waits for.
	Generation uint64
}

// Initial is the state at screen mount.
func Initial() State {
	return State{Kind: Idle}
}
