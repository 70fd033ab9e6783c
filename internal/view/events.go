package view

// Event is anything that can move the screen to another state.
type Event interface {
	isEvent()
}

// Picked is a successful pick with readable image data.
type Picked struct {
	Image Image
}

// Dispatched marks the start of inference call number Generation.
type Dispatched struct {
	Generation uint64
}

// Resolved carries the diagnosis produced by call number Generation.
type Resolved struct {
	Generation uint64
	Diagnosis  Diagnosis
}

// Rejected carries the failure produced by call number Generation.
type Rejected struct {
	Generation uint64
	Kind       ErrorKind
	Message    string
}

// PermissionDenied is raised when media access was refused.
type PermissionDenied struct{}

// PickUnreadable is raised when the picker returned no usable payload.
type PickUnreadable struct{}

// PickCancelled is raised when the user dismissed the picker.
type PickCancelled struct{}

func (Picked) isEvent()           {}
func (Dispatched) isEvent()       {}
func (Resolved) isEvent()         {}
func (Rejected) isEvent()         {}
func (PermissionDenied) isEvent() {}
func (PickUnreadable) isEvent()   {}
func (PickCancelled) isEvent()    {}

// Transition returns the state that follows s once e has happened.
// Resolutions for any generation other than the one s is loading are stale
// and leave s untouched.
func Transition(s State, e Event) State {
	switch ev := e.(type) {
	case Picked:
		img := ev.Image
		return State{Kind: ImageSelected, Image: &img, Generation: s.Generation}
	case Dispatched:
		if s.Image == nil {
			return s
		}
		return State{Kind: Loading, Image: s.Image, Generation: ev.Generation}
	case Resolved:
		if s.Kind != Loading || ev.Generation != s.Generation {
			return s
		}
		d := ev.Diagnosis
		return State{Kind: Showing, Image: s.Image, Diagnosis: &d, Generation: s.Generation}
	case Rejected:
		if s.Kind != Loading || ev.Generation != s.Generation {
			return s
		}
		return fail(s, ev.Kind, ev.Message)
	case PermissionDenied:
		next := s
		next.Notice = Message(Denied, "")
		return next
	case PickUnreadable:
		return fail(State{Generation: s.Generation}, MissingData, "")
	case PickCancelled:
		return s
	default:
		return s
	}
}

func fail(s State, kind ErrorKind, detail string) State {
	msg := Message(kind, detail)
	return State{
		Kind:       Failed,
		Image:      s.Image,
		Failure:    &Failure{Kind: kind, Message: msg},
		Notice:     msg,
		Generation: s.Generation,
	}
}
