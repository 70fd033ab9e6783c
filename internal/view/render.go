package view

// Display is what the screen shows for a State.
type Display struct {
	State      string `json:"state"`
	ImageURI   string `json:"image_uri,omitempty"`
	Label      string `json:"label"`
	Confidence string `json:"confidence"`
	Overlay    string `json:"overlay,omitempty"`
	HasOverlay bool   `json:"has_overlay"`
	Loading    bool   `json:"loading"`
	Error      string `json:"error,omitempty"`
	Notice     string `json:"notice,omitempty"`
}

// Render derives display values from s without touching the stored diagnosis.
func Render(s State) Display {
	d := Display{
		State:      s.Kind.String(),
		Label:      Placeholder,
		Confidence: Placeholder,
		Loading:    s.Kind == Loading,
		Notice:     s.Notice,
	}
	if s.Image != nil {
		d.ImageURI = s.Image.URI
	}
	if s.Failure != nil {
		d.Error = s.Failure.Kind.String()
	}
	if s.Kind != Showing || s.Diagnosis == nil {
		return d
	}

	if s.Diagnosis.Label != nil {
		if label := FormatLabel(*s.Diagnosis.Label); label != "" {
			d.Label = label
		}
	}
	d.Confidence = ConfidenceText(s.Diagnosis.Confidence)
	if s.Diagnosis.Overlay != "" {
		d.Overlay = s.Diagnosis.Overlay
		d.HasOverlay = true
	}
	return d
}
