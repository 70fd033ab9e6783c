package acquisition

import (
	"context"
	"io"
)

// UploadPicker treats an uploaded file as the picked photo. A nil Body
// means the user dismissed the picker.
type UploadPicker struct {
	Name string
	Body io.Reader
}

// PickImage reads and re-encodes the upload. Unreadable uploads come back
// without base64 data rather than as an error.
func (p UploadPicker) PickImage(ctx context.Context, cfg PickConfig) (PickResult, error) {
	if p.Body == nil {
		return PickResult{Cancelled: true}, nil
	}
	if err := ctx.Err(); err != nil {
		return PickResult{}, err
	}

	if !cfg.WantBase64 {
		return PickResult{URI: p.Name}, nil
	}

	data, err := io.ReadAll(p.Body)
	if err != nil || len(data) == 0 {
		return PickResult{URI: p.Name}, nil
	}
	encoded, err := EncodeStill(data, cfg)
	if err != nil {
		return PickResult{URI: p.Name}, nil
	}
	return PickResult{URI: p.Name, Base64: encoded}, nil
}
