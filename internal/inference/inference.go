// Package inference talks to the remote leaf diagnosis service.
package inference

import (
	"context"
	"errors"
	"fmt"
)

// Request is the body posted to the service.
type Request struct {
	Image          string `json:"image"`
	IncludeOverlay bool   `json:"include_gradcam"`
}

// Result is a diagnosis as returned by the service. Any field may be absent.
type Result struct {
	Label      *string  `json:"prediction,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Overlay    string   `json:"gradcam_png_base64,omitempty"`
}

// Client exposes the single call the screen makes.
type Client interface {
	Infer(ctx context.Context, req Request) (*Result, error)
}

var (
	// ErrNetworkUnreachable means no response arrived at all.
	ErrNetworkUnreachable = errors.New("inference service unreachable")
	// ErrMalformedResponse means a success response was not a JSON object.
	ErrMalformedResponse = errors.New("malformed inference response")
	// ErrResponseTooLarge means the body exceeded the client's read limit.
	ErrResponseTooLarge = errors.New("inference response too large")
	// ErrEmptyImage means the caller tried to send a request without image data.
	ErrEmptyImage = errors.New("image payload is empty")
)

// ServerError is returned for any non-2xx response.
type ServerError struct {
	StatusCode int
	// Message is the service's "error" field, or empty when it sent none.
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("inference service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("inference service returned status %d: %s", e.StatusCode, e.Message)
}
