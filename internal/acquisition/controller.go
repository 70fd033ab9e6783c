// Package acquisition obtains a photo from the host: it asks for media
// access, runs the picker and checks that the pick carries image data.
package acquisition

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrDenied means media access was refused. The user can grant it and retry.
	ErrDenied = errors.New("media access denied")
	// ErrCancelled means the user dismissed the picker. It is not a failure.
	ErrCancelled = errors.New("image pick cancelled")
	// ErrMissingData means the picker returned nothing that could be sent.
	ErrMissingData = errors.New("picked image has no data")
)

// ImageAsset is a picked photo ready for inference.
type ImageAsset struct {
	URI          string
	EncodedBytes string
}

// PickConfig is what the picker is asked for.
type PickConfig struct {
	SingleImage bool
	// Quality is the lossy compression hint in (0, 1].
	Quality      float64
	WantBase64   bool
	MaxDimension uint
}

// DefaultPickConfig bounds upload size while keeping leaf detail.
func DefaultPickConfig() PickConfig {
	return PickConfig{SingleImage: true, Quality: 0.85, WantBase64: true, MaxDimension: 1024}
}

// PickResult is the picker's answer. Base64 is empty when no data came back.
type PickResult struct {
	Cancelled bool
	URI       string
	Base64    string
}

// Permission is the host's media-access capability.
type Permission interface {
	RequestAccess(ctx context.Context) (bool, error)
}

// Picker is the host's image-picker capability.
type Picker interface {
	PickImage(ctx context.Context, cfg PickConfig) (PickResult, error)
}

// PermissionFunc adapts a function to Permission.
type PermissionFunc func(ctx context.Context) (bool, error)

// RequestAccess calls f.
func (f PermissionFunc) RequestAccess(ctx context.Context) (bool, error) {
	return f(ctx)
}

// StaticPermission answers every request with the same decision.
type StaticPermission bool

// RequestAccess reports the configured decision.
func (p StaticPermission) RequestAccess(context.Context) (bool, error) {
	return bool(p), nil
}

// Controller runs one acquisition against a permission and a picker.
type Controller struct {
	permission Permission
	picker     Picker
	config     PickConfig
}

// NewController builds a controller that picks with cfg.
func NewController(permission Permission, picker Picker, cfg PickConfig) *Controller {
	return &Controller{permission: permission, picker: picker, config: cfg}
}

// RequestImage returns the picked asset, or ErrDenied, ErrCancelled or
// ErrMissingData. Any other error comes from the host capabilities.
func (c *Controller) RequestImage(ctx context.Context) (*ImageAsset, error) {
	granted, err := c.permission.RequestAccess(ctx)
	if err != nil {
		return nil, fmt.Errorf("request media access: %w", err)
	}
	if !granted {
		return nil, ErrDenied
	}

	picked, err := c.picker.PickImage(ctx, c.config)
	if err != nil {
		if errors.Is(err, ErrCancelled) || errors.Is(err, ErrMissingData) {
			return nil, err
		}
		return nil, fmt.Errorf("pick image: %w", err)
	}
	if picked.Cancelled {
		return nil, ErrCancelled
	}
	if picked.Base64 == "" {
		return nil, ErrMissingData
	}
	return &ImageAsset{URI: picked.URI, EncodedBytes: picked.Base64}, nil
}
