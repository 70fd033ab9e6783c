package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/example/leafscan/internal/acquisition"
	"github.com/example/leafscan/internal/usecase"
	"github.com/example/leafscan/internal/view"
)

// MaxUploadSize caps a picked photo before re-encoding.
const MaxUploadSize = 10 << 20

// Screen is what the routes need from the diagnosis use case.
type Screen interface {
	State() view.State
	SelectImage(ctx context.Context, source usecase.ImageSource) (view.State, error)
	WaitSettled(ctx context.Context) (view.State, error)
}

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, screen Screen, permission acquisition.Permission, pickCfg acquisition.PickConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/view", func(c *gin.Context) {
		c.JSON(http.StatusOK, view.Render(screen.State()))
	})

	router.POST("/image", func(c *gin.Context) {
		picker, status, msg := uploadPicker(c)
		if status != 0 {
			c.JSON(status, gin.H{"error": msg})
			return
		}
		if closer, ok := picker.Body.(multipart.File); ok {
			defer closer.Close()
		}

		controller := acquisition.NewController(permission, picker, pickCfg)
		state, err := screen.SelectImage(c.Request.Context(), controller)
		switch {
		case err == nil:
		case errors.Is(err, acquisition.ErrDenied):
			c.JSON(http.StatusForbidden, view.Render(state))
			return
		case errors.Is(err, acquisition.ErrMissingData):
			c.JSON(http.StatusUnprocessableEntity, view.Render(state))
			return
		case errors.Is(err, usecase.ErrClosed):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "screen is closed"})
			return
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if state.Kind == view.Loading && c.Query("wait") == "true" {
			settled, err := screen.WaitSettled(c.Request.Context())
			if err != nil {
				return
			}
			state = settled
		}

		status = http.StatusOK
		if state.Kind == view.Loading {
			status = http.StatusAccepted
		}
		c.JSON(status, view.Render(state))
	})
}

// uploadPicker turns the request into a picker. A request without an image
// field is a dismissed picker. A non-zero status means the request is rejected.
func uploadPicker(c *gin.Context) (acquisition.UploadPicker, int, string) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize+1<<20)
	if err := c.Request.ParseMultipartForm(MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return acquisition.UploadPicker{}, http.StatusRequestEntityTooLarge, "image exceeds upload limit"
		}
		return acquisition.UploadPicker{}, http.StatusBadRequest, "multipart form expected"
	}

	file, header, err := c.Request.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return acquisition.UploadPicker{}, 0, ""
	}
	if err != nil {
		return acquisition.UploadPicker{}, http.StatusBadRequest, "unable to open image"
	}
	if header.Size > MaxUploadSize {
		file.Close()
		return acquisition.UploadPicker{}, http.StatusRequestEntityTooLarge, "image exceeds upload limit"
	}
	if ct := header.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		file.Close()
		return acquisition.UploadPicker{}, http.StatusUnsupportedMediaType, "only still images are accepted"
	}
	return acquisition.UploadPicker{Name: header.Filename, Body: file}, 0, ""
}
