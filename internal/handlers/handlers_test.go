package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/leafscan/internal/acquisition"
	"github.com/example/leafscan/internal/inference"
	"github.com/example/leafscan/internal/usecase"
	"github.com/example/leafscan/internal/view"
)

type stubClient struct {
	result *inference.Result
	err    error
}

func (s *stubClient) Infer(ctx context.Context, req inference.Request) (*inference.Result, error) {
	return s.result, s.err
}

func newRouter(t *testing.T, client inference.Client, permission acquisition.Permission) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	uc := usecase.NewDiagnosisUseCase(client, true, zap.NewNop())
	t.Cleanup(uc.Close)

	router := gin.New()
	RegisterRoutes(router, uc, permission, acquisition.DefaultPickConfig())
	return router
}

func TestUploadResolvesToDiagnosis(t *testing.T) {
	prediction := "tomato_blight"
	confidence := 0.87
	router := newRouter(t, &stubClient{result: &inference.Result{Label: &prediction, Confidence: &confidence}}, acquisition.StaticPermission(true))

	body, contentType := buildMultipartBody(t, "image/png", leafPNG(t))
	resp := send(router, http.MethodPost, "/image?wait=true", body, contentType)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, resp.Code, resp.Body.String())
	}
	display := decodeDisplay(t, resp)
	if display.State != "result" || display.Label != "Tomato Blight" || display.Confidence != "87%" || display.HasOverlay {
		t.Fatalf("unexpected display %+v", display)
	}
	if display.ImageURI != "upload" {
		t.Fatalf("unexpected image uri %q", display.ImageURI)
	}

	resp = send(router, http.MethodGet, "/view", nil, "")
	if got := decodeDisplay(t, resp); got != display {
		t.Fatalf("GET /view disagrees with upload response: %+v vs %+v", got, display)
	}
}

func TestUploadDenied(t *testing.T) {
	router := newRouter(t, &stubClient{}, acquisition.StaticPermission(false))

	body, contentType := buildMultipartBody(t, "image/png", leafPNG(t))
	resp := send(router, http.MethodPost, "/image", body, contentType)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, resp.Code)
	}
	display := decodeDisplay(t, resp)
	if display.State != "idle" || display.Notice != view.Message(view.Denied, "") {
		t.Fatalf("unexpected display %+v", display)
	}
}

func TestUploadWithoutImageIsCancelled(t *testing.T) {
	router := newRouter(t, &stubClient{}, acquisition.StaticPermission(true))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("note", "dismissed"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	writer.Close()

	resp := send(router, http.MethodPost, "/image", body, writer.FormDataContentType())
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.Code)
	}
	if display := decodeDisplay(t, resp); display.State != "idle" || display.Notice != "" {
		t.Fatalf("unexpected display %+v", display)
	}
}

func TestUploadUnreadableImage(t *testing.T) {
	router := newRouter(t, &stubClient{}, acquisition.StaticPermission(true))

	body, contentType := buildMultipartBody(t, "image/jpeg", []byte("definitely not a jpeg"))
	resp := send(router, http.MethodPost, "/image", body, contentType)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, resp.Code)
	}
	if display := decodeDisplay(t, resp); display.Error != "missing_data" {
		t.Fatalf("unexpected display %+v", display)
	}
}

func TestUploadServerRejectionFallback(t *testing.T) {
	router := newRouter(t, &stubClient{err: &inference.ServerError{StatusCode: 500}}, acquisition.StaticPermission(true))

	body, contentType := buildMultipartBody(t, "image/png", leafPNG(t))
	resp := send(router, http.MethodPost, "/image?wait=true", body, contentType)

	display := decodeDisplay(t, resp)
	if display.State != "failed" || display.Notice != view.FallbackServerMessage {
		t.Fatalf("unexpected display %+v", display)
	}
}

func TestUploadRejectsLargeUpload(t *testing.T) {
	router := newRouter(t, &stubClient{}, acquisition.StaticPermission(true))

	body, contentType := buildMultipartBody(t, "image/png", bytes.Repeat([]byte("a"), MaxUploadSize+1))
	resp := send(router, http.MethodPost, "/image", body, contentType)

	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status %d, got %d", http.StatusRequestEntityTooLarge, resp.Code)
	}
}

func TestUploadRejectsUnsupportedContentType(t *testing.T) {
	router := newRouter(t, &stubClient{}, acquisition.StaticPermission(true))

	body, contentType := buildMultipartBody(t, "text/plain", []byte("hello"))
	resp := send(router, http.MethodPost, "/image", body, contentType)

	if resp.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected status %d, got %d", http.StatusUnsupportedMediaType, resp.Code)
	}
}

func send(router *gin.Engine, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeDisplay(t *testing.T, resp *httptest.ResponseRecorder) view.Display {
	t.Helper()
	var display view.Display
	if err := json.Unmarshal(resp.Body.Bytes(), &display); err != nil {
		t.Fatalf("response is not a display: %v (%s)", err, resp.Body.String())
	}
	return display
}

func leafPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{G: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func buildMultipartBody(t *testing.T, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="upload"`)
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create multipart part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("failed to write payload: %v", err)
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	return body, writer.FormDataContentType()
}
