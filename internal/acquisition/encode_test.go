package acquisition

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: 160, B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func decodeJPEG(t *testing.T, encoded string) image.Image {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("output is not base64: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("output is not jpeg: %v", err)
	}
	return img
}

func TestEncodeStillBoundsDimensions(t *testing.T) {
	cfg := DefaultPickConfig()
	cfg.MaxDimension = 64

	encoded, err := EncodeStill(pngBytes(t, 200, 100), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bounds := decodeJPEG(t, encoded).Bounds()
	if bounds.Dx() > 64 || bounds.Dy() > 64 {
		t.Fatalf("expected image within 64px, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestEncodeStillKeepsSmallImages(t *testing.T) {
	encoded, err := EncodeStill(pngBytes(t, 40, 30), DefaultPickConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bounds := decodeJPEG(t, encoded).Bounds()
	if bounds.Dx() != 40 || bounds.Dy() != 30 {
		t.Fatalf("expected 40x30, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestEncodeStillRejectsGarbage(t *testing.T) {
	if _, err := EncodeStill([]byte("not an image"), DefaultPickConfig()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestJPEGQuality(t *testing.T) {
	cases := map[float64]int{0.85: 85, 1: 100, 2: 100, 0.001: 1, 0: jpeg.DefaultQuality}
	for hint, want := range cases {
		if got := jpegQuality(hint); got != want {
			t.Fatalf("jpegQuality(%v) = %d, want %d", hint, got, want)
		}
	}
}

func TestUploadPicker(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultPickConfig()

	res, err := UploadPicker{}.PickImage(ctx, cfg)
	if err != nil || !res.Cancelled {
		t.Fatalf("expected cancelled pick, got %+v, %v", res, err)
	}

	res, err = UploadPicker{Name: "empty.png", Body: strings.NewReader("")}.PickImage(ctx, cfg)
	if err != nil || res.Cancelled || res.Base64 != "" || res.URI != "empty.png" {
		t.Fatalf("expected pick without data, got %+v, %v", res, err)
	}

	res, err = UploadPicker{Name: "leaf.png", Body: bytes.NewReader(pngBytes(t, 10, 10))}.PickImage(ctx, cfg)
	if err != nil || res.Base64 == "" {
		t.Fatalf("expected encoded pick, got %+v, %v", res, err)
	}
}
