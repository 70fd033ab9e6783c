package acquisition

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"math"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

// EncodeStill decodes a JPEG, PNG or WebP still, shrinks it so neither side
// exceeds cfg.MaxDimension and re-encodes it as base64 JPEG at cfg.Quality.
func EncodeStill(data []byte, cfg PickConfig) (string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	if maxDim := cfg.MaxDimension; maxDim > 0 {
		bounds := img.Bounds()
		if uint(bounds.Dx()) > maxDim || uint(bounds.Dy()) > maxDim {
			img = resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)
		}
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: jpegQuality(cfg.Quality)}); err != nil {
		return "", fmt.Errorf("encode %s as jpeg: %w", format, err)
	}
	return base64.StdEncoding.EncodeToString(out.Bytes()), nil
}

func jpegQuality(hint float64) int {
	if hint <= 0 || math.IsNaN(hint) {
		return jpeg.DefaultQuality
	}
	q := int(math.Round(hint * 100))
	if q > 100 {
		q = 100
	}
	if q < 1 {
		q = 1
	}
	return q
}
