package inference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/example/leafscan/internal/logging"
)

// maxResponseSize bounds a response body; anything longer fails with ErrResponseTooLarge.
const maxResponseSize = 32 << 20

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// HTTPClient posts requests to a fixed endpoint. It never retries and sets no
// timeout of its own; cancel ctx to abandon a call.
type HTTPClient struct {
	endpoint        string
	http            *http.Client
	logger          *zap.Logger
	maxResponseSize int64
}

// NewHTTPClient builds a client for endpoint. A nil httpClient uses a fresh
// http.Client without a timeout.
func NewHTTPClient(endpoint string, httpClient *http.Client, logger *zap.Logger) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &HTTPClient{
		endpoint:        endpoint,
		http:            httpClient,
		logger:          logger.Named("inference_client"),
		maxResponseSize: maxResponseSize,
	}
}

// Infer sends req and parses the reply. Failures are ErrNetworkUnreachable,
// *ServerError, ErrMalformedResponse or ErrResponseTooLarge, wrapped in a logging.OperationError;
// a cancelled ctx is reported as ctx.Err().
func (c *HTTPClient) Infer(ctx context.Context, req Request) (*Result, error) {
	dispatch := DispatchFromContext(ctx)
	opLogger := logging.WithOperation(c.logger, "inference.infer", dispatch)

	if req.Image == "" {
		return nil, logging.NewOperationError("inference.encode", dispatch, ErrEmptyImage)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, logging.NewOperationError("inference.encode", dispatch, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, logging.NewOperationError("inference.build_request", dispatch, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			opLogger.Debug("inference call abandoned", zap.Error(ctxErr))
			return nil, ctxErr
		}
		opLogger.Warn("inference transport failure", zap.Error(err), zap.String("endpoint", c.endpoint))
		return nil, logging.NewOperationError("inference.post", dispatch, fmt.Errorf("%w: %v", ErrNetworkUnreachable, err))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		opLogger.Warn("failed to read inference response", zap.Error(err))
		return nil, logging.NewOperationError("inference.read", dispatch, fmt.Errorf("%w: %v", ErrNetworkUnreachable, err))
	}

	if int64(len(payload)) > c.maxResponseSize {
		opLogger.Warn("inference response too large", zap.Int64("limit", c.maxResponseSize), zap.Int("status", resp.StatusCode))
		return nil, logging.NewOperationError("inference.read", dispatch, ErrResponseTooLarge)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serverErr := &ServerError{StatusCode: resp.StatusCode, Message: errorMessage(payload)}
		opLogger.Warn("inference rejected", zap.Int("status", resp.StatusCode), zap.String("message", serverErr.Message))
		return nil, logging.NewOperationError("inference.status", dispatch, serverErr)
	}

	result, err := decodeResult(payload)
	if err != nil {
		opLogger.Warn("inference response could not be parsed", zap.Error(err), zap.Int("bytes", len(payload)))
		return nil, logging.NewOperationError("inference.decode", dispatch, err)
	}

	opLogger.Debug("inference resolved",
		zap.Bool("has_label", result.Label != nil),
		zap.Bool("has_confidence", result.Confidence != nil),
		zap.Bool("has_overlay", result.Overlay != ""),
	)
	return result, nil
}

// decodeResult treats every field as optional: a field that is missing or
// does not decode as the expected type is left absent. Only a body that is
// not a JSON object fails.
func decodeResult(payload []byte) (*Result, error) {
	var fields map[string]jsoniter.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: body is not an object", ErrMalformedResponse)
	}

	result := &Result{}
	var label string
	if decodeField(fields, "prediction", &label) {
		result.Label = &label
	}
	var confidence float64
	if decodeField(fields, "confidence", &confidence) && !math.IsInf(confidence, 0) && !math.IsNaN(confidence) {
		result.Confidence = &confidence
	}
	var overlay string
	if decodeField(fields, "gradcam_png_base64", &overlay) {
		result.Overlay = overlay
	}
	return result, nil
}

// decodeField reports whether fields[key] is present, non-null and decodes into dst.
func decodeField(fields map[string]jsoniter.RawMessage, key string, dst interface{}) bool {
	raw, ok := fields[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func errorMessage(payload []byte) string {
	var fields map[string]jsoniter.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return ""
	}
	var msg string
	decodeField(fields, "error", &msg)
	return msg
}
