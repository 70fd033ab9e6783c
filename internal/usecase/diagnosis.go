package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/leafscan/internal/acquisition"
	"github.com/example/leafscan/internal/inference"
	"github.com/example/leafscan/internal/logging"
	"github.com/example/leafscan/internal/view"
)

// ErrClosed is returned once the screen has been unmounted.
var ErrClosed = errors.New("screen closed")

// ImageSource yields one picked photo per call.
type ImageSource interface {
	RequestImage(ctx context.Context) (*acquisition.ImageAsset, error)
}

// DiagnosisUseCase owns the screen's state for its whole lifetime. Each pick
// starts a new inference generation; only the latest generation may commit
// its outcome, and starting a new one cancels the previous call.
type DiagnosisUseCase struct {
	client         inference.Client
	includeOverlay bool
	logger         *zap.Logger

	mu         sync.Mutex
	state      view.State
	generation uint64
	cancel     context.CancelFunc
	settled    chan struct{}
	closed     bool

	lifetime context.Context
	unmount  context.CancelFunc
	inflight sync.WaitGroup
}

// NewDiagnosisUseCase mounts a screen in the idle state.
func NewDiagnosisUseCase(client inference.Client, includeOverlay bool, logger *zap.Logger) *DiagnosisUseCase {
	lifetime, unmount := context.WithCancel(context.Background())
	settled := make(chan struct{})
	close(settled)
	return &DiagnosisUseCase{
		client:         client,
		includeOverlay: includeOverlay,
		logger:         logger.Named("diagnosis_usecase"),
		state:          view.Initial(),
		settled:        settled,
		lifetime:       lifetime,
		unmount:        unmount,
	}
}

// State returns a snapshot of the current view state.
func (uc *DiagnosisUseCase) State() view.State {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.state
}

// SelectImage runs acquisition and, on a successful pick, clears the previous
// diagnosis and dispatches inference in the background. It returns the state
// right after the pick: loading on success, unchanged on cancel or denial.
// Denial and missing data are also returned as errors so callers can choose
// how to present them.
func (uc *DiagnosisUseCase) SelectImage(ctx context.Context, source ImageSource) (view.State, error) {
	if uc.isClosed() {
		return uc.State(), ErrClosed
	}

	asset, err := source.RequestImage(ctx)
	switch {
	case err == nil:
	case errors.Is(err, acquisition.ErrCancelled):
		uc.logger.Debug("image pick cancelled")
		return uc.apply(view.PickCancelled{}), nil
	case errors.Is(err, acquisition.ErrDenied):
		uc.logger.Info("media access denied")
		return uc.apply(view.PermissionDenied{}), err
	case errors.Is(err, acquisition.ErrMissingData):
		uc.logger.Warn("picked image has no data")
		return uc.supersede(view.PickUnreadable{}), err
	default:
		uc.logger.Error("image acquisition failed", zap.Error(err))
		return uc.State(), err
	}

	return uc.dispatch(asset)
}

// WaitSettled blocks until the latest dispatched inference has resolved or
// ctx is done, following any newer pick made while waiting.
func (uc *DiagnosisUseCase) WaitSettled(ctx context.Context) (view.State, error) {
	for {
		uc.mu.Lock()
		settled, gen := uc.settled, uc.generation
		uc.mu.Unlock()

		select {
		case <-settled:
		case <-ctx.Done():
			return uc.State(), ctx.Err()
		}

		uc.mu.Lock()
		if uc.generation == gen {
			state := uc.state
			uc.mu.Unlock()
			return state, nil
		}
		uc.mu.Unlock()
	}
}

// Close unmounts the screen: the pending call is cancelled, its outcome
// discarded and the state reset.
func (uc *DiagnosisUseCase) Close() {
	uc.mu.Lock()
	if uc.closed {
		uc.mu.Unlock()
		return
	}
	uc.closed = true
	uc.generation++
	uc.state = view.Initial()
	uc.mu.Unlock()

	uc.unmount()
	uc.inflight.Wait()
}

func (uc *DiagnosisUseCase) dispatch(asset *acquisition.ImageAsset) (view.State, error) {
	uc.mu.Lock()
	if uc.closed {
		state := uc.state
		uc.mu.Unlock()
		return state, ErrClosed
	}
	uc.supersedeLocked()
	gen := uc.generation
	uc.state = view.Transition(uc.state, view.Picked{Image: view.Image{URI: asset.URI, EncodedBytes: asset.EncodedBytes}})
	uc.state = view.Transition(uc.state, view.Dispatched{Generation: gen})

	dispatch := logging.Dispatch{RequestID: uuid.NewString(), Generation: gen}
	callCtx, cancel := context.WithCancel(inference.WithDispatch(uc.lifetime, dispatch))
	settled := make(chan struct{})
	uc.cancel = cancel
	uc.settled = settled
	state := uc.state
	uc.inflight.Add(1)
	uc.mu.Unlock()

	opLogger := logging.WithOperation(uc.logger, "usecase.dispatch", dispatch)
	opLogger.Info("inference dispatched", zap.String("image_uri", asset.URI))

	req := inference.Request{Image: asset.EncodedBytes, IncludeOverlay: uc.includeOverlay}
	go uc.run(callCtx, cancel, settled, gen, req, opLogger)
	return state, nil
}

func (uc *DiagnosisUseCase) run(ctx context.Context, cancel context.CancelFunc, settled chan struct{}, gen uint64, req inference.Request, opLogger *zap.Logger) {
	defer uc.inflight.Done()
	defer close(settled)
	defer cancel()

	result, err := uc.client.Infer(ctx, req)

	uc.mu.Lock()
	defer uc.mu.Unlock()
	if gen != uc.generation {
		opLogger.Debug("discarding superseded inference outcome", zap.Uint64("latest_generation", uc.generation))
		return
	}

	if err != nil {
		kind := classify(err)
		var serverErr *inference.ServerError
		detail := ""
		if errors.As(err, &serverErr) {
			detail = serverErr.Message
		}
		opLogger.Warn("inference failed", zap.Error(err), zap.Stringer("kind", kind))
		uc.state = view.Transition(uc.state, view.Rejected{Generation: gen, Kind: kind, Message: detail})
		return
	}

	opLogger.Info("inference resolved")
	uc.state = view.Transition(uc.state, view.Resolved{Generation: gen, Diagnosis: view.Diagnosis{
		Label:      result.Label,
		Confidence: result.Confidence,
		Overlay:    result.Overlay,
	}})
}

func (uc *DiagnosisUseCase) apply(e view.Event) view.State {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.state = view.Transition(uc.state, e)
	return uc.state
}

// supersede invalidates any pending call before applying e.
func (uc *DiagnosisUseCase) supersede(e view.Event) view.State {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.supersedeLocked()
	uc.state = view.Transition(uc.state, e)
	return uc.state
}

func (uc *DiagnosisUseCase) supersedeLocked() {
	uc.generation++
	if uc.cancel != nil {
		uc.cancel()
		uc.cancel = nil
	}
}

func (uc *DiagnosisUseCase) isClosed() bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.closed
}

func classify(err error) view.ErrorKind {
	var serverErr *inference.ServerError
	switch {
	case errors.As(err, &serverErr):
		return view.ServerRejected
	case errors.Is(err, inference.ErrMalformedResponse), errors.Is(err, inference.ErrResponseTooLarge):
		return view.MalformedResponse
	case errors.Is(err, inference.ErrEmptyImage):
		return view.MissingData
	default:
		return view.NetworkUnreachable
	}
}
