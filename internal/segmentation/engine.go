package segmentation

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	_ "golang.org/x/image/webp"
)

// Engine pairs a Predictor with the parameters of the model it last
// loaded successfully. Readiness is a comparison against those stored
// parameters rather than a bare flag, so changing the model, device or
// debug setting makes the next Load actually reload without anyone
// having to remember to reset first.
type Engine struct {
	mu        sync.Mutex
	predictor Predictor
	loaded    *ModelParams
	logger    *zap.Logger
}

type Result struct {
	Data      []byte
	MediaType string
	Width     int
	Height    int
}

func NewEngine(predictor Predictor, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		predictor: predictor,
		logger:    logger.Named("segmentation"),
	}
}

// Load makes sure the model selected by cfg is loaded. It is a no-op
// when the stored parameters already match. On failure the stored state
// is left untouched and the backend's error is returned as-is: the
// caller decides whether it warrants a retry or a config change.
func (e *Engine) Load(ctx context.Context, cfg Config) error {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.loadLocked(ctx, cfg.ModelParams())
}

func (e *Engine) loadLocked(ctx context.Context, params ModelParams) error {
	if e.loaded != nil && *e.loaded == params {
		return nil
	}

	if err := e.predictor.LoadModel(ctx, params); err != nil {
		e.logger.Error("model load failed",
			zap.String("model", string(params.Model)),
			zap.String("device", string(params.Device)),
			zap.Error(err),
		)
		return err
	}

	e.loaded = &params
	e.logger.Info("model loaded",
		zap.String("model", string(params.Model)),
		zap.String("device", string(params.Device)),
		zap.Bool("debug", params.Debug),
	)

	return nil
}

// IsReady reports whether the model selected by cfg is the one
// currently loaded. No side effects.
func (e *Engine) IsReady(cfg Config) bool {
	params := cfg.WithDefaults().ModelParams()

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.loaded != nil && *e.loaded == params
}

// Loaded returns a copy of the parameters of the currently loaded
// model, or nil when nothing is loaded.
func (e *Engine) Loaded() *ModelParams {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loaded == nil {
		return nil
	}

	params := *e.loaded
	return &params
}

// Reset forgets the loaded model, forcing the next Load to go through
// the backend again.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.loaded = nil
}

// Process decodes data, lazily loads the model if needed and runs
// inference, returning the composed output encoded per cfg.Output.
//
// Undecodable input is rejected with ErrInvalidImage before anything is
// loaded. Load errors pass through untranslated. Everything after that
// is reported as ErrInferenceFailed with the cause wrapped inside.
func (e *Engine) Process(ctx context.Context, data []byte, cfg Config) (*Result, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidImage, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.loadLocked(ctx, cfg.ModelParams()); err != nil {
		return nil, err
	}

	matte, err := e.predictor.Predict(ctx, src)
	if err != nil {
		e.logger.Error("inference failed",
			zap.String("model", string(cfg.Model)),
			zap.Error(err),
		)
		return nil, &InferenceError{Cause: err}
	}

	out, err := Compose(src, matte, cfg.Output)
	if err != nil {
		e.logger.Error("output composition failed",
			zap.String("type", string(cfg.Output.Type)),
			zap.Error(err),
		)
		return nil, &InferenceError{Cause: err}
	}

	return out, nil
}

// Close releases the backend. The engine must not be used afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.loaded = nil
	return e.predictor.Close()
}
