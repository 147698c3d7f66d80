package segmentation

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

type fakePredictor struct {
	loadCalls    int
	predictCalls int
	loadErr      error
	predictErr   error
	lastParams   ModelParams
}

func (f *fakePredictor) LoadModel(ctx context.Context, params ModelParams) error {
	f.loadCalls++
	if f.loadErr != nil {
		return f.loadErr
	}

	f.lastParams = params
	return nil
}

func (f *fakePredictor) Predict(ctx context.Context, img image.Image) (*image.Gray, error) {
	f.predictCalls++
	if f.predictErr != nil {
		return nil, f.predictErr
	}

	matte := image.NewGray(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			matte.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	return matte, nil
}

func (f *fakePredictor) Close() error {
	return nil
}

func testImage(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}

	return buf.Bytes()
}

func TestLoadIsIdempotent(t *testing.T) {
	predictor := &fakePredictor{}
	engine := NewEngine(predictor, nil)

	cfg := Config{Model: ModelU2NetP}
	for i := 0; i < 3; i++ {
		if err := engine.Load(context.Background(), cfg); err != nil {
			t.Fatalf("load %d: %v", i, err)
		}
	}

	if predictor.loadCalls != 1 {
		t.Errorf("expected 1 backend load, got %d", predictor.loadCalls)
	}

	if !engine.IsReady(cfg) {
		t.Error("engine should be ready after load")
	}
}

func TestLoadReloadsWhenParamsChange(t *testing.T) {
	predictor := &fakePredictor{}
	engine := NewEngine(predictor, nil)

	if err := engine.Load(context.Background(), Config{Model: ModelU2NetP}); err != nil {
		t.Fatal(err)
	}
	if err := engine.Load(context.Background(), Config{Model: ModelU2Net}); err != nil {
		t.Fatal(err)
	}

	if predictor.loadCalls != 2 {
		t.Errorf("expected 2 backend loads, got %d", predictor.loadCalls)
	}

	if engine.IsReady(Config{Model: ModelU2NetP}) {
		t.Error("engine should not report ready for the replaced model")
	}
	if !engine.IsReady(Config{Model: ModelU2Net}) {
		t.Error("engine should report ready for the current model")
	}
}

func TestDebugChangeForcesReload(t *testing.T) {
	predictor := &fakePredictor{}
	engine := NewEngine(predictor, nil)

	if err := engine.Load(context.Background(), Config{Model: ModelU2NetP}); err != nil {
		t.Fatal(err)
	}
	if err := engine.Load(context.Background(), Config{Model: ModelU2NetP, Debug: true}); err != nil {
		t.Fatal(err)
	}

	if predictor.loadCalls != 2 {
		t.Errorf("expected debug change to reload, got %d loads", predictor.loadCalls)
	}
}

func TestResetForgetsModel(t *testing.T) {
	predictor := &fakePredictor{}
	engine := NewEngine(predictor, nil)

	cfg := Config{Model: ModelU2NetP}
	if err := engine.Load(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}

	engine.Reset()

	if engine.IsReady(cfg) {
		t.Error("engine should not be ready after reset")
	}
	if engine.Loaded() != nil {
		t.Error("loaded params should be nil after reset")
	}

	if err := engine.Load(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}
	if predictor.loadCalls != 2 {
		t.Errorf("expected reload after reset, got %d loads", predictor.loadCalls)
	}
}

func TestLoadFailurePassesThrough(t *testing.T) {
	backendErr := errors.New("weights file is corrupt")
	predictor := &fakePredictor{loadErr: backendErr}
	engine := NewEngine(predictor, nil)

	cfg := Config{Model: ModelU2NetP}
	err := engine.Load(context.Background(), cfg)
	if !errors.Is(err, backendErr) {
		t.Fatalf("expected backend error untranslated, got %v", err)
	}

	if engine.IsReady(cfg) {
		t.Error("engine must not report ready after a failed load")
	}
}

func TestLoadRejectsUnknownModel(t *testing.T) {
	engine := NewEngine(&fakePredictor{}, nil)

	if err := engine.Load(context.Background(), Config{Model: "resnet"}); err == nil {
		t.Fatal("expected error for unknown model variant")
	}
}

func TestProcessLoadsLazily(t *testing.T) {
	predictor := &fakePredictor{}
	engine := NewEngine(predictor, nil)

	result, err := engine.Process(context.Background(), testImage(t), Config{})
	if err != nil {
		t.Fatal(err)
	}

	if predictor.loadCalls != 1 {
		t.Errorf("expected process to load the model once, got %d", predictor.loadCalls)
	}
	if result.MediaType != FormatPNG {
		t.Errorf("expected %s, got %s", FormatPNG, result.MediaType)
	}
	if result.Width != 16 || result.Height != 16 {
		t.Errorf("expected 16x16 output, got %dx%d", result.Width, result.Height)
	}
	if len(result.Data) == 0 {
		t.Error("expected non-empty output data")
	}

	// A second call must reuse the loaded model.
	if _, err := engine.Process(context.Background(), testImage(t), Config{}); err != nil {
		t.Fatal(err)
	}
	if predictor.loadCalls != 1 {
		t.Errorf("expected no reload on second process, got %d loads", predictor.loadCalls)
	}
}

func TestProcessRejectsInvalidImage(t *testing.T) {
	predictor := &fakePredictor{}
	engine := NewEngine(predictor, nil)

	_, err := engine.Process(context.Background(), []byte("not an image"), Config{})
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}

	if predictor.loadCalls != 0 {
		t.Error("invalid input must be rejected before the model loads")
	}
}

func TestProcessWrapsInferenceFailure(t *testing.T) {
	cause := errors.New("tensor shape mismatch")
	predictor := &fakePredictor{predictErr: cause}
	engine := NewEngine(predictor, nil)

	_, err := engine.Process(context.Background(), testImage(t), Config{})
	if !errors.Is(err, ErrInferenceFailed) {
		t.Fatalf("expected ErrInferenceFailed, got %v", err)
	}

	if err.Error() != "image processing failed, please try again" {
		t.Errorf("inference failures must surface the generic message, got %q", err.Error())
	}

	if !errors.Is(err, cause) {
		t.Error("underlying cause should stay reachable through Unwrap")
	}
}

func TestProcessLoadFailurePassesThrough(t *testing.T) {
	backendErr := errors.New("no such file")
	predictor := &fakePredictor{loadErr: backendErr}
	engine := NewEngine(predictor, nil)

	_, err := engine.Process(context.Background(), testImage(t), Config{})
	if !errors.Is(err, backendErr) {
		t.Fatalf("expected load error untranslated, got %v", err)
	}
	if errors.Is(err, ErrInferenceFailed) {
		t.Error("load failures must not be reported as inference failures")
	}
}
