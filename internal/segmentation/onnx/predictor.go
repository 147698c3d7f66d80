package onnx

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/matteworks/matte-server/internal/segmentation"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
)

var (
	runtimeOnce sync.Once
	runtimeErr  error
)

// Predictor runs segmentation models through ONNX Runtime. One model is
// resident at a time; LoadModel swaps it out.
type Predictor struct {
	modelsDir   string
	libraryPath string
	logger      *zap.Logger

	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	spec    segmentation.ModelSpec
	loaded  bool
}

func NewPredictor(modelsDir, libraryPath string, logger *zap.Logger) *Predictor {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Predictor{
		modelsDir:   modelsDir,
		libraryPath: libraryPath,
		logger:      logger.Named("onnx"),
	}
}

func (p *Predictor) initRuntime() error {
	runtimeOnce.Do(func() {
		if p.libraryPath != "" {
			ort.SetSharedLibraryPath(p.libraryPath)
		}
		runtimeErr = ort.InitializeEnvironment()
	})

	return runtimeErr
}

func (p *Predictor) LoadModel(ctx context.Context, params segmentation.ModelParams) error {
	if err := p.initRuntime(); err != nil {
		return fmt.Errorf("failed to initialize onnxruntime: %w", err)
	}

	spec, ok := segmentation.Models[params.Model]
	if !ok {
		return fmt.Errorf("unknown model variant %q", params.Model)
	}

	modelPath := filepath.Join(p.modelsDir, spec.File)
	if _, err := os.Stat(modelPath); err != nil {
		return fmt.Errorf("model file %s is not available: %w", spec.File, err)
	}

	p.release()

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, int64(spec.InputSize), int64(spec.InputSize)))
	if err != nil {
		return fmt.Errorf("failed to create input tensor: %w", err)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1, int64(spec.InputSize), int64(spec.InputSize)))
	if err != nil {
		input.Destroy()
		return fmt.Errorf("failed to create output tensor: %w", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		input.Destroy()
		output.Destroy()
		return fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	if params.Device == segmentation.DeviceGPU {
		if err := appendCUDA(options); err != nil {
			// GPU support is best effort; fall back to cpu.
			p.logger.Warn("gpu execution provider unavailable, falling back to cpu", zap.Error(err))
		}
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{spec.InputName},
		[]string{spec.OutputName},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		options,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return fmt.Errorf("failed to create session for %s: %w", params.Model, err)
	}

	p.session = session
	p.input = input
	p.output = output
	p.spec = spec
	p.loaded = true

	if params.Debug {
		p.logger.Debug("session created",
			zap.String("model_path", modelPath),
			zap.Int("input_size", spec.InputSize),
			zap.String("device", string(params.Device)),
		)
	}

	return nil
}

func appendCUDA(options *ort.SessionOptions) error {
	cudaOptions, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return err
	}
	defer cudaOptions.Destroy()

	return options.AppendExecutionProviderCUDA(cudaOptions)
}

func (p *Predictor) Predict(ctx context.Context, img image.Image) (*image.Gray, error) {
	if !p.loaded {
		return nil, fmt.Errorf("no model loaded")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	copy(p.input.GetData(), preprocess(img, p.spec))

	if err := p.session.Run(); err != nil {
		return nil, fmt.Errorf("session run failed: %w", err)
	}

	logits := p.output.GetData()
	out := make([]float32, len(logits))
	copy(out, logits)

	return matteFromLogits(out, p.spec.InputSize), nil
}

func (p *Predictor) release() {
	if p.session != nil {
		p.session.Destroy()
		p.session = nil
	}
	if p.input != nil {
		p.input.Destroy()
		p.input = nil
	}
	if p.output != nil {
		p.output.Destroy()
		p.output = nil
	}

	p.loaded = false
}

func (p *Predictor) Close() error {
	p.release()
	return nil
}
