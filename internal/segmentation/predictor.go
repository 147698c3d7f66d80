package segmentation

import (
	"context"
	"image"
)

// Predictor is the inference backend. Implementations own the model
// weights and runtime session; the Engine owns which model is loaded.
type Predictor interface {
	// LoadModel prepares the backend for the given parameters,
	// replacing any previously loaded model.
	LoadModel(ctx context.Context, params ModelParams) error

	// Predict runs the loaded model against img and returns an alpha
	// matte. The matte may be at the model's native resolution; callers
	// rescale it to the source dimensions.
	Predict(ctx context.Context, img image.Image) (*image.Gray, error)

	Close() error
}
