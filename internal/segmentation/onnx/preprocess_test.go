package onnx

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/matteworks/matte-server/internal/segmentation"
)

func TestPreprocessLayout(t *testing.T) {
	spec := segmentation.Models[segmentation.ModelU2NetP]

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}

	data := preprocess(img, spec)

	size := spec.InputSize
	if len(data) != 3*size*size {
		t.Fatalf("expected %d values, got %d", 3*size*size, len(data))
	}

	plane := size * size
	wantR := (1.0 - spec.Mean[0]) / spec.Std[0]
	wantG := (0.0 - spec.Mean[1]) / spec.Std[1]
	wantB := (0.0 - spec.Mean[2]) / spec.Std[2]

	// Sample the center of the resized image; edges may blend during
	// interpolation.
	idx := (size/2)*size + size/2
	if !closeTo(data[idx], wantR) {
		t.Errorf("red plane: got %v, want %v", data[idx], wantR)
	}
	if !closeTo(data[plane+idx], wantG) {
		t.Errorf("green plane: got %v, want %v", data[plane+idx], wantG)
	}
	if !closeTo(data[2*plane+idx], wantB) {
		t.Errorf("blue plane: got %v, want %v", data[2*plane+idx], wantB)
	}
}

func closeTo(got float32, want float32) bool {
	return math.Abs(float64(got-want)) < 0.02
}

func TestMatteFromLogitsNormalizes(t *testing.T) {
	logits := []float32{-4, -4, 2, 8}
	matte := matteFromLogits(logits, 2)

	if matte.GrayAt(0, 0).Y != 0 {
		t.Errorf("minimum logit should map to 0, got %d", matte.GrayAt(0, 0).Y)
	}
	if matte.GrayAt(1, 1).Y != 255 {
		t.Errorf("maximum logit should map to 255, got %d", matte.GrayAt(1, 1).Y)
	}

	mid := matte.GrayAt(0, 1).Y
	if mid == 0 || mid == 255 {
		t.Errorf("mid logit should map between the extremes, got %d", mid)
	}
}

func TestMatteFromLogitsConstantInput(t *testing.T) {
	logits := []float32{0.5, 0.5, 0.5, 0.5}
	matte := matteFromLogits(logits, 2)

	// Zero dynamic range must not divide by zero.
	if matte.GrayAt(0, 0).Y != matte.GrayAt(1, 1).Y {
		t.Error("constant logits should produce a uniform matte")
	}
}
