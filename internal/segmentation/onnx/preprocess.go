package onnx

import (
	"image"
	"image/color"

	"github.com/matteworks/matte-server/internal/segmentation"

	xdraw "golang.org/x/image/draw"
)

// preprocess resizes img to the model's square input and lays it out as
// a normalized CHW float32 buffer.
func preprocess(img image.Image, spec segmentation.ModelSpec) []float32 {
	size := spec.InputSize
	resized := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.BiLinear.Scale(resized, resized.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	data := make([]float32, 3*size*size)
	plane := size * size

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := resized.RGBAAt(x, y)
			idx := y*size + x

			data[idx] = (float32(c.R)/255.0 - spec.Mean[0]) / spec.Std[0]
			data[plane+idx] = (float32(c.G)/255.0 - spec.Mean[1]) / spec.Std[1]
			data[2*plane+idx] = (float32(c.B)/255.0 - spec.Mean[2]) / spec.Std[2]
		}
	}

	return data
}

// matteFromLogits min-max normalizes the model output into an 8-bit
// alpha matte.
func matteFromLogits(logits []float32, size int) *image.Gray {
	lo, hi := logits[0], logits[0]
	for _, v := range logits {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	scale := hi - lo
	if scale == 0 {
		scale = 1
	}

	matte := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := (logits[y*size+x] - lo) / scale
			matte.SetGray(x, y, color.Gray{Y: uint8(v * 255)})
		}
	}

	return matte
}
