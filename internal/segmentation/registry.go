package segmentation

// ModelSpec describes a pretrained segmentation model variant: where
// its weights come from, the tensor names the exported graph uses and
// the normalization its training pipeline applied.
type ModelSpec struct {
	File       string
	Source     string
	InputSize  int
	InputName  string
	OutputName string
	Mean       [3]float32
	Std        [3]float32
}

var Models = map[ModelVariant]ModelSpec{
	ModelU2Net: {
		File:       "u2net.onnx",
		Source:     "https://github.com/danielgatis/rembg/releases/download/v0.0.0/u2net.onnx",
		InputSize:  320,
		InputName:  "input.1",
		OutputName: "1959",
		Mean:       [3]float32{0.485, 0.456, 0.406},
		Std:        [3]float32{0.229, 0.224, 0.225},
	},
	ModelU2NetP: {
		File:       "u2netp.onnx",
		Source:     "https://github.com/danielgatis/rembg/releases/download/v0.0.0/u2netp.onnx",
		InputSize:  320,
		InputName:  "input.1",
		OutputName: "1959",
		Mean:       [3]float32{0.485, 0.456, 0.406},
		Std:        [3]float32{0.229, 0.224, 0.225},
	},
	ModelISNet: {
		File:       "isnet-general-use.onnx",
		Source:     "https://github.com/danielgatis/rembg/releases/download/v0.0.0/isnet-general-use.onnx",
		InputSize:  1024,
		InputName:  "input",
		OutputName: "output",
		Mean:       [3]float32{0.5, 0.5, 0.5},
		Std:        [3]float32{1.0, 1.0, 1.0},
	},
	ModelISNetFP16: {
		File:       "isnet-general-use-fp16.onnx",
		Source:     "hf:matteworks/isnet-onnx/isnet-general-use-fp16.onnx",
		InputSize:  1024,
		InputName:  "input",
		OutputName: "output",
		Mean:       [3]float32{0.5, 0.5, 0.5},
		Std:        [3]float32{1.0, 1.0, 1.0},
	},
}

// Variants lists the known model variants in a stable order.
func Variants() []ModelVariant {
	return []ModelVariant{ModelU2Net, ModelU2NetP, ModelISNet, ModelISNetFP16}
}
