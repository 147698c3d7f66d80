package segmentation

import "fmt"

type Device string

const (
	DeviceCPU Device = "cpu"
	DeviceGPU Device = "gpu"
)

type ModelVariant string

const (
	ModelU2Net     ModelVariant = "u2net"
	ModelU2NetP    ModelVariant = "u2netp"
	ModelISNet     ModelVariant = "isnet"
	ModelISNetFP16 ModelVariant = "isnet_fp16"
)

type OutputType string

const (
	OutputForeground OutputType = "foreground"
	OutputBackground OutputType = "background"
	OutputMask       OutputType = "mask"
)

const (
	FormatPNG  = "image/png"
	FormatJPEG = "image/jpeg"
	FormatWebP = "image/webp"
)

type Output struct {
	Format  string     `json:"format" msgpack:"format"`
	Quality float64    `json:"quality" msgpack:"quality"`
	Type    OutputType `json:"type" msgpack:"type"`

	// Gaussian radius applied to the matte edges before compositing.
	// Zero disables feathering.
	Feather float64 `json:"feather,omitempty" msgpack:"feather,omitempty"`
}

type Config struct {
	Debug  bool         `json:"debug" msgpack:"debug"`
	Device Device       `json:"device" msgpack:"device"`
	Model  ModelVariant `json:"model" msgpack:"model"`
	Output Output       `json:"output" msgpack:"output"`
}

// ModelParams is the subset of Config that selects which model gets
// loaded. Two configs with equal ModelParams can share a loaded model.
type ModelParams struct {
	Model  ModelVariant
	Device Device
	Debug  bool
}

func (c Config) ModelParams() ModelParams {
	return ModelParams{
		Model:  c.Model,
		Device: c.Device,
		Debug:  c.Debug,
	}
}

// WithDefaults fills in zero values without touching fields the caller
// has set.
func (c Config) WithDefaults() Config {
	if c.Device == "" {
		c.Device = DeviceCPU
	}
	if c.Model == "" {
		c.Model = ModelU2NetP
	}
	if c.Output.Format == "" {
		c.Output.Format = FormatPNG
	}
	if c.Output.Quality == 0 {
		c.Output.Quality = 0.8
	}
	if c.Output.Type == "" {
		c.Output.Type = OutputForeground
	}

	return c
}

func (c Config) Validate() error {
	switch c.Device {
	case DeviceCPU, DeviceGPU:
	default:
		return fmt.Errorf("unknown device %q", c.Device)
	}

	if _, ok := Models[c.Model]; !ok {
		return fmt.Errorf("unknown model variant %q", c.Model)
	}

	switch c.Output.Format {
	case FormatPNG, FormatJPEG, FormatWebP:
	default:
		return fmt.Errorf("unsupported output format %q", c.Output.Format)
	}

	if c.Output.Quality < 0 || c.Output.Quality > 1 {
		return fmt.Errorf("output quality %v is outside [0,1]", c.Output.Quality)
	}

	switch c.Output.Type {
	case OutputForeground, OutputBackground, OutputMask:
	default:
		return fmt.Errorf("unknown output type %q", c.Output.Type)
	}

	return nil
}
