package segmentation

import "testing"

func TestWithDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()

	if cfg.Device != DeviceCPU {
		t.Errorf("default device: got %q", cfg.Device)
	}
	if cfg.Model != ModelU2NetP {
		t.Errorf("default model: got %q", cfg.Model)
	}
	if cfg.Output.Format != FormatPNG {
		t.Errorf("default format: got %q", cfg.Output.Format)
	}
	if cfg.Output.Quality != 0.8 {
		t.Errorf("default quality: got %v", cfg.Output.Quality)
	}
	if cfg.Output.Type != OutputForeground {
		t.Errorf("default output type: got %q", cfg.Output.Type)
	}
}

func TestWithDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{
		Device: DeviceGPU,
		Model:  ModelISNet,
		Output: Output{Format: FormatJPEG, Quality: 0.5, Type: OutputMask},
	}.WithDefaults()

	if cfg.Device != DeviceGPU || cfg.Model != ModelISNet {
		t.Error("explicit model selection was overwritten")
	}
	if cfg.Output.Format != FormatJPEG || cfg.Output.Quality != 0.5 || cfg.Output.Type != OutputMask {
		t.Error("explicit output settings were overwritten")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}.WithDefaults(), false},
		{"gpu isnet", Config{Device: DeviceGPU, Model: ModelISNet}.WithDefaults(), false},
		{"unknown device", Config{Device: "tpu", Model: ModelU2Net}.WithDefaults(), true},
		{"unknown model", Config{Model: "segformer"}.WithDefaults(), true},
		{"bad format", Config{Output: Output{Format: "image/gif"}}.WithDefaults(), true},
		{"quality above one", Config{Output: Output{Quality: 1.5}}.WithDefaults(), true},
		{"quality below zero", Config{Output: Output{Quality: -0.5}}.WithDefaults(), true},
		{"bad output type", Config{Output: Output{Type: "outline"}}.WithDefaults(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestModelParamsIgnoresOutput(t *testing.T) {
	a := Config{Model: ModelU2Net, Output: Output{Format: FormatPNG}}.ModelParams()
	b := Config{Model: ModelU2Net, Output: Output{Format: FormatJPEG, Quality: 0.3}}.ModelParams()

	if a != b {
		t.Error("output settings must not affect which model is considered loaded")
	}
}
