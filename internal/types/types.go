package types

import "github.com/matteworks/matte-server/internal/segmentation"

// Request from client - no ID field
type SegmentParamsRequest struct {
	Model      string  `json:"model" msgpack:"model"`
	Device     string  `json:"device,omitempty" msgpack:"device,omitempty"`
	Debug      bool    `json:"debug,omitempty" msgpack:"debug,omitempty"`
	Format     string  `json:"format" msgpack:"format"`
	Quality    float64 `json:"quality" msgpack:"quality"`
	Type       string  `json:"type" msgpack:"type"`
	Feather    float64 `json:"feather,omitempty" msgpack:"feather,omitempty"`
	WebhookUrl string  `json:"webhook_url,omitempty" msgpack:"webhook_url,omitempty"`
}

// Config builds a segmentation config from the request fields. Zero-valued
// fields are filled in by segmentation.Config.WithDefaults downstream.
func (r *SegmentParamsRequest) Config() segmentation.Config {
	return segmentation.Config{
		Debug:  r.Debug,
		Device: segmentation.Device(r.Device),
		Model:  segmentation.ModelVariant(r.Model),
		Output: segmentation.Output{
			Format:  r.Format,
			Quality: r.Quality,
			Type:    segmentation.OutputType(r.Type),
			Feather: r.Feather,
		},
	}
}

// Internal type with server-generated ID, carried over the message queue.
type SegmentJob struct {
	ID         string               `json:"id" msgpack:"id"`
	Filename   string               `json:"filename" msgpack:"filename"`
	Image      []byte               `json:"-" msgpack:"image"`
	Params     SegmentParamsRequest `json:"params" msgpack:"params"`
	WebhookUrl string               `json:"webhook_url,omitempty" msgpack:"webhook_url,omitempty"`
}

type UploadResponse struct {
	Url string `json:"url"`
}

type SegmentResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Url    string `json:"url,omitempty"`
	Error  string `json:"error,omitempty"`
}
