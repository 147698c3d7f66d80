package safetyfilter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/matteworks/matte-server/internal/config"
)

const systemPrompt = `
	The user is submitting a photo to have its background removed. Evaluate the image for safety concerns and return a JSON dict:
	{
		"minor": (boolean),
		"sexualized_minor": (boolean),
		"nudity": (boolean),
		"sexual": (boolean),
		"violence": (boolean),
		"disturbing": (boolean)
	}

	Criteria:
	- "minor": True if the image depicts a child under the age of 16.
	- "sexualized_minor": True if the image sexualizes a child under the age of 16 in any way.
	- "nudity": True if the image contains nudity, including partial nudity.
	- "sexual": True if the image contains adult, pornographic, or sexual content.
	- "violence": True only if the image contains extreme violence or gore.
	- "disturbing": True only if the image is shocking or offensive.
`

type ImageFilterResponse struct {
	Minor           bool `json:"minor"`
	SexualizedMinor bool `json:"sexualized_minor"`
	Nudity          bool `json:"nudity"`
	Sexual          bool `json:"sexual"`
	Violence        bool `json:"violence"`
	Disturbing      bool `json:"disturbing"`
}

type FilterResult struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

type Filter struct {
	client *openai.Client
	logger *zap.Logger
}

// NewFilter returns nil when no OpenAI key is configured; callers treat a nil
// filter as "accept everything".
func NewFilter(cfg *config.Config, logger *zap.Logger) *Filter {
	if cfg.OpenAI == nil || cfg.OpenAI.APIKey == "" {
		return nil
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Filter{
		client: openai.NewClient(cfg.OpenAI.APIKey),
		logger: logger.Named("safetyfilter"),
	}
}

func (f *Filter) invokeModel(ctx context.Context, image []byte) (*ImageFilterResponse, error) {
	mtype := mimetype.Detect(image).String()
	dataURL := fmt.Sprintf("data:%s;base64,%s", mtype, base64.StdEncoding.EncodeToString(image))

	resp, err := f.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       openai.GPT4oMini,
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.Content) == 0 {
		return nil, errors.New("could not evaluate image")
	}

	var res ImageFilterResponse
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &res); err != nil {
		return nil, fmt.Errorf("could not parse response: %w", err)
	}

	return &res, nil
}

// FilterImage screens an uploaded photo before it enters the processing
// pipeline. A nil receiver accepts everything.
func (f *Filter) FilterImage(ctx context.Context, image []byte) (*FilterResult, error) {
	if f == nil {
		return &FilterResult{Accepted: true}, nil
	}

	res, err := f.invokeModel(ctx, image)
	if err != nil {
		return nil, err
	}

	if res.SexualizedMinor || (res.Minor && (res.Sexual || res.Nudity)) {
		return &FilterResult{
			Accepted: false,
			Reason:   "contains child sexual content",
		}, nil
	} else if res.Minor && (res.Violence || res.Disturbing) {
		return &FilterResult{
			Accepted: false,
			Reason:   "contains children and violent or disturbing content",
		}, nil
	}

	return &FilterResult{Accepted: true}, nil
}
