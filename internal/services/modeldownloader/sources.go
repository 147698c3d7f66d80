package modeldownloader

import (
	"fmt"
	"strings"
)

type ModelSourceType string

const (
	SourceTypeHuggingface ModelSourceType = "huggingface"
	SourceTypeDirect      ModelSourceType = "direct"
	SourceTypeFile        ModelSourceType = "file"
)

type ModelSource struct {
	Type     ModelSourceType
	Location string
	Original string
}

func ParseModelSource(source string) (*ModelSource, error) {
	if source == "" {
		return nil, fmt.Errorf("empty source string. Source is required")
	}

	ms := &ModelSource{
		Original: source,
	}

	if strings.HasPrefix(source, "hf:") {
		ms.Type = SourceTypeHuggingface
		ms.Location = strings.TrimPrefix(source, "hf:")
	} else if strings.HasPrefix(source, "file:") {
		ms.Type = SourceTypeFile
		ms.Location = strings.TrimPrefix(source, "file:")
	} else if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		ms.Type = SourceTypeDirect
		ms.Location = source
	} else {
		return nil, fmt.Errorf("unsupported model source: %s", source)
	}

	return ms, nil
}

// splitHuggingfaceLocation splits "owner/repo/path/to/file.onnx" into the
// repo id and the file path inside the repo.
func splitHuggingfaceLocation(location string) (string, string, error) {
	parts := strings.SplitN(location, "/", 3)
	if len(parts) < 3 {
		return "", "", fmt.Errorf("huggingface source must be owner/repo/file, got %s", location)
	}

	return parts[0] + "/" + parts[1], parts[2], nil
}
