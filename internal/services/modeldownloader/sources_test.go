package modeldownloader

import "testing"

func TestParseModelSource(t *testing.T) {
	tests := []struct {
		source   string
		wantType ModelSourceType
		wantLoc  string
		wantErr  bool
	}{
		{"hf:matteworks/isnet-onnx/isnet-general-use-fp16.onnx", SourceTypeHuggingface, "matteworks/isnet-onnx/isnet-general-use-fp16.onnx", false},
		{"https://example.com/u2net.onnx", SourceTypeDirect, "https://example.com/u2net.onnx", false},
		{"http://example.com/u2net.onnx", SourceTypeDirect, "http://example.com/u2net.onnx", false},
		{"file:/opt/models/u2net.onnx", SourceTypeFile, "/opt/models/u2net.onnx", false},
		{"", "", "", true},
		{"ftp://example.com/u2net.onnx", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			source, err := ParseModelSource(tt.source)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}

			if source.Type != tt.wantType {
				t.Errorf("type = %q, want %q", source.Type, tt.wantType)
			}
			if source.Location != tt.wantLoc {
				t.Errorf("location = %q, want %q", source.Location, tt.wantLoc)
			}
			if source.Original != tt.source {
				t.Errorf("original = %q, want %q", source.Original, tt.source)
			}
		})
	}
}

func TestSplitHuggingfaceLocation(t *testing.T) {
	repoID, fileName, err := splitHuggingfaceLocation("matteworks/isnet-onnx/weights/isnet.onnx")
	if err != nil {
		t.Fatal(err)
	}

	if repoID != "matteworks/isnet-onnx" {
		t.Errorf("repo = %q", repoID)
	}
	if fileName != "weights/isnet.onnx" {
		t.Errorf("file = %q", fileName)
	}

	if _, _, err := splitHuggingfaceLocation("matteworks/isnet-onnx"); err == nil {
		t.Error("expected error for a location without a file path")
	}
}
