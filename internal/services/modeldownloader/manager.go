package modeldownloader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cozy-creator/hf-hub/hub"
	"go.uber.org/zap"

	"github.com/matteworks/matte-server/internal/config"
	"github.com/matteworks/matte-server/internal/segmentation"
)

// Matting networks are small; anything below this is a truncated or failed
// download.
const minModelSize = 1 << 20

type Manager struct {
	cfg       *config.Config
	hubClient *hub.Client
	logger    *zap.Logger
}

func NewManager(cfg *config.Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		cfg:       cfg,
		hubClient: hub.DefaultClient(),
		logger:    logger.Named("modeldownloader"),
	}
}

// EnsureModels downloads every variant that is not already present in the
// models directory. Variants download in parallel; the first error wins.
func (m *Manager) EnsureModels(variants []segmentation.ModelVariant) error {
	if len(variants) == 0 {
		m.logger.Info("No models configured for download")
		return nil
	}

	var wg sync.WaitGroup
	errorChan := make(chan error, len(variants))

	for _, variant := range variants {
		wg.Add(1)
		go func(variant segmentation.ModelVariant) {
			defer wg.Done()

			downloaded, err := m.IsDownloaded(variant)
			if err != nil {
				errorChan <- fmt.Errorf("failed to check if model %s is downloaded: %w", variant, err)
				return
			}

			if !downloaded {
				m.logger.Info("Downloading model", zap.String("model", string(variant)))
				if err := m.Download(variant); err != nil {
					errorChan <- fmt.Errorf("failed to download model %s: %w", variant, err)
				}
			} else {
				m.logger.Info("Model already downloaded", zap.String("model", string(variant)))
			}
		}(variant)
	}

	wg.Wait()
	close(errorChan)

	for err := range errorChan {
		if err != nil {
			return fmt.Errorf("error during model initialization: %w", err)
		}
	}

	return nil
}

func (m *Manager) IsDownloaded(variant segmentation.ModelVariant) (bool, error) {
	path, err := m.ModelPath(variant)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return info.Size() >= minModelSize, nil
}

func (m *Manager) Download(variant segmentation.ModelVariant) error {
	spec, ok := segmentation.Models[variant]
	if !ok {
		return fmt.Errorf("unknown model variant %s", variant)
	}

	source, err := ParseModelSource(spec.Source)
	if err != nil {
		return fmt.Errorf("failed to parse model source: %w", err)
	}

	destPath, err := m.ModelPath(variant)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}

	switch source.Type {
	case SourceTypeHuggingface:
		err = m.downloadHuggingFace(source.Location, destPath)
	case SourceTypeDirect:
		err = m.downloadDirect(source.Location, destPath)
	case SourceTypeFile:
		err = m.verifyLocalFile(source.Location)
	default:
		err = fmt.Errorf("unsupported source type: %s", source.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to download model: %w", err)
	}

	return nil
}

// ModelPath returns where the variant's weights live on disk.
func (m *Manager) ModelPath(variant segmentation.ModelVariant) (string, error) {
	spec, ok := segmentation.Models[variant]
	if !ok {
		return "", fmt.Errorf("unknown model variant %s", variant)
	}

	return filepath.Join(m.cfg.ModelsDir, spec.File), nil
}

func (m *Manager) verifyFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if info.Size() < minModelSize {
		return fmt.Errorf("model file %s is too small (%d bytes)", path, info.Size())
	}

	if !strings.HasSuffix(strings.TrimSuffix(path, ".tmp"), ".onnx") {
		return fmt.Errorf("model file %s does not have an .onnx extension", path)
	}

	return nil
}

func (m *Manager) verifyLocalFile(path string) error {
	if err := m.verifyFile(path); err != nil {
		return fmt.Errorf("failed to verify local file: %w", err)
	}

	return nil
}
