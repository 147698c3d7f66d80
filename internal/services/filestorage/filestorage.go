package filestorage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matteworks/matte-server/internal/config"
)

type FileKind string

const (
	FileKindBytes  FileKind = "bytes"
	FileKindStream FileKind = "stream"
)

var ErrUnknownFileKind = errors.New("unknown file kind")

type FileInfo struct {
	Name      string
	Extension string
	Content   interface{}
	Kind      FileKind
	IsTemp    bool
}

type FileStorage interface {
	Upload(file FileInfo) (string, error)
	UploadMultiple(files []FileInfo) ([]string, error)
	GetFile(filename string) (*FileInfo, error)
	ResolveFile(filename string, subfolder string, isTemp bool) (string, error)
}

func NewFileInfo(name string, extension string, content []byte, isTemp bool) FileInfo {
	return FileInfo{
		Name:      name,
		Extension: extension,
		Content:   content,
		Kind:      FileKindBytes,
		IsTemp:    isTemp,
	}
}

func NewFileStorage(cfg *config.Config) (FileStorage, error) {
	filesystem := strings.ToLower(cfg.FilesystemType)

	if filesystem == strings.ToLower(config.FilesystemLocal) {
		return NewLocalFileStorage(cfg)
	} else if filesystem == strings.ToLower(config.FilesystemS3) {
		return NewS3FileStorage(cfg)
	}

	return nil, fmt.Errorf("invalid filesystem type %s", cfg.FilesystemType)
}
