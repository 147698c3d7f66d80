package filestorage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matteworks/matte-server/internal/config"
)

func newTestStorage(t *testing.T) *LocalFileStorage {
	t.Helper()

	storage, err := NewLocalFileStorage(&config.Config{
		Host:           "localhost",
		Port:           8881,
		FilesystemType: config.FilesystemLocal,
		AssetsDir:      filepath.Join(t.TempDir(), "assets"),
		TempDir:        filepath.Join(t.TempDir(), "temp"),
	})
	if err != nil {
		t.Fatal(err)
	}

	return storage
}

func TestLocalUploadBytes(t *testing.T) {
	storage := newTestStorage(t)

	url, err := storage.Upload(NewFileInfo("matte01", ".png", []byte("png-bytes"), false))
	if err != nil {
		t.Fatal(err)
	}

	if url != "http://localhost:8881/file/matte01.png" {
		t.Errorf("unexpected url %q", url)
	}

	content, err := os.ReadFile(filepath.Join(storage.assetsDir, "matte01.png"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "png-bytes" {
		t.Errorf("stored content %q", content)
	}
}

func TestLocalUploadStream(t *testing.T) {
	storage := newTestStorage(t)

	file := FileInfo{
		Name:      "stream01",
		Extension: ".bin",
		Content:   bytes.NewReader([]byte("streamed")),
		Kind:      FileKindStream,
		IsTemp:    true,
	}

	if _, err := storage.Upload(file); err != nil {
		t.Fatal(err)
	}

	content, err := os.ReadFile(filepath.Join(storage.tempDir, "stream01.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "streamed" {
		t.Errorf("stored content %q", content)
	}
}

func TestLocalUploadUnknownKind(t *testing.T) {
	storage := newTestStorage(t)

	_, err := storage.Upload(FileInfo{Name: "x", Extension: ".bin", Kind: "socket"})
	if !errors.Is(err, ErrUnknownFileKind) {
		t.Errorf("expected ErrUnknownFileKind, got %v", err)
	}
}

func TestLocalGetFile(t *testing.T) {
	storage := newTestStorage(t)

	if _, err := storage.Upload(NewFileInfo("get01", ".txt", []byte("content"), false)); err != nil {
		t.Fatal(err)
	}

	file, err := storage.GetFile("get01.txt")
	if err != nil {
		t.Fatal(err)
	}

	if string(file.Content.([]byte)) != "content" {
		t.Errorf("got %q", file.Content)
	}
	if file.Extension != ".txt" {
		t.Errorf("got extension %q", file.Extension)
	}
}

func TestLocalResolveFile(t *testing.T) {
	storage := newTestStorage(t)

	if _, err := storage.Upload(NewFileInfo("resolve01", ".png", []byte("data"), false)); err != nil {
		t.Fatal(err)
	}

	path, err := storage.ResolveFile("resolve01.png", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(path, "resolve01.png") {
		t.Errorf("unexpected path %q", path)
	}

	if _, err := storage.ResolveFile("missing.png", "", false); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNewFileStorageRejectsUnknownFilesystem(t *testing.T) {
	_, err := NewFileStorage(&config.Config{FilesystemType: "nfs"})
	if err == nil {
		t.Fatal("expected error for unknown filesystem type")
	}
}
