package fileuploader

import (
	"errors"

	"github.com/gammazero/workerpool"
	"go.uber.org/zap"

	"github.com/matteworks/matte-server/internal/services/filestorage"
	"github.com/matteworks/matte-server/internal/utils/hashutil"
)

type Uploader struct {
	wp          *workerpool.WorkerPool
	filestorage filestorage.FileStorage
	logger      *zap.Logger
}

func NewFileUploader(filestorage filestorage.FileStorage, maxWorkers int, logger *zap.Logger) *Uploader {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Uploader{
		wp:          workerpool.New(maxWorkers),
		filestorage: filestorage,
		logger:      logger.Named("fileuploader"),
	}
}

func (w *Uploader) Stop() {
	w.wp.Stop()
}

// Upload submits the file to the worker pool. The destination URL is sent on
// response once the upload finishes; on failure an empty string is sent so
// callers waiting on the channel never block forever.
func (w *Uploader) Upload(file filestorage.FileInfo, response chan string) {
	upload := func() {
		w.upload(file, response)
	}

	w.wp.Submit(upload)
}

// UploadBytes stores the content under its blake3 hash, so identical outputs
// land on the same key.
func (w *Uploader) UploadBytes(file []byte, extension string, isTemp bool, response chan string) {
	fileHash := hashutil.Blake3Hash(file)
	fileInfo := filestorage.FileInfo{
		Name:      fileHash,
		Extension: extension,
		Content:   file,
		Kind:      filestorage.FileKindBytes,
		IsTemp:    isTemp,
	}

	w.Upload(fileInfo, response)
}

// ResolveFile maps a stored filename to a path on local disk. Only
// meaningful for local storage.
func (w *Uploader) ResolveFile(filename, subfolder string, isTemp bool) (string, error) {
	if w.filestorage == nil {
		return "", errors.New("file storage is not configured")
	}

	return w.filestorage.ResolveFile(filename, subfolder, isTemp)
}

func (w *Uploader) upload(file filestorage.FileInfo, response chan string) {
	if w.filestorage == nil {
		response <- ""
		return
	}

	url, err := w.filestorage.Upload(file)
	if err != nil {
		w.logger.Error("upload failed", zap.String("name", file.Name), zap.Error(err))
		response <- ""
		return
	}

	response <- url
}
