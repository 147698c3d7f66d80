package modeldownloader

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cozy-creator/hf-hub/hub"
	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
	"go.uber.org/zap"
)

func (m *Manager) downloadHuggingFace(location, destPath string) error {
	repoID, fileName, err := splitHuggingfaceLocation(location)
	if err != nil {
		return err
	}

	m.logger.Info("Downloading from HuggingFace",
		zap.String("repo_id", repoID),
		zap.String("file", fileName),
	)

	params := hub.DownloadParams{
		Repo: &hub.Repo{Id: repoID, Type: hub.ModelRepoType, Revision: hub.DefaultRevision},
	}
	snapshotPath, err := m.hubClient.Download(&params)
	if err != nil {
		return fmt.Errorf("failed to download repo from HuggingFace: %w", err)
	}

	srcPath := filepath.Join(snapshotPath, fileName)
	if err := copyFile(srcPath, destPath); err != nil {
		return fmt.Errorf("failed to copy model out of hub cache: %w", err)
	}

	return m.verifyFile(destPath)
}

func (m *Manager) downloadDirect(url, destPath string) error {
	m.logger.Info("Downloading from direct URL",
		zap.String("url", url),
		zap.String("dest", destPath),
	)

	tmpPath := destPath + ".tmp"

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 5 * time.Minute
	b.InitialInterval = 1 * time.Second
	b.MaxInterval = 30 * time.Second

	return backoff.Retry(func() error {
		return m.downloadWithResume(url, destPath, tmpPath)
	}, b)
}

func (m *Manager) downloadWithResume(url, destPath, tmpPath string) error {
	// check for partial download
	var initialSize int64 = 0
	if info, err := os.Stat(tmpPath); err == nil {
		initialSize = info.Size()
	}

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if initialSize > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", initialSize))
	}

	client := &http.Client{
		Timeout: 0, // No total timeout
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: 60 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   60 * time.Second,
			ResponseHeaderTimeout: 60 * time.Second,
			IdleConnTimeout:       60 * time.Second,
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// handle resume status
	var totalSize int64
	if initialSize > 0 {
		if resp.StatusCode == http.StatusPartialContent {
			totalSize = initialSize + resp.ContentLength
		} else if resp.StatusCode == http.StatusOK {
			// server does not support partial content, start over
			m.logger.Warn("Server doesn't support resume, starting download from beginning")
			initialSize = 0
			totalSize = resp.ContentLength
			if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to discard partial download: %w", err)
			}
		} else {
			return fmt.Errorf("resume failed with status %d", resp.StatusCode)
		}
	} else {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("download failed with status %d", resp.StatusCode)
		}
		totalSize = resp.ContentLength
	}

	// open file in appropriate mode
	flag := os.O_CREATE | os.O_WRONLY
	if initialSize > 0 {
		flag |= os.O_APPEND
	}

	f, err := os.OpenFile(tmpPath, flag, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	// setup progress bar
	progress := mpb.New(
		mpb.WithWidth(60),
		mpb.WithRefreshRate(180*time.Millisecond),
	)

	bar := progress.AddBar(totalSize,
		mpb.PrependDecorators(
			decor.Name(filepath.Base(destPath), decor.WC{W: 40, C: decor.DidentRight}),
			decor.CountersKibiByte("% .2f / % .2f"),
		),
		mpb.AppendDecorators(
			decor.EwmaETA(decor.ET_STYLE_GO, 90),
			decor.Name(" ] "),
			decor.EwmaSpeed(decor.UnitKiB, "% .2f", 60),
		),
	)

	if initialSize > 0 {
		bar.SetCurrent(initialSize)
	}

	downloadedSize := initialSize
	reader := bar.ProxyReader(resp.Body)
	buf := make([]byte, 32*1024)

	for {
		n, err := reader.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return fmt.Errorf("write failed: %w", werr)
			}

			downloadedSize += int64(n)
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read failed: %w", err)
		}
	}

	// verify size
	if totalSize > 0 && downloadedSize != totalSize {
		return fmt.Errorf("download size mismatch: expected %d, got %d", totalSize, downloadedSize)
	}

	// verify file
	if err := m.verifyFile(tmpPath); err != nil {
		return fmt.Errorf("failed to verify file: %w", err)
	}

	// move file to final destination
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to move file: %w", err)
	}

	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}

	return out.Sync()
}
