package webhookutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

func Invoke[T any](ctx context.Context, url string, data T) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	httpClient := &http.Client{Timeout: 2 * time.Minute}
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	return fmt.Errorf("webhook returned non-2xx status: %d", resp.StatusCode)
}

func InvokeWithRetries[T any](ctx context.Context, url string, data T, maxAttempts int) error {
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(maxAttempts))

	return backoff.Retry(func() error {
		return Invoke(ctx, url, data)
	}, backoff.WithContext(b, ctx))
}
