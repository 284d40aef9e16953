package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"tflite-inspector/internal/core/domain"
	"tflite-inspector/internal/core/ports/output"
	"tflite-inspector/internal/tflite"
)

type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) ports.ModelFetcher {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch downloads the model artifact at uri, reading at most maxBytes.
func (c *Client) Fetch(ctx context.Context, uri string, maxBytes int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("create model request: %w", err)
	}
	req.Header.Set("Accept", "application/octet-stream")

	log.WithFields(log.Fields{
		"url": uri,
	}).Debug("fetching model artifact")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model request: unexpected status %d", resp.StatusCode)
	}
	if maxBytes > 0 && resp.ContentLength > maxBytes {
		return nil, fmt.Errorf("%w: content length %d, limit %d", domain.ErrModelTooLarge, resp.ContentLength, maxBytes)
	}

	data, err := tflite.ReadAll(resp.Body, maxBytes)
	if err != nil {
		if errors.Is(err, tflite.ErrModelTooLarge) {
			return nil, fmt.Errorf("%w: %v", domain.ErrModelTooLarge, err)
		}
		return nil, err
	}

	log.WithFields(log.Fields{
		"url":   uri,
		"bytes": len(data),
	}).Debug("model artifact fetched")

	return data, nil
}
