package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Pesokrava/park_reviewer/internal/domain"
)

// maxConvertedSize caps the converter response body
const maxConvertedSize = domain.MaxImageSize + 1

// HTTPConverter sends HEIC/HEIF images to an external transcoding service.
// The service receives the raw bytes and answers with the encoded image and its Content-Type.
type HTTPConverter struct {
	url    string
	client *http.Client
}

// NewHTTPConverter creates a converter client for the service at url
func NewHTTPConverter(url string, timeout time.Duration) *HTTPConverter {
	return &HTTPConverter{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Convert transcodes data and returns the converted bytes and content type
func (c *HTTPConverter) Convert(ctx context.Context, data []byte, contentType string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("build converter request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "image/jpeg")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("converter request: %w: %v", domain.ErrStorage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("converter returned status %d: %w", resp.StatusCode, domain.ErrStorage)
	}

	out, err := io.ReadAll(io.LimitReader(resp.Body, maxConvertedSize))
	if err != nil {
		return nil, "", fmt.Errorf("read converter response: %w: %v", domain.ErrStorage, err)
	}

	outType := resp.Header.Get("Content-Type")
	if outType == "" {
		outType = "image/jpeg"
	}

	return out, outType, nil
}
