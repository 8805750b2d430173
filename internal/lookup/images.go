package lookup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultImageBaseURL is the public image CDN prefix for poster/backdrop
// paths returned by the metadata service.
const DefaultImageBaseURL = "https://image.tmdb.org/t/p/original"

// WithImageBaseURL overrides the image CDN prefix.
func WithImageBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			c.imageBaseURL = trimmed
		}
	}
}

// DownloadImage fetches the raw bytes for a poster/backdrop/still path. The
// image CDN requires no credentials, so none are sent.
func (c *Client) DownloadImage(ctx context.Context, imagePath string) ([]byte, error) {
	imagePath = strings.TrimSpace(imagePath)
	if imagePath == "" {
		return nil, errors.New("image path is empty")
	}
	if !strings.HasPrefix(imagePath, "/") {
		imagePath = "/" + imagePath
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.imageBaseURL+imagePath, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("fetch image %s (latency=%v): %w", imagePath, latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image %s returned %d (latency=%v)", imagePath, resp.StatusCode, latency)
	}
	return io.ReadAll(resp.Body)
}
