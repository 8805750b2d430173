package mediaserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Notifier asks the media server to rescan its library after a sync run
// produced or removed artifacts.
type Notifier interface {
	Refresh(ctx context.Context) error
}

// HTTPDoer describes the HTTP client used by the media-server notifier.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type httpNotifier struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

type noopNotifier struct{}

func (noopNotifier) Refresh(context.Context) error { return nil }

// New returns a notifier that POSTs a library refresh when a URL and API key
// are configured, and a noop otherwise.
func New(baseURL, apiKey string) Notifier {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	apiKey = strings.TrimSpace(apiKey)
	if baseURL == "" || apiKey == "" {
		return noopNotifier{}
	}
	return &httpNotifier{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// NewWithClient constructs an HTTP-backed notifier with a custom client
// (used in tests).
func NewWithClient(baseURL, apiKey string, client HTTPDoer) Notifier {
	return &httpNotifier{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  client,
	}
}

func (n *httpNotifier) Refresh(ctx context.Context) error {
	if n == nil || n.client == nil || n.baseURL == "" || n.apiKey == "" {
		return nil
	}
	refreshURL := fmt.Sprintf("%s/Library/Refresh", n.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, refreshURL, nil)
	if err != nil {
		return fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("X-Emby-Token", n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("refresh media library: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("media server refresh returned %d", resp.StatusCode)
	}
	return nil
}
