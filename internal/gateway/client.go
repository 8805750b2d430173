package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// Entry is a single remote file or directory as reported by the storage
// gateway. Entries are immutable snapshots valid for one sync run.
type Entry struct {
	Name       string
	Path       string
	IsDir      bool
	Size       int64
	SignedURL  string
	Checksum   string
	ModifiedAt time.Time
}

// Lister is the listing surface the discovery walk and the priority resolver
// need from the gateway.
type Lister interface {
	List(ctx context.Context, remotePath string) ([]Entry, error)
}

// Fetcher downloads raw bytes from a signed URL.
type Fetcher interface {
	Fetch(ctx context.Context, signedURL string) ([]byte, error)
}

// Client talks to the storage-gateway HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ Lister = (*Client)(nil)
var _ Fetcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. The redirect policy is
// re-applied so credential scoping survives the override.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a storage-gateway client. The token, when non-empty, is sent as
// an Authorization header on every request.
func New(baseURL, token string, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("gateway base url required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	client.httpClient.CheckRedirect = scopedRedirect
	return client, nil
}

// scopedRedirect allows a single redirect and drops the Authorization header
// when the redirect target lives on a different host, so gateway credentials
// never leak to third-party storage backends.
func scopedRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 2 {
		return errors.New("stopped after one redirect")
	}
	if req.URL.Host != via[0].URL.Host {
		req.Header.Del("Authorization")
	}
	return nil
}

type listRequest struct {
	Path string `json:"path"`
}

type listEntry struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	IsDirectory bool      `json:"isDirectory"`
	ModifiedAt  time.Time `json:"modifiedAt"`
	SignedURL   string    `json:"signedUrl"`
	Checksum    string    `json:"checksum,omitempty"`
}

type listResponse struct {
	Files []listEntry `json:"files"`
}

// List fetches the direct children of remotePath.
func (c *Client) List(ctx context.Context, remotePath string) ([]Entry, error) {
	remotePath = strings.TrimSpace(remotePath)
	if remotePath == "" {
		return nil, errors.New("remote path must not be empty")
	}

	body, err := json.Marshal(listRequest{Path: remotePath})
	if err != nil {
		return nil, fmt.Errorf("marshal list request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/list", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrPathNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway list returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var payload listResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode list response: %w", err)
	}

	entries := make([]Entry, 0, len(payload.Files))
	for _, f := range payload.Files {
		entries = append(entries, Entry{
			Name:       f.Name,
			Path:       path.Join(remotePath, f.Name),
			IsDir:      f.IsDirectory,
			Size:       f.Size,
			SignedURL:  f.SignedURL,
			Checksum:   f.Checksum,
			ModifiedAt: f.ModifiedAt,
		})
	}
	return entries, nil
}

// ErrPathNotFound reports that the gateway does not know the requested path.
// The reconciler distinguishes this from a transport failure: only a
// confirmed-absent directory is eligible for bulk deletion.
var ErrPathNotFound = errors.New("remote path not found")

// Fetch downloads the bytes behind a signed URL.
func (c *Client) Fetch(ctx context.Context, signedURL string) ([]byte, error) {
	signedURL = strings.TrimSpace(signedURL)
	if signedURL == "" {
		return nil, errors.New("signed url must not be empty")
	}
	if _, err := url.Parse(signedURL); err != nil {
		return nil, fmt.Errorf("parse signed url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("content fetch returned %d (latency=%v)", resp.StatusCode, latency)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read content body: %w", err)
	}
	return data, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}
}
