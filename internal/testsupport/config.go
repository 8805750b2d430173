// Package testsupport provides shared fixtures for strmsync tests: seeded
// configs, opened stores, and remote tree builders.
package testsupport

import (
	"path/filepath"
	"testing"

	"strmsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Gateway.BaseURL = "https://gateway.test"
	cfgVal.Gateway.Token = "test-token"
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithGateway overrides the gateway endpoint on the test config.
func WithGateway(baseURL, token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Gateway.BaseURL = baseURL
		b.cfg.Gateway.Token = token
	}
}

// WithLookupKey sets the metadata lookup API key on the test config.
func WithLookupKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Lookup.APIKey = key
	}
}

// WithMediaServer enables the media-server refresh integration.
func WithMediaServer(url, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.MediaServer.Enabled = true
		b.cfg.MediaServer.URL = url
		b.cfg.MediaServer.APIKey = apiKey
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
