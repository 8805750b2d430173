package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[gateway]
base_url = "https://gw.example.com"
`)

	cfg, resolved, exists, err := Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, path, resolved)

	assert.Equal(t, "https://gw.example.com", cfg.Gateway.BaseURL)
	assert.Equal(t, defaultGatewayTimeout, cfg.Gateway.RequestTimeout)
	assert.Equal(t, "md5", cfg.Sync.HashAlgorithm)
	assert.Equal(t, int64(defaultMaxHashSizeMiB), cfg.Sync.MaxHashSizeMiB)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "127.0.0.1:8196", cfg.Paths.APIBind)
}

func TestLoadParsesSections(t *testing.T) {
	path := writeConfig(t, `
[paths]
state_dir = "/var/lib/strmsync"
api_bind = "0.0.0.0:9000"

[gateway]
base_url = "https://gw.example.com/"
token = "abc"
request_timeout = 5

[gateway.url_params]
apikey = "secret"

[lookup]
api_key = "tmdb-key"

[mediaserver]
enabled = true
url = "https://jellyfin.example.com"
api_key = "jf-key"

[sync]
hash_algorithm = "SHA256"
discovery_concurrency = 8

[logging]
format = "json"
level = "debug"
`)

	cfg, _, _, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://gw.example.com", cfg.Gateway.BaseURL, "trailing slash is trimmed")
	assert.Equal(t, "abc", cfg.Gateway.Token)
	assert.Equal(t, 5, cfg.Gateway.RequestTimeout)
	assert.Equal(t, map[string]string{"apikey": "secret"}, cfg.Gateway.URLParams)
	assert.Equal(t, "tmdb-key", cfg.Lookup.APIKey)
	assert.True(t, cfg.MediaServer.Enabled)
	assert.Equal(t, "sha256", cfg.Sync.HashAlgorithm, "algorithm is lowercased")
	assert.Equal(t, 8, cfg.Sync.DiscoveryConcurrency)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/var/lib/strmsync", cfg.Paths.StateDir)
	assert.Equal(t, filepath.Join("/var/lib/strmsync", "strmsync.db"), cfg.DatabasePath())
	assert.Equal(t, filepath.Join("/var/lib/strmsync", "strmsync.lock"), cfg.LockPath())
}

func TestLoadEnvFallbacks(t *testing.T) {
	t.Setenv("STRMSYNC_GATEWAY_TOKEN", "env-token")
	t.Setenv("TMDB_API_KEY", "env-tmdb")

	path := writeConfig(t, `
[gateway]
base_url = "https://gw.example.com"
`)

	cfg, _, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Gateway.Token)
	assert.Equal(t, "env-tmdb", cfg.Lookup.APIKey)
}

func TestLoadExpandsTilde(t *testing.T) {
	path := writeConfig(t, `
[paths]
state_dir = "~/strmsync-state"

[gateway]
base_url = "https://gw.example.com"
`)

	cfg, _, _, err := Load(path)
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "strmsync-state"), cfg.Paths.StateDir)
}

func TestLoadMissingFileReportsNotExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	_, _, _, err := Load(path)
	require.Error(t, err, "defaults alone lack a gateway base url")
	assert.Contains(t, err.Error(), "gateway.base_url")
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "bad hash algorithm",
			content: `
[gateway]
base_url = "https://gw.example.com"
[sync]
hash_algorithm = "crc32"
`,
			wantErr: "sync.hash_algorithm",
		},
		{
			name: "non-http gateway",
			content: `
[gateway]
base_url = "ftp://gw.example.com"
`,
			wantErr: "gateway.base_url",
		},
		{
			name: "mediaserver enabled without url",
			content: `
[gateway]
base_url = "https://gw.example.com"
[mediaserver]
enabled = true
api_key = "key"
`,
			wantErr: "mediaserver.url",
		},
		{
			name: "bad log level",
			content: `
[gateway]
base_url = "https://gw.example.com"
[logging]
level = "verbose"
`,
			wantErr: "logging.level",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, err := Load(writeConfig(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, CreateSample(path))

	// The sample parses but fails validation until the gateway URL is set.
	_, _, exists, err := Load(path)
	assert.True(t, exists)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway.base_url")
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.Paths.StateDir)
	assert.DirExists(t, cfg.Paths.LogDir)
}
