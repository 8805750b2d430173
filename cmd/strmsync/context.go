package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"strmsync/internal/config"
	"strmsync/internal/gateway"
	"strmsync/internal/logging"
	"strmsync/internal/lookup"
	"strmsync/internal/mediaserver"
	"strmsync/internal/pipeline"
	"strmsync/internal/runner"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// newLogger builds the process logger from config. Daemon mode passes
// withFile to add the rotated log file; one-shot commands log to the
// console only.
func (c *commandContext) newLogger(withFile bool) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	opts := logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()),
	}
	if withFile {
		opts.FilePath = cfg.Logging.File
	}
	return logging.New(opts)
}

// newExecutor assembles the sync executor from config: gateway client,
// optional lookup client, optional media-server notifier.
func (c *commandContext) newExecutor(logger *slog.Logger) (*runner.SyncExecutor, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	gw, err := gateway.New(cfg.Gateway.BaseURL, cfg.Gateway.Token,
		time.Duration(cfg.Gateway.RequestTimeout)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("build gateway client: %w", err)
	}

	var searcher lookup.Searcher
	var images pipeline.ImageDownloader
	if cfg.Lookup.APIKey != "" {
		lk, err := lookup.New(cfg.Lookup.APIKey, cfg.Lookup.BaseURL, cfg.Lookup.Language,
			lookup.WithImageBaseURL(cfg.Lookup.ImageBaseURL))
		if err != nil {
			return nil, fmt.Errorf("build lookup client: %w", err)
		}
		searcher = lk
		images = lk
	}

	var notifier mediaserver.Notifier
	if cfg.MediaServer.Enabled {
		notifier = mediaserver.New(cfg.MediaServer.URL, cfg.MediaServer.APIKey)
	}

	params := url.Values{}
	for key, value := range cfg.Gateway.URLParams {
		params.Set(key, value)
	}

	return runner.NewSyncExecutor(gw, gw, searcher, images, notifier, runner.ExecOptions{
		HashAlgorithm:        cfg.Sync.HashAlgorithm,
		MaxHashSizeBytes:     cfg.Sync.MaxHashSizeMiB * 1024 * 1024,
		DiscoveryConcurrency: cfg.Sync.DiscoveryConcurrency,
		URLParams:            params,
	}, logger), nil
}

// apiURL builds an endpoint URL against the daemon's HTTP API.
func (c *commandContext) apiURL(path string) (string, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return "http://" + cfg.Paths.APIBind + path, nil
}

// apiGet fetches an API endpoint and decodes the JSON response into out.
func (c *commandContext) apiGet(path string, out any) error {
	endpoint, err := c.apiURL(path)
	if err != nil {
		return err
	}
	resp, err := http.Get(endpoint)
	if err != nil {
		return wrapAPIError(err)
	}
	defer resp.Body.Close()
	return decodeAPIResponse(resp, out)
}

// apiSend issues a request with an optional JSON body.
func (c *commandContext) apiSend(method, path string, body, out any) error {
	endpoint, err := c.apiURL(path)
	if err != nil {
		return err
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return wrapAPIError(err)
	}
	defer resp.Body.Close()
	return decodeAPIResponse(resp, out)
}

func decodeAPIResponse(resp *http.Response, out any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		message := strings.TrimSpace(string(data))
		if message == "" {
			message = resp.Status
		}
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, message)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func wrapAPIError(err error) error {
	return fmt.Errorf("connect to daemon: %w (start it with `strmsync serve`)", err)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
