package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGateway()
	c.normalizeLookup()
	c.normalizeMediaServer()
	c.normalizeSync()
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeGateway() {
	c.Gateway.BaseURL = strings.TrimRight(strings.TrimSpace(c.Gateway.BaseURL), "/")
	c.Gateway.Token = strings.TrimSpace(c.Gateway.Token)
	if c.Gateway.Token == "" {
		if value, ok := os.LookupEnv("STRMSYNC_GATEWAY_TOKEN"); ok {
			c.Gateway.Token = strings.TrimSpace(value)
		}
	}
	if c.Gateway.RequestTimeout <= 0 {
		c.Gateway.RequestTimeout = defaultGatewayTimeout
	}
}

func (c *Config) normalizeLookup() {
	c.Lookup.APIKey = strings.TrimSpace(c.Lookup.APIKey)
	if c.Lookup.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.Lookup.APIKey = strings.TrimSpace(value)
		}
	}
	c.Lookup.BaseURL = strings.TrimSpace(c.Lookup.BaseURL)
	if c.Lookup.BaseURL == "" {
		c.Lookup.BaseURL = defaultLookupBaseURL
	}
	c.Lookup.ImageBaseURL = strings.TrimSpace(c.Lookup.ImageBaseURL)
	if c.Lookup.ImageBaseURL == "" {
		c.Lookup.ImageBaseURL = defaultLookupImageBaseURL
	}
	c.Lookup.Language = strings.TrimSpace(c.Lookup.Language)
	if c.Lookup.Language == "" {
		c.Lookup.Language = defaultLookupLanguage
	}
}

func (c *Config) normalizeMediaServer() {
	c.MediaServer.URL = strings.TrimSpace(c.MediaServer.URL)
	c.MediaServer.APIKey = strings.TrimSpace(c.MediaServer.APIKey)
	if c.MediaServer.APIKey == "" {
		if value, ok := os.LookupEnv("STRMSYNC_MEDIASERVER_API_KEY"); ok {
			c.MediaServer.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeSync() {
	c.Sync.HashAlgorithm = strings.ToLower(strings.TrimSpace(c.Sync.HashAlgorithm))
	if c.Sync.HashAlgorithm == "" {
		c.Sync.HashAlgorithm = defaultHashAlgorithm
	}
	if c.Sync.MaxHashSizeMiB <= 0 {
		c.Sync.MaxHashSizeMiB = defaultMaxHashSizeMiB
	}
	if c.Sync.DiscoveryConcurrency <= 0 {
		c.Sync.DiscoveryConcurrency = defaultDiscoveryConcurrency
	}
	if c.Sync.QueueSize <= 0 {
		c.Sync.QueueSize = defaultQueueSize
	}
	if c.Sync.SchedulerTickSeconds <= 0 {
		c.Sync.SchedulerTickSeconds = defaultSchedulerTickSeconds
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
	if c.Logging.File != "" {
		expanded, err := expandPath(c.Logging.File)
		if err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
		c.Logging.File = expanded
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = defaultLogMaxBackups
	}
	if c.Logging.MaxAgeDays < 0 {
		c.Logging.MaxAgeDays = defaultLogMaxAgeDays
	}
	return nil
}
