package config

import (
	"errors"
	"fmt"
	"strings"
)

var validHashAlgorithms = map[string]struct{}{
	"md5":    {},
	"sha1":   {},
	"sha256": {},
}

var validLogFormats = map[string]struct{}{
	"console": {},
	"json":    {},
}

var validLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateGateway(); err != nil {
		return err
	}
	if err := c.validateMediaServer(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGateway() error {
	if c.Gateway.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/strmsync/config.toml"
		}
		return fmt.Errorf("gateway.base_url is required. Edit %s (create with 'strmsync config init')", defaultPath)
	}
	if !strings.HasPrefix(c.Gateway.BaseURL, "http://") && !strings.HasPrefix(c.Gateway.BaseURL, "https://") {
		return errors.New("gateway.base_url must be an http or https URL")
	}
	return nil
}

func (c *Config) validateMediaServer() error {
	if !c.MediaServer.Enabled {
		return nil
	}
	if c.MediaServer.URL == "" {
		return errors.New("mediaserver.url must be set when mediaserver.enabled is true")
	}
	if c.MediaServer.APIKey == "" {
		return errors.New("mediaserver.api_key must be set when mediaserver.enabled is true")
	}
	return nil
}

func (c *Config) validateSync() error {
	if _, ok := validHashAlgorithms[c.Sync.HashAlgorithm]; !ok {
		return fmt.Errorf("sync.hash_algorithm must be one of md5, sha1, sha256 (got %q)", c.Sync.HashAlgorithm)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, ok := validLogFormats[c.Logging.Format]; !ok {
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	if _, ok := validLogLevels[c.Logging.Level]; !ok {
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}
