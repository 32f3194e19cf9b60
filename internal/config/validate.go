package config

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind must be a host:port value: %w", err)
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.LogPath != "" {
		base := filepath.Base(c.Watch.LogPath)
		if base == "." || base == string(filepath.Separator) {
			return fmt.Errorf("watch.log_path must name a file, got %q", c.Watch.LogPath)
		}
	}
	for _, candidate := range c.Watch.ExtraCandidates {
		base := filepath.Base(candidate)
		if base == "." || base == string(filepath.Separator) {
			return fmt.Errorf("watch.extra_candidates must name files, got %q", candidate)
		}
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if err := ensurePositiveMap(map[string]int{
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.Notifications.NtfyTopic != "" && strings.TrimSpace(c.Notifications.NtfyServer) == "" {
		return errors.New("notifications.ntfy_server must be set when notifications.ntfy_topic is set")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
