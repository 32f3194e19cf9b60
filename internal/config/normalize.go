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
	if err := c.normalizeWatch(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
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
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeWatch() error {
	var err error
	c.Watch.LogPath = strings.TrimSpace(c.Watch.LogPath)
	if c.Watch.LogPath != "" {
		if c.Watch.LogPath, err = expandPath(c.Watch.LogPath); err != nil {
			return fmt.Errorf("watch.log_path: %w", err)
		}
	}
	if len(c.Watch.ExtraCandidates) > 0 {
		expanded := make([]string, 0, len(c.Watch.ExtraCandidates))
		seen := make(map[string]struct{}, len(c.Watch.ExtraCandidates))
		for _, candidate := range c.Watch.ExtraCandidates {
			trimmed := strings.TrimSpace(candidate)
			if trimmed == "" {
				continue
			}
			path, err := expandPath(trimmed)
			if err != nil {
				return fmt.Errorf("watch.extra_candidates: %w", err)
			}
			if _, exists := seen[path]; exists {
				continue
			}
			seen[path] = struct{}{}
			expanded = append(expanded, path)
		}
		c.Watch.ExtraCandidates = expanded
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("PARKOUR_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	c.Notifications.NtfyServer = strings.TrimRight(strings.TrimSpace(c.Notifications.NtfyServer), "/")
	if c.Notifications.NtfyServer == "" {
		c.Notifications.NtfyServer = defaultNtfyServer
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
