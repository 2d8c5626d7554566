package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCache() error {
	if !c.Cache.Enabled {
		return nil
	}
	if c.Cache.ExpiryHours < 1 {
		return errors.New("cache.expiry_hours must be at least 1")
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.BitrateKbps < 32 || c.Audio.BitrateKbps > 320 {
		return fmt.Errorf("audio.bitrate_kbps must be between 32 and 320, got %d", c.Audio.BitrateKbps)
	}
	return nil
}

func (c *Config) validateVideo() error {
	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		return errors.New("video.width and video.height must be positive")
	}
	if c.Video.FPS <= 0 {
		return errors.New("video.fps must be positive")
	}
	if c.Video.CRF < 0 || c.Video.CRF > 51 {
		return fmt.Errorf("video.crf must be between 0 and 51, got %d", c.Video.CRF)
	}
	switch c.Video.Preset {
	case "ultrafast", "superfast", "veryfast", "faster", "fast", "medium", "slow", "slower", "veryslow":
	default:
		return fmt.Errorf("video.preset %q is not a valid x264 preset", c.Video.Preset)
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.ItemTimeoutSeconds < 0 {
		return errors.New("fetch.item_timeout_seconds cannot be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
