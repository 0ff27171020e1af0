package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"tasnim.dev/accessctl/internal/constants"
)

// Config holds optional defaults loaded from ~/.config/accessctl/config.yaml.
type Config struct {
	DefaultProfile  string `yaml:"default_profile"`
	DefaultRegion   string `yaml:"default_region"`
	AllowListBucket string `yaml:"allow_list_bucket"`
	AllowListKey    string `yaml:"allow_list_key"`
	AllowListRegion string `yaml:"allow_list_region"`
	// EnforceAllowList is a pointer so an absent key keeps the gate on.
	EnforceAllowList *bool `yaml:"enforce_allow_list"`
}

// DefaultPath returns ~/.config/accessctl/config.yaml, or "" if the home
// directory cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "accessctl", "config.yaml")
}

// Load reads the config file at DefaultPath. Returns zero-value Config if the
// file doesn't exist.
func Load() (*Config, error) {
	path := DefaultPath()
	if path == "" {
		return &Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads the config file at path. Returns zero-value Config if the
// file doesn't exist.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// Merge applies CLI flag overrides. Flags take precedence over config defaults.
func (c *Config) Merge(profile, region string) (string, string) {
	p := c.DefaultProfile
	if profile != "" {
		p = profile
	}
	r := c.DefaultRegion
	if region != "" {
		r = region
	}
	return p, r
}

// Bucket returns the allow-list bucket, defaulting to the organization bucket.
func (c *Config) Bucket() string {
	if c.AllowListBucket != "" {
		return c.AllowListBucket
	}
	return constants.DefaultAllowListBucket
}

// Key returns the allow-list object key.
func (c *Config) Key() string {
	if c.AllowListKey != "" {
		return c.AllowListKey
	}
	return constants.DefaultAllowListKey
}

// Enforce reports whether the allow-list gate is on. Defaults to true.
func (c *Config) Enforce() bool {
	if c.EnforceAllowList == nil {
		return true
	}
	return *c.EnforceAllowList
}
