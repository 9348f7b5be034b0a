package vcedit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config tunes the edit engine.
type Config struct {
	// HistoryCapacity is the maximum number of snapshots kept.
	HistoryCapacity int `yaml:"history_capacity" toml:"history_capacity"`
	// CommitDebounceMS is the idle time before a coalesced edit is committed.
	CommitDebounceMS int `yaml:"commit_debounce_ms" toml:"commit_debounce_ms"`
	// DragThreshold is the pointer travel that turns a press into a drag.
	DragThreshold float64 `yaml:"drag_threshold" toml:"drag_threshold"`

	MultiSelectModifier string `yaml:"multi_select_modifier" toml:"multi_select_modifier"`
	FreeMoveModifier    string `yaml:"free_move_modifier" toml:"free_move_modifier"`

	ReservedTags     []string `yaml:"reserved_tags" toml:"reserved_tags"`
	NonContainerTags []string `yaml:"non_container_tags" toml:"non_container_tags"`
	MetadataPrefix   string   `yaml:"metadata_prefix" toml:"metadata_prefix"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		HistoryCapacity:     50,
		CommitDebounceMS:    500,
		DragThreshold:       5,
		MultiSelectModifier: "shift",
		FreeMoveModifier:    "alt",
		ReservedTags:        append([]string(nil), defaultReservedTags...),
		NonContainerTags:    append([]string(nil), defaultNonContainerTags...),
		MetadataPrefix:      DefaultMetadataPrefix,
	}
}

// CommitDebounce returns the debounce interval as a duration.
func (c Config) CommitDebounce() time.Duration {
	return time.Duration(c.CommitDebounceMS) * time.Millisecond
}

// Validate checks the configuration and fills zero values with defaults.
func (c *Config) Validate() error {
	def := DefaultConfig()
	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = def.HistoryCapacity
	}
	if c.CommitDebounceMS < 0 {
		return fmt.Errorf("commit_debounce_ms must not be negative, got %d", c.CommitDebounceMS)
	}
	if c.DragThreshold <= 0 {
		c.DragThreshold = def.DragThreshold
	}
	if c.MultiSelectModifier == "" {
		c.MultiSelectModifier = def.MultiSelectModifier
	}
	if c.FreeMoveModifier == "" {
		c.FreeMoveModifier = def.FreeMoveModifier
	}
	multi, err := ParseModifier(c.MultiSelectModifier)
	if err != nil {
		return fmt.Errorf("multi_select_modifier: %w", err)
	}
	free, err := ParseModifier(c.FreeMoveModifier)
	if err != nil {
		return fmt.Errorf("free_move_modifier: %w", err)
	}
	if multi == free {
		return errors.New("multi_select_modifier and free_move_modifier must differ")
	}
	if c.ReservedTags == nil {
		c.ReservedTags = def.ReservedTags
	}
	if c.NonContainerTags == nil {
		c.NonContainerTags = def.NonContainerTags
	}
	if c.MetadataPrefix == "" {
		c.MetadataPrefix = def.MetadataPrefix
	}
	return nil
}

func (c Config) multiSelect() Modifiers {
	m, _ := ParseModifier(c.MultiSelectModifier)
	return m
}

func (c Config) freeMove() Modifiers {
	m, _ := ParseModifier(c.FreeMoveModifier)
	return m
}

// LoadConfig reads a YAML (.yaml, .yml) or TOML (.toml) file over the
// defaults. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}
	cfg, err := ParseConfig(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes data in the given format ("yaml", "yml" or "toml")
// over the defaults and validates the result.
func ParseConfig(data []byte, format string) (Config, error) {
	cfg := DefaultConfig()
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing yaml: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing toml: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", format)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
