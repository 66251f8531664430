package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/titanous/json5"
	"movie-extractor/internal/types"
)

// DefaultFile is read from the working directory when no --config is given
const DefaultFile = "movie-extractor.json5"

// File is the on-disk configuration. Every field is optional; durations use
// time.ParseDuration syntax ("3s", "500ms").
type File struct {
	ListingURL  string `json:"listing_url"`
	SearchURL   string `json:"search_url"`
	TopCount    int    `json:"top_count"`
	SampleCount int    `json:"sample_count"`
	UserAgent   string `json:"user_agent"`
	Headless    *bool  `json:"headless"`
	HTTPOnly    *bool  `json:"http_only"`

	Timeout       string `json:"timeout"`
	RequestDelay  string `json:"request_delay"`
	PageSettle    string `json:"page_settle"`
	ListingSettle string `json:"listing_settle"`
	DetailSettle  string `json:"detail_settle"`
	ElementWait   string `json:"element_wait"`
	PoliteDelay   string `json:"polite_delay"`
}

// Read loads name and merges <name>.local.<ext> over it when present.
// os.ErrNotExist is returned only when neither file exists.
func Read(name string) (File, error) {
	var out File
	found := false

	data, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(data) > 0 {
		if err := json5.Unmarshal(data, &out); err != nil {
			return out, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		found = true
	}

	localName := LocalName(name)
	data, err = os.ReadFile(localName)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(data) > 0 {
		var override File
		if err := json5.Unmarshal(data, &override); err != nil {
			return out, fmt.Errorf("failed to parse %s: %w", localName, err)
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return out, err
		}
		found = true
	}

	if !found {
		return out, os.ErrNotExist
	}
	return out, nil
}

// LocalName returns the override file name for name: a.json5 -> a.local.json5
func LocalName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

// Apply overlays the set fields of f onto cfg
func (f File) Apply(cfg *types.Config) error {
	if f.ListingURL != "" {
		cfg.ListingURL = f.ListingURL
	}
	if f.SearchURL != "" {
		cfg.SearchURL = f.SearchURL
	}
	if f.TopCount > 0 {
		cfg.TopCount = f.TopCount
	}
	if f.SampleCount > 0 {
		cfg.SampleCount = f.SampleCount
	}
	if f.UserAgent != "" {
		cfg.UserAgent = f.UserAgent
	}
	if f.Headless != nil {
		cfg.Headless = *f.Headless
	}
	if f.HTTPOnly != nil {
		cfg.UseHeadlessBrowser = !*f.HTTPOnly
	}

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"timeout", f.Timeout, &cfg.Timeout},
		{"request_delay", f.RequestDelay, &cfg.RequestDelay},
		{"page_settle", f.PageSettle, &cfg.PageSettle},
		{"listing_settle", f.ListingSettle, &cfg.ListingSettle},
		{"detail_settle", f.DetailSettle, &cfg.DetailSettle},
		{"element_wait", f.ElementWait, &cfg.ElementWait},
		{"polite_delay", f.PoliteDelay, &cfg.PoliteDelay},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, d.value, err)
		}
		if parsed < 0 {
			return fmt.Errorf("invalid %s %q: must not be negative", d.name, d.value)
		}
		*d.dst = parsed
	}

	return nil
}

// Load builds the effective configuration: defaults, then name if it exists
func Load(name string) (*types.Config, error) {
	cfg := types.DefaultConfig()

	file, err := Read(name)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := file.Apply(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return cfg, nil
}
