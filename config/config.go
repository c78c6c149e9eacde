// Package config loads the platform configuration from a YAML or JSON file
// with optional environment overrides (K_ prefix, __ as the key separator).
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/careline/dispatch/core/dispatch"
	"github.com/careline/dispatch/core/facility"
	"github.com/careline/dispatch/core/location"
	"github.com/careline/dispatch/core/metrics"
	"github.com/careline/dispatch/core/priority"
	"github.com/careline/dispatch/core/routing"
	"github.com/careline/dispatch/infra/mqtt"
)

// Config aggregates every component's configuration.
type Config struct {
	MQTT     mqtt.Config     `json:"mqtt"`
	Dispatch dispatch.Config `json:"dispatch"`
	Priority priority.Config `json:"priority"`
	Routing  routing.Config  `json:"routing"`
	Location location.Config `json:"location"`
	Facility facility.Config `json:"facility"`
	Metrics  metrics.Config  `json:"metrics"`

	// GoogleAPIKey enables the Directions backend; without it the platform
	// runs on straight-line estimates only.
	GoogleAPIKey string `json:"google_api_key"`
	// APIAddr is the listen address of the read-only query API.
	APIAddr string `json:"api_addr"`
}

// Load reads, overlays and validates the configuration.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies every component's defaults.
func (c *Config) SetDefaults() {
	c.MQTT.SetDefaults()
	c.Dispatch.SetDefaults()
	c.Priority.SetDefaults()
	c.Routing.SetDefaults()
	c.Location.SetDefaults()
	c.Facility.SetDefaults()
	c.Metrics.SetDefaults()
	if c.APIAddr == "" {
		c.APIAddr = ":8080"
	}
}

// Validate checks every component that defines constraints.
func (c Config) Validate() error {
	if err := c.Dispatch.Validate(); err != nil {
		return err
	}
	if err := c.Priority.Validate(); err != nil {
		return err
	}
	return nil
}
