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

	coremetrics "github.com/heatctl/heatctl/core/metrics"
	"github.com/heatctl/heatctl/core/planner"
	"github.com/heatctl/heatctl/infra/device"
	"github.com/heatctl/heatctl/infra/forecast"
	"github.com/heatctl/heatctl/infra/mqtt"
)

type Config struct {
	Device   device.Config      `json:"device"`
	Planner  planner.Config     `json:"planner"`
	Forecast forecast.Config    `json:"forecast"`
	MQTT     mqtt.Config        `json:"mqtt"`
	Metrics  coremetrics.Config `json:"metrics"`
	// LoopSeconds is the interval between planning passes.
	LoopSeconds int `json:"loop_seconds"`
}

// SetDefaults applies defaults to all sections.
func (c *Config) SetDefaults() {
	c.Planner.SetDefaults()
	c.Forecast.SetDefaults()
	c.MQTT.SetDefaults()
	c.Metrics.SetDefaults()
	if c.LoopSeconds == 0 {
		c.LoopSeconds = 300
	}
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.LoopSeconds < 0 {
		return fmt.Errorf("loop_seconds must be positive, got %d", c.LoopSeconds)
	}
	switch strings.ToLower(c.Device.Type) {
	case "", "thermia", "dummy", "silent":
	default:
		return fmt.Errorf("unknown device type: %s", c.Device.Type)
	}
	return nil
}

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
	if err := k.Load(env.Provider("HC_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "hc_")
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
