// Package config loads the weave configuration file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/weave/pkg/dsl"
	"github.com/aretw0/weave/pkg/registry"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the file read when no path is given.
const DefaultPath = "weave.yaml"

// Config is the root configuration document.
type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
	Redis   RedisConfig   `mapstructure:"redis"`
	MCP     MCPConfig     `mapstructure:"mcp"`
	Graph   GraphConfig   `mapstructure:"graph"`

	// OperatorTypes, when non-empty, is the closed set of types the workspace accepts.
	OperatorTypes []OperatorTypeConfig `mapstructure:"operator_types"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// RedisConfig enables the notification relay when Addr is set.
type RedisConfig struct {
	Addr    string `mapstructure:"addr"`
	Channel string `mapstructure:"channel"`
}

type MCPConfig struct {
	Name string `mapstructure:"name"`
}

// GraphConfig is a graph loaded into the workspace at startup.
type GraphConfig struct {
	Operators []OperatorConfig `mapstructure:"operators"`
	Links     []LinkConfig     `mapstructure:"links"`
}

type OperatorConfig struct {
	ID         string         `mapstructure:"id"`
	Type       string         `mapstructure:"type"`
	Properties map[string]any `mapstructure:"properties"`
	X          float64        `mapstructure:"x"`
	Y          float64        `mapstructure:"y"`
}

type OperatorTypeConfig struct {
	Name    string   `mapstructure:"name"`
	Inputs  []string `mapstructure:"inputs"`
	Outputs []string `mapstructure:"outputs"`
}

// LinkConfig joins two ports written as "operator.port".
type LinkConfig struct {
	ID   string `mapstructure:"id"`
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		HTTP:    HTTPConfig{Addr: ":8080"},
		Metrics: MetricsConfig{Enabled: true},
		Log:     LogConfig{Level: "info"},
		Redis:   RedisConfig{Channel: "weave:notifications"},
		MCP:     MCPConfig{Name: "weave"},
	}
}

// Load reads the YAML file at path over the defaults.
// A missing file is not an error: the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return cfg, err
	}
	if err := decoder.Decode(raw); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Builder turns the configured graph into a dsl script.
func (g GraphConfig) Builder() (*dsl.Builder, error) {
	b := dsl.New()
	for _, op := range g.Operators {
		ob := b.Add(op.ID).Type(op.Type).At(op.X, op.Y)
		for k, v := range op.Properties {
			ob.Set(k, v)
		}
	}
	for i, l := range g.Links {
		id := l.ID
		if id == "" {
			id = fmt.Sprintf("link-%d", i+1)
		}
		if err := b.Connect(id, l.From, l.To); err != nil {
			return nil, err
		}
	}
	return b, b.Validate()
}

// Catalog returns the operator type registry, or nil when no types are configured.
func (c Config) Catalog() *registry.Registry {
	if len(c.OperatorTypes) == 0 {
		return nil
	}
	r := registry.NewRegistry()
	for _, t := range c.OperatorTypes {
		r.Register(registry.OperatorType{Name: t.Name, Inputs: t.Inputs, Outputs: t.Outputs})
	}
	return r
}
