package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Languages supported for proposal boilerplate.
var Languages = []string{"en", "es", "pt", "it", "fr", "de"}

// Config models charterdesk.yml.
type Config struct {
	Source   string `yaml:"source"`
	Webhooks struct {
		Catalog     string `yaml:"catalog"`
		Itineraries string `yaml:"itineraries"`
		Proposal    string `yaml:"proposal"`
		Selection   string `yaml:"selection"`
	} `yaml:"webhooks"`
	// FinalNotes overrides the built-in per-language boilerplate.
	FinalNotes map[string]string `yaml:"final_notes"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with chd config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the default config if the file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure. Webhook URLs may be
// empty: fetch paths degrade to an empty list and submission paths report a
// configuration error at call time.
func (c *Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("config.source is required")
	}
	for lang := range c.FinalNotes {
		if !SupportedLanguage(lang) {
			return fmt.Errorf("config.final_notes has unsupported language %q", lang)
		}
	}
	return nil
}

// SupportedLanguage reports whether lang is one of the proposal languages.
func SupportedLanguage(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// Overlay applies non-empty override values, typically sourced from
// environment variables bound in the CLI.
func (c *Config) Overlay(catalog, itineraries, proposal, selection string) {
	if catalog != "" {
		c.Webhooks.Catalog = catalog
	}
	if itineraries != "" {
		c.Webhooks.Itineraries = itineraries
	}
	if proposal != "" {
		c.Webhooks.Proposal = proposal
	}
	if selection != "" {
		c.Webhooks.Selection = selection
	}
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "charterdesk.yml")
}

// Default returns the default Config struct.
func Default() *Config {
	return &Config{Source: "charterdesk"}
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if cfg.Source == "" {
		cfg.Source = "charterdesk"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `source: charterdesk

# n8n webhook endpoints. Fetch URLs may stay empty (the catalog and
# itinerary listings degrade to an empty list); the proposal and selection
# URLs are required before submitting.
webhooks:
  catalog: ""
  itineraries: ""
  proposal: ""
  selection: ""

# Optional per-language overrides for the "please note" boilerplate appended
# to proposals. Supported languages: en, es, pt, it, fr, de.
final_notes: {}
`
