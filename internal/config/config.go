// Package config loads the glyph-flood-mcp configuration from YAML files and
// the environment, and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/glyph-flood-mcp/internal/glyph"
	"github.com/ironsheep/glyph-flood-mcp/internal/imaging"
	"github.com/ironsheep/glyph-flood-mcp/internal/ocr"
	"github.com/ironsheep/glyph-flood-mcp/internal/watershed"
)

// Environment variables that override file settings.
const (
	EnvConfigPath = "GLYPH_MCP_CONFIG"
	EnvTessdata   = "GLYPH_MCP_TESSDATA"
	EnvLanguage   = "GLYPH_MCP_LANGUAGE"
)

// Config is the server configuration.
type Config struct {
	// Preprocess turns a loaded page into an intensity map.
	Preprocess imaging.PreprocessOptions `yaml:"preprocess"`

	// Segmentation controls how the flood settles conflicts.
	Segmentation struct {
		// Conflict is the answer to a pixel touching two basins:
		// "edge", "skip" or "stop".
		Conflict string `yaml:"conflict"`
	} `yaml:"segmentation"`

	// Glyphs controls how basins become glyph images.
	Glyphs glyph.Options `yaml:"glyphs"`

	// OCR configures the character recognizer.
	OCR ocr.Options `yaml:"ocr"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Dark ink on light paper floods from the ink outward
	cfg.Preprocess.Invert = true
	cfg.Preprocess.BlurRadius = 0

	cfg.Segmentation.Conflict = watershed.Edge.String()

	cfg.Glyphs = glyph.DefaultOptions()

	cfg.OCR.Language = "eng"
	cfg.OCR.Whitelist = ocr.Alphanumerics

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides settings from the environment. getenv is usually
// os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvTessdata); v != "" {
		c.OCR.TessdataPrefix = v
	}
	if v := getenv(EnvLanguage); v != "" {
		c.OCR.Language = v
	}
}

// Validate checks values that cannot be corrected silently.
func (c *Config) Validate() error {
	if _, err := c.Conflict(); err != nil {
		return err
	}
	if c.Preprocess.BlurRadius < 0 {
		return fmt.Errorf("preprocess.blurRadius must be >= 0, got %v", c.Preprocess.BlurRadius)
	}
	if c.Glyphs.Padding < 0 {
		return fmt.Errorf("glyphs.padding must be >= 0, got %d", c.Glyphs.Padding)
	}
	if c.Glyphs.TargetHeight < 0 {
		return fmt.Errorf("glyphs.targetHeight must be >= 0, got %d", c.Glyphs.TargetHeight)
	}
	return nil
}

// Conflict returns the configured conflict disposition. Only edge, skip and
// stop are accepted.
func (c *Config) Conflict() (watershed.Disposition, error) {
	return ParseConflict(c.Segmentation.Conflict)
}

// ParseConflict parses a conflict disposition name, accepting only the
// dispositions that let a run finish on its own.
func ParseConflict(name string) (watershed.Disposition, error) {
	d, err := watershed.ParseDisposition(name)
	if err != nil {
		return 0, fmt.Errorf("segmentation.conflict: %w", err)
	}
	switch d {
	case watershed.Edge, watershed.Skip, watershed.Stop:
		return d, nil
	}
	return 0, fmt.Errorf("segmentation.conflict: %q cannot settle a conflict on its own", name)
}

// Policy returns a merge policy answering every conflict with the
// configured disposition.
func (c *Config) Policy() (watershed.MergePolicy, error) {
	d, err := c.Conflict()
	if err != nil {
		return nil, err
	}
	return watershed.ConstantPolicy(d), nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
