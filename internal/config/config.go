package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Supported output formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Supported key naming styles
const (
	NamingNone       = "none"
	NamingSnake      = "snake"
	NamingCamel      = "camel"
	NamingLowerCamel = "lower_camel"
	NamingKebab      = "kebab"
)

// Supported precisions for inferred decimal values
const (
	PrecisionDouble = "double"
	PrecisionFloat  = "float"
)

// Config represents the complete configuration for objtree
type Config struct {
	Output OutputConfig `yaml:"output"`
	Naming NamingConfig `yaml:"naming"`
	Types  TypesConfig  `yaml:"types"`
	Dev    DevConfig    `yaml:"dev"`
}

// OutputConfig controls how the built document is rendered
type OutputConfig struct {
	Format   string `yaml:"format"`
	Pretty   bool   `yaml:"pretty"`
	Indent   string `yaml:"indent"`
	SortKeys bool   `yaml:"sort_keys"`
}

// NamingConfig controls how assignment keys are renamed
type NamingConfig struct {
	Style       string            `yaml:"style"`
	KeyMappings map[string]string `yaml:"key_mappings"`
}

// TypesConfig controls value type inference
type TypesConfig struct {
	Infer          bool   `yaml:"infer"`
	FloatPrecision string `yaml:"float_precision"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug    bool   `yaml:"debug"`
	LogLevel string `yaml:"log_level"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Format:   FormatJSON,
			Pretty:   false,
			Indent:   "  ",
			SortKeys: false,
		},
		Naming: NamingConfig{
			Style:       NamingNone,
			KeyMappings: make(map[string]string),
		},
		Types: TypesConfig{
			Infer:          true,
			FloatPrecision: PrecisionDouble,
		},
		Dev: DevConfig{
			Debug:    false,
			LogLevel: "warn",
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := NewConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Naming.KeyMappings == nil {
		cfg.Naming.KeyMappings = make(map[string]string)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".objtree.yml", ".objtree.yaml", "objtree.yml", "objtree.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return ""
}

// Validate checks that enumerated settings hold known values
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("unknown output format '%s'", c.Output.Format)
	}

	switch c.Naming.Style {
	case NamingNone, NamingSnake, NamingCamel, NamingLowerCamel, NamingKebab:
	default:
		return fmt.Errorf("unknown naming style '%s'", c.Naming.Style)
	}

	switch c.Types.FloatPrecision {
	case PrecisionDouble, PrecisionFloat:
	default:
		return fmt.Errorf("unknown float precision '%s'", c.Types.FloatPrecision)
	}

	return nil
}

// Overrides carries CLI flags. Nil fields were not set on the command line
// and leave the file or default value untouched.
type Overrides struct {
	Format         *string
	Pretty         *bool
	SortKeys       *bool
	Naming         *string
	FloatPrecision *string
	Debug          *bool
}

// Apply copies every set override into c
func (o Overrides) Apply(c *Config) {
	if o.Format != nil {
		c.Output.Format = *o.Format
	}
	if o.Pretty != nil {
		c.Output.Pretty = *o.Pretty
	}
	if o.SortKeys != nil {
		c.Output.SortKeys = *o.SortKeys
	}
	if o.Naming != nil {
		c.Naming.Style = *o.Naming
	}
	if o.FloatPrecision != nil {
		c.Types.FloatPrecision = *o.FloatPrecision
	}
	if o.Debug != nil {
		c.Dev.Debug = *o.Debug
	}
}

// LoadConfigWithCLI loads the config file, if any, and applies CLI overrides
// on top of it
func LoadConfigWithCLI(configPath string, overrides Overrides) (*Config, error) {
	cfg := NewConfig()

	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	overrides.Apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MapKey returns the explicit mapping for key, if one is configured
func (c *Config) MapKey(key string) (string, bool) {
	mapped, ok := c.Naming.KeyMappings[key]
	return mapped, ok
}
