package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"

	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/format"
)

// Config represents the complete configuration for jsoncrack
type Config struct {
	// Format is used when the document format cannot be told from a file name.
	Format string       `yaml:"format"`
	Output OutputConfig `yaml:"output"`
	Edit   EditConfig   `yaml:"edit"`
	Sample SampleConfig `yaml:"sample"`
	Types  TypesConfig  `yaml:"types"`
	Naming NamingConfig `yaml:"naming"`
	Log    LogConfig    `yaml:"log"`
}

// OutputConfig controls how documents are re-serialized
type OutputConfig struct {
	// Indent is the number of spaces per level; 0 writes compact JSON.
	// Nil keeps the indentation detected from the input.
	Indent         *int `yaml:"indent"`
	IndentSequence bool `yaml:"indent_sequence"`
}

// EditConfig controls node edits
type EditConfig struct {
	RenamePreservePosition bool `yaml:"rename_preserve_position"`
}

// SampleConfig controls sample generation
type SampleConfig struct {
	Seed     int64 `yaml:"seed"`
	MinItems int   `yaml:"min_items"`
	MaxItems int   `yaml:"max_items"`
	MaxDepth int   `yaml:"max_depth"`
}

// TypesConfig controls Go type synthesis
type TypesConfig struct {
	Package    string        `yaml:"package"`
	RootName   string        `yaml:"root_name"`
	FormatCode bool          `yaml:"format_code"`
	Mappings   []TypeMapping `yaml:"mappings"`
}

// TypeMapping defines a pattern-based type mapping
type TypeMapping struct {
	Pattern string `yaml:"pattern"`
	Type    string `yaml:"type"`
	Import  string `yaml:"import,omitempty"`
	Comment string `yaml:"comment,omitempty"`

	// compiled regex (not serialized)
	regex *regexp.Regexp
}

// NamingConfig controls field and struct naming
type NamingConfig struct {
	PascalCaseFields bool              `yaml:"pascal_case_fields"`
	FieldMappings    map[string]string `yaml:"field_mappings"`
}

// LogConfig controls logging
type LogConfig struct {
	Level string `yaml:"level"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Format: "json",
		Output: OutputConfig{
			IndentSequence: true,
		},
		Sample: SampleConfig{
			Seed:     0,
			MinItems: 1,
			MaxItems: 3,
			MaxDepth: 8,
		},
		Types: TypesConfig{
			Package:    "main",
			RootName:   "RootType",
			FormatCode: true,
			Mappings:   []TypeMapping{},
		},
		Naming: NamingConfig{
			PascalCaseFields: true,
			FieldMappings:    make(map[string]string),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("failed to read config file", err)
	}

	// Start with defaults
	cfg := NewConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError("failed to parse config file", err)
	}

	if err := cfg.compilePatterns(); err != nil {
		return nil, errors.NewConfigError("failed to compile patterns", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".jsoncrack.yml", ".jsoncrack.yaml", "jsoncrack.yml", "jsoncrack.yaml"}

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

// Validate checks value ranges.
func (c *Config) Validate() error {
	if _, err := format.ParseFormat(c.Format); err != nil {
		return errors.NewConfigError(fmt.Sprintf("format %q", c.Format), err)
	}
	if c.Output.Indent != nil && (*c.Output.Indent < 0 || *c.Output.Indent > 8) {
		return errors.NewConfigError(fmt.Sprintf("output.indent must be between 0 and 8, got %d", *c.Output.Indent), nil)
	}
	s := c.Sample
	if s.MinItems < 0 || s.MaxItems < 0 || s.MaxDepth < 0 {
		return errors.NewConfigError("sample limits must not be negative", nil)
	}
	if s.MinItems > s.MaxItems {
		return errors.NewConfigError(fmt.Sprintf("sample.min_items (%d) exceeds sample.max_items (%d)", s.MinItems, s.MaxItems), nil)
	}
	return nil
}

// DocumentFormat returns the configured default format.
func (c *Config) DocumentFormat() format.Format {
	f, err := format.ParseFormat(c.Format)
	if err != nil {
		return format.JSON
	}
	return f
}

// compilePatterns compiles all regex patterns in the config
func (c *Config) compilePatterns() error {
	for i := range c.Types.Mappings {
		mapping := &c.Types.Mappings[i]
		regex, err := regexp.Compile(mapping.Pattern)
		if err != nil {
			return fmt.Errorf("invalid type mapping pattern '%s': %w", mapping.Pattern, err)
		}
		mapping.regex = regex
	}
	return nil
}

// MatchesField checks if this type mapping matches the given field name
func (tm *TypeMapping) MatchesField(fieldName string) bool {
	if tm.regex == nil {
		// Try to compile if not already compiled (fallback)
		regex, err := regexp.Compile(tm.Pattern)
		if err != nil {
			return false
		}
		tm.regex = regex
	}
	return tm.regex.MatchString(fieldName)
}

// GetFieldName returns the Go field name for a key, applying naming rules
func (c *Config) GetFieldName(key string) string {
	if mapped, exists := c.Naming.FieldMappings[key]; exists {
		return mapped
	}

	if c.Naming.PascalCaseFields {
		return strcase.ToCamel(key)
	}

	return key
}

// FindTypeMapping finds the first type mapping that matches the field name
func (c *Config) FindTypeMapping(fieldName string) (TypeMapping, bool) {
	for i := range c.Types.Mappings {
		if c.Types.Mappings[i].MatchesField(fieldName) {
			return c.Types.Mappings[i], true
		}
	}
	return TypeMapping{}, false
}

// Overrides are values given on the command line. Nil fields were not set.
type Overrides struct {
	Format                 *string
	Indent                 *int
	RenamePreservePosition *bool
	Seed                   *int64
	Package                *string
	RootName               *string
	Debug                  bool
}

// Apply merges o over c. Set values always win over the file.
func (c *Config) Apply(o Overrides) {
	if o.Format != nil {
		c.Format = *o.Format
	}
	if o.Indent != nil {
		indent := *o.Indent
		c.Output.Indent = &indent
	}
	if o.RenamePreservePosition != nil {
		c.Edit.RenamePreservePosition = *o.RenamePreservePosition
	}
	if o.Seed != nil {
		c.Sample.Seed = *o.Seed
	}
	if o.Package != nil {
		c.Types.Package = *o.Package
	}
	if o.RootName != nil {
		c.Types.RootName = *o.RootName
	}
	if o.Debug {
		c.Log.Level = "debug"
	}
}

// LoadConfigWithCLI loads config with CLI argument precedence:
// command line, then config file, then defaults.
func LoadConfigWithCLI(configPath string, o Overrides) (*Config, error) {
	cfg := NewConfig()

	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	cfg.Apply(o)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
