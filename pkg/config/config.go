// Package config loads and validates webneat configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for a patch run.
type Config struct {
	// Root is the directory tree to traverse.
	Root string `mapstructure:"root" json:"root" yaml:"root"`
	// PreviewScriptPath is the src value injected into each page. The
	// script itself is served by the site, not produced here.
	PreviewScriptPath string `mapstructure:"preview_script_path" json:"preview_script_path" yaml:"preview_script_path"`
	// OutputEncoding is the on-disk encoding of rewritten files. Only
	// utf-8 is supported; the field exists so a config stating anything
	// else fails loudly instead of silently re-encoding.
	OutputEncoding string   `mapstructure:"output_encoding" json:"output_encoding" yaml:"output_encoding"`
	StripComments  bool     `mapstructure:"strip_comments" json:"strip_comments" yaml:"strip_comments"`
	Strategy       string   `mapstructure:"strategy" json:"strategy" yaml:"strategy"`
	MaxWorkers     int      `mapstructure:"max_workers" json:"max_workers" yaml:"max_workers"`
	Include        []string `mapstructure:"include" json:"include,omitempty" yaml:"include"`
	Exclude        []string `mapstructure:"exclude" json:"exclude,omitempty" yaml:"exclude"`
	NoIgnore       bool     `mapstructure:"no_ignore" json:"no_ignore" yaml:"no_ignore"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Root:              ".",
		PreviewScriptPath: "/preview.js",
		OutputEncoding:    "utf-8",
		StripComments:     true,
		Strategy:          "sequential",
		MaxWorkers:        0,
	}
}

// Load reads configuration from .webneat.yaml / webneat.yaml in the working
// directory or $HOME, plus WEBNEAT_* environment variables, on top of the
// defaults. A missing config file is normal. The result is schema-validated.
func Load() (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("root", def.Root)
	v.SetDefault("preview_script_path", def.PreviewScriptPath)
	v.SetDefault("output_encoding", def.OutputEncoding)
	v.SetDefault("strip_comments", def.StripComments)
	v.SetDefault("strategy", def.Strategy)
	v.SetDefault("max_workers", def.MaxWorkers)
	v.SetDefault("no_ignore", def.NoIgnore)

	v.SetConfigName(".webneat")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")

	v.SetEnvPrefix("WEBNEAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
