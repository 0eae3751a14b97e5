package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/S1riyS/tree-server/internal/tree"
)

const DefaultMarker = "tiddlywiki.info"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	App     AppConfig     `yaml:"app"`
	Logging LoggingConfig `yaml:"logging"`

	// Tree is the virtual namespace served at "/".
	Tree tree.Tree `yaml:"tree"`

	// Marker is the file name that turns a directory into a data folder.
	Marker string `yaml:"marker" env:"TREE_MARKER" env-default:"tiddlywiki.info"`

	// Types maps a type tag to the file extensions it claims.
	Types map[string][]string `yaml:"types"`
}

func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic("cannot read config: " + err.Error())
	}
	return cfg
}

// Load reads the YAML file at configPath, expands environment variables in
// it, applies env overrides and defaults, and validates the result. Relative
// filesystem roots in the tree are resolved against the config file's
// directory.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"

	if configPath == "" {
		return nil, fmt.Errorf("%s: %w: config path is empty", op, ErrInvalidConfig)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cfg, err := parse(expandEnvVars(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cfg.Tree.Root = tree.Rebase(cfg.Tree.Root, filepath.Dir(absPath))

	return cfg, nil
}

// LoadFromString parses configuration from YAML content. Relative roots are
// left untouched.
func LoadFromString(content string) (*Config, error) {
	const op = "config.LoadFromString"

	cfg, err := parse(expandEnvVars([]byte(content)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := cleanenv.ParseYAML(bytes.NewReader(data), &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Tree.Root == nil {
		return fmt.Errorf("%w: tree is empty", ErrInvalidConfig)
	}
	if c.Marker == "" {
		c.Marker = DefaultMarker
	}
	if strings.ContainsAny(c.Marker, `/\`) || c.Marker == "." || c.Marker == ".." {
		return fmt.Errorf("%w: marker %q must be a plain file name", ErrInvalidConfig, c.Marker)
	}
	if c.App.ListingConcurrency <= 0 {
		return fmt.Errorf("%w: listing_concurrency must be positive", ErrInvalidConfig)
	}
	return nil
}

func expandEnvVars(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}
