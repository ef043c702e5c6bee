package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvConfigFile names the variable holding the optional YAML config path.
const EnvConfigFile = "LYRICS_CONFIG"

const keyDelim = "/"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if LYRICS_CONFIG is set
//  3. env (prefix LYRICS_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	// grid keys are pipeline parameter names and contain dots
	k := koanf.New(keyDelim)

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// LYRICS_CORPUS_DIR -> corpus_dir; underscores are kept to match the
	// koanf tags.
	envProvider := env.Provider("LYRICS_", keyDelim, func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), "lyrics_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
