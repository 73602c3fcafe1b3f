package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering sources, lowest precedence first:
//  1. defaults (New())
//  2. YAML file named by F1_CONFIG, if set
//  3. environment variables (prefix F1_, double underscore nests:
//     F1_ERGAST__MAX_RETRIES -> ergast.max_retries)
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv("F1_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	envProvider := env.Provider("F1_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "f1_")
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.Addr == "" {
		return nil, errors.New("addr must not be empty")
	}
	if cfg.Laps.Concurrency < 1 {
		return nil, errors.New("laps.concurrency must be at least 1")
	}
	return &cfg, nil
}
