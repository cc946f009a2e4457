package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "FIGCLASS_"

	maxConfigFileSize = 1024 * 1024
)

// Load builds the configuration. Precedence, highest first:
//  1. FIGCLASS_* environment variables
//  2. the YAML file at path, when path is non-empty
//  3. Default
//
// Environment names map to keys by lowercasing and splitting the section
// off at the first underscore:
//
//	FIGCLASS_ENGINE_MIN_CONFIDENCE -> engine.min_confidence
//	FIGCLASS_VERIFIER_API_KEY      -> verifier.api_key
//
// ANTHROPIC_API_KEY or OPENAI_API_KEY fill verifier.api_key when it is
// still empty for the selected provider.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyProviderKey(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// envKey maps FIGCLASS_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	return section + "." + field
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if len(content) > maxConfigFileSize {
		return nil, errors.New("config file grew past the size limit while reading")
	}
	return content, nil
}

func applyProviderKey(cfg *Config) {
	if cfg.Verifier.APIKey.IsSet() {
		return
	}
	var name string
	switch cfg.Verifier.Provider {
	case "anthropic":
		name = "ANTHROPIC_API_KEY"
	case "openai":
		name = "OPENAI_API_KEY"
	default:
		return
	}
	if v := os.Getenv(name); v != "" {
		cfg.Verifier.APIKey = Secret(v)
	}
}
