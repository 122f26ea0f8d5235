package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const currentSchemaVersion = 1

// Migrate decodes raw bytes according to their schema_version. Documents
// without a version are the flat JSON configs of earlier releases.
func Migrate(raw []byte) (Config, error) {
	var base struct {
		SchemaVersion int `yaml:"schema_version"`
	}
	if err := yaml.Unmarshal(raw, &base); err != nil {
		return Config{}, fmt.Errorf("parse schema_version: %w", err)
	}

	switch base.SchemaVersion {
	case 0, 1:
		return parseV1(raw)
	default:
		return Config{}, fmt.Errorf("unsupported schema_version %d (max supported: %d)",
			base.SchemaVersion, currentSchemaVersion)
	}
}

func parseV1(raw []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.SchemaVersion = currentSchemaVersion
	return cfg, nil
}
