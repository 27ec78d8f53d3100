package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// Load reads configuration from configPath, or from ORANGENSAFT_CONFIG, or
// from ./orangensaft.yaml if neither is set, with ${VAR} / ${VAR:-default}
// environment interpolation applied to the raw file before parsing.
func Load(configPath string, getenv func(string) string) (*Config, error) {
	path, err := resolveConfigPath(configPath, getenv)
	if err != nil {
		return Defaults(), nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	baseDir := filepath.Dir(absPath)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	data = interpolateEnv(data, getenv)

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.BaseDir = baseDir

	if cfg.Provider.SequenceFile != "" && !filepath.IsAbs(cfg.Provider.SequenceFile) {
		cfg.Provider.SequenceFile = filepath.Join(baseDir, cfg.Provider.SequenceFile)
	}
	if cfg.Record.Path != "" && !filepath.IsAbs(cfg.Record.Path) {
		cfg.Record.Path = filepath.Join(baseDir, cfg.Record.Path)
	}

	return cfg, nil
}

func resolveConfigPath(explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}
	if envPath := getenv("ORANGENSAFT_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("ORANGENSAFT_CONFIG file not found: %s", envPath)
		}
		return envPath, nil
	}
	if _, err := os.Stat("orangensaft.yaml"); err == nil {
		return "orangensaft.yaml", nil
	}
	return "", fmt.Errorf("no config file found")
}

// interpolateEnv substitutes ${VAR} and ${VAR:-default} before YAML parsing,
// a convention for secrets like API keys that should live in the
// environment, not the checked-in config file.
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		value := getenv(string(parts[1]))
		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}
		return []byte(value)
	})
}
