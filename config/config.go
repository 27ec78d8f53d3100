// Package config loads Orangensaft's run-time configuration: which prompt
// provider to talk to, the tool-loop limits the interpreter enforces, and
// where logs and transcripts go.
package config

// Config is the complete Orangensaft configuration, loaded from a YAML file
// and overridable by CLI flags.
type Config struct {
	BaseDir  string         `yaml:"-"` // directory containing the config file, for resolving relative paths
	Provider ProviderConfig `yaml:"provider"`
	Prompt   PromptConfig   `yaml:"prompt"`
	Logging  LoggingConfig  `yaml:"logging"`
	Record   RecordConfig   `yaml:"record"`
}

// ProviderConfig selects and configures the backend that answers prompt
// expressions.
type ProviderConfig struct {
	Name         string `yaml:"name"`          // noop, heuristic, sequence, http
	APIKey       string `yaml:"api_key"`       // OpenRouter (or compatible) API key; prefer the ORANGENSAFT_API_KEY env var over committing this
	Model        string `yaml:"model"`         // model identifier passed to the HTTP provider
	SequenceFile string `yaml:"sequence_file"` // newline-delimited canned responses, for the sequence provider
}

// PromptConfig holds the interpreter's tool-loop limits (8 rounds / 32
// calls by default).
type PromptConfig struct {
	MaxToolRounds int `yaml:"max_tool_rounds"`
	MaxToolCalls  int `yaml:"max_tool_calls"`
}

// LoggingConfig holds script print()/logLine() and diagnostic output
// settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
	Output string `yaml:"output"` // stderr, stdout, or a file path
}

// RecordConfig controls the gzip-compressed prompt transcript.
type RecordConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Defaults returns the configuration Orangensaft runs with when no config
// file is present.
func Defaults() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name: "heuristic",
		},
		Prompt: PromptConfig{
			MaxToolRounds: 8,
			MaxToolCalls:  32,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Record: RecordConfig{
			Enabled: false,
		},
	}
}
