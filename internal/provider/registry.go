package provider

import (
	"bufio"
	"fmt"
	"os"
)

// Config carries every flag New might need, depending on which provider
// name is selected; fields irrelevant to the chosen provider are ignored.
type Config struct {
	APIKey       string
	Model        string
	SequenceFile string // one scripted response per line, for --provider sequence
}

// New builds the named provider for the CLI's --provider flag. Provider
// itself carries no identity of its own (see provider.go).
func New(name string, cfg Config) (Provider, error) {
	switch name {
	case "", "noop":
		return NoopProvider{}, nil
	case "heuristic":
		return HeuristicMockProvider{}, nil
	case "sequence":
		responses, err := readSequenceFile(cfg.SequenceFile)
		if err != nil {
			return nil, err
		}
		return NewSequenceProvider(responses...), nil
	case "http", "openrouter":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("--provider %s requires an API key (ORANGENSAFT_API_KEY or --api-key)", name)
		}
		model := cfg.Model
		if model == "" {
			model = "openai/gpt-4o-mini"
		}
		return NewHTTPProvider(cfg.APIKey, model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want one of: noop, heuristic, sequence, http)", name)
	}
}

func readSequenceFile(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("--provider sequence requires --sequence-file")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sequence file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading sequence file: %w", err)
	}
	return lines, nil
}
