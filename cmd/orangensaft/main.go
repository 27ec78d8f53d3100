package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jargnar/orangensaft/config"
	"github.com/jargnar/orangensaft/internal/diagnostics"
	"github.com/jargnar/orangensaft/internal/errors"
	"github.com/jargnar/orangensaft/internal/eval"
	"github.com/jargnar/orangensaft/internal/lexer"
	"github.com/jargnar/orangensaft/internal/parser"
	"github.com/jargnar/orangensaft/internal/provider"
	"github.com/jargnar/orangensaft/internal/record"
	"github.com/jargnar/orangensaft/internal/repl"
	"github.com/jargnar/orangensaft/internal/resolver"
	"github.com/jargnar/orangensaft/internal/stdlib"
)

// Version is set at compile time via -ldflags.
var Version = "0.1.0"

var (
	helpFlag    = flag.Bool("h", false, "Show help message")
	versionFlag = flag.Bool("V", false, "Show version information")
	evalFlag    = flag.String("e", "", "Evaluate code string")
	checkFlag   = flag.Bool("check", false, "Check syntax without executing")

	configFlag   = flag.String("config", "", "Path to config file")
	providerFlag = flag.String("provider", "", "Prompt provider: noop, heuristic, sequence, http")
	modelFlag    = flag.String("model", "", "Model identifier for the http provider")
	apiKeyFlag   = flag.String("api-key", "", "API key for the http provider")
	sequenceFlag = flag.String("sequence-file", "", "Canned-response file for the sequence provider")
	recordFlag   = flag.String("record", "", "Path to write a gzip-compressed prompt transcript")
)

func main() {
	flag.Usage = printHelp
	flag.Parse()

	if *helpFlag {
		printHelp()
		os.Exit(0)
	}
	if *versionFlag {
		fmt.Printf("orangensaft version %s\n", Version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFlag, os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	applyFlagOverrides(cfg)

	prov, err := provider.New(cfg.Provider.Name, provider.Config{
		APIKey:       cfg.Provider.APIKey,
		Model:        cfg.Provider.Model,
		SequenceFile: cfg.Provider.SequenceFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	switch {
	case *evalFlag != "":
		executeInline(*evalFlag, flag.Args(), cfg, prov)
	case *checkFlag:
		files := flag.Args()
		if len(files) == 0 {
			fmt.Fprintln(os.Stderr, "Error: --check requires at least one file")
			os.Exit(2)
		}
		os.Exit(checkFiles(files))
	case len(flag.Args()) > 0:
		executeFile(flag.Args()[0], cfg, prov)
	default:
		repl.Start(os.Stdin, os.Stdout, Version, prov)
	}
}

func applyFlagOverrides(cfg *config.Config) {
	if *providerFlag != "" {
		cfg.Provider.Name = *providerFlag
	}
	if *modelFlag != "" {
		cfg.Provider.Model = *modelFlag
	}
	if *apiKeyFlag != "" {
		cfg.Provider.APIKey = *apiKeyFlag
	}
	if *sequenceFlag != "" {
		cfg.Provider.SequenceFile = *sequenceFlag
	}
	if *recordFlag != "" {
		cfg.Record.Enabled = true
		cfg.Record.Path = *recordFlag
	}
}

func newInterpreter(cfg *config.Config, prov provider.Provider) (*eval.Interpreter, *record.Recorder) {
	interp := eval.New(prov)
	if cfg.Prompt.MaxToolRounds > 0 {
		interp.MaxToolRounds = cfg.Prompt.MaxToolRounds
	}
	if cfg.Prompt.MaxToolCalls > 0 {
		interp.MaxToolCalls = cfg.Prompt.MaxToolCalls
	}
	var rec *record.Recorder
	if cfg.Record.Enabled {
		r, err := record.Open(cfg.Record.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: could not open transcript file: %s\n", err)
			os.Exit(1)
		}
		rec = r
		interp.Recorder = rec
	}
	return interp, rec
}

func executeInline(code string, args []string, cfg *config.Config, prov provider.Provider) {
	l := lexer.New(code, "<eval>")
	prog, errs := parser.ParseProgram(l)
	if len(errs) != 0 {
		diagnostics.PrintErrors(os.Stderr, code, errs)
		os.Exit(1)
	}
	if rerrs := resolver.Resolve(prog, stdlib.Names()); len(rerrs) != 0 {
		diagnostics.PrintErrors(os.Stderr, code, rerrs)
		os.Exit(1)
	}

	env := eval.NewEnvironment()
	stdlib.Register(env)
	interp, rec := newInterpreter(cfg, prov)
	if rec != nil {
		defer rec.Close()
	}

	if rerr := interp.Run(prog, env); rerr != nil {
		diagnostics.PrintErrors(os.Stderr, code, []*errors.LangError{rerr})
		os.Exit(1)
	}
}

func executeFile(filename string, cfg *config.Config, prov provider.Provider) {
	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file '%s': %v\n", filename, err)
		os.Exit(1)
	}
	source := string(content)

	l := lexer.New(source, filename)
	prog, errs := parser.ParseProgram(l)
	if len(errs) != 0 {
		diagnostics.PrintErrors(os.Stderr, source, errs)
		os.Exit(1)
	}
	if rerrs := resolver.Resolve(prog, stdlib.Names()); len(rerrs) != 0 {
		diagnostics.PrintErrors(os.Stderr, source, rerrs)
		os.Exit(1)
	}

	env := eval.NewEnvironment()
	stdlib.Register(env)
	interp, rec := newInterpreter(cfg, prov)
	if rec != nil {
		defer rec.Close()
	}

	if rerr := interp.Run(prog, env); rerr != nil {
		diagnostics.PrintErrors(os.Stderr, source, []*errors.LangError{rerr})
		os.Exit(1)
	}
}

func checkFiles(files []string) int {
	hasErrors := false
	for _, filename := range files {
		content, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", filename, err)
			return 2
		}
		source := string(content)
		l := lexer.New(source, filename)
		prog, errs := parser.ParseProgram(l)
		if len(errs) != 0 {
			diagnostics.PrintErrors(os.Stderr, source, errs)
			hasErrors = true
			continue
		}
		if rerrs := resolver.Resolve(prog, stdlib.Names()); len(rerrs) != 0 {
			diagnostics.PrintErrors(os.Stderr, source, rerrs)
			hasErrors = true
		}
	}
	if hasErrors {
		return 1
	}
	return 0
}

func printHelp() {
	fmt.Printf(`orangensaft - the Orangensaft language interpreter, version %s

Usage:
  orangensaft [options] [file] [args...]
  orangensaft -e "code"
  orangensaft --check <file>...

Display Options:
  -h                    Show this help message
  -V                    Show version information

Evaluation Options:
  -e <code>             Evaluate code string
  --check               Check syntax without executing

Provider Options:
  --provider <name>     noop, heuristic, sequence, http (default from config, else heuristic)
  --model <id>          Model identifier for the http provider
  --api-key <key>       API key for the http provider
  --sequence-file <p>   Canned-response file for the sequence provider
  --record <path>       Write a gzip-compressed prompt transcript to path
  --config <path>       Path to config file (default: ./orangensaft.yaml)

With no file, options, or -e, starts the REPL.
`, Version)
}
