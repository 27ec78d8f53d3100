// Package repl implements the interactive line-editing shell wired onto
// Orangensaft's lexer/parser/resolver/evaluator and its indentation-
// sensitive grammar in place of brace-delimited blocks.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"github.com/jargnar/orangensaft/internal/ast"
	"github.com/jargnar/orangensaft/internal/errors"
	"github.com/jargnar/orangensaft/internal/eval"
	"github.com/jargnar/orangensaft/internal/lexer"
	"github.com/jargnar/orangensaft/internal/parser"
	"github.com/jargnar/orangensaft/internal/resolver"
	"github.com/jargnar/orangensaft/internal/stdlib"
)

const prompt = "oj> "
const continuationPrompt = ".. "

const logo = `
█▀█ █▀█ ▄▀█ █▄░█ █▀▀ █▀▀ █▄░█ █▀
█▄█ █▀▄ █▀█ █░▀█ █▄█ ██▄ █░▀█ ▄█ `

var completionWords = []string{
	"f", "if", "else", "for", "in", "ret", "assert",
	"true", "false", "nil",
	"int", "float", "bool", "string", "any",
}

// Start runs the REPL loop against prov until EOF (Ctrl+D) or "exit"/"quit".
func Start(in io.Reader, out io.Writer, version string, prov eval.Provider) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(l string) []string { return filterCompletions(l) })

	historyFile := filepath.Join(os.TempDir(), ".orangensaft_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	env := eval.NewEnvironment()
	stdlib.Register(env)
	interp := eval.New(prov)

	fmt.Fprint(out, logo)
	fmt.Fprintln(out, "v", version)
	fmt.Fprintln(out, "\nType 'exit' or Ctrl+D to quit, ':help' for REPL commands")

	var buf strings.Builder
	for {
		currentPrompt := prompt
		if buf.Len() > 0 {
			currentPrompt = continuationPrompt
		}
		input, err := line.Prompt(currentPrompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				buf.Reset()
				fmt.Fprintln(out, "^C")
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(out, "error reading input: %v\n", err)
			continue
		}

		trimmed := strings.TrimSpace(input)
		if buf.Len() == 0 && (trimmed == "exit" || trimmed == "quit") {
			fmt.Fprintln(out, "Goodbye!")
			return
		}
		if buf.Len() == 0 && strings.HasPrefix(trimmed, ":") {
			handleCommand(trimmed, env, out)
			continue
		}
		if buf.Len() == 0 && trimmed == "" {
			continue
		}

		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(input)

		if needsMoreInput(buf.String()) {
			continue
		}

		full := buf.String()
		if trimmed != "" {
			line.AppendHistory(full)
		}
		runSnippet(full, env, interp, out)
		buf.Reset()
	}
}

func runSnippet(source string, env *eval.Environment, interp *eval.Interpreter, out io.Writer) {
	l := lexer.New(source, "<repl>")
	prog, perrs := parser.ParseProgram(l)
	if len(perrs) > 0 {
		printErrors(out, perrs)
		return
	}
	if rerrs := resolver.Resolve(prog, stdlib.Names()); len(rerrs) > 0 {
		printErrors(out, rerrs)
		return
	}
	if err := interp.Run(prog, env); err != nil {
		printErrors(out, []*errors.LangError{err})
		return
	}
	if v, ok := lastExpressionValue(prog, env, interp); ok {
		fmt.Fprintln(out, v.Inspect())
	}
}

// lastExpressionValue re-evaluates a trailing bare expression statement so
// the REPL can print its value, matching ordinary REPL behavior of
// echoing the last expression's result without requiring an explicit
// print() call. Side effects already ran once via interp.Run; re-running a
// bare expression is safe only because the resolver/parser guarantee it
// produces no further assignment, so this never double-applies a mutation.
func lastExpressionValue(prog *ast.Program, env *eval.Environment, interp *eval.Interpreter) (interface{ Inspect() string }, bool) {
	if len(prog.Statements) == 0 {
		return nil, false
	}
	last, ok := prog.Statements[len(prog.Statements)-1].(*ast.ExprStmt)
	if !ok {
		return nil, false
	}
	v, err := interp.Eval(last.Expr, env)
	if err != nil || v == nil {
		return nil, false
	}
	return v, true
}

func printErrors(out io.Writer, errs []*errors.LangError) {
	for _, e := range errs {
		fmt.Fprintln(out, e.PrettyString())
	}
}

func handleCommand(cmd string, env *eval.Environment, out io.Writer) {
	switch cmd {
	case ":help", ":h", ":?":
		fmt.Fprintln(out, "REPL commands:")
		fmt.Fprintln(out, "  :help, :h, :?   show this help")
		fmt.Fprintln(out, "  :env            list bound names")
		fmt.Fprintln(out, "  exit, quit      exit the REPL")
	case ":env":
		printEnv(env, out)
	default:
		fmt.Fprintf(out, "unknown command: %s (try :help)\n", cmd)
	}
}

func printEnv(env *eval.Environment, out io.Writer) {
	names := env.Names()
	if len(names) == 0 {
		fmt.Fprintln(out, "(no bindings)")
		return
	}
	sort.Strings(names)
	for _, name := range names {
		v, _ := env.Get(name)
		fmt.Fprintf(out, "  %s = %s\n", name, v.Inspect())
	}
}

func filterCompletions(line string) []string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasSuffix(line, " ") {
		return nil
	}
	words := strings.Fields(line)
	last := words[len(words)-1]
	var matches []string
	for _, w := range completionWords {
		if strings.HasPrefix(w, last) {
			matches = append(matches, w)
		}
	}
	return matches
}

// needsMoreInput tracks bracket/paren/prompt-delimiter balance and trailing
// block-opening colons, since Orangensaft's blocks are indentation-led
// rather than brace-delimited: a line ending in ':' always continues, and
// since there is no dedent token to wait for once liner hands back one line
// at a time, the input runs as soon as its last line no longer ends in ':'
// (so a block body typed into the REPL is a single line).
func needsMoreInput(input string) bool {
	trimmed := strings.TrimRight(input, "\n")
	if trimmed == "" {
		return false
	}
	depth := 0
	inString, inPrompt := false, false
	escaped := false
	lastNonSpace := byte(0)
	for i := 0; i < len(trimmed); i++ {
		c := trimmed[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\':
			escaped = true
		case inString:
			if c == '"' {
				inString = false
			}
		case inPrompt:
			if c == '$' {
				inPrompt = false
			}
		case c == '"':
			inString = true
		case c == '$':
			inPrompt = true
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		}
		if c != ' ' && c != '\t' && c != '\n' {
			lastNonSpace = c
		}
	}
	if depth > 0 || inString || inPrompt {
		return true
	}
	lastLine := trimmed
	if idx := strings.LastIndexByte(trimmed, '\n'); idx != -1 {
		lastLine = trimmed[idx+1:]
	}
	return strings.HasSuffix(strings.TrimSpace(lastLine), ":") && lastNonSpace == ':'
}
