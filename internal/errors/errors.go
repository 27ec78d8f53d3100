// Package errors provides the structured diagnostic type shared across the
// lexer, parser, resolver, schema validator, evaluator, and prompt loop.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/jargnar/orangensaft/internal/token"
)

// Class categorizes a diagnostic, mirroring the error kinds in the language
// specification one for one.
type Class string

const (
	ClassLex       Class = "lex"
	ClassParse     Class = "parse"
	ClassResolve   Class = "resolve"
	ClassType      Class = "type"
	ClassRuntime   Class = "runtime"
	ClassProvider  Class = "provider"
	ClassAssertion Class = "assertion"
)

// LangError is the single error type produced anywhere in the pipeline.
type LangError struct {
	Class   Class          `json:"class"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hints   []string       `json:"hints,omitempty"`
	Span    token.Span     `json:"span"`
	File    string         `json:"file,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

func (e *LangError) Error() string { return e.String() }

// String is the compact one-line rendering used by tests and logs.
func (e *LangError) String() string {
	var sb strings.Builder
	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(": ")
	}
	if e.Span.Line > 0 {
		fmt.Fprintf(&sb, "line %d, column %d: ", e.Span.Line, e.Span.Col)
	}
	sb.WriteString(e.Message)
	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}
	return sb.String()
}

// PrettyString is the multi-line rendering used by the CLI's diagnostic
// printer, before source context is appended.
func (e *LangError) PrettyString() string {
	var sb strings.Builder
	sb.WriteString(classHeading(e.Class))
	if e.File != "" {
		sb.WriteString(":\n  in: ")
		sb.WriteString(e.File)
	}
	if e.Span.Line > 0 {
		fmt.Fprintf(&sb, "\n  at: line %d, column %d", e.Span.Line, e.Span.Col)
	}
	sb.WriteString("\n  ")
	sb.WriteString(e.Message)
	for i, hint := range e.Hints {
		sb.WriteString("\n  ")
		if i == 0 {
			sb.WriteString("hint: ")
		} else {
			sb.WriteString("  or: ")
		}
		sb.WriteString(hint)
	}
	return sb.String()
}

func classHeading(c Class) string {
	switch c {
	case ClassLex:
		return "Lex error"
	case ClassParse:
		return "Parse error"
	case ClassResolve:
		return "Resolve error"
	case ClassType:
		return "Type error"
	case ClassProvider:
		return "Provider error"
	case ClassAssertion:
		return "Assertion failed"
	default:
		return "Runtime error"
	}
}

// ToJSON renders the error as a single JSON object.
func (e *LangError) ToJSON() ([]byte, error) { return json.Marshal(e) }

// WithSpan returns a copy of the error with its span replaced. Used when a
// lower-level error (e.g. a builtin's own LangError) is re-raised at a call
// site that carries a more specific span.
func (e *LangError) WithSpan(span token.Span) *LangError {
	cp := *e
	cp.Span = span
	return &cp
}

// WithFile returns a copy of the error with the file path set.
func (e *LangError) WithFile(file string) *LangError {
	cp := *e
	cp.File = file
	return &cp
}

// Def defines one catalog entry: its class, its message template, and
// optional hint templates. Both render through text/template against Data.
type Def struct {
	Class    Class
	Template string
	Hints    []string
}

// Catalog maps stable error codes to their definitions. Codes are grouped by
// class prefix so a reader can skim the source and find the family.
var Catalog = map[string]Def{
	"LEX-0001": {Class: ClassLex, Template: "unterminated string literal"},
	"LEX-0002": {Class: ClassLex, Template: "unterminated prompt (missing closing '$')"},
	"LEX-0003": {Class: ClassLex, Template: "mixed tabs and spaces in indentation"},
	"LEX-0004": {Class: ClassLex, Template: "dedent does not match any enclosing indentation level"},
	"LEX-0005": {Class: ClassLex, Template: "unexpected character {{.Char}}"},
	"LEX-0006": {Class: ClassLex, Template: "'}}' with no matching interpolation"},

	"PARSE-0001": {Class: ClassParse, Template: "expected {{.Expected}}, got {{.Got}}"},
	"PARSE-0002": {Class: ClassParse, Template: "unexpected token {{.Token}}"},
	"PARSE-0003": {Class: ClassParse, Template: "empty block body"},
	"PARSE-0004": {Class: ClassParse, Template: "malformed schema: {{.Detail}}"},
	"PARSE-0005": {Class: ClassParse, Template: "mismatched bracket: expected {{.Expected}}"},
	"PARSE-0006": {Class: ClassParse, Template: "tuple literal requires at least 2 elements"},

	"RESOLVE-0001": {Class: ClassResolve, Template: "undefined name '{{.Name}}'"},
	"RESOLVE-0002": {Class: ClassResolve, Template: "'{{.Name}}' is already defined in this scope"},
	"RESOLVE-0003": {Class: ClassResolve, Template: "duplicate parameter name '{{.Name}}'"},
	"RESOLVE-0004": {Class: ClassResolve, Template: "'ret' outside of a function body"},

	"TYPE-0001": {Class: ClassType, Template: "schema validation failed for '{{.Name}}': {{.Detail}}"},
	"TYPE-0002": {Class: ClassType, Template: "invalid argument for parameter '{{.Param}}' in '{{.Function}}': {{.Detail}}"},
	"TYPE-0003": {Class: ClassType, Template: "function '{{.Function}}' returned invalid value for schema {{.Schema}}: {{.Detail}}"},
	"TYPE-0004": {Class: ClassType, Template: "prompt result failed schema validation after repair attempt: first error: {{.First}}; second error: {{.Second}}"},

	"RUNTIME-0001": {Class: ClassRuntime, Template: "division by zero"},
	"RUNTIME-0002": {Class: ClassRuntime, Template: "modulo by zero"},
	"RUNTIME-0003": {Class: ClassRuntime, Template: "unary '-' expects a number, got {{.Got}}"},
	"RUNTIME-0004": {Class: ClassRuntime, Template: "operator {{.Op}} expects numeric operands or strings, got {{.Left}} and {{.Right}}"},
	"RUNTIME-0005": {Class: ClassRuntime, Template: "index {{.Index}} out of bounds (length {{.Length}})"},
	"RUNTIME-0006": {Class: ClassRuntime, Template: "object has no field '{{.Field}}'"},
	"RUNTIME-0007": {Class: ClassRuntime, Template: "{{.Construct}} expects {{.Want}} argument(s), got {{.Got}}"},
	"RUNTIME-0008": {Class: ClassRuntime, Template: "tuple destructuring expected {{.Want}} values, got {{.Got}}"},
	"RUNTIME-0009": {Class: ClassRuntime, Template: "attempted to call a non-function value of type {{.Got}}"},
	"RUNTIME-0010": {Class: ClassRuntime, Template: "for-loop expects a list or tuple, got {{.Got}}"},
	"RUNTIME-0011": {Class: ClassRuntime, Template: "tool-call round limit exceeded (max-tool-rounds={{.Limit}})"},
	"RUNTIME-0012": {Class: ClassRuntime, Template: "tool call limit exceeded (max-tool-calls={{.Limit}})"},
	"RUNTIME-0013": {Class: ClassRuntime, Template: "indexing is not supported on {{.Got}}"},
	"RUNTIME-0014": {Class: ClassRuntime, Template: "missing key '{{.Key}}'"},

	"PROVIDER-0001": {Class: ClassProvider, Template: "{{.Detail}}"},
	"PROVIDER-0002": {Class: ClassProvider, Template: "provider returned empty tool call list"},
	"PROVIDER-0003": {Class: ClassProvider, Template: "provider attempted tool calls but no tools are exposed in this prompt"},
	"PROVIDER-0004": {Class: ClassProvider, Template: "provider requested unknown tool '{{.Name}}'"},

	"ASSERT-0001": {Class: ClassAssertion, Template: "assertion failed: {{.Expr}} evaluated to {{.Value}}"},
}

// New builds a LangError from the catalog. Unknown codes fall back to a
// generic runtime-class error carrying the raw code as its message, which
// should only happen for a programmer mistake in the codebase itself.
func New(code string, span token.Span, data map[string]any) *LangError {
	def, ok := Catalog[code]
	if !ok {
		return &LangError{Class: ClassRuntime, Code: code, Message: code, Span: span, Data: data}
	}
	msg := render(def.Template, data)
	var hints []string
	for _, h := range def.Hints {
		if rendered := render(h, data); rendered != "" {
			hints = append(hints, rendered)
		}
	}
	return &LangError{Class: def.Class, Code: code, Message: msg, Hints: hints, Span: span, Data: data}
}

// Simple builds a LangError outside the catalog, for call sites whose
// message is already fully formed (e.g. wrapping a third-party error).
func Simple(class Class, span token.Span, message string) *LangError {
	return &LangError{Class: class, Message: message, Span: span}
}

func render(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}
	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}
	return buf.String()
}

// levenshtein computes the classic edit distance, used for "did you mean"
// suggestions on undefined-name errors.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min(matrix[i-1][j]+1, matrix[i][j-1]+1, matrix[i-1][j-1]+cost)
		}
	}
	return matrix[len(a)][len(b)]
}

// FindClosestMatch returns the best candidate within a length-scaled edit
// distance threshold, or "" if nothing is close enough to suggest.
func FindClosestMatch(input string, candidates []string) string {
	if input == "" || len(candidates) == 0 {
		return ""
	}
	lower := strings.ToLower(input)
	best, bestDist := "", -1
	for _, c := range candidates {
		dist := levenshtein(lower, strings.ToLower(c))
		if bestDist == -1 || dist < bestDist {
			bestDist, best = dist, c
		}
	}
	threshold := 1
	switch {
	case len(input) >= 7:
		threshold = 3
	case len(input) >= 4:
		threshold = 2
	}
	if bestDist <= 0 || bestDist > threshold {
		return ""
	}
	return best
}

// NewUndefinedName builds a RESOLVE-0001 error, decorated with a fuzzy
// "did you mean" hint when one of the known names is close enough.
func NewUndefinedName(name string, span token.Span, known []string) *LangError {
	err := New("RESOLVE-0001", span, map[string]any{"Name": name})
	if suggestion := FindClosestMatch(name, known); suggestion != "" {
		err.Hints = append(err.Hints, fmt.Sprintf("did you mean '%s'?", suggestion))
	}
	return err
}
