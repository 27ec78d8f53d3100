package diagnostics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jargnar/orangensaft/internal/errors"
	"github.com/jargnar/orangensaft/internal/token"
)

func TestPrintErrorsShowsSourceContextAndCaret(t *testing.T) {
	source := "x = 1\ny = z + 1\n"
	span := token.Span{Line: 2, Col: 5}
	err := errors.New("RESOLVE-0001", span, map[string]any{"Name": "z"})

	var buf bytes.Buffer
	PrintErrors(&buf, source, []*errors.LangError{err})

	out := buf.String()
	if !strings.Contains(out, "undefined name 'z'") {
		t.Fatalf("expected the rendered message in output, got:\n%s", out)
	}
	if !strings.Contains(out, "y = z + 1") {
		t.Fatalf("expected the offending source line in output, got:\n%s", out)
	}
	lines := strings.Split(out, "\n")
	var caretLine string
	for _, l := range lines {
		if strings.Contains(l, "^") {
			caretLine = l
		}
	}
	if caretLine == "" {
		t.Fatalf("expected a caret line, got:\n%s", out)
	}
	if strings.Index(caretLine, "^") != 4+len("    ") {
		t.Fatalf("caret not under column 5 (0-based col 4): %q", caretLine)
	}
}

func TestPrintSourceContextTrimsLeadingWhitespace(t *testing.T) {
	lines := []string{"    indented = 1"}
	var buf bytes.Buffer
	printSourceContext(&buf, lines, 1, 15)
	out := buf.String()
	if !strings.Contains(out, "indented = 1") {
		t.Fatalf("expected trimmed line in output, got %q", out)
	}
	if strings.Contains(out, "        indented") {
		t.Fatalf("expected leading whitespace trimmed, got %q", out)
	}
}

func TestPrintSourceContextOutOfRangeLineIsANoop(t *testing.T) {
	var buf bytes.Buffer
	printSourceContext(&buf, []string{"only line"}, 5, 1)
	if buf.Len() != 0 {
		t.Fatalf("expected no output for an out-of-range line, got %q", buf.String())
	}
}

func TestPrintErrorsSkipsContextWhenSpanHasNoLine(t *testing.T) {
	err := errors.Simple(errors.ClassRuntime, token.Span{}, "no span available")
	var buf bytes.Buffer
	PrintErrors(&buf, "irrelevant source\n", []*errors.LangError{err})
	if strings.Contains(buf.String(), "irrelevant source") {
		t.Fatalf("expected no source context line when span has no line info, got %q", buf.String())
	}
}
