// Package diagnostics prints LangErrors with source context and a
// source-pointer caret under the offending span.
package diagnostics

import (
	"fmt"
	"io"
	"strings"

	"github.com/jargnar/orangensaft/internal/errors"
)

// PrintErrors writes one PrettyString plus a source-context pointer per
// error in errs.
func PrintErrors(w io.Writer, source string, errs []*errors.LangError) {
	lines := strings.Split(source, "\n")
	for _, e := range errs {
		fmt.Fprintln(w, e.PrettyString())
		if e.Span.Line > 0 {
			printSourceContext(w, lines, e.Span.Line, e.Span.Col)
		}
	}
}

// printSourceContext shows the offending line, trimmed of leading
// whitespace, with a caret under the error column. Column math accounts for
// tabs expanding to 8 columns, matching how most terminals render them,
// otherwise the caret drifts right of the real position on indented lines.
func printSourceContext(w io.Writer, lines []string, lineNum, colNum int) {
	if lineNum <= 0 || lineNum > len(lines) {
		return
	}
	sourceLine := lines[lineNum-1]

	trimCount := 0
	for i := 0; i < len(sourceLine); i++ {
		if sourceLine[i] == '\t' {
			trimCount += 8
		} else if sourceLine[i] == ' ' {
			trimCount++
		} else {
			break
		}
	}
	trimmedLine := strings.TrimLeft(sourceLine, " \t")
	fmt.Fprintf(w, "    %s\n", trimmedLine)

	if colNum <= 0 {
		return
	}
	visualCol := 0
	for i := 0; i < colNum-1 && i < len(sourceLine); i++ {
		if sourceLine[i] == '\t' {
			visualCol += 8
		} else {
			visualCol++
		}
	}
	adjustedCol := visualCol - trimCount
	if adjustedCol < 0 {
		adjustedCol = 0
	}
	fmt.Fprintf(w, "    %s^\n", strings.Repeat(" ", adjustedCol))
}
