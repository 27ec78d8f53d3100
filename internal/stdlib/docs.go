package stdlib

import (
	"bytes"

	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/jargnar/orangensaft/internal/errors"
	"github.com/jargnar/orangensaft/internal/eval"
	"github.com/jargnar/orangensaft/internal/value"
)

func init() {
	allBuiltins = append(allBuiltins, markdownToHTMLBuiltin, readPDFTextBuiltin)
}

var markdownGoldmark = goldmark.New(goldmark.WithExtensions(extension.GFM))

// markdownToHTMLBuiltin renders GitHub-flavored markdown, commonly model
// output, into HTML suitable for displaying alongside a prompt result.
var markdownToHTMLBuiltin = &eval.Builtin{
	Name:   "markdownToHTML",
	Params: []eval.BuiltinParam{{Name: "source"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		s, err := asString("markdownToHTML", args[0])
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if cerr := markdownGoldmark.Convert([]byte(s), &buf); cerr != nil {
			return nil, errors.Simple(errors.ClassRuntime, token0, "markdownToHTML(): "+cerr.Error())
		}
		return &value.String{Value: buf.String()}, nil
	},
}

// readPDFTextBuiltin extracts plain text from a text-based PDF on disk, so a
// prompt can interpolate a document's contents as context. Scanned
// (image-only) PDFs yield little or nothing, since no OCR is performed.
var readPDFTextBuiltin = &eval.Builtin{
	Name:   "readPDFText",
	Params: []eval.BuiltinParam{{Name: "path"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		path, err := asString("readPDFText", args[0])
		if err != nil {
			return nil, err
		}
		f, r, operr := pdf.Open(path)
		if operr != nil {
			return nil, errors.Simple(errors.ClassRuntime, token0, "readPDFText(): cannot open "+path+": "+operr.Error())
		}
		defer f.Close()
		plainText, terr := r.GetPlainText()
		if terr != nil {
			return nil, errors.Simple(errors.ClassRuntime, token0, "readPDFText(): "+terr.Error())
		}
		var buf bytes.Buffer
		buf.ReadFrom(plainText)
		return &value.String{Value: buf.String()}, nil
	},
}
