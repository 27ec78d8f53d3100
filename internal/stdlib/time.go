package stdlib

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/goodsign/monday"

	"github.com/jargnar/orangensaft/internal/errors"
	"github.com/jargnar/orangensaft/internal/eval"
	"github.com/jargnar/orangensaft/internal/value"
)

// localeMap resolves a date-locale lookup: normalize to lowercase/
// underscore, match the full tag, then fall back to the bare language
// part, then to US English.
var localeMap = map[string]monday.Locale{
	"en": monday.LocaleEnUS, "en_us": monday.LocaleEnUS, "en_gb": monday.LocaleEnGB,
	"de": monday.LocaleDeDE, "de_de": monday.LocaleDeDE,
	"fr": monday.LocaleFrFR, "fr_fr": monday.LocaleFrFR, "fr_ca": monday.LocaleFrCA,
	"es": monday.LocaleEsES, "es_es": monday.LocaleEsES,
	"it": monday.LocaleItIT, "it_it": monday.LocaleItIT,
	"pt": monday.LocalePtPT, "pt_pt": monday.LocalePtPT, "pt_br": monday.LocalePtBR,
	"nl": monday.LocaleNlNL, "nl_nl": monday.LocaleNlNL,
	"ru": monday.LocaleRuRU, "ru_ru": monday.LocaleRuRU,
	"ja": monday.LocaleJaJP, "ja_jp": monday.LocaleJaJP,
	"zh": monday.LocaleZhCN, "zh_cn": monday.LocaleZhCN, "zh_tw": monday.LocaleZhTW,
	"ko": monday.LocaleKoKR, "ko_kr": monday.LocaleKoKR,
}

func mondayLocale(s string) monday.Locale {
	s = strings.ToLower(strings.ReplaceAll(s, "-", "_"))
	if loc, ok := localeMap[s]; ok {
		return loc
	}
	if parts := strings.Split(s, "_"); len(parts) > 1 {
		if loc, ok := localeMap[parts[0]]; ok {
			return loc
		}
	}
	return monday.LocaleEnUS
}

func init() {
	allBuiltins = append(allBuiltins,
		parseTimeBuiltin, formatTimeBuiltin, nowUnixBuiltin,
	)
}

// parseTimeBuiltin parses s without requiring the caller to know its exact
// layout up front, since model output rarely commits to one consistently
// ("March 3rd, 2024" one call, "2024-03-03" the next). Returns a Unix
// timestamp (seconds) rather than inventing a Time value type.
var parseTimeBuiltin = &eval.Builtin{
	Name:   "parseTime",
	Params: []eval.BuiltinParam{{Name: "s"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		s, err := asString("parseTime", args[0])
		if err != nil {
			return nil, err
		}
		t, perr := dateparse.ParseAny(s)
		if perr != nil {
			return nil, errors.Simple(errors.ClassRuntime, token0, "parseTime(): cannot parse "+s+" as a date/time")
		}
		return &value.Int{Value: t.Unix()}, nil
	},
}

// formatTimeBuiltin renders a Unix timestamp in a given locale's
// conventional long-date form, used when a prompt needs to show a date back
// to a person rather than to a model.
var formatTimeBuiltin = &eval.Builtin{
	Name:   "formatTime",
	Params: []eval.BuiltinParam{{Name: "unixSeconds"}, {Name: "locale"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		ts, ok := args[0].(*value.Int)
		if !ok {
			return nil, errors.Simple(errors.ClassRuntime, token0, "formatTime() expects an int unix timestamp as its first argument")
		}
		localeName, lerr := asString("formatTime", args[1])
		if lerr != nil {
			return nil, lerr
		}
		loc := mondayLocale(localeName)
		t := time.Unix(ts.Value, 0).UTC()
		return &value.String{Value: monday.Format(t, "January 2, 2006", loc)}, nil
	},
}

var nowUnixBuiltin = &eval.Builtin{
	Name:   "nowUnix",
	Params: []eval.BuiltinParam{},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		return &value.Int{Value: time.Now().Unix()}, nil
	},
}
