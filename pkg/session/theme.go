package session

import "maps"

// Theme controls how results are displayed. Colors map a display element
// ("json.str", "error", "notify", ...) to a style; multiple styles are joined
// with '+'.
type Theme struct {
	ShowJSONLevels      bool              `yaml:"showJsonLevels" json:"showJsonLevels"`
	ShowJSONQuotes      bool              `yaml:"showJsonQuotes" json:"showJsonQuotes"`
	ShowErrorTrace      bool              `yaml:"showErrorTrace" json:"showErrorTrace"`
	ShowTransactionMeta bool              `yaml:"showTransactionMeta" json:"showTransactionMeta"`
	Colors              map[string]string `yaml:"colors,omitempty" json:"colors,omitempty"`
}

// ThemeOverrides change part of a Theme. Nil flags and absent colors keep the
// value already in place.
type ThemeOverrides struct {
	ShowJSONLevels      *bool             `yaml:"showJsonLevels,omitempty" json:"showJsonLevels,omitempty"`
	ShowJSONQuotes      *bool             `yaml:"showJsonQuotes,omitempty" json:"showJsonQuotes,omitempty"`
	ShowErrorTrace      *bool             `yaml:"showErrorTrace,omitempty" json:"showErrorTrace,omitempty"`
	ShowTransactionMeta *bool             `yaml:"showTransactionMeta,omitempty" json:"showTransactionMeta,omitempty"`
	Colors              map[string]string `yaml:"colors,omitempty" json:"colors,omitempty"`
}

// Merge layers o over t. Flags set in o win and colors merge key by key.
func (t *ThemeOverrides) Merge(o *ThemeOverrides) {
	if o == nil {
		return
	}
	setFlag(&t.ShowJSONLevels, o.ShowJSONLevels)
	setFlag(&t.ShowJSONQuotes, o.ShowJSONQuotes)
	setFlag(&t.ShowErrorTrace, o.ShowErrorTrace)
	setFlag(&t.ShowTransactionMeta, o.ShowTransactionMeta)
	t.Colors = mergeStrings(t.Colors, o.Colors)
}

func setFlag(dst **bool, src *bool) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

// DefaultTheme returns the theme used when nothing is configured.
func DefaultTheme() Theme {
	colors := map[string]string{}
	for _, k := range colorKeys {
		colors[k] = "reset"
	}
	return Theme{ShowJSONQuotes: true, Colors: colors}
}

func (t Theme) clone() Theme {
	t.Colors = maps.Clone(t.Colors)
	return t
}

var colorKeys = []string{
	"json.attr", "json.num", "json.str", "json.bool", "json.undef", "json.null",
	"json.regex", "json.quot", "json.brack", "json.punc",
	"error", "trace", "warn", "meta", "notify", "progress", "result",
}

// Presets are the named color schemes offered to configuration callbacks.
var Presets = map[string]map[string]string{
	"CLAPPY_DARK": {
		"json.attr": "gray", "json.num": "cyan", "json.str": "redBright", "json.bool": "cyan",
		"json.undef": "white+bold", "json.null": "white+bold", "json.regex": "cyan",
		"json.quot": "gray", "json.brack": "gray", "json.punc": "gray",
		"error": "bold+redBright", "trace": "gray+italic", "warn": "bold+yellowBright",
		"progress": "green", "notify": "gray+italic", "meta": "gray", "result": "white",
	},
	"CLAPPY_LIGHT": {
		"json.attr": "dim+black", "json.num": "blue", "json.str": "red", "json.bool": "blue",
		"json.undef": "black", "json.null": "bold+black", "json.regex": "cyan",
		"json.quot": "dim+black", "json.brack": "dim+black", "json.punc": "dim+black",
		"error": "bold+red", "trace": "dim+black+italic", "warn": "bold+yellow",
		"progress": "green", "notify": "dim+black+italic", "meta": "dim+black", "result": "black",
	},
	"TWO_TONE": {
		"json.attr": "dim", "json.num": "reset", "json.str": "reset", "json.bool": "reset",
		"json.undef": "reset", "json.null": "reset", "json.regex": "reset",
		"json.quot": "dim", "json.brack": "dim", "json.punc": "dim",
		"error": "bold", "trace": "dim", "warn": "bold",
		"progress": "dim+italic", "notify": "dim+italic", "meta": "dim", "result": "reset",
	},
	"MONOKAINDA_DARK": {
		"json.attr": "yellowBright", "json.num": "magentaBright", "json.str": "yellowBright",
		"json.bool": "magentaBright", "json.undef": "magentaBright", "json.null": "magentaBright",
		"json.regex": "yellowBright", "json.quot": "yellowBright", "json.brack": "white", "json.punc": "white",
		"error": "bold+red", "trace": "red", "warn": "bold+yellowBright",
		"progress": "dim+white", "notify": "dim+white", "meta": "white", "result": "white",
	},
	"MONOKAINDA_LIGHT": {
		"json.attr": "yellow", "json.num": "magenta", "json.str": "yellow",
		"json.bool": "magenta", "json.undef": "magenta", "json.null": "magenta",
		"json.regex": "yellow", "json.quot": "yellow", "json.brack": "black", "json.punc": "black",
		"error": "bold+red", "trace": "red", "warn": "bold+yellow",
		"progress": "dim+black", "notify": "dim+black", "meta": "black", "result": "black",
	},
}
