// Package i18n holds the UI dictionaries (English and Indonesian) and
// negotiates a language from an Accept-Language header.
//
// A Translator is passed to whatever renders text; there is no
// process-wide current language.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Language is a supported UI language code.
type Language string

const (
	English    Language = "en"
	Indonesian Language = "id"
)

// Toggle flips between English and Indonesian.
func (l Language) Toggle() Language {
	if l == English {
		return Indonesian
	}
	return English
}

//go:embed locales/*.yaml
var embeddedLocales embed.FS

type localeFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Translator looks up UI strings. It is immutable after construction and
// safe for concurrent use.
type Translator struct {
	dicts     map[Language]map[string]string
	def       Language
	supported []Language
	matcher   language.Matcher
}

// LoadEmbedded loads the built-in dictionaries with def as the default
// language; dulang serves Indonesian by default.
func LoadEmbedded(def Language) (*Translator, error) {
	return Load(embeddedLocales, def)
}

// Load reads locales/*.yaml from fsys. English must be present since it
// is the fallback for missing keys.
func Load(fsys fs.FS, def Language) (*Translator, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("i18n: glob locales: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("i18n: no locale files found")
	}

	dicts := make(map[Language]map[string]string, len(paths))
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", p, err)
		}
		var lf localeFile
		if err := yaml.Unmarshal(data, &lf); err != nil {
			return nil, fmt.Errorf("i18n: parse %s: %w", p, err)
		}
		lang := Language(strings.TrimSpace(lf.Locale))
		if lang == "" {
			return nil, fmt.Errorf("i18n: %s: locale is required", p)
		}
		if _, dup := dicts[lang]; dup {
			return nil, fmt.Errorf("i18n: %s: duplicate locale %q", p, lang)
		}
		dicts[lang] = lf.Messages
	}

	if _, ok := dicts[English]; !ok {
		return nil, fmt.Errorf("i18n: fallback locale %q is not defined", English)
	}
	if _, ok := dicts[def]; !ok {
		return nil, fmt.Errorf("i18n: default locale %q is not defined", def)
	}

	// The matcher falls back to its first tag, so the default goes first.
	supported := []Language{def}
	for _, l := range slices.Sorted(maps.Keys(dicts)) {
		if l != def {
			supported = append(supported, l)
		}
	}
	tags := make([]language.Tag, len(supported))
	for i, l := range supported {
		tags[i] = language.Make(string(l))
	}

	return &Translator{
		dicts:     dicts,
		def:       def,
		supported: supported,
		matcher:   language.NewMatcher(tags),
	}, nil
}

// Default returns the default language.
func (t *Translator) Default() Language {
	return t.def
}

// Languages returns the supported languages, default first.
func (t *Translator) Languages() []Language {
	return slices.Clone(t.supported)
}

// Supports reports whether lang has a dictionary.
func (t *Translator) Supports(lang Language) bool {
	_, ok := t.dicts[lang]
	return ok
}

// T returns the message for key in lang, falling back to English and
// then to the key itself.
func (t *Translator) T(lang Language, key string) string {
	if msg, ok := t.dicts[lang][key]; ok && msg != "" {
		return msg
	}
	if msg, ok := t.dicts[English][key]; ok && msg != "" {
		return msg
	}
	return key
}

// Dictionary returns every key for lang with English filling the gaps.
func (t *Translator) Dictionary(lang Language) map[string]string {
	out := maps.Clone(t.dicts[English])
	if out == nil {
		out = map[string]string{}
	}
	for k, v := range t.dicts[lang] {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Match picks the best supported language for an Accept-Language header
// value, or the default when nothing matches.
func (t *Translator) Match(accept string) Language {
	if strings.TrimSpace(accept) == "" {
		return t.def
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return t.def
	}
	_, idx, conf := t.matcher.Match(tags...)
	if conf == language.No {
		return t.def
	}
	return t.supported[idx]
}

// Parse validates an explicit language code such as a ?lang= parameter.
func (t *Translator) Parse(code string) (Language, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(code)))
	if !t.Supports(lang) {
		return t.def, fmt.Errorf("i18n: unsupported language %q", code)
	}
	return lang, nil
}
