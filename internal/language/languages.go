package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
)

// Code is a supported ISO 639-1 language code.
type Code string

const (
	English    Code = "en"
	Spanish    Code = "es"
	French     Code = "fr"
	German     Code = "de"
	Italian    Code = "it"
	Portuguese Code = "pt"
	Russian    Code = "ru"
	Japanese   Code = "ja"
	Korean     Code = "ko"
	Chinese    Code = "zh"
	Arabic     Code = "ar"
	Hindi      Code = "hi"
	Dutch      Code = "nl"
	Swedish    Code = "sv"
	Norwegian  Code = "no"
	Danish     Code = "da"
	Finnish    Code = "fi"
	Polish     Code = "pl"
	Turkish    Code = "tr"
	Thai       Code = "th"

	// Auto asks the translation service to identify the source itself.
	Auto Code = "auto"
)

// Language pairs a supported code with its English display name.
type Language struct {
	Code Code   `json:"code"`
	Name string `json:"name"`
}

// Supported lists every language the engine can target, in display order.
var Supported = []Language{
	{English, "English"},
	{Spanish, "Spanish"},
	{French, "French"},
	{German, "German"},
	{Italian, "Italian"},
	{Portuguese, "Portuguese"},
	{Russian, "Russian"},
	{Japanese, "Japanese"},
	{Korean, "Korean"},
	{Chinese, "Chinese"},
	{Arabic, "Arabic"},
	{Hindi, "Hindi"},
	{Dutch, "Dutch"},
	{Swedish, "Swedish"},
	{Norwegian, "Norwegian"},
	{Danish, "Danish"},
	{Finnish, "Finnish"},
	{Polish, "Polish"},
	{Turkish, "Turkish"},
	{Thai, "Thai"},
}

var names = func() map[Code]string {
	m := make(map[Code]string, len(Supported))
	for _, l := range Supported {
		m[l.Code] = l.Name
	}
	return m
}()

// IsSupported reports whether c is in the closed set of target languages.
func (c Code) IsSupported() bool {
	_, ok := names[c]
	return ok
}

// Name returns the English display name, or the raw code when unsupported.
func (c Code) Name() string {
	if n, ok := names[c]; ok {
		return n
	}
	return string(c)
}

// Normalize reduces a BCP 47 tag ("es-MX", "pt_BR", "zh-Hant", "nb") to a
// supported code. ok is false when the tag is malformed or its base language
// is outside the supported set.
func Normalize(tag string) (Code, bool) {
	tag = strings.TrimSpace(strings.ReplaceAll(tag, "_", "-"))
	if tag == "" {
		return "", false
	}
	if c := Code(strings.ToLower(tag)); c.IsSupported() {
		return c, true
	}
	t, err := xlanguage.Parse(tag)
	if err != nil {
		return "", false
	}
	base, _ := t.Base()
	c := Code(base.String())
	switch c {
	case "nb", "nn":
		c = Norwegian
	}
	if !c.IsSupported() {
		return "", false
	}
	return c, true
}

// NormalizeOrDefault is Normalize with a fallback for unknown tags.
func NormalizeOrDefault(tag string, def Code) Code {
	if c, ok := Normalize(tag); ok {
		return c
	}
	return def
}
