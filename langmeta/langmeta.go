// Package langmeta provides the language registry shared by the CLI,
// the translation gateway and the output layout: the fixed set of supported
// language codes, their English names (used in prompts) and native names
// (used in CLI output).
package langmeta

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidLanguage is returned for language codes outside the registry.
var ErrInvalidLanguage = errors.New("unsupported language code")

// Meta describes language display metadata.
type Meta struct {
	// Name is the English name sent to the translation model.
	Name string
	// Native is the language's own name.
	Native string
	// Flag is an emoji flag for CLI tables.
	Flag string
}

// Registry contains every supported language.
var Registry = map[string]Meta{
	"en": {Name: "English", Native: "English", Flag: "🇺🇸"},
	"es": {Name: "Spanish", Native: "Español", Flag: "🇪🇸"},
	"ar": {Name: "Arabic", Native: "العربية", Flag: "🇸🇦"},
	"ja": {Name: "Japanese", Native: "日本語", Flag: "🇯🇵"},
	"ko": {Name: "Korean", Native: "한국어", Flag: "🇰🇷"},
	"zh": {Name: "Chinese", Native: "中文", Flag: "🇨🇳"},
}

func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	return strings.ToLower(parts[0])
}

// Lookup returns metadata for a language code. Regional variants such as
// "zh_CN" or "en-US" resolve to their base language.
func Lookup(lang string) (Meta, bool) {
	if m, ok := Registry[lang]; ok {
		return m, true
	}
	m, ok := Registry[canonicalize(lang)]
	return m, ok
}

// Name returns the English language name, or the code itself if unknown.
func Name(lang string) string {
	if m, ok := Lookup(lang); ok {
		return m.Name
	}
	return lang
}

// Supported reports whether lang is an exact registry code.
func Supported(lang string) bool {
	_, ok := Registry[lang]
	return ok
}

// Codes returns all supported codes, sorted.
func Codes() []string {
	codes := make([]string, 0, len(Registry))
	for c := range Registry {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Validate checks every code against the allowed set (or the whole registry
// when allowed is empty). The error lists all offending codes.
func Validate(codes []string, allowed []string) error {
	allow := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		allow[a] = true
	}

	var invalid []string
	for _, c := range codes {
		ok := Supported(c)
		if len(allow) > 0 {
			ok = allow[c]
		}
		if !ok {
			invalid = append(invalid, c)
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("%w: %s (supported: %s)", ErrInvalidLanguage,
			strings.Join(invalid, ", "), strings.Join(supportedList(allowed), ", "))
	}
	return nil
}

func supportedList(allowed []string) []string {
	if len(allowed) == 0 {
		return Codes()
	}
	out := append([]string(nil), allowed...)
	sort.Strings(out)
	return out
}
