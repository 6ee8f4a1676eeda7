// Package i18n translates mdtranslate's own user-facing strings.
//
// It wraps the gotext library with T() and N() helpers. Catalogs are
// embedded in the binary and selected once at startup by Init(). Only the
// CLI's messages go through here; document translation is done by the
// translate package.
//
// Usage:
//
//	import "github.com/minios-linux/mdtranslate/i18n"
//
//	func main() {
//	    i18n.Init("")  // auto-detect from LANGUAGE/LC_ALL/LC_MESSAGES/LANG
//	    fmt.Println(i18n.T("Translation complete"))
//	    fmt.Printf(i18n.N("%d file skipped", "%d files skipped", n), n)
//	}
package i18n

import (
	"embed"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// locales embeds the translation catalogs.
// Directory structure: locales/{lang}/LC_MESSAGES/mdtranslate.po
//
//go:embed all:locales
var locales embed.FS

// domain is the gettext domain name, matching the .po file names.
const domain = "mdtranslate"

var (
	// po is the gotext locale used by T and N. Nil before Init.
	po *gotext.Locale
	// active is the language selected by the last Init.
	active = "en"
)

// Init selects the UI language. An empty lang is detected from LANGUAGE,
// LC_ALL, LC_MESSAGES and LANG, in that order (GNU gettext priority).
// Languages without a catalog fall back to the untranslated msgids.
//
// Init should be called once at program startup, before any T() or N() calls.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}
	active = lang

	po = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// Lang returns the language passed to the last Init.
func Lang() string {
	return active
}

// Available lists the languages with an embedded catalog.
func Available() []string {
	entries, err := fs.ReadDir(locales, "locales")
	if err != nil {
		return nil
	}
	var langs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := fs.Stat(locales, "locales/"+e.Name()+"/LC_MESSAGES/"+domain+".po"); err == nil {
			langs = append(langs, e.Name())
		}
	}
	sort.Strings(langs)
	return langs
}

// T translates msgid. If no translation is available, msgid is returned
// unchanged (gettext passthrough).
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N translates a string with plural forms. Without a catalog the singular
// is used when n == 1 and the plural otherwise; with one, the catalog's
// Plural-Forms formula decides.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// detectLanguage returns the preferred UI language from the environment,
// following GNU gettext: LANGUAGE > LC_ALL > LC_MESSAGES > LANG. "C" and
// "POSIX" mean no translation and are skipped. Defaults to "en".
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if val == "" {
			continue
		}
		// LANGUAGE is a colon-separated list; the first entry wins.
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		// "zh_CN.UTF-8" -> "zh_CN"
		val, _, _ = strings.Cut(val, ".")
		if val == "C" || val == "POSIX" || val == "" {
			continue
		}
		return val
	}
	return "en"
}
