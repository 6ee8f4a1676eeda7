package i18n

import (
	"slices"
	"testing"
)

func clearLocaleEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LANGUAGE", "")
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "")
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"LANGUAGE wins", map[string]string{"LANGUAGE": "zh_CN.UTF-8:en_US", "LC_ALL": "ja_JP.UTF-8"}, "zh_CN"},
		{"C and POSIX skipped", map[string]string{"LANGUAGE": "C", "LC_ALL": "POSIX", "LC_MESSAGES": "ko_KR.UTF-8"}, "ko_KR"},
		{"LANG last", map[string]string{"LANG": "es_ES.UTF-8"}, "es_ES"},
		{"fallback", nil, "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearLocaleEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if got := detectLanguage(); got != tt.want {
				t.Fatalf("detectLanguage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFallbackWhenUninitialized(t *testing.T) {
	old := po
	po = nil
	t.Cleanup(func() { po = old })

	if got := T("Hello"); got != "Hello" {
		t.Fatalf("T fallback = %q", got)
	}
	if got := N("file", "files", 1); got != "file" {
		t.Fatalf("N singular fallback = %q", got)
	}
	if got := N("file", "files", 2); got != "files" {
		t.Fatalf("N plural fallback = %q", got)
	}
}

func TestEmbeddedCatalog(t *testing.T) {
	old, oldLang := po, active
	t.Cleanup(func() { po, active = old, oldLang })

	if !slices.Contains(Available(), "zh") {
		t.Fatalf("Available() = %v, want zh", Available())
	}

	Init("zh")
	if Lang() != "zh" {
		t.Fatalf("Lang() = %q", Lang())
	}
	if got := T("Translation complete"); got != "翻译完成" {
		t.Fatalf("T(zh) = %q, want 翻译完成", got)
	}
	if got := T("no such message"); got != "no such message" {
		t.Fatalf("T(unknown) = %q", got)
	}

	Init("en")
	if got := T("Translation complete"); got != "Translation complete" {
		t.Fatalf("T(en) = %q", got)
	}
}
