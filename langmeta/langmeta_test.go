package langmeta

import (
	"errors"
	"strings"
	"testing"
)

func TestLookupVariants(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"en", "English", true},
		{"zh_CN", "Chinese", true},
		{"ja-JP", "Japanese", true},
		{" ko ", "Korean", true},
		{"xx", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		m, ok := Lookup(tc.in)
		if ok != tc.ok || m.Name != tc.want {
			t.Errorf("Lookup(%q) = (%q, %v), want (%q, %v)", tc.in, m.Name, ok, tc.want, tc.ok)
		}
	}
}

func TestNameFallsBackToCode(t *testing.T) {
	if got := Name("es"); got != "Spanish" {
		t.Fatalf("Name(es) = %q", got)
	}
	if got := Name("tlh"); got != "tlh" {
		t.Fatalf("Name(tlh) = %q, want tlh", got)
	}
}

func TestCodesSorted(t *testing.T) {
	got := strings.Join(Codes(), ",")
	if got != "ar,en,es,ja,ko,zh" {
		t.Fatalf("Codes() = %s", got)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate([]string{"en", "ja"}, nil); err != nil {
		t.Fatalf("Validate(valid) error: %v", err)
	}

	err := Validate([]string{"en", "fr", "de"}, nil)
	if !errors.Is(err, ErrInvalidLanguage) {
		t.Fatalf("Validate(fr,de) = %v, want ErrInvalidLanguage", err)
	}
	if !strings.Contains(err.Error(), "fr, de") {
		t.Errorf("error should list offending codes: %v", err)
	}

	if err := Validate([]string{"en"}, []string{"zh"}); !errors.Is(err, ErrInvalidLanguage) {
		t.Fatalf("Validate(en, allowed=zh) = %v, want ErrInvalidLanguage", err)
	}
	if err := Validate([]string{"zh"}, []string{"zh"}); err != nil {
		t.Fatalf("Validate(zh, allowed=zh) error: %v", err)
	}
}
