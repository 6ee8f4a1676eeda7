package mdfile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/minios-linux/mdtranslate/placeholder"
	"github.com/minios-linux/mdtranslate/translate"
)

type fakeGateway struct {
	calls []string
	err   error
}

func (g *fakeGateway) Translate(_ context.Context, text, lang string, class translate.ContentClass) (string, error) {
	g.calls = append(g.calls, string(class)+"|"+lang+"|"+text)
	if g.err != nil {
		return "", g.err
	}
	return "<" + lang + ">" + text, nil
}

func tagRules() *placeholder.Registry {
	return placeholder.New([]placeholder.Rule{
		{Source: "标签 1", Replacements: map[string]string{"en": "Tags 1", "ja": "タグ 1"}},
		{Source: "类别 1", Replacements: map[string]string{"en": "Categories 1", "ja": "カテゴリー 1"}},
	})
}

// ---------------------------------------------------------------------------
// Extract
// ---------------------------------------------------------------------------

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantRaw  string
		wantBody string
		wantOK   bool
	}{
		{"basic", "---\ntitle: A\n---\n\nBody", "title: A", "\nBody", true},
		{"crlf", "---\r\ntitle: A\r\n---\r\nBody", "title: A", "Body", true},
		{"empty block", "---\n---\nBody", "", "Body", true},
		{"at eof", "---\ntitle: A\n---", "title: A", "", true},
		{"multiline", "---\na: 1\nb: 2\n---\nx", "a: 1\nb: 2", "x", true},
		{"not at start", "\n---\ntitle: A\n---\nBody", "", "\n---\ntitle: A\n---\nBody", false},
		{"no closing", "---\ntitle: A\nBody", "", "---\ntitle: A\nBody", false},
		{"plain", "# Heading\n\nText", "", "# Heading\n\nText", false},
		{"second block untouched", "---\na: 1\n---\nx\n---\nb: 2\n---\n", "a: 1", "x\n---\nb: 2\n---\n", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw, body, ok := Extract(tc.doc)
			if ok != tc.wantOK || raw != tc.wantRaw || body != tc.wantBody {
				t.Errorf("Extract() = (%q, %q, %v), want (%q, %q, %v)", raw, body, ok, tc.wantRaw, tc.wantBody, tc.wantOK)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Parse
// ---------------------------------------------------------------------------

func TestParseMapping(t *testing.T) {
	fm, err := Parse("title: 测试\ntags: [\"标签 1\", \"x\"]\ndate: 2023-01-01")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got := strings.Join(fm.Keys(), ","); got != "title,tags,date" {
		t.Errorf("Keys() = %s", got)
	}
	if v, _ := fm.Value("title"); v != "测试" {
		t.Errorf("title = %q", v)
	}
	if l, ok := fm.List("tags"); !ok || len(l) != 2 || l[0] != "标签 1" {
		t.Errorf("tags = %v, %v", l, ok)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, raw := range []string{"", "~"} {
		fm, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", raw, err)
		}
		if fm.Len() != 0 {
			t.Errorf("Parse(%q).Len() = %d", raw, fm.Len())
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, raw := range []string{"- a\n- b", "just a string", "title: [unclosed"} {
		if _, err := Parse(raw); !errors.Is(err, ErrStructuredData) {
			t.Errorf("Parse(%q) = %v, want ErrStructuredData", raw, err)
		}
	}
}

// ---------------------------------------------------------------------------
// Serialize
// ---------------------------------------------------------------------------

func TestSerializeKeepsOrderAndBlockStyle(t *testing.T) {
	fm, err := Parse("zeta: 1\nalpha: 测试\ntags: [a, b]")
	if err != nil {
		t.Fatal(err)
	}
	out, err := Serialize(fm)
	if err != nil {
		t.Fatal(err)
	}
	want := "zeta: 1\nalpha: 测试\ntags:\n  - a\n  - b\n"
	if out != want {
		t.Errorf("Serialize() =\n%s\nwant\n%s", out, want)
	}
}

func TestSerializeEmpty(t *testing.T) {
	fm, _ := Parse("")
	out, err := Serialize(fm)
	if err != nil || out != "" {
		t.Errorf("Serialize(empty) = (%q, %v)", out, err)
	}
}

// ---------------------------------------------------------------------------
// Translate
// ---------------------------------------------------------------------------

func TestTranslateAppliesPolicies(t *testing.T) {
	fm, err := Parse("title: 测试\ndescription: 描述\ncategories: [\"类别 1\"]\ntags: [\"标签 1\", \"其他\"]\nauthor: 某人\ndate: 2023-01-01")
	if err != nil {
		t.Fatal(err)
	}
	gw := &fakeGateway{}
	tr := &Translator{Gateway: gw, Rules: tagRules()}

	out, err := tr.Translate(context.Background(), fm, "en")
	if err != nil {
		t.Fatalf("Translate error: %v", err)
	}

	if len(gw.calls) != 2 {
		t.Fatalf("gateway calls = %v, want 2 (title, description)", gw.calls)
	}
	if gw.calls[0] != "front-matter|en|测试" {
		t.Errorf("first call = %q", gw.calls[0])
	}
	if v, _ := out.Value("title"); v != "<en>测试" {
		t.Errorf("title = %q", v)
	}
	if l, _ := out.List("tags"); strings.Join(l, ",") != "Tags 1,其他" {
		t.Errorf("tags = %v", l)
	}
	if l, _ := out.List("categories"); strings.Join(l, ",") != "Categories 1" {
		t.Errorf("categories = %v", l)
	}
	if v, _ := out.Value("author"); v != "某人" {
		t.Errorf("pass-through author = %q", v)
	}
	if v, _ := out.Value("date"); v != "2023-01-01" {
		t.Errorf("pass-through date = %q", v)
	}

	// Input is not modified.
	if v, _ := fm.Value("title"); v != "测试" {
		t.Errorf("source title modified: %q", v)
	}
}

func TestTranslateSkipsEmptyValues(t *testing.T) {
	fm, _ := Parse("title: \"\"\ndescription:\n")
	gw := &fakeGateway{}
	tr := &Translator{Gateway: gw}
	if _, err := tr.Translate(context.Background(), fm, "ja"); err != nil {
		t.Fatal(err)
	}
	if len(gw.calls) != 0 {
		t.Errorf("gateway called for empty values: %v", gw.calls)
	}
}

func TestTranslateReplaceFixedOnScalar(t *testing.T) {
	fm, _ := Parse("tags: 标签 1")
	tr := &Translator{Gateway: &fakeGateway{}, Rules: tagRules()}
	out, err := tr.Translate(context.Background(), fm, "ja")
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := out.Value("tags"); v != "タグ 1" {
		t.Errorf("tags = %q", v)
	}
}

func TestTranslateGatewayError(t *testing.T) {
	fm, _ := Parse("title: 测试")
	tr := &Translator{Gateway: &fakeGateway{err: translate.ErrGateway}}
	_, err := tr.Translate(context.Background(), fm, "en")
	if !errors.Is(err, translate.ErrGateway) {
		t.Fatalf("err = %v, want ErrGateway", err)
	}
	if !strings.Contains(err.Error(), `"title"`) {
		t.Errorf("error should name the field: %v", err)
	}
}

func TestTranslateCustomPolicies(t *testing.T) {
	fm, _ := Parse("title: 测试\nsummary: 摘要")
	gw := &fakeGateway{}
	tr := &Translator{Gateway: gw, Policies: map[string]FieldPolicy{"summary": PolicyTranslate}}
	out, err := tr.Translate(context.Background(), fm, "ko")
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := out.Value("title"); v != "测试" {
		t.Errorf("title should pass through with custom policies, got %q", v)
	}
	if v, _ := out.Value("summary"); v != "<ko>摘要" {
		t.Errorf("summary = %q", v)
	}
}

func TestTranslatedValueIsQuotedWhenAmbiguous(t *testing.T) {
	fm, _ := Parse("title: x")
	tr := &Translator{Gateway: constGateway("true")}
	out, err := tr.Translate(context.Background(), fm, "en")
	if err != nil {
		t.Fatal(err)
	}
	s, err := Serialize(out)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := back.Value("title"); v != "true" {
		t.Errorf("title round trip = %q, serialized %q", v, s)
	}
	if !strings.Contains(s, `"true"`) {
		t.Errorf("bool-like string should be quoted: %q", s)
	}
}

type constGateway string

func (c constGateway) Translate(context.Context, string, string, translate.ContentClass) (string, error) {
	return string(c), nil
}

func TestParsePolicy(t *testing.T) {
	tests := map[string]FieldPolicy{
		"translate": PolicyTranslate,
		"Replace":   PolicyReplaceFixed,
		"pass":      PolicyPassThrough,
		"":          PolicyPassThrough,
	}
	for in, want := range tests {
		got, err := ParsePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParsePolicy(%q) = (%v, %v), want %v", in, got, err, want)
		}
	}
	if _, err := ParsePolicy("shout"); err == nil {
		t.Error("ParsePolicy(shout) should fail")
	}
}
