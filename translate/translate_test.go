package translate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatReply(text string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": text}}},
	})
	return string(b)
}

func testOptions(baseURL string) Options {
	return Options{
		Provider: Provider{ID: ProviderDeepSeek, Name: "DeepSeek", BaseURL: baseURL, APIKey: "sk-test"},
		Classes: map[ContentClass]ClassConfig{
			ContentFrontMatter: {SystemPrompt: "FM PROMPT", Model: "fm-model"},
			ContentMainBody:    {SystemPrompt: "BODY PROMPT", Model: "body-model"},
		},
	}
}

// ---------------------------------------------------------------------------
// New
// ---------------------------------------------------------------------------

func TestNewValidates(t *testing.T) {
	opts := testOptions("http://example.invalid")
	if _, err := New(opts); err != nil {
		t.Fatalf("New(valid) error: %v", err)
	}

	noKey := testOptions("http://example.invalid")
	noKey.Provider.APIKey = ""
	if _, err := New(noKey); err == nil {
		t.Error("New should require an API key")
	}

	noKey.Provider.NoKey = true
	if _, err := New(noKey); err != nil {
		t.Errorf("New(NoKey provider) error: %v", err)
	}

	noModel := testOptions("http://example.invalid")
	noModel.Classes[ContentMainBody] = ClassConfig{SystemPrompt: "x"}
	if _, err := New(noModel); err == nil {
		t.Error("New should require a model per content class")
	}

	noURL := testOptions("")
	if _, err := New(noURL); err == nil {
		t.Error("New should require a base URL")
	}
}

// ---------------------------------------------------------------------------
// Request shape
// ---------------------------------------------------------------------------

func TestTranslateRoutesContentClass(t *testing.T) {
	var mu sync.Mutex
	var got []chatRequest
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req chatRequest
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		mu.Lock()
		got = append(got, req)
		auth = r.Header.Get("Authorization")
		mu.Unlock()
		io.WriteString(w, chatReply("translated"))
	}))
	defer srv.Close()

	g, err := New(testOptions(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if out, err := g.Translate(ctx, "标题", "en", ContentFrontMatter); err != nil || out != "translated" {
		t.Fatalf("Translate(front-matter) = (%q, %v)", out, err)
	}
	if _, err := g.Translate(ctx, "正文", "ja", ContentMainBody); err != nil {
		t.Fatal(err)
	}

	if len(got) != 2 {
		t.Fatalf("requests = %d, want 2", len(got))
	}
	if auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", auth)
	}

	fm := got[0]
	if fm.Model != "fm-model" || fm.Messages[0].Role != "system" || fm.Messages[0].Content != "FM PROMPT" {
		t.Errorf("front-matter request = %+v", fm)
	}
	if fm.Messages[1].Content != "Translate into English:\n\n标题\n" {
		t.Errorf("user prompt = %q", fm.Messages[1].Content)
	}

	body := got[1]
	if body.Model != "body-model" || body.Messages[0].Content != "BODY PROMPT" {
		t.Errorf("main-body request = %+v", body)
	}
	if !strings.HasPrefix(body.Messages[1].Content, "Translate into Japanese:") {
		t.Errorf("user prompt = %q", body.Messages[1].Content)
	}
	if g.Requests() != 2 {
		t.Errorf("Requests() = %d", g.Requests())
	}
}

func TestTranslateEmptyTextMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		io.WriteString(w, chatReply("x"))
	}))
	defer srv.Close()

	g, _ := New(testOptions(srv.URL))
	for _, text := range []string{"", "  \n\t"} {
		if _, err := g.Translate(context.Background(), text, "en", ContentMainBody); !errors.Is(err, ErrEmptyText) {
			t.Errorf("Translate(%q) err = %v, want ErrEmptyText", text, err)
		}
	}
	if hits.Load() != 0 {
		t.Errorf("server hit %d times", hits.Load())
	}
}

func TestTranslateUnknownClass(t *testing.T) {
	g, _ := New(testOptions("http://example.invalid"))
	_, err := g.Translate(context.Background(), "x", "en", ContentClass("footer"))
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("err = %v, want ErrGateway", err)
	}
}

// ---------------------------------------------------------------------------
// Errors and retries
// ---------------------------------------------------------------------------

func TestTranslateNoRetryByDefault(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "upstream down")
	}))
	defer srv.Close()

	g, _ := New(testOptions(srv.URL))
	_, err := g.Translate(context.Background(), "text", "en", ContentMainBody)
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("err = %v, want ErrGateway", err)
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("error should carry the status: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("requests = %d, want exactly 1", hits.Load())
	}
}

func TestTranslateRetriesServerErrors(t *testing.T) {
	old := backoffUnit
	backoffUnit = time.Millisecond
	defer func() { backoffUnit = old }()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, chatReply("ok"))
	}))
	defer srv.Close()

	opts := testOptions(srv.URL)
	opts.MaxRetries = 3
	g, _ := New(opts)
	out, err := g.Translate(context.Background(), "text", "es", ContentMainBody)
	if err != nil || out != "ok" {
		t.Fatalf("Translate = (%q, %v)", out, err)
	}
	if hits.Load() != 3 {
		t.Errorf("requests = %d, want 3", hits.Load())
	}
}

func TestTranslateRateLimitRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		io.WriteString(w, chatReply("after pause"))
	}))
	defer srv.Close()

	opts := testOptions(srv.URL)
	opts.MaxRetries = 1
	g, _ := New(opts)
	out, err := g.Translate(context.Background(), "text", "ko", ContentMainBody)
	if err != nil || out != "after pause" {
		t.Fatalf("Translate = (%q, %v)", out, err)
	}
}

func TestTranslateAPIErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"error":{"message":"model not found"}}`)
	}))
	defer srv.Close()

	g, _ := New(testOptions(srv.URL))
	_, err := g.Translate(context.Background(), "text", "en", ContentMainBody)
	if !errors.Is(err, ErrGateway) || !strings.Contains(err.Error(), "model not found") {
		t.Fatalf("err = %v", err)
	}
}

func TestTranslateCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, chatReply("x"))
	}))
	defer srv.Close()

	g, _ := New(testOptions(srv.URL))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Translate(ctx, "text", "en", ContentMainBody)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

// ---------------------------------------------------------------------------
// Concurrency gate
// ---------------------------------------------------------------------------

func TestTranslateConcurrencyGate(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		io.WriteString(w, chatReply("x"))
	}))
	defer srv.Close()

	opts := testOptions(srv.URL)
	opts.MaxConcurrent = 2
	g, _ := New(opts)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := g.Translate(context.Background(), "text", "en", ContentMainBody); err != nil {
				t.Errorf("Translate error: %v", err)
			}
		}()
	}
	wg.Wait()

	if peak.Load() > 2 {
		t.Errorf("peak in-flight = %d, want <= 2", peak.Load())
	}
}

// ---------------------------------------------------------------------------
// Provider formats
// ---------------------------------------------------------------------------

func TestGeminiRequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-x:generateContent" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "g-key" {
			t.Errorf("missing api key header")
		}
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"hola"}]}}]}`)
	}))
	defer srv.Close()

	opts := testOptions(srv.URL)
	opts.Provider = Provider{ID: ProviderGoogle, Name: "Google", BaseURL: srv.URL, APIKey: "g-key"}
	opts.Classes[ContentMainBody] = ClassConfig{SystemPrompt: "p", Model: "gemini-x"}
	g, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	out, err := g.Translate(context.Background(), "hello", "es", ContentMainBody)
	if err != nil || out != "hola" {
		t.Fatalf("Translate = (%q, %v)", out, err)
	}
}

func TestAnthropicRequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "a-key" || r.Header.Get("anthropic-version") == "" {
			t.Errorf("missing anthropic headers")
		}
		var req struct {
			System string `json:"system"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.System != "FM PROMPT" {
			t.Errorf("system = %q", req.System)
		}
		io.WriteString(w, `{"content":[{"type":"text","text":"こんにちは"}]}`)
	}))
	defer srv.Close()

	opts := testOptions(srv.URL)
	opts.Provider = Provider{ID: ProviderAnthropic, Name: "Anthropic", BaseURL: srv.URL, APIKey: "a-key"}
	g, _ := New(opts)
	out, err := g.Translate(context.Background(), "hello", "ja", ContentFrontMatter)
	if err != nil || out != "こんにちは" {
		t.Fatalf("Translate = (%q, %v)", out, err)
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func TestParseRetryDelay(t *testing.T) {
	h := http.Header{}
	if d := parseRetryDelay(h, []byte("not json")); d != 65*time.Second {
		t.Errorf("default = %v", d)
	}
	body := []byte(`{"error":{"details":[{"@type":"type.googleapis.com/google.rpc.RetryInfo","retryDelay":"30s"}]}}`)
	if d := parseRetryDelay(h, body); d != 35*time.Second {
		t.Errorf("RetryInfo = %v, want 35s", d)
	}
	h.Set("Retry-After", "7")
	if d := parseRetryDelay(h, body); d != 7*time.Second {
		t.Errorf("Retry-After = %v, want 7s", d)
	}
}

func TestUserPrompt(t *testing.T) {
	if got := UserPrompt("ar", "نص"); got != "Translate into Arabic:\n\nنص\n" {
		t.Errorf("UserPrompt = %q", got)
	}
}

func TestDefaultProvidersHaveBaseURLs(t *testing.T) {
	provs := DefaultProviders()
	for _, id := range ProviderIDs() {
		p, ok := provs[id]
		if !ok {
			t.Errorf("provider %s missing", id)
			continue
		}
		if p.BaseURL == "" && id != ProviderCustomOpenAI {
			t.Errorf("provider %s has no base URL", id)
		}
	}
}
