package notion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
)

const rootID = "0123456789abcdef0123456789abcdef"

func TestFormatPageID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{rootID, "01234567-89ab-cdef-0123-456789abcdef", false},
		{"01234567-89ab-cdef-0123-456789abcdef", "01234567-89ab-cdef-0123-456789abcdef", false},
		{" 0123456789ABCDEF0123456789ABCDEF ", "01234567-89ab-cdef-0123-456789abcdef", false},
		{"0123-4567", "", true},
		{"0123456789abcdef0123456789abcdeg", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := FormatPageID(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidPageID) {
				t.Errorf("FormatPageID(%q) error = %v, want ErrInvalidPageID", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("FormatPageID(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestSplitContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		max     int
		want    []string
	}{
		{"short", "hello", 10, []string{"hello"}},
		{"exact", "abcde", 5, []string{"abcde"}},
		{"cut at newline", "ab\ncd\nefgh", 6, []string{"ab\ncd\n", "efgh"}},
		{"hard cut", "abcdefgh", 3, []string{"abc", "def", "gh"}},
		{"runes", "你好世界再见", 4, []string{"你好世界", "再见"}},
		{"empty", "", 5, []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitContent(tt.content, tt.max)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("SplitContent(%q, %d) = %q, want %q", tt.content, tt.max, got, tt.want)
			}
			if strings.Join(got, "") != tt.content {
				t.Fatal("chunks do not concatenate to the input")
			}
		})
	}
}

// fakeNotion records created pages and appended blocks.
type fakeNotion struct {
	mu       sync.Mutex
	pages    []createPageRequest
	appends  map[string]int
	next     int
	failWith int
	limited  int
}

func (f *fakeNotion) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Notion-Version"); got != APIVersion {
			t.Errorf("Notion-Version = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		f.mu.Lock()
		defer f.mu.Unlock()

		if f.limited > 0 {
			f.limited--
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		if f.failWith != 0 {
			w.WriteHeader(f.failWith)
			io.WriteString(w, `{"object":"error","status":400,"code":"validation_error","message":"bad parent"}`)
			return
		}

		switch {
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/pages/"):
			io.WriteString(w, `{"object":"page"}`)
		case r.Method == http.MethodPost && r.URL.Path == "/v1/pages":
			var req createPageRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode: %v", err)
			}
			f.pages = append(f.pages, req)
			f.next++
			fmt.Fprintf(w, `{"object":"page","id":"%032x"}`, f.next)
		case r.Method == http.MethodPatch && strings.HasSuffix(r.URL.Path, "/children"):
			var req appendRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode: %v", err)
			}
			if f.appends == nil {
				f.appends = make(map[string]int)
			}
			f.appends[r.URL.Path] += len(req.Children)
			io.WriteString(w, `{}`)
		default:
			http.NotFound(w, r)
		}
	})
}

func newTestClient(t *testing.T, f *fakeNotion) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	c, err := NewClient(Options{Token: "secret", BaseURL: srv.URL, MaxRetries: 2})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient(Options{}); !errors.Is(err, ErrNoToken) {
		t.Fatalf("NewClient() error = %v, want ErrNoToken", err)
	}
}

func TestCreatePage(t *testing.T) {
	f := &fakeNotion{}
	c := newTestClient(t, f)

	id, err := c.CreatePage(context.Background(), rootID, "Hello", "line 1\nline 2\n")
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	if id != fmt.Sprintf("%032x", 1) {
		t.Fatalf("id = %q", id)
	}
	if len(f.pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(f.pages))
	}
	p := f.pages[0]
	if p.Parent.PageID != "01234567-89ab-cdef-0123-456789abcdef" {
		t.Fatalf("parent = %q", p.Parent.PageID)
	}
	if p.Properties.Title[0].Text.Content != "Hello" {
		t.Fatalf("title = %+v", p.Properties.Title)
	}
	if len(p.Children) != 1 || p.Children[0].Paragraph.RichText[0].Text.Content != "line 1\nline 2\n" {
		t.Fatalf("children = %+v", p.Children)
	}
}

func TestCreatePageAppendsOverflowBlocks(t *testing.T) {
	f := &fakeNotion{}
	c := newTestClient(t, f)

	// 150 chunks of MaxBlockLength characters each.
	content := strings.Repeat(strings.Repeat("x", MaxBlockLength-1)+"\n", 150)
	id, err := c.CreatePage(context.Background(), rootID, "Big", content)
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	if got := len(f.pages[0].Children); got != maxChildren {
		t.Fatalf("initial children = %d, want %d", got, maxChildren)
	}
	if got := f.appends["/v1/blocks/"+id+"/children"]; got != 50 {
		t.Fatalf("appended = %d, want 50", got)
	}
}

func TestCreatePageErrors(t *testing.T) {
	f := &fakeNotion{failWith: http.StatusBadRequest}
	c := newTestClient(t, f)

	_, err := c.CreatePage(context.Background(), rootID, "x", "y")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Code != "validation_error" {
		t.Fatalf("APIError = %+v", apiErr)
	}

	if _, err := c.CreatePage(context.Background(), "bad", "x", "y"); !errors.Is(err, ErrInvalidPageID) {
		t.Fatalf("bad parent error = %v", err)
	}
}

func TestRetriesRateLimit(t *testing.T) {
	f := &fakeNotion{limited: 2}
	c := newTestClient(t, f)

	if err := c.CheckPage(context.Background(), rootID); err != nil {
		t.Fatalf("CheckPage: %v", err)
	}

	f.limited = 3
	err := c.CheckPage(context.Background(), rootID)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusTooManyRequests {
		t.Fatalf("error = %v, want 429 after retries", err)
	}
}

func TestImportDirectory(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, content string) {
		t.Helper()
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("a.md", "A")
	write("guides/b.md", "B")
	write("guides/img.png", "png")
	write(".git/config", "x")

	f := &fakeNotion{}
	c := newTestClient(t, f)

	var logged []string
	im := &Importer{Pages: c, OnLog: func(format string, args ...any) {
		logged = append(logged, fmt.Sprintf(format, args...))
	}}
	res, err := im.ImportDirectory(context.Background(), dir, rootID)
	if err != nil {
		t.Fatalf("ImportDirectory: %v", err)
	}
	if res != (Result{Folders: 1, Documents: 2}) {
		t.Fatalf("Result = %+v", res)
	}
	if len(logged) != 3 {
		t.Fatalf("logged = %v", logged)
	}

	var titles []string
	for _, p := range f.pages {
		titles = append(titles, p.Properties.Title[0].Text.Content)
	}
	if !reflect.DeepEqual(titles, []string{"a", "guides", "b"}) {
		t.Fatalf("titles = %v", titles)
	}
	// b.md is created under the "guides" page.
	if f.pages[2].Parent.PageID != "00000000-0000-0000-0000-000000000002" {
		t.Fatalf("b.md parent = %q", f.pages[2].Parent.PageID)
	}
	if len(f.pages[1].Children) != 0 {
		t.Fatalf("folder page has children: %+v", f.pages[1].Children)
	}
}

func TestImportDirectoryStopsOnError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.md"), []byte("A"), 0644); err != nil {
		t.Fatal(err)
	}
	im := &Importer{Pages: newTestClient(t, &fakeNotion{failWith: http.StatusUnauthorized})}
	if _, err := im.ImportDirectory(context.Background(), dir, rootID); err == nil {
		t.Fatal("ImportDirectory should fail")
	}
	if _, err := im.ImportDirectory(context.Background(), filepath.Join(dir, "missing"), rootID); err == nil {
		t.Fatal("ImportDirectory should fail for a missing directory")
	}
}
