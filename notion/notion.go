// Package notion mirrors a translated output tree into a Notion workspace.
//
// Directories become sub-pages and every Markdown file becomes a page whose
// body is a sequence of paragraph blocks holding the raw file content.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public Notion API endpoint.
	DefaultBaseURL = "https://api.notion.com"
	// APIVersion is sent in the Notion-Version header.
	APIVersion = "2022-06-28"

	// MaxBlockLength is the Notion limit for one rich text item.
	MaxBlockLength = 2000
	// maxChildren is the Notion limit for blocks in one request.
	maxChildren = 100
)

var (
	// ErrInvalidPageID is returned for page IDs that are not 32 hex digits.
	ErrInvalidPageID = errors.New("invalid Notion page ID")
	// ErrNoToken is returned when no integration token is configured.
	ErrNoToken = errors.New("no Notion token")
)

// ---------------------------------------------------------------------------
// Page IDs
// ---------------------------------------------------------------------------

// FormatPageID normalizes a page ID, with or without hyphens, to the
// 8-4-4-4-12 form.
func FormatPageID(id string) (string, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(id), "-", "")
	if len(clean) != 32 {
		return "", fmt.Errorf("%w: %q", ErrInvalidPageID, id)
	}
	for _, r := range clean {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return "", fmt.Errorf("%w: %q", ErrInvalidPageID, id)
		}
	}
	clean = strings.ToLower(clean)
	return clean[:8] + "-" + clean[8:12] + "-" + clean[12:16] + "-" + clean[16:20] + "-" + clean[20:], nil
}

// SplitContent cuts content into chunks of at most maxLen characters,
// ending each chunk after the last newline inside the window when there is
// one. Concatenating the chunks yields content.
func SplitContent(content string, maxLen int) []string {
	runes := []rune(content)
	if maxLen <= 0 || len(runes) <= maxLen {
		return []string{content}
	}

	var chunks []string
	for pos := 0; pos < len(runes); {
		end := min(pos+maxLen, len(runes))
		if end < len(runes) {
			for i := end - 1; i >= pos; i-- {
				if runes[i] == '\n' {
					end = i + 1
					break
				}
			}
		}
		chunks = append(chunks, string(runes[pos:end]))
		pos = end
	}
	return chunks
}

// ---------------------------------------------------------------------------
// API types
// ---------------------------------------------------------------------------

type richText struct {
	Type string `json:"type"`
	Text struct {
		Content string `json:"content"`
	} `json:"text"`
}

func plainText(s string) []richText {
	rt := richText{Type: "text"}
	rt.Text.Content = s
	return []richText{rt}
}

type block struct {
	Object    string `json:"object"`
	Type      string `json:"type"`
	Paragraph struct {
		RichText []richText `json:"rich_text"`
	} `json:"paragraph"`
}

func paragraphs(content string) []block {
	if content == "" {
		return nil
	}
	chunks := SplitContent(content, MaxBlockLength)
	blocks := make([]block, len(chunks))
	for i, c := range chunks {
		blocks[i].Object = "block"
		blocks[i].Type = "paragraph"
		blocks[i].Paragraph.RichText = plainText(c)
	}
	return blocks
}

type createPageRequest struct {
	Parent struct {
		PageID string `json:"page_id"`
	} `json:"parent"`
	Properties struct {
		Title []richText `json:"title"`
	} `json:"properties"`
	Children []block `json:"children,omitempty"`
}

type appendRequest struct {
	Children []block `json:"children"`
}

type pageResponse struct {
	ID string `json:"id"`
}

// APIError is an error response from the Notion API.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion API error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("notion API error (HTTP %d, %s): %s", e.Status, e.Code, e.Message)
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// Options configures a Client.
type Options struct {
	// Token is the integration token.
	Token string
	// BaseURL overrides DefaultBaseURL.
	BaseURL string
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
	// MaxRetries is the number of retries on HTTP 429.
	MaxRetries int
}

// Client talks to the Notion pages and blocks endpoints.
type Client struct {
	token      string
	baseURL    string
	http       *http.Client
	maxRetries int
}

// NewClient creates a client.
func NewClient(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, ErrNoToken
	}
	c := &Client{
		token:      opts.Token,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		http:       opts.HTTPClient,
		maxRetries: opts.MaxRetries,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 60 * time.Second}
	}
	return c, nil
}

// CheckPage verifies that the integration can read the page.
func (c *Client) CheckPage(ctx context.Context, pageID string) error {
	id, err := FormatPageID(pageID)
	if err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodGet, "/v1/pages/"+id, nil, nil); err != nil {
		return fmt.Errorf("cannot access page %s: %w", id, err)
	}
	return nil
}

// CreatePage creates a page titled title under parentID holding content as
// paragraph blocks, and returns the new page ID.
func (c *Client) CreatePage(ctx context.Context, parentID, title, content string) (string, error) {
	parent, err := FormatPageID(parentID)
	if err != nil {
		return "", err
	}
	blocks := paragraphs(content)
	first := blocks[:min(len(blocks), maxChildren)]

	var req createPageRequest
	req.Parent.PageID = parent
	req.Properties.Title = plainText(title)
	req.Children = first

	var resp pageResponse
	if err := c.do(ctx, http.MethodPost, "/v1/pages", req, &resp); err != nil {
		return "", fmt.Errorf("creating page %q: %w", title, err)
	}

	for rest := blocks[len(first):]; len(rest) > 0; {
		n := min(len(rest), maxChildren)
		if err := c.do(ctx, http.MethodPatch, "/v1/blocks/"+resp.ID+"/children", appendRequest{Children: rest[:n]}, nil); err != nil {
			return resp.ID, fmt.Errorf("appending to page %q: %w", title, err)
		}
		rest = rest[n:]
	}
	return resp.ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Notion-Version", APIVersion)
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.maxRetries {
			if err := wait(ctx, retryAfter(resp.Header)); err != nil {
				return err
			}
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := &APIError{Status: resp.StatusCode}
			if json.Unmarshal(data, apiErr) != nil || apiErr.Message == "" {
				apiErr.Message = strings.TrimSpace(string(data))
			}
			apiErr.Status = resp.StatusCode
			return apiErr
		}
		if out != nil {
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
		}
		return nil
	}
}

func retryAfter(h http.Header) time.Duration {
	if secs, err := strconv.Atoi(h.Get("Retry-After")); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return time.Second
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
