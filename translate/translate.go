// Package translate is the translation gateway: it sends one piece of text
// to an LLM completion API and returns the translation.
//
// Every request carries a content class. Each class has its own system
// prompt and model, so short front matter values and long Markdown body
// segments can be handled differently. Supported providers: DeepSeek,
// OpenAI, Google AI (Gemini), Anthropic, Groq, Ollama and any custom
// OpenAI-compatible endpoint.
package translate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/minios-linux/mdtranslate/langmeta"
)

// ---------------------------------------------------------------------------
// Content classes
// ---------------------------------------------------------------------------

// ContentClass selects the system prompt and model used for a request.
type ContentClass string

const (
	// ContentFrontMatter is a single front matter field value.
	ContentFrontMatter ContentClass = "front-matter"
	// ContentMainBody is a segment of the Markdown body.
	ContentMainBody ContentClass = "main-body"
)

// Classes lists every content class.
var Classes = []ContentClass{ContentFrontMatter, ContentMainBody}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// ErrGateway wraps every failed translation request.
	ErrGateway = errors.New("translation request failed")
	// ErrEmptyText is returned for empty or whitespace-only input. No
	// request is made.
	ErrEmptyText = errors.New("nothing to translate")
)

// Translator translates text into lang.
type Translator interface {
	Translate(ctx context.Context, text, lang string, class ContentClass) (string, error)
}

// ---------------------------------------------------------------------------
// Provider IDs
// ---------------------------------------------------------------------------

const (
	ProviderDeepSeek     = "deepseek"
	ProviderOpenAI       = "openai"
	ProviderGoogle       = "google"
	ProviderAnthropic    = "anthropic"
	ProviderGroq         = "groq"
	ProviderOllama       = "ollama"
	ProviderCustomOpenAI = "custom-openai"
)

// Provider holds the configuration for an AI translation service.
type Provider struct {
	// ID is the provider identifier (deepseek, google, groq, etc.).
	ID string
	// Name is the display name.
	Name string
	// BaseURL is the API base URL.
	BaseURL string
	// APIKey is the authentication key (empty for local services).
	APIKey string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the request timeout.
	Timeout time.Duration
	// NoKey marks providers that work without an API key.
	NoKey bool
}

// DefaultProviders returns the pre-configured provider definitions.
func DefaultProviders() map[string]Provider {
	return map[string]Provider{
		ProviderDeepSeek: {
			ID:      ProviderDeepSeek,
			Name:    "DeepSeek",
			BaseURL: "https://api.deepseek.com",
			Timeout: 120 * time.Second,
		},
		ProviderOpenAI: {
			ID:      ProviderOpenAI,
			Name:    "OpenAI",
			BaseURL: "https://api.openai.com/v1",
			Timeout: 120 * time.Second,
		},
		ProviderGoogle: {
			ID:      ProviderGoogle,
			Name:    "Google AI (Gemini)",
			BaseURL: "https://generativelanguage.googleapis.com",
			Timeout: 120 * time.Second,
		},
		ProviderAnthropic: {
			ID:      ProviderAnthropic,
			Name:    "Anthropic",
			BaseURL: "https://api.anthropic.com/v1",
			Timeout: 120 * time.Second,
		},
		ProviderGroq: {
			ID:      ProviderGroq,
			Name:    "Groq",
			BaseURL: "https://api.groq.com/openai/v1",
			Timeout: 60 * time.Second,
		},
		ProviderOllama: {
			ID:      ProviderOllama,
			Name:    "Ollama",
			BaseURL: "http://localhost:11434/v1",
			Timeout: 300 * time.Second,
			NoKey:   true,
		},
		ProviderCustomOpenAI: {
			ID:      ProviderCustomOpenAI,
			Name:    "Custom OpenAI",
			Timeout: 60 * time.Second,
		},
	}
}

// ProviderIDs returns the known provider IDs in display order.
func ProviderIDs() []string {
	return []string{
		ProviderDeepSeek, ProviderOpenAI, ProviderGoogle, ProviderAnthropic,
		ProviderGroq, ProviderOllama, ProviderCustomOpenAI,
	}
}

// ---------------------------------------------------------------------------
// Gateway options
// ---------------------------------------------------------------------------

// ClassConfig is the per-content-class request setup.
type ClassConfig struct {
	SystemPrompt string
	Model        string
}

// Options controls the gateway.
type Options struct {
	// Provider is the AI provider configuration.
	Provider Provider
	// Classes maps each content class to its prompt and model.
	Classes map[ContentClass]ClassConfig
	// MaxConcurrent caps in-flight requests. 0 means unlimited.
	MaxConcurrent int
	// MaxRetries is the number of retries after a 429, 5xx or transport
	// error. 0 disables retries.
	MaxRetries int
	// Timeout is the per-request timeout (overrides provider timeout if set).
	Timeout time.Duration
	// Temperature is the sampling temperature.
	Temperature float64
	// OnLog emits log messages.
	OnLog func(format string, args ...any)
	// Verbose enables per-request logging.
	Verbose bool
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) effectiveTimeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	if o.Provider.Timeout > 0 {
		return o.Provider.Timeout
	}
	return 120 * time.Second
}

// ---------------------------------------------------------------------------
// Gateway
// ---------------------------------------------------------------------------

// Gateway is the HTTP Translator. It is safe for concurrent use.
type Gateway struct {
	opts     Options
	client   *http.Client
	rl       *rateLimitState
	gate     chan struct{}
	requests atomic.Int64
}

// New validates opts and creates a gateway.
func New(opts Options) (*Gateway, error) {
	if opts.Provider.BaseURL == "" {
		return nil, fmt.Errorf("provider %q has no base URL", opts.Provider.ID)
	}
	if opts.Provider.APIKey == "" && !opts.Provider.NoKey {
		return nil, fmt.Errorf("provider %q requires an API key", opts.Provider.ID)
	}
	for _, class := range Classes {
		if cc, ok := opts.Classes[class]; !ok || cc.Model == "" {
			return nil, fmt.Errorf("no model configured for %s content", class)
		}
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.3
	}

	g := &Gateway{
		opts:   opts,
		client: makeHTTPClient(opts.Provider.Proxy, opts.effectiveTimeout()),
		rl:     &rateLimitState{},
	}
	if opts.MaxConcurrent > 0 {
		g.gate = make(chan struct{}, opts.MaxConcurrent)
	}
	return g, nil
}

// Requests returns the number of translation calls sent so far.
func (g *Gateway) Requests() int64 {
	return g.requests.Load()
}

// Translate translates text into lang using the prompt and model of class.
func (g *Gateway) Translate(ctx context.Context, text, lang string, class ContentClass) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	cc, ok := g.opts.Classes[class]
	if !ok {
		return "", fmt.Errorf("%w: unknown content class %q", ErrGateway, class)
	}

	if g.gate != nil {
		select {
		case g.gate <- struct{}{}:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		defer func() { <-g.gate }()
	}

	g.requests.Add(1)
	if g.opts.Verbose {
		g.opts.log("%s -> %s (%s, %s, %d chars)", g.opts.Provider.Name, lang, class, cc.Model, len([]rune(text)))
	}

	call := httpCall{
		prov:        g.opts.Provider,
		model:       cc.Model,
		system:      cc.SystemPrompt,
		user:        UserPrompt(lang, text),
		temperature: g.opts.Temperature,
		maxRetries:  g.opts.MaxRetries,
	}
	if g.opts.Verbose {
		call.logf = g.opts.log
	}
	out, err := call.do(ctx, g.client, g.rl)
	if err != nil {
		return "", fmt.Errorf("%w: %s, %s: %w", ErrGateway, g.opts.Provider.Name, class, err)
	}
	return out, nil
}

// UserPrompt is the user message sent with every request.
func UserPrompt(lang, text string) string {
	return fmt.Sprintf("Translate into %s:\n\n%s\n", langmeta.Name(lang), text)
}
