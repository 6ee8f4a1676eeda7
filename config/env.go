package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/minios-linux/mdtranslate/translate"
)

// Env holds settings read from the environment. Empty fields leave the
// file configuration untouched.
type Env struct {
	ConfigPath string `env:"MDTRANSLATE_CONFIG"`

	// APIKey applies to every provider; the others only to their own.
	APIKey       string `env:"MDTRANSLATE_API_KEY"`
	LegacyKey    string `env:"CHATGPT_API_KEY"`
	OpenAIKey    string `env:"OPENAI_API_KEY"`
	GoogleKey    string `env:"GOOGLE_API_KEY"`
	AnthropicKey string `env:"ANTHROPIC_API_KEY"`
	GroqKey      string `env:"GROQ_API_KEY"`

	BaseURL  string `env:"CHATGPT_API_BASE"`
	Provider string `env:"MDTRANSLATE_PROVIDER"`
	Model    string `env:"MDTRANSLATE_MODEL"`
	Proxy    string `env:"MDTRANSLATE_PROXY"`

	MaxLength     int `env:"MDTRANSLATE_MAX_LENGTH"`
	MaxConcurrent int `env:"MDTRANSLATE_MAX_CONCURRENT"`

	NotionToken      string `env:"NOTION_TOKEN"`
	NotionRootPageID string `env:"NOTION_ROOT_PAGE_ID"`
}

// LoadEnv loads dotenv files (".env" when none are given) into the process
// environment and reads Env from it. Missing dotenv files are ignored;
// variables already set in the environment win over dotenv values.
func LoadEnv(files ...string) (*Env, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	var env Env
	if err := cleanenv.ReadEnv(&env); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	return &env, nil
}

// KeyFor returns the API key the environment holds for a provider.
// MDTRANSLATE_API_KEY wins over the provider's own variable
// (CHATGPT_API_KEY for deepseek and custom-openai).
func (e *Env) KeyFor(providerID string) string {
	if e.APIKey != "" {
		return e.APIKey
	}
	switch providerID {
	case translate.ProviderDeepSeek, translate.ProviderCustomOpenAI:
		return e.LegacyKey
	case translate.ProviderOpenAI:
		return e.OpenAIKey
	case translate.ProviderGoogle:
		return e.GoogleKey
	case translate.ProviderAnthropic:
		return e.AnthropicKey
	case translate.ProviderGroq:
		return e.GroqKey
	}
	return ""
}

// Apply overlays the non-empty environment settings onto c.
func (e *Env) Apply(c *Config) {
	if e.BaseURL != "" {
		c.BaseURL = e.BaseURL
	}
	if e.Provider != "" {
		c.Provider = e.Provider
	}
	if e.Model != "" {
		c.Models.FrontMatter = e.Model
		c.Models.MainBody = e.Model
	}
	if e.Proxy != "" {
		c.Proxy = e.Proxy
	}
	if e.MaxLength > 0 {
		c.MaxLength = e.MaxLength
	}
	if e.MaxConcurrent > 0 {
		c.MaxConcurrent = e.MaxConcurrent
	}
	if e.NotionRootPageID != "" {
		c.Notion.ParentPageID = e.NotionRootPageID
	}
}
