// Package config holds the mdtranslate run configuration.
//
// Settings are layered: built-in defaults, then an optional
// .mdtranslate.yaml file, then environment variables, then command-line
// flags (applied by the caller).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/mdtranslate/langmeta"
	"github.com/minios-linux/mdtranslate/ledger"
	"github.com/minios-linux/mdtranslate/mdfile"
	"github.com/minios-linux/mdtranslate/placeholder"
	"github.com/minios-linux/mdtranslate/translate"
)

// FileName is the default config file name.
const FileName = ".mdtranslate.yaml"

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// Config is the top-level .mdtranslate.yaml structure.
type Config struct {
	// SourceLanguages lists the accepted source language codes.
	SourceLanguages []string `yaml:"source_languages,omitempty"`
	// InputDir is the directory of source documents.
	InputDir string `yaml:"input_dir,omitempty"`
	// OutputDirs maps target language codes to output roots.
	OutputDirs map[string]string `yaml:"output_dirs,omitempty"`
	// OutputExt replaces the extension of translated Markdown files.
	OutputExt string `yaml:"output_ext,omitempty"`
	// Exclude lists file names that are never translated.
	Exclude []string `yaml:"exclude,omitempty"`
	// AdminPrefixes skips directories whose name starts with one of these.
	AdminPrefixes []string `yaml:"admin_prefixes,omitempty"`
	// Ledger is the processed-file ledger path.
	Ledger string `yaml:"ledger,omitempty"`

	// MaxLength bounds body segments, in characters.
	MaxLength int `yaml:"max_length,omitempty"`
	// MaxConcurrent bounds in-flight work items in parallel mode.
	MaxConcurrent int `yaml:"max_concurrent,omitempty"`
	// Parallel enables concurrent dispatch.
	Parallel bool `yaml:"parallel,omitempty"`

	// Provider is the AI provider ID.
	Provider string `yaml:"provider,omitempty"`
	// BaseURL overrides the provider endpoint.
	BaseURL string `yaml:"base_url,omitempty"`
	// Timeout is the per-request timeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// MaxRetries is the number of retries on 429/5xx.
	MaxRetries int `yaml:"max_retries"`
	// Proxy is an HTTP/HTTPS proxy URL.
	Proxy string `yaml:"proxy,omitempty"`

	// Models per content class.
	Models ClassStrings `yaml:"models,omitempty"`
	// Prompts per content class.
	Prompts ClassStrings `yaml:"prompts,omitempty"`

	// BodyRules are the boilerplate placeholder rules.
	BodyRules []placeholder.Rule `yaml:"body_rules,omitempty"`
	// FrontMatterRules are the fixed category/tag replacements.
	FrontMatterRules []placeholder.Rule `yaml:"front_matter_rules,omitempty"`
	// FieldPolicies maps front matter fields to translate, replace or pass.
	FieldPolicies map[string]string `yaml:"field_policies,omitempty"`

	// Notion holds mirror settings.
	Notion NotionConfig `yaml:"notion,omitempty"`

	path string `yaml:"-"`
}

// ClassStrings holds one value per content class.
type ClassStrings struct {
	FrontMatter string `yaml:"front_matter,omitempty"`
	MainBody    string `yaml:"main_body,omitempty"`
}

// NotionConfig configures the Notion mirror.
type NotionConfig struct {
	// ParentPageID is the page under which mirrored pages are created.
	ParentPageID string `yaml:"parent_page_id,omitempty"`
	// BaseURL overrides the Notion API endpoint.
	BaseURL string `yaml:"base_url,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	out := make(map[string]string)
	for _, code := range langmeta.Codes() {
		if code == "zh" {
			continue
		}
		out[code] = filepath.Join("testdir", "docs", code)
	}
	policies := make(map[string]string, len(mdfile.DefaultPolicies))
	for field, p := range mdfile.DefaultPolicies {
		policies[field] = p.String()
	}

	return &Config{
		SourceLanguages: []string{"zh"},
		InputDir:        filepath.Join("testdir", "to-translate"),
		OutputDirs:      out,
		Exclude:         []string{"index.md", "Contact-and-Subscribe.md", "WeChat.md"},
		AdminPrefixes:   []string{"."},
		Ledger:          ledger.DefaultFileName,
		MaxLength:       8000,
		MaxConcurrent:   10,
		Provider:        translate.ProviderDeepSeek,
		MaxRetries:      3,
		Models: ClassStrings{
			FrontMatter: translate.DefaultModel,
			MainBody:    translate.DefaultModel,
		},
		Prompts: ClassStrings{
			FrontMatter: translate.FrontMatterSystemPrompt,
			MainBody:    translate.MainBodySystemPrompt,
		},
		BodyRules:        DefaultBodyRules(),
		FrontMatterRules: DefaultFrontMatterRules(),
		FieldPolicies:    policies,
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load returns the defaults overlaid with the config file at path. When
// path is empty, FileName in the working directory is used if it exists.
// An explicit path that does not exist is an error. Lists in the file
// replace the defaults; maps are merged key by key.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = FileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.path = path

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Path returns the file the config was loaded from, or "".
func (c *Config) Path() string {
	return c.path
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if len(c.SourceLanguages) == 0 {
		return fmt.Errorf("source_languages must not be empty")
	}
	if err := langmeta.Validate(c.SourceLanguages, nil); err != nil {
		return fmt.Errorf("source_languages: %w", err)
	}
	if len(c.OutputDirs) == 0 {
		return fmt.Errorf("output_dirs must not be empty")
	}
	if err := langmeta.Validate(c.Languages(), nil); err != nil {
		return fmt.Errorf("output_dirs: %w", err)
	}
	for lang, dir := range c.OutputDirs {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("output_dirs: %q has no directory", lang)
		}
	}
	if c.OutputExt != "" && !strings.HasPrefix(c.OutputExt, ".") {
		return fmt.Errorf("output_ext %q must start with a dot", c.OutputExt)
	}
	if c.MaxLength < 1 {
		return fmt.Errorf("max_length must be positive, got %d", c.MaxLength)
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be positive, got %d", c.MaxConcurrent)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	if _, ok := translate.DefaultProviders()[c.Provider]; !ok {
		return fmt.Errorf("unknown provider %q (valid: %s)", c.Provider, strings.Join(translate.ProviderIDs(), ", "))
	}
	if c.Models.FrontMatter == "" || c.Models.MainBody == "" {
		return fmt.Errorf("models.front_matter and models.main_body are required")
	}
	if _, err := c.Policies(); err != nil {
		return err
	}
	for name, rules := range map[string][]placeholder.Rule{"body_rules": c.BodyRules, "front_matter_rules": c.FrontMatterRules} {
		for i, r := range rules {
			if r.Source == "" {
				return fmt.Errorf("%s #%d has an empty source", name, i+1)
			}
			for lang := range r.Replacements {
				if !langmeta.Supported(lang) {
					return fmt.Errorf("%s #%d: %w: %q", name, i+1, langmeta.ErrInvalidLanguage, lang)
				}
			}
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Derived values
// ---------------------------------------------------------------------------

// Languages returns the configured target languages, sorted.
func (c *Config) Languages() []string {
	langs := make([]string, 0, len(c.OutputDirs))
	for lang := range c.OutputDirs {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Policies returns the parsed front matter field policies.
func (c *Config) Policies() (map[string]mdfile.FieldPolicy, error) {
	out := make(map[string]mdfile.FieldPolicy, len(c.FieldPolicies))
	for field, s := range c.FieldPolicies {
		p, err := mdfile.ParsePolicy(s)
		if err != nil {
			return nil, fmt.Errorf("field_policies.%s: %w", field, err)
		}
		out[field] = p
	}
	return out, nil
}

// BodyRegistry returns the body placeholder registry.
func (c *Config) BodyRegistry() *placeholder.Registry {
	return placeholder.New(c.BodyRules)
}

// FrontMatterRegistry returns the front matter replacement registry.
func (c *Config) FrontMatterRegistry() *placeholder.Registry {
	return placeholder.New(c.FrontMatterRules)
}

// Classes returns the gateway setup per content class.
func (c *Config) Classes() map[translate.ContentClass]translate.ClassConfig {
	return map[translate.ContentClass]translate.ClassConfig{
		translate.ContentFrontMatter: {SystemPrompt: c.Prompts.FrontMatter, Model: c.Models.FrontMatter},
		translate.ContentMainBody:    {SystemPrompt: c.Prompts.MainBody, Model: c.Models.MainBody},
	}
}

// OutputRoots returns output roots for langs, resolved against base when
// relative. Languages without a configured directory are omitted.
func (c *Config) OutputRoots(langs []string, base string) map[string]string {
	out := make(map[string]string, len(langs))
	for _, lang := range langs {
		dir, ok := c.OutputDirs[lang]
		if !ok {
			continue
		}
		if base != "" && !filepath.IsAbs(dir) {
			dir = filepath.Join(base, dir)
		}
		out[lang] = dir
	}
	return out
}

// CheckTargets rejects target languages that are unsupported, repeated or
// have no output directory, and a source language outside SourceLanguages.
func (c *Config) CheckTargets(source string, targets []string) error {
	if err := langmeta.Validate([]string{source}, c.SourceLanguages); err != nil {
		return fmt.Errorf("source language: %w", err)
	}
	if len(targets) == 0 {
		return fmt.Errorf("%w: no target languages given", langmeta.ErrInvalidLanguage)
	}
	if err := langmeta.Validate(targets, c.Languages()); err != nil {
		return fmt.Errorf("target language: %w", err)
	}
	seen := make(map[string]bool, len(targets))
	for _, lang := range targets {
		if seen[lang] {
			return fmt.Errorf("target language: %w: %q given more than once", langmeta.ErrInvalidLanguage, lang)
		}
		seen[lang] = true
	}
	return nil
}
