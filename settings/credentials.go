// Package settings stores mdtranslate user credentials.
//
// Credentials live in the XDG data directory:
//
//	$XDG_DATA_HOME/mdtranslate/auth.json  (default: ~/.local/share/mdtranslate/)
//
// The file is a JSON object keyed by provider ID ("deepseek", "openai",
// "notion", ...). Each entry carries a "type" discriminator:
//
//   - "api"    API key for a translation provider, with an optional base URL
//   - "notion" Notion integration token and default parent page
//
// File permissions are 0600.
//
// API key lookup order:
//  1. --api-key flag
//  2. MDTRANSLATE_API_KEY, then the provider's own variable
//     (CHATGPT_API_KEY for deepseek and custom-openai)
//  3. this store
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	dataDirName = "mdtranslate"
	fileName    = "auth.json"

	// NotionID is the store key for the Notion credential.
	NotionID = "notion"

	typeAPI    = "api"
	typeNotion = "notion"
)

// ---------------------------------------------------------------------------
// Entries
// ---------------------------------------------------------------------------

// Credential is one stored entry.
type Credential struct {
	Type string `json:"type"`

	Key     string `json:"key,omitempty"`
	BaseURL string `json:"baseUrl,omitempty"`

	// ParentPageID is the default Notion page for the mirror command.
	ParentPageID string `json:"parentPageId,omitempty"`

	Updated time.Time `json:"updated,omitzero"`
}

// IsAPI reports whether c is a provider API key.
func (c *Credential) IsAPI() bool {
	return c.Type == typeAPI
}

// IsNotion reports whether c is a Notion token.
func (c *Credential) IsNotion() bool {
	return c.Type == typeNotion
}

// Store maps provider IDs to credentials.
type Store map[string]*Credential

// IDs returns the stored provider IDs, sorted.
func (s Store) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

// DataDir returns the mdtranslate data directory, honoring $XDG_DATA_HOME.
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

func filePath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// FilePath returns the auth.json path for display, or "".
func FilePath() string {
	p, err := filePath()
	if err != nil {
		return ""
	}
	return p
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the store. A missing file yields an empty store; a corrupt
// one is an error so that Save never silently discards it.
func Load() (Store, error) {
	path, err := filePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return make(Store), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading auth file: %w", err)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if store == nil {
		store = make(Store)
	}
	return store, nil
}

// Save writes the store with 0600 permissions.
func Save(store Store) error {
	path, err := filePath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	return nil
}

func update(fn func(Store)) error {
	store, err := Load()
	if err != nil {
		return err
	}
	fn(store)
	return Save(store)
}

// Get returns the entry for id, or nil.
func Get(id string) *Credential {
	store, err := Load()
	if err != nil {
		return nil
	}
	return store[id]
}

// Remove deletes the entry for id. Removing a missing entry is a no-op.
func Remove(id string) error {
	store, err := Load()
	if err != nil {
		return err
	}
	if _, ok := store[id]; !ok {
		return nil
	}
	delete(store, id)
	return Save(store)
}

// RemoveAll deletes the auth file.
func RemoveAll() error {
	path, err := filePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Provider keys
// ---------------------------------------------------------------------------

// SetAPIKey stores an API key (and optional base URL) for a provider.
func SetAPIKey(providerID, key, baseURL string) error {
	return update(func(s Store) {
		s[providerID] = &Credential{Type: typeAPI, Key: key, BaseURL: baseURL, Updated: time.Now().UTC()}
	})
}

// GetAPIKey returns the stored key for a provider, or "".
func GetAPIKey(providerID string) string {
	c := Get(providerID)
	if c == nil || !c.IsAPI() {
		return ""
	}
	return c.Key
}

// GetBaseURL returns the stored base URL for a provider, or "".
func GetBaseURL(providerID string) string {
	c := Get(providerID)
	if c == nil {
		return ""
	}
	return c.BaseURL
}

// EnvVarForProvider returns the provider-specific API key variable, or ""
// for providers that have none.
func EnvVarForProvider(providerID string) string {
	switch providerID {
	case "deepseek", "custom-openai":
		return "CHATGPT_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "google":
		return "GOOGLE_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "groq":
		return "GROQ_API_KEY"
	}
	return ""
}

// ResolveAPIKey returns the key for a provider following the lookup order
// flag, environment, store. envKey is the value already read from the
// environment for this provider.
func ResolveAPIKey(providerID, flagKey, envKey string) string {
	if flagKey != "" {
		return flagKey
	}
	if envKey != "" {
		return envKey
	}
	return GetAPIKey(providerID)
}

// ---------------------------------------------------------------------------
// Notion
// ---------------------------------------------------------------------------

// SetNotion stores the Notion token. An empty parentPageID keeps the
// previously stored page.
func SetNotion(token, parentPageID string) error {
	return update(func(s Store) {
		if parentPageID == "" {
			if old := s[NotionID]; old != nil {
				parentPageID = old.ParentPageID
			}
		}
		s[NotionID] = &Credential{Type: typeNotion, Key: token, ParentPageID: parentPageID, Updated: time.Now().UTC()}
	})
}

// GetNotion returns the stored Notion credential, or nil.
func GetNotion() *Credential {
	c := Get(NotionID)
	if c == nil || !c.IsNotion() {
		return nil
	}
	return c
}

// ResolveNotionToken returns the Notion token from the flag, the
// environment (NOTION_TOKEN) or the store, in that order.
func ResolveNotionToken(flagToken, envToken string) string {
	if flagToken != "" {
		return flagToken
	}
	if envToken != "" {
		return envToken
	}
	if c := GetNotion(); c != nil {
		return c.Key
	}
	return ""
}

// ---------------------------------------------------------------------------
// Display
// ---------------------------------------------------------------------------

// MaskKey returns a masked key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
