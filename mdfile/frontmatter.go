// Package mdfile handles the YAML front matter block of Markdown documents.
//
// A front matter block starts at byte 0 with a "---" line and ends at the
// next "---" line. Its content must be a YAML mapping. Fields are kept as
// yaml.v3 nodes so that serialization preserves the original key order.
//
// Each field is handled according to a FieldPolicy:
//
//   - PolicyTranslate: the scalar value is sent to the translation gateway
//     as a front-matter request (one request per field).
//
//   - PolicyReplaceFixed: every list element (or the scalar itself) is run
//     through a fixed replacement table. No translation request is made.
//
//   - PolicyPassThrough: the value is left untouched. This is the default
//     for any field without an explicit policy.
package mdfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/mdtranslate/placeholder"
	"github.com/minios-linux/mdtranslate/translate"
)

// Marker is the line that opens and closes a front matter block.
const Marker = "---"

// ErrStructuredData is returned when a front matter block is present but is
// not a valid YAML mapping.
var ErrStructuredData = errors.New("invalid front matter")

// ---------------------------------------------------------------------------
// Extraction
// ---------------------------------------------------------------------------

// frontmatterBlock matches a front matter block at the very start of a
// document. The closing marker line and its line break belong to the block.
var frontmatterBlock = regexp.MustCompile(`(?s)\A---\r?\n(?:(.*?)\r?\n)?---[ \t]*(?:\r?\n|\z)`)

// Extract splits doc into the raw front matter text (between the marker
// lines) and the remaining body. ok is false when doc does not start with a
// front matter block, in which case body is doc unchanged.
func Extract(doc string) (raw, body string, ok bool) {
	m := frontmatterBlock.FindStringSubmatchIndex(doc)
	if m == nil {
		return "", doc, false
	}
	if m[2] >= 0 {
		raw = doc[m[2]:m[3]]
	}
	return raw, doc[m[1]:], true
}

// ---------------------------------------------------------------------------
// Front matter model
// ---------------------------------------------------------------------------

// FrontMatter is an ordered YAML mapping.
type FrontMatter struct {
	root *yaml.Node
}

// Parse decodes raw front matter text. An empty or null block yields
// an empty FrontMatter. Anything other than a mapping is ErrStructuredData.
func Parse(raw string) (*FrontMatter, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStructuredData, err)
	}
	if len(doc.Content) == 0 || isNull(doc.Content[0]) {
		return &FrontMatter{root: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: expected a mapping, got %s", ErrStructuredData, kindName(root.Kind))
	}
	return &FrontMatter{root: root}, nil
}

// Len returns the number of fields.
func (fm *FrontMatter) Len() int {
	return len(fm.root.Content) / 2
}

// Keys returns field names in document order.
func (fm *FrontMatter) Keys() []string {
	keys := make([]string, 0, fm.Len())
	for i := 0; i+1 < len(fm.root.Content); i += 2 {
		keys = append(keys, fm.root.Content[i].Value)
	}
	return keys
}

func (fm *FrontMatter) node(key string) *yaml.Node {
	for i := 0; i+1 < len(fm.root.Content); i += 2 {
		if fm.root.Content[i].Value == key {
			return fm.root.Content[i+1]
		}
	}
	return nil
}

// Value returns a scalar field.
func (fm *FrontMatter) Value(key string) (string, bool) {
	n := fm.node(key)
	if n == nil || n.Kind != yaml.ScalarNode {
		return "", false
	}
	return n.Value, true
}

// List returns the scalar elements of a sequence field.
func (fm *FrontMatter) List(key string) ([]string, bool) {
	n := fm.node(key)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil, false
	}
	var out []string
	for _, item := range n.Content {
		if item.Kind == yaml.ScalarNode {
			out = append(out, item.Value)
		}
	}
	return out, true
}

// Clone returns a deep copy.
func (fm *FrontMatter) Clone() *FrontMatter {
	return &FrontMatter{root: cloneNode(fm.root)}
}

func cloneNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Content != nil {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = cloneNode(child)
		}
	}
	c.Alias = cloneNode(n.Alias)
	return &c
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

// Serialize renders fm as block-style YAML with two-space indentation,
// keeping field order. Non-ASCII text is written as-is. An empty mapping
// renders as "".
func Serialize(fm *FrontMatter) (string, error) {
	if fm == nil || fm.Len() == 0 {
		return "", nil
	}
	root := cloneNode(fm.root)
	clearFlowStyle(root)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return "", fmt.Errorf("encoding front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encoding front matter: %w", err)
	}
	return buf.String(), nil
}

func clearFlowStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle
	for _, child := range n.Content {
		clearFlowStyle(child)
	}
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	case yaml.DocumentNode:
		return "a document"
	default:
		return "a mapping"
	}
}

// ---------------------------------------------------------------------------
// Field policies
// ---------------------------------------------------------------------------

// FieldPolicy selects how a front matter field is handled.
type FieldPolicy int

const (
	// PolicyPassThrough leaves the value unchanged.
	PolicyPassThrough FieldPolicy = iota
	// PolicyTranslate sends the value to the translation gateway.
	PolicyTranslate
	// PolicyReplaceFixed applies the fixed replacement table.
	PolicyReplaceFixed
)

func (p FieldPolicy) String() string {
	switch p {
	case PolicyTranslate:
		return "translate"
	case PolicyReplaceFixed:
		return "replace"
	default:
		return "pass"
	}
}

// ParsePolicy parses "translate", "replace" or "pass".
func ParsePolicy(s string) (FieldPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "translate":
		return PolicyTranslate, nil
	case "replace", "replace-fixed":
		return PolicyReplaceFixed, nil
	case "pass", "passthrough", "pass-through", "":
		return PolicyPassThrough, nil
	}
	return PolicyPassThrough, fmt.Errorf("unknown field policy %q (valid: translate, replace, pass)", s)
}

// DefaultPolicies is the built-in field policy table.
var DefaultPolicies = map[string]FieldPolicy{
	"title":       PolicyTranslate,
	"description": PolicyTranslate,
	"categories":  PolicyReplaceFixed,
	"tags":        PolicyReplaceFixed,
}

// ---------------------------------------------------------------------------
// Translation
// ---------------------------------------------------------------------------

// Translator applies field policies to a FrontMatter.
type Translator struct {
	// Gateway translates PolicyTranslate fields.
	Gateway translate.Translator
	// Rules is the fixed replacement table for PolicyReplaceFixed fields.
	Rules *placeholder.Registry
	// Policies maps field names to policies. Nil means DefaultPolicies.
	Policies map[string]FieldPolicy
}

// PolicyFor returns the policy for a field name.
func (t *Translator) PolicyFor(key string) FieldPolicy {
	policies := t.Policies
	if policies == nil {
		policies = DefaultPolicies
	}
	return policies[key]
}

// Translate returns a translated copy of fm for lang. fm is not modified.
func (t *Translator) Translate(ctx context.Context, fm *FrontMatter, lang string) (*FrontMatter, error) {
	out := fm.Clone()
	for i := 0; i+1 < len(out.root.Content); i += 2 {
		key := out.root.Content[i].Value
		val := out.root.Content[i+1]

		switch t.PolicyFor(key) {
		case PolicyTranslate:
			if val.Kind != yaml.ScalarNode || strings.TrimSpace(val.Value) == "" {
				continue
			}
			if t.Gateway == nil {
				return nil, fmt.Errorf("front matter field %q: no translator configured", key)
			}
			translated, err := t.Gateway.Translate(ctx, val.Value, lang, translate.ContentFrontMatter)
			if err != nil {
				return nil, fmt.Errorf("front matter field %q: %w", key, err)
			}
			setString(val, translated)

		case PolicyReplaceFixed:
			if t.Rules == nil {
				continue
			}
			switch val.Kind {
			case yaml.SequenceNode:
				for _, item := range val.Content {
					if item.Kind == yaml.ScalarNode {
						if r := t.Rules.Replace(item.Value, lang); r != item.Value {
							setString(item, r)
						}
					}
				}
			case yaml.ScalarNode:
				if r := t.Rules.Replace(val.Value, lang); r != val.Value {
					setString(val, r)
				}
			}
		}
	}
	return out, nil
}

// setString replaces a scalar's value, letting the encoder pick quoting.
func setString(n *yaml.Node, v string) {
	n.Value = v
	n.Tag = "!!str"
	n.Style = 0
}
