// Package placeholder implements reversible substitution of fixed
// boilerplate (copyright notices, site links, category names) so that the
// translation model never sees that text.
//
// Protect swaps every occurrence of a rule's source text for an opaque
// numbered token; Restore swaps the tokens for the rule's replacement in the
// target language. Matching is literal, case-sensitive and global. Rules
// are not word-boundary aware: a source text that also occurs inside
// unrelated content is replaced there too.
package placeholder

import (
	"fmt"
	"sort"
	"strings"
)

// tokenFormat is the placeholder syntax. The brackets never appear in rule
// source texts, so later rules cannot match tokens left by earlier ones.
const tokenFormat = "[to_be_replace[%d]]"

// Token returns the placeholder for the rule at 1-based position n.
func Token(n int) string {
	return fmt.Sprintf(tokenFormat, n)
}

// Rule maps an exact source substring to per-language replacements.
type Rule struct {
	Source       string            `yaml:"source"`
	Replacements map[string]string `yaml:"replacements"`
}

// Registry is an ordered list of rules.
type Registry struct {
	rules []Rule
}

// New creates a registry. Rules with an empty source are dropped.
func New(rules []Rule) *Registry {
	r := &Registry{}
	for _, rule := range rules {
		if rule.Source == "" {
			continue
		}
		r.rules = append(r.rules, rule)
	}
	return r
}

// Rules returns a copy of the rule list.
func (r *Registry) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}

// Len returns the number of rules.
func (r *Registry) Len() int {
	return len(r.rules)
}

// Validate reports rules that have no replacement for one of langs.
func (r *Registry) Validate(langs []string) error {
	var missing []string
	for i, rule := range r.rules {
		for _, lang := range langs {
			if _, ok := rule.Replacements[lang]; !ok {
				missing = append(missing, fmt.Sprintf("rule %d (%q) has no %q replacement", i+1, truncate(rule.Source, 40), lang))
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("replacement rules incomplete: %s", strings.Join(missing, "; "))
	}
	return nil
}

// RestoreMap maps placeholder tokens to their final text.
type RestoreMap map[string]string

// Protect replaces every source text with its token and returns the map
// needed to restore the lang-specific replacements afterwards. Rules without
// a replacement for lang are left untouched.
func (r *Registry) Protect(text, lang string) (string, RestoreMap) {
	restore := make(RestoreMap, len(r.rules))
	for i, rule := range r.rules {
		repl, ok := rule.Replacements[lang]
		if !ok {
			continue
		}
		token := Token(i + 1)
		text = strings.ReplaceAll(text, rule.Source, token)
		restore[token] = repl
	}
	return text, restore
}

// Restore replaces every token in text with its mapped replacement.
// Tokens absent from text are ignored.
func (m RestoreMap) Restore(text string) string {
	if len(m) == 0 {
		return text
	}
	tokens := make([]string, 0, len(m))
	for tok := range m {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)

	pairs := make([]string, 0, 2*len(tokens))
	for _, tok := range tokens {
		pairs = append(pairs, tok, m[tok])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// Replace substitutes every rule's source text directly with its lang
// replacement. Used for values that never go through translation.
func (r *Registry) Replace(text, lang string) string {
	for _, rule := range r.rules {
		repl, ok := rule.Replacements[lang]
		if !ok || !strings.Contains(text, rule.Source) {
			continue
		}
		text = strings.ReplaceAll(text, rule.Source, repl)
	}
	return text
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
