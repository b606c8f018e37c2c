package source

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule rewrites share links for one host into a direct download URL. The
// first pattern whose first capture group matches supplies {id} for Template.
type Rule struct {
	Name     string
	Host     string
	Patterns []*regexp.Regexp
	Template string
}

// GoogleDrive turns "view" share links into the direct download form.
var GoogleDrive = Rule{
	Name: "google-drive",
	Host: "drive.google.com",
	Patterns: []*regexp.Regexp{
		regexp.MustCompile(`/d/([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`[?&]id=([A-Za-z0-9_-]+)`),
	},
	Template: "https://drive.google.com/uc?export=download&id={id}&confirm=t",
}

func (r Rule) apply(u *url.URL, raw string) (string, bool) {
	if !strings.EqualFold(u.Hostname(), r.Host) {
		return "", false
	}
	for _, p := range r.Patterns {
		if m := p.FindStringSubmatch(raw); len(m) > 1 && m[1] != "" {
			return strings.ReplaceAll(r.Template, "{id}", url.QueryEscape(m[1])), true
		}
	}
	return "", false
}

// RewriteTable holds rules in evaluation order.
type RewriteTable struct {
	rules []Rule
}

// NewRewriteTable builds a table from the given rules. With no rules it
// contains only GoogleDrive.
func NewRewriteTable(rules ...Rule) *RewriteTable {
	if len(rules) == 0 {
		rules = []Rule{GoogleDrive}
	}
	return &RewriteTable{rules: rules}
}

// Rules returns a copy of the rule list.
func (t *RewriteTable) Rules() []Rule {
	return append([]Rule(nil), t.rules...)
}

// Resolve returns the direct URL for raw, or raw itself when no rule applies.
func (t *RewriteTable) Resolve(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	for _, r := range t.rules {
		if out, ok := r.apply(u, raw); ok {
			return out
		}
	}
	return raw
}

type rulesFile struct {
	Rules []struct {
		Name     string   `yaml:"name"`
		Host     string   `yaml:"host"`
		Patterns []string `yaml:"patterns"`
		Template string   `yaml:"template"`
	} `yaml:"rules"`
}

// LoadRules reads extra rules from a YAML file:
//
//	rules:
//	  - name: example
//	    host: media.example.com
//	    patterns: ['/v/([a-z0-9]+)']
//	    template: https://media.example.com/raw/{id}
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rewrite rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes the YAML document accepted by LoadRules.
func ParseRules(data []byte) ([]Rule, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rewrite rules: %w", err)
	}

	rules := make([]Rule, 0, len(f.Rules))
	for i, fr := range f.Rules {
		if fr.Host == "" || fr.Template == "" || len(fr.Patterns) == 0 {
			return nil, fmt.Errorf("rewrite rule %d (%q): host, patterns and template are required", i, fr.Name)
		}
		if !strings.Contains(fr.Template, "{id}") {
			return nil, fmt.Errorf("rewrite rule %q: template has no {id} placeholder", fr.Name)
		}
		r := Rule{Name: fr.Name, Host: fr.Host, Template: fr.Template}
		for _, p := range fr.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("rewrite rule %q: %w", fr.Name, err)
			}
			if re.NumSubexp() < 1 {
				return nil, fmt.Errorf("rewrite rule %q: pattern %q has no capture group", fr.Name, p)
			}
			r.Patterns = append(r.Patterns, re)
		}
		rules = append(rules, r)
	}
	return rules, nil
}
