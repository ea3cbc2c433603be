// Package scoring computes the five-dimension quality evaluation of a story.
package scoring

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultVersion identifies the built-in testability rule set.
const DefaultVersion = "2026-01-07a"

// Rule is a named testability predicate.
type Rule struct {
	Name  string
	Match func(text string) bool
}

// RuleSet is an ordered, versioned list of testability rules. A criterion
// is testable when at least one rule matches.
type RuleSet struct {
	Version string
	Rules   []Rule
}

// RegexRule builds a rule from a pattern. With lower set, the pattern is
// applied to the lowercased text.
func RegexRule(name string, re *regexp.Regexp, lower bool) Rule {
	return Rule{
		Name: name,
		Match: func(text string) bool {
			if lower {
				text = strings.ToLower(text)
			}
			return re.MatchString(text)
		},
	}
}

var defaultRules = []struct {
	name    string
	pattern string
	lower   bool
}{
	{"actionVerbPrefix", `(?i)^(user(s)? can|system|given|when|then|verify|ensure|check|validate|confirm|display|show|allow|prevent|enable|disable|must|should|shall|the user|the system|a user)`, false},
	{"conditionalTemporal", `(?i)^(if|invalid|valid|on|upon|after|before|during|while|once|unless|following|prior to)\b`, false},
	{"actionVerbsAnywhere", `(?i)^[A-Z][a-z]+(\s+[a-z]+)?\s+(with|in|out|up|on|off|to|from|into|for|at|by|using|via|through|requests?|actions?|attempts?|clears?|loads?|shows?|displays?|returns?|triggers?|creates?|updates?|deletes?|sends?|receives?|stores?|retrieves?|validates?|succeeds?|fails?|completes?)\b`, false},
	{"securityTerms", `(?i)\b(https|http-only|httponly|samesite|secure cookie|encrypted|hashed|authenticated|authorized|ssl|tls|csrf|xss|sanitized|escaped|token|jwt|oauth|session)\b`, true},
	{"performanceBounds", `(?i)\b(within|under|less than|at most|maximum|max|at least|minimum|min|<|>|≤|≥)\s*\d+\s*(ms|milliseconds?|seconds?|s|minutes?|m|%|percent)?\b`, true},
	{"passiveVerifiable", `(?i)\b(is|are|was|were|been|being)\s+(transmitted|stored|logged|displayed|shown|hidden|validated|checked|verified|saved|deleted|created|updated|sent|received|processed|encrypted|hashed|cached|loaded|rendered|accessible|cleared|returned|redirected|maintained|preserved|retained)\b`, true},
	{"stateOutcomeVerbs", `(?i)\b(remains|stays|becomes|appears|disappears|shows|hides|contains|includes|excludes|matches|equals|returns|responds|redirects|navigates|transitions|loads|clears|resets|expires|succeeds|fails|completes|triggers|activates|deactivates)\b`, true},
	{"negationPattern", `(?i)\b(do not|does not|doesn't|will not|won't|never|cannot|can't|prevent|block|deny|reject|forbid)\b`, true},
}

// DefaultRuleSet returns the built-in rule set.
func DefaultRuleSet() RuleSet {
	rs := RuleSet{Version: DefaultVersion}
	for _, r := range defaultRules {
		rs.Rules = append(rs.Rules, RegexRule(r.name, regexp.MustCompile(r.pattern), r.lower))
	}
	return rs
}

// Analyze returns the names of the rules matching the trimmed text, in
// rule order.
func (rs RuleSet) Analyze(text string) []string {
	text = strings.TrimSpace(text)
	matched := []string{}
	for _, r := range rs.Rules {
		if r.Match(text) {
			matched = append(matched, r.Name)
		}
	}
	return matched
}

// ruleFile is the YAML layout read by LoadRuleSet.
type ruleFile struct {
	Version string `yaml:"version"`
	// Extends names a base set; only "default" is known.
	Extends string `yaml:"extends"`
	Rules   []struct {
		Name      string `yaml:"name"`
		Pattern   string `yaml:"pattern"`
		Lowercase bool   `yaml:"lowercase"`
	} `yaml:"rules"`
}

// ParseRuleSet reads a rule set from YAML.
func ParseRuleSet(data []byte) (RuleSet, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return RuleSet{}, fmt.Errorf("failed to parse rule set: %w", err)
	}
	if f.Version == "" {
		return RuleSet{}, fmt.Errorf("rule set version is required")
	}

	var rs RuleSet
	switch f.Extends {
	case "":
	case "default":
		rs = DefaultRuleSet()
	default:
		return RuleSet{}, fmt.Errorf("unknown base rule set %q", f.Extends)
	}
	rs.Version = f.Version

	seen := make(map[string]bool, len(rs.Rules))
	for _, r := range rs.Rules {
		seen[r.Name] = true
	}
	for i, r := range f.Rules {
		if r.Name == "" || r.Pattern == "" {
			return RuleSet{}, fmt.Errorf("rule %d: name and pattern are required", i)
		}
		if seen[r.Name] {
			return RuleSet{}, fmt.Errorf("rule %q defined twice", r.Name)
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return RuleSet{}, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		seen[r.Name] = true
		rs.Rules = append(rs.Rules, RegexRule(r.Name, re, r.Lowercase))
	}
	if len(rs.Rules) == 0 {
		return RuleSet{}, fmt.Errorf("rule set %q has no rules", f.Version)
	}
	return rs, nil
}

// LoadRuleSet reads a YAML rule set file.
func LoadRuleSet(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("failed to read rule set: %w", err)
	}
	return ParseRuleSet(data)
}
