// Package router classifies a query into the branch that should answer it.
package router

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Branch names one of the mutually exclusive answering strategies.
type Branch string

const (
	BranchDocumentQA Branch = "document_qa"
	BranchWebSearch  Branch = "web_search"
	BranchWeather    Branch = "weather"
)

func (b Branch) Valid() bool {
	switch b {
	case BranchDocumentQA, BranchWebSearch, BranchWeather:
		return true
	}
	return false
}

// Rule claims a query for Branch when any keyword appears in it.
type Rule struct {
	Branch   Branch   `yaml:"branch"`
	Keywords []string `yaml:"keywords"`
}

// RuleSet is the on-disk shape of a routing table.
type RuleSet struct {
	Rules    []Rule `yaml:"rules"`
	Fallback Branch `yaml:"fallback"`
}

// DefaultRules is the built-in table, highest priority first.
var DefaultRules = []Rule{
	{Branch: BranchWeather, Keywords: []string{"weather", "temperature", "forecast", "climate"}},
	{Branch: BranchWebSearch, Keywords: []string{"festival", "news", "review", "event"}},
}

// Router evaluates rules in order. The first rule with a matching keyword
// wins; queries no rule claims go to the fallback branch.
type Router struct {
	rules    []Rule
	fallback Branch
}

func New(rules []Rule, fallback Branch) *Router {
	if fallback == "" {
		fallback = BranchDocumentQA
	}
	normalized := make([]Rule, 0, len(rules))
	for _, r := range rules {
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				kws = append(kws, kw)
			}
		}
		normalized = append(normalized, Rule{Branch: r.Branch, Keywords: kws})
	}
	return &Router{rules: normalized, fallback: fallback}
}

func NewDefault() *Router {
	return New(DefaultRules, BranchDocumentQA)
}

// Classify matches keywords as case-insensitive substrings of query.
func (r *Router) Classify(query string) Branch {
	q := strings.ToLower(query)
	for _, rule := range r.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(q, kw) {
				return rule.Branch
			}
		}
	}
	return r.fallback
}

func (r *Router) Fallback() Branch {
	return r.fallback
}

// Branches lists every branch the router can produce, in priority order.
func (r *Router) Branches() []Branch {
	seen := make(map[Branch]bool)
	var out []Branch
	for _, rule := range r.rules {
		if !seen[rule.Branch] {
			seen[rule.Branch] = true
			out = append(out, rule.Branch)
		}
	}
	if !seen[r.fallback] {
		out = append(out, r.fallback)
	}
	return out
}

// LoadRules reads a YAML routing table. An empty path yields the defaults.
func LoadRules(path string) (*Router, error) {
	if path == "" {
		return NewDefault(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading router rules: %w", err)
	}
	return ParseRules(data)
}

func ParseRules(data []byte) (*Router, error) {
	var set RuleSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing router rules: %w", err)
	}

	if set.Fallback == "" {
		set.Fallback = BranchDocumentQA
	}
	if !set.Fallback.Valid() {
		return nil, fmt.Errorf("unknown fallback branch %q", set.Fallback)
	}
	for i, rule := range set.Rules {
		if !rule.Branch.Valid() {
			return nil, fmt.Errorf("rule %d: unknown branch %q", i, rule.Branch)
		}
		if len(rule.Keywords) == 0 {
			return nil, fmt.Errorf("rule %d (%s): no keywords", i, rule.Branch)
		}
	}

	return New(set.Rules, set.Fallback), nil
}
