// Package device maps user agents to coarse device categories.
package device

import (
	_ "embed"
	"fmt"
	"log/slog"
	"sync"

	"go.elara.ws/pcre"
	"gopkg.in/yaml.v3"
)

// Type is a coarse device category.
type Type string

const (
	Mobile  Type = "Mobile"
	Desktop Type = "Desktop"
	Laptop  Type = "Laptop"
	Unknown Type = "Unknown"
)

//go:embed rules.yml
var rulesFile []byte

// Rule is one entry of rules.yml.
type Rule struct {
	Regex  string `yaml:"regex"`
	Device Type   `yaml:"device"`
}

type compiledRule struct {
	regex  *pcre.Regexp
	device Type
}

// Classifier evaluates rules in order; the first match wins.
type Classifier struct {
	rules []compiledRule
}

// NewClassifier compiles rules case-insensitively.
func NewClassifier(rules []Rule) (*Classifier, error) {
	c := &Classifier{rules: make([]compiledRule, 0, len(rules))}
	for i, rule := range rules {
		if rule.Regex == "" || rule.Device == "" {
			return nil, fmt.Errorf("device rule %d: regex and device are required", i)
		}
		regex, err := pcre.Compile("(?i)" + rule.Regex)
		if err != nil {
			return nil, fmt.Errorf("device rule %d: %w", i, err)
		}
		c.rules = append(c.rules, compiledRule{regex: regex, device: rule.Device})
	}
	return c, nil
}

// ParseRules decodes a YAML rule list.
func ParseRules(data []byte) ([]Rule, error) {
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse device rules: %w", err)
	}
	return rules, nil
}

// Classify returns the device category for userAgent, Unknown when nothing matches.
func (c *Classifier) Classify(userAgent string) Type {
	if userAgent == "" {
		return Unknown
	}
	for _, rule := range c.rules {
		if rule.regex.MatchString(userAgent) {
			return rule.device
		}
	}
	return Unknown
}

// Global classifier instance built from the embedded rules
var (
	defaultClassifier *Classifier
	once              sync.Once
)

func getClassifier() *Classifier {
	once.Do(func() {
		rules, err := ParseRules(rulesFile)
		if err == nil {
			defaultClassifier, err = NewClassifier(rules)
		}
		if err != nil {
			slog.Default().Error("Failed to load embedded device rules", slog.Any("error", err))
			defaultClassifier = &Classifier{}
		}
	})
	return defaultClassifier
}

// Classify classifies userAgent with the embedded rule set.
func Classify(userAgent string) Type {
	return getClassifier().Classify(userAgent)
}
