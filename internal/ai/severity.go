package ai

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// DangerPattern is one regex rule marking a command as high-impact.
type DangerPattern struct {
	Pattern string `yaml:"pattern"`
	Message string `yaml:"message"`
}

// severityRulesFile is the YAML schema root for an external rules file.
type severityRulesFile struct {
	Rules struct {
		DangerPatterns []DangerPattern `yaml:"danger_patterns"`
	} `yaml:"rules"`
}

// SeverityClassifier decides whether an extracted command is high-impact.
// The pattern set is explicit and extensible: the compiled-in defaults can be
// replaced wholesale by a YAML rules file.
type SeverityClassifier struct {
	patterns []compiledPattern
}

type compiledPattern struct {
	re   *regexp.Regexp
	rule DangerPattern
}

// defaultPatterns covers deletion, reboot, and equivalent high-impact
// operations.
func defaultPatterns() []DangerPattern {
	return []DangerPattern{
		{Pattern: `\brm\s+(-[a-zA-Z]*\s+)*`, Message: "file deletion"},
		{Pattern: `\b(reboot|shutdown|halt|poweroff)\b`, Message: "host restart"},
		{Pattern: `\bmkfs(\.\w+)?\b`, Message: "filesystem format"},
		{Pattern: `\bdd\b.*\bof=/dev/`, Message: "raw device write"},
		{Pattern: `\bsystemctl\s+(stop|disable|mask)\b`, Message: "service teardown"},
		{Pattern: `:\(\)\s*\{.*\};\s*:`, Message: "fork bomb"},
		{Pattern: `\buserdel\b|\bgroupdel\b`, Message: "account removal"},
	}
}

// NewSeverityClassifier compiles the default pattern set.
func NewSeverityClassifier() (*SeverityClassifier, error) {
	return newClassifier(defaultPatterns())
}

// LoadSeverityClassifier reads patterns from a YAML rules file. A missing
// file falls back to the defaults; a present-but-invalid file is an error so
// a typo cannot silently disable the classifier.
func LoadSeverityClassifier(path string) (*SeverityClassifier, error) {
	if path == "" {
		return NewSeverityClassifier()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewSeverityClassifier()
		}
		return nil, fmt.Errorf("failed to read severity rules: %w", err)
	}
	var rules severityRulesFile
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse severity rules: %w", err)
	}
	if len(rules.Rules.DangerPatterns) == 0 {
		return NewSeverityClassifier()
	}
	return newClassifier(rules.Rules.DangerPatterns)
}

func newClassifier(rules []DangerPattern) (*SeverityClassifier, error) {
	var compiled []compiledPattern
	for _, rule := range rules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid severity pattern %q: %w", rule.Pattern, err)
		}
		compiled = append(compiled, compiledPattern{re: re, rule: rule})
	}
	return &SeverityClassifier{patterns: compiled}, nil
}

// IsDangerous reports whether the command matches any danger pattern, along
// with the messages of every matching rule.
func (c *SeverityClassifier) IsDangerous(command string) (bool, []string) {
	var reasons []string
	for _, p := range c.patterns {
		if p.re.MatchString(command) {
			reasons = append(reasons, p.rule.Message)
		}
	}
	return len(reasons) > 0, reasons
}
