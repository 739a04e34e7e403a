// Package rules holds the keyword gate's rule tables. Rule sets are data:
// they load from YAML, carry a version string, and that version participates
// in the cache fingerprint so editing rules automatically invalidates stale
// verdicts.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/riskwatch/risk-engine/pkg/models"
)

//go:embed default.yaml
var defaultYAML []byte

// Rule is one (pattern-set, category, base-confidence) triple. Any pattern
// occurring in the document text matches the rule. Confidence is fixed per
// rule, never computed, which keeps the gate deterministic.
type Rule struct {
	Name       string              `yaml:"name"`
	Patterns   []string            `yaml:"patterns"`
	Category   models.RiskCategory `yaml:"category"`
	Confidence float64             `yaml:"confidence"`
}

// Set is a versioned collection of rule tables, one ordered table per risk
// dimension. Within a dimension, rules are evaluated by descending severity;
// the first match wins.
type Set struct {
	Version    string                      `yaml:"version"`
	Dimensions map[models.Dimension][]Rule `yaml:"dimensions"`
}

// Load reads a rule set from a YAML file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ruleset %s: %w", path, err)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("ruleset %s: %w", path, err)
	}
	return set, nil
}

// Parse decodes and validates a YAML rule set, normalizing patterns to
// lowercase and ordering each dimension's rules by descending severity
// (stable, so same-severity rules keep their file order).
func Parse(data []byte) (*Set, error) {
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("decode ruleset: %w", err)
	}

	if err := set.validate(); err != nil {
		return nil, err
	}

	for dim, dimRules := range set.Dimensions {
		for i := range dimRules {
			for j, p := range dimRules[i].Patterns {
				dimRules[i].Patterns[j] = strings.ToLower(strings.TrimSpace(p))
			}
		}
		sort.SliceStable(dimRules, func(i, j int) bool {
			return dimRules[i].Category.Severity() > dimRules[j].Category.Severity()
		})
		set.Dimensions[dim] = dimRules
	}

	return &set, nil
}

// Default returns the embedded default rule set.
func Default() *Set {
	set, err := Parse(defaultYAML)
	if err != nil {
		// The embedded asset is validated by tests; failing here means a
		// broken build, not a runtime condition.
		panic(fmt.Sprintf("embedded default ruleset invalid: %v", err))
	}
	return set
}

// RulesFor returns the ordered rule table for a dimension. Dimensions
// without rules yield nil, which the gate treats as always-none.
func (s *Set) RulesFor(dim models.Dimension) []Rule {
	return s.Dimensions[dim]
}

func (s *Set) validate() error {
	if s.Version == "" {
		return fmt.Errorf("ruleset version is required")
	}
	if len(s.Dimensions) == 0 {
		return fmt.Errorf("ruleset has no dimensions")
	}

	for dim, dimRules := range s.Dimensions {
		if !dim.IsValid() {
			return fmt.Errorf("unknown dimension %q", dim)
		}
		for _, rule := range dimRules {
			if rule.Name == "" {
				return fmt.Errorf("dimension %s: rule without a name", dim)
			}
			if len(rule.Patterns) == 0 {
				return fmt.Errorf("rule %s/%s: no patterns", dim, rule.Name)
			}
			if !rule.Category.IsValid() || rule.Category == models.RiskNone {
				return fmt.Errorf("rule %s/%s: invalid category %q", dim, rule.Name, rule.Category)
			}
			if rule.Confidence <= 0 || rule.Confidence > 1 {
				return fmt.Errorf("rule %s/%s: confidence %v out of range (0,1]", dim, rule.Name, rule.Confidence)
			}
		}
	}
	return nil
}
