package config

import (
	"fmt"
	"os"

	"sow_tracker/internal/domain/cycle"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// policyFile is the on-disk layout of POLICY_FILE. Keys left out inherit from
// the built-in defaults; organization entries inherit from `default`. A key
// that is present always wins, including an explicit 0.
type policyFile struct {
	Default       yaml.Node            `yaml:"default"`
	Organizations map[string]yaml.Node `yaml:"organizations"`
}

// LoadPolicies builds the policy set from path. An empty path yields the
// built-in defaults.
func LoadPolicies(path string) (*cycle.PolicySet, error) {
	if path == "" {
		return cycle.NewPolicySet(cycle.DefaultPolicy()), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return ParsePolicies(raw)
}

// ParsePolicies decodes a policy document.
func ParsePolicies(raw []byte) (*cycle.PolicySet, error) {
	var doc policyFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}

	def := cycle.DefaultPolicy()
	if err := overlay(&def, &doc.Default); err != nil {
		return nil, fmt.Errorf("default policy: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("default policy: %w", err)
	}
	set := cycle.NewPolicySet(def)
	for key, node := range doc.Organizations {
		orgID, err := uuid.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("organization %q: %w", key, err)
		}
		p := def
		if err := overlay(&p, &node); err != nil {
			return nil, fmt.Errorf("organization %s policy: %w", orgID, err)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("organization %s policy: %w", orgID, err)
		}
		set.Overrides[orgID] = p
	}
	return set, nil
}

// overlay decodes node on top of p. yaml only assigns the keys it finds, so
// absent keys keep p's values.
func overlay(p *cycle.Policy, node *yaml.Node) error {
	if node.Kind == 0 || node.ShortTag() == "!!null" {
		return nil
	}
	return node.Decode(p)
}
