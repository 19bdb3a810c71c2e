package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/agrodata/docmaint-engine/internal/domain"
)

// policyFile is the YAML shape of a governance policy override file. Any
// section present in the file replaces the corresponding default table
// wholesale; absent sections keep the defaults. Tables are never merged.
type policyFile struct {
	Readonly     []string          `yaml:"readonly"`
	Denormalized []string          `yaml:"denormalized"`
	Calculated   []string          `yaml:"calculated"`
	References   map[string]string `yaml:"references"`
	Collections  struct {
		Allowed []Collection `yaml:"allowed"`
		Denied  []string     `yaml:"denied"`
	} `yaml:"collections"`
}

// Load reads a governance policy YAML file and builds a Policy on top of
// the defaults. The result is immutable for the life of the process.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}

	var f policyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, domain.NewMaintError(domain.ErrPolicyInvalid.Code,
			fmt.Sprintf("parse policy YAML: %v", err))
	}

	t := DefaultTables()
	if f.Readonly != nil {
		t.Readonly = f.Readonly
	}
	if f.Denormalized != nil {
		t.Denormalized = f.Denormalized
	}
	if f.Calculated != nil {
		t.Calculated = f.Calculated
	}
	if f.References != nil {
		t.References = f.References
	}
	if f.Collections.Allowed != nil {
		t.Allowed = f.Collections.Allowed
	}
	if f.Collections.Denied != nil {
		t.Denied = f.Collections.Denied
	}

	if err := validateTables(t); err != nil {
		return nil, err
	}
	return New(t), nil
}

func validateTables(t Tables) error {
	seen := make(map[string]bool, len(t.Allowed))
	for _, c := range t.Allowed {
		if c.ID == "" {
			return domain.NewMaintError(domain.ErrPolicyInvalid.Code,
				"allowlisted collection with empty id")
		}
		if seen[c.ID] {
			return domain.NewMaintError(domain.ErrPolicyInvalid.Code,
				fmt.Sprintf("collection %q listed twice in allowlist", c.ID))
		}
		seen[c.ID] = true
	}
	for f, c := range t.References {
		if f == "" || c == "" {
			return domain.NewMaintError(domain.ErrPolicyInvalid.Code,
				"reference entry with empty field or collection")
		}
	}
	return nil
}
