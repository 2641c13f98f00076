package rules

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// RuleSet is the read-only jurisdiction and contract-type table. It is never
// mutated after construction and is safe for concurrent readers.
type RuleSet struct {
	jurisdictions map[string]JurisdictionRule
	contractTypes map[string]ContractTypeRule
	digest        string
}

// Empty returns a rule set with no entries. Validation against it reports
// every jurisdiction and contract type as unknown.
func Empty() *RuleSet {
	return &RuleSet{
		jurisdictions: map[string]JurisdictionRule{},
		contractTypes: map[string]ContractTypeRule{},
	}
}

// Normalize folds a jurisdiction or contract-type code for lookup.
func Normalize(code string) string {
	return cases.Fold().String(strings.TrimSpace(code))
}

func (s *RuleSet) Jurisdiction(code string) (JurisdictionRule, bool) {
	if s == nil {
		return JurisdictionRule{}, false
	}
	rule, ok := s.jurisdictions[Normalize(code)]
	if !ok {
		return JurisdictionRule{}, false
	}
	return rule.clone(), true
}

func (s *RuleSet) ContractType(code string) (ContractTypeRule, bool) {
	if s == nil {
		return ContractTypeRule{}, false
	}
	rule, ok := s.contractTypes[Normalize(code)]
	if !ok {
		return ContractTypeRule{}, false
	}
	return rule.clone(), true
}

// JurisdictionCodes returns the known jurisdiction codes in sorted order.
func (s *RuleSet) JurisdictionCodes() []string {
	if s == nil {
		return []string{}
	}
	return sortedKeys(s.jurisdictions)
}

// ContractTypeCodes returns the known contract-type codes in sorted order.
func (s *RuleSet) ContractTypeCodes() []string {
	if s == nil {
		return []string{}
	}
	return sortedKeys(s.contractTypes)
}

// Digest is the sha256 digest of the source bytes, empty for Empty().
func (s *RuleSet) Digest() string {
	if s == nil {
		return ""
	}
	return s.digest
}

func (s *RuleSet) IsEmpty() bool {
	return s == nil || (len(s.jurisdictions) == 0 && len(s.contractTypes) == 0)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
