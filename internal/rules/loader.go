package rules

import (
	"errors"
	"fmt"
	"os"

	"github.com/davidahmann/lexgen/internal/digest"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML rule file at path. On failure it returns Empty() together
// with a *ConfigurationError so callers can keep serving in degraded mode.
func Load(path string) (*RuleSet, error) {
	// #nosec G304 -- path comes from operator-configured rules path.
	data, err := os.ReadFile(path)
	if err != nil {
		return Empty(), &ConfigurationError{Path: path, Err: err}
	}

	set, err := Parse(data)
	if err != nil {
		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) {
			cfgErr.Path = path
		}
		return set, err
	}
	return set, nil
}

// Parse builds a rule set from YAML bytes and records their digest.
func Parse(data []byte) (*RuleSet, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Empty(), &ConfigurationError{Err: err}
	}
	if len(doc.Jurisdictions) == 0 && len(doc.ContractTypes) == 0 {
		return Empty(), &ConfigurationError{Err: errors.New("no jurisdictions or contract types defined")}
	}

	set := &RuleSet{
		jurisdictions: make(map[string]JurisdictionRule, len(doc.Jurisdictions)),
		contractTypes: make(map[string]ContractTypeRule, len(doc.ContractTypes)),
		digest:        digest.WithPrefix(data),
	}

	for rawCode, j := range doc.Jurisdictions {
		code := Normalize(rawCode)
		if code == "" {
			return Empty(), &ConfigurationError{Err: errors.New("empty jurisdiction code")}
		}
		if _, dup := set.jurisdictions[code]; dup {
			return Empty(), &ConfigurationError{Err: fmt.Errorf("duplicate jurisdiction %q", code)}
		}
		clauses := make(map[string][]string, len(j.ContractClauses))
		for rawType, list := range j.ContractClauses {
			clauses[Normalize(rawType)] = cloneStrings(list)
		}
		set.jurisdictions[code] = JurisdictionRule{
			Code:            code,
			LegalFramework:  j.LegalFramework,
			ComplianceRules: cloneStrings(j.ComplianceRules),
			ContractClauses: clauses,
			RequiredFields:  cloneStrings(j.RequiredFields),
		}
	}

	for rawCode, c := range doc.ContractTypes {
		code := Normalize(rawCode)
		if code == "" {
			return Empty(), &ConfigurationError{Err: errors.New("empty contract type code")}
		}
		if _, dup := set.contractTypes[code]; dup {
			return Empty(), &ConfigurationError{Err: fmt.Errorf("duplicate contract type %q", code)}
		}
		set.contractTypes[code] = ContractTypeRule{
			Code:                   code,
			RequiredFunctions:      cloneStrings(c.RequiredFunctions),
			SecurityConsiderations: cloneStrings(c.SecurityConsiderations),
		}
	}

	return set, nil
}
