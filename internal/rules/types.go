package rules

// document mirrors the YAML rule file.
type document struct {
	Jurisdictions map[string]jurisdictionDoc `yaml:"jurisdictions"`
	ContractTypes map[string]contractTypeDoc `yaml:"contract_types"`
}

type jurisdictionDoc struct {
	LegalFramework  string              `yaml:"legal_framework"`
	ComplianceRules []string            `yaml:"compliance_rules"`
	ContractClauses map[string][]string `yaml:"contract_clauses"`
	RequiredFields  []string            `yaml:"required_fields"`
}

type contractTypeDoc struct {
	RequiredFunctions      []string `yaml:"required_functions"`
	SecurityConsiderations []string `yaml:"security_considerations"`
}

type JurisdictionRule struct {
	Code            string
	LegalFramework  string
	ComplianceRules []string
	ContractClauses map[string][]string
	RequiredFields  []string
}

// Clauses returns the clauses this jurisdiction attaches to contractType.
func (j JurisdictionRule) Clauses(contractType string) []string {
	return j.ContractClauses[Normalize(contractType)]
}

type ContractTypeRule struct {
	Code                   string
	RequiredFunctions      []string
	SecurityConsiderations []string
}

func (j JurisdictionRule) clone() JurisdictionRule {
	out := j
	out.ComplianceRules = cloneStrings(j.ComplianceRules)
	out.RequiredFields = cloneStrings(j.RequiredFields)
	out.ContractClauses = make(map[string][]string, len(j.ContractClauses))
	for k, v := range j.ContractClauses {
		out.ContractClauses[k] = cloneStrings(v)
	}
	return out
}

func (c ContractTypeRule) clone() ContractTypeRule {
	out := c
	out.RequiredFunctions = cloneStrings(c.RequiredFunctions)
	out.SecurityConsiderations = cloneStrings(c.SecurityConsiderations)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
